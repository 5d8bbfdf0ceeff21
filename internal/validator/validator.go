// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("trade_side", validateTradeSide)
		_ = v.RegisterValidation("trade_type", validateTradeType)
		_ = v.RegisterValidation("desk_role", validateDeskRole)
		_ = v.RegisterValidation("notification_type", validateNotificationType)
		_ = v.RegisterValidation("invoice_status", validateInvoiceStatus)
	}
}

func validateTradeSide(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "buy", "sell":
		return true
	}
	return false
}

func validateTradeType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "otc", "p2p":
		return true
	}
	return false
}

func validateDeskRole(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "desk_owner", "manager", "trader", "analyst", "viewer", "auditor":
		return true
	}
	return false
}

func validateNotificationType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "points", "badge", "system":
		return true
	}
	return false
}

func validateInvoiceStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "draft", "sent", "cancelled":
		return true
	}
	return false
}
