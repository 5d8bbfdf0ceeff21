package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// Invoice is issued for exactly one trade. Desk and asset names are
// snapshotted at issue time so later catalog edits don't rewrite
// historical paperwork.
type Invoice struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	InvoiceNumber string          `gorm:"uniqueIndex;not null;size:30" json:"invoice_number"`
	TradeID       uint            `gorm:"not null;uniqueIndex" json:"trade_id"`
	TraderID      uint            `gorm:"not null;index" json:"trader_id"`
	DeskName      string          `gorm:"not null" json:"desk_name"`
	AssetSymbol   string          `gorm:"not null;size:10" json:"asset_symbol"`
	Amount        decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
	Status        InvoiceStatus   `gorm:"not null;size:10;default:'draft';index" json:"status"`
	PDFURL        string          `json:"pdf_url,omitempty"`
	ClientEmail   string          `json:"client_email,omitempty"`
	IssuedAt      time.Time       `gorm:"autoCreateTime;index" json:"issued_at"`
}
