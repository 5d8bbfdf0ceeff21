package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "otcbook/internal/errors"
	"otcbook/internal/models"
	"otcbook/internal/pagination"
	"otcbook/internal/report"
	"otcbook/internal/storage"
)

// invoiceService issues PDF invoices for settled trades.
type invoiceService struct {
	db    *gorm.DB
	store storage.Store
}

// NewInvoiceService creates a new InvoiceServicer.
func NewInvoiceService(db *gorm.DB, store storage.Store) InvoiceServicer {
	return &invoiceService{db: db, store: store}
}

// CreateFromTrade issues an invoice for one of the caller's trades. A
// trade can carry at most one invoice; a second attempt conflicts.
func (s *invoiceService) CreateFromTrade(ctx context.Context, userID, tradeID uint, clientEmail string) (*models.Invoice, error) {
	var trade models.Trade
	if err := s.db.Preload("Asset").Preload("Desk").
		Where("id = ? AND trader_id = ?", tradeID, userID).
		First(&trade).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTradeNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var existing int64
	if err := s.db.Model(&models.Invoice{}).Where("trade_id = ?", tradeID).Count(&existing).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if existing > 0 {
		return nil, apperrors.ErrDuplicateInvoice
	}

	invoice := &models.Invoice{
		TradeID:     tradeID,
		TraderID:    userID,
		DeskName:    trade.Desk.Name,
		AssetSymbol: trade.Asset.Symbol,
		Amount:      trade.AmountCash,
		Status:      models.InvoiceStatusDraft,
		ClientEmail: clientEmail,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		number, err := nextInvoiceNumber(tx)
		if err != nil {
			return err
		}
		invoice.InvoiceNumber = number

		if err := tx.Create(invoice).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	document, err := report.RenderInvoice(report.InvoiceData{
		InvoiceNumber: invoice.InvoiceNumber,
		IssuedAt:      invoice.IssuedAt.Format("2006-01-02"),
		DeskName:      invoice.DeskName,
		AssetSymbol:   invoice.AssetSymbol,
		Amount:        invoice.Amount.StringFixed(2),
		Status:        string(invoice.Status),
		ClientEmail:   invoice.ClientEmail,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	key := fmt.Sprintf("invoices/user-%d/%s.pdf", userID, invoice.InvoiceNumber)
	url, err := s.store.Upload(ctx, key, document)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Model(invoice).UpdateColumn("pdf_url", url).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	invoice.PDFURL = url

	return invoice, nil
}

// GetUserInvoices returns the caller's invoices, newest first.
func (s *invoiceService) GetUserInvoices(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Invoice], error) {
	page.Defaults()

	base := s.db.Model(&models.Invoice{}).Where("trader_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var invoices []models.Invoice
	if err := base.Scopes(pagination.Paginate(page)).
		Order("issued_at DESC").
		Find(&invoices).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(invoices, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetInvoiceByID returns one of the caller's invoices.
func (s *invoiceService) GetInvoiceByID(userID, invoiceID uint) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := s.db.Where("id = ? AND trader_id = ?", invoiceID, userID).First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvoiceNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &invoice, nil
}

// nextInvoiceNumber allocates the next OTC-<year>-<seq> invoice number.
// The sequence restarts every calendar year.
func nextInvoiceNumber(tx *gorm.DB) (string, error) {
	year := time.Now().Year()

	var issuedThisYear int64
	if err := tx.Model(&models.Invoice{}).
		Where("invoice_number LIKE ?", fmt.Sprintf("OTC-%d-%%", year)).
		Count(&issuedThisYear).Error; err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return fmt.Sprintf("OTC-%d-%06d", year, issuedThisYear+1), nil
}
