package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "otcbook/internal/errors"
	"otcbook/internal/pagination"
	"otcbook/internal/services"
)

// InvoiceHandler handles invoice requests.
type InvoiceHandler struct {
	invoiceService services.InvoiceServicer
	auditService   services.AuditServicer
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceService services.InvoiceServicer, auditService services.AuditServicer) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService, auditService: auditService}
}

// CreateInvoiceRequest represents the payload for issuing an invoice.
type CreateInvoiceRequest struct {
	TradeID     uint   `json:"trade_id" binding:"required"`
	ClientEmail string `json:"client_email" binding:"omitempty,email,max=255"`
}

// CreateInvoice issues an invoice for a trade
// @Summary     Create an invoice
// @Description Issue a PDF invoice for one of the caller's trades. Each trade can carry at most one invoice.
// @Tags        invoices
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateInvoiceRequest true "Invoice details"
// @Success     201 {object} models.Invoice "Invoice created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Trade not found"
// @Failure     409 {object} ErrorResponse "Invoice already exists for this trade"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	invoice, err := h.invoiceService.CreateFromTrade(c.Request.Context(), userID, req.TradeID, req.ClientEmail)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_INVOICE", "invoice", invoice.ID, c.ClientIP(),
		map[string]interface{}{"trade_id": req.TradeID, "invoice_number": invoice.InvoiceNumber})

	c.JSON(http.StatusCreated, gin.H{"invoice": invoice})
}

// GetInvoices returns the caller's invoices
// @Summary     List invoices
// @Description Get a paginated list of the caller's invoices, newest first
// @Tags        invoices
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Invoice] "Paginated invoices"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /invoices [get]
func (h *InvoiceHandler) GetInvoices(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.invoiceService.GetUserInvoices(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetInvoice returns a single invoice
// @Summary     Get an invoice
// @Description Get one of the caller's invoices by ID
// @Tags        invoices
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Invoice ID"
// @Success     200 {object} models.Invoice "Invoice"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Invoice not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	invoiceID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	invoice, err := h.invoiceService.GetInvoiceByID(userID, invoiceID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}
