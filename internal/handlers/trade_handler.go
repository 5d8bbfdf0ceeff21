package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "otcbook/internal/errors"
	"otcbook/internal/models"
	"otcbook/internal/pagination"
	"otcbook/internal/services"
)

// TradeHandler handles trade ledger requests.
type TradeHandler struct {
	tradeService services.TradeServicer
	auditService services.AuditServicer
}

// NewTradeHandler creates a new TradeHandler.
func NewTradeHandler(tradeService services.TradeServicer, auditService services.AuditServicer) *TradeHandler {
	return &TradeHandler{tradeService: tradeService, auditService: auditService}
}

// CreateTradeRequest represents the request payload for logging a trade.
type CreateTradeRequest struct {
	AssetSymbol  string           `json:"asset_symbol" binding:"required,min=2,max=10"`
	Side         models.TradeSide `json:"side" binding:"required,trade_side"`
	TradeType    models.TradeType `json:"trade_type" binding:"omitempty,trade_type"`
	AmountCrypto decimal.Decimal  `json:"amount_crypto" binding:"required"`
	AmountCash   decimal.Decimal  `json:"amount_cash" binding:"required"`
	Rate         decimal.Decimal  `json:"rate" binding:"required"`
	TradeDate    *string          `json:"trade_date"`
}

// CreateTrade handles logging a new trade
// @Summary     Log a trade
// @Description Record a completed OTC or P2P trade. Profit/loss is derived server-side and the record is immutable afterwards.
// @Tags        trades
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTradeRequest true "Trade details"
// @Success     201 {object} models.Trade "Trade logged"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "No desk membership"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /trades [post]
func (h *TradeHandler) CreateTrade(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	tradeDate := time.Now()
	if req.TradeDate != nil && *req.TradeDate != "" {
		parsed, parseErr := parseFlexibleTime(*req.TradeDate)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid trade_date format, use RFC3339 or YYYY-MM-DD"))
			return
		}
		tradeDate = parsed
	}

	tradeType := req.TradeType
	if tradeType == "" {
		tradeType = models.TradeTypeOTC
	}

	trade, err := h.tradeService.CreateTrade(
		userID,
		req.AssetSymbol,
		req.Side,
		tradeType,
		req.AmountCrypto,
		req.AmountCash,
		req.Rate,
		tradeDate,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_TRADE", "trade", trade.ID, c.ClientIP(),
		map[string]interface{}{"asset": req.AssetSymbol, "side": req.Side, "amount_cash": req.AmountCash})

	c.JSON(http.StatusCreated, gin.H{"trade": trade})
}

// GetTrades handles the retrieval of the caller's trades
// @Summary     List trades
// @Description Get a paginated list of the caller's trades with optional filters, newest trade date first
// @Tags        trades
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page          query int    false "Page number (default 1)"
// @Param       page_size     query int    false "Items per page (default 20, max 100)"
// @Param       asset         query string false "Filter by asset symbol"
// @Param       side          query string false "Filter by side (buy, sell)"
// @Param       trade_type    query string false "Filter by trade type (otc, p2p)"
// @Param       start_date    query string false "Filter by start date (RFC3339 or YYYY-MM-DD)"
// @Param       end_date      query string false "Filter by end date (RFC3339 or YYYY-MM-DD)"
// @Param       date_preset   query string false "Relative window (today, week, month, year)"
// @Param       min_cash      query number false "Minimum cash amount"
// @Param       max_cash      query number false "Maximum cash amount"
// @Param       min_profit    query number false "Minimum profit/loss"
// @Param       max_profit    query number false "Maximum profit/loss"
// @Param       is_profitable query bool   false "Only profitable (true) or losing (false) trades"
// @Success     200 {object} pagination.PageResponse[models.Trade] "Paginated trades"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /trades [get]
func (h *TradeHandler) GetTrades(c *gin.Context) {
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

	filter, err := parseTradeFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.tradeService.GetUserTrades(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTrade handles the retrieval of a single trade
// @Summary     Get a trade
// @Description Get one of the caller's trades by ID
// @Tags        trades
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Trade ID"
// @Success     200 {object} models.Trade "Trade"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Trade not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /trades/{id} [get]
func (h *TradeHandler) GetTrade(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	tradeID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	trade, err := h.tradeService.GetTradeByID(userID, tradeID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trade": trade})
}

// GetPnLSummary handles the aggregated P&L view
// @Summary     Get P&L summary
// @Description Aggregate realized profit/loss totals with per-asset, per-desk, and per-day breakdowns
// @Tags        trades
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       asset       query string false "Filter by asset symbol"
// @Param       side        query string false "Filter by side (buy, sell)"
// @Param       start_date  query string false "Filter by start date (RFC3339 or YYYY-MM-DD)"
// @Param       end_date    query string false "Filter by end date (RFC3339 or YYYY-MM-DD)"
// @Param       date_preset query string false "Relative window (today, week, month, year)"
// @Success     200 {object} services.PnLSummary "Aggregated P&L"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /trades/pnl [get]
func (h *TradeHandler) GetPnLSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter, err := parseTradeFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.tradeService.PnLSummary(userID, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ExportTrades streams the caller's full trade history as CSV
// @Summary     Export trades as CSV
// @Description Download the caller's complete trade history as a CSV attachment, newest first
// @Tags        trades
// @Produce     text/csv
// @Security    BearerAuth
// @Success     200 {string} string "CSV file"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /trades/export [get]
func (h *TradeHandler) ExportTrades(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filename := fmt.Sprintf("trades-%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := h.tradeService.ExportCSV(userID, c.Writer); err != nil {
		respondWithError(c, err)
		return
	}
}

func parseTradeFilter(c *gin.Context) (services.TradeFilter, error) {
	var filter services.TradeFilter

	if v := c.Query("asset"); v != "" {
		filter.AssetSymbol = &v
	}

	if v := c.Query("side"); v != "" {
		side := models.TradeSide(v)
		switch side {
		case models.TradeSideBuy, models.TradeSideSell:
			filter.Side = &side
		default:
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid side, must be buy or sell")
		}
	}

	if v := c.Query("trade_type"); v != "" {
		tradeType := models.TradeType(v)
		switch tradeType {
		case models.TradeTypeOTC, models.TradeTypeP2P:
			filter.TradeType = &tradeType
		default:
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid trade_type, must be otc or p2p")
		}
	}

	if v := c.Query("start_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid start_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.StartDate = &t
	}

	if v := c.Query("end_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid end_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.EndDate = &t
	}

	if v := c.Query("date_preset"); v != "" {
		switch v {
		case "today", "week", "month", "year":
			filter.DatePreset = &v
		default:
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid date_preset, must be today, week, month, or year")
		}
	}

	for query, target := range map[string]**decimal.Decimal{
		"min_cash":   &filter.MinCash,
		"max_cash":   &filter.MaxCash,
		"min_profit": &filter.MinProfit,
		"max_profit": &filter.MaxProfit,
	} {
		if v := c.Query(query); v != "" {
			d, err := decimal.NewFromString(v)
			if err != nil {
				return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+query)
			}
			*target = &d
		}
	}

	if v := c.Query("is_profitable"); v != "" {
		switch v {
		case "true":
			profitable := true
			filter.IsProfitable = &profitable
		case "false":
			profitable := false
			filter.IsProfitable = &profitable
		default:
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid is_profitable, must be true or false")
		}
	}

	return filter, nil
}
