package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "otcbook/internal/errors"
	"otcbook/internal/logger"
	"otcbook/internal/models"
	"otcbook/internal/pagination"
)

// tradeService handles the immutable trade ledger.
type tradeService struct {
	db     *gorm.DB
	points PointsServicer
}

// NewTradeService creates a new TradeServicer.
func NewTradeService(db *gorm.DB, points PointsServicer) TradeServicer {
	return &tradeService{db: db, points: points}
}

// CreateTrade validates and persists a completed trade, then awards OP
// for it. The gamification cascade is an explicit call, not a storage
// side effect, so the dependency stays visible and testable.
func (s *tradeService) CreateTrade(
	userID uint,
	assetSymbol string,
	side models.TradeSide,
	tradeType models.TradeType,
	amountCrypto, amountCash, rate decimal.Decimal,
	tradeDate time.Time,
) (*models.Trade, error) {
	if !amountCrypto.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount_crypto: value must be greater than zero")
	}
	if !amountCash.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount_cash: value must be greater than zero")
	}
	if !rate.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "rate: value must be greater than zero")
	}

	symbol := strings.ToUpper(strings.TrimSpace(assetSymbol))
	if symbol == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "asset: symbol is required")
	}

	user, err := s.getUser(userID)
	if err != nil {
		return nil, err
	}
	if user.DeskID == nil {
		return nil, apperrors.ErrNoDesk
	}

	if tradeDate.IsZero() {
		tradeDate = time.Now()
	}
	if tradeType == "" {
		tradeType = models.TradeTypeOTC
	}

	var trade *models.Trade
	err = s.db.Transaction(func(tx *gorm.DB) error {
		asset, txErr := s.getOrCreateAsset(tx, symbol)
		if txErr != nil {
			return txErr
		}

		// Profit/loss is fixed inside the same INSERT by the model
		// hook; there is no read-modify-write window.
		trade = &models.Trade{
			TraderID:     userID,
			AssetID:      asset.ID,
			DeskID:       *user.DeskID,
			Side:         side,
			TradeType:    tradeType,
			AmountCrypto: amountCrypto,
			AmountCash:   amountCash,
			Rate:         rate,
			TradeDate:    tradeDate,
		}
		if txErr := tx.Create(trade).Error; txErr != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, txErr)
		}
		trade.Asset = *asset
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The trade row is committed; a failing award must not undo it.
	if err := s.points.AwardTradePoints(trade); err != nil {
		logger.Get().Errorw("failed to award trade points",
			"error", err, "trade_id", trade.ID, "user_id", userID)
	}

	return trade, nil
}

func (s *tradeService) getUser(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

func (s *tradeService) getOrCreateAsset(tx *gorm.DB, symbol string) (*models.Asset, error) {
	var asset models.Asset
	err := tx.Where("symbol = ?", symbol).First(&asset).Error
	if err == nil {
		return &asset, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	asset = models.Asset{Symbol: symbol, Name: symbol, IsActive: true, IsCustom: true}
	if err := tx.Create(&asset).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &asset, nil
}

// GetUserTrades returns the caller's trades, newest first, with
// optional filters applied.
func (s *tradeService) GetUserTrades(userID uint, page pagination.PageRequest, filter TradeFilter) (*pagination.PageResponse[models.Trade], error) {
	page.Defaults()

	base := s.db.Model(&models.Trade{}).Where("trader_id = ?", userID)
	base = applyTradeFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var trades []models.Trade
	if err := base.Scopes(pagination.Paginate(page)).
		Preload("Asset").
		Preload("Desk").
		Order("trade_date DESC").
		Find(&trades).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(trades, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTradeFilters(q *gorm.DB, f TradeFilter) *gorm.DB {
	if f.AssetSymbol != nil {
		symbol := strings.ToUpper(strings.TrimSpace(*f.AssetSymbol))
		q = q.Where("asset_id IN (?)",
			q.Session(&gorm.Session{NewDB: true}).Model(&models.Asset{}).Select("id").Where("symbol = ?", symbol))
	}
	if f.Side != nil {
		q = q.Where("side = ?", *f.Side)
	}
	if f.TradeType != nil {
		q = q.Where("trade_type = ?", *f.TradeType)
	}
	if f.StartDate != nil {
		q = q.Where("trade_date >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("trade_date <= ?", *f.EndDate)
	}
	if f.DatePreset != nil {
		if start, ok := presetStart(*f.DatePreset, time.Now()); ok {
			q = q.Where("trade_date >= ?", start)
		}
	}
	if f.MinCash != nil {
		q = q.Where("amount_cash >= ?", *f.MinCash)
	}
	if f.MaxCash != nil {
		q = q.Where("amount_cash <= ?", *f.MaxCash)
	}
	if f.MinProfit != nil {
		q = q.Where("profit_loss >= ?", *f.MinProfit)
	}
	if f.MaxProfit != nil {
		q = q.Where("profit_loss <= ?", *f.MaxProfit)
	}
	if f.IsProfitable != nil {
		if *f.IsProfitable {
			q = q.Where("profit_loss > 0")
		} else {
			q = q.Where("profit_loss <= 0")
		}
	}
	return q
}

// presetStart maps a date preset to its inclusive start instant.
func presetStart(preset string, now time.Time) (time.Time, bool) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch preset {
	case "today":
		return midnight, true
	case "week":
		// Week starts on Monday.
		offset := (int(now.Weekday()) + 6) % 7
		return midnight.AddDate(0, 0, -offset), true
	case "month":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), true
	case "year":
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location()), true
	}
	return time.Time{}, false
}

// GetTradeByID retrieves one of the caller's trades.
func (s *tradeService) GetTradeByID(userID, tradeID uint) (*models.Trade, error) {
	var trade models.Trade
	if err := s.db.Preload("Asset").Preload("Desk").
		Where("id = ? AND trader_id = ?", tradeID, userID).First(&trade).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTradeNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &trade, nil
}

type pnlTotals struct {
	TotalTrades     int64           `gorm:"column:total_trades"`
	TotalProfitLoss decimal.Decimal `gorm:"column:total_profit_loss"`
	TotalBuyVolume  decimal.Decimal `gorm:"column:total_buy_volume"`
	TotalSellVolume decimal.Decimal `gorm:"column:total_sell_volume"`
}

// PnLSummary aggregates realized P&L for the caller with breakdowns by
// asset, desk, and calendar date. Empty sets yield zeroes, never nulls.
func (s *tradeService) PnLSummary(userID uint, filter TradeFilter) (*PnLSummary, error) {
	base := func() *gorm.DB {
		return applyTradeFilters(s.db.Model(&models.Trade{}).Where("trader_id = ?", userID), filter)
	}

	var totals pnlTotals
	err := base().Select(
		"COUNT(*) AS total_trades, " +
			"COALESCE(SUM(profit_loss), 0) AS total_profit_loss, " +
			"COALESCE(SUM(CASE WHEN side = 'buy' THEN amount_cash ELSE 0 END), 0) AS total_buy_volume, " +
			"COALESCE(SUM(CASE WHEN side = 'sell' THEN amount_cash ELSE 0 END), 0) AS total_sell_volume").
		Scan(&totals).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summary := &PnLSummary{
		TotalTrades:     totals.TotalTrades,
		TotalProfitLoss: totals.TotalProfitLoss,
		TotalBuyVolume:  totals.TotalBuyVolume,
		TotalSellVolume: totals.TotalSellVolume,
		ByAsset:         []GroupPnL{},
		ByDesk:          []GroupPnL{},
		ByDate:          []GroupPnL{},
	}

	if err := base().
		Joins("JOIN assets ON assets.id = trades.asset_id").
		Select("assets.symbol AS key, COUNT(*) AS trades, COALESCE(SUM(profit_loss), 0) AS profit_loss").
		Group("assets.symbol").
		Order("profit_loss DESC").
		Scan(&summary.ByAsset).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := base().
		Joins("JOIN desks ON desks.id = trades.desk_id").
		Select("desks.name AS key, COUNT(*) AS trades, COALESCE(SUM(profit_loss), 0) AS profit_loss").
		Group("desks.name").
		Order("profit_loss DESC").
		Scan(&summary.ByDesk).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := base().
		Select("DATE(trade_date) AS key, COUNT(*) AS trades, COALESCE(SUM(profit_loss), 0) AS profit_loss").
		Group("DATE(trade_date)").
		Order("key ASC").
		Scan(&summary.ByDate).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return summary, nil
}

// ExportCSV streams the caller's trades as CSV, newest first.
func (s *tradeService) ExportCSV(userID uint, w io.Writer) error {
	var trades []models.Trade
	if err := s.db.Preload("Asset").Preload("Desk").
		Where("trader_id = ?", userID).
		Order("trade_date DESC").
		Find(&trades).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	writer := csv.NewWriter(w)
	header := []string{
		"Trade ID", "Trade Date", "Asset", "Desk", "Side", "Trade Type",
		"Crypto Amount", "Cash Amount", "Rate", "Profit/Loss",
	}
	if err := writer.Write(header); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for _, trade := range trades {
		record := []string{
			fmt.Sprintf("%d", trade.ID),
			trade.TradeDate.Format(time.RFC3339),
			trade.Asset.Symbol,
			trade.Desk.Name,
			strings.ToUpper(string(trade.Side)),
			string(trade.TradeType),
			trade.AmountCrypto.String(),
			trade.AmountCash.StringFixed(2),
			trade.Rate.StringFixed(2),
			trade.ProfitLoss.StringFixed(2),
		}
		if err := writer.Write(record); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
