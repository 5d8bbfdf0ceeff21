package services

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"otcbook/internal/models"
	"otcbook/internal/pagination"
)

// UserServicer defines the contract for user, desk, and team logic.
type UserServicer interface {
	RegisterDeskOwner(fullName, email, password, workspace string) (*models.User, error)
	AttemptLogin(email, password string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	StoreRefreshTokenHash(userID uint, tokenHash string) error
	GetRefreshTokenHash(userID uint) (string, error)
	AddTeamMember(ownerID uint, email, fullName string, role models.Role) (*models.User, string, error)
	SubmitKYC(ctx context.Context, ownerID uint, idCard []byte, filename, notes string) error
}

// TradeFilter holds optional filter parameters for trade queries.
type TradeFilter struct {
	AssetSymbol  *string
	Side         *models.TradeSide
	TradeType    *models.TradeType
	StartDate    *time.Time
	EndDate      *time.Time
	DatePreset   *string // today, week, month, year
	MinCash      *decimal.Decimal
	MaxCash      *decimal.Decimal
	MinProfit    *decimal.Decimal
	MaxProfit    *decimal.Decimal
	IsProfitable *bool
}

// GroupPnL is one aggregation bucket in a P&L breakdown.
type GroupPnL struct {
	Key        string          `json:"key"`
	Trades     int64           `json:"trades"`
	ProfitLoss decimal.Decimal `json:"profit_loss"`
}

// PnLSummary aggregates realized P&L over a trade set.
type PnLSummary struct {
	TotalTrades     int64           `json:"total_trades"`
	TotalProfitLoss decimal.Decimal `json:"total_profit_loss"`
	TotalBuyVolume  decimal.Decimal `json:"total_buy_volume"`
	TotalSellVolume decimal.Decimal `json:"total_sell_volume"`
	ByAsset         []GroupPnL      `json:"by_asset"`
	ByDesk          []GroupPnL      `json:"by_desk"`
	ByDate          []GroupPnL      `json:"by_date"`
}

// TradeServicer defines the contract for the trade ledger.
type TradeServicer interface {
	CreateTrade(userID uint, assetSymbol string, side models.TradeSide, tradeType models.TradeType,
		amountCrypto, amountCash, rate decimal.Decimal, tradeDate time.Time) (*models.Trade, error)
	GetUserTrades(userID uint, page pagination.PageRequest, filter TradeFilter) (*pagination.PageResponse[models.Trade], error)
	GetTradeByID(userID, tradeID uint) (*models.Trade, error)
	PnLSummary(userID uint, filter TradeFilter) (*PnLSummary, error)
	ExportCSV(userID uint, w io.Writer) error
}

// LeaderboardEntry is one row of the OP leaderboard.
type LeaderboardEntry struct {
	Email   string `json:"email"`
	TotalOP int    `json:"total_op"`
}

// PointsServicer defines the contract for the append-only points ledger.
type PointsServicer interface {
	Award(userID uint, action models.PointAction, points int, meta map[string]any) error
	AwardTradePoints(trade *models.Trade) error
	AwardInvitePoints(userID uint) error
	TotalPoints(userID uint) (int, error)
	RecentEvents(userID uint, limit int) ([]models.PointEvent, error)
	Leaderboard(lastSevenDays bool) ([]LeaderboardEntry, error)
}

// BadgeServicer defines the contract for the badge evaluator.
type BadgeServicer interface {
	CheckBadges(userID uint) error
	GetUserBadges(userID uint) ([]models.UserBadge, error)
}

// NotificationServicer defines the contract for user notifications.
type NotificationServicer interface {
	// Notify is best-effort: failures are logged, never propagated.
	Notify(userID uint, notifType models.NotificationType, title, message string, meta map[string]any)
	GetUserNotifications(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Notification], error)
	MarkRead(userID, notificationID uint) error
}

// QuickInsights is a lightweight advisory snapshot.
type QuickInsights struct {
	OPTrend           int    `json:"op_trend"`
	RiskAlert         string `json:"risk_alert"`
	VolatilityWarning string `json:"volatility_warning"`
}

// OPAnalysis grades a user's OP total into a trust tier.
type OPAnalysis struct {
	OPScore        int             `json:"op_score"`
	TrustLevel     string          `json:"trust_level"`
	AdvisoryWeight decimal.Decimal `json:"advisory_weight"`
}

// AdvisoryServicer defines the contract for the AI advisory component.
type AdvisoryServicer interface {
	// Ask never fails: model errors and empty responses yield the
	// fixed fallback text.
	Ask(ctx context.Context, question string) string
	Chat(ctx context.Context, userID uint, question string) (*models.TradeInsight, error)
	QuickInsights(userID uint) (*QuickInsights, error)
	AnalyzeOP(userID uint) (*OPAnalysis, error)
}

// ReportServicer defines the contract for risk report generation.
type ReportServicer interface {
	GenerateRiskReport(ctx context.Context, userID uint) (*models.RiskReport, []byte, error)
}

// InvoiceServicer defines the contract for trade invoicing.
type InvoiceServicer interface {
	CreateFromTrade(ctx context.Context, userID, tradeID uint, clientEmail string) (*models.Invoice, error)
	GetUserInvoices(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Invoice], error)
	GetInvoiceByID(userID, invoiceID uint) (*models.Invoice, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{})
}
