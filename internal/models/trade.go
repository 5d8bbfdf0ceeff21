package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TradeSide is the direction of a trade from the desk's perspective.
type TradeSide string

const (
	TradeSideBuy  TradeSide = "buy"
	TradeSideSell TradeSide = "sell"
)

// TradeType distinguishes how a trade was executed.
type TradeType string

const (
	TradeTypeOTC TradeType = "otc"
	TradeTypeP2P TradeType = "p2p"
)

// ErrTradeImmutable is returned when an existing trade row is updated.
var ErrTradeImmutable = errors.New("trade records are immutable once created")

// Trade is an immutable ledger record of a completed trade. Realized
// profit/loss is derived from the other fields when the row is inserted
// and is never independently settable.
type Trade struct {
	Base
	TraderID uint `gorm:"not null;index:idx_trades_trader_date" json:"trader_id"`
	AssetID  uint `gorm:"not null;index:idx_trades_asset_date" json:"asset_id"`
	DeskID   uint `gorm:"not null;index:idx_trades_desk_date" json:"desk_id"`

	Side      TradeSide `gorm:"not null;size:4" json:"side"`
	TradeType TradeType `gorm:"not null;size:10;default:'otc'" json:"trade_type"`

	AmountCrypto decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"amount_crypto"`
	AmountCash   decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount_cash"`
	Rate         decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"rate"`
	ProfitLoss   decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"profit_loss"`

	TradeDate time.Time `gorm:"not null;index:idx_trades_trader_date;index:idx_trades_asset_date;index:idx_trades_desk_date" json:"trade_date"`

	Asset Asset `gorm:"foreignKey:AssetID" json:"asset"`
	Desk  Desk  `gorm:"foreignKey:DeskID" json:"desk"`
}

// CalculatePnL derives realized profit/loss from the trade fields.
//
// reference = amount_crypto * rate
// sell: pnl = amount_cash - reference
// buy:  pnl = reference - amount_cash
//
// The result is rounded to 2 decimal places, half away from zero,
// exactly once at the end. The function is pure: it performs no I/O
// and identical inputs always yield identical output.
func CalculatePnL(side TradeSide, amountCrypto, amountCash, rate decimal.Decimal) decimal.Decimal {
	reference := amountCrypto.Mul(rate)

	var pnl decimal.Decimal
	if side == TradeSideSell {
		pnl = amountCash.Sub(reference)
	} else {
		pnl = reference.Sub(amountCash)
	}

	return pnl.Round(2)
}

// BeforeCreate fixes the derived profit/loss so the insert is a single
// atomic write with no read-modify-write window.
func (t *Trade) BeforeCreate(tx *gorm.DB) error {
	t.ProfitLoss = CalculatePnL(t.Side, t.AmountCrypto, t.AmountCash, t.Rate)
	return nil
}

// BeforeUpdate enforces immutability of persisted trades.
func (t *Trade) BeforeUpdate(tx *gorm.DB) error {
	return ErrTradeImmutable
}
