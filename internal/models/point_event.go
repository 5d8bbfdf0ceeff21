package models

import "gorm.io/datatypes"

// PointAction is the kind of event that produced a point award.
type PointAction string

const (
	PointActionTradeLogged   PointAction = "trade_logged"
	PointActionTradeBonus    PointAction = "trade_bonus"
	PointActionInvite        PointAction = "invite"
	PointActionBadgeUnlocked PointAction = "badge_unlocked"
	PointActionSystem        PointAction = "system"
)

// PointEvent is an append-only ledger entry of OP awarded to a user.
// A user's total OP is always the sum of their event deltas; it is never
// stored denormalized outside the optional weighted-score cache.
type PointEvent struct {
	Base
	UserID uint           `gorm:"not null;index" json:"user_id"`
	Action PointAction    `gorm:"not null;size:50;index" json:"action"`
	Points int            `gorm:"not null" json:"points"`
	Meta   datatypes.JSON `json:"meta,omitempty"`
}
