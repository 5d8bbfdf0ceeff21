package models

import "time"

// Badge is a global catalog entry describing an achievement and the
// cumulative thresholds that unlock it.
type Badge struct {
	Base
	Code        string `gorm:"uniqueIndex;not null;size:50" json:"code"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description,omitempty"`
	Requirement string `json:"requirement,omitempty"`
	MinTrades   int    `gorm:"not null;default:0" json:"min_trades"`
	MinPoints   int    `gorm:"not null;default:0" json:"min_points"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
}

// UserBadge records that a user unlocked a badge. At most one row ever
// exists per (user, badge) pair; rows are never deleted.
type UserBadge struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_user_badge" json:"user_id"`
	BadgeID    uint      `gorm:"not null;uniqueIndex:idx_user_badge" json:"badge_id"`
	UnlockedAt time.Time `gorm:"autoCreateTime" json:"unlocked_at"`

	Badge Badge `gorm:"foreignKey:BadgeID" json:"badge"`
}
