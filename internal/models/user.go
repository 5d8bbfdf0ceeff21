package models

import "time"

// Role determines what a user may do inside their desk.
type Role string

const (
	RoleDeskOwner Role = "desk_owner"
	RoleManager   Role = "manager"
	RoleTrader    Role = "trader"
	RoleAnalyst   Role = "analyst"
	RoleViewer    Role = "viewer"
	RoleAuditor   Role = "auditor"
)

// Plan is the subscription tier of a user.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanStarter    Plan = "starter"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// User represents a desk member. Authentication is by email; there is
// no separate username.
type User struct {
	Base
	Email            string     `gorm:"uniqueIndex;not null" json:"email"`
	Password         string     `gorm:"not null" json:"-"`
	FullName         string     `json:"full_name"`
	Phone            string     `json:"phone,omitempty"`
	Role             Role       `gorm:"not null" json:"role"`
	Plan             Plan       `gorm:"not null;default:'free'" json:"plan"`
	DeskID           *uint      `gorm:"index" json:"desk_id,omitempty"`
	IsActive         bool       `gorm:"default:true" json:"is_active"`
	IsBanned         bool       `gorm:"default:false" json:"-"`
	RefreshTokenHash string     `gorm:"size:64" json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`

	Desk   *Desk   `gorm:"foreignKey:DeskID" json:"desk,omitempty"`
	Trades []Trade `gorm:"foreignKey:TraderID" json:"trades,omitempty"`
}
