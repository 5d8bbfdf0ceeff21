package models

// KYCStatus represents the verification state of a desk.
type KYCStatus string

const (
	KYCStatusPending  KYCStatus = "pending"
	KYCStatusApproved KYCStatus = "approved"
	KYCStatusRejected KYCStatus = "rejected"
)

// Desk is a workspace grouping one or more users and their trades.
// A desk onboards through KYC before it is considered verified.
type Desk struct {
	Base
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	KYCStatus KYCStatus `gorm:"not null;default:'pending'" json:"kyc_status"`
	KYCNotes  string    `json:"kyc_notes,omitempty"`
	IDCardURL string    `json:"-"`

	Members []User `gorm:"foreignKey:DeskID" json:"members,omitempty"`
}
