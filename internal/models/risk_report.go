package models

import "github.com/shopspring/decimal"

// ReportStatus is the lifecycle state of a risk report.
type ReportStatus string

const (
	ReportStatusPending    ReportStatus = "pending"
	ReportStatusGenerating ReportStatus = "generating"
	ReportStatusReady      ReportStatus = "ready"
	ReportStatusFailed     ReportStatus = "failed"
)

// RiskReport tracks one AI-assisted advisory report. The status always
// reflects the true outcome: ready only after rendering and storage
// both succeed, failed when either step errors out.
type RiskReport struct {
	Base
	UserID      uint         `gorm:"not null;index" json:"user_id"`
	Status      ReportStatus `gorm:"not null;size:20;default:'pending'" json:"status"`
	RiskLevel   string       `gorm:"size:20" json:"risk_level"`
	TotalOP     int          `json:"total_op"`
	AISummary   string       `json:"ai_summary,omitempty"`
	DocumentURL string       `json:"document_url,omitempty"`
}

// ConfidenceLevel grades how much weight advisory output should carry.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// TradeInsight logs one advisory chat exchange.
type TradeInsight struct {
	Base
	UserID          uint            `gorm:"not null;index" json:"user_id"`
	Question        string          `gorm:"not null" json:"question"`
	Response        string          `gorm:"not null" json:"response"`
	ConfidenceLevel ConfidenceLevel `gorm:"size:20;default:'low'" json:"confidence_level"`
}

// OPWeightedScore is an optional denormalized cache of a user's OP
// total and the trust multiplier derived from it. Refreshed whenever
// the banding endpoint runs; the event ledger stays the source of truth.
type OPWeightedScore struct {
	Base
	UserID          uint            `gorm:"not null;uniqueIndex" json:"user_id"`
	OPPoints        int             `gorm:"not null;default:0" json:"op_points"`
	TrustMultiplier decimal.Decimal `gorm:"type:numeric(4,2)" json:"trust_multiplier"`
}
