package services

import "github.com/shopspring/decimal"

// RiskBand is the qualitative risk/trust tier derived from a user's
// OP total. It drives advisory trust weighting.
type RiskBand struct {
	RiskLevel  string          `json:"risk_level"`
	Label      string          `json:"label"`
	TrustLevel string          `json:"trust_level"`
	Weight     decimal.Decimal `json:"advisory_weight"`
}

// Band boundaries: the lower bound of each higher band is inclusive,
// so 100 and 500 belong to the band above.
const (
	moderateBandFloor = 100
	lowBandFloor      = 500
)

const (
	RiskLevelLow      = "low"
	RiskLevelModerate = "moderate"
	RiskLevelHigh     = "high"
)

// BandForPoints maps a cumulative OP total to its risk band. The
// mapping is pure and total: negative totals fall into the lowest band.
func BandForPoints(totalPoints int) RiskBand {
	switch {
	case totalPoints >= lowBandFloor:
		return RiskBand{
			RiskLevel:  RiskLevelLow,
			Label:      "LOW RISK",
			TrustLevel: "high",
			Weight:     decimal.NewFromFloat(1.0),
		}
	case totalPoints >= moderateBandFloor:
		return RiskBand{
			RiskLevel:  RiskLevelModerate,
			Label:      "MODERATE RISK",
			TrustLevel: "medium",
			Weight:     decimal.NewFromFloat(0.7),
		}
	default:
		return RiskBand{
			RiskLevel:  RiskLevelHigh,
			Label:      "HIGH RISK",
			TrustLevel: "low",
			Weight:     decimal.NewFromFloat(0.4),
		}
	}
}
