package services

import "testing"

func TestBandForPoints(t *testing.T) {
	tests := []struct {
		points     int
		riskLevel  string
		trustLevel string
		weight     string
	}{
		{-50, "high", "low", "0.4"},
		{0, "high", "low", "0.4"},
		{99, "high", "low", "0.4"},
		{100, "moderate", "medium", "0.7"},
		{499, "moderate", "medium", "0.7"},
		{500, "low", "high", "1"},
		{10000, "low", "high", "1"},
	}

	for _, tt := range tests {
		band := BandForPoints(tt.points)
		if band.RiskLevel != tt.riskLevel {
			t.Errorf("BandForPoints(%d).RiskLevel = %q, want %q", tt.points, band.RiskLevel, tt.riskLevel)
		}
		if band.TrustLevel != tt.trustLevel {
			t.Errorf("BandForPoints(%d).TrustLevel = %q, want %q", tt.points, band.TrustLevel, tt.trustLevel)
		}
		if band.Weight.String() != tt.weight {
			t.Errorf("BandForPoints(%d).Weight = %s, want %s", tt.points, band.Weight, tt.weight)
		}
	}
}

func TestBandForPointsPure(t *testing.T) {
	first := BandForPoints(250)
	for i := 0; i < 10; i++ {
		again := BandForPoints(250)
		if again.RiskLevel != first.RiskLevel || again.Label != first.Label ||
			again.TrustLevel != first.TrustLevel || !again.Weight.Equal(first.Weight) {
			t.Fatal("expected identical bands for identical inputs")
		}
	}
}
