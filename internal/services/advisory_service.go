package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"otcbook/internal/advisory"
	apperrors "otcbook/internal/errors"
	"otcbook/internal/logger"
	"otcbook/internal/models"
)

// systemPrompt frames every advisory request. The model is an
// educational assistant, never an execution venue.
const systemPrompt = "You are a risk advisory assistant for an OTC trading desk. " +
	"Provide educational guidance on trade risk, position sizing, and counterparty exposure. " +
	"Never give financial advice, price predictions, or instructions to execute trades. " +
	"Always remind the user that the final decision is theirs."

// fallbackResponse is returned whenever the model call fails or comes
// back empty. Advisory output degrades, it never aborts a request.
const fallbackResponse = "The advisory assistant is temporarily unavailable. " +
	"Review your recent trades and risk band manually, and try again later."

// advisoryService answers risk questions, optionally via an LLM.
type advisoryService struct {
	db        *gorm.DB
	completer advisory.Completer
	points    PointsServicer
	maxInput  int
	maxOutput int
}

// NewAdvisoryService creates a new AdvisoryServicer. A nil completer
// disables model calls and every answer falls back to the fixed text.
func NewAdvisoryService(db *gorm.DB, completer advisory.Completer, points PointsServicer, maxInput, maxOutput int) AdvisoryServicer {
	return &advisoryService{
		db:        db,
		completer: completer,
		points:    points,
		maxInput:  maxInput,
		maxOutput: maxOutput,
	}
}

// Ask submits a question to the model and returns its answer, or the
// fallback text when the model is unavailable, errors, or answers empty.
func (s *advisoryService) Ask(ctx context.Context, question string) string {
	if s.completer == nil {
		return fallbackResponse
	}

	question = truncate(question, s.maxInput)

	answer, err := s.completer.Complete(ctx, systemPrompt, question)
	if err != nil {
		logger.Get().Warnw("advisory completion failed", "error", err)
		return fallbackResponse
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return fallbackResponse
	}
	return truncate(answer, s.maxOutput)
}

// Chat answers a question and records the exchange as a TradeInsight.
// The confidence level is derived from the caller's risk band, not from
// the model.
func (s *advisoryService) Chat(ctx context.Context, userID uint, question string) (*models.TradeInsight, error) {
	total, err := s.points.TotalPoints(userID)
	if err != nil {
		return nil, err
	}
	band := BandForPoints(total)

	insight := &models.TradeInsight{
		UserID:          userID,
		Question:        truncate(question, s.maxInput),
		Response:        s.Ask(ctx, question),
		ConfidenceLevel: confidenceForBand(band),
	}

	if err := s.db.Create(insight).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return insight, nil
}

// QuickInsights returns a cheap advisory snapshot computed entirely
// from local data, with no model call.
func (s *advisoryService) QuickInsights(userID uint) (*QuickInsights, error) {
	total, err := s.points.TotalPoints(userID)
	if err != nil {
		return nil, err
	}
	band := BandForPoints(total)

	var weekPoints *int
	weekAgo := time.Now().AddDate(0, 0, -7)
	if err := s.db.Model(&models.PointEvent{}).
		Where("user_id = ? AND created_at >= ?", userID, weekAgo).
		Select("SUM(points)").
		Scan(&weekPoints).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var recentTrades int64
	dayAgo := time.Now().Add(-24 * time.Hour)
	if err := s.db.Model(&models.Trade{}).
		Where("trader_id = ? AND created_at >= ?", userID, dayAgo).
		Count(&recentTrades).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	insights := &QuickInsights{RiskAlert: riskAlertForBand(band)}
	if weekPoints != nil {
		insights.OPTrend = *weekPoints
	}
	if recentTrades >= 5 {
		insights.VolatilityWarning = "High trade frequency in the last 24 hours. Pace your entries."
	}
	return insights, nil
}

// AnalyzeOP grades the caller's OP total into a trust tier and
// refreshes the cached OPWeightedScore row. The event ledger remains
// the source of truth.
func (s *advisoryService) AnalyzeOP(userID uint) (*OPAnalysis, error) {
	total, err := s.points.TotalPoints(userID)
	if err != nil {
		return nil, err
	}
	band := BandForPoints(total)

	score := models.OPWeightedScore{
		UserID:          userID,
		OPPoints:        total,
		TrustMultiplier: band.Weight,
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"op_points", "trust_multiplier", "updated_at"}),
	}).Create(&score).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &OPAnalysis{
		OPScore:        total,
		TrustLevel:     band.TrustLevel,
		AdvisoryWeight: band.Weight,
	}, nil
}

func confidenceForBand(band RiskBand) models.ConfidenceLevel {
	switch band.RiskLevel {
	case RiskLevelLow:
		return models.ConfidenceHigh
	case RiskLevelModerate:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

func riskAlertForBand(band RiskBand) string {
	switch band.RiskLevel {
	case RiskLevelLow:
		return "Your trading history places you in the low risk band. Keep it up."
	case RiskLevelModerate:
		return "You are in the moderate risk band. Consistent activity will improve your standing."
	default:
		return "You are in the high risk band. Log more trades to build a track record."
	}
}

func truncate(s string, max int) string {
	if max > 0 && len(s) > max {
		return s[:max]
	}
	return s
}
