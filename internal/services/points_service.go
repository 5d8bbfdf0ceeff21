package services

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	apperrors "otcbook/internal/errors"
	"otcbook/internal/models"
)

// OP award tuning. The fast-trade bonus rewards logging a trade within
// two minutes of when it actually happened.
const (
	TradePoints          = 10
	FastTradeBonusPct    = 18
	InvitePoints         = 25
	FastTradeBonusWindow = 120 * time.Second
)

// pointsService is the append-only OP ledger.
type pointsService struct {
	db       *gorm.DB
	badges   BadgeServicer
	notifier NotificationServicer
}

// NewPointsService creates a new PointsServicer.
func NewPointsService(db *gorm.DB, badges BadgeServicer, notifier NotificationServicer) PointsServicer {
	return &pointsService{db: db, badges: badges, notifier: notifier}
}

// Award appends one point event and re-evaluates badges. Prior events
// are never mutated or deleted.
func (s *pointsService) Award(userID uint, action models.PointAction, points int, meta map[string]any) error {
	if err := s.append(userID, action, points, meta); err != nil {
		return err
	}
	return s.badges.CheckBadges(userID)
}

func (s *pointsService) append(userID uint, action models.PointAction, points int, meta map[string]any) error {
	event := &models.PointEvent{
		UserID: userID,
		Action: action,
		Points: points,
	}
	if meta != nil {
		raw, err := json.Marshal(meta)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		event.Meta = datatypes.JSON(raw)
	}

	if err := s.db.Create(event).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// AwardTradePoints grants the base trade award, plus the fast-trade
// bonus when the trade was logged within the bonus window of its
// recorded occurrence. Base and bonus are separate ledger entries, both
// tagged with the trade id.
func (s *pointsService) AwardTradePoints(trade *models.Trade) error {
	meta := map[string]any{"trade_id": trade.ID}

	if err := s.append(trade.TraderID, models.PointActionTradeLogged, TradePoints, meta); err != nil {
		return err
	}

	total := TradePoints
	elapsed := trade.CreatedAt.Sub(trade.TradeDate)
	if elapsed < 0 {
		elapsed = -elapsed
	}
	if elapsed <= FastTradeBonusWindow {
		bonus := TradePoints * FastTradeBonusPct / 100
		if err := s.append(trade.TraderID, models.PointActionTradeBonus, bonus, meta); err != nil {
			return err
		}
		total += bonus
	}

	s.notifier.Notify(trade.TraderID, models.NotificationTypePoints,
		"Trade Logged", fmt.Sprintf("You earned %d OP for logging a trade.", total),
		map[string]any{"trade_id": trade.ID, "points": total})

	return s.badges.CheckBadges(trade.TraderID)
}

// AwardInvitePoints grants the fixed referral award.
func (s *pointsService) AwardInvitePoints(userID uint) error {
	if err := s.append(userID, models.PointActionInvite, InvitePoints, nil); err != nil {
		return err
	}

	s.notifier.Notify(userID, models.NotificationTypePoints,
		"Teammate Invited", fmt.Sprintf("You earned %d OP for growing your desk.", InvitePoints),
		map[string]any{"points": InvitePoints})

	return s.badges.CheckBadges(userID)
}

// TotalPoints sums all point deltas for a user. No rows means 0.
func (s *pointsService) TotalPoints(userID uint) (int, error) {
	var total *int
	if err := s.db.Model(&models.PointEvent{}).
		Where("user_id = ?", userID).
		Select("SUM(points)").
		Scan(&total).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// RecentEvents returns the user's most recent point events.
func (s *pointsService) RecentEvents(userID uint, limit int) ([]models.PointEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	var events []models.PointEvent
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return events, nil
}

// Leaderboard returns the top 10 users by total OP, optionally
// windowed to the last 7 days. Ordering is descending by total; ties
// may appear in any stable order.
func (s *pointsService) Leaderboard(lastSevenDays bool) ([]LeaderboardEntry, error) {
	q := s.db.Model(&models.PointEvent{}).
		Joins("JOIN users ON users.id = point_events.user_id").
		Select("users.email AS email, SUM(point_events.points) AS total_op").
		Group("users.email").
		Order("total_op DESC").
		Limit(10)

	if lastSevenDays {
		q = q.Where("point_events.created_at >= ?", time.Now().AddDate(0, 0, -7))
	}

	entries := []LeaderboardEntry{}
	if err := q.Scan(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return entries, nil
}
