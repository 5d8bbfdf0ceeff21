package services

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "otcbook/internal/errors"
	"otcbook/internal/models"
)

// badgeService evaluates badge thresholds against a user's cumulative
// trade count and OP total.
type badgeService struct {
	db       *gorm.DB
	notifier NotificationServicer
}

// NewBadgeService creates a new BadgeServicer.
func NewBadgeService(db *gorm.DB, notifier NotificationServicer) BadgeServicer {
	return &badgeService{db: db, notifier: notifier}
}

// CheckBadges re-scans every active badge against the user's current
// totals. Unlocks are conflict-guarded, so repeated calls with the same
// qualifying state create at most one unlock per (user, badge) pair and
// fire the unlock side effects exactly once.
func (s *badgeService) CheckBadges(userID uint) error {
	var tradeCount int64
	if err := s.db.Model(&models.Trade{}).Where("trader_id = ?", userID).Count(&tradeCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var totalPoints *int
	if err := s.db.Model(&models.PointEvent{}).
		Where("user_id = ?", userID).
		Select("SUM(points)").
		Scan(&totalPoints).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	points := 0
	if totalPoints != nil {
		points = *totalPoints
	}

	var badges []models.Badge
	if err := s.db.Where("is_active = ?", true).Find(&badges).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for _, badge := range badges {
		if tradeCount < int64(badge.MinTrades) || points < badge.MinPoints {
			continue
		}
		if err := s.unlock(userID, badge); err != nil {
			return err
		}
	}

	return nil
}

// unlock inserts the UserBadge row if it does not exist yet. The unique
// constraint on (user_id, badge_id) makes this atomic under concurrent
// qualifying events; side effects run only on first creation.
func (s *badgeService) unlock(userID uint, badge models.Badge) error {
	userBadge := models.UserBadge{UserID: userID, BadgeID: badge.ID}
	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_id"}},
		DoNothing: true,
	}).Create(&userBadge)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		// Already unlocked: no duplicate points, no duplicate notification.
		return nil
	}

	// Badges are a recognition mechanic, not a point source: the ledger
	// entry records the unlock with a zero delta.
	meta, err := json.Marshal(map[string]any{"badge": badge.Code})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	event := &models.PointEvent{
		UserID: userID,
		Action: models.PointActionBadgeUnlocked,
		Points: 0,
		Meta:   datatypes.JSON(meta),
	}
	if err := s.db.Create(event).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.notifier.Notify(userID, models.NotificationTypeBadge,
		"Badge Unlocked", fmt.Sprintf("You unlocked the %s badge!", badge.Name),
		map[string]any{"badge": badge.Code})

	return nil
}

// GetUserBadges returns all badges the user has unlocked, newest first.
func (s *badgeService) GetUserBadges(userID uint) ([]models.UserBadge, error) {
	var unlocks []models.UserBadge
	if err := s.db.Preload("Badge").
		Where("user_id = ?", userID).
		Order("unlocked_at DESC").
		Find(&unlocks).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return unlocks, nil
}
