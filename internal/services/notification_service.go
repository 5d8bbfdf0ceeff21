package services

import (
	"encoding/json"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	apperrors "otcbook/internal/errors"
	"otcbook/internal/logger"
	"otcbook/internal/models"
	"otcbook/internal/pagination"
)

// notificationService appends and serves user-facing notifications.
type notificationService struct {
	db *gorm.DB
}

// NewNotificationService creates a new NotificationServicer.
func NewNotificationService(db *gorm.DB) NotificationServicer {
	return &notificationService{db: db}
}

// Notify appends a notification. Notifications are best-effort: a
// failure here is logged and never rolls back the ledger write that
// triggered it.
func (s *notificationService) Notify(userID uint, notifType models.NotificationType, title, message string, meta map[string]any) {
	notification := &models.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
	}
	if meta != nil {
		raw, err := json.Marshal(meta)
		if err != nil {
			logger.Get().Errorw("failed to marshal notification meta", "error", err, "user_id", userID)
		} else {
			notification.Meta = datatypes.JSON(raw)
		}
	}

	if err := s.db.Create(notification).Error; err != nil {
		logger.Get().Errorw("failed to create notification",
			"error", err, "user_id", userID, "type", notifType, "title", title)
	}
}

// GetUserNotifications returns the caller's notifications, newest first.
func (s *notificationService) GetUserNotifications(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Notification], error) {
	page.Defaults()

	base := s.db.Model(&models.Notification{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var notifications []models.Notification
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&notifications).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(notifications, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// MarkRead flags one of the caller's notifications as read.
func (s *notificationService) MarkRead(userID, notificationID uint) error {
	var notification models.Notification
	if err := s.db.Where("id = ? AND user_id = ?", notificationID, userID).First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotificationNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if notification.IsRead {
		return nil
	}

	if err := s.db.Model(&notification).UpdateColumn("is_read", true).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
