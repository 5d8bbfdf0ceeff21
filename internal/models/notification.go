package models

import "gorm.io/datatypes"

// NotificationType categorizes a user-facing notification.
type NotificationType string

const (
	NotificationTypePoints NotificationType = "points"
	NotificationTypeBadge  NotificationType = "badge"
	NotificationTypeSystem NotificationType = "system"
)

// Notification is a user-facing message about points, badges, or
// system events.
type Notification struct {
	Base
	UserID  uint             `gorm:"not null;index:idx_notifications_user_read" json:"user_id"`
	Type    NotificationType `gorm:"not null;size:20" json:"type"`
	Title   string           `gorm:"not null;size:200" json:"title"`
	Message string           `gorm:"not null" json:"message"`
	Meta    datatypes.JSON   `json:"meta,omitempty"`
	IsRead  bool             `gorm:"default:false;index:idx_notifications_user_read" json:"is_read"`
}
