package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationTypeVerificationApproved NotificationType = "verification_approved"
	NotificationTypeVerificationRejected NotificationType = "verification_rejected"
	NotificationTypeVerificationPending  NotificationType = "verification_pending"
	NotificationTypeDocumentsRequired    NotificationType = "documents_required"
	NotificationTypeSystemAnnouncement   NotificationType = "system_announcement"
)

// IsVerificationUpdate 인증 심사 관련 알림 여부 (verification_updates 설정 대상)
func (t NotificationType) IsVerificationUpdate() bool {
	switch t {
	case NotificationTypeVerificationApproved,
		NotificationTypeVerificationRejected,
		NotificationTypeVerificationPending,
		NotificationTypeDocumentsRequired:
		return true
	}
	return false
}

// Valid 알려진 알림 타입인지 확인
func (t NotificationType) Valid() bool {
	return t.IsVerificationUpdate() || t == NotificationTypeSystemAnnouncement
}

// Notification 알림 모델
type Notification struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	// 알림 받을 사용자
	UserID string `gorm:"type:varchar(36);not null;index" json:"user_id"`

	// 알림 타입
	Type NotificationType `gorm:"type:varchar(50);not null;index" json:"type"`

	// 알림 내용
	Title   string `gorm:"type:text;not null" json:"title"`
	Message string `gorm:"type:text;not null" json:"message"`

	// 상태 (읽음 여부만 변경됨)
	IsRead bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt *time.Time `json:"read_at,omitempty"`

	// 관련 데이터 (nullable)
	RelatedRequestID *string           `gorm:"type:varchar(36);index" json:"related_request_id,omitempty"`
	Metadata         datatypes.JSONMap `json:"metadata,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	assignID(&n.ID)
	return nil
}

// NotificationPreferences 사용자별 알림 설정 (레코드가 없으면 모두 true)
type NotificationPreferences struct {
	UserID    string    `gorm:"type:varchar(36);primaryKey" json:"user_id"`
	UpdatedAt time.Time `json:"updated_at"`

	// 채널 (false 저장을 위해 DB 기본값은 두지 않음)
	EmailNotifications bool `gorm:"not null" json:"email_notifications"`
	InAppNotifications bool `gorm:"not null" json:"in_app_notifications"`

	// 카테고리
	VerificationUpdates bool `gorm:"not null" json:"verification_updates"`
	SystemAnnouncements bool `gorm:"not null" json:"system_announcements"`
}

func (NotificationPreferences) TableName() string {
	return "notification_preferences"
}

// DefaultNotificationPreferences 설정이 없는 사용자의 기본값
func DefaultNotificationPreferences(userID string) NotificationPreferences {
	return NotificationPreferences{
		UserID:              userID,
		EmailNotifications:  true,
		InAppNotifications:  true,
		VerificationUpdates: true,
		SystemAnnouncements: true,
	}
}

// AllowsCategory 알림 타입의 카테고리 수신 여부
func (p NotificationPreferences) AllowsCategory(t NotificationType) bool {
	if t == NotificationTypeSystemAnnouncement {
		return p.SystemAnnouncements
	}
	if t.IsVerificationUpdate() {
		return p.VerificationUpdates
	}
	return true
}
