package repository

import (
	"context"
	"time"

	"github.com/kuotechnology-ui/kindworld-backend/internal/app/model"
	"gorm.io/gorm"
)

// NotificationRepository 알림 저장소 인터페이스
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *model.Notification) error
	GetNotificationByID(ctx context.Context, id string) (*model.Notification, error)
	GetNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, error)
	GetUnreadCount(ctx context.Context, userID string) (int64, error)
	GetUnreadIDs(ctx context.Context, userID string) ([]string, error)
	MarkAsRead(ctx context.Context, id string, readAt time.Time) error
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 알림 저장소 생성자
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// CreateNotification 알림 생성
func (r *notificationRepository) CreateNotification(ctx context.Context, notification *model.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

// GetNotificationByID 알림 ID로 조회
func (r *notificationRepository) GetNotificationByID(ctx context.Context, id string) (*model.Notification, error) {
	var notification model.Notification
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&notification).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}

// GetNotifications 알림 목록 조회 (최신순)
func (r *notificationRepository) GetNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, error) {
	var notifications []model.Notification

	query := r.db.WithContext(ctx).Where("user_id = ?", userID)

	// 읽음 상태 필터
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	query = query.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

// GetUnreadCount 안읽은 알림 개수 조회
func (r *notificationRepository) GetUnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// GetUnreadIDs 안읽은 알림 ID 목록
func (r *notificationRepository) GetUnreadIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Pluck("id", &ids).Error
	return ids, err
}

// MarkAsRead 알림 읽음 처리 (이미 읽은 알림의 read_at은 유지)
func (r *notificationRepository) MarkAsRead(ctx context.Context, id string, readAt time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND is_read = ?", id, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": readAt,
		}).Error
}
