package service

import (
	"context"
	"strings"
	"time"

	"github.com/kuotechnology-ui/kindworld-backend/internal/app/model"
	"github.com/kuotechnology-ui/kindworld-backend/internal/app/repository"
	"github.com/kuotechnology-ui/kindworld-backend/pkg/logger"
)

const (
	defaultFeedLimit   = 20
	maxFeedLimit       = 50
	markReadMaxAttempt = 3
)

// MarkAllResult 전체 읽음 처리 결과
type MarkAllResult struct {
	Marked      int   `json:"marked"`
	Failed      int   `json:"failed"`
	UnreadCount int64 `json:"unread_count"`
}

// NotificationService 알림 조회/읽음 처리 및 알림 설정
type NotificationService interface {
	Feed(ctx context.Context, userID string, limit int, unreadOnly bool) ([]model.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, notificationID, userID string) (*model.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (MarkAllResult, error)
	GetPreferences(ctx context.Context, userID string) (model.NotificationPreferences, error)
	UpdatePreferences(ctx context.Context, userID string, update PreferencesUpdate) (model.NotificationPreferences, error)
}

type notificationService struct {
	repo        repository.NotificationRepository
	preferences PreferenceService
	feed        FeedPublisher
	now         func() time.Time
}

// NewNotificationService 알림 서비스 생성자 (feed는 nil 가능)
func NewNotificationService(repo repository.NotificationRepository, preferences PreferenceService, feed FeedPublisher) NotificationService {
	return &notificationService{
		repo:        repo,
		preferences: preferences,
		feed:        feed,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Feed 알림 목록 (최신순, 최대 50건)
func (s *notificationService) Feed(ctx context.Context, userID string, limit int, unreadOnly bool) ([]model.Notification, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrActorRequired
	}
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}

	notifications, err := s.repo.GetNotifications(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, asServiceError(err, "failed to load notifications")
	}
	return notifications, nil
}

// UnreadCount 안읽은 알림 개수
func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, ErrActorRequired
	}
	count, err := s.repo.GetUnreadCount(ctx, userID)
	if err != nil {
		return 0, asServiceError(err, "failed to count unread notifications")
	}
	return count, nil
}

// MarkRead 알림 읽음 처리 (본인 알림만, 이미 읽은 알림은 그대로 반환)
func (s *notificationService) MarkRead(ctx context.Context, notificationID, userID string) (*model.Notification, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrActorRequired
	}

	notification, err := s.repo.GetNotificationByID(ctx, notificationID)
	if err != nil {
		return nil, notFoundOr(err, ErrNotificationNotFound, "failed to load notification")
	}
	if notification.UserID != userID {
		return nil, ErrNotRecipient
	}
	if notification.IsRead {
		return notification, nil
	}

	readAt := s.now()
	if err := s.repo.MarkAsRead(ctx, notification.ID, readAt); err != nil {
		return nil, asServiceError(err, "failed to mark notification as read")
	}
	notification.IsRead = true
	notification.ReadAt = &readAt

	s.publishUnread(ctx, userID)
	return notification, nil
}

// MarkAllRead 안읽은 알림을 건별로 읽음 처리
// 각 건은 최대 3회 시도하며, 실패한 건은 다른 건에 영향을 주지 않는다
func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (MarkAllResult, error) {
	var result MarkAllResult
	if strings.TrimSpace(userID) == "" {
		return result, ErrActorRequired
	}

	ids, err := s.repo.GetUnreadIDs(ctx, userID)
	if err != nil {
		return result, asServiceError(err, "failed to load unread notifications")
	}

	for _, id := range ids {
		if err := s.markWithRetry(ctx, id); err != nil {
			result.Failed++
			logger.Warn("Failed to mark notification as read", map[string]interface{}{
				"notification_id": id,
				"user_id":         userID,
				"error":           err.Error(),
			})
			continue
		}
		result.Marked++
	}

	unread, err := s.repo.GetUnreadCount(ctx, userID)
	if err != nil {
		return result, asServiceError(err, "failed to count unread notifications")
	}
	result.UnreadCount = unread

	if s.feed != nil {
		if err := s.feed.PublishUnreadCount(ctx, userID, unread); err != nil {
			logger.Warn("Failed to push unread count", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
	}

	logger.Info("Notifications marked as read", map[string]interface{}{
		"user_id": userID,
		"marked":  result.Marked,
		"failed":  result.Failed,
	})
	return result, nil
}

func (s *notificationService) markWithRetry(ctx context.Context, id string) error {
	var err error
	for attempt := 1; attempt <= markReadMaxAttempt; attempt++ {
		if err = s.repo.MarkAsRead(ctx, id, s.now()); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}

func (s *notificationService) publishUnread(ctx context.Context, userID string) {
	if s.feed == nil {
		return
	}
	unread, err := s.repo.GetUnreadCount(ctx, userID)
	if err == nil {
		err = s.feed.PublishUnreadCount(ctx, userID, unread)
	}
	if err != nil {
		logger.Warn("Failed to push unread count", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}

// GetPreferences 알림 설정 조회
func (s *notificationService) GetPreferences(ctx context.Context, userID string) (model.NotificationPreferences, error) {
	return s.preferences.Get(ctx, userID)
}

// UpdatePreferences 알림 설정 부분 수정
func (s *notificationService) UpdatePreferences(ctx context.Context, userID string, update PreferencesUpdate) (model.NotificationPreferences, error) {
	return s.preferences.Update(ctx, userID, update)
}
