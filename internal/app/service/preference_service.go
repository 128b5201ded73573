package service

import (
	"context"
	"strings"

	"github.com/kuotechnology-ui/kindworld-backend/internal/app/model"
	"github.com/kuotechnology-ui/kindworld-backend/internal/app/repository"
	"github.com/kuotechnology-ui/kindworld-backend/pkg/logger"
)

// PreferencesUpdate 알림 설정 부분 수정 요청 (nil 필드는 유지)
type PreferencesUpdate struct {
	EmailNotifications  *bool `json:"email_notifications"`
	InAppNotifications  *bool `json:"in_app_notifications"`
	VerificationUpdates *bool `json:"verification_updates"`
	SystemAnnouncements *bool `json:"system_announcements"`
}

// IsEmpty 변경할 필드가 없는지 확인
func (u PreferencesUpdate) IsEmpty() bool {
	return u.EmailNotifications == nil &&
		u.InAppNotifications == nil &&
		u.VerificationUpdates == nil &&
		u.SystemAnnouncements == nil
}

// apply 지정된 필드만 반영
func (u PreferencesUpdate) apply(p *model.NotificationPreferences) {
	if u.EmailNotifications != nil {
		p.EmailNotifications = *u.EmailNotifications
	}
	if u.InAppNotifications != nil {
		p.InAppNotifications = *u.InAppNotifications
	}
	if u.VerificationUpdates != nil {
		p.VerificationUpdates = *u.VerificationUpdates
	}
	if u.SystemAnnouncements != nil {
		p.SystemAnnouncements = *u.SystemAnnouncements
	}
}

// PreferenceService 사용자별 알림 채널 설정
type PreferenceService interface {
	Get(ctx context.Context, userID string) (model.NotificationPreferences, error)
	Update(ctx context.Context, userID string, update PreferencesUpdate) (model.NotificationPreferences, error)
}

type preferenceService struct {
	repo repository.PreferenceRepository
}

func NewPreferenceService(repo repository.PreferenceRepository) PreferenceService {
	return &preferenceService{repo: repo}
}

// Get 저장된 설정이 없으면 모두 허용으로 간주
func (s *preferenceService) Get(ctx context.Context, userID string) (model.NotificationPreferences, error) {
	if strings.TrimSpace(userID) == "" {
		return model.NotificationPreferences{}, ErrActorRequired
	}

	prefs, err := s.repo.Find(ctx, userID)
	if err != nil {
		return model.NotificationPreferences{}, asServiceError(err, "failed to load notification preferences")
	}
	if prefs == nil {
		return model.DefaultNotificationPreferences(userID), nil
	}
	return *prefs, nil
}

// Update 본인 설정만 수정 (userID는 인증된 사용자)
func (s *preferenceService) Update(ctx context.Context, userID string, update PreferencesUpdate) (model.NotificationPreferences, error) {
	if update.IsEmpty() {
		return model.NotificationPreferences{}, invalidFields(map[string]string{
			"_": "변경할 설정이 없습니다",
		})
	}

	prefs, err := s.Get(ctx, userID)
	if err != nil {
		return model.NotificationPreferences{}, err
	}

	update.apply(&prefs)
	if err := s.repo.Save(ctx, &prefs); err != nil {
		return model.NotificationPreferences{}, asServiceError(err, "failed to save notification preferences")
	}

	logger.Info("Notification preferences updated", map[string]interface{}{
		"user_id":              userID,
		"email_notifications":  prefs.EmailNotifications,
		"in_app_notifications": prefs.InAppNotifications,
		"verification_updates": prefs.VerificationUpdates,
		"system_announcements": prefs.SystemAnnouncements,
	})
	return prefs, nil
}
