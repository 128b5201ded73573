package repository

import (
	"context"

	"github.com/kuotechnology-ui/kindworld-backend/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PreferenceRepository 알림 설정 저장소
type PreferenceRepository interface {
	// Find 설정이 없으면 (nil, nil)
	Find(ctx context.Context, userID string) (*model.NotificationPreferences, error)
	Save(ctx context.Context, prefs *model.NotificationPreferences) error
}

type preferenceRepository struct {
	db *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) PreferenceRepository {
	return &preferenceRepository{db: db}
}

func (r *preferenceRepository) Find(ctx context.Context, userID string) (*model.NotificationPreferences, error) {
	var prefs model.NotificationPreferences
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &prefs, nil
}

// Save 설정 저장 (user_id 기준 upsert)
func (r *preferenceRepository) Save(ctx context.Context, prefs *model.NotificationPreferences) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email_notifications",
			"in_app_notifications",
			"verification_updates",
			"system_announcements",
			"updated_at",
		}),
	}).Create(prefs).Error
}
