package db

import (
	"github.com/kuotechnology-ui/kindworld-backend/internal/app/model"
	"github.com/kuotechnology-ui/kindworld-backend/pkg/logger"
	"gorm.io/gorm"
)

// Models 마이그레이션 대상 모델 목록
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Organization{},
		&model.VerificationRequest{},
		&model.VerificationDocument{},
		&model.AuditLogEntry{},
		&model.Notification{},
		&model.NotificationPreferences{},
		&model.QueuedDelivery{},
	}
}

// Migrate runs database migrations
func Migrate() error {
	return MigrateDB(DB)
}

// MigrateDB 지정한 연결에 마이그레이션 실행
func MigrateDB(conn *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := conn.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}
