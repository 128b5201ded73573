package db

import (
	"fmt"

	"github.com/kuotechnology-ui/kindworld-backend/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SetupTestDB 마이그레이션이 끝난 인메모리 SQLite 연결 (테스트용)
func SetupTestDB() (*gorm.DB, error) {
	cfg := gormConfig()
	cfg.Logger = gormlogger.Default.LogMode(gormlogger.Silent)

	conn, err := gorm.Open(sqlite.Open(":memory:"), cfg)
	if err != nil {
		return nil, fmt.Errorf("open test database: %w", err)
	}

	// :memory: DB는 연결마다 분리되므로 단일 연결로 고정
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("test database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := MigrateDB(conn); err != nil {
		return nil, fmt.Errorf("migrate test database: %w", err)
	}
	return conn, nil
}

// CleanupTestDB 테스트 연결 종료
func CleanupTestDB(conn *gorm.DB) {
	sqlDB, err := conn.DB()
	if err != nil {
		logger.Warn("Failed to get test DB handle", map[string]interface{}{"error": err.Error()})
		return
	}
	_ = sqlDB.Close()
}
