package db

import (
	"context"
	"fmt"
	"time"

	"github.com/kuotechnology-ui/kindworld-backend/config"
	appLogger "github.com/kuotechnology-ui/kindworld-backend/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Initialize postgres 연결 + 커넥션 풀 설정
func Initialize(cfg *config.DatabaseConfig) error {
	appLogger.Info("Connecting to database", map[string]interface{}{
		"host":     cfg.Host,
		"port":     cfg.Port,
		"database": cfg.DBName,
		"user":     cfg.User,
	})

	conn, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	DB = conn
	appLogger.Info("Database connection established", map[string]interface{}{
		"max_idle_conns":    cfg.MaxIdleConns,
		"max_open_conns":    cfg.MaxOpenConns,
		"conn_max_lifetime": cfg.ConnMaxLifetime.String(),
	})
	return nil
}

// gormConfig 공용 gorm 설정
// TranslateError: 유니크 제약 위반을 gorm.ErrDuplicatedKey로 변환 (중복 심사 요청 판별)
func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent), // Use silent mode, we'll use our own logger
		TranslateError: true,
	}
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
