package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Redis    RedisConfig
	S3       S3Config
	Email    EmailConfig
	Alerts   AlertConfig
	Queue    QueueConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// RedisConfig 실시간 알림 피드 (인스턴스 간 pub/sub)
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PresignExpiry   time.Duration // 관리자 문서 열람 링크 유효 시간
}

// EmailConfig 이메일 발송 설정 (SES v2)
type EmailConfig struct {
	Enabled     bool // false면 로그로만 기록
	Region      string
	FromAddress string
	FromName    string
}

// AlertConfig 영구 실패한 발송 건 알림 (SNS)
type AlertConfig struct {
	SNSTopicARN string
	Region      string
}

// QueueConfig 발송 큐 처리 설정
type QueueConfig struct {
	Workers      int
	BatchSize    int
	MaxRetries   int
	SendTimeout  time.Duration
	LeaseTimeout time.Duration
	Schedule     string // cron 표현식 (예: "@every 15s")
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	region := getEnv("AWS_REGION", "ap-northeast-2")

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "1234"),
			DBName:   getEnv("DB_NAME", "kindworld"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxIdleConns:    parseInt(getEnv("DB_MAX_IDLE_CONNS", "10"), 10),
			MaxOpenConns:    parseInt(getEnv("DB_MAX_OPEN_CONNS", "50"), 50),
			ConnMaxLifetime: parseDuration(getEnv("DB_CONN_MAX_LIFETIME", "30m"), 30*time.Minute),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", "your-secret-key"),
			AccessTokenExpiry:  parseDuration(getEnv("JWT_ACCESS_TOKEN_EXPIRY", "15m"), 15*time.Minute),
			RefreshTokenExpiry: parseDuration(getEnv("JWT_REFRESH_TOKEN_EXPIRY", "168h"), 168*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Redis: RedisConfig{
			Enabled:  parseBool(getEnv("REDIS_ENABLED", "false")),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		S3: S3Config{
			Region:          region,
			Bucket:          getEnv("AWS_S3_BUCKET", "kindworld-verification-documents"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			PresignExpiry:   parseDuration(getEnv("AWS_S3_PRESIGN_EXPIRY", "15m"), 15*time.Minute),
		},
		Email: EmailConfig{
			Enabled:     parseBool(getEnv("EMAIL_ENABLED", "false")),
			Region:      getEnv("SES_REGION", region),
			FromAddress: getEnv("EMAIL_FROM_ADDRESS", "no-reply@kindworld.org"),
			FromName:    getEnv("EMAIL_FROM_NAME", "KindWorld"),
		},
		Alerts: AlertConfig{
			SNSTopicARN: getEnv("DELIVERY_ALERT_TOPIC_ARN", ""),
			Region:      region,
		},
		Queue: QueueConfig{
			Workers:      parseInt(getEnv("QUEUE_WORKERS", "4"), 4),
			BatchSize:    parseInt(getEnv("QUEUE_BATCH_SIZE", "10"), 10),
			MaxRetries:   parseInt(getEnv("QUEUE_MAX_RETRIES", "3"), 3),
			SendTimeout:  parseDuration(getEnv("QUEUE_SEND_TIMEOUT", "10s"), 10*time.Second),
			LeaseTimeout: parseDuration(getEnv("QUEUE_LEASE_TIMEOUT", "2m"), 2*time.Minute),
			Schedule:     getEnv("QUEUE_SCHEDULE", "@every 15s"),
		},
	}

	if config.Queue.Workers < 1 {
		return nil, fmt.Errorf("QUEUE_WORKERS must be at least 1, got %d", config.Queue.Workers)
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return b
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
