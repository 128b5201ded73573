package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/kuotechnology-ui/kindworld-backend/config"
	"github.com/kuotechnology-ui/kindworld-backend/internal/app/controller"
	"github.com/kuotechnology-ui/kindworld-backend/internal/app/repository"
	"github.com/kuotechnology-ui/kindworld-backend/internal/app/service"
	"github.com/kuotechnology-ui/kindworld-backend/internal/mailer"
	"github.com/kuotechnology-ui/kindworld-backend/internal/middleware"
	"github.com/kuotechnology-ui/kindworld-backend/internal/router"
	"github.com/kuotechnology-ui/kindworld-backend/internal/storage"
	ws "github.com/kuotechnology-ui/kindworld-backend/internal/websocket"
	"github.com/kuotechnology-ui/kindworld-backend/pkg/awsconfig"
	"github.com/kuotechnology-ui/kindworld-backend/pkg/logger"
	feedredis "github.com/kuotechnology-ui/kindworld-backend/pkg/redis"
	"gorm.io/gorm"
)

// Container 서버/CLI 공용 의존성 묶음
type Container struct {
	Config *config.Config
	DB     *gorm.DB

	Hub     *ws.Hub
	FeedBus *feedredis.FeedBus // Redis 비활성화 시 nil

	Users         repository.UserRepository
	Audit         service.AuditService
	Preferences   service.PreferenceService
	Queue         service.DeliveryQueue
	Verification  service.VerificationService
	Notifications service.NotificationService
	AdminQuery    service.AdminQueryService
}

type options struct {
	sender    mailer.Sender
	alerter   mailer.FailureAlerter
	presigner service.DocumentPresigner
	feedBus   *feedredis.FeedBus
}

// Option 외부 채널 교체 (테스트, CLI)
type Option func(*options)

func WithSender(s mailer.Sender) Option {
	return func(o *options) { o.sender = s }
}

func WithAlerter(a mailer.FailureAlerter) Option {
	return func(o *options) { o.alerter = a }
}

func WithPresigner(p service.DocumentPresigner) Option {
	return func(o *options) { o.presigner = p }
}

// WithFeedBus 인스턴스 간 피드 전파에 Redis 사용
func WithFeedBus(b *feedredis.FeedBus) Option {
	return func(o *options) { o.feedBus = b }
}

// NewContainer 설정에 따라 외부 채널(SES, SNS, S3)을 고르고 서비스를 조립
func NewContainer(ctx context.Context, cfg *config.Config, conn *gorm.DB, opts ...Option) *Container {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	awsCfg := awsconfig.Load(ctx, cfg.S3.Region, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey)

	if o.sender == nil {
		if cfg.Email.Enabled {
			sesCfg := awsCfg.Copy()
			sesCfg.Region = cfg.Email.Region
			o.sender = mailer.NewSESSender(sesCfg, cfg.Email.FromAddress, cfg.Email.FromName)
		} else {
			logger.Warn("Email delivery disabled, messages will only be logged")
			o.sender = mailer.NewLogSender()
		}
	}
	if o.alerter == nil {
		if cfg.Alerts.SNSTopicARN != "" {
			snsCfg := awsCfg.Copy()
			snsCfg.Region = cfg.Alerts.Region
			o.alerter = mailer.NewSNSAlerter(snsCfg, cfg.Alerts.SNSTopicARN)
		} else {
			o.alerter = mailer.NewLogAlerter()
		}
	}
	if o.presigner == nil && cfg.S3.Bucket != "" {
		o.presigner = storage.NewS3Storage(awsCfg, cfg.S3.Bucket, cfg.S3.PresignExpiry)
	}

	hub := ws.NewHub()
	var feed service.FeedPublisher = hub
	if o.feedBus != nil {
		feed = o.feedBus
	}

	// Repositories
	userRepo := repository.NewUserRepository(conn)
	orgRepo := repository.NewOrganizationRepository(conn)
	verificationRepo := repository.NewVerificationRepository(conn)
	auditRepo := repository.NewAuditRepository(conn)
	notificationRepo := repository.NewNotificationRepository(conn)
	preferenceRepo := repository.NewPreferenceRepository(conn)
	deliveryRepo := repository.NewDeliveryRepository(conn)

	// Services
	auditService := service.NewAuditService(auditRepo)
	preferenceService := service.NewPreferenceService(preferenceRepo)
	queue := service.NewDeliveryQueue(
		deliveryRepo,
		notificationRepo,
		userRepo,
		preferenceService,
		o.sender,
		service.DeliveryQueueConfig{
			Workers:      cfg.Queue.Workers,
			BatchSize:    cfg.Queue.BatchSize,
			MaxRetries:   cfg.Queue.MaxRetries,
			SendTimeout:  cfg.Queue.SendTimeout,
			LeaseTimeout: cfg.Queue.LeaseTimeout,
		},
		service.WithFeed(feed),
		service.WithAlerter(o.alerter),
	)

	return &Container{
		Config:        cfg,
		DB:            conn,
		Hub:           hub,
		FeedBus:       o.feedBus,
		Users:         userRepo,
		Audit:         auditService,
		Preferences:   preferenceService,
		Queue:         queue,
		Verification:  service.NewVerificationService(conn, verificationRepo, orgRepo, auditRepo, userRepo, queue),
		Notifications: service.NewNotificationService(notificationRepo, preferenceService, feed),
		AdminQuery:    service.NewAdminQueryService(verificationRepo, auditService, o.presigner),
	}
}

// Handler HTTP 라우터 구성
func (c *Container) Handler() *gin.Engine {
	r := router.NewRouter(
		controller.NewVerificationController(c.Verification),
		controller.NewAdminVerificationController(c.Verification, c.AdminQuery, c.Audit),
		controller.NewDeliveryController(c.Queue),
		controller.NewNotificationController(c.Notifications, c.Hub, c.Config.CORS.AllowedOrigins),
		middleware.NewAuthMiddleware(c.Config.JWT.Secret),
		c.Config,
	)
	return r.Setup()
}

// RunFeed 로컬 세션 push 시작 (ctx 종료 시 반환)
// FeedBus가 있으면 다른 인스턴스에서 발행된 이벤트도 로컬 세션으로 전달
func (c *Container) RunFeed(ctx context.Context) {
	go c.Hub.Run(ctx)

	if c.FeedBus == nil {
		return
	}
	go func() {
		if err := c.FeedBus.Subscribe(ctx, c.Hub.SendToUser); err != nil {
			logger.Error("Notification feed subscription stopped", err)
		}
	}()
}
