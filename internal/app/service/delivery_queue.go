package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kuotechnology-ui/kindworld-backend/internal/app/model"
	"github.com/kuotechnology-ui/kindworld-backend/internal/app/repository"
	apperrors "github.com/kuotechnology-ui/kindworld-backend/internal/errors"
	"github.com/kuotechnology-ui/kindworld-backend/internal/mailer"
	"github.com/kuotechnology-ui/kindworld-backend/pkg/logger"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

// FeedPublisher 실시간 알림 피드 (websocket hub 또는 redis bus)
// 피드는 조회 API의 보조 수단이므로 실패해도 알림 생성은 유지된다
type FeedPublisher interface {
	PublishNotification(ctx context.Context, n *model.Notification, unreadCount int64) error
	PublishUnreadCount(ctx context.Context, userID string, unreadCount int64) error
}

// EnqueueRequest 사용자 한 명에게 보낼 알림
type EnqueueRequest struct {
	UserID           string
	Type             model.NotificationType
	Title            string
	Message          string
	TemplateKey      string            // 비어 있으면 알림 타입의 기본 템플릿
	TemplateData     map[string]string // nil이면 이메일을 보내지 않음
	RelatedRequestID *string
	Metadata         map[string]interface{}
}

// AdminBroadcast 모든 관리자에게 보낼 알림
type AdminBroadcast struct {
	Type             model.NotificationType
	Title            string
	Message          string
	TemplateKey      string
	TemplateData     map[string]string
	RelatedRequestID *string
	Metadata         map[string]interface{}
}

// DeliveryResult 채널별 처리 결과
// Success: 요청된 채널 중 하나 이상 성공 (요청된 채널이 없으면 Skipped)
type DeliveryResult struct {
	NotificationID string
	QueueItemID    string
	InAppErr       error
	EmailErr       error
	Skipped        bool
	Success        bool
}

// ProcessSummary 발송 큐 1회 처리 결과
type ProcessSummary struct {
	Released int64 // 점유 기한이 지나 되돌린 항목
	Due      int   // 처리 대상으로 조회된 항목
	Claimed  int
	Sent     int
	Retried  int
	Failed   int
}

// DeliveryQueueConfig 발송 큐 설정
type DeliveryQueueConfig struct {
	Workers      int
	BatchSize    int
	MaxRetries   int
	SendTimeout  time.Duration
	LeaseTimeout time.Duration
	WorkerID     string
}

func (c DeliveryQueueConfig) withDefaults() DeliveryQueueConfig {
	if c.Workers < 1 {
		c.Workers = 4
	}
	if c.BatchSize < 1 {
		c.BatchSize = 10
	}
	if c.MaxRetries < 1 {
		c.MaxRetries = model.DefaultMaxRetries
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 10 * time.Second
	}
	if c.LeaseTimeout <= c.SendTimeout {
		c.LeaseTimeout = c.SendTimeout * 3
	}
	if c.WorkerID == "" {
		host, _ := os.Hostname()
		c.WorkerID = fmt.Sprintf("%s-%d-%s", host, os.Getpid(), uuid.NewString()[:8])
	}
	return c
}

// DeliveryQueue 알림 발송 큐
type DeliveryQueue interface {
	Enqueue(ctx context.Context, req EnqueueRequest) (DeliveryResult, error)
	NotifyAdmins(ctx context.Context, broadcast AdminBroadcast) (int, error)
	ProcessPendingQueue(ctx context.Context) (ProcessSummary, error)
	Cancel(ctx context.Context, itemID string) (*model.QueuedDelivery, error)
	ListByStatus(ctx context.Context, status model.DeliveryStatus, limit int) ([]model.QueuedDelivery, error)
}

// DeliveryQueueOption 선택 의존성
type DeliveryQueueOption func(*deliveryQueue)

// WithFeed 인앱 알림 생성 시 실시간 피드로 push
func WithFeed(feed FeedPublisher) DeliveryQueueOption {
	return func(q *deliveryQueue) { q.feed = feed }
}

// WithAlerter 영구 실패 알림 채널
func WithAlerter(alerter mailer.FailureAlerter) DeliveryQueueOption {
	return func(q *deliveryQueue) { q.alerter = alerter }
}

// WithClock 테스트용 시계
func WithClock(now func() time.Time) DeliveryQueueOption {
	return func(q *deliveryQueue) { q.now = now }
}

type deliveryQueue struct {
	deliveryRepo     repository.DeliveryRepository
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	preferences      PreferenceService
	sender           mailer.Sender
	alerter          mailer.FailureAlerter
	feed             FeedPublisher
	cfg              DeliveryQueueConfig
	now              func() time.Time
}

func NewDeliveryQueue(
	deliveryRepo repository.DeliveryRepository,
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	preferences PreferenceService,
	sender mailer.Sender,
	cfg DeliveryQueueConfig,
	opts ...DeliveryQueueOption,
) DeliveryQueue {
	q := &deliveryQueue{
		deliveryRepo:     deliveryRepo,
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		preferences:      preferences,
		sender:           sender,
		alerter:          mailer.NewLogAlerter(),
		cfg:              cfg.withDefaults(),
		now:              func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue 사용자 설정에 따라 인앱 알림 생성 + 이메일 발송 대기열 추가
func (q *deliveryQueue) Enqueue(ctx context.Context, req EnqueueRequest) (DeliveryResult, error) {
	var result DeliveryResult

	if fields := validateEnqueue(req); fields != nil {
		return result, invalidFields(fields)
	}

	prefs, err := q.preferences.Get(ctx, req.UserID)
	if err != nil {
		return result, err
	}

	// 카테고리 설정은 이메일에만 적용 (인앱은 in_app_notifications 만 따름)
	wantEmail := prefs.EmailNotifications && prefs.AllowsCategory(req.Type) && req.TemplateData != nil
	if prefs.EmailNotifications && !prefs.AllowsCategory(req.Type) {
		logger.Debug("Email category disabled by user", map[string]interface{}{
			"user_id": req.UserID,
			"type":    req.Type,
		})
	}
	requested := 0

	if prefs.InAppNotifications {
		requested++
		id, err := q.createInApp(ctx, req)
		if err != nil {
			result.InAppErr = err
		} else {
			result.NotificationID = id
		}
	}

	if wantEmail {
		requested++
		id, err := q.queueEmail(ctx, req)
		if err != nil {
			result.EmailErr = err
		} else {
			result.QueueItemID = id
		}
	}

	if requested == 0 {
		result.Skipped = true
		result.Success = true
		return result, nil
	}

	result.Success = result.NotificationID != "" || result.QueueItemID != ""
	if !result.Success {
		return result, apperrors.Wrap(
			apperrors.KindDeliveryFailure,
			apperrors.DeliverySendFailed,
			"알림을 생성하지 못했습니다",
			errors.Join(result.InAppErr, result.EmailErr),
		)
	}

	if result.InAppErr != nil || result.EmailErr != nil {
		logger.Warn("Notification partially enqueued", map[string]interface{}{
			"user_id":   req.UserID,
			"type":      req.Type,
			"in_app_ok": result.NotificationID != "",
			"email_ok":  result.QueueItemID != "",
		})
	}
	return result, nil
}

// createInApp 인앱 알림 저장 (재시도 없음) 후 피드로 push
func (q *deliveryQueue) createInApp(ctx context.Context, req EnqueueRequest) (string, error) {
	notification := &model.Notification{
		UserID:           req.UserID,
		Type:             req.Type,
		Title:            req.Title,
		Message:          req.Message,
		RelatedRequestID: req.RelatedRequestID,
		Metadata:         toJSONMap(req.Metadata),
	}
	if err := q.notificationRepo.CreateNotification(ctx, notification); err != nil {
		logger.Error("Failed to create in-app notification", err, map[string]interface{}{
			"user_id": req.UserID,
			"type":    req.Type,
		})
		return "", err
	}

	if q.feed != nil {
		unread, err := q.notificationRepo.GetUnreadCount(ctx, req.UserID)
		if err == nil {
			err = q.feed.PublishNotification(ctx, notification, unread)
		}
		if err != nil {
			logger.Warn("Failed to push notification to live feed", map[string]interface{}{
				"user_id":         req.UserID,
				"notification_id": notification.ID,
				"error":           err.Error(),
			})
		}
	}
	return notification.ID, nil
}

// queueEmail 템플릿 렌더링 후 pending 상태로 대기열에 추가
func (q *deliveryQueue) queueEmail(ctx context.Context, req EnqueueRequest) (string, error) {
	user, err := q.userRepo.FindByID(ctx, req.UserID)
	if err != nil {
		return "", fmt.Errorf("resolve recipient %s: %w", req.UserID, err)
	}
	if strings.TrimSpace(user.Email) == "" {
		return "", apperrors.New(apperrors.KindDeliveryFailure, apperrors.DeliveryRecipientUnknown, "수신 이메일 주소가 없습니다")
	}

	data := make(map[string]string, len(req.TemplateData)+1)
	for k, v := range req.TemplateData {
		data[k] = v
	}
	if _, ok := data["recipientName"]; !ok && user.Name != "" {
		data["recipientName"] = user.Name
	}

	templateKey := req.TemplateKey
	if templateKey == "" {
		templateKey = string(req.Type)
	}
	email, err := RenderEmail(templateKey, data)
	if err != nil {
		return "", err
	}

	item := &model.QueuedDelivery{
		RecipientID:      req.UserID,
		RecipientEmail:   user.Email,
		NotificationType: req.Type,
		TemplateKey:      templateKey,
		Title:            req.Title,
		Message:          req.Message,
		EmailSubject:     email.Subject,
		EmailHTML:        email.HTML,
		EmailText:        email.Text,
		MaxRetries:       q.cfg.MaxRetries,
		Status:           model.DeliveryStatusPending,
		ScheduledAt:      q.now(),
		Metadata:         toJSONMap(req.Metadata),
		RelatedRequestID: req.RelatedRequestID,
	}
	if err := q.deliveryRepo.Create(ctx, item); err != nil {
		logger.Error("Failed to queue email delivery", err, map[string]interface{}{
			"user_id": req.UserID,
			"type":    req.Type,
		})
		return "", err
	}
	return item.ID, nil
}

// NotifyAdmins 관리자 전원에게 알림, 성공 건수 반환
func (q *deliveryQueue) NotifyAdmins(ctx context.Context, broadcast AdminBroadcast) (int, error) {
	admins, err := q.userRepo.FindByRole(ctx, model.RoleAdmin)
	if err != nil {
		return 0, asServiceError(err, "failed to load admin users")
	}
	if len(admins) == 0 {
		return 0, ErrNoAdmins
	}

	count := 0
	for _, admin := range admins {
		result, err := q.Enqueue(ctx, EnqueueRequest{
			UserID:           admin.ID,
			Type:             broadcast.Type,
			Title:            broadcast.Title,
			Message:          broadcast.Message,
			TemplateKey:      broadcast.TemplateKey,
			TemplateData:     broadcast.TemplateData,
			RelatedRequestID: broadcast.RelatedRequestID,
			Metadata:         broadcast.Metadata,
		})
		if err != nil {
			logger.Warn("Failed to notify admin", map[string]interface{}{
				"admin_id": admin.ID,
				"type":     broadcast.Type,
				"error":    err.Error(),
			})
			continue
		}
		if result.Success {
			count++
		}
	}

	logger.Info("Admin broadcast enqueued", map[string]interface{}{
		"type":       broadcast.Type,
		"admins":     len(admins),
		"successful": count,
	})
	return count, nil
}

// ProcessPendingQueue 만료된 점유 해제 → 대기 항목 조회 → 워커 풀에서 발송
// 항목별로 독립 처리하며 한 항목의 실패가 다른 항목에 영향을 주지 않는다
func (q *deliveryQueue) ProcessPendingQueue(ctx context.Context) (ProcessSummary, error) {
	var summary ProcessSummary
	now := q.now()

	released, err := q.deliveryRepo.ReleaseExpiredLeases(ctx, now)
	if err != nil {
		return summary, asServiceError(err, "failed to release expired leases")
	}
	summary.Released = released

	due, err := q.deliveryRepo.FindDue(ctx, now, q.cfg.BatchSize)
	if err != nil {
		return summary, asServiceError(err, "failed to load pending deliveries")
	}
	summary.Due = len(due)
	if len(due) == 0 {
		return summary, nil
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(q.cfg.Workers)

	for _, item := range due {
		item := item
		g.Go(func() error {
			outcome := q.processItem(ctx, item)
			mu.Lock()
			summary.add(outcome)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	logger.Info("Delivery queue batch processed", map[string]interface{}{
		"worker_id": q.cfg.WorkerID,
		"released":  summary.Released,
		"due":       summary.Due,
		"claimed":   summary.Claimed,
		"sent":      summary.Sent,
		"retried":   summary.Retried,
		"failed":    summary.Failed,
	})
	return summary, nil
}

type itemOutcome int

const (
	outcomeNotClaimed itemOutcome = iota
	outcomeSent
	outcomeRetried
	outcomeFailed
	outcomeLost // 결과 기록 실패 (점유 만료 후 재처리됨)
)

func (s *ProcessSummary) add(o itemOutcome) {
	if o == outcomeNotClaimed {
		return
	}
	s.Claimed++
	switch o {
	case outcomeSent:
		s.Sent++
	case outcomeRetried:
		s.Retried++
	case outcomeFailed:
		s.Failed++
	}
}

func (q *deliveryQueue) processItem(ctx context.Context, item model.QueuedDelivery) itemOutcome {
	workerID := q.cfg.WorkerID
	claimed, err := q.deliveryRepo.Claim(ctx, item.ID, workerID, q.now().Add(q.cfg.LeaseTimeout))
	if err != nil {
		logger.Error("Failed to claim delivery", err, map[string]interface{}{"delivery_id": item.ID})
		return outcomeNotClaimed
	}
	if !claimed {
		// 다른 워커가 먼저 가져갔거나 취소됨
		return outcomeNotClaimed
	}

	sendErr := q.sendWithTimeout(ctx, mailer.Message{
		To:      item.RecipientEmail,
		Subject: item.EmailSubject,
		HTML:    item.EmailHTML,
		Text:    item.EmailText,
	})

	if sendErr == nil {
		ok, err := q.deliveryRepo.MarkSent(ctx, item.ID, workerID, q.now())
		if err != nil || !ok {
			logger.Error("Failed to record sent delivery", err, map[string]interface{}{
				"delivery_id": item.ID,
				"recorded":    ok,
			})
			return outcomeLost
		}
		return outcomeSent
	}

	maxRetries := item.MaxRetries
	if maxRetries < 1 {
		maxRetries = q.cfg.MaxRetries
	}
	retryCount := item.RetryCount + 1
	reason := sendErr.Error()

	if retryCount >= maxRetries {
		ok, err := q.deliveryRepo.MarkFailed(ctx, item.ID, workerID, maxRetries, reason)
		if err != nil || !ok {
			logger.Error("Failed to record failed delivery", err, map[string]interface{}{
				"delivery_id": item.ID,
				"recorded":    ok,
			})
			return outcomeLost
		}

		logger.Error("Delivery permanently failed", sendErr, map[string]interface{}{
			"delivery_id":  item.ID,
			"recipient_id": item.RecipientID,
			"retry_count":  maxRetries,
		})
		if alertErr := q.alerter.DeliveryFailed(ctx, mailer.Alert{
			DeliveryID:  item.ID,
			RecipientID: item.RecipientID,
			Type:        string(item.NotificationType),
			RetryCount:  maxRetries,
			LastFailure: reason,
		}); alertErr != nil {
			logger.Warn("Failed to raise delivery alert", map[string]interface{}{
				"delivery_id": item.ID,
				"error":       alertErr.Error(),
			})
		}
		return outcomeFailed
	}

	ok, err := q.deliveryRepo.Reschedule(ctx, item.ID, workerID, retryCount, reason, q.now())
	if err != nil || !ok {
		logger.Error("Failed to reschedule delivery", err, map[string]interface{}{
			"delivery_id": item.ID,
			"recorded":    ok,
		})
		return outcomeLost
	}
	logger.Warn("Delivery failed, rescheduled", map[string]interface{}{
		"delivery_id": item.ID,
		"retry_count": retryCount,
		"error":       reason,
	})
	return outcomeRetried
}

// sendWithTimeout 발송 채널이 ctx를 무시해도 시간 제한 후 반환
// 반환 후에도 Send 고루틴은 남을 수 있음 (mailer.Sender 의 ctx 계약 참고)
func (q *deliveryQueue) sendWithTimeout(ctx context.Context, msg mailer.Message) error {
	sendCtx, cancel := context.WithTimeout(ctx, q.cfg.SendTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- q.sender.Send(sendCtx, msg)
	}()

	select {
	case err := <-done:
		return err
	case <-sendCtx.Done():
		return fmt.Errorf("send timed out after %s: %w", q.cfg.SendTimeout, sendCtx.Err())
	}
}

// Cancel 관리자 취소 (진행 중인 발송은 완료될 수 있음)
func (q *deliveryQueue) Cancel(ctx context.Context, itemID string) (*model.QueuedDelivery, error) {
	if _, err := q.deliveryRepo.FindByID(ctx, itemID); err != nil {
		return nil, notFoundOr(err, ErrDeliveryNotFound, "failed to load delivery")
	}

	cancelled, err := q.deliveryRepo.Cancel(ctx, itemID)
	if err != nil {
		return nil, asServiceError(err, "failed to cancel delivery")
	}

	item, err := q.deliveryRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, notFoundOr(err, ErrDeliveryNotFound, "failed to load delivery")
	}
	if !cancelled {
		return item, ErrDeliveryFinished
	}

	logger.Info("Delivery cancelled", map[string]interface{}{
		"delivery_id": itemID,
	})
	return item, nil
}

const maxDeliveryListLimit = 200

// ListByStatus 상태별 발송 건 조회 (실패 건 점검용)
func (q *deliveryQueue) ListByStatus(ctx context.Context, status model.DeliveryStatus, limit int) ([]model.QueuedDelivery, error) {
	switch status {
	case model.DeliveryStatusPending,
		model.DeliveryStatusInFlight,
		model.DeliveryStatusSent,
		model.DeliveryStatusFailed,
		model.DeliveryStatusCancelled:
	default:
		return nil, invalidFields(map[string]string{"status": "허용되지 않는 값입니다"})
	}
	if limit <= 0 || limit > maxDeliveryListLimit {
		limit = maxDeliveryListLimit
	}

	items, err := q.deliveryRepo.FindByStatus(ctx, status, limit)
	if err != nil {
		return nil, asServiceError(err, "failed to list deliveries")
	}
	return items, nil
}

func validateEnqueue(req EnqueueRequest) map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(req.UserID) == "" {
		fields["user_id"] = "필수 항목입니다"
	}
	if !req.Type.Valid() {
		fields["type"] = "허용되지 않는 알림 타입입니다"
	}
	if strings.TrimSpace(req.Title) == "" {
		fields["title"] = "필수 항목입니다"
	}
	if req.TemplateKey != "" && !HasTemplate(req.TemplateKey) {
		fields["template_key"] = "등록되지 않은 템플릿입니다"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func toJSONMap(m map[string]interface{}) datatypes.JSONMap {
	if len(m) == 0 {
		return nil
	}
	out := make(datatypes.JSONMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
