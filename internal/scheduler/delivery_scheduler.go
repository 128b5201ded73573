package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/kuotechnology-ui/kindworld-backend/internal/app/service"
	"github.com/kuotechnology-ui/kindworld-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// DefaultDeliverySchedule 발송 큐 처리 주기
const DefaultDeliverySchedule = "@every 15s"

// DeliveryScheduler 이메일 발송 큐 주기 처리 스케줄러
type DeliveryScheduler struct {
	cron     *cron.Cron
	queue    service.DeliveryQueue
	schedule string

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewDeliveryScheduler 발송 스케줄러 생성
// 이전 실행이 끝나지 않았으면 이번 실행은 건너뜀
func NewDeliveryScheduler(queue service.DeliveryQueue, schedule string) *DeliveryScheduler {
	if schedule == "" {
		schedule = DefaultDeliverySchedule
	}
	log := cronLogger{}
	return &DeliveryScheduler{
		cron: cron.New(
			cron.WithLogger(log),
			cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
		),
		queue:    queue,
		schedule: schedule,
	}
}

// Start 스케줄러 시작
func (s *DeliveryScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	if _, err := s.cron.AddFunc(s.schedule, s.run); err != nil {
		logger.Error("Failed to add cron job for delivery queue", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return fmt.Errorf("schedule delivery queue: %w", err)
	}

	s.cron.Start()
	logger.Info("Delivery scheduler started", map[string]interface{}{
		"schedule": s.schedule,
	})
	return nil
}

// RunOnce 즉시 1회 처리 (CLI, 테스트용)
func (s *DeliveryScheduler) RunOnce(ctx context.Context) (service.ProcessSummary, error) {
	return s.queue.ProcessPendingQueue(ctx)
}

func (s *DeliveryScheduler) run() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}

	summary, err := s.queue.ProcessPendingQueue(ctx)
	if err != nil {
		logger.Error("Scheduled delivery processing failed", err)
		return
	}
	if summary.Due > 0 || summary.Released > 0 {
		logger.Debug("Scheduled delivery processing finished", map[string]interface{}{
			"due":     summary.Due,
			"sent":    summary.Sent,
			"retried": summary.Retried,
			"failed":  summary.Failed,
		})
	}
}

// Stop 스케줄러 중지 (진행 중인 처리가 끝날 때까지 대기)
func (s *DeliveryScheduler) Stop() {
	logger.Info("Stopping delivery scheduler...")
	done := s.cron.Stop()
	<-done.Done()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	logger.Info("Delivery scheduler stopped")
}

// cronLogger robfig/cron 로그를 zerolog로 전달
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: "+msg, keyValues(keysAndValues))
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron: "+msg, err, keyValues(keysAndValues))
}

func keyValues(kv []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
