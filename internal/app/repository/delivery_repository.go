package repository

import (
	"context"
	"time"

	"github.com/kuotechnology-ui/kindworld-backend/internal/app/model"
	"github.com/kuotechnology-ui/kindworld-backend/pkg/logger"
	"gorm.io/gorm"
)

// DeliveryRepository 이메일 발송 큐 저장소
// 상태 변경은 모두 조건부 UPDATE로 수행하며, 반영 여부를 bool로 돌려준다
type DeliveryRepository interface {
	Create(ctx context.Context, item *model.QueuedDelivery) error
	FindByID(ctx context.Context, id string) (*model.QueuedDelivery, error)
	FindByStatus(ctx context.Context, status model.DeliveryStatus, limit int) ([]model.QueuedDelivery, error)
	FindDue(ctx context.Context, now time.Time, limit int) ([]model.QueuedDelivery, error)
	ReleaseExpiredLeases(ctx context.Context, now time.Time) (int64, error)
	Claim(ctx context.Context, id, workerID string, leaseUntil time.Time) (bool, error)
	MarkSent(ctx context.Context, id, workerID string, sentAt time.Time) (bool, error)
	Reschedule(ctx context.Context, id, workerID string, retryCount int, reason string, at time.Time) (bool, error)
	MarkFailed(ctx context.Context, id, workerID string, retryCount int, reason string) (bool, error)
	Cancel(ctx context.Context, id string) (bool, error)
}

type deliveryRepository struct {
	db *gorm.DB
}

func NewDeliveryRepository(db *gorm.DB) DeliveryRepository {
	return &deliveryRepository{db: db}
}

func (r *deliveryRepository) Create(ctx context.Context, item *model.QueuedDelivery) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *deliveryRepository) FindByID(ctx context.Context, id string) (*model.QueuedDelivery, error) {
	var item model.QueuedDelivery
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByStatus 상태별 항목 (최근 변경순)
func (r *deliveryRepository) FindByStatus(ctx context.Context, status model.DeliveryStatus, limit int) ([]model.QueuedDelivery, error) {
	var items []model.QueuedDelivery
	query := r.db.WithContext(ctx).Where("status = ?", status).Order("updated_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindDue 발송 시각이 된 대기 항목 (예약 시각 오름차순)
func (r *deliveryRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]model.QueuedDelivery, error) {
	var items []model.QueuedDelivery
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", model.DeliveryStatusPending, now).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// ReleaseExpiredLeases 점유 기한이 지난 항목을 대기 상태로 되돌림
func (r *deliveryRepository) ReleaseExpiredLeases(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.QueuedDelivery{}).
		Where("status = ? AND lease_expires_at < ?", model.DeliveryStatusInFlight, now).
		Updates(map[string]interface{}{
			"status":           model.DeliveryStatusPending,
			"worker_id":        "",
			"lease_expires_at": nil,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		logger.Warn("Released expired delivery leases", map[string]interface{}{
			"count": result.RowsAffected,
		})
	}
	return result.RowsAffected, nil
}

// Claim pending → in_flight (워커 ID와 점유 기한 기록)
func (r *deliveryRepository) Claim(ctx context.Context, id, workerID string, leaseUntil time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.QueuedDelivery{}).
		Where("id = ? AND status = ?", id, model.DeliveryStatusPending).
		Updates(map[string]interface{}{
			"status":           model.DeliveryStatusInFlight,
			"worker_id":        workerID,
			"lease_expires_at": leaseUntil,
		})
	return result.RowsAffected == 1, result.Error
}

// MarkSent 발송 완료
// 발송 도중 취소된 항목도 이미 보낸 것이므로 sent로 기록
func (r *deliveryRepository) MarkSent(ctx context.Context, id, workerID string, sentAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.QueuedDelivery{}).
		Where("id = ? AND worker_id = ? AND status IN ?", id, workerID, []model.DeliveryStatus{
			model.DeliveryStatusInFlight,
			model.DeliveryStatusCancelled,
		}).
		Updates(map[string]interface{}{
			"status":           model.DeliveryStatusSent,
			"sent_at":          sentAt,
			"failure_reason":   "",
			"lease_expires_at": nil,
		})
	return result.RowsAffected == 1, result.Error
}

// Reschedule 일시 실패: 재시도 횟수를 기록하고 대기 상태로 되돌림
func (r *deliveryRepository) Reschedule(ctx context.Context, id, workerID string, retryCount int, reason string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.QueuedDelivery{}).
		Where("id = ? AND worker_id = ? AND status = ?", id, workerID, model.DeliveryStatusInFlight).
		Updates(map[string]interface{}{
			"status":           model.DeliveryStatusPending,
			"retry_count":      retryCount,
			"failure_reason":   reason,
			"scheduled_at":     at,
			"worker_id":        "",
			"lease_expires_at": nil,
		})
	return result.RowsAffected == 1, result.Error
}

// MarkFailed 재시도 한도 초과
func (r *deliveryRepository) MarkFailed(ctx context.Context, id, workerID string, retryCount int, reason string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.QueuedDelivery{}).
		Where("id = ? AND worker_id = ? AND status = ?", id, workerID, model.DeliveryStatusInFlight).
		Updates(map[string]interface{}{
			"status":           model.DeliveryStatusFailed,
			"retry_count":      retryCount,
			"failure_reason":   reason,
			"lease_expires_at": nil,
		})
	return result.RowsAffected == 1, result.Error
}

// Cancel pending/in_flight → cancelled
func (r *deliveryRepository) Cancel(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.QueuedDelivery{}).
		Where("id = ? AND status IN ?", id, []model.DeliveryStatus{
			model.DeliveryStatusPending,
			model.DeliveryStatusInFlight,
		}).
		Update("status", model.DeliveryStatusCancelled)
	return result.RowsAffected == 1, result.Error
}
