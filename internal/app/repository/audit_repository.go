package repository

import (
	"context"

	"github.com/kuotechnology-ui/kindworld-backend/internal/app/model"
	"gorm.io/gorm"
)

// AuditRepository 감사 로그 저장소 (추가/조회만 제공)
type AuditRepository interface {
	WithTx(tx *gorm.DB) AuditRepository
	Append(ctx context.Context, entry *model.AuditLogEntry) error
	FindByRequest(ctx context.Context, requestID string, limit int) ([]model.AuditLogEntry, error)
	FindRecent(ctx context.Context, limit int) ([]model.AuditLogEntry, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) WithTx(tx *gorm.DB) AuditRepository {
	return &auditRepository{db: tx}
}

func (r *auditRepository) Append(ctx context.Context, entry *model.AuditLogEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindByRequest 요청별 이력 (최신순)
func (r *auditRepository) FindByRequest(ctx context.Context, requestID string, limit int) ([]model.AuditLogEntry, error) {
	var entries []model.AuditLogEntry
	query := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindRecent 전체 최근 이력 (최신순)
func (r *auditRepository) FindRecent(ctx context.Context, limit int) ([]model.AuditLogEntry, error) {
	var entries []model.AuditLogEntry
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
