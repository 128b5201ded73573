package repository

import (
	"context"
	"strings"
	"time"

	"github.com/kuotechnology-ui/kindworld-backend/internal/app/model"
	"github.com/kuotechnology-ui/kindworld-backend/pkg/logger"
	"gorm.io/gorm"
)

// VerificationFilter 관리자 심사 목록 필터 (모든 조건은 선택, AND 결합)
type VerificationFilter struct {
	Status           *model.VerificationStatus
	OrganizationType string
	Search           string // 단체명/연락 이메일 부분 일치 (대소문자 무시)
	SubmittedFrom    *time.Time
	SubmittedTo      *time.Time
	Limit            int
	Offset           int
}

// ReviewDecision 대기 상태 요청에 적용할 심사 결과
type ReviewDecision struct {
	Status          model.VerificationStatus
	ReviewedBy      string
	ReviewedAt      time.Time
	RejectionReason *string
	AdminNotes      *string
}

// VerificationRepository 인증 심사 요청 저장소
type VerificationRepository interface {
	WithTx(tx *gorm.DB) VerificationRepository
	Create(ctx context.Context, req *model.VerificationRequest) error
	FindByID(ctx context.Context, id string) (*model.VerificationRequest, error)
	FindLatestByOrganization(ctx context.Context, orgID string) (*model.VerificationRequest, error)
	HasPending(ctx context.Context, orgID string) (bool, error)
	ApplyDecision(ctx context.Context, id string, decision ReviewDecision) (bool, error)
	FindWithFilter(ctx context.Context, filter VerificationFilter) ([]model.VerificationRequest, int64, error)
	CountByStatus(ctx context.Context) (map[model.VerificationStatus]int64, error)
	FindReviewed(ctx context.Context) ([]model.VerificationRequest, error)
	FindDocument(ctx context.Context, requestID, documentID string) (*model.VerificationDocument, error)
}

type verificationRepository struct {
	db *gorm.DB
}

func NewVerificationRepository(db *gorm.DB) VerificationRepository {
	return &verificationRepository{db: db}
}

// WithTx 트랜잭션에 묶인 저장소 반환
func (r *verificationRepository) WithTx(tx *gorm.DB) VerificationRepository {
	return &verificationRepository{db: tx}
}

// Create 요청과 첨부 서류를 함께 저장
func (r *verificationRepository) Create(ctx context.Context, req *model.VerificationRequest) error {
	logger.Debug("Creating verification request", map[string]interface{}{
		"organization_id": req.OrganizationID,
		"documents":       len(req.Documents),
	})
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *verificationRepository) withDocuments(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Documents", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

func (r *verificationRepository) FindByID(ctx context.Context, id string) (*model.VerificationRequest, error) {
	var req model.VerificationRequest
	if err := r.withDocuments(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// FindLatestByOrganization 단체의 가장 최근 제출 요청
func (r *verificationRepository) FindLatestByOrganization(ctx context.Context, orgID string) (*model.VerificationRequest, error) {
	var req model.VerificationRequest
	err := r.withDocuments(ctx).
		Where("organization_id = ?", orgID).
		Order("submitted_at DESC").
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// HasPending 심사 대기 중인 요청 존재 여부
func (r *verificationRepository) HasPending(ctx context.Context, orgID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.VerificationRequest{}).
		Where("organization_id = ? AND status = ?", orgID, model.VerificationStatusPending).
		Count(&count).Error
	return count > 0, err
}

// ApplyDecision pending 상태일 때만 심사 결과 반영 (compare-and-swap)
// 반영되지 않으면 false
func (r *verificationRepository) ApplyDecision(ctx context.Context, id string, decision ReviewDecision) (bool, error) {
	updates := map[string]interface{}{
		"status":      decision.Status,
		"reviewed_by": decision.ReviewedBy,
		"reviewed_at": decision.ReviewedAt,
	}
	if decision.RejectionReason != nil {
		updates["rejection_reason"] = *decision.RejectionReason
	}
	if decision.AdminNotes != nil {
		updates["admin_notes"] = *decision.AdminNotes
	}

	result := r.db.WithContext(ctx).Model(&model.VerificationRequest{}).
		Where("id = ? AND status = ?", id, model.VerificationStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// likeEscaper 검색어의 LIKE 와일드카드를 문자 그대로 취급
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// FindWithFilter 관리자 목록 조회 (최신 제출순)
func (r *verificationRepository) FindWithFilter(ctx context.Context, filter VerificationFilter) ([]model.VerificationRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.VerificationRequest{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.OrganizationType != "" {
		query = query.Where("organization_type = ?", filter.OrganizationType)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
		query = query.Where(`(LOWER(organization_name) LIKE ? ESCAPE '\' OR LOWER(contact_email) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if filter.SubmittedFrom != nil {
		query = query.Where("submitted_at >= ?", *filter.SubmittedFrom)
	}
	if filter.SubmittedTo != nil {
		query = query.Where("submitted_at <= ?", *filter.SubmittedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Preload("Documents", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Order("submitted_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var requests []model.VerificationRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// CountByStatus 상태별 요청 수
func (r *verificationRepository) CountByStatus(ctx context.Context) (map[model.VerificationStatus]int64, error) {
	var rows []struct {
		Status model.VerificationStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&model.VerificationRequest{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.VerificationStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// FindReviewed 심사 완료되고 검토 일시가 있는 요청 (처리 기간 통계용)
func (r *verificationRepository) FindReviewed(ctx context.Context) ([]model.VerificationRequest, error) {
	var requests []model.VerificationRequest
	err := r.db.WithContext(ctx).
		Select("id", "status", "submitted_at", "reviewed_at").
		Where("status IN ? AND reviewed_at IS NOT NULL", []model.VerificationStatus{
			model.VerificationStatusApproved,
			model.VerificationStatusRejected,
		}).
		Find(&requests).Error
	return requests, err
}

// FindDocument 요청에 속한 서류 조회
func (r *verificationRepository) FindDocument(ctx context.Context, requestID, documentID string) (*model.VerificationDocument, error) {
	var doc model.VerificationDocument
	err := r.db.WithContext(ctx).
		Where("id = ? AND request_id = ?", documentID, requestID).
		First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
