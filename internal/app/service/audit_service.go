package service

import (
	"context"
	"strings"

	"github.com/kuotechnology-ui/kindworld-backend/internal/app/model"
	"github.com/kuotechnology-ui/kindworld-backend/internal/app/repository"
)

const (
	defaultAuditLimit = 10
	maxAuditLimit     = 100
)

// AuditService 인증 심사 감사 로그 (추가/조회 전용)
type AuditService interface {
	Append(ctx context.Context, entry *model.AuditLogEntry) error
	RecentForRequest(ctx context.Context, requestID string) ([]model.AuditLogEntry, error)
	RecentGlobal(ctx context.Context, limit int) ([]model.AuditLogEntry, error)
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) Append(ctx context.Context, entry *model.AuditLogEntry) error {
	if fields := validateAuditEntry(entry); fields != nil {
		return invalidFields(fields)
	}
	return asServiceError(s.repo.Append(ctx, entry), "failed to append audit entry")
}

// RecentForRequest 요청별 전체 이력 (최신순)
func (s *auditService) RecentForRequest(ctx context.Context, requestID string) ([]model.AuditLogEntry, error) {
	if strings.TrimSpace(requestID) == "" {
		return nil, invalidFields(map[string]string{"request_id": "필수 항목입니다"})
	}
	entries, err := s.repo.FindByRequest(ctx, requestID, maxAuditLimit)
	if err != nil {
		return nil, asServiceError(err, "failed to load audit entries")
	}
	return entries, nil
}

// RecentGlobal 전체 최근 이력 (기본 10건, 최대 100건)
func (s *auditService) RecentGlobal(ctx context.Context, limit int) ([]model.AuditLogEntry, error) {
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	entries, err := s.repo.FindRecent(ctx, limit)
	if err != nil {
		return nil, asServiceError(err, "failed to load recent audit entries")
	}
	return entries, nil
}

func validateAuditEntry(entry *model.AuditLogEntry) map[string]string {
	if entry == nil {
		return map[string]string{"_": "감사 로그 항목이 없습니다"}
	}
	fields := map[string]string{}
	if strings.TrimSpace(entry.RequestID) == "" {
		fields["request_id"] = "필수 항목입니다"
	}
	if strings.TrimSpace(entry.ActorID) == "" {
		fields["actor_id"] = "필수 항목입니다"
	}
	switch entry.Action {
	case model.AuditActionSubmitted,
		model.AuditActionApproved,
		model.AuditActionRejected,
		model.AuditActionDocumentsRequested,
		model.AuditActionResubmitted:
	default:
		fields["action"] = "허용되지 않는 값입니다"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
