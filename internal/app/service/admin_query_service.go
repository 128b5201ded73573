package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/kuotechnology-ui/kindworld-backend/internal/app/model"
	"github.com/kuotechnology-ui/kindworld-backend/internal/app/repository"
	apperrors "github.com/kuotechnology-ui/kindworld-backend/internal/errors"
	"github.com/kuotechnology-ui/kindworld-backend/internal/storage"
)

const (
	recentActivityLimit = 10
	maxListPageSize     = 100
	maxExportRows       = 10000
)

// RequestFilter 관리자 심사 목록 조회 조건
type RequestFilter struct {
	Status           string     `form:"status"`
	OrganizationType string     `form:"organization_type"`
	Search           string     `form:"search"`
	SubmittedFrom    *time.Time `form:"submitted_from" time_format:"2006-01-02"`
	SubmittedTo      *time.Time `form:"submitted_to" time_format:"2006-01-02"`
	Page             int        `form:"page"`
	PageSize         int        `form:"page_size"`
}

// RequestPage 목록 조회 결과
type RequestPage struct {
	Requests []model.VerificationRequest `json:"requests"`
	Total    int64                       `json:"total"`
	Page     int                         `json:"page"`
	PageSize int                         `json:"page_size"`
}

// VerificationStats 관리자 대시보드 통계
type VerificationStats struct {
	Pending               int64                 `json:"pending"`
	Approved              int64                 `json:"approved"`
	Rejected              int64                 `json:"rejected"`
	AverageProcessingDays int                   `json:"average_processing_days"`
	RecentActivity        []model.AuditLogEntry `json:"recent_activity"`
}

// DocumentPresigner 서류 저장 위치를 열람 가능한 URL로 변환
type DocumentPresigner interface {
	PresignURL(ctx context.Context, locator string) (string, error)
}

// AdminQueryService 관리자 조회 전용 기능
type AdminQueryService interface {
	List(ctx context.Context, filter RequestFilter) (RequestPage, error)
	Stats(ctx context.Context) (VerificationStats, error)
	ExportXLSX(ctx context.Context, filter RequestFilter) ([]byte, error)
	DocumentURL(ctx context.Context, requestID, documentID string) (string, error)
}

type adminQueryService struct {
	verificationRepo repository.VerificationRepository
	audit            AuditService
	presigner        DocumentPresigner
}

// NewAdminQueryService presigner가 nil이면 http(s) 위치만 반환 가능
func NewAdminQueryService(
	verificationRepo repository.VerificationRepository,
	audit AuditService,
	presigner DocumentPresigner,
) AdminQueryService {
	return &adminQueryService{
		verificationRepo: verificationRepo,
		audit:            audit,
		presigner:        presigner,
	}
}

// toRepositoryFilter 조회 조건 검증 및 변환
func (f RequestFilter) toRepositoryFilter() (repository.VerificationFilter, error) {
	var out repository.VerificationFilter

	if status := strings.TrimSpace(f.Status); status != "" {
		s := model.VerificationStatus(status)
		switch s {
		case model.VerificationStatusPending, model.VerificationStatusApproved, model.VerificationStatusRejected:
			out.Status = &s
		default:
			return out, invalidFields(map[string]string{"status": "허용되지 않는 값입니다 (pending approved rejected)"})
		}
	}
	if f.SubmittedFrom != nil && f.SubmittedTo != nil && f.SubmittedTo.Before(*f.SubmittedFrom) {
		return out, invalidFields(map[string]string{"submitted_to": "시작일 이후여야 합니다"})
	}

	out.OrganizationType = strings.TrimSpace(f.OrganizationType)
	out.Search = strings.TrimSpace(f.Search)
	if f.SubmittedFrom != nil {
		from := f.SubmittedFrom.UTC()
		out.SubmittedFrom = &from
	}
	if f.SubmittedTo != nil {
		to := f.SubmittedTo.UTC()
		// 날짜만 지정한 경우 해당 일 끝까지 포함
		if to.Equal(to.Truncate(24 * time.Hour)) {
			to = to.Add(24*time.Hour - time.Nanosecond)
		}
		out.SubmittedTo = &to
	}
	return out, nil
}

// List 필터 목록 (최신 제출순, page_size 미지정 시 전체)
func (s *adminQueryService) List(ctx context.Context, filter RequestFilter) (RequestPage, error) {
	repoFilter, err := filter.toRepositoryFilter()
	if err != nil {
		return RequestPage{}, err
	}

	page := RequestPage{Page: filter.Page, PageSize: filter.PageSize}
	if page.PageSize > 0 {
		if page.PageSize > maxListPageSize {
			page.PageSize = maxListPageSize
		}
		if page.Page < 1 {
			page.Page = 1
		}
		repoFilter.Limit = page.PageSize
		repoFilter.Offset = (page.Page - 1) * page.PageSize
	}

	requests, total, err := s.verificationRepo.FindWithFilter(ctx, repoFilter)
	if err != nil {
		return RequestPage{}, asServiceError(err, "failed to list verification requests")
	}
	if requests == nil {
		requests = []model.VerificationRequest{}
	}
	page.Requests = requests
	page.Total = total
	return page, nil
}

// Stats 상태별 건수, 평균 처리 일수, 최근 활동
func (s *adminQueryService) Stats(ctx context.Context) (VerificationStats, error) {
	var stats VerificationStats

	counts, err := s.verificationRepo.CountByStatus(ctx)
	if err != nil {
		return stats, asServiceError(err, "failed to count verification requests")
	}
	stats.Pending = counts[model.VerificationStatusPending]
	stats.Approved = counts[model.VerificationStatusApproved]
	stats.Rejected = counts[model.VerificationStatusRejected]

	reviewed, err := s.verificationRepo.FindReviewed(ctx)
	if err != nil {
		return stats, asServiceError(err, "failed to load reviewed requests")
	}
	stats.AverageProcessingDays = averageProcessingDays(reviewed)

	recent, err := s.audit.RecentGlobal(ctx, recentActivityLimit)
	if err != nil {
		return stats, err
	}
	if recent == nil {
		recent = []model.AuditLogEntry{}
	}
	stats.RecentActivity = recent
	return stats, nil
}

// averageProcessingDays 제출부터 검토까지 걸린 일수 평균 (반올림), 대상이 없으면 0
func averageProcessingDays(requests []model.VerificationRequest) int {
	var total float64
	n := 0
	for _, r := range requests {
		if r.ReviewedAt == nil || r.SubmittedAt.IsZero() {
			continue
		}
		total += r.ReviewedAt.Sub(r.SubmittedAt).Hours() / 24
		n++
	}
	if n == 0 {
		return 0
	}
	return int(math.Round(total / float64(n)))
}

// ExportXLSX 필터 결과를 엑셀 파일로 내보내기
func (s *adminQueryService) ExportXLSX(ctx context.Context, filter RequestFilter) ([]byte, error) {
	repoFilter, err := filter.toRepositoryFilter()
	if err != nil {
		return nil, err
	}
	repoFilter.Limit = maxExportRows

	requests, _, err := s.verificationRepo.FindWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, asServiceError(err, "failed to list verification requests")
	}

	data, err := writeVerificationWorkbook(requests)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, apperrors.InternalServerError, "failed to build export workbook", err)
	}
	return data, nil
}

// DocumentURL 서류 열람 URL (s3:// 위치는 presigned GET, http(s)는 그대로)
func (s *adminQueryService) DocumentURL(ctx context.Context, requestID, documentID string) (string, error) {
	doc, err := s.verificationRepo.FindDocument(ctx, requestID, documentID)
	if err != nil {
		return "", notFoundOr(err, ErrDocumentNotFound, "failed to load verification document")
	}

	if storage.IsDirectURL(doc.StorageLocator) {
		return doc.StorageLocator, nil
	}
	if s.presigner == nil {
		return "", apperrors.New(apperrors.KindInvalidInput, apperrors.ValidationInvalidInput, "서류 저장소가 설정되지 않았습니다")
	}

	url, err := s.presigner.PresignURL(ctx, doc.StorageLocator)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedLocator) {
			return "", apperrors.New(apperrors.KindInvalidInput, apperrors.ValidationInvalidInput, "지원하지 않는 서류 저장 위치입니다")
		}
		return "", apperrors.Wrap(apperrors.KindDeliveryFailure, apperrors.InternalExternalAPI, "failed to presign document url", err)
	}
	return url, nil
}
