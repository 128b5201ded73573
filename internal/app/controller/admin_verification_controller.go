package controller

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/kuotechnology-ui/kindworld-backend/internal/errors"
	"github.com/kuotechnology-ui/kindworld-backend/internal/app/service"
	"github.com/kuotechnology-ui/kindworld-backend/internal/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminVerificationController 관리자 심사 컨트롤러
type AdminVerificationController struct {
	verification service.VerificationService
	query        service.AdminQueryService
	audit        service.AuditService
}

// NewAdminVerificationController 관리자 심사 컨트롤러 생성자
func NewAdminVerificationController(
	verification service.VerificationService,
	query service.AdminQueryService,
	audit service.AuditService,
) *AdminVerificationController {
	return &AdminVerificationController{
		verification: verification,
		query:        query,
		audit:        audit,
	}
}

// ApproveRequest 승인 요청 본문
type ApproveRequest struct {
	Notes *string `json:"notes"`
}

// RejectRequest 반려 요청 본문
type RejectRequest struct {
	Reason string  `json:"reason"`
	Notes  *string `json:"notes"`
}

// RequestDocumentsRequest 추가 서류 요청 본문
type RequestDocumentsRequest struct {
	Documents []string `json:"documents"`
	Notes     *string  `json:"notes"`
}

// List 심사 요청 목록 (필터 + 페이지)
// GET /api/v1/admin/verifications
func (c *AdminVerificationController) List(ctx *gin.Context) {
	var filter service.RequestFilter
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		apperrors.BadRequest(ctx, apperrors.ValidationInvalidInput, "조회 조건이 올바르지 않습니다")
		return
	}

	page, err := c.query.List(ctx.Request.Context(), filter)
	if err != nil {
		apperrors.RespondWithServiceError(ctx, err, "verification list")
		return
	}

	ctx.JSON(http.StatusOK, page)
}

// Stats 대시보드 통계
// GET /api/v1/admin/verifications/stats
func (c *AdminVerificationController) Stats(ctx *gin.Context) {
	stats, err := c.query.Stats(ctx.Request.Context())
	if err != nil {
		apperrors.RespondWithServiceError(ctx, err, "verification stats")
		return
	}

	ctx.JSON(http.StatusOK, stats)
}

// Export 심사 요청 엑셀 다운로드
// GET /api/v1/admin/verifications/export
func (c *AdminVerificationController) Export(ctx *gin.Context) {
	log := middleware.GetLoggerFromContext(ctx)

	var filter service.RequestFilter
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		apperrors.BadRequest(ctx, apperrors.ValidationInvalidInput, "조회 조건이 올바르지 않습니다")
		return
	}

	data, err := c.query.ExportXLSX(ctx.Request.Context(), filter)
	if err != nil {
		apperrors.RespondWithServiceError(ctx, err, "verification export")
		return
	}

	fileName := fmt.Sprintf("verifications_%s.xlsx", time.Now().UTC().Format("20060102"))
	log.Info("Verification export generated", map[string]interface{}{
		"bytes": len(data),
	})

	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
	ctx.Data(http.StatusOK, xlsxContentType, data)
}

// GetRequest 심사 요청 상세 (서류 포함)
// GET /api/v1/admin/verifications/:id
func (c *AdminVerificationController) GetRequest(ctx *gin.Context) {
	request, err := c.verification.GetRequest(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		apperrors.RespondWithServiceError(ctx, err, "verification detail")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"request": request,
	})
}

// AuditTrail 심사 요청의 감사 이력
// GET /api/v1/admin/verifications/:id/audit
func (c *AdminVerificationController) AuditTrail(ctx *gin.Context) {
	entries, err := c.audit.RecentForRequest(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		apperrors.RespondWithServiceError(ctx, err, "verification audit")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"entries": entries,
	})
}

// DocumentURL 서류 열람 URL
// GET /api/v1/admin/verifications/:id/documents/:doc_id/url
func (c *AdminVerificationController) DocumentURL(ctx *gin.Context) {
	url, err := c.query.DocumentURL(ctx.Request.Context(), ctx.Param("id"), ctx.Param("doc_id"))
	if err != nil {
		apperrors.RespondWithServiceError(ctx, err, "verification document")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"url": url,
	})
}

// Approve 심사 승인
// POST /api/v1/admin/verifications/:id/approve
func (c *AdminVerificationController) Approve(ctx *gin.Context) {
	adminID, ok := middleware.GetUserID(ctx)
	if !ok {
		apperrors.Unauthorized(ctx, "")
		return
	}

	// 본문은 선택 사항
	var req ApproveRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			apperrors.BadRequest(ctx, apperrors.ValidationInvalidInput, "요청 형식이 올바르지 않습니다")
			return
		}
	}

	request, err := c.verification.Approve(ctx.Request.Context(), ctx.Param("id"), adminID, req.Notes)
	if err != nil {
		apperrors.RespondWithServiceError(ctx, err, "verification approve")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"request": request,
	})
}

// Reject 심사 반려
// POST /api/v1/admin/verifications/:id/reject
func (c *AdminVerificationController) Reject(ctx *gin.Context) {
	adminID, ok := middleware.GetUserID(ctx)
	if !ok {
		apperrors.Unauthorized(ctx, "")
		return
	}

	var req RejectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(ctx, apperrors.ValidationInvalidInput, "요청 형식이 올바르지 않습니다")
		return
	}

	request, err := c.verification.Reject(ctx.Request.Context(), ctx.Param("id"), adminID, req.Reason, req.Notes)
	if err != nil {
		apperrors.RespondWithServiceError(ctx, err, "verification reject")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"request": request,
	})
}

// RequestDocuments 추가 서류 요청
// POST /api/v1/admin/verifications/:id/request-documents
func (c *AdminVerificationController) RequestDocuments(ctx *gin.Context) {
	adminID, ok := middleware.GetUserID(ctx)
	if !ok {
		apperrors.Unauthorized(ctx, "")
		return
	}

	var req RequestDocumentsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(ctx, apperrors.ValidationInvalidInput, "요청 형식이 올바르지 않습니다")
		return
	}

	if err := c.verification.RequestAdditionalDocuments(ctx.Request.Context(), ctx.Param("id"), adminID, req.Documents, req.Notes); err != nil {
		apperrors.RespondWithServiceError(ctx, err, "verification request documents")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "추가 서류를 요청했습니다",
	})
}
