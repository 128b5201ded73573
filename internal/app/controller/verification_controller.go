package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/kuotechnology-ui/kindworld-backend/internal/errors"
	"github.com/kuotechnology-ui/kindworld-backend/internal/app/service"
	"github.com/kuotechnology-ui/kindworld-backend/internal/middleware"
)

// VerificationController 단체 인증 심사 신청 컨트롤러
type VerificationController struct {
	service service.VerificationService
}

// NewVerificationController 인증 심사 컨트롤러 생성자
func NewVerificationController(service service.VerificationService) *VerificationController {
	return &VerificationController{
		service: service,
	}
}

// SubmitVerificationRequest 인증 심사 신청 요청 본문
type SubmitVerificationRequest struct {
	service.SubmissionForm
	Documents []service.DocumentInput `json:"documents"`
}

// Submit godoc
// @Summary 인증 심사 신청
// @Description 단체 담당자가 인증 심사를 신청합니다
// @Tags verification
// @Accept json
// @Produce json
// @Param org_id path string true "단체 ID"
// @Success 201 {object} gin.H{request=model.VerificationRequest}
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 403 {object} apperrors.ErrorResponse
// @Failure 409 {object} apperrors.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/organizations/{org_id}/verification [post]
func (c *VerificationController) Submit(ctx *gin.Context) {
	log := middleware.GetLoggerFromContext(ctx)

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		apperrors.Unauthorized(ctx, "")
		return
	}

	var req SubmitVerificationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid submission body", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(ctx, apperrors.ValidationInvalidInput, "요청 형식이 올바르지 않습니다")
		return
	}

	req.SubmissionForm.IPAddress = ctx.ClientIP()
	req.SubmissionForm.UserAgent = ctx.Request.UserAgent()

	request, err := c.service.Submit(ctx.Request.Context(), ctx.Param("org_id"), userID, req.SubmissionForm, req.Documents)
	if err != nil {
		apperrors.RespondWithServiceError(ctx, err, "verification submit")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"request": request,
	})
}

// GetStatus godoc
// @Summary 인증 심사 상태 조회
// @Description 단체의 가장 최근 심사 요청을 조회합니다 (없으면 null)
// @Tags verification
// @Produce json
// @Param org_id path string true "단체 ID"
// @Success 200 {object} gin.H{request=model.VerificationRequest}
// @Security BearerAuth
// @Router /api/v1/organizations/{org_id}/verification [get]
func (c *VerificationController) GetStatus(ctx *gin.Context) {
	request, err := c.service.GetStatus(ctx.Request.Context(), ctx.Param("org_id"))
	if err != nil {
		apperrors.RespondWithServiceError(ctx, err, "verification status")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"request": request,
	})
}
