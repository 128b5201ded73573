package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/kuotechnology-ui/kindworld-backend/internal/errors"
	"github.com/kuotechnology-ui/kindworld-backend/internal/app/model"
	"github.com/kuotechnology-ui/kindworld-backend/internal/app/service"
)

// DeliveryController 이메일 발송 큐 관리 컨트롤러
type DeliveryController struct {
	queue service.DeliveryQueue
}

func NewDeliveryController(queue service.DeliveryQueue) *DeliveryController {
	return &DeliveryController{queue: queue}
}

// List 상태별 발송 건 조회
// GET /api/v1/admin/deliveries?status=failed&limit=50
func (c *DeliveryController) List(ctx *gin.Context) {
	status := model.DeliveryStatus(ctx.DefaultQuery("status", string(model.DeliveryStatusPending)))

	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	if err != nil {
		apperrors.BadRequest(ctx, apperrors.ValidationInvalidInput, "limit 값이 올바르지 않습니다")
		return
	}

	items, err := c.queue.ListByStatus(ctx.Request.Context(), status, limit)
	if err != nil {
		apperrors.RespondWithServiceError(ctx, err, "delivery list")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"deliveries": items,
		"count":      len(items),
	})
}

// Cancel 발송 건 취소
// POST /api/v1/admin/deliveries/:id/cancel
func (c *DeliveryController) Cancel(ctx *gin.Context) {
	item, err := c.queue.Cancel(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		apperrors.RespondWithServiceError(ctx, err, "delivery cancel")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"delivery": item,
	})
}
