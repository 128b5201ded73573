package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	apperrors "github.com/kuotechnology-ui/kindworld-backend/internal/errors"
	"github.com/kuotechnology-ui/kindworld-backend/internal/app/service"
	"github.com/kuotechnology-ui/kindworld-backend/internal/middleware"
	ws "github.com/kuotechnology-ui/kindworld-backend/internal/websocket"
)

// NotificationController 알림 컨트롤러
type NotificationController struct {
	service  service.NotificationService
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewNotificationController 알림 컨트롤러 생성자
// hub가 nil이면 실시간 피드 연결을 받지 않음
func NewNotificationController(service service.NotificationService, hub *ws.Hub, allowedOrigins []string) *NotificationController {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &NotificationController{
		service: service,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// 브라우저 외 클라이언트는 Origin 헤더가 없음
				return origin == "" || origins["*"] || origins[origin]
			},
		},
	}
}

// GetNotifications godoc
// @Summary 알림 목록 조회
// @Description 사용자의 알림 피드를 최신순으로 조회합니다
// @Tags notifications
// @Produce json
// @Param limit query int false "조회 개수 (최대 50)" default(20)
// @Param unread_only query bool false "안읽은 알림만"
// @Success 200 {object} gin.H{data=[]model.Notification,unread_count=int}
// @Failure 401 {object} apperrors.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/notifications [get]
func (c *NotificationController) GetNotifications(ctx *gin.Context) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		apperrors.Unauthorized(ctx, "로그인이 필요합니다")
		return
	}

	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "0"))
	if err != nil {
		apperrors.BadRequest(ctx, apperrors.ValidationInvalidInput, "limit 값이 올바르지 않습니다")
		return
	}
	unreadOnly := ctx.Query("unread_only") == "true"

	notifications, err := c.service.Feed(ctx.Request.Context(), userID, limit, unreadOnly)
	if err != nil {
		apperrors.RespondWithServiceError(ctx, err, "notification feed")
		return
	}

	unreadCount, err := c.service.UnreadCount(ctx.Request.Context(), userID)
	if err != nil {
		apperrors.RespondWithServiceError(ctx, err, "notification feed")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data":         notifications,
		"unread_count": unreadCount,
	})
}

// GetUnreadCount godoc
// @Summary 안읽은 알림 개수 조회
// @Tags notifications
// @Produce json
// @Success 200 {object} gin.H{unread_count=int}
// @Security BearerAuth
// @Router /api/v1/notifications/unread-count [get]
func (c *NotificationController) GetUnreadCount(ctx *gin.Context) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		apperrors.Unauthorized(ctx, "로그인이 필요합니다")
		return
	}

	count, err := c.service.UnreadCount(ctx.Request.Context(), userID)
	if err != nil {
		apperrors.RespondWithServiceError(ctx, err, "notification unread count")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"unread_count": count,
	})
}

// MarkAsRead godoc
// @Summary 알림 읽음 처리
// @Tags notifications
// @Produce json
// @Param id path string true "알림 ID"
// @Success 200 {object} gin.H{notification=model.Notification}
// @Failure 403 {object} apperrors.ErrorResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/notifications/{id}/read [patch]
func (c *NotificationController) MarkAsRead(ctx *gin.Context) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		apperrors.Unauthorized(ctx, "로그인이 필요합니다")
		return
	}

	notification, err := c.service.MarkRead(ctx.Request.Context(), ctx.Param("id"), userID)
	if err != nil {
		apperrors.RespondWithServiceError(ctx, err, "notification read")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"notification": notification,
	})
}

// MarkAllAsRead godoc
// @Summary 모든 알림 읽음 처리
// @Tags notifications
// @Produce json
// @Success 200 {object} service.MarkAllResult
// @Security BearerAuth
// @Router /api/v1/notifications/read-all [patch]
func (c *NotificationController) MarkAllAsRead(ctx *gin.Context) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		apperrors.Unauthorized(ctx, "로그인이 필요합니다")
		return
	}

	result, err := c.service.MarkAllRead(ctx.Request.Context(), userID)
	if err != nil {
		apperrors.RespondWithServiceError(ctx, err, "notification read all")
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// GetPreferences 알림 수신 설정 조회
// GET /api/v1/users/notification-preferences
func (c *NotificationController) GetPreferences(ctx *gin.Context) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		apperrors.Unauthorized(ctx, "로그인이 필요합니다")
		return
	}

	prefs, err := c.service.GetPreferences(ctx.Request.Context(), userID)
	if err != nil {
		apperrors.RespondWithServiceError(ctx, err, "notification preferences")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"preferences": prefs,
	})
}

// UpdatePreferences 알림 수신 설정 수정 (보낸 항목만 반영)
// PUT /api/v1/users/notification-preferences
func (c *NotificationController) UpdatePreferences(ctx *gin.Context) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		apperrors.Unauthorized(ctx, "로그인이 필요합니다")
		return
	}

	var update service.PreferencesUpdate
	if err := ctx.ShouldBindJSON(&update); err != nil {
		apperrors.BadRequest(ctx, apperrors.ValidationInvalidInput, "요청 형식이 올바르지 않습니다")
		return
	}

	prefs, err := c.service.UpdatePreferences(ctx.Request.Context(), userID, update)
	if err != nil {
		apperrors.RespondWithServiceError(ctx, err, "notification preferences update")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"preferences": prefs,
	})
}

// Stream 실시간 알림 피드 WebSocket
// GET /api/v1/notifications/ws?token=...
func (c *NotificationController) Stream(ctx *gin.Context) {
	log := middleware.GetLoggerFromContext(ctx)

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		apperrors.Unauthorized(ctx, "로그인이 필요합니다")
		return
	}
	if c.hub == nil {
		apperrors.RespondWithError(ctx, http.StatusServiceUnavailable, apperrors.InternalServerError, "실시간 알림을 사용할 수 없습니다")
		return
	}

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	client := ws.NewClient(c.hub, &ws.Conn{Conn: conn}, userID)
	c.hub.Register(client)
	client.Serve()

	log.Info("WebSocket connection established", map[string]interface{}{
		"user_id": userID,
	})
}
