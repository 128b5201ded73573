package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kuotechnology-ui/kindworld-backend/pkg/logger"
)

const (
	// RequestIDHeader 요청 추적 헤더
	RequestIDHeader = "X-Request-ID"

	requestIDKey = "request_id"
	loggerKey    = "logger"
)

// LoggingMiddleware 요청 단위 로거를 컨텍스트에 심고 완료 시 결과를 기록
// skipPaths 의 경로는 완료 로그를 남기지 않음 (헬스체크 등)
func LoggingMiddleware(skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()

		// 클라이언트가 보낸 요청 ID가 있으면 그대로 사용
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		// 쿼리 문자열은 웹소켓 토큰을 포함할 수 있어 기록하지 않음
		log := logger.WithContext(map[string]interface{}{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"ip":         c.ClientIP(),
		})
		c.Set(loggerKey, log)

		c.Next()

		if _, ok := skip[c.FullPath()]; ok {
			return
		}

		status := c.Writer.Status()
		fields := map[string]interface{}{
			"status_code": status,
			"latency_ms":  time.Since(start).Milliseconds(),
			"body_size":   c.Writer.Size(),
			"user_agent":  c.Request.UserAgent(),
		}
		if userID, ok := GetUserID(c); ok {
			fields["user_id"] = userID
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		switch {
		case status >= 500:
			log.Error("Request completed", nil, fields)
		case status >= 400:
			log.Warn("Request completed", fields)
		default:
			log.Info("Request completed", fields)
		}
	}
}

// GetRequestID 현재 요청 ID
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// GetLoggerFromContext 요청 로거, 없으면 전역 로거
func GetLoggerFromContext(c *gin.Context) *logger.Logger {
	if l, ok := c.Value(loggerKey).(*logger.Logger); ok {
		return l
	}
	return logger.Get()
}
