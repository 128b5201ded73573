package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse 표준 에러 응답 본문
// error 는 프론트엔드 메시지 매핑용 코드, fields 는 필드별 검증 메시지
type ErrorResponse struct {
	Error   string            `json:"error"`
	Kind    string            `json:"kind,omitempty"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// RespondWithError 코드와 메시지로 에러 응답
func RespondWithError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{Error: code, Message: message})
}

// Unauthorized 401, 메시지가 비면 기본 문구
func Unauthorized(c *gin.Context, message string) {
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, orDefault(message, "로그인이 필요합니다"))
}

// Forbidden 403, 메시지가 비면 기본 문구
func Forbidden(c *gin.Context, message string) {
	RespondWithError(c, http.StatusForbidden, AuthzForbidden, orDefault(message, "접근 권한이 없습니다"))
}

func BadRequest(c *gin.Context, code, message string) {
	RespondWithError(c, http.StatusBadRequest, code, message)
}

// RespondWithServiceError 서비스 에러를 분류에 맞는 HTTP 상태로 응답
func RespondWithServiceError(c *gin.Context, err error, op string) {
	info := ParseError(err, op)
	c.JSON(info.Status, ErrorResponse{
		Error:   info.Code,
		Kind:    string(info.Kind),
		Message: info.Message,
		Fields:  info.Fields,
	})
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
