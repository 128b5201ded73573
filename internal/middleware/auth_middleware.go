package middleware

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kuotechnology-ui/kindworld-backend/internal/app/model"
	"github.com/kuotechnology-ui/kindworld-backend/internal/errors"
	"github.com/kuotechnology-ui/kindworld-backend/pkg/util"
)

// gin 컨텍스트에 저장되는 인증 정보 키
const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
	UserRoleKey  = "user_role"
)

var (
	errMalformedHeader = stderrors.New("malformed authorization header")
	errMissingToken    = stderrors.New("missing token")
)

// AuthMiddleware JWT 인증/인가 미들웨어
type AuthMiddleware struct {
	jwtSecret string
}

func NewAuthMiddleware(jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{jwtSecret: jwtSecret}
}

// bearerToken Authorization 헤더 또는 token 쿼리 파라미터(웹소켓)에서 토큰 추출
func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if token := c.Query("token"); token != "" {
			return token, nil
		}
		return "", errMissingToken
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != "Bearer" || token == "" || strings.Contains(token, " ") {
		return "", errMalformedHeader
	}
	return token, nil
}

// Authenticate 토큰 검증 후 사용자 정보를 컨텍스트에 저장 (필수 인증)
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)
		fields := map[string]interface{}{"path": c.Request.URL.Path}

		token, err := bearerToken(c)
		switch {
		case stderrors.Is(err, errMissingToken):
			log.Warn("Missing credentials", fields)
			errors.Unauthorized(c, "")
			c.Abort()
			return
		case err != nil:
			log.Warn("Invalid authorization header format", fields)
			errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "인증 형식이 올바르지 않습니다")
			c.Abort()
			return
		}

		claims, err := util.ValidateToken(token, m.jwtSecret)
		if err != nil {
			fields["error"] = err.Error()
			log.Warn("Token validation failed", fields)
			if stderrors.Is(err, util.ErrExpiredToken) {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenExpired, "로그인이 만료되었습니다")
			} else {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "유효하지 않은 인증 토큰입니다")
			}
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)
		c.Set(UserRoleKey, model.UserRole(claims.Role))
		c.Next()
	}
}

// RequireRole 허용된 역할 중 하나가 아니면 403
func (m *AuthMiddleware) RequireRole(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetUserRole(c)
		if !ok {
			errors.RespondWithError(c, http.StatusForbidden, errors.AuthzRoleNotFound, "권한 정보를 찾을 수 없습니다")
			c.Abort()
			return
		}

		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		userID, _ := GetUserID(c)
		GetLoggerFromContext(c).Warn("Insufficient permissions", map[string]interface{}{
			"user_id":        userID,
			"user_role":      role,
			"required_roles": roles,
			"path":           c.Request.URL.Path,
		})
		errors.Forbidden(c, "")
		c.Abort()
	}
}

// GetUserID 인증된 사용자 ID (없거나 비어 있으면 false)
func GetUserID(c *gin.Context) (string, bool) {
	id := c.GetString(UserIDKey)
	return id, id != ""
}

func GetUserEmail(c *gin.Context) (string, bool) {
	email := c.GetString(UserEmailKey)
	return email, email != ""
}

func GetUserRole(c *gin.Context) (model.UserRole, bool) {
	role, ok := c.Value(UserRoleKey).(model.UserRole)
	return role, ok && role != ""
}
