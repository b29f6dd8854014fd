package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"maces/backend/internal/model"
	"maces/backend/pkg/jwt"
	"maces/backend/pkg/redis"
	"maces/backend/pkg/response"
)

// SessionAuth 会话认证中间件
// 依次从会话 Cookie、Authorization: Bearer <token> 读取会话 Token，
// 校验通过后向上下文注入 *model.Session（键 "session"）
// rdb 为 nil 时不检查黑名单；Redis 出错时降级放行
func SessionAuth(jwtMgr *jwt.Manager, rdb *redis.Client, cookieName string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c, cookieName)
		if token == "" {
			response.Unauthorized(c, 10002, "unauthenticated")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(token)
		if err != nil {
			response.Unauthorized(c, 10002, "session invalid or expired")
			c.Abort()
			return
		}

		if rdb != nil && claims.ID != "" {
			revoked, err := rdb.IsBlacklisted(c.Request.Context(), claims.ID)
			if err != nil {
				logger.Warn("检查会话黑名单失败，降级放行", zap.Error(err))
			} else if revoked {
				response.Unauthorized(c, 10002, "session revoked")
				c.Abort()
				return
			}
		}

		var expiresAt time.Time
		if claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}
		c.Set("session", &model.Session{
			Token:     claims.OrkToken,
			UserID:    claims.UserID,
			SessionID: claims.ID,
			ExpiresAt: expiresAt,
		})

		c.Next()
	}
}

func sessionToken(c *gin.Context, cookieName string) string {
	if v, err := c.Cookie(cookieName); err == nil && v != "" {
		return v
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
