package handler

import (
	"github.com/gin-gonic/gin"

	"maces/backend/internal/model"
	"maces/backend/pkg/response"
)

// MustGetSession 从 Gin 上下文中提取会话。
// 会话中间件未注入时写入 401 响应并返回 false，调用方应直接 return。
func MustGetSession(c *gin.Context) (*model.Session, bool) {
	v, exists := c.Get("session")
	if !exists {
		response.Unauthorized(c, 10002, "unauthenticated")
		return nil, false
	}
	sess, ok := v.(*model.Session)
	if !ok || sess == nil || sess.Token == "" || sess.UserID <= 0 {
		response.Unauthorized(c, 10002, "unauthenticated")
		return nil, false
	}
	return sess, true
}
