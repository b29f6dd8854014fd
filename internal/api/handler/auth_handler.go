package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"maces/backend/config"
	"maces/backend/internal/dto"
	"maces/backend/internal/service"
	"maces/backend/pkg/response"
)

const defaultSessionCookie = "maces_session"

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
	cookie  config.CookieConfig
}

// NewAuthHandler 创建 AuthHandler
// cookieCfg 为 nil 时使用默认 Cookie 名且不启用 Secure
func NewAuthHandler(authSvc service.AuthService, cookieCfg *config.CookieConfig) *AuthHandler {
	h := &AuthHandler{authSvc: authSvc}
	if cookieCfg != nil {
		h.cookie = *cookieCfg
	}
	if h.cookie.Name == "" {
		h.cookie.Name = defaultSessionCookie
	}
	return h
}

// Login 用户登录，凭据由上游校验
// POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "invalid request", err.Error())
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, 11001, "Invalid username or password")
			return
		}
		if handleUpstreamError(c, err) {
			return
		}
		response.InternalError(c)
		return
	}

	h.setSessionCookie(c, result.SessionToken, result.ExpiresIn)
	response.OKWithMessage(c, "login success", result)
}

// Logout 登出：吊销会话并清除 Cookie
// POST /logout
func (h *AuthHandler) Logout(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), sess); err != nil {
		response.InternalError(c)
		return
	}

	h.setSessionCookie(c, "", -1)
	response.OKMessage(c, "logout success")
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(parseSameSite(h.cookie.SameSite))
	c.SetCookie(h.cookie.Name, value, maxAge, "/", h.cookie.Domain, h.cookie.Secure, true)
}

func parseSameSite(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
