package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"maces/backend/config"
	"maces/backend/internal/service"
	pkgerrors "maces/backend/pkg/errors"
	"maces/backend/pkg/response"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	Park       *ParkHandler
	Attendance *AttendanceHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, cookieCfg *config.CookieConfig) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth, cookieCfg),
		Park:       NewParkHandler(svc.Park),
		Attendance: NewAttendanceHandler(svc.Attendance, svc.Submission),
		Export:     NewExportHandler(svc.Export),
	}
}

// ── 上游错误映射 ──
// 传输与协议错误 → 503，凭据被拒 → 401，业务拒绝 → 503（附上游原因）

func handleUpstreamError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, pkgerrors.ErrTransport):
		response.ServiceUnavailable(c, 12001, "Error connecting to ork")
	case errors.Is(err, pkgerrors.ErrProtocol):
		response.ServiceUnavailable(c, 12002, "Unexpected response from ork, try again")
	case errors.Is(err, pkgerrors.ErrAuthentication):
		response.Unauthorized(c, 12004, "ork rejected the session credentials")
	case errors.Is(err, pkgerrors.ErrUpstreamRejection):
		response.ErrorWithDetails(c, http.StatusServiceUnavailable, 12003, "ork rejected the request", err.Error())
	default:
		return false
	}
	return true
}
