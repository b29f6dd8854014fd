package handler

import (
	"github.com/gin-gonic/gin"

	"maces/backend/internal/service"
	"maces/backend/pkg/response"
)

// ParkHandler 分会与职业 HTTP 处理器
type ParkHandler struct {
	parkSvc service.ParkService
}

// NewParkHandler 创建 ParkHandler
func NewParkHandler(parkSvc service.ParkService) *ParkHandler {
	return &ParkHandler{parkSvc: parkSvc}
}

// IsParkOfficer 当前用户是否为所属分会官员
// GET /is_park_officer
func (h *ParkHandler) IsParkOfficer(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	result, err := h.parkSvc.IsParkOfficer(c.Request.Context(), sess)
	if err != nil {
		if !handleUpstreamError(c, err) {
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// GetClasses 可选职业列表
// GET /get_classes
func (h *ParkHandler) GetClasses(c *gin.Context) {
	if _, ok := MustGetSession(c); !ok {
		return
	}

	classes, err := h.parkSvc.ListClasses(c.Request.Context())
	if err != nil {
		if !handleUpstreamError(c, err) {
			response.InternalError(c)
		}
		return
	}

	response.OK(c, classes)
}
