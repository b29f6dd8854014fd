package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"maces/backend/internal/dto"
	"maces/backend/internal/service"
	pkgerrors "maces/backend/pkg/errors"
	"maces/backend/pkg/response"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	icsContentType  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportParkDay 导出签到表
// GET /attendance/export?date=&host_park_id=
func (h *ExportHandler) ExportParkDay(c *gin.Context) {
	if _, ok := MustGetSession(c); !ok {
		return
	}

	var q dto.ParkDayQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "invalid query", err.Error())
		return
	}

	buf, filename, err := h.exportSvc.ExportParkDay(c.Request.Context(), q.Date, q.HostParkID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	setAttachment(c, filename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ExportCalendar 导出当前玩家的签到日历
// GET /attendance/calendar
func (h *ExportHandler) ExportCalendar(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	data, filename, err := h.exportSvc.ExportPlayerCalendar(c.Request.Context(), sess)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	setAttachment(c, filename)
	c.Data(http.StatusOK, icsContentType, data)
}

func setAttachment(c *gin.Context, filename string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoRecords):
		response.Error(c, http.StatusNotFound, 15001, "no attendance recorded for this event")
	case errors.Is(err, pkgerrors.ErrPersistence):
		response.ErrorWithDetails(c, http.StatusBadRequest, 13002, "attendance store error", err.Error())
	default:
		response.InternalError(c)
	}
}
