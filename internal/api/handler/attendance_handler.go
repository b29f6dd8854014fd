package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"maces/backend/internal/dto"
	"maces/backend/internal/service"
	pkgerrors "maces/backend/pkg/errors"
	"maces/backend/pkg/response"
)

// AttendanceHandler 签到与积分提交 HTTP 处理器
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
	submissionSvc service.SubmissionService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService, submissionSvc service.SubmissionService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc, submissionSvc: submissionSvc}
}

// List 查询签到记录
// GET /attendance?host_park_id=&date=&event_calendar_detail_id=&submitted=
func (h *AttendanceHandler) List(c *gin.Context) {
	if _, ok := MustGetSession(c); !ok {
		return
	}

	var q dto.AttendanceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "invalid query", err.Error())
		return
	}

	records, err := h.attendanceSvc.List(c.Request.Context(), &q)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, records)
}

// Record 为当前玩家签到
// POST /attendance
func (h *AttendanceHandler) Record(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.RecordAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "invalid request", err.Error())
		return
	}

	if _, err := h.attendanceSvc.Record(c.Request.Context(), sess, &req); err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.Created(c, "Attendance recorded successfully")
}

// Submit 批量提交某分会某日的签到积分
// POST /submit_attendance
func (h *AttendanceHandler) Submit(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.SubmitAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "invalid request", err.Error())
		return
	}

	result, err := h.submissionSvc.SubmitBatch(c.Request.Context(), sess, req.Date, req.HostParkID, req.CreditData.ToModel())
	if err != nil {
		if errors.Is(err, pkgerrors.ErrPersistence) && result != nil {
			response.ErrorWithDetails(c, http.StatusInternalServerError, 14003,
				"attendance was credited but could not be saved", err.Error())
			return
		}
		h.handleAttendanceError(c, err)
		return
	}

	switch {
	case service.AllConfigurationFailures(result):
		response.ErrorWithDetails(c, http.StatusBadRequest, 14001,
			"credit table is missing a tier", result.ErroredRecords[0].Reason)
	case len(result.ErroredRecords) > 0:
		response.MultiStatus(c, 14002, "some records could not be submitted", result)
	default:
		response.OKWithMessage(c, "attendance submitted", result)
	}
}

func (h *AttendanceHandler) handleAttendanceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pkgerrors.ErrValidation):
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "invalid request", err.Error())
	case errors.Is(err, service.ErrAlreadyRecorded):
		response.BadRequest(c, 13001, "You have already submitted attendance for this event")
	case errors.Is(err, pkgerrors.ErrPersistence):
		response.ErrorWithDetails(c, http.StatusBadRequest, 13002, "attendance store error", err.Error())
	default:
		if !handleUpstreamError(c, err) {
			response.InternalError(c)
		}
	}
}
