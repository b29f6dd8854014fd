package dto

import "maces/backend/internal/model"

// ── 签到模块 DTO ──

// AttendanceQuery 签到记录查询参数
type AttendanceQuery struct {
	HostParkID            int    `form:"host_park_id"             binding:"required,min=1"`
	Date                  string `form:"date"                     binding:"required,datetime=2006-01-02"`
	EventCalendarDetailID *int   `form:"event_calendar_detail_id" binding:"omitempty,min=0"`
	Submitted             *bool  `form:"submitted"`
}

// RecordAttendanceRequest 签到请求；玩家信息由会话注入
type RecordAttendanceRequest struct {
	HostParkID            int    `json:"host_park_id"             binding:"required,min=1"`
	Date                  string `json:"date"                     binding:"required,datetime=2006-01-02"`
	EventCalendarDetailID int    `json:"event_calendar_detail_id" binding:"min=0"`
	ClassID               int    `json:"class_id"                 binding:"required,min=1"`
	ClassName             string `json:"class_name"               binding:"required,max=100"`
	AttendingInPerson     *bool  `json:"attending_in_person"      binding:"required"`
}

// CreditData 四档积分表，四个字段均必填
type CreditData struct {
	InPersonLocal   *int `json:"inPersonLocal"   binding:"required,min=0"`
	InPersonOutPark *int `json:"inPersonOutPark" binding:"required,min=0"`
	OnlineLocal     *int `json:"onlineLocal"     binding:"required,min=0"`
	OnlineOutPark   *int `json:"onlineOutPark"   binding:"required,min=0"`
}

// ToModel 转为积分表
func (d CreditData) ToModel() model.CreditTable {
	return model.CreditTable{
		InPersonLocal:   d.InPersonLocal,
		InPersonOutPark: d.InPersonOutPark,
		OnlineLocal:     d.OnlineLocal,
		OnlineOutPark:   d.OnlineOutPark,
	}
}

// SubmitAttendanceRequest 批量提交请求
type SubmitAttendanceRequest struct {
	Date       string     `json:"date"         binding:"required,datetime=2006-01-02"`
	HostParkID int        `json:"host_park_id" binding:"required,min=1"`
	CreditData CreditData `json:"credit_data"`
}

// ErroredRecord 提交失败的单条记录
type ErroredRecord struct {
	RecordID string `json:"record_id"`
	PlayerID int    `json:"player_id"`
	Persona  string `json:"persona"`
	Reason   string `json:"reason"`
	Err      error  `json:"-"`
}

// SubmitResult 批量提交结果
type SubmitResult struct {
	Submitted      int             `json:"submitted"`
	Skipped        int             `json:"skipped"` // 此前已提交
	ErroredRecords []ErroredRecord `json:"errored_records"`
}

// ParkDayQuery 某分会某日（导出签到表）
type ParkDayQuery struct {
	HostParkID int    `form:"host_park_id" binding:"required,min=1"`
	Date       string `form:"date"         binding:"required,datetime=2006-01-02"`
}
