package model

import "time"

// ── 文档字段路径（点号分隔，指向 JSON 嵌套属性）──

const (
	FieldDate                  = "date"
	FieldHostParkID            = "host_park_id"
	FieldEventCalendarDetailID = "event_calendar_detail_id"
	FieldPlayerID              = "player.id"
	FieldSubmitted             = "submitted"
)

// Player 上游玩家信息快照（只读引用数据）
type Player struct {
	ID         int    `json:"id"`
	Persona    string `json:"persona"`
	KingdomID  int    `json:"kingdom_id"`
	HomeParkID int    `json:"home_park_id"`
}

// AttendanceRecord 一名玩家在某日、某主办分会、某活动的签到记录
// 身份：(date, host_park_id, event_calendar_detail_id, player.id)
type AttendanceRecord struct {
	Date                  string     `json:"date"` // 活动日期 YYYY-MM-DD，非录入日期
	HostParkID            int        `json:"host_park_id"`
	EventCalendarDetailID int        `json:"event_calendar_detail_id"` // 0 = 非日历活动
	Player                Player     `json:"player"`
	ClassID               int        `json:"class_id"`
	ClassName             string     `json:"class_name"`
	AttendingInPerson     bool       `json:"attending_in_person"`
	Submitted             bool       `json:"submitted"`
	EnteredAt             *time.Time `json:"entered_at,omitempty"`
	SubmittedAt           *time.Time `json:"submitted_at,omitempty"`
}

// IsLocal 玩家所属分会即主办分会
func (r *AttendanceRecord) IsLocal() bool {
	return r.Player.HomeParkID == r.HostParkID
}

// Tier 记录对应的积分档位
func (r *AttendanceRecord) Tier() CreditTier {
	return CreditTier{InPerson: r.AttendingInPerson, Local: r.IsLocal()}
}

// MarkSubmitted 标记为已提交；submitted 只能由 false 变为 true
func (r *AttendanceRecord) MarkSubmitted(at time.Time) {
	if r.Submitted {
		return
	}
	r.Submitted = true
	r.SubmittedAt = &at
}

// StoredAttendance 带存储身份的签到记录
type StoredAttendance struct {
	ID     string
	Record AttendanceRecord
}
