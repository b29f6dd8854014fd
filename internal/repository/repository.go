package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Attendance AttendanceRepository
}

// NewRepository 创建 Repository 聚合
// attendanceTable 为签到文档所在表名
func NewRepository(db *gorm.DB, attendanceTable string) *Repository {
	return &Repository{
		Attendance: NewAttendanceRepo(NewDocumentStore(db), attendanceTable),
	}
}
