package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"maces/backend/internal/model"
)

// AttendanceFilter 签到记录查询条件，零值字段不参与过滤
type AttendanceFilter struct {
	Date                  string
	HostParkID            int
	EventCalendarDetailID *int
	PlayerID              *int
	Submitted             *bool
}

func (f AttendanceFilter) fields() map[string]interface{} {
	m := make(map[string]interface{})
	if f.Date != "" {
		m[model.FieldDate] = f.Date
	}
	if f.HostParkID != 0 {
		m[model.FieldHostParkID] = f.HostParkID
	}
	if f.EventCalendarDetailID != nil {
		m[model.FieldEventCalendarDetailID] = *f.EventCalendarDetailID
	}
	if f.PlayerID != nil {
		m[model.FieldPlayerID] = *f.PlayerID
	}
	if f.Submitted != nil {
		m[model.FieldSubmitted] = *f.Submitted
	}
	return m
}

// AttendanceRepository 签到记录数据访问接口
type AttendanceRepository interface {
	Create(ctx context.Context, rec *model.AttendanceRecord) (string, error)
	List(ctx context.Context, filter AttendanceFilter) ([]model.StoredAttendance, error)
	Update(ctx context.Context, id string, rec *model.AttendanceRecord) (bool, error)
	// MarkSubmitted 仅当存储中的记录仍为未提交时写回
	MarkSubmitted(ctx context.Context, id string, rec *model.AttendanceRecord) (bool, error)
}

// attendanceRepo 基于 DocumentStore 的 AttendanceRepository 实现
type attendanceRepo struct {
	store DocumentStore
	table string
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(store DocumentStore, table string) AttendanceRepository {
	return &attendanceRepo{store: store, table: table}
}

func (r *attendanceRepo) Create(ctx context.Context, rec *model.AttendanceRecord) (string, error) {
	return r.store.Insert(ctx, r.table, rec)
}

func (r *attendanceRepo) List(ctx context.Context, filter AttendanceFilter) ([]model.StoredAttendance, error) {
	docs, err := r.store.FindByFields(ctx, r.table, filter.fields())
	if err != nil {
		return nil, err
	}

	records := make([]model.StoredAttendance, 0, len(docs))
	for _, d := range docs {
		var rec model.AttendanceRecord
		if err := json.Unmarshal(d.Body, &rec); err != nil {
			return nil, fmt.Errorf("解析签到文档 %s 失败: %w", d.DocumentID, err)
		}
		records = append(records, model.StoredAttendance{ID: d.DocumentID, Record: rec})
	}
	return records, nil
}

func (r *attendanceRepo) Update(ctx context.Context, id string, rec *model.AttendanceRecord) (bool, error) {
	return r.store.Update(ctx, r.table, id, rec)
}

func (r *attendanceRepo) MarkSubmitted(ctx context.Context, id string, rec *model.AttendanceRecord) (bool, error) {
	return r.store.UpdateIf(ctx, r.table, id, rec, map[string]interface{}{
		model.FieldSubmitted: false,
	})
}
