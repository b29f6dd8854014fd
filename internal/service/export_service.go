package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"maces/backend/internal/model"
	"maces/backend/internal/repository"
	pkgerrors "maces/backend/pkg/errors"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoRecords    = errors.New("no attendance recorded for this event")
	ErrExportGenerateFail = errors.New("failed to generate export file")
)

const calendarProductID = "-//maces//attendance//EN"

// ExportService 导出业务接口
//
// 导出内容以字节返回，由 Handler 层设置响应头后写出：
//   - ExportParkDay：某分会某日的签到表 (.xlsx)
//   - ExportPlayerCalendar：当前玩家的全部签到 (.ics)，每条记录一个全天事件
type ExportService interface {
	ExportParkDay(ctx context.Context, date string, hostParkID int) (*bytes.Buffer, string, error)
	ExportPlayerCalendar(ctx context.Context, sess *model.Session) ([]byte, string, error)
}

type exportService struct {
	repo   repository.AttendanceRepository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo.Attendance, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportParkDay — 签到表导出为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "Attendance"，第 1 行标题，第 2 行表头
//   - 列：Persona | Player ID | Kingdom ID | Home Park | Class | Mode | Local | Event | Submitted
//   - 行顺序与存储返回顺序一致（按录入时间）

var parkDayHeaders = []string{
	"Persona", "Player ID", "Kingdom ID", "Home Park", "Class", "Mode", "Local", "Event", "Submitted",
}

func (s *exportService) ExportParkDay(ctx context.Context, date string, hostParkID int) (*bytes.Buffer, string, error) {
	stored, err := s.repo.List(ctx, repository.AttendanceFilter{Date: date, HostParkID: hostParkID})
	if err != nil {
		s.logger.Error("查询签到记录失败", zap.Error(err))
		return nil, "", fmt.Errorf("%w: %v", pkgerrors.ErrPersistence, err)
	}
	if len(stored) == 0 {
		return nil, "", ErrExportNoRecords
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Attendance"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 24)
	f.SetColWidth(sheetName, "B", "D", 12)
	f.SetColWidth(sheetName, "E", "E", 18)
	f.SetColWidth(sheetName, "F", "I", 11)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	lastCol, _ := excelize.ColumnNumberToName(len(parkDayHeaders))
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("Park %d attendance, %s", hostParkID, date))
	f.MergeCell(sheetName, "A1", lastCol+"1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	for i, h := range parkDayHeaders {
		c, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(sheetName, c, h)
	}
	f.SetCellStyle(sheetName, "A2", lastCol+"2", headerStyle)

	// 数据行
	for i, st := range stored {
		rec := st.Record
		row := []interface{}{
			rec.Player.Persona,
			rec.Player.ID,
			rec.Player.KingdomID,
			rec.Player.HomeParkID,
			rec.ClassName,
			attendanceMode(rec.AttendingInPerson),
			yesNo(rec.IsLocal()),
			rec.EventCalendarDetailID,
			yesNo(rec.Submitted),
		}
		start, _ := excelize.CoordinatesToCellName(1, i+3)
		if err := f.SetSheetRow(sheetName, start, &row); err != nil {
			s.logger.Error("写入签到行失败", zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("attendance_%d_%s.xlsx", hostParkID, date)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportPlayerCalendar — 当前玩家签到导出为 iCalendar
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportPlayerCalendar(ctx context.Context, sess *model.Session) ([]byte, string, error) {
	playerID := sess.UserID
	stored, err := s.repo.List(ctx, repository.AttendanceFilter{PlayerID: &playerID})
	if err != nil {
		s.logger.Error("查询玩家签到记录失败", zap.Int("player_id", playerID), zap.Error(err))
		return nil, "", fmt.Errorf("%w: %v", pkgerrors.ErrPersistence, err)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName("Attendance")

	now := time.Now().UTC()
	for _, st := range stored {
		rec := st.Record
		day, err := time.Parse(time.DateOnly, rec.Date)
		if err != nil {
			s.logger.Warn("跳过日期无效的签到记录", zap.String("record_id", st.ID), zap.String("date", rec.Date))
			continue
		}

		evt := cal.AddEvent(st.ID + "@maces")
		evt.SetDtStampTime(now)
		evt.SetAllDayStartAt(day)
		evt.SetAllDayEndAt(day.AddDate(0, 0, 1))
		evt.SetSummary(fmt.Sprintf("%s (%s)", rec.ClassName, attendanceMode(rec.AttendingInPerson)))
		evt.SetLocation("Park " + strconv.Itoa(rec.HostParkID))
		evt.SetDescription(calendarDescription(&rec))
	}

	filename := fmt.Sprintf("attendance_%d.ics", playerID)
	return []byte(cal.Serialize()), filename, nil
}

func calendarDescription(rec *model.AttendanceRecord) string {
	desc := "Class: " + rec.ClassName
	if rec.EventCalendarDetailID != 0 {
		desc += "\nEvent: " + strconv.Itoa(rec.EventCalendarDetailID)
	}
	if rec.Submitted {
		desc += "\nCredits submitted"
	} else {
		desc += "\nCredits pending"
	}
	return desc
}

func attendanceMode(inPerson bool) string {
	if inPerson {
		return "In person"
	}
	return "Online"
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
