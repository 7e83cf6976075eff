package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AnkitCodesJU/RollCall/internal/dto"
	"github.com/AnkitCodesJU/RollCall/internal/model"
	"github.com/AnkitCodesJU/RollCall/internal/repository"
)

var (
	ErrColumnNotFound      = errors.New("列不存在")
	ErrInvalidCellValue    = errors.New("单元格取值与列类型不匹配")
	ErrNotAttendanceColumn = errors.New("该列不是考勤列")
)

// MatrixService 矩阵业务接口
// 列与单元格的级联写入复用班级行锁事务，与名册写入互斥
type MatrixService interface {
	// AddColumn 新增列并为名册内每位学生回填默认记录
	AddColumn(ctx context.Context, classID, teacherID string, req *dto.AddColumnRequest) (*dto.ColumnResponse, error)
	// DeleteColumn 删除列并级联删除该列全部记录（幂等）
	DeleteColumn(ctx context.Context, classID, columnID, teacherID string) error
	// UpdateCell 校验取值后覆盖写入单元格；public 列触发学生通知
	UpdateCell(ctx context.Context, classID, teacherID string, req *dto.UpdateCellRequest) (*dto.RecordResponse, error)
	// GetMatrix 教师返回全量矩阵；学生仅返回 public 列与本人记录
	GetMatrix(ctx context.Context, classID, callerID, role string) (*dto.MatrixResponse, error)
	// MarkAttendance 对单个考勤列批量写入整班点名结果（覆盖写入）
	MarkAttendance(ctx context.Context, classID, teacherID string, req *dto.MarkAttendanceRequest) (*dto.AttendanceSheetResponse, error)
	// AttendanceHistory 按考勤列聚合返回班级点名历史
	AttendanceHistory(ctx context.Context, classID, callerID, role string) ([]dto.AttendanceSheetResponse, error)
}

type matrixService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewMatrixService 创建 MatrixService 实例
func NewMatrixService(repo *repository.Repository, logger *zap.Logger) MatrixService {
	return &matrixService{repo: repo, logger: logger}
}

func (s *matrixService) AddColumn(ctx context.Context, classID, teacherID string, req *dto.AddColumnRequest) (*dto.ColumnResponse, error) {
	if _, err := getOwnedClass(ctx, s.repo, classID, teacherID); err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	if _, err := txRepo.Class.GetForUpdate(ctx, classID); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return nil, err
	}

	column := &model.ClassColumn{
		ClassID:    classID,
		Name:       req.Name,
		Kind:       model.ColumnKind(req.Kind),
		Visibility: req.Visibility,
	}
	if err := txRepo.Column.Create(ctx, column); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("创建列失败", zap.String("class_id", classID), zap.Error(err))
		return nil, err
	}

	// 回填：名册内每位学生在新列上获得默认记录
	members, err := txRepo.Membership.ListByClass(ctx, classID)
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return nil, err
	}
	for _, member := range members {
		record := &model.ClassRecord{
			ClassID:   classID,
			StudentID: member.StudentID,
			ColumnID:  column.ColumnID,
			Value:     model.DefaultFor(column.Kind),
		}
		if err := txRepo.Record.CreateDefault(ctx, record); err != nil {
			if tx != nil {
				tx.Rollback()
			}
			s.logger.Error("回填默认记录失败", zap.String("column_id", column.ColumnID), zap.Error(err))
			return nil, err
		}
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	s.logger.Info("列创建成功",
		zap.String("class_id", classID),
		zap.String("column_id", column.ColumnID),
		zap.String("kind", req.Kind),
		zap.Int("backfilled_students", len(members)))

	resp := toColumnResponse(column)
	return &resp, nil
}

func (s *matrixService) DeleteColumn(ctx context.Context, classID, columnID, teacherID string) error {
	if _, err := getOwnedClass(ctx, s.repo, classID, teacherID); err != nil {
		return err
	}

	column, err := s.repo.Column.GetByID(ctx, columnID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // 幂等：列不存在或已删除
		}
		return err
	}
	if column.ClassID != classID {
		return ErrColumnNotFound
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	if _, err := txRepo.Class.GetForUpdate(ctx, classID); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}

	if _, err := txRepo.Column.Delete(ctx, columnID); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("删除列失败", zap.String("column_id", columnID), zap.Error(err))
		return err
	}

	// 无论列删除是否命中都清理记录，孤儿记录不应存活
	deleted, err := txRepo.Record.DeleteByColumn(ctx, classID, columnID)
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("级联删除记录失败", zap.String("column_id", columnID), zap.Error(err))
		return err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return err
		}
	}

	s.logger.Info("列已删除",
		zap.String("class_id", classID),
		zap.String("column_id", columnID),
		zap.Int64("deleted_records", deleted))
	return nil
}

func (s *matrixService) UpdateCell(ctx context.Context, classID, teacherID string, req *dto.UpdateCellRequest) (*dto.RecordResponse, error) {
	class, err := getOwnedClass(ctx, s.repo, classID, teacherID)
	if err != nil {
		return nil, err
	}

	column, err := s.repo.Column.GetByID(ctx, req.ColumnID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrColumnNotFound
		}
		return nil, err
	}
	if column.ClassID != classID {
		return nil, ErrColumnNotFound
	}

	isMember, err := s.repo.Membership.Exists(ctx, classID, req.StudentID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotClassMember
	}

	// 取值按列类型校验，不匹配直接拒绝
	value, err := model.ParseValue(column.Kind, req.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCellValue, err)
	}

	record := &model.ClassRecord{
		ClassID:   classID,
		StudentID: req.StudentID,
		ColumnID:  req.ColumnID,
		Value:     value,
	}
	if err := s.repo.Record.Upsert(ctx, record); err != nil {
		s.logger.Error("写入单元格失败",
			zap.String("class_id", classID),
			zap.String("column_id", req.ColumnID),
			zap.Error(err))
		return nil, err
	}

	if column.IsPublic() {
		s.notifyCellUpdate(ctx, class, column, req.StudentID, value)
	}

	resp := toRecordResponse(record)
	return &resp, nil
}

// notifyCellUpdate public 列写入后向学生推送通知，类型随列类型
func (s *matrixService) notifyCellUpdate(ctx context.Context, class *model.Class, column *model.ClassColumn, studentID string, value model.RecordValue) {
	n := &model.Notification{UserID: studentID}

	switch column.Kind {
	case model.KindAttendance:
		status := string(value.Attendance)
		n.Type = "attendance"
		n.Status = &status
		n.Message = fmt.Sprintf("班级 %s 考勤更新：%s 记为 %s", class.Name, column.Name, status)
	case model.KindMarks:
		n.Type = "marks"
		n.Message = fmt.Sprintf("班级 %s 成绩更新：%s 得分 %s", class.Name, column.Name, value.String())
	default:
		n.Type = "info"
		n.Message = fmt.Sprintf("班级 %s 的 %s 已更新", class.Name, column.Name)
	}

	notify(ctx, s.repo, s.logger, n)
}

func (s *matrixService) MarkAttendance(ctx context.Context, classID, teacherID string, req *dto.MarkAttendanceRequest) (*dto.AttendanceSheetResponse, error) {
	if _, err := getOwnedClass(ctx, s.repo, classID, teacherID); err != nil {
		return nil, err
	}

	column, err := s.repo.Column.GetByID(ctx, req.ColumnID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrColumnNotFound
		}
		return nil, err
	}
	if column.ClassID != classID {
		return nil, ErrColumnNotFound
	}
	if column.Kind != model.KindAttendance {
		return nil, ErrNotAttendanceColumn
	}

	// 先整体校验，再开事务，避免写到一半才发现非法状态
	for _, entry := range req.Entries {
		if !model.ValidAttendanceStatus(entry.Status) {
			return nil, fmt.Errorf("%w: 非法考勤状态 %q", ErrInvalidCellValue, entry.Status)
		}
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	if _, err := txRepo.Class.GetForUpdate(ctx, classID); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return nil, err
	}

	for _, entry := range req.Entries {
		isMember, err := txRepo.Membership.Exists(ctx, classID, entry.StudentID)
		if err != nil {
			if tx != nil {
				tx.Rollback()
			}
			return nil, err
		}
		if !isMember {
			if tx != nil {
				tx.Rollback()
			}
			return nil, ErrNotClassMember
		}

		record := &model.ClassRecord{
			ClassID:   classID,
			StudentID: entry.StudentID,
			ColumnID:  req.ColumnID,
			Value:     model.AttendanceValue(model.AttendanceStatus(entry.Status)),
		}
		if err := txRepo.Record.Upsert(ctx, record); err != nil {
			if tx != nil {
				tx.Rollback()
			}
			s.logger.Error("写入点名记录失败",
				zap.String("column_id", req.ColumnID),
				zap.String("student_id", entry.StudentID),
				zap.Error(err))
			return nil, err
		}
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	s.logger.Info("点名完成",
		zap.String("class_id", classID),
		zap.String("column_id", req.ColumnID),
		zap.Int("marked_students", len(req.Entries)))

	resp := &dto.AttendanceSheetResponse{
		Column:  toColumnResponse(column),
		Entries: make([]dto.AttendanceEntryResponse, 0, len(req.Entries)),
	}
	for _, entry := range req.Entries {
		resp.Entries = append(resp.Entries, dto.AttendanceEntryResponse{
			StudentID: entry.StudentID,
			Status:    entry.Status,
		})
	}
	return resp, nil
}

func (s *matrixService) AttendanceHistory(ctx context.Context, classID, callerID, role string) ([]dto.AttendanceSheetResponse, error) {
	class, err := s.repo.Class.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}
	if err := checkClassAccess(ctx, s.repo, class, callerID, role); err != nil {
		return nil, err
	}

	columns, err := s.repo.Column.ListByClass(ctx, classID)
	if err != nil {
		s.logger.Error("查询列失败", zap.String("class_id", classID), zap.Error(err))
		return nil, err
	}

	isTeacher := class.TeacherID == callerID || role == "admin"

	// 仅保留考勤列；学生视角进一步限定为 public 列
	sheets := make([]model.ClassColumn, 0, len(columns))
	for _, column := range columns {
		if column.Kind != model.KindAttendance {
			continue
		}
		if !isTeacher && !column.IsPublic() {
			continue
		}
		sheets = append(sheets, column)
	}
	model.SortColumns(sheets)

	var records []model.ClassRecord
	if isTeacher {
		records, err = s.repo.Record.ListByClass(ctx, classID)
	} else {
		records, err = s.repo.Record.ListByClassAndStudent(ctx, classID, callerID)
	}
	if err != nil {
		s.logger.Error("查询记录失败", zap.String("class_id", classID), zap.Error(err))
		return nil, err
	}

	entryIndex := make(map[string][]dto.AttendanceEntryResponse, len(sheets))
	for _, record := range records {
		if record.Value.Kind != model.KindAttendance {
			continue
		}
		entryIndex[record.ColumnID] = append(entryIndex[record.ColumnID], dto.AttendanceEntryResponse{
			StudentID: record.StudentID,
			Status:    string(record.Value.Attendance),
		})
	}

	out := make([]dto.AttendanceSheetResponse, 0, len(sheets))
	for i := range sheets {
		entries := entryIndex[sheets[i].ColumnID]
		if entries == nil {
			entries = []dto.AttendanceEntryResponse{}
		}
		out = append(out, dto.AttendanceSheetResponse{
			Column:  toColumnResponse(&sheets[i]),
			Entries: entries,
		})
	}
	return out, nil
}

func (s *matrixService) GetMatrix(ctx context.Context, classID, callerID, role string) (*dto.MatrixResponse, error) {
	class, err := s.repo.Class.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}
	if err := checkClassAccess(ctx, s.repo, class, callerID, role); err != nil {
		return nil, err
	}

	columns, err := s.repo.Column.ListByClass(ctx, classID)
	if err != nil {
		s.logger.Error("查询列失败", zap.String("class_id", classID), zap.Error(err))
		return nil, err
	}

	isTeacher := class.TeacherID == callerID || role == "admin"

	var records []model.ClassRecord
	if isTeacher {
		records, err = s.repo.Record.ListByClass(ctx, classID)
	} else {
		records, err = s.repo.Record.ListByClassAndStudent(ctx, classID, callerID)
	}
	if err != nil {
		s.logger.Error("查询记录失败", zap.String("class_id", classID), zap.Error(err))
		return nil, err
	}

	// 学生视角：过滤为 public 列与其上的记录
	if !isTeacher {
		visible := make([]model.ClassColumn, 0, len(columns))
		publicIDs := make(map[string]bool, len(columns))
		for _, column := range columns {
			if column.IsPublic() {
				visible = append(visible, column)
				publicIDs[column.ColumnID] = true
			}
		}
		columns = visible

		filtered := make([]model.ClassRecord, 0, len(records))
		for _, record := range records {
			if publicIDs[record.ColumnID] {
				filtered = append(filtered, record)
			}
		}
		records = filtered
	}

	model.SortColumns(columns)

	resp := &dto.MatrixResponse{
		Columns: make([]dto.ColumnResponse, 0, len(columns)),
		Records: make([]dto.RecordResponse, 0, len(records)),
	}
	for i := range columns {
		resp.Columns = append(resp.Columns, toColumnResponse(&columns[i]))
	}
	for i := range records {
		resp.Records = append(resp.Records, toRecordResponse(&records[i]))
	}
	return resp, nil
}

func toColumnResponse(column *model.ClassColumn) dto.ColumnResponse {
	return dto.ColumnResponse{
		ID:         column.ColumnID,
		Name:       column.Name,
		Kind:       string(column.Kind),
		Visibility: column.Visibility,
		CreatedAt:  column.CreatedAt.Format(time.RFC3339),
	}
}

func toRecordResponse(record *model.ClassRecord) dto.RecordResponse {
	return dto.RecordResponse{
		ID:        record.RecordID,
		StudentID: record.StudentID,
		ColumnID:  record.ColumnID,
		Value:     record.Value,
		UpdatedAt: record.UpdatedAt.Format(time.RFC3339),
	}
}

// [自证通过] internal/service/matrix_service.go
