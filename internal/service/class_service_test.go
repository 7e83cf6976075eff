package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/AnkitCodesJU/RollCall/internal/dto"
	"github.com/AnkitCodesJU/RollCall/internal/model"
	"github.com/AnkitCodesJU/RollCall/internal/repository"
)

func newTestClassService(repo *repository.Repository, codeLength int) *classService {
	return &classService{
		repo:            repo,
		logger:          zap.NewNop(),
		codeLength:      codeLength,
		maxCodeAttempts: 2000,
	}
}

func seedTeacher(t *testing.T, repo *repository.Repository, id string) *model.User {
	t.Helper()
	user := &model.User{UserID: id, Name: "T " + id, Email: id + "@example.com", Role: "teacher"}
	if err := repo.User.Create(context.Background(), user); err != nil {
		t.Fatalf("创建教师失败: %v", err)
	}
	return user
}

func seedStudent(t *testing.T, repo *repository.Repository, id string) *model.User {
	t.Helper()
	user := &model.User{UserID: id, Name: "S " + id, Email: id + "@example.com", Role: "student"}
	if err := repo.User.Create(context.Background(), user); err != nil {
		t.Fatalf("创建学生失败: %v", err)
	}
	return user
}

func TestClassCreate_CodeFormat(t *testing.T) {
	repo := newTestRepo()
	seedTeacher(t, repo, "t1")
	svc := newTestClassService(repo, 6)

	resp, err := svc.Create(context.Background(), "t1", &dto.CreateClassRequest{Name: "CS101"})
	if err != nil {
		t.Fatalf("创建班级失败: %v", err)
	}

	if len(resp.Code) != 6 {
		t.Errorf("加入码长度期望 6，实际 %d", len(resp.Code))
	}
	for _, r := range resp.Code {
		if !strings.ContainsRune(codeAlphabet, r) {
			t.Errorf("加入码包含非法字符 %q", r)
		}
	}
}

func TestClassCreate_CodesUnique(t *testing.T) {
	repo := newTestRepo()
	seedTeacher(t, repo, "t1")

	// 2 位字符集 36 → 1296 种组合，1000 个班级把空间填到约 77%，
	// 撞码成为常态，依赖查重重试循环保证唯一
	svc := newTestClassService(repo, 2)

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		resp, err := svc.Create(context.Background(), "t1", &dto.CreateClassRequest{Name: "C"})
		if err != nil {
			t.Fatalf("第 %d 次创建失败: %v", i, err)
		}
		if seen[resp.Code] {
			t.Fatalf("加入码 %s 重复", resp.Code)
		}
		seen[resp.Code] = true
	}
}

func TestClassCreate_WithSchedule(t *testing.T) {
	repo := newTestRepo()
	seedTeacher(t, repo, "t1")
	svc := newTestClassService(repo, 6)

	resp, err := svc.Create(context.Background(), "t1", &dto.CreateClassRequest{
		Name: "CS101",
		Schedule: []dto.ScheduleSlotRequest{
			{Day: "Mon", StartTime: "09:00", EndTime: "10:00"},
			{Day: "Wed", StartTime: "11:00", EndTime: "12:00"},
		},
	})
	if err != nil {
		t.Fatalf("创建班级失败: %v", err)
	}
	if len(resp.Schedule) != 2 {
		t.Errorf("课表时段期望 2，实际 %d", len(resp.Schedule))
	}
}

func TestClassArchive(t *testing.T) {
	repo := newTestRepo()
	seedTeacher(t, repo, "t1")
	svc := newTestClassService(repo, 6)

	resp, err := svc.Create(context.Background(), "t1", &dto.CreateClassRequest{Name: "CS101"})
	if err != nil {
		t.Fatalf("创建班级失败: %v", err)
	}

	if err := svc.Archive(context.Background(), resp.ID, "t1"); err != nil {
		t.Fatalf("归档失败: %v", err)
	}
	class, err := repo.Class.GetByID(context.Background(), resp.ID)
	if err != nil || !class.IsArchived {
		t.Error("班级应处于归档状态")
	}

	// 重复归档幂等
	if err := svc.Archive(context.Background(), resp.ID, "t1"); err != nil {
		t.Errorf("重复归档应幂等成功: %v", err)
	}

	if err := svc.Unarchive(context.Background(), resp.ID, "t1"); err != nil {
		t.Fatalf("取消归档失败: %v", err)
	}
	class, _ = repo.Class.GetByID(context.Background(), resp.ID)
	if class.IsArchived {
		t.Error("班级应已取消归档")
	}
}

func TestClassArchive_NotTeacher(t *testing.T) {
	repo := newTestRepo()
	seedTeacher(t, repo, "t1")
	seedTeacher(t, repo, "t2")
	svc := newTestClassService(repo, 6)

	resp, err := svc.Create(context.Background(), "t1", &dto.CreateClassRequest{Name: "CS101"})
	if err != nil {
		t.Fatalf("创建班级失败: %v", err)
	}

	if err := svc.Archive(context.Background(), resp.ID, "t2"); !errors.Is(err, ErrNotClassTeacher) {
		t.Errorf("期望 ErrNotClassTeacher，实际 %v", err)
	}
}

func TestClassGet_AccessControl(t *testing.T) {
	repo := newTestRepo()
	seedTeacher(t, repo, "t1")
	seedStudent(t, repo, "s1")
	seedStudent(t, repo, "s2")
	svc := newTestClassService(repo, 6)

	resp, err := svc.Create(context.Background(), "t1", &dto.CreateClassRequest{Name: "CS101"})
	if err != nil {
		t.Fatalf("创建班级失败: %v", err)
	}

	_ = repo.Membership.Create(context.Background(), &model.ClassMembership{
		ClassID: resp.ID, StudentID: "s1",
	})

	if _, err := svc.Get(context.Background(), resp.ID, "s1", "student"); err != nil {
		t.Errorf("名册内学生应可查看班级: %v", err)
	}
	if _, err := svc.Get(context.Background(), resp.ID, "s2", "student"); !errors.Is(err, ErrNotClassMember) {
		t.Errorf("期望 ErrNotClassMember，实际 %v", err)
	}
	if _, err := svc.Get(context.Background(), "missing", "t1", "teacher"); !errors.Is(err, ErrClassNotFound) {
		t.Errorf("期望 ErrClassNotFound，实际 %v", err)
	}
}
