package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/AnkitCodesJU/RollCall/internal/model"
	"github.com/AnkitCodesJU/RollCall/internal/repository"
	pkgerrors "github.com/AnkitCodesJU/RollCall/pkg/errors"
)

// newTestRepo 构造全 mock 的 Repository 聚合
// BeginTx 在无底层连接时返回 nil 事务，WithTx(nil) 返回自身，
// 因此事务型服务方法可直接在 mock 上运行
func newTestRepo() *repository.Repository {
	return &repository.Repository{
		User:         newMockUserRepo(),
		Class:        newMockClassRepo(),
		Membership:   newMockMembershipRepo(),
		JoinRequest:  newMockJoinRequestRepo(),
		Column:       newMockColumnRepo(),
		Record:       newMockRecordRepo(),
		Notification: newMockNotificationRepo(),
	}
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = fmt.Sprintf("user-%d", len(m.users)+1)
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

// ── Mock ClassRepository ──

type mockClassRepo struct {
	classes   map[string]*model.Class
	idCounter int
}

func newMockClassRepo() *mockClassRepo {
	return &mockClassRepo{classes: make(map[string]*model.Class)}
}

func (m *mockClassRepo) Create(_ context.Context, class *model.Class) error {
	if class.ClassID == "" {
		m.idCounter++
		class.ClassID = fmt.Sprintf("class-%d", m.idCounter)
	}
	if class.Version == 0 {
		class.Version = 1
	}
	class.CreatedAt = time.Now()
	m.classes[class.ClassID] = class
	return nil
}

func (m *mockClassRepo) GetByID(_ context.Context, id string) (*model.Class, error) {
	if c, ok := m.classes[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClassRepo) GetByCode(_ context.Context, code string) (*model.Class, error) {
	for _, c := range m.classes {
		if c.Code == code {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClassRepo) GetForUpdate(_ context.Context, id string) (*model.Class, error) {
	if c, ok := m.classes[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClassRepo) Update(_ context.Context, class *model.Class) error {
	stored, ok := m.classes[class.ClassID]
	if !ok || stored.Version != class.Version {
		return pkgerrors.ErrOptimisticLock
	}
	class.Version++
	m.classes[class.ClassID] = class
	return nil
}

func (m *mockClassRepo) ListByTeacher(_ context.Context, teacherID string) ([]model.Class, error) {
	var result []model.Class
	for _, c := range m.classes {
		if c.TeacherID == teacherID {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockClassRepo) ListByStudent(_ context.Context, _ string) ([]model.Class, error) {
	// 联表查询由集成测试覆盖
	return nil, nil
}

func (m *mockClassRepo) CreateScheduleSlots(_ context.Context, slots []model.ClassScheduleSlot) error {
	for i := range slots {
		if slots[i].SlotID == "" {
			slots[i].SlotID = fmt.Sprintf("slot-%d", i+1)
		}
	}
	return nil
}

// ── Mock MembershipRepository ──

type mockMembershipRepo struct {
	members   map[string]*model.ClassMembership // "classID:studentID"
	idCounter int
}

func newMockMembershipRepo() *mockMembershipRepo {
	return &mockMembershipRepo{members: make(map[string]*model.ClassMembership)}
}

func (m *mockMembershipRepo) Create(_ context.Context, mem *model.ClassMembership) error {
	key := mem.ClassID + ":" + mem.StudentID
	if _, ok := m.members[key]; ok {
		return gorm.ErrDuplicatedKey
	}
	if mem.MembershipID == "" {
		m.idCounter++
		mem.MembershipID = fmt.Sprintf("mem-%d", m.idCounter)
	}
	mem.CreatedAt = time.Now()
	m.members[key] = mem
	return nil
}

func (m *mockMembershipRepo) Get(_ context.Context, classID, studentID string) (*model.ClassMembership, error) {
	if mem, ok := m.members[classID+":"+studentID]; ok {
		return mem, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMembershipRepo) ListByClass(_ context.Context, classID string) ([]model.ClassMembership, error) {
	var result []model.ClassMembership
	for _, mem := range m.members {
		if mem.ClassID == classID {
			result = append(result, *mem)
		}
	}
	return result, nil
}

func (m *mockMembershipRepo) Delete(_ context.Context, classID, studentID string) (int64, error) {
	key := classID + ":" + studentID
	if _, ok := m.members[key]; !ok {
		return 0, nil
	}
	delete(m.members, key)
	return 1, nil
}

func (m *mockMembershipRepo) Exists(_ context.Context, classID, studentID string) (bool, error) {
	_, ok := m.members[classID+":"+studentID]
	return ok, nil
}

// ── Mock JoinRequestRepository ──

type mockJoinRequestRepo struct {
	requests  map[string]*model.JoinRequest // "classID:studentID"
	idCounter int
}

func newMockJoinRequestRepo() *mockJoinRequestRepo {
	return &mockJoinRequestRepo{requests: make(map[string]*model.JoinRequest)}
}

func (m *mockJoinRequestRepo) Create(_ context.Context, req *model.JoinRequest) error {
	key := req.ClassID + ":" + req.StudentID
	if _, ok := m.requests[key]; ok {
		return gorm.ErrDuplicatedKey
	}
	if req.RequestID == "" {
		m.idCounter++
		req.RequestID = fmt.Sprintf("req-%d", m.idCounter)
	}
	req.CreatedAt = time.Now()
	m.requests[key] = req
	return nil
}

func (m *mockJoinRequestRepo) Get(_ context.Context, classID, studentID string) (*model.JoinRequest, error) {
	if req, ok := m.requests[classID+":"+studentID]; ok {
		return req, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockJoinRequestRepo) ListByClass(_ context.Context, classID string) ([]model.JoinRequest, error) {
	var result []model.JoinRequest
	for _, req := range m.requests {
		if req.ClassID == classID {
			result = append(result, *req)
		}
	}
	return result, nil
}

func (m *mockJoinRequestRepo) Delete(_ context.Context, classID, studentID string) (int64, error) {
	key := classID + ":" + studentID
	if _, ok := m.requests[key]; !ok {
		return 0, nil
	}
	delete(m.requests, key)
	return 1, nil
}

func (m *mockJoinRequestRepo) Exists(_ context.Context, classID, studentID string) (bool, error) {
	_, ok := m.requests[classID+":"+studentID]
	return ok, nil
}

// ── Mock ColumnRepository ──

type mockColumnRepo struct {
	columns   map[string]*model.ClassColumn
	idCounter int
}

func newMockColumnRepo() *mockColumnRepo {
	return &mockColumnRepo{columns: make(map[string]*model.ClassColumn)}
}

func (m *mockColumnRepo) Create(_ context.Context, column *model.ClassColumn) error {
	if column.ColumnID == "" {
		m.idCounter++
		column.ColumnID = fmt.Sprintf("col-%d", m.idCounter)
	}
	column.CreatedAt = time.Now()
	m.columns[column.ColumnID] = column
	return nil
}

func (m *mockColumnRepo) GetByID(_ context.Context, id string) (*model.ClassColumn, error) {
	if c, ok := m.columns[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockColumnRepo) ListByClass(_ context.Context, classID string) ([]model.ClassColumn, error) {
	var result []model.ClassColumn
	for _, c := range m.columns {
		if c.ClassID == classID {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockColumnRepo) Delete(_ context.Context, columnID string) (int64, error) {
	if _, ok := m.columns[columnID]; !ok {
		return 0, nil
	}
	delete(m.columns, columnID)
	return 1, nil
}

// ── Mock RecordRepository ──

// mockRecordRepo 以 "classID:studentID:columnID" 为键模拟复合唯一索引
// 互斥锁使并发回填路径可直接在单元测试中验证
type mockRecordRepo struct {
	mu        sync.Mutex
	records   map[string]*model.ClassRecord
	idCounter int
}

func newMockRecordRepo() *mockRecordRepo {
	return &mockRecordRepo{records: make(map[string]*model.ClassRecord)}
}

func recordKey(classID, studentID, columnID string) string {
	return classID + ":" + studentID + ":" + columnID
}

func (m *mockRecordRepo) Upsert(_ context.Context, record *model.ClassRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := recordKey(record.ClassID, record.StudentID, record.ColumnID)
	if existing, ok := m.records[key]; ok {
		existing.Value = record.Value
		existing.UpdatedAt = time.Now()
		*record = *existing
		return nil
	}
	m.idCounter++
	record.RecordID = fmt.Sprintf("rec-%d", m.idCounter)
	record.CreatedAt = time.Now()
	record.UpdatedAt = time.Now()
	m.records[key] = record
	return nil
}

func (m *mockRecordRepo) CreateDefault(_ context.Context, record *model.ClassRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := recordKey(record.ClassID, record.StudentID, record.ColumnID)
	if _, ok := m.records[key]; ok {
		return nil // 冲突即保留原值
	}
	m.idCounter++
	record.RecordID = fmt.Sprintf("rec-%d", m.idCounter)
	record.CreatedAt = time.Now()
	record.UpdatedAt = time.Now()
	m.records[key] = record
	return nil
}

func (m *mockRecordRepo) Get(_ context.Context, classID, studentID, columnID string) (*model.ClassRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.records[recordKey(classID, studentID, columnID)]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRecordRepo) ListByClass(_ context.Context, classID string) ([]model.ClassRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []model.ClassRecord
	for _, r := range m.records {
		if r.ClassID == classID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockRecordRepo) ListByClassAndStudent(_ context.Context, classID, studentID string) ([]model.ClassRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []model.ClassRecord
	for _, r := range m.records {
		if r.ClassID == classID && r.StudentID == studentID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockRecordRepo) DeleteByStudent(_ context.Context, classID, studentID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for key, r := range m.records {
		if r.ClassID == classID && r.StudentID == studentID {
			delete(m.records, key)
			deleted++
		}
	}
	return deleted, nil
}

func (m *mockRecordRepo) DeleteByColumn(_ context.Context, classID, columnID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for key, r := range m.records {
		if r.ClassID == classID && r.ColumnID == columnID {
			delete(m.records, key)
			deleted++
		}
	}
	return deleted, nil
}

func (m *mockRecordRepo) CountByClass(_ context.Context, classID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for _, r := range m.records {
		if r.ClassID == classID {
			count++
		}
	}
	return count, nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	notifications []model.Notification
	idCounter     int
	failCreate    bool // 模拟通知写入失败
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	if m.failCreate {
		return fmt.Errorf("notification store unavailable")
	}
	m.idCounter++
	n.NotificationID = fmt.Sprintf("notif-%d", m.idCounter)
	n.CreatedAt = time.Now()
	m.notifications = append(m.notifications, *n)
	return nil
}

func (m *mockNotificationRepo) GetByID(_ context.Context, id string) (*model.Notification, error) {
	for i, n := range m.notifications {
		if n.NotificationID == id {
			return &m.notifications[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, limit int) ([]model.Notification, error) {
	var result []model.Notification
	for i := len(m.notifications) - 1; i >= 0; i-- {
		if m.notifications[i].UserID == userID {
			result = append(result, m.notifications[i])
			if limit > 0 && len(result) >= limit {
				break
			}
		}
	}
	return result, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id string) error {
	for i, n := range m.notifications {
		if n.NotificationID == id {
			m.notifications[i].IsRead = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// countByUser 测试辅助：统计某用户收到的通知数
func (m *mockNotificationRepo) countByUser(userID string) int {
	count := 0
	for _, n := range m.notifications {
		if n.UserID == userID {
			count++
		}
	}
	return count
}
