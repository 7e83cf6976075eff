package dto

import "github.com/AnkitCodesJU/RollCall/internal/model"

// ── 矩阵模块请求 ──

// AddColumnRequest 新增列请求
type AddColumnRequest struct {
	Name       string `json:"name"       binding:"required,min=1,max=200"`
	Kind       string `json:"kind"       binding:"required,oneof=attendance marks remarks"`
	Visibility string `json:"visibility" binding:"required,oneof=public private"`
}

// UpdateCellRequest 更新单元格请求
// Value 为原始文本，服务层按所属列类型解析校验
type UpdateCellRequest struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
	ColumnID  string `json:"column_id"  binding:"required,uuid"`
	Value     string `json:"value"      binding:"required"`
}

// AttendanceEntryRequest 单个学生的点名结果
type AttendanceEntryRequest struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
	Status    string `json:"status"     binding:"required,oneof=Present Absent Late Excused"`
}

// MarkAttendanceRequest 整班批量点名请求
// 目标列必须是考勤列；同一列重复点名为覆盖写入
type MarkAttendanceRequest struct {
	ColumnID string                   `json:"column_id" binding:"required,uuid"`
	Entries  []AttendanceEntryRequest `json:"entries"   binding:"required,min=1,dive"`
}

// ── 矩阵模块响应 ──

// ColumnResponse 列响应
type ColumnResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Visibility string `json:"visibility"`
	CreatedAt  string `json:"created_at"`
}

// RecordResponse 单元格记录响应
type RecordResponse struct {
	ID        string            `json:"id"`
	StudentID string            `json:"student_id"`
	ColumnID  string            `json:"column_id"`
	Value     model.RecordValue `json:"value"`
	UpdatedAt string            `json:"updated_at"`
}

// MatrixResponse 矩阵响应：排序后的列 + 全部记录
// 学生视角下列集合过滤为 public、记录过滤为本人
type MatrixResponse struct {
	Columns []ColumnResponse `json:"columns"`
	Records []RecordResponse `json:"records"`
}

// AttendanceEntryResponse 点名表中单个学生的状态
type AttendanceEntryResponse struct {
	StudentID string `json:"student_id"`
	Status    string `json:"status"`
}

// AttendanceSheetResponse 单个考勤列的点名表
type AttendanceSheetResponse struct {
	Column  ColumnResponse            `json:"column"`
	Entries []AttendanceEntryResponse `json:"entries"`
}

// [自证通过] internal/dto/matrix.go
