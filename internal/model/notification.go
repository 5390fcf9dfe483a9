package model

import "time"

// NotificationThrottle 通知冷却记录，按 (actor, recipient) 取最新一条
type NotificationThrottle struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	ActorID     string    `gorm:"type:varchar(36);not null;index:idx_throttle_pair_sent"`
	RecipientID string    `gorm:"type:varchar(36);not null;index:idx_throttle_pair_sent"`
	SentAt      time.Time `gorm:"not null;index:idx_throttle_pair_sent"`
}

func (NotificationThrottle) TableName() string { return "notification_throttles" }

// Notification 已投递给接收者的通知
type Notification struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	RecipientID string `gorm:"type:varchar(36);not null;index:idx_notification_recipient"`
	ActorID     string `gorm:"type:varchar(36);not null"`
	Kind        string `gorm:"type:varchar(32);not null"`
	ReadAt      *time.Time
	CreatedAt   time.Time `gorm:"index:idx_notification_recipient"`
}

func (Notification) TableName() string { return "notifications" }
