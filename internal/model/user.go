package model

import "time"

// User 用户（仅 feed 所需字段）
type User struct {
	ID          string  `gorm:"primaryKey;type:varchar(36)"`
	Username    string  `gorm:"type:varchar(64);uniqueIndex;not null"`
	DisplayName string  `gorm:"type:varchar(128);index:idx_user_display"`
	AvatarRef   *string `gorm:"type:varchar(255)"`
	Email       string  `gorm:"type:varchar(255);uniqueIndex;not null"`
	Password    string  `gorm:"type:varchar(255);not null"`
	// 推荐创作者，promoted 受众即全部 IsFeatured 用户
	IsFeatured bool `gorm:"index;not null;default:false"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (User) TableName() string { return "users" }
