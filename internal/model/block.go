package model

import "time"

// Block 屏蔽关系（有向：BlockerID 屏蔽 BlockedID）
type Block struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	BlockerID string `gorm:"type:varchar(36);not null;index:idx_block_blocker;uniqueIndex:ux_block_pair"`
	BlockedID string `gorm:"type:varchar(36);not null;uniqueIndex:ux_block_pair"`
	CreatedAt time.Time
}

func (Block) TableName() string { return "blocks" }
