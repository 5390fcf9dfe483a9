package model

import "time"

// Vote 每个 (voter, target) 至多一条
type Vote struct {
	ID       string `gorm:"primaryKey;type:varchar(36)"`
	VoterID  string `gorm:"type:varchar(36);not null;uniqueIndex:ux_vote_pair"`
	TargetID string `gorm:"type:varchar(80);not null;uniqueIndex:ux_vote_pair;index:idx_vote_target"`
	// up, down
	Type      string `gorm:"type:varchar(8);not null"`
	CreatedAt time.Time
}

func (Vote) TableName() string { return "votes" }
