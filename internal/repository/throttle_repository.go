package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/travelfeed/internal/model"
)

// ThrottleRepository 通知冷却记录（只追加）
type ThrottleRepository interface {
	Latest(ctx context.Context, actorID, recipientID string) (*time.Time, error)
	Insert(ctx context.Context, actorID, recipientID string, sentAt time.Time) error
}

type throttleRepository struct {
	db *gorm.DB
}

func NewThrottleRepository(db *gorm.DB) ThrottleRepository { return &throttleRepository{db: db} }

func (r *throttleRepository) Latest(ctx context.Context, actorID, recipientID string) (*time.Time, error) {
	var rows []model.NotificationThrottle
	if err := r.db.WithContext(ctx).
		Where("actor_id = ? AND recipient_id = ?", actorID, recipientID).
		Order("sent_at DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	ts := rows[0].SentAt
	return &ts, nil
}

func (r *throttleRepository) Insert(ctx context.Context, actorID, recipientID string, sentAt time.Time) error {
	rec := &model.NotificationThrottle{
		ID:          uuid.New().String(),
		ActorID:     actorID,
		RecipientID: recipientID,
		SentAt:      sentAt,
	}
	return r.db.WithContext(ctx).Create(rec).Error
}
