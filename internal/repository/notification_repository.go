package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/travelfeed/internal/model"
	"github.com/d60-Lab/travelfeed/internal/notify"
)

// NotificationRepository 通知落库，同时作为 dispatcher 的 sink
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Name() string { return "db" }

// Deliver 按 ID 幂等写入
func (r *NotificationRepository) Deliver(ctx context.Context, n notify.Notification) error {
	row := &model.Notification{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		ActorID:     n.ActorID,
		Kind:        string(n.Kind),
		CreatedAt:   n.CreatedAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, offset, limit int) ([]*model.Notification, error) {
	var res []*model.Notification
	err := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}
