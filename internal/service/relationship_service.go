package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/travelfeed/internal/domain"
	"github.com/d60-Lab/travelfeed/internal/notify"
	"github.com/d60-Lab/travelfeed/internal/repository"
	"github.com/d60-Lab/travelfeed/pkg/clock"
	"github.com/d60-Lab/travelfeed/pkg/logger"
)

// NotifyGate 通知限流
type NotifyGate interface {
	TryNotify(ctx context.Context, actorID, recipientID string, kind domain.NotificationKind) (bool, error)
}

// NotifyQueue 异步投递队列
type NotifyQueue interface {
	Enqueue(n notify.Notification) bool
}

// RelationshipService 关系链服务
type RelationshipService interface {
	Follow(ctx context.Context, fromUserID, toUserID string) error
	Unfollow(ctx context.Context, fromUserID, toUserID string) error
	ListFollowing(ctx context.Context, userID string, page, pageSize int) ([]domain.UserSummary, error)
	ListFollowers(ctx context.Context, userID string, page, pageSize int) ([]domain.UserSummary, error)
}

type relationshipService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	gate       NotifyGate
	queue      NotifyQueue
	clock      clock.Clock
}

// NewRelationshipService gate 或 queue 为 nil 时不发通知
func NewRelationshipService(followRepo repository.FollowRepository, userRepo repository.UserRepository, gate NotifyGate, queue NotifyQueue, clk clock.Clock) RelationshipService {
	if clk == nil {
		clk = clock.Real()
	}
	return &relationshipService{followRepo: followRepo, userRepo: userRepo, gate: gate, queue: queue, clock: clk}
}

func (s *relationshipService) Follow(ctx context.Context, fromUserID, toUserID string) error {
	if fromUserID == "" {
		return domain.ErrNotAuthenticated
	}
	if fromUserID == toUserID {
		return domain.ErrFollowSelf
	}
	if _, err := s.userRepo.GetByID(ctx, toUserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return domain.WrapStore("get_user", err)
	}

	existed, err := s.followRepo.Exists(ctx, fromUserID, toUserID)
	if err != nil {
		return domain.WrapStore("follow_exists", err)
	}
	if err := s.followRepo.Create(ctx, fromUserID, toUserID); err != nil {
		return domain.WrapStore("create_follow", err)
	}
	if !existed {
		s.notifyNewFollower(ctx, fromUserID, toUserID)
	}
	return nil
}

// 通知失败不影响关注本身
func (s *relationshipService) notifyNewFollower(ctx context.Context, actorID, recipientID string) {
	if s.gate == nil || s.queue == nil {
		return
	}
	ok, err := s.gate.TryNotify(ctx, actorID, recipientID, domain.NotifyNewFollower)
	if err != nil {
		logger.Warn("notify throttle check failed",
			zap.String("actor", actorID), zap.String("recipient", recipientID), zap.Error(err))
		return
	}
	if !ok {
		logger.Debug("notification suppressed by cooldown",
			zap.String("actor", actorID), zap.String("recipient", recipientID))
		return
	}
	queued := s.queue.Enqueue(notify.Notification{
		ID:          uuid.New().String(),
		RecipientID: recipientID,
		ActorID:     actorID,
		Kind:        domain.NotifyNewFollower,
		CreatedAt:   s.clock.Now(),
	})
	if !queued {
		// 限流记录已写入，本次冷却期内不会再补发
		logger.Warn("new follower notification dropped, cooldown already started",
			zap.String("actor", actorID), zap.String("recipient", recipientID))
	}
}

func (s *relationshipService) Unfollow(ctx context.Context, fromUserID, toUserID string) error {
	if fromUserID == "" {
		return domain.ErrNotAuthenticated
	}
	if err := s.followRepo.Delete(ctx, fromUserID, toUserID); err != nil {
		return domain.WrapStore("delete_follow", err)
	}
	return nil
}

func (s *relationshipService) ListFollowing(ctx context.Context, userID string, page, pageSize int) ([]domain.UserSummary, error) {
	offset, pageSize := pageBounds(page, pageSize)
	items, err := s.followRepo.ListFollowings(ctx, userID, offset, pageSize)
	if err != nil {
		return nil, domain.WrapStore("list_followings", err)
	}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.FolloweeID
	}
	return s.summaries(ctx, ids)
}

func (s *relationshipService) ListFollowers(ctx context.Context, userID string, page, pageSize int) ([]domain.UserSummary, error) {
	offset, pageSize := pageBounds(page, pageSize)
	items, err := s.followRepo.ListFollowers(ctx, userID, offset, pageSize)
	if err != nil {
		return nil, domain.WrapStore("list_followers", err)
	}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.FollowerID
	}
	return s.summaries(ctx, ids)
}

func (s *relationshipService) summaries(ctx context.Context, ids []string) ([]domain.UserSummary, error) {
	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", domain.WrapStore("get_users", err))
	}
	return users, nil
}

func pageBounds(page, pageSize int) (offset, size int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return (page - 1) * pageSize, pageSize
}
