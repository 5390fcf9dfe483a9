package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/travelfeed/internal/domain"
	"github.com/d60-Lab/travelfeed/internal/model"
)

type VoteRepository interface {
	Insert(ctx context.Context, voterID, targetID string, t domain.VoteType) error
	Delete(ctx context.Context, voterID, targetID string) error
	Replace(ctx context.Context, voterID, targetID string, t domain.VoteType) error
	Summaries(ctx context.Context, voterID string, targetIDs []string) (map[string]domain.VoteSummary, error)
}

type voteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) VoteRepository { return &voteRepository{db: db} }

// Insert 唯一键冲突映射为 ErrConflictingVote
func (r *voteRepository) Insert(ctx context.Context, voterID, targetID string, t domain.VoteType) error {
	v := &model.Vote{ID: uuid.New().String(), VoterID: voterID, TargetID: targetID, Type: string(t)}
	err := r.db.WithContext(ctx).Create(v).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrConflictingVote
	}
	return err
}

// Delete 不存在时也视为成功
func (r *voteRepository) Delete(ctx context.Context, voterID, targetID string) error {
	return r.db.WithContext(ctx).
		Where("voter_id = ? AND target_id = ?", voterID, targetID).
		Delete(&model.Vote{}).Error
}

// Replace 删除旧票并写入新票，同一事务内完成
func (r *voteRepository) Replace(ctx context.Context, voterID, targetID string, t domain.VoteType) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &voteRepository{db: tx}
		if err := txRepo.Delete(ctx, voterID, targetID); err != nil {
			return err
		}
		return txRepo.Insert(ctx, voterID, targetID, t)
	})
}

type voteCountRow struct {
	TargetID string
	Type     string
	Cnt      int
}

// Summaries 每个 targetID 都有一项；voterID 为空时 Mine 恒为 none
func (r *voteRepository) Summaries(ctx context.Context, voterID string, targetIDs []string) (map[string]domain.VoteSummary, error) {
	out := make(map[string]domain.VoteSummary, len(targetIDs))
	if len(targetIDs) == 0 {
		return out, nil
	}
	for _, id := range targetIDs {
		out[id] = domain.VoteSummary{Mine: domain.VoteNone}
	}

	var counts []voteCountRow
	if err := r.db.WithContext(ctx).
		Model(&model.Vote{}).
		Select("target_id, type, COUNT(*) AS cnt").
		Where("target_id IN ?", targetIDs).
		Group("target_id, type").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	for _, c := range counts {
		s := out[c.TargetID]
		switch domain.VoteType(c.Type) {
		case domain.VoteUp:
			s.Up = c.Cnt
		case domain.VoteDown:
			s.Down = c.Cnt
		}
		out[c.TargetID] = s
	}

	if voterID == "" {
		return out, nil
	}
	var mine []model.Vote
	if err := r.db.WithContext(ctx).
		Where("voter_id = ? AND target_id IN ?", voterID, targetIDs).
		Find(&mine).Error; err != nil {
		return nil, err
	}
	for _, v := range mine {
		s := out[v.TargetID]
		s.Mine = domain.StateOf(domain.VoteType(v.Type))
		out[v.TargetID] = s
	}
	return out, nil
}
