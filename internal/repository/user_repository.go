package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/d60-Lab/travelfeed/internal/domain"
	"github.com/d60-Lab/travelfeed/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.UserSummary, error)
	FeaturedIDs(ctx context.Context) ([]string, error)
	// Search 按用户名或昵称前缀匹配，不区分大小写
	Search(ctx context.Context, query string, limit, offset int) ([]domain.UserSummary, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.UserSummary, error) {
	if len(ids) == 0 {
		return []domain.UserSummary{}, nil
	}
	var users []model.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	// 保持入参顺序
	out := make([]domain.UserSummary, 0, len(users))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, toSummary(u))
		}
	}
	return out, nil
}

func (r *userRepository) FeaturedIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("is_featured = ?", true).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *userRepository) Search(ctx context.Context, query string, limit, offset int) ([]domain.UserSummary, error) {
	out := []domain.UserSummary{}
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return out, nil
	}
	pattern := escapeLike(strings.ToLower(query)) + "%"

	var users []model.User
	if err := r.db.WithContext(ctx).
		Where(`LOWER(username) LIKE ? ESCAPE '\' OR LOWER(display_name) LIKE ? ESCAPE '\'`, pattern, pattern).
		Order("username").Order("id").
		Limit(limit).Offset(offset).
		Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out = append(out, toSummary(u))
	}
	return out, nil
}

func toSummary(u model.User) domain.UserSummary {
	return domain.UserSummary{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarRef:   u.AvatarRef,
		IsFeatured:  u.IsFeatured,
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
