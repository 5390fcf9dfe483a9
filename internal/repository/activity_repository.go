package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/travelfeed/internal/domain"
)

// ActivityRepository 读取城市评分与地点点评两条事件流，均按 created_at 倒序
type ActivityRepository interface {
	CityRatingEvents(ctx context.Context, actorIDs []string, limit, offset int) ([]domain.FeedItem, error)
	SpotReviewEvents(ctx context.Context, actorIDs []string, limit, offset int) ([]domain.FeedItem, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository { return &activityRepository{db: db} }

// ActorRow 事件作者列；必须导出，gorm 会跳过未导出的嵌入字段
type ActorRow struct {
	UserID      string
	DisplayName string
	AvatarRef   *string
	IsFeatured  bool
}

func (a ActorRow) actor() domain.Actor {
	return domain.Actor{ID: a.UserID, DisplayName: a.DisplayName, AvatarRef: a.AvatarRef, IsFeatured: a.IsFeatured}
}

type cityRatingRow struct {
	ActorRow
	ID             string
	Rating         float64
	CreatedAt      time.Time
	RegionID       string
	RegionName     string
	RegionImageRef *string
	CountryName    string
}

type spotReviewRow struct {
	ActorRow
	ID                string
	Rating            float64
	Comment           *string
	CommentImageRef   *string
	CreatedAt         time.Time
	SpotID            string
	SpotName          string
	SpotImageRef      *string
	Category          string
	LocationText      *string
	Description       *string
	SpotAvgRating     float64
	ParentRegionName  string
	ParentCountryName string
}

func (r *activityRepository) CityRatingEvents(ctx context.Context, actorIDs []string, limit, offset int) ([]domain.FeedItem, error) {
	out := []domain.FeedItem{}
	if len(actorIDs) == 0 || limit <= 0 {
		return out, nil
	}

	var rows []cityRatingRow
	err := r.db.WithContext(ctx).
		Table("city_ratings").
		Select(`city_ratings.id, city_ratings.user_id, city_ratings.rating, city_ratings.created_at,
			users.display_name, users.avatar_ref, users.is_featured,
			regions.id AS region_id, regions.name AS region_name, regions.image_ref AS region_image_ref,
			COALESCE(countries.name, '') AS country_name`).
		Joins("JOIN users ON users.id = city_ratings.user_id").
		Joins("JOIN regions ON regions.id = city_ratings.region_id").
		Joins("LEFT JOIN countries ON countries.id = regions.country_id").
		Where("city_ratings.user_id IN ?", actorIDs).
		Order("city_ratings.created_at DESC").Order("city_ratings.id DESC").
		Limit(limit).Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		out = append(out, domain.FeedItem{
			ID:        domain.ItemID(row.ID, domain.KindCityRating),
			Kind:      domain.KindCityRating,
			Actor:     row.actor(),
			CreatedAt: row.CreatedAt,
			Rating:    row.Rating,
			City: &domain.CityRatingEvent{
				RegionID:       row.RegionID,
				RegionName:     row.RegionName,
				RegionImageRef: row.RegionImageRef,
				CountryName:    row.CountryName,
			},
		})
	}
	return out, nil
}

func (r *activityRepository) SpotReviewEvents(ctx context.Context, actorIDs []string, limit, offset int) ([]domain.FeedItem, error) {
	out := []domain.FeedItem{}
	if len(actorIDs) == 0 || limit <= 0 {
		return out, nil
	}

	var rows []spotReviewRow
	err := r.db.WithContext(ctx).
		Table("spot_reviews").
		Select(`spot_reviews.id, spot_reviews.user_id, spot_reviews.rating, spot_reviews.comment,
			spot_reviews.comment_image_ref, spot_reviews.created_at,
			users.display_name, users.avatar_ref, users.is_featured,
			spots.id AS spot_id, spots.name AS spot_name, spots.image_ref AS spot_image_ref,
			spots.category, spots.location_text, spots.description, spots.avg_rating AS spot_avg_rating,
			COALESCE(regions.name, '') AS parent_region_name, COALESCE(countries.name, '') AS parent_country_name`).
		Joins("JOIN users ON users.id = spot_reviews.user_id").
		Joins("JOIN spots ON spots.id = spot_reviews.spot_id").
		Joins("LEFT JOIN regions ON regions.id = spots.region_id").
		Joins("LEFT JOIN countries ON countries.id = regions.country_id").
		Where("spot_reviews.user_id IN ?", actorIDs).
		Order("spot_reviews.created_at DESC").Order("spot_reviews.id DESC").
		Limit(limit).Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		out = append(out, domain.FeedItem{
			ID:        domain.ItemID(row.ID, domain.KindSpotReview),
			Kind:      domain.KindSpotReview,
			Actor:     row.actor(),
			CreatedAt: row.CreatedAt,
			Rating:    row.Rating,
			Spot: &domain.SpotReviewEvent{
				SpotID:            row.SpotID,
				SpotName:          row.SpotName,
				SpotImageRef:      row.SpotImageRef,
				CommentImageRef:   row.CommentImageRef,
				Category:          domain.ParseSpotCategory(row.Category),
				LocationText:      row.LocationText,
				Description:       row.Description,
				SpotAvgRating:     row.SpotAvgRating,
				ParentRegionName:  row.ParentRegionName,
				ParentCountryName: row.ParentCountryName,
				ReviewComment:     row.Comment,
			},
		})
	}
	return out, nil
}
