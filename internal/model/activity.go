package model

import "time"

// CityRating 用户对城市的评分
type CityRating struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `gorm:"type:varchar(36);index:idx_city_rating_user_created;not null"`
	RegionID  string    `gorm:"type:varchar(36);index;not null"`
	Rating    float64   `gorm:"not null"`
	CreatedAt time.Time `gorm:"index:idx_city_rating_user_created"`
}

func (CityRating) TableName() string { return "city_ratings" }

// SpotReview 用户对地点的点评
type SpotReview struct {
	ID              string    `gorm:"primaryKey;type:varchar(36)"`
	UserID          string    `gorm:"type:varchar(36);index:idx_spot_review_user_created;not null"`
	SpotID          string    `gorm:"type:varchar(36);index;not null"`
	Rating          float64   `gorm:"not null"`
	Comment         *string   `gorm:"type:text"`
	CommentImageRef *string   `gorm:"type:varchar(255)"`
	CreatedAt       time.Time `gorm:"index:idx_spot_review_user_created"`
}

func (SpotReview) TableName() string { return "spot_reviews" }
