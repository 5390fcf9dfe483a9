package domain

import (
	"strings"
	"time"
)

// ItemKind discriminates the two feed event variants.
type ItemKind string

const (
	KindCityRating ItemKind = "city"
	KindSpotReview ItemKind = "spot"
)

// SpotCategory enumerates spot types.
type SpotCategory string

const (
	CategoryRestaurant SpotCategory = "restaurant"
	CategoryCafe       SpotCategory = "cafe"
	CategoryBar        SpotCategory = "bar"
	CategoryMuseum     SpotCategory = "museum"
	CategoryPark       SpotCategory = "park"
	CategoryLandmark   SpotCategory = "landmark"
	CategoryShopping   SpotCategory = "shopping"
	CategoryNightlife  SpotCategory = "nightlife"
	CategoryOther      SpotCategory = "other"
)

// ParseSpotCategory maps unknown values to CategoryOther.
func ParseSpotCategory(s string) SpotCategory {
	switch c := SpotCategory(strings.ToLower(s)); c {
	case CategoryRestaurant, CategoryCafe, CategoryBar, CategoryMuseum, CategoryPark,
		CategoryLandmark, CategoryShopping, CategoryNightlife:
		return c
	default:
		return CategoryOther
	}
}

// ItemID derives a feed id unique across both variants from a row id.
func ItemID(rowID string, kind ItemKind) string {
	return rowID + "_" + string(kind)
}

// Actor is the author block shared by both variants.
type Actor struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	AvatarRef   *string `json:"avatar_ref,omitempty"`
	IsFeatured  bool    `json:"is_featured"`
}

type CityRatingEvent struct {
	RegionID       string  `json:"region_id"`
	RegionName     string  `json:"region_name"`
	RegionImageRef *string `json:"region_image_ref,omitempty"`
	CountryName    string  `json:"country_name"`
}

type SpotReviewEvent struct {
	SpotID            string       `json:"spot_id"`
	SpotName          string       `json:"spot_name"`
	SpotImageRef      *string      `json:"spot_image_ref,omitempty"`
	CommentImageRef   *string      `json:"comment_image_ref,omitempty"`
	Category          SpotCategory `json:"category"`
	LocationText      *string      `json:"location_text,omitempty"`
	Description       *string      `json:"description,omitempty"`
	SpotAvgRating     float64      `json:"spot_avg_rating"`
	ParentRegionName  string       `json:"parent_region_name"`
	ParentCountryName string       `json:"parent_country_name"`
	ReviewComment     *string      `json:"review_comment,omitempty"`
}

// FeedItem is one displayable event. Exactly one of City and Spot is set, matching Kind.
type FeedItem struct {
	ID        string    `json:"id"`
	Kind      ItemKind  `json:"kind"`
	Actor     Actor     `json:"actor"`
	CreatedAt time.Time `json:"created_at"`
	Rating    float64   `json:"rating"`

	City *CityRatingEvent `json:"city,omitempty"`
	Spot *SpotReviewEvent `json:"spot,omitempty"`
}

// ActorID is shorthand for Actor.ID.
func (f FeedItem) ActorID() string { return f.Actor.ID }
