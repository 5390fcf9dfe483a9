package model

import "time"

type Country struct {
	ID   string `gorm:"primaryKey;type:varchar(36)"`
	Name string `gorm:"type:varchar(128);not null"`
}

func (Country) TableName() string { return "countries" }

// Region 城市/地区
type Region struct {
	ID        string  `gorm:"primaryKey;type:varchar(36)"`
	CountryID string  `gorm:"type:varchar(36);index;not null"`
	Name      string  `gorm:"type:varchar(128);not null"`
	ImageRef  *string `gorm:"type:varchar(255)"`
}

func (Region) TableName() string { return "regions" }

// Spot 地区内的具体地点
type Spot struct {
	ID           string  `gorm:"primaryKey;type:varchar(36)"`
	RegionID     string  `gorm:"type:varchar(36);index;not null"`
	Name         string  `gorm:"type:varchar(255);not null"`
	Category     string  `gorm:"type:varchar(32);not null"`
	LocationText *string `gorm:"type:varchar(255)"`
	Description  *string `gorm:"type:text"`
	ImageRef     *string `gorm:"type:varchar(255)"`
	AvgRating    float64 `gorm:"not null;default:0"`
	CreatedAt    time.Time
}

func (Spot) TableName() string { return "spots" }
