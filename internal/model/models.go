package model

// All 返回需要迁移的全部模型
func All() []any {
	return []any{
		&User{}, &Follow{},
		&Country{}, &Region{}, &Spot{},
		&CityRating{}, &SpotReview{},
		&Vote{}, &Block{},
		&NotificationThrottle{}, &Notification{},
	}
}
