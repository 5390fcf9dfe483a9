package domain

// UserSummary is the people-search read model.
type UserSummary struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	AvatarRef   *string `json:"avatar_ref,omitempty"`
	IsFeatured  bool    `json:"is_featured"`
}

// NotificationKind names a notification type. Only new_follower is produced today.
type NotificationKind string

const NotifyNewFollower NotificationKind = "new_follower"
