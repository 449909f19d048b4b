package model

import (
	"time"
)

// User is created lazily on first subscribe and never deleted; rows left
// behind after the last unsubscribe are accepted.
type User struct {
	UserID    int64 `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time
}

// TableName returns the table name for User
func (User) TableName() string {
	return "users"
}

// Subscription links a user, a title, and the chat target that receives the
// weekly airing notification.
type Subscription struct {
	ID        uint  `gorm:"primaryKey"`
	UserID    int64 `gorm:"index;not null"`
	AnimeID   int   `gorm:"index;not null"`
	GroupID   int64 `gorm:"index;not null"`
	CreatedAt time.Time
}

// TableName returns the table name for Subscription
func (Subscription) TableName() string {
	return "subscriptions"
}
