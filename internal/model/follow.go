package model

import "time"

// Follow sources distinguish user-chosen follows from system-inferred ones.
const (
	FollowSourceManual = "manual"
	FollowSourceAuto   = "auto"
)

// Follow is a user's subscription to a board's activity. Only active
// follows exist as rows; removal always goes through ExplicitUnfollow.
type Follow struct {
	ID      string `gorm:"primaryKey;type:varchar(36)"`
	UserID  string `gorm:"type:varchar(36);index:idx_follow_user;index:idx_follow_pair,unique;not null"`
	BoardID string `gorm:"type:varchar(36);not null;index:idx_follow_board;index:idx_follow_pair,unique"`
	// idx_follow_pair = (user_id, board_id)
	Source    string `gorm:"type:varchar(8);not null;default:manual"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Follow) TableName() string { return "board_followers" }

// ExplicitUnfollow records a deliberate unfollow so the auto-follow
// engine never resurrects the pair. Mutually exclusive with Follow.
type ExplicitUnfollow struct {
	ID      string `gorm:"primaryKey;type:varchar(36)"`
	UserID  string `gorm:"type:varchar(36);index:idx_unfollow_pair,unique;not null"`
	BoardID string `gorm:"type:varchar(36);not null;index:idx_unfollow_pair,unique"`
	// idx_unfollow_pair = (user_id, board_id)
	UnfollowedAt time.Time `gorm:"autoCreateTime"`
}

func (ExplicitUnfollow) TableName() string { return "board_explicit_unfollows" }
