package model

import "time"

// Comment is kept to the fields the auto-follow backfill reads: who
// commented, where, and whether it was a reply. Exactly one of AssetID
// and BoardID is set.
type Comment struct {
	ID        string  `gorm:"primaryKey;type:varchar(36)"`
	AuthorID  string  `gorm:"type:varchar(36);index:idx_comment_author;not null"`
	AssetID   *string `gorm:"type:varchar(36);index"`
	BoardID   *string `gorm:"type:varchar(36);index"`
	ParentID  *string `gorm:"type:varchar(36);index"`
	Text      string  `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index"`
}

func (Comment) TableName() string { return "comments" }

func (c *Comment) IsReply() bool { return c.ParentID != nil }
