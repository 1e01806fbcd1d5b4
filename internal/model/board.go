package model

import "time"

// Board is a hierarchical container of assets. ParentID nil means root
// board; the parent chain forms a tree per workspace.
type Board struct {
	ID          string  `gorm:"primaryKey;type:varchar(36)"`
	WorkspaceID string  `gorm:"type:varchar(36);index:idx_board_workspace;not null"`
	ParentID    *string `gorm:"type:varchar(36);index:idx_board_parent"`
	Name        string  `gorm:"type:varchar(200);not null"`
	CreatedBy   string  `gorm:"type:varchar(36)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Board) TableName() string { return "boards" }

func (b *Board) IsRoot() bool { return b.ParentID == nil }
