package model

import "time"

// Asset is the minimal upload record the backfill walks; storage and
// thumbnails live elsewhere.
type Asset struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	WorkspaceID string `gorm:"type:varchar(36);index;not null"`
	CreatedBy   string `gorm:"type:varchar(36);index:idx_asset_creator"`
	Filename    string `gorm:"type:varchar(512)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Asset) TableName() string { return "assets" }

// BoardAsset places an asset on a board; an asset can sit on several
// boards at once.
type BoardAsset struct {
	ID      string `gorm:"primaryKey;type:varchar(36)"`
	BoardID string `gorm:"type:varchar(36);index:idx_boardasset_pair,unique;not null"`
	AssetID string `gorm:"type:varchar(36);index:idx_boardasset_asset;index:idx_boardasset_pair,unique;not null"`
	// idx_boardasset_pair = (board_id, asset_id)
	CreatedAt time.Time
}

func (BoardAsset) TableName() string { return "board_assets" }
