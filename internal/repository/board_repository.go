package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/cropstech/crops-backend/internal/model"
)

var ErrBoardNotFound = errors.New("board not found")

// BoardRepository is the board tree lookup used for audience bubbling
// and role-based auto-follow.
type BoardRepository interface {
	Get(ctx context.Context, boardID string) (*model.Board, error)
	// AncestorsOf walks the parent chain, nearest ancestor first.
	AncestorsOf(ctx context.Context, boardID string) ([]string, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]*model.Board, error)
	ListRootsByWorkspace(ctx context.Context, workspaceID string) ([]*model.Board, error)
	// BoardIDsOfAsset returns every board the asset is placed on.
	BoardIDsOfAsset(ctx context.Context, assetID string) ([]string, error)
}

type boardRepository struct {
	db *gorm.DB
}

func NewBoardRepository(db *gorm.DB) BoardRepository { return &boardRepository{db: db} }

func (r *boardRepository) Get(ctx context.Context, boardID string) (*model.Board, error) {
	var b model.Board
	err := r.db.WithContext(ctx).Where("id = ?", boardID).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBoardNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *boardRepository) AncestorsOf(ctx context.Context, boardID string) ([]string, error) {
	var ancestors []string
	cur, err := r.Get(ctx, boardID)
	if err != nil {
		return nil, err
	}
	for cur.ParentID != nil {
		parent, err := r.Get(ctx, *cur.ParentID)
		if err != nil {
			return nil, fmt.Errorf("broken parent chain at %s: %w", *cur.ParentID, err)
		}
		ancestors = append(ancestors, parent.ID)
		cur = parent
	}
	return ancestors, nil
}

func (r *boardRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*model.Board, error) {
	var res []*model.Board
	err := r.db.WithContext(ctx).Where("workspace_id = ?", workspaceID).Find(&res).Error
	return res, err
}

func (r *boardRepository) ListRootsByWorkspace(ctx context.Context, workspaceID string) ([]*model.Board, error) {
	var res []*model.Board
	err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND parent_id IS NULL", workspaceID).
		Find(&res).Error
	return res, err
}

func (r *boardRepository) BoardIDsOfAsset(ctx context.Context, assetID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.BoardAsset{}).
		Where("asset_id = ?", assetID).
		Pluck("board_id", &ids).Error
	return ids, err
}
