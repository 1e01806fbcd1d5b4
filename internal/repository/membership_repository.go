package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/cropstech/crops-backend/internal/model"
)

var ErrNotAMember = errors.New("user is not a workspace member")

// MembershipRepository is the workspace membership/role lookup.
type MembershipRepository interface {
	RoleOf(ctx context.Context, userID, workspaceID string) (string, error)
	ListByUser(ctx context.Context, userID string) ([]*model.WorkspaceMember, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]*model.WorkspaceMember, error)
}

type membershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) RoleOf(ctx context.Context, userID, workspaceID string) (string, error) {
	var m model.WorkspaceMember
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND workspace_id = ?", userID, workspaceID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotAMember
	}
	if err != nil {
		return "", err
	}
	return m.Role, nil
}

func (r *membershipRepository) ListByUser(ctx context.Context, userID string) ([]*model.WorkspaceMember, error) {
	var res []*model.WorkspaceMember
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&res).Error
	return res, err
}

func (r *membershipRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*model.WorkspaceMember, error) {
	var res []*model.WorkspaceMember
	err := r.db.WithContext(ctx).Where("workspace_id = ?", workspaceID).Find(&res).Error
	return res, err
}
