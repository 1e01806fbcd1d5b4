package model

import "time"

type Workspace struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Name      string `gorm:"type:varchar(200);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Workspace) TableName() string { return "workspaces" }

// Workspace roles.
const (
	RoleAdmin     = "ADMIN"
	RoleEditor    = "EDITOR"
	RoleCommenter = "COMMENTER"
)

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleEditor, RoleCommenter:
		return true
	}
	return false
}

// WorkspaceMember binds a user to a workspace with a single role.
type WorkspaceMember struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	WorkspaceID string `gorm:"type:varchar(36);index:idx_member_pair,unique;not null"`
	UserID      string `gorm:"type:varchar(36);index:idx_member_user;index:idx_member_pair,unique;not null"`
	Role        string `gorm:"type:varchar(20);not null"`
	JoinedAt    time.Time `gorm:"autoCreateTime"`
}

func (WorkspaceMember) TableName() string { return "workspace_members" }
