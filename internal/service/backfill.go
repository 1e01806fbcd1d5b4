package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cropstech/crops-backend/internal/model"
	"github.com/cropstech/crops-backend/internal/repository"
	"github.com/cropstech/crops-backend/pkg/logger"
)

// BackfillOptions controls the offline maintenance runs. DryRun
// computes the change set without applying it; WorkspaceID limits the
// run to one workspace.
type BackfillOptions struct {
	DryRun      bool
	WorkspaceID string
}

// FollowChange is one (user, board) pair the backfill would create or
// created, with the activity that justified it.
type FollowChange struct {
	UserID  string `json:"user_id"`
	BoardID string `json:"board_id"`
	Reason  string `json:"reason"`
}

// BackfillReport summarises a maintenance run. Errors carry per-user
// failures; the run itself never aborts on them.
type BackfillReport struct {
	UsersProcessed int            `json:"users_processed"`
	Changes        []FollowChange `json:"changes,omitempty"`
	PrefsCreated   int            `json:"prefs_created,omitempty"`
	Errors         []string       `json:"errors,omitempty"`
}

// BackfillService hosts the two offline maintenance entry points:
// recomputing auto-follows from activity history and creating missing
// preference records. Both are idempotent: re-running against the same
// history and unfollow set yields the same end state.
type BackfillService struct {
	followRepo repository.FollowRepository
	boardRepo  repository.BoardRepository
	memberRepo repository.MembershipRepository
	prefRepo   repository.PreferenceRepository
	activity   repository.ActivityRepository
	engine     *AutoFollowEngine
}

func NewBackfillService(
	followRepo repository.FollowRepository,
	boardRepo repository.BoardRepository,
	memberRepo repository.MembershipRepository,
	prefRepo repository.PreferenceRepository,
	activity repository.ActivityRepository,
	engine *AutoFollowEngine,
) *BackfillService {
	return &BackfillService{
		followRepo: followRepo,
		boardRepo:  boardRepo,
		memberRepo: memberRepo,
		prefRepo:   prefRepo,
		activity:   activity,
		engine:     engine,
	}
}

// EnsurePreferences creates default preference records for every user
// missing one.
func (s *BackfillService) EnsurePreferences(ctx context.Context, opts BackfillOptions) (*BackfillReport, error) {
	userIDs, err := s.activity.ListUserIDs(ctx)
	if err != nil {
		return nil, err
	}
	report := &BackfillReport{}
	for _, userID := range userIDs {
		report.UsersProcessed++
		exists, err := s.prefRepo.Exists(ctx, userID)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("user %s: %v", userID, err))
			continue
		}
		if exists {
			continue
		}
		if opts.DryRun {
			report.PrefsCreated++
			continue
		}
		if _, err := s.prefRepo.Get(ctx, userID); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("user %s: %v", userID, err))
			continue
		}
		report.PrefsCreated++
	}
	return report, nil
}

// RecomputeAutoFollows re-derives the auto-follow set for every user
// from role assignments and activity history, honoring explicit
// unfollows.
func (s *BackfillService) RecomputeAutoFollows(ctx context.Context, opts BackfillOptions) (*BackfillReport, error) {
	userIDs, err := s.activity.ListUserIDs(ctx)
	if err != nil {
		return nil, err
	}
	report := &BackfillReport{}
	for _, userID := range userIDs {
		report.UsersProcessed++
		if err := s.recomputeUser(ctx, userID, opts, report); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("user %s: %v", userID, err))
		}
	}
	logger.Info("auto-follow backfill finished",
		zap.Int("users", report.UsersProcessed),
		zap.Int("changes", len(report.Changes)),
		zap.Int("errors", len(report.Errors)),
		zap.Bool("dry_run", opts.DryRun))
	return report, nil
}

func (s *BackfillService) recomputeUser(ctx context.Context, userID string, opts BackfillOptions, report *BackfillReport) error {
	// Role-based candidates.
	memberships, err := s.memberRepo.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, m := range memberships {
		if opts.WorkspaceID != "" && m.WorkspaceID != opts.WorkspaceID {
			continue
		}
		var boards []*model.Board
		if m.Role == model.RoleAdmin {
			boards, err = s.boardRepo.ListByWorkspace(ctx, m.WorkspaceID)
		} else {
			boards, err = s.boardRepo.ListRootsByWorkspace(ctx, m.WorkspaceID)
		}
		if err != nil {
			return err
		}
		for _, b := range boards {
			if err := s.applyPair(ctx, userID, b.ID, "role:"+m.Role, opts, report); err != nil {
				return err
			}
		}
	}

	// Activity-based candidates.
	assetIDs, err := s.activity.CommentedAssetIDs(ctx, userID)
	if err != nil {
		return err
	}
	for _, assetID := range assetIDs {
		if err := s.applyAssetBoards(ctx, userID, assetID, "commented on asset", opts, report); err != nil {
			return err
		}
	}

	boardIDs, err := s.activity.CommentedBoardIDs(ctx, userID)
	if err != nil {
		return err
	}
	for _, boardID := range boardIDs {
		if err := s.applyPair(ctx, userID, boardID, "commented on board", opts, report); err != nil {
			return err
		}
	}

	uploadedIDs, err := s.activity.UploadedAssetIDs(ctx, userID, opts.WorkspaceID)
	if err != nil {
		return err
	}
	for _, assetID := range uploadedIDs {
		if err := s.applyAssetBoards(ctx, userID, assetID, "uploaded asset", opts, report); err != nil {
			return err
		}
	}
	return nil
}

func (s *BackfillService) applyAssetBoards(ctx context.Context, userID, assetID, reason string, opts BackfillOptions, report *BackfillReport) error {
	boardIDs, err := s.boardRepo.BoardIDsOfAsset(ctx, assetID)
	if err != nil {
		return err
	}
	for _, boardID := range boardIDs {
		if err := s.applyPair(ctx, userID, boardID, reason, opts, report); err != nil {
			return err
		}
	}
	return nil
}

// applyPair runs the per-pair rule once: skip when explicitly
// unfollowed or already followed, otherwise follow with auto source
// (or just record the change in dry-run mode).
func (s *BackfillService) applyPair(ctx context.Context, userID, boardID, reason string, opts BackfillOptions, report *BackfillReport) error {
	if opts.WorkspaceID != "" {
		board, err := s.boardRepo.Get(ctx, boardID)
		if err != nil {
			return err
		}
		if board.WorkspaceID != opts.WorkspaceID {
			return nil
		}
	}

	if opts.DryRun {
		unfollowed, err := s.followRepo.IsExplicitlyUnfollowed(ctx, userID, boardID)
		if err != nil {
			return err
		}
		if unfollowed {
			return nil
		}
		followed, err := s.followRepo.IsFollowed(ctx, userID, boardID)
		if err != nil {
			return err
		}
		if followed {
			return nil
		}
		if !seen(report.Changes, userID, boardID) {
			report.Changes = append(report.Changes, FollowChange{UserID: userID, BoardID: boardID, Reason: reason})
		}
		return nil
	}

	created, err := s.followRepo.Follow(ctx, userID, boardID, model.FollowSourceAuto)
	if err != nil {
		return err
	}
	if created {
		s.engine.audience.Invalidate(ctx, boardID)
		report.Changes = append(report.Changes, FollowChange{UserID: userID, BoardID: boardID, Reason: reason})
	}
	return nil
}

func seen(changes []FollowChange, userID, boardID string) bool {
	for _, c := range changes {
		if c.UserID == userID && c.BoardID == boardID {
			return true
		}
	}
	return false
}
