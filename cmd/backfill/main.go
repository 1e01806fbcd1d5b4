package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/cropstech/crops-backend/config"
	"github.com/cropstech/crops-backend/internal/repository"
	"github.com/cropstech/crops-backend/internal/service"
	"github.com/cropstech/crops-backend/pkg/database"
	"github.com/cropstech/crops-backend/pkg/logger"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// Recomputes auto-follows for all users from activity history. Safe to
// re-run; explicit unfollows are never overridden.
func main() {
	dryRun := flag.Bool("dry-run", false, "show what would be followed without creating follows")
	workspaceID := flag.String("workspace", "", "only process one workspace")
	flag.Parse()

	cfg := must(config.Load())
	if err := logger.Init(cfg.Log.Level); err != nil {
		panic(err)
	}
	defer logger.Sync()
	db := must(database.InitDB(cfg))

	followRepo := repository.NewFollowRepository(db)
	boardRepo := repository.NewBoardRepository(db)
	engine := service.NewAutoFollowEngine(followRepo, boardRepo, nil)
	backfill := service.NewBackfillService(
		followRepo,
		boardRepo,
		repository.NewMembershipRepository(db),
		repository.NewPreferenceRepository(db),
		repository.NewActivityRepository(db),
		engine,
	)

	opts := service.BackfillOptions{DryRun: *dryRun, WorkspaceID: *workspaceID}
	report, err := backfill.RecomputeAutoFollows(context.Background(), opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "backfill failed: %v\n", err)
		os.Exit(1)
	}

	for _, ch := range report.Changes {
		verb := "followed"
		if *dryRun {
			verb = "would follow"
		}
		fmt.Printf("  %s %s board %s (%s)\n", ch.UserID, verb, ch.BoardID, ch.Reason)
	}
	for _, e := range report.Errors {
		fmt.Fprintf(os.Stderr, "  error: %s\n", e)
	}
	if *dryRun {
		fmt.Printf("DRY RUN: would create %d board follows across %d users (%d errors)\n",
			len(report.Changes), report.UsersProcessed, len(report.Errors))
	} else {
		fmt.Printf("created %d board follows across %d users (%d errors)\n",
			len(report.Changes), report.UsersProcessed, len(report.Errors))
	}
}
