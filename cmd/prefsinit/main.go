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

// Creates default notification preference records for users missing
// one. Idempotent.
func main() {
	dryRun := flag.Bool("dry-run", false, "show what would be created without creating records")
	flag.Parse()

	cfg := must(config.Load())
	if err := logger.Init(cfg.Log.Level); err != nil {
		panic(err)
	}
	defer logger.Sync()
	db := must(database.InitDB(cfg))

	followRepo := repository.NewFollowRepository(db)
	boardRepo := repository.NewBoardRepository(db)
	backfill := service.NewBackfillService(
		followRepo,
		boardRepo,
		repository.NewMembershipRepository(db),
		repository.NewPreferenceRepository(db),
		repository.NewActivityRepository(db),
		service.NewAutoFollowEngine(followRepo, boardRepo, nil),
	)

	report, err := backfill.EnsurePreferences(context.Background(), service.BackfillOptions{DryRun: *dryRun})
	if err != nil {
		fmt.Fprintf(os.Stderr, "prefsinit failed: %v\n", err)
		os.Exit(1)
	}
	for _, e := range report.Errors {
		fmt.Fprintf(os.Stderr, "  error: %s\n", e)
	}
	if *dryRun {
		fmt.Printf("DRY RUN: would create %d preference records across %d users\n",
			report.PrefsCreated, report.UsersProcessed)
	} else {
		fmt.Printf("created %d preference records across %d users\n",
			report.PrefsCreated, report.UsersProcessed)
	}
}
