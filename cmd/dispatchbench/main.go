package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/cropstech/crops-backend/config"
	"github.com/cropstech/crops-backend/internal/model"
	"github.com/cropstech/crops-backend/internal/repository"
	"github.com/cropstech/crops-backend/internal/service"
	"github.com/cropstech/crops-backend/pkg/database"
)

// discardMailer swallows digest emails so the bench measures dispatch,
// not SMTP.
type discardMailer struct{}

func (discardMailer) Send(to, subject, body string) error { return nil }

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}

// Measures end-to-end dispatch latency per claim cycle on a board with
// FOLLOWERS followers and EVENTS pending events.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	db, err := database.InitDB(cfg)
	if err != nil {
		panic(err)
	}

	followers := envInt("FOLLOWERS", 1000)
	events := envInt("EVENTS", 200)
	claimLimit := envInt("CLAIM_LIMIT", 32)

	followRepo := repository.NewFollowRepository(db)
	boardRepo := repository.NewBoardRepository(db)
	prefRepo := repository.NewPreferenceRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	digestRepo := repository.NewDigestRepository(db)
	eventRepo := repository.NewEventRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	engine := service.NewAutoFollowEngine(followRepo, boardRepo, nil)
	digest := service.NewDigestService(digestRepo, notifRepo, prefRepo, activityRepo, discardMailer{}, time.Hour)
	dispatcher := service.NewDispatcher(
		eventRepo, followRepo, boardRepo, prefRepo, notifRepo, digestRepo, activityRepo,
		engine, digest, nil, 1, claimLimit, time.Second,
	)

	ctx := context.Background()
	boardID := "bench-" + uuid.New().String()[:8]
	db.Create(&model.Board{ID: boardID, WorkspaceID: "bench", Name: "bench board"})
	db.Create(&model.User{ID: "bench-actor", Username: "bench-actor", Email: "bench-actor@example.com"})
	for i := 0; i < followers; i++ {
		userID := fmt.Sprintf("bench-u%05d", i)
		db.Create(&model.User{ID: userID, Username: userID, Email: userID + "@example.com"})
		if _, err := followRepo.Follow(ctx, userID, boardID, model.FollowSourceAuto); err != nil {
			panic(err)
		}
	}
	for i := 0; i < events; i++ {
		if err := eventRepo.Append(ctx, &model.Event{
			ID:         uuid.New().String(),
			Type:       string(model.EventCommentOnFollowedBoard),
			BoardID:    boardID,
			ActorID:    "bench-actor",
			OccurredAt: time.Now(),
		}); err != nil {
			panic(err)
		}
	}

	cycles := (events + claimLimit - 1) / claimLimit
	lats := make([]time.Duration, 0, cycles)
	start := time.Now()
	for i := 0; i < cycles; i++ {
		st := time.Now()
		if err := dispatcher.ProcessOnce(ctx); err != nil {
			panic(err)
		}
		lats = append(lats, time.Since(st))
	}
	total := time.Since(start)

	pct := func(vs []time.Duration, p float64) time.Duration {
		xs := append([]time.Duration(nil), vs...)
		sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
		k := int(float64(len(xs)) * p)
		if k >= len(xs) {
			k = len(xs) - 1
		}
		return xs[k]
	}
	var sum time.Duration
	for _, d := range lats {
		sum += d
	}
	fmt.Printf("FOLLOWERS=%d EVENTS=%d CLAIM_LIMIT=%d\n", followers, events, claimLimit)
	fmt.Printf("Claim cycles: %d total=%v avg=%v p95=%v p99=%v\n",
		len(lats), total, sum/time.Duration(len(lats)), pct(lats, 0.95), pct(lats, 0.99))
	fmt.Printf("Throughput: %.0f events/s (%.0f notifications/s)\n",
		float64(events)/total.Seconds(), float64(events*followers)/total.Seconds())
}
