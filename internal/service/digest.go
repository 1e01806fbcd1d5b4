package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cropstech/crops-backend/internal/model"
	"github.com/cropstech/crops-backend/internal/repository"
	"github.com/cropstech/crops-backend/pkg/logger"
	"github.com/cropstech/crops-backend/pkg/mailer"
)

// DigestService flushes per-user batched email queues. The scheduler
// tick runs at the shortest configured interval; each user flushes only
// when their own interval boundary has elapsed since their last flush.
// A flush is all-or-nothing per user: a failed send leaves every entry
// queued for the next tick.
type DigestService struct {
	digestRepo repository.DigestRepository
	notifRepo  repository.NotificationRepository
	prefRepo   repository.PreferenceRepository
	users      repository.ActivityRepository
	mail       mailer.Mailer
	tick       time.Duration
}

func NewDigestService(
	digestRepo repository.DigestRepository,
	notifRepo repository.NotificationRepository,
	prefRepo repository.PreferenceRepository,
	users repository.ActivityRepository,
	mail mailer.Mailer,
	tick time.Duration,
) *DigestService {
	if tick <= 0 {
		tick = time.Hour
	}
	return &DigestService{
		digestRepo: digestRepo,
		notifRepo:  notifRepo,
		prefRepo:   prefRepo,
		users:      users,
		mail:       mail,
		tick:       tick,
	}
}

// Start launches the periodic sweep; the returned function stops it.
func (s *DigestService) Start() func(context.Context) error {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.Sweep(context.Background())
			}
		}
	}()
	return func(ctx context.Context) error { close(stop); return nil }
}

// Sweep flushes every user whose interval boundary has elapsed.
// Per-user failures are logged and retried next tick, never aborting
// the sweep.
func (s *DigestService) Sweep(ctx context.Context) {
	userIDs, err := s.digestRepo.PendingUserIDs(ctx)
	if err != nil {
		logger.Error("digest sweep: listing pending users", zap.Error(err))
		return
	}
	now := time.Now()
	for _, userID := range userIDs {
		due, err := s.due(ctx, userID, now)
		if err != nil {
			logger.Error("digest sweep: due check", zap.String("user", userID), zap.Error(err))
			continue
		}
		if !due {
			continue
		}
		if err := s.FlushUser(ctx, userID, now); err != nil {
			logger.Warn("digest flush failed, entries kept queued",
				zap.String("user", userID), zap.Error(err))
		}
	}
}

func (s *DigestService) due(ctx context.Context, userID string, now time.Time) (bool, error) {
	pref, err := s.prefRepo.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	window := pref.Interval.Window()
	if window == 0 {
		// Immediate entries normally flush on enqueue; anything still
		// queued is a prior delivery failure and is due now.
		return true, nil
	}
	state, err := s.digestRepo.State(ctx, userID)
	if err != nil {
		return false, err
	}
	return now.Sub(state.LastFlushAt) >= window, nil
}

// FlushUser sends one aggregated email for every entry enqueued before
// the cutoff and consumes exactly those entries. Entries arriving
// mid-flush belong to the next cycle. Never double-sends: consumed
// entries are gone, failed sends consume nothing.
func (s *DigestService) FlushUser(ctx context.Context, userID string, cutoff time.Time) error {
	entries, err := s.digestRepo.EntriesBefore(ctx, userID, cutoff)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	notifIDs := make([]string, len(entries))
	entryIDs := make([]string, len(entries))
	for i, e := range entries {
		notifIDs[i] = e.NotificationID
		entryIDs[i] = e.ID
	}
	notifs, err := s.notifRepo.ListByIDs(ctx, notifIDs)
	if err != nil {
		return err
	}

	email, err := s.users.UserEmail(ctx, userID)
	if err != nil {
		return err
	}

	subject, body := composeDigest(notifs)
	if err := s.mail.Send(email, subject, body); err != nil {
		_ = s.digestRepo.RecordError(ctx, userID, err.Error())
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	if err := s.digestRepo.Consume(ctx, userID, entryIDs, time.Now()); err != nil {
		return err
	}
	logger.Info("digest flushed",
		zap.String("user", userID), zap.Int("notifications", len(entries)))
	return nil
}

var eventVerbs = map[model.EventType]string{
	model.EventCommentOnFollowedBoard: "commented on a followed board",
	model.EventMention:                "mentioned you in a comment",
	model.EventThreadReply:            "replied in a thread you're part of",
	model.EventSubBoardCreated:        "created a sub-board",
	model.EventItemUploaded:           "uploaded items to a followed board",
	model.EventCustomFieldChanged:     "changed a field on a followed board",
}

func composeDigest(notifs []*model.Notification) (string, string) {
	if len(notifs) == 1 {
		verb := eventVerbs[model.EventType(notifs[0].EventType)]
		return "New activity: " + verb, digestLine(notifs[0])
	}
	subject := fmt.Sprintf("%d new notifications", len(notifs))
	var b strings.Builder
	for _, n := range notifs {
		b.WriteString(digestLine(n))
		b.WriteString("\n")
	}
	return subject, b.String()
}

func digestLine(n *model.Notification) string {
	verb := eventVerbs[model.EventType(n.EventType)]
	if verb == "" {
		verb = n.EventType
	}
	if n.ActorID != "" {
		return fmt.Sprintf("- %s %s (%s)", n.ActorID, verb, n.CreatedAt.Format(time.RFC822))
	}
	return fmt.Sprintf("- %s (%s)", verb, n.CreatedAt.Format(time.RFC822))
}
