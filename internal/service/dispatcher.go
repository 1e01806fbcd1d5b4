package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cropstech/crops-backend/internal/cache"
	"github.com/cropstech/crops-backend/internal/model"
	"github.com/cropstech/crops-backend/internal/repository"
	"github.com/cropstech/crops-backend/pkg/logger"
)

// BubbleDefaults is the per-event-type ancestor-bubbling table: when
// true, followers of the event board's ancestors are part of the
// audience too. Which types bubble is a product policy knob, not a
// universal rule.
func BubbleDefaults() map[model.EventType]bool {
	return map[model.EventType]bool{
		model.EventCommentOnFollowedBoard: true,
		model.EventSubBoardCreated:        true,
		model.EventItemUploaded:           false,
		model.EventCustomFieldChanged:     false,
	}
}

// payloadAudience marks event types whose audience comes from the
// payload's recipient lists instead of the board's followers.
var payloadAudience = map[model.EventType]bool{
	model.EventMention:     true,
	model.EventThreadReply: true,
}

// actorRequired marks event types whose side effects write rows keyed
// by the actor (activity auto-follow), so an empty actor id is a
// validation failure rather than a phantom user in the follow store.
var actorRequired = map[model.EventType]bool{
	model.EventCommentOnFollowedBoard: true,
	model.EventItemUploaded:           true,
}

// Dispatcher consumes the durable event feed with a pool of claim
// workers, resolves each event's audience, writes notification rows and
// enqueues email digests. Safe under at-least-once redelivery: the
// notification store dedupes on (user, event).
type Dispatcher struct {
	eventRepo  repository.EventRepository
	followRepo repository.FollowRepository
	boardRepo  repository.BoardRepository
	prefRepo   repository.PreferenceRepository
	notifRepo  repository.NotificationRepository
	digestRepo repository.DigestRepository
	users      repository.ActivityRepository
	engine     *AutoFollowEngine
	digest     *DigestService
	audience   *cache.FollowerCache
	bubble     map[model.EventType]bool

	workers      int
	claimLimit   int
	pollInterval time.Duration
}

func NewDispatcher(
	eventRepo repository.EventRepository,
	followRepo repository.FollowRepository,
	boardRepo repository.BoardRepository,
	prefRepo repository.PreferenceRepository,
	notifRepo repository.NotificationRepository,
	digestRepo repository.DigestRepository,
	users repository.ActivityRepository,
	engine *AutoFollowEngine,
	digest *DigestService,
	audience *cache.FollowerCache,
	workers, claimLimit int,
	pollInterval time.Duration,
) *Dispatcher {
	if workers <= 0 {
		workers = 4
	}
	if claimLimit <= 0 {
		claimLimit = 128
	}
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &Dispatcher{
		eventRepo:    eventRepo,
		followRepo:   followRepo,
		boardRepo:    boardRepo,
		prefRepo:     prefRepo,
		notifRepo:    notifRepo,
		digestRepo:   digestRepo,
		users:        users,
		engine:       engine,
		digest:       digest,
		audience:     audience,
		bubble:       BubbleDefaults(),
		workers:      workers,
		claimLimit:   claimLimit,
		pollInterval: pollInterval,
	}
}

// Start launches the claim workers; the returned function stops them.
func (d *Dispatcher) Start() func(context.Context) error {
	stop := make(chan struct{})
	for i := 0; i < d.workers; i++ {
		go d.loop(stop)
	}
	return func(ctx context.Context) error { close(stop); return nil }
}

func (d *Dispatcher) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := d.ProcessOnce(context.Background()); err != nil {
				logger.Error("dispatch cycle failed", zap.Error(err))
			}
		}
	}
}

// ProcessOnce claims one batch of pending events and processes it.
// Validation failures park the event; anything else releases it back
// to pending for redelivery.
func (d *Dispatcher) ProcessOnce(ctx context.Context) error {
	batch, err := d.eventRepo.ClaimBatch(ctx, d.claimLimit)
	if err != nil {
		return err
	}
	for _, ev := range batch {
		err := d.Process(ctx, ev)
		switch {
		case err == nil:
			if mErr := d.eventRepo.MarkDone(ctx, ev.ID); mErr != nil {
				logger.Error("marking event done", zap.String("event", ev.ID), zap.Error(mErr))
			}
		case errors.Is(err, ErrValidation):
			logger.Warn("rejecting event", zap.String("event", ev.ID), zap.Error(err))
			if mErr := d.eventRepo.MarkInvalid(ctx, ev.ID, err.Error()); mErr != nil {
				logger.Error("marking event invalid", zap.String("event", ev.ID), zap.Error(mErr))
			}
		default:
			logger.Warn("releasing event for retry", zap.String("event", ev.ID), zap.Error(err))
			if rErr := d.eventRepo.Release(ctx, ev.ID, err.Error()); rErr != nil {
				logger.Error("releasing event", zap.String("event", ev.ID), zap.Error(rErr))
			}
		}
	}
	return nil
}

// Process handles a single domain event end to end: auto-follow side
// effects first, then audience resolution, then per-user delivery.
func (d *Dispatcher) Process(ctx context.Context, ev *model.Event) error {
	eventType := model.EventType(ev.Type)
	if !eventType.Valid() {
		return validationErr("unknown event type %q", ev.Type)
	}

	var payload model.EventPayload
	if ev.Payload != "" {
		if err := json.Unmarshal([]byte(ev.Payload), &payload); err != nil {
			return validationErr("malformed payload: %v", err)
		}
	}

	// Role assignments only feed the auto-follow engine.
	if eventType == model.EventRoleAssigned {
		if payload.WorkspaceID == "" {
			return validationErr("role event missing workspace")
		}
		if err := d.requireUser(ctx, ev.ActorID); err != nil {
			return err
		}
		_, err := d.engine.ApplyRoleAssignment(ctx, ev.ActorID, payload.WorkspaceID, payload.Role)
		return err
	}

	if _, err := d.boardRepo.Get(ctx, ev.BoardID); err != nil {
		if errors.Is(err, repository.ErrBoardNotFound) {
			return validationErr("unknown board %q", ev.BoardID)
		}
		return err
	}
	if ev.ActorID != "" {
		if err := d.requireUser(ctx, ev.ActorID); err != nil {
			return err
		}
	} else if actorRequired[eventType] {
		return validationErr("event %q missing actor", ev.Type)
	}

	// Activity-based auto-follow runs before audience resolution so the
	// actor's own new follows are in place for subsequent events.
	if _, err := d.engine.ApplyActivity(ctx, ev, &payload); err != nil {
		return err
	}

	audience, err := d.resolveAudience(ctx, ev, eventType, &payload)
	if err != nil {
		return err
	}

	for _, userID := range audience {
		if userID == ev.ActorID {
			continue // no self-notify
		}
		if err := d.deliver(ctx, ev, userID); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) resolveAudience(ctx context.Context, ev *model.Event, eventType model.EventType, payload *model.EventPayload) ([]string, error) {
	if payloadAudience[eventType] {
		recipients := payload.MentionedIDs
		if eventType == model.EventThreadReply {
			recipients = payload.ParticipantIDs
		}
		for _, id := range recipients {
			if err := d.requireUser(ctx, id); err != nil {
				return nil, err
			}
		}
		return dedupe(recipients), nil
	}

	boards := []string{ev.BoardID}
	if d.bubble[eventType] {
		ancestors, err := d.boardRepo.AncestorsOf(ctx, ev.BoardID)
		if err != nil {
			return nil, err
		}
		boards = append(boards, ancestors...)
	}

	var out []string
	for _, boardID := range boards {
		ids, ok := d.audience.Get(ctx, boardID)
		if !ok {
			var err error
			ids, err = d.followRepo.FollowersOf(ctx, boardID)
			if err != nil {
				return nil, err
			}
			d.audience.Set(ctx, boardID, ids)
		}
		out = append(out, ids...)
	}
	return dedupe(out), nil
}

// deliver applies one user's channel preferences to the event. The
// notification row is the digest's source record, so it is written
// whenever either channel is on; with in-app disabled it is created
// pre-read and never surfaces as unread.
func (d *Dispatcher) deliver(ctx context.Context, ev *model.Event, userID string) error {
	pref, err := d.prefRepo.Get(ctx, userID)
	if err != nil {
		return err
	}
	ch := pref.PrefFor(model.EventType(ev.Type))
	if !ch.InApp && !ch.Email {
		return nil
	}

	n := &model.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		EventID:   ev.ID,
		EventType: ev.Type,
		BoardID:   ev.BoardID,
		ActorID:   ev.ActorID,
		Payload:   ev.Payload,
		CreatedAt: time.Now(),
	}
	if !ch.InApp {
		now := n.CreatedAt
		n.ReadAt = &now
	}
	created, err := d.notifRepo.Create(ctx, n)
	if err != nil {
		return err
	}
	if !created {
		// Redelivery of an already-delivered event; both legs are done
		// or already queued.
		return nil
	}

	if ch.Email {
		if err := d.digestRepo.Enqueue(ctx, userID, n.ID); err != nil {
			return err
		}
		if pref.Interval == model.BatchImmediate {
			// One email per event; a failed send stays queued and the
			// scheduler retries it, the notification row already exists.
			if err := d.digest.FlushUser(ctx, userID, time.Now()); err != nil {
				logger.Warn("immediate email failed, queued for retry",
					zap.String("user", userID), zap.String("event", ev.ID), zap.Error(err))
			}
		}
	}
	return nil
}

func (d *Dispatcher) requireUser(ctx context.Context, userID string) error {
	ok, err := d.users.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return validationErr("unknown user %q", userID)
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
