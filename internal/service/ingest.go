package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/cropstech/crops-backend/internal/model"
	"github.com/cropstech/crops-backend/internal/repository"
)

// IngestService appends domain events to the durable feed the
// dispatcher consumes. Producers may supply their own event id for
// exactly-once semantics across retries; otherwise one is assigned.
type IngestService interface {
	Ingest(ctx context.Context, in IngestInput) (string, error)
}

type IngestInput struct {
	ID         string
	Type       model.EventType
	BoardID    string
	ActorID    string
	Payload    *model.EventPayload
	OccurredAt time.Time
}

type ingestService struct {
	eventRepo repository.EventRepository
}

func NewIngestService(eventRepo repository.EventRepository) IngestService {
	return &ingestService{eventRepo: eventRepo}
}

func (s *ingestService) Ingest(ctx context.Context, in IngestInput) (string, error) {
	if !in.Type.Valid() {
		return "", validationErr("unknown event type %q", in.Type)
	}
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	if in.OccurredAt.IsZero() {
		in.OccurredAt = time.Now()
	}
	var raw string
	if in.Payload != nil {
		b, err := json.Marshal(in.Payload)
		if err != nil {
			return "", validationErr("marshaling payload: %v", err)
		}
		raw = string(b)
	}
	ev := &model.Event{
		ID:         in.ID,
		Type:       string(in.Type),
		BoardID:    in.BoardID,
		ActorID:    in.ActorID,
		Payload:    raw,
		OccurredAt: in.OccurredAt,
		Status:     model.EventStatusPending,
	}
	if err := s.eventRepo.Append(ctx, ev); err != nil {
		return "", err
	}
	return ev.ID, nil
}
