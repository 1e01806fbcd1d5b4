package model

import "time"

// EventType is the closed set of notification-worthy domain events.
type EventType string

const (
	EventCommentOnFollowedBoard EventType = "comment_on_followed_board"
	EventMention                EventType = "mention"
	EventThreadReply            EventType = "thread_reply"
	EventSubBoardCreated        EventType = "subboard_created"
	EventItemUploaded           EventType = "item_uploaded"
	EventCustomFieldChanged     EventType = "custom_field_changed"

	// EventRoleAssigned only drives the auto-follow engine; it never
	// produces notifications and has no preference entry.
	EventRoleAssigned EventType = "role_assigned"
)

// NotifiableEventTypes lists every event type a user can hold a
// preference for, in display order.
var NotifiableEventTypes = []EventType{
	EventCommentOnFollowedBoard,
	EventMention,
	EventThreadReply,
	EventSubBoardCreated,
	EventItemUploaded,
	EventCustomFieldChanged,
}

func (t EventType) Valid() bool {
	if t == EventRoleAssigned {
		return true
	}
	return t.Notifiable()
}

func (t EventType) Notifiable() bool {
	for _, nt := range NotifiableEventTypes {
		if t == nt {
			return true
		}
	}
	return false
}

// Event statuses follow the outbox claim cycle.
const (
	EventStatusPending    = "pending"
	EventStatusProcessing = "processing"
	EventStatusDone       = "done"
	EventStatusInvalid    = "invalid"
)

// Event is a durable domain event awaiting dispatch. The rest of the
// application appends rows; dispatcher workers claim and process them.
type Event struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	Type        string    `gorm:"type:varchar(40);not null;index"`
	BoardID     string    `gorm:"type:varchar(36);index"`
	ActorID     string    `gorm:"type:varchar(36)"`
	Payload     string    `gorm:"type:text"`
	OccurredAt  time.Time `gorm:"not null"`
	Status      string    `gorm:"type:varchar(16);index;default:pending"`
	CreatedAt   time.Time `gorm:"index"`
	ProcessedAt *time.Time
	LastError   string `gorm:"type:text"`
}

func (Event) TableName() string { return "events" }

// EventPayload carries the type-specific fields of an event. Only the
// fields relevant to the event's type are populated.
type EventPayload struct {
	AssetID        string   `json:"asset_id,omitempty"`
	CommentID      string   `json:"comment_id,omitempty"`
	CommentPreview string   `json:"comment_preview,omitempty"`
	NewBoardID     string   `json:"new_board_id,omitempty"`
	FieldName      string   `json:"field_name,omitempty"`
	WorkspaceID    string   `json:"workspace_id,omitempty"`
	Role           string   `json:"role,omitempty"`
	MentionedIDs   []string `json:"mentioned_ids,omitempty"`
	ParticipantIDs []string `json:"participant_ids,omitempty"`
}
