package model

import "time"

// Notification is an in-app notification row. Immutable after creation
// except for ReadAt.
type Notification struct {
	ID      string `gorm:"primaryKey;type:varchar(36)"`
	UserID  string `gorm:"type:varchar(36);index:idx_notif_user;uniqueIndex:ux_notif_user_event;not null"`
	EventID string `gorm:"type:varchar(36);uniqueIndex:ux_notif_user_event;not null"`
	// ux_notif_user_event = (user_id, event_id) — dedupe under
	// at-least-once event redelivery.
	EventType string    `gorm:"type:varchar(40);not null"`
	BoardID   string    `gorm:"type:varchar(36);index"`
	ActorID   string    `gorm:"type:varchar(36)"`
	Payload   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index:idx_notif_user_created"`
	ReadAt    *time.Time
}

func (Notification) TableName() string { return "notifications" }

// DigestQueueEntry is one email-pending notification awaiting a flush.
type DigestQueueEntry struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)"`
	UserID         string    `gorm:"type:varchar(36);index:idx_digest_user;uniqueIndex:ux_digest_user_notif;not null"`
	NotificationID string    `gorm:"type:varchar(36);uniqueIndex:ux_digest_user_notif;not null"`
	EnqueuedAt     time.Time `gorm:"index"`
}

func (DigestQueueEntry) TableName() string { return "digest_queue" }

// DigestState tracks per-user flush bookkeeping for the scheduler.
type DigestState struct {
	UserID      string `gorm:"primaryKey;type:varchar(36)"`
	LastFlushAt time.Time
	LastError   string `gorm:"type:text"`
	UpdatedAt   time.Time
}

func (DigestState) TableName() string { return "digest_states" }
