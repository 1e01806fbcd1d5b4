package model

import "time"

// BatchInterval controls how often queued notification emails are
// aggregated into a single digest.
type BatchInterval string

const (
	BatchImmediate BatchInterval = "immediate"
	BatchHourly    BatchInterval = "hourly"
	BatchDaily     BatchInterval = "daily"
)

func (b BatchInterval) Valid() bool {
	switch b {
	case BatchImmediate, BatchHourly, BatchDaily:
		return true
	}
	return false
}

// Window returns the minimum gap between digest flushes; zero means
// flush on enqueue.
func (b BatchInterval) Window() time.Duration {
	switch b {
	case BatchHourly:
		return time.Hour
	case BatchDaily:
		return 24 * time.Hour
	}
	return 0
}

// ChannelPref holds the per-event-type delivery switches.
type ChannelPref struct {
	InApp bool `json:"in_app"`
	Email bool `json:"email"`
}

// NotificationPreference is the single per-user preference record.
// Event types absent from EventPrefs are treated as defaults and
// backfilled on read.
type NotificationPreference struct {
	ID         string                    `gorm:"primaryKey;type:varchar(36)"`
	UserID     string                    `gorm:"type:varchar(36);uniqueIndex;not null"`
	EventPrefs map[EventType]ChannelPref `gorm:"serializer:json;type:text"`
	Interval   BatchInterval             `gorm:"type:varchar(16);not null;default:immediate"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (NotificationPreference) TableName() string { return "notification_preferences" }

// DefaultChannelPrefs returns the default mapping: every notifiable
// event type enabled on both channels.
func DefaultChannelPrefs() map[EventType]ChannelPref {
	prefs := make(map[EventType]ChannelPref, len(NotifiableEventTypes))
	for _, t := range NotifiableEventTypes {
		prefs[t] = ChannelPref{InApp: true, Email: true}
	}
	return prefs
}

// PrefFor reads the channel switches for one event type, defaulting
// when the stored record predates the type.
func (p *NotificationPreference) PrefFor(t EventType) ChannelPref {
	if pref, ok := p.EventPrefs[t]; ok {
		return pref
	}
	return ChannelPref{InApp: true, Email: true}
}

// Backfill adds defaults for any missing event types and reports
// whether the record changed.
func (p *NotificationPreference) Backfill() bool {
	if p.EventPrefs == nil {
		p.EventPrefs = make(map[EventType]ChannelPref, len(NotifiableEventTypes))
	}
	changed := false
	for _, t := range NotifiableEventTypes {
		if _, ok := p.EventPrefs[t]; !ok {
			p.EventPrefs[t] = ChannelPref{InApp: true, Email: true}
			changed = true
		}
	}
	return changed
}
