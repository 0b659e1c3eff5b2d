package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind identifies what changed in the cache.
type Kind string

const (
	KindPostCreated  Kind = "post.created"
	KindPostDeleted  Kind = "post.deleted"
	KindPostTagged   Kind = "post.tagged"
	KindPostUntagged Kind = "post.untagged"
	KindUserTagged   Kind = "user.tagged"
	KindUserUntagged Kind = "user.untagged"
)

// ChangeEvent describes one committed change. It never carries post content.
type ChangeEvent struct {
	ID       uuid.UUID `json:"id"`
	Kind     Kind      `json:"kind"`
	Subject  string    `json:"subject"`            // Post or user the change applies to
	Actor    string    `json:"actor"`              // User who made the change
	Label    string    `json:"label,omitempty"`    // Tag label for tag changes
	Affected []string  `json:"affected,omitempty"` // Other posts whose counters changed
	At       time.Time `json:"at"`
}

// NewChangeEvent creates an event stamped with a fresh ID and the current time.
func NewChangeEvent(kind Kind, subject, actor string) *ChangeEvent {
	return &ChangeEvent{
		ID:      uuid.New(),
		Kind:    kind,
		Subject: subject,
		Actor:   actor,
		At:      time.Now().UTC(),
	}
}

// Notifier receives change events after their transaction commits.
type Notifier interface {
	Notify(ctx context.Context, event *ChangeEvent) error
}

// NopNotifier discards every event.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, *ChangeEvent) error {
	return nil
}
