// Package notify defines the event contract consumed by the external
// notification fan-out service (push + socket delivery). The engine emits
// events fire-and-forget; delivery failures are logged, never propagated.
package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type EventType string

const (
	EventMatch   EventType = "match"
	EventMessage EventType = "message"
	EventStreak  EventType = "streak"
)

// Event is addressed to a single user.
type Event struct {
	ID           string         `json:"id"`
	Type         EventType      `json:"type"`
	TargetUserID uint64         `json:"target_user_id"`
	Payload      map[string]any `json:"payload,omitempty"`
}

// NewEvent assigns a fresh event id.
func NewEvent(t EventType, targetUserID uint64, payload map[string]any) Event {
	return Event{
		ID:           uuid.NewString(),
		Type:         t,
		TargetUserID: targetUserID,
		Payload:      payload,
	}
}

type Dispatcher interface {
	Emit(ctx context.Context, ev Event) error
}

// SlogDispatcher logs events instead of delivering them. It stands in for
// the real fan-out service in development and tests.
type SlogDispatcher struct {
	log *slog.Logger
}

func NewSlogDispatcher(log *slog.Logger) *SlogDispatcher {
	return &SlogDispatcher{log: log}
}

func (d *SlogDispatcher) Emit(_ context.Context, ev Event) error {
	d.log.Info("notification event",
		"event_id", ev.ID,
		"type", string(ev.Type),
		"target_user_id", ev.TargetUserID,
	)
	return nil
}
