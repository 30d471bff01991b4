package users

import (
	"context"
	"fmt"
	"time"

	"github.com/asaidimu/go-events"
)

// EventType names a user lifecycle event.
type EventType string

const (
	EventUserCreated EventType = "user:created"
	EventUserUpdated EventType = "user:updated"
	EventUserDeleted EventType = "user:deleted"
)

// UserEvent is emitted after a user change is committed.
type UserEvent struct {
	Type      EventType     `json:"type"`
	UserID    int64         `json:"userId"`
	User      *UserResource `json:"user,omitempty"`
	Timestamp int64         `json:"timestamp"`
}

// EventHandler receives user events.
type EventHandler func(ctx context.Context, event UserEvent) error

func newEventBus() (*events.TypedEventBus[UserEvent], error) {
	bus, err := events.NewTypedEventBus[UserEvent](events.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("could not initialize user event bus: %w", err)
	}
	return bus, nil
}

func (s *Service) emit(eventType EventType, id int64, user *UserResource) {
	s.bus.Emit(string(eventType), UserEvent{
		Type:      eventType,
		UserID:    id,
		User:      user,
		Timestamp: time.Now().UnixMilli(),
	})
}

// On registers handler for eventType and returns a function removing it.
func (s *Service) On(eventType EventType, handler EventHandler) func() {
	return s.bus.Subscribe(string(eventType), func(ctx context.Context, event UserEvent) error {
		return handler(ctx, event)
	})
}
