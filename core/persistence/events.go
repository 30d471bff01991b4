package persistence

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/asaidimu/go-events"
	"github.com/asaidimu/go-roster/core/query"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventBus delivers PersistenceEvents to registered subscriptions.
type EventBus struct {
	bus           *events.TypedEventBus[PersistenceEvent]
	processor     *query.DataProcessor
	subscriptions map[string]*SubscriptionInfo
	order         []string
	subMu         sync.RWMutex
	logger        *zap.Logger
}

// NewEventBus creates an event bus with the library's default configuration.
func NewEventBus(logger *zap.Logger) (*EventBus, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	bus, err := events.NewTypedEventBus[PersistenceEvent](events.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("could not initialize event bus: %w", err)
	}
	return &EventBus{
		bus:           bus,
		processor:     query.NewDataProcessor(logger),
		subscriptions: make(map[string]*SubscriptionInfo),
		logger:        logger,
	}, nil
}

// Emit publishes event under its type. A nil bus drops the event.
func (b *EventBus) Emit(event PersistenceEvent) {
	if b == nil || b.bus == nil {
		return
	}
	b.bus.Emit(string(event.Type), event)
}

// RegisterSubscription subscribes options.Callback and returns the id to
// unregister it with.
func (b *EventBus) RegisterSubscription(options RegisterSubscriptionOptions) string {
	callback := options.Callback
	if len(options.Filter) > 0 {
		filter := options.Filter
		callback = func(ctx context.Context, event PersistenceEvent) error {
			for _, doc := range event.Documents() {
				ok, err := b.processor.Match(filter, doc)
				if err != nil {
					b.logger.Warn("Subscription filter failed", zap.String("event", string(event.Type)), zap.Error(err))
					return err
				}
				if ok {
					return options.Callback(ctx, event)
				}
			}
			return nil
		}
	}

	b.subMu.Lock()
	defer b.subMu.Unlock()
	unsubscribe := b.bus.Subscribe(string(options.Event), callback)
	id := uuid.New().String()
	b.subscriptions[id] = &SubscriptionInfo{
		ID:          id,
		Event:       options.Event,
		Label:       options.Label,
		Description: options.Description,
		Unsubscribe: unsubscribe,
	}
	b.order = append(b.order, id)
	b.logger.Debug("Registered subscription", zap.String("id", id), zap.String("event", string(options.Event)))
	return id
}

// UnregisterSubscription removes a subscription. Unknown ids are ignored.
func (b *EventBus) UnregisterSubscription(id string) {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	info, ok := b.subscriptions[id]
	if !ok {
		return
	}
	info.Unsubscribe()
	delete(b.subscriptions, id)
	for i, existing := range b.order {
		if existing == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	b.logger.Debug("Unregistered subscription", zap.String("id", id))
}

// Subscriptions lists the active subscriptions in registration order.
func (b *EventBus) Subscriptions() []SubscriptionInfo {
	b.subMu.RLock()
	defer b.subMu.RUnlock()
	out := make([]SubscriptionInfo, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, *b.subscriptions[id])
	}
	return out
}

// SubscriptionsFor lists the active subscriptions of one event type, sorted
// by label.
func (b *EventBus) SubscriptionsFor(event PersistenceEventType) []SubscriptionInfo {
	var out []SubscriptionInfo
	for _, s := range b.Subscriptions() {
		if s.Event == event {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return label(out[i]) < label(out[j])
	})
	return out
}

func label(s SubscriptionInfo) string {
	if s.Label == nil {
		return ""
	}
	return *s.Label
}
