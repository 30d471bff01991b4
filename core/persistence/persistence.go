// Package persistence runs validated, event-emitting operations on the
// entities of a schema catalog through a DatabaseInteractor.
package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/asaidimu/go-roster/core/schema"
	"go.uber.org/zap"
)

// Persistence ties a catalog of schemas to a database interactor and an
// event bus.
type Persistence struct {
	interactor DatabaseInteractor
	catalog    *schema.Catalog
	executor   *Executor
	bus        *EventBus
	logger     *zap.Logger
}

// NewPersistence creates a persistence layer over interactor. Tables are not
// created until Migrate is called.
func NewPersistence(interactor DatabaseInteractor, catalog *schema.Catalog, logger *zap.Logger) (*Persistence, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	bus, err := NewEventBus(logger)
	if err != nil {
		return nil, err
	}
	return &Persistence{
		interactor: interactor,
		catalog:    catalog,
		executor:   NewExecutor(interactor, logger),
		bus:        bus,
		logger:     logger,
	}, nil
}

// Collection returns the collection of a registered entity.
func (p *Persistence) Collection(name string) (*Collection, error) {
	s, err := p.Schema(name)
	if err != nil {
		return nil, err
	}
	return NewCollection(s, p.executor, p.bus), nil
}

// Collections returns the registered entity names.
func (p *Persistence) Collections() []string {
	return p.catalog.Names()
}

// Schema returns the schema of a registered entity.
func (p *Persistence) Schema(name string) (*schema.SchemaDefinition, error) {
	s, ok := p.catalog.Get(name)
	if !ok {
		return nil, fmt.Errorf("schema '%s' not found", name)
	}
	return s, nil
}

// Executor returns the executor used by collections.
func (p *Persistence) Executor() *Executor {
	return p.executor
}

// Bus returns the event bus collections emit on.
func (p *Persistence) Bus() *EventBus {
	return p.bus
}

// Migrate creates the tables of every registered schema that does not exist
// yet and returns the names it created.
func (p *Persistence) Migrate(ctx context.Context) ([]string, error) {
	var created []string
	for _, name := range p.catalog.Names() {
		exists, err := p.interactor.CollectionExists(ctx, name)
		if err != nil {
			return created, fmt.Errorf("error looking up collection %s: %w", name, err)
		}
		if exists {
			continue
		}

		s, _ := p.catalog.Get(name)
		startTime := time.Now()
		p.bus.Emit(createEvent(CollectionCreateStart, "create_collection", name, nil, nil, nil, nil, nil, startTime))
		if err := p.interactor.CreateCollection(ctx, *s); err != nil {
			errStr := err.Error()
			p.bus.Emit(createEvent(CollectionCreateFailed, "create_collection", name, nil, nil, nil, &errStr, nil, startTime))
			return created, fmt.Errorf("failed to create table for collection %s: %w", name, err)
		}
		p.bus.Emit(createEvent(CollectionCreateSuccess, "create_collection", name, nil, nil, nil, nil, nil, startTime))
		p.logger.Info("Created collection", zap.String("name", name))
		created = append(created, name)
	}
	return created, nil
}

// RegisterSubscription registers a subscription on the shared bus.
func (p *Persistence) RegisterSubscription(options RegisterSubscriptionOptions) string {
	id := p.bus.RegisterSubscription(options)
	p.bus.Emit(createEvent(SubscriptionRegister, "register_subscription", "",
		map[string]any{"event": options.Event, "label": options.Label},
		map[string]any{"subscriptionId": id}, nil, nil, nil, time.Now()))
	return id
}

// UnregisterSubscription removes a subscription from the shared bus.
func (p *Persistence) UnregisterSubscription(id string) {
	p.bus.UnregisterSubscription(id)
	p.bus.Emit(createEvent(SubscriptionUnregister, "unregister_subscription", "",
		map[string]any{"subscriptionId": id}, nil, nil, nil, nil, time.Now()))
}

// Subscriptions lists the active subscriptions.
func (p *Persistence) Subscriptions() []SubscriptionInfo {
	return p.bus.Subscriptions()
}
