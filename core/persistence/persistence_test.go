package persistence_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/asaidimu/go-roster/core/pagination"
	"github.com/asaidimu/go-roster/core/persistence"
	"github.com/asaidimu/go-roster/core/query"
	"github.com/asaidimu/go-roster/core/schema"
	"github.com/asaidimu/go-roster/sqlstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func newCatalog(t *testing.T) *schema.Catalog {
	t.Helper()
	users := &schema.SchemaDefinition{
		Name: "users",
		Fields: map[string]*schema.FieldDefinition{
			"id":     {Name: "id", Type: schema.FieldTypeInteger, AutoIncrement: true},
			"email":  {Name: "email", Type: schema.FieldTypeString, Required: boolPtr(true), Unique: boolPtr(true), Format: "email"},
			"name":   {Name: "name", Type: schema.FieldTypeString},
			"status": {Name: "status", Type: schema.FieldTypeEnum, Values: []any{"CREATED", "VERIFIED"}, Default: "CREATED"},
		},
		Relations: map[string]schema.RelationDefinition{
			"profile": {Name: "profile", Target: "profiles", LocalField: "id", ForeignField: "user_id"},
		},
	}
	profiles := &schema.SchemaDefinition{
		Name: "profiles",
		Fields: map[string]*schema.FieldDefinition{
			"id":      {Name: "id", Type: schema.FieldTypeInteger, AutoIncrement: true},
			"user_id": {Name: "user_id", Type: schema.FieldTypeInteger, Required: boolPtr(true)},
			"bio":     {Name: "bio", Type: schema.FieldTypeString},
		},
	}
	catalog, err := schema.NewCatalog(users, profiles)
	require.NoError(t, err)
	return catalog
}

func newPersistence(t *testing.T) *persistence.Persistence {
	t.Helper()
	ctx := context.Background()
	db, dialect, err := sqlstore.Open(ctx, sqlstore.Config{Driver: "sqlite3", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	catalog := newCatalog(t)
	p, err := persistence.NewPersistence(sqlstore.NewInteractor(db, dialect, catalog, nil, nil), catalog, nil)
	require.NoError(t, err)

	created, err := p.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"profiles", "users"}, created)
	return p
}

// recorder collects events delivered to a subscription.
type recorder struct {
	mu     sync.Mutex
	events []persistence.PersistenceEvent
}

func (r *recorder) callback(_ context.Context, e persistence.PersistenceEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *recorder) last() persistence.PersistenceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func TestMigrate_IsIdempotent(t *testing.T) {
	p := newPersistence(t)
	created, err := p.Migrate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Equal(t, []string{"profiles", "users"}, p.Collections())
}

func TestCollection_CRUD(t *testing.T) {
	ctx := context.Background()
	p := newPersistence(t)

	users, err := p.Collection("users")
	require.NoError(t, err)
	profiles, err := p.Collection("profiles")
	require.NoError(t, err)

	ada, err := users.Create(ctx, map[string]any{"email": "ada@example.com", "name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), ada["id"])
	assert.Equal(t, "CREATED", ada["status"])

	_, err = profiles.Create(ctx, map[string]any{"user_id": ada["id"], "bio": "Analyst"})
	require.NoError(t, err)
	_, err = users.Create(ctx, map[string]any{"email": "alan@example.com", "name": "Alan"})
	require.NoError(t, err)

	t.Run("read with include and pagination", func(t *testing.T) {
		res, err := users.Read(ctx, query.QueryOptions{
			Includes:   []string{"profile"},
			Orders:     []query.Order{{Field: "id", Direction: query.SortDirectionAsc}},
			Pagination: &pagination.PageOptions{Page: 1, Take: 1},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, res.Count)
		require.Len(t, res.Data, 1)

		profile, ok := res.Data[0]["profile"].(schema.Document)
		require.True(t, ok, "profile should be nested, got %T", res.Data[0]["profile"])
		assert.Equal(t, "Analyst", profile["bio"])
	})

	t.Run("read missing relation collapses to nil", func(t *testing.T) {
		res, err := users.Read(ctx, query.QueryOptions{
			Includes: []string{"profile"},
			Filters:  query.Filters{"email": query.Scalar{Value: "alan@example.com"}},
		})
		require.NoError(t, err)
		require.Len(t, res.Data, 1)
		assert.Nil(t, res.Data[0]["profile"])
		assert.Equal(t, 1, res.Count)
	})

	t.Run("read with joined selection", func(t *testing.T) {
		res, err := users.Read(ctx, query.QueryOptions{
			Includes:        []string{"profile"},
			Selects:         []string{"id", "email"},
			SelectsWithJoin: map[string][]string{"profile": {"bio"}},
			Filters:         query.Filters{"id": query.Scalar{Value: int64(1)}},
		})
		require.NoError(t, err)
		require.Len(t, res.Data, 1)
		assert.Equal(t, "ada@example.com", res.Data[0]["email"])
		assert.NotContains(t, res.Data[0], "name")
		assert.Equal(t, schema.Document{"bio": "Analyst"}, res.Data[0]["profile"])
	})

	t.Run("update", func(t *testing.T) {
		n, err := users.Update(ctx, persistence.CollectionUpdate{
			Data:   map[string]any{"status": "VERIFIED"},
			Filter: query.Filters{"email": query.Scalar{Value: "ada@example.com"}},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("update rejects invalid data", func(t *testing.T) {
		_, err := users.Update(ctx, persistence.CollectionUpdate{
			Data:   map[string]any{"status": "BANNED"},
			Filter: query.Filters{"id": query.Scalar{Value: int64(1)}},
		})
		assert.ErrorIs(t, err, persistence.ErrInvalidDocument)
	})

	t.Run("delete", func(t *testing.T) {
		_, err := users.Delete(ctx, nil, false)
		assert.ErrorIs(t, err, sqlstore.ErrUnsafeDelete)

		n, err := users.Delete(ctx, query.Filters{"email": query.Scalar{Value: "alan@example.com"}}, false)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}

func TestCollection_CreateValidation(t *testing.T) {
	p := newPersistence(t)
	users, err := p.Collection("users")
	require.NoError(t, err)

	_, err = users.Create(context.Background(), map[string]any{"name": "No Email", "nickname": "x"})
	require.ErrorIs(t, err, persistence.ErrInvalidDocument)

	var verr *persistence.ValidationError
	require.True(t, errors.As(err, &verr))
	codes := make([]string, len(verr.Issues))
	for i, issue := range verr.Issues {
		codes[i] = issue.Code
	}
	assert.Equal(t, []string{"REQUIRED_FIELD_MISSING", "UNEXPECTED_FIELD"}, codes)
	assert.Equal(t, "users", verr.Collection)
}

func TestPersistence_UnknownCollection(t *testing.T) {
	p := newPersistence(t)
	_, err := p.Collection("orders")
	assert.ErrorContains(t, err, "schema 'orders' not found")
}

func TestTransact(t *testing.T) {
	ctx := context.Background()
	p := newPersistence(t)

	rec := &recorder{}
	p.RegisterSubscription(persistence.RegisterSubscriptionOptions{
		Event:    persistence.TransactionFailed,
		Callback: rec.callback,
	})

	boom := errors.New("boom")
	err := p.Transact(ctx, func(tx *persistence.Persistence) error {
		users, err := tx.Collection("users")
		if err != nil {
			return err
		}
		if _, err := users.Create(ctx, map[string]any{"email": "ada@example.com"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Eventually(t, func() bool { return rec.len() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "boom", *rec.last().Error)

	users, err := p.Collection("users")
	require.NoError(t, err)
	res, err := users.Read(ctx, query.QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Count)

	err = p.Transact(ctx, func(tx *persistence.Persistence) error {
		users, err := tx.Collection("users")
		if err != nil {
			return err
		}
		_, err = users.Create(ctx, map[string]any{"email": "ada@example.com"})
		return err
	})
	require.NoError(t, err)

	res, err = users.Read(ctx, query.QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
}

func TestSubscriptions(t *testing.T) {
	ctx := context.Background()
	p := newPersistence(t)
	users, err := p.Collection("users")
	require.NoError(t, err)

	all := &recorder{}
	verified := &recorder{}
	label := "verified-users"
	allID := p.RegisterSubscription(persistence.RegisterSubscriptionOptions{
		Event:    persistence.DocumentCreateSuccess,
		Callback: all.callback,
	})
	p.RegisterSubscription(persistence.RegisterSubscriptionOptions{
		Event:    persistence.DocumentCreateSuccess,
		Label:    &label,
		Filter:   query.Filters{"status": query.Scalar{Value: "VERIFIED"}},
		Callback: verified.callback,
	})
	require.Len(t, p.Subscriptions(), 2)

	_, err = users.Create(ctx, map[string]any{"email": "ada@example.com"})
	require.NoError(t, err)
	_, err = users.Create(ctx, map[string]any{"email": "alan@example.com", "status": "VERIFIED"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return all.len() == 2 && verified.len() == 1 }, time.Second, 10*time.Millisecond)
	event := verified.last()
	assert.Equal(t, persistence.DocumentCreateSuccess, event.Type)
	assert.Equal(t, "users", *event.Collection)
	assert.Equal(t, "alan@example.com", event.Documents()[0]["email"])

	p.UnregisterSubscription(allID)
	assert.Len(t, p.Subscriptions(), 1)
	subs := p.Bus().SubscriptionsFor(persistence.DocumentCreateSuccess)
	require.Len(t, subs, 1)
	assert.Equal(t, label, *subs[0].Label)

	_, err = users.Create(ctx, map[string]any{"email": "grace@example.com"})
	require.NoError(t, err)
	assert.Never(t, func() bool { return all.len() > 2 }, 100*time.Millisecond, 10*time.Millisecond)
}
