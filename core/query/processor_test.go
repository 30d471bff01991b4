package query

import (
	"testing"
	"time"

	"github.com/asaidimu/go-roster/core/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, opts QueryOptions) *Plan {
	t.Helper()
	plan, err := NewResolver(nil).Compile(RootAlias, opts)
	require.NoError(t, err)
	return plan
}

func TestDataProcessor_Hydrate(t *testing.T) {
	p := NewDataProcessor(nil)
	plan := compile(t, QueryOptions{
		Includes:        []string{"profile", "profile.avatar"},
		SelectsWithJoin: map[string][]string{"profile": {"bio"}},
	})

	rows := []schema.Document{
		{
			"id":                  int64(1),
			"profile_0_0_bio":     "hi",
			"profile_0_0_user_id": int64(1),
			"avatar_1_1_url":      "a.png",
			"profile_bio":         "hi",
		},
		{
			"id":                  int64(2),
			"profile_0_0_bio":     nil,
			"profile_0_0_user_id": nil,
			"avatar_1_1_url":      nil,
			"profile_bio":         nil,
		},
	}
	docs := p.Hydrate(rows, plan)
	require.Len(t, docs, 2)

	assert.Equal(t, schema.Document{
		"id": int64(1),
		"profile": schema.Document{
			"bio":     "hi",
			"user_id": int64(1),
			"avatar":  schema.Document{"url": "a.png"},
		},
	}, docs[0])
	assert.Equal(t, schema.Document{"id": int64(2), "profile": nil}, docs[1])
}

func TestDataProcessor_Hydrate_NoRelations(t *testing.T) {
	p := NewDataProcessor(nil)
	rows := []schema.Document{{"id": 1, "profile_avatar": "x"}}
	assert.Equal(t, rows, p.Hydrate(rows, compile(t, QueryOptions{})))
	assert.Equal(t, rows, p.Hydrate(rows, nil))
}

func TestDataProcessor_Hydrate_PartiallyEmptyNested(t *testing.T) {
	p := NewDataProcessor(nil)
	plan := compile(t, QueryOptions{Includes: []string{"profile.avatar"}})
	docs := p.Hydrate([]schema.Document{{
		"id":              1,
		"profile_0_0_bio": "set",
		"avatar_0_1_url":  nil,
	}}, plan)
	assert.Equal(t, schema.Document{
		"id":      1,
		"profile": schema.Document{"bio": "set", "avatar": nil},
	}, docs[0])
}

func TestDataProcessor_Match(t *testing.T) {
	p := NewDataProcessor(nil)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	doc := schema.Document{
		"id":         int64(7),
		"name":       "Jo Smith",
		"status":     "CREATED",
		"age":        int64(30),
		"verified":   int64(1),
		"created_at": created,
		"deleted_at": nil,
	}

	tests := []struct {
		name     string
		filters  Filters
		expected bool
	}{
		{"empty", nil, true},
		{"scalar", Filters{"id": Scalar{Value: 7}}, true},
		{"scalar miss", Filters{"id": Scalar{Value: 8}}, false},
		{"set", Filters{"status": Set{Values: []any{"CREATED", "VERIFIED"}}}, true},
		{"empty set", Filters{"status": Set{Values: []any{}}}, false},
		{"is null", Filters{"deleted_at": IsNull{}}, true},
		{"is null miss", Filters{"name": IsNull{}}, false},
		{"range", Filters{"age": Condition{Gte: 18, Lte: 65}}, true},
		{"range miss", Filters{"age": Condition{Gt: 30}}, false},
		{"neq", Filters{"status": Condition{Neq: "VERIFIED"}}, true},
		{"nin", Filters{"status": Condition{Nin: []any{"VERIFIED"}}}, true},
		{"empty nin", Filters{"status": Condition{Nin: []any{}}}, true},
		{"like", Filters{"name": Condition{Like: StringPtr("Jo%")}}, true},
		{"like is case sensitive", Filters{"name": Condition{Like: StringPtr("jo%")}}, false},
		{"ilike", Filters{"name": Condition{ILike: StringPtr("jo_smith")}}, true},
		{"comparison against null", Filters{"deleted_at": Condition{Neq: 1}}, false},
		{"time", Filters{"created_at": Condition{Lt: "2025-01-01T00:00:00Z"}}, true},
		{"bool stored as int", Filters{"verified": Scalar{Value: true}}, true},
		{"all must match", Filters{"id": Scalar{Value: 7}, "status": Scalar{Value: "X"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := p.Match(tt.filters, doc)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
		})
	}
}

func TestDataProcessor_Match_Incomparable(t *testing.T) {
	_, err := NewDataProcessor(nil).Match(Filters{"name": Condition{Gt: true}}, schema.Document{"name": "x"})
	assert.Error(t, err)
}
