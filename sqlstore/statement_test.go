package sqlstore

import (
	"testing"

	"github.com/asaidimu/go-roster/core/query"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertGolden(t *testing.T, name, sql string) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(sql+"\n"))
}

func resolvedOptions() query.QueryOptions {
	return query.QueryOptions{
		Includes: []string{"profile"},
		Filters: query.Filters{
			"email":  query.Condition{ILike: query.StringPtr("%@example.com")},
			"status": query.Set{Values: []any{"CREATED", "VERIFIED"}},
		},
		Selects:         []string{"id", "email"},
		SelectsWithJoin: map[string][]string{"profile": {"avatar"}},
	}
}

func TestSelectQuery_Golden(t *testing.T) {
	catalog := testCatalog(t)
	resolver := query.NewResolver(nil)

	tests := []struct {
		name     string
		dialect  Dialect
		build    func(t *testing.T, q *SelectQuery)
		wantArgs []any
		count    bool
	}{
		{
			name:    "select_default_sqlite",
			dialect: SQLite{},
			build:   func(t *testing.T, q *SelectQuery) {},
		},
		{
			name:    "select_resolved_sqlite",
			dialect: SQLite{},
			build: func(t *testing.T, q *SelectQuery) {
				_, err := resolver.Build(q, resolvedOptions())
				require.NoError(t, err)
				q.OrderBy("entity.created_at", query.SortDirectionDesc).Skip(10).Take(5)
			},
			wantArgs: []any{"%@example.com", "CREATED", "VERIFIED"},
		},
		{
			name:    "select_resolved_postgres",
			dialect: Postgres{},
			build: func(t *testing.T, q *SelectQuery) {
				_, err := resolver.Build(q, resolvedOptions())
				require.NoError(t, err)
				q.OrderBy("entity.created_at", query.SortDirectionDesc).Skip(10).Take(5)
			},
			wantArgs: []any{"%@example.com", "CREATED", "VERIFIED"},
		},
		{
			name:    "count_resolved_sqlite",
			dialect: SQLite{},
			build: func(t *testing.T, q *SelectQuery) {
				_, err := resolver.Build(q, resolvedOptions())
				require.NoError(t, err)
				q.Skip(10).Take(5)
			},
			wantArgs: []any{"%@example.com", "CREATED", "VERIFIED"},
			count:    true,
		},
		{
			name:    "select_nested_include_sqlite",
			dialect: SQLite{},
			build: func(t *testing.T, q *SelectQuery) {
				_, err := resolver.Build(q, query.QueryOptions{Includes: []string{"profile.user"}})
				require.NoError(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := NewSelectQuery(tt.dialect, catalog, "", "users")
			require.NoError(t, err)
			tt.build(t, q)

			render := q.ToSQL
			if tt.count {
				render = q.CountSQL
			}
			sql, args, err := render()
			require.NoError(t, err)
			assert.Equal(t, tt.wantArgs, args)
			assertGolden(t, tt.name, sql)
		})
	}
}

func TestSelectQuery_ColumnTypes(t *testing.T) {
	q, err := NewSelectQuery(SQLite{}, testCatalog(t), "", "users")
	require.NoError(t, err)
	_, err = query.NewResolver(nil).Build(q, query.QueryOptions{
		Includes:        []string{"profile"},
		SelectsWithJoin: map[string][]string{"profile": {"active"}},
	})
	require.NoError(t, err)

	types := q.ColumnTypes()
	assert.Equal(t, "datetime", string(types["created_at"].Type))
	assert.Equal(t, "boolean", string(types["profile_0_0_active"].Type))
	assert.Equal(t, "boolean", string(types["profile_active"].Type))
}

func TestSelectQuery_Errors(t *testing.T) {
	catalog := testCatalog(t)

	t.Run("unknown entity", func(t *testing.T) {
		_, err := NewSelectQuery(SQLite{}, catalog, "", "accounts")
		assert.ErrorIs(t, err, ErrUnknownEntity)
	})

	t.Run("unknown relation surfaces at render time", func(t *testing.T) {
		q, err := NewSelectQuery(SQLite{}, catalog, "", "users")
		require.NoError(t, err)
		q.LeftJoinAndSelect("entity", "orders", "orders_0_0")
		_, _, err = q.ToSQL()
		assert.ErrorIs(t, err, ErrUnknownRelation)
		_, _, err = q.CountSQL()
		assert.ErrorIs(t, err, ErrUnknownRelation)
	})

	t.Run("unknown source alias", func(t *testing.T) {
		q, err := NewSelectQuery(SQLite{}, catalog, "", "users")
		require.NoError(t, err)
		q.LeftJoinAndSelect("profile_0_0", "user", "user_0_1")
		_, _, err = q.ToSQL()
		assert.ErrorIs(t, err, ErrUnknownRelation)
	})

	t.Run("unbound parameter", func(t *testing.T) {
		q, err := NewSelectQuery(SQLite{}, catalog, "", "users")
		require.NoError(t, err)
		q.Where("entity.email = :email", map[string]any{})
		_, _, err = q.ToSQL()
		assert.ErrorContains(t, err, `parameter "email" is not bound`)
	})

	t.Run("invalid output name", func(t *testing.T) {
		q, err := NewSelectQuery(SQLite{}, catalog, "", "users")
		require.NoError(t, err)
		q.AddSelect("entity.email", "e mail")
		_, _, err = q.ToSQL()
		assert.ErrorIs(t, err, query.ErrInvalidIdentifier)
	})
}

func TestBindNamed(t *testing.T) {
	tests := []struct {
		name      string
		dialect   Dialect
		condition string
		params    map[string]any
		offset    int
		want      string
		wantArgs  []any
	}{
		{
			name:      "scalar",
			dialect:   SQLite{},
			condition: "entity.id = :id",
			params:    map[string]any{"id": int64(1)},
			want:      "entity.id = ?",
			wantArgs:  []any{int64(1)},
		},
		{
			name:      "list expands",
			dialect:   Postgres{},
			condition: "entity.id IN (:id) AND entity.name = :name",
			params:    map[string]any{"id": []any{1, 2}, "name": "x"},
			offset:    2,
			want:      "entity.id IN ($3, $4) AND entity.name = $5",
			wantArgs:  []any{1, 2, "x"},
		},
		{
			name:      "empty list renders NULL",
			dialect:   SQLite{},
			condition: "entity.id IN (:id)",
			params:    map[string]any{"id": []any{}},
			want:      "entity.id IN (NULL)",
		},
		{
			name:      "casts and literals are untouched",
			dialect:   Postgres{},
			condition: "entity.created_at::date = :day AND entity.name != ':name'",
			params:    map[string]any{"day": "2024-01-01"},
			want:      "entity.created_at::date = $1 AND entity.name != ':name'",
			wantArgs:  []any{"2024-01-01"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, args, err := bindNamed(tt.dialect, tt.condition, tt.params, tt.offset)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestSQLite_RewriteCondition(t *testing.T) {
	got := SQLite{}.RewriteCondition("entity.email ILIKE :emailILIKE AND entity.name LIKE :nameLIKE")
	assert.Equal(t, "lower(entity.email) LIKE lower(:emailILIKE) AND entity.name LIKE :nameLIKE", got)
	assert.Equal(t, "entity.email ILIKE :e", Postgres{}.RewriteCondition("entity.email ILIKE :e"))
}

func TestLimitOffset(t *testing.T) {
	assert.Equal(t, "", SQLite{}.LimitOffset(0, 0))
	assert.Equal(t, "LIMIT 5", SQLite{}.LimitOffset(5, 0))
	assert.Equal(t, "LIMIT -1 OFFSET 3", SQLite{}.LimitOffset(0, 3))
	assert.Equal(t, "OFFSET 3", Postgres{}.LimitOffset(0, 3))
	assert.Equal(t, "LIMIT 5 OFFSET 3", Postgres{}.LimitOffset(5, 3))
}

func TestDialectFor(t *testing.T) {
	d, err := DialectFor("sqlite3")
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", d.Name())

	d, err = DialectFor("postgres")
	require.NoError(t, err)
	assert.Equal(t, "pgx", d.Name())

	_, err = DialectFor("mysql")
	assert.Error(t, err)
}
