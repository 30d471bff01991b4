package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	p, err := ParsePath("profile.avatar")
	require.NoError(t, err)
	assert.Equal(t, RelationPath{"profile", "avatar"}, p)
	assert.Equal(t, "profile.avatar", p.Key())
	assert.Equal(t, "avatar", p.Leaf())
	assert.Equal(t, RelationPath{"profile"}, p.Prefix(1))

	for _, bad := range []string{"", " ", "a..b", ".a", "a.", "a.b c"} {
		_, err := ParsePath(bad)
		assert.Error(t, err, bad)
	}
	_, err = ParsePath("a..b")
	assert.ErrorIs(t, err, ErrInvalidIncludePath)
	_, err = ParsePath("a;drop")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestAliasStore(t *testing.T) {
	s := NewAliasStore()
	alias, inserted, err := s.InsertIfAbsent(RelationPath{"profile"}, "profile_0_0")
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, "profile_0_0", alias)

	alias, inserted, err = s.InsertIfAbsent(RelationPath{"profile"}, "profile_1_0")
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, "profile_0_0", alias)

	_, _, err = s.InsertIfAbsent(RelationPath{"other"}, "profile_0_0")
	assert.ErrorIs(t, err, ErrAliasCollision)

	got, ok := s.Get(RelationPath{"profile"})
	assert.True(t, ok)
	assert.Equal(t, "profile_0_0", got)
	path, ok := s.PathOf("profile_0_0")
	assert.True(t, ok)
	assert.Equal(t, RelationPath{"profile"}, path)
	assert.Equal(t, 1, s.Len())
}

func TestResolveRelations(t *testing.T) {
	tests := []struct {
		name     string
		includes []string
		expected []JoinStep
	}{
		{
			name: "no includes",
		},
		{
			name:     "single",
			includes: []string{"profile"},
			expected: []JoinStep{
				{Source: "entity", Relation: "profile", Alias: "profile_0_0", Path: RelationPath{"profile"}},
			},
		},
		{
			name:     "prefix then nested then duplicate",
			includes: []string{"profile", "profile.avatar", "profile"},
			expected: []JoinStep{
				{Source: "entity", Relation: "profile", Alias: "profile_0_0", Path: RelationPath{"profile"}},
				{Source: "profile_0_0", Relation: "avatar", Alias: "avatar_1_1", Path: RelationPath{"profile", "avatar"}},
			},
		},
		{
			name:     "literal duplicate",
			includes: []string{"user", "user"},
			expected: []JoinStep{
				{Source: "entity", Relation: "user", Alias: "user_0_0", Path: RelationPath{"user"}},
			},
		},
		{
			name:     "nested first records every prefix",
			includes: []string{"user.profile", "user", "user.profile.avatar"},
			expected: []JoinStep{
				{Source: "entity", Relation: "user", Alias: "user_0_0", Path: RelationPath{"user"}},
				{Source: "user_0_0", Relation: "profile", Alias: "profile_0_1", Path: RelationPath{"user", "profile"}},
				{Source: "profile_0_1", Relation: "avatar", Alias: "avatar_2_2", Path: RelationPath{"user", "profile", "avatar"}},
			},
		},
		{
			name:     "same relation under different parents",
			includes: []string{"author.profile", "editor.profile"},
			expected: []JoinStep{
				{Source: "entity", Relation: "author", Alias: "author_0_0", Path: RelationPath{"author"}},
				{Source: "author_0_0", Relation: "profile", Alias: "profile_0_1", Path: RelationPath{"author", "profile"}},
				{Source: "entity", Relation: "editor", Alias: "editor_1_0", Path: RelationPath{"editor"}},
				{Source: "editor_1_0", Relation: "profile", Alias: "profile_1_1", Path: RelationPath{"editor", "profile"}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, steps, err := ResolveRelations("entity", tt.includes)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, steps)
			assert.Equal(t, len(tt.expected), store.Len())
		})
	}
}

func TestResolveRelations_EachPathJoinedOnce(t *testing.T) {
	includes := []string{"a.b.c", "a", "a.b", "a.b.c", "d", "a.d", "d.a", "a.b.c"}
	store, steps, err := ResolveRelations("entity", includes)
	require.NoError(t, err)

	paths := make(map[string]int)
	aliases := make(map[string]int)
	for _, s := range steps {
		paths[s.Path.Key()]++
		aliases[s.Alias]++
	}
	for p, n := range paths {
		assert.Equal(t, 1, n, "path %s joined %d times", p, n)
	}
	for a, n := range aliases {
		assert.Equal(t, 1, n, "alias %s used %d times", a, n)
	}
	assert.Len(t, steps, 6)
	assert.Equal(t, store.Len(), len(steps))
}

func TestResolveRelations_InvalidPath(t *testing.T) {
	_, _, err := ResolveRelations("entity", []string{"profile", "profile..avatar"})
	assert.ErrorIs(t, err, ErrInvalidIncludePath)
}
