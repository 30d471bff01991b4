package query

import (
	"errors"
	"fmt"
)

// ErrAliasCollision is returned when one alias would name two paths.
var ErrAliasCollision = errors.New("alias collision")

// AliasEntry pairs a relation path with its join alias.
type AliasEntry struct {
	Path  RelationPath
	Alias string
}

// AliasStore maps relation paths to join aliases. Entries are never
// overwritten and keep their insertion order.
type AliasStore struct {
	byPath  map[string]int
	byAlias map[string]string
	entries []AliasEntry
}

// NewAliasStore creates an empty store.
func NewAliasStore() *AliasStore {
	return &AliasStore{
		byPath:  make(map[string]int),
		byAlias: make(map[string]string),
	}
}

// Get returns the alias recorded for path.
func (s *AliasStore) Get(path RelationPath) (string, bool) {
	i, ok := s.byPath[path.Key()]
	if !ok {
		return "", false
	}
	return s.entries[i].Alias, true
}

// InsertIfAbsent records alias for path unless path is already known. It
// returns the alias now stored for path and whether it was inserted.
func (s *AliasStore) InsertIfAbsent(path RelationPath, alias string) (string, bool, error) {
	key := path.Key()
	if i, ok := s.byPath[key]; ok {
		return s.entries[i].Alias, false, nil
	}
	if owner, ok := s.byAlias[alias]; ok {
		return "", false, fmt.Errorf("%w: %q already names %q", ErrAliasCollision, alias, owner)
	}
	s.byPath[key] = len(s.entries)
	s.byAlias[alias] = key
	s.entries = append(s.entries, AliasEntry{Path: append(RelationPath(nil), path...), Alias: alias})
	return alias, true, nil
}

// PathOf returns the path an alias was recorded for.
func (s *AliasStore) PathOf(alias string) (RelationPath, bool) {
	key, ok := s.byAlias[alias]
	if !ok {
		return nil, false
	}
	return s.entries[s.byPath[key]].Path, true
}

// Entries returns the recorded entries in insertion order.
func (s *AliasStore) Entries() []AliasEntry {
	return append([]AliasEntry(nil), s.entries...)
}

// Len is the number of recorded paths.
func (s *AliasStore) Len() int {
	return len(s.entries)
}
