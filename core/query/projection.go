package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownJoinSelection is returned for a joined selection whose key is not
// a root-level include.
var ErrUnknownJoinSelection = errors.New("unknown join selection")

// Column is one additional projected column.
type Column struct {
	Expr  string
	Alias string
}

// SelectList is the projection to apply to a handle. An empty Root leaves the
// default root selection in place.
type SelectList struct {
	Root   []string
	Joined []Column
}

// Project builds the select list for rootAlias. Joined keys must name
// root-level relations already recorded in store; nested paths are not
// addressable.
func Project(rootAlias string, selects []string, selectsWithJoin map[string][]string, store *AliasStore) (SelectList, error) {
	var list SelectList
	for _, field := range selects {
		if err := checkIdentifier("field", field); err != nil {
			return SelectList{}, err
		}
		list.Root = append(list.Root, rootAlias+"."+field)
	}

	keys := make([]string, 0, len(selectsWithJoin))
	for k := range selectsWithJoin {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if strings.Contains(key, ".") {
			return SelectList{}, fmt.Errorf("%w: %q is a nested path", ErrUnknownJoinSelection, key)
		}
		alias, ok := store.Get(RelationPath{key})
		if !ok {
			return SelectList{}, fmt.Errorf("%w: %q is not included", ErrUnknownJoinSelection, key)
		}
		for _, field := range selectsWithJoin[key] {
			if err := checkIdentifier("field", field); err != nil {
				return SelectList{}, err
			}
			list.Joined = append(list.Joined, Column{
				Expr:  alias + "." + field,
				Alias: key + "_" + field,
			})
		}
	}
	return list, nil
}

// Columns renders the list the way it is applied to a handle.
func (l SelectList) Columns() []string {
	out := append([]string(nil), l.Root...)
	for _, c := range l.Joined {
		out = append(out, c.Expr+" AS "+c.Alias)
	}
	return out
}
