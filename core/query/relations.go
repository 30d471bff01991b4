package query

import "fmt"

// JoinStep is one LEFT JOIN to apply: Relation of the entity aliased as
// Source, aliased as Alias.
type JoinStep struct {
	Source   string
	Relation string
	Alias    string
	Path     RelationPath
}

// JoinAlias is the alias assigned to the segIdx-th segment of the
// pathIdx-th include.
func JoinAlias(leaf string, pathIdx, segIdx int) string {
	return fmt.Sprintf("%s_%d_%d", leaf, pathIdx, segIdx)
}

// ResolveRelations walks includes in order and plans exactly one join per
// distinct relation path prefix. A prefix already joined by an earlier
// include is reused as the parent of later segments.
func ResolveRelations(rootAlias string, includes []string) (*AliasStore, []JoinStep, error) {
	store := NewAliasStore()
	var steps []JoinStep
	for i, include := range includes {
		path, err := ParsePath(include)
		if err != nil {
			return nil, nil, err
		}
		parent := rootAlias
		for k := range path {
			prefix := path.Prefix(k + 1)
			alias, inserted, err := store.InsertIfAbsent(prefix, JoinAlias(path[k], i, k))
			if err != nil {
				return nil, nil, err
			}
			if inserted {
				steps = append(steps, JoinStep{
					Source:   parent,
					Relation: path[k],
					Alias:    alias,
					Path:     store.entries[len(store.entries)-1].Path,
				})
			}
			parent = alias
		}
	}
	return store, steps, nil
}
