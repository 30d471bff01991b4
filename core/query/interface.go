package query

// Handle is a query under construction, rooted at one entity. Every method
// returns the handle so calls can be chained.
type Handle interface {
	// Alias is the root alias, "entity" for handles made by a HandleFactory.
	Alias() string
	// LeftJoinAndSelect joins relation of the entity aliased sourceAlias under
	// alias and selects its columns.
	LeftJoinAndSelect(sourceAlias, relation, alias string) Handle
	// Where ANDs a condition referencing :name parameters from params.
	Where(condition string, params map[string]any) Handle
	// Select replaces the selection with columns.
	Select(columns ...string) Handle
	// AddSelect appends column under the output name alias.
	AddSelect(column, alias string) Handle
}

// RootAlias is the alias of the root entity of every handle.
const RootAlias = "entity"

// HandleFactory begins queries rooted at a named entity.
type HandleFactory interface {
	NewHandle(entity string) (Handle, error)
}
