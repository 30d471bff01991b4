package persistence

import (
	"context"

	"github.com/asaidimu/go-roster/core/query"
	"github.com/asaidimu/go-roster/core/schema"
)

// InteractorOptions provides configuration for the interactor.
type InteractorOptions struct {
	// IfNotExists adds IF NOT EXISTS to CREATE TABLE statements.
	IfNotExists bool

	// DropIfExists drops the table before creating it.
	DropIfExists bool

	// CreateIndexes creates the indexes defined in the schema along with the table.
	CreateIndexes bool

	// TablePrefix is prepended to every table name.
	TablePrefix string
}

// Statement is a SELECT under construction. Beyond the query.Handle surface
// it carries the ordering and pagination the caller adds once the resolver
// is done with it.
type Statement interface {
	query.Handle
	// Entity is the name of the root entity.
	Entity() string
	// OrderBy adds a sort on a column reference such as "entity.created_at".
	OrderBy(column string, direction query.SortDirection) Statement
	// Skip drops the first n rows.
	Skip(n int) Statement
	// Take limits the result to n rows. Zero means no limit.
	Take(n int) Statement
}

// DatabaseInteractor defines the interface for interacting with the database.
// It can operate in either a non-transactional (default) or transactional mode.
type DatabaseInteractor interface {
	// NewStatement begins a SELECT rooted at entity, aliased query.RootAlias.
	NewStatement(entity string) (Statement, error)

	// Select runs st and returns one document per row, keyed by output name.
	Select(ctx context.Context, st Statement) ([]schema.Document, error)
	// Count returns the number of rows st matches, ignoring Skip and Take.
	Count(ctx context.Context, st Statement) (int, error)

	InsertDocuments(ctx context.Context, entity string, records []map[string]any) ([]schema.Document, error)
	UpdateDocuments(ctx context.Context, entity string, updates map[string]any, filters query.Filters) (int64, error)
	// DeleteDocuments refuses to run without filters unless unsafeDelete is set.
	DeleteDocuments(ctx context.Context, entity string, filters query.Filters, unsafeDelete bool) (int64, error)

	// CreateCollection creates the table and indexes of a schema.
	CreateCollection(ctx context.Context, s schema.SchemaDefinition) error
	// DropCollection drops a table if it exists.
	DropCollection(ctx context.Context, name string) error
	// CollectionExists checks if a table exists in the database.
	CollectionExists(ctx context.Context, name string) (bool, error)

	// StartTransaction returns a new interactor bound to a transaction. The
	// receiver stays non-transactional.
	StartTransaction(ctx context.Context) (DatabaseInteractor, error)
	// Commit commits the transaction of an interactor returned by StartTransaction.
	Commit(ctx context.Context) error
	// Rollback rolls back the transaction of an interactor returned by StartTransaction.
	Rollback(ctx context.Context) error
}
