// Package sqlstore implements persistence.DatabaseInteractor on top of
// database/sql for SQLite and PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/asaidimu/go-roster/core/persistence"
	"github.com/asaidimu/go-roster/core/query"
	"github.com/asaidimu/go-roster/core/schema"
	"go.uber.org/zap"
)

// ErrUnsafeDelete is returned by DeleteDocuments when called without filters
// and without unsafeDelete.
var ErrUnsafeDelete = errors.New("DELETE without WHERE clause is not allowed for safety. Set unsafeDelete=true to override")

// dbRunner abstracts *sql.DB and *sql.Tx.
type dbRunner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Interactor runs statements built from a schema catalog against a database.
// It operates on the connection pool, or on a transaction when created by
// StartTransaction.
type Interactor struct {
	db      *sql.DB
	tx      *sql.Tx
	dialect Dialect
	catalog *schema.Catalog
	logger  *zap.Logger
	options *persistence.InteractorOptions
}

var _ persistence.DatabaseInteractor = (*Interactor)(nil)

// NewInteractor creates an interactor over db.
func NewInteractor(db *sql.DB, dialect Dialect, catalog *schema.Catalog, logger *zap.Logger, options *persistence.InteractorOptions) *Interactor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if options == nil {
		options = DefaultInteractorOptions()
	}
	return &Interactor{
		db:      db,
		dialect: dialect,
		catalog: catalog,
		logger:  logger,
		options: options,
	}
}

func (s *Interactor) runner() dbRunner {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Dialect returns the interactor's dialect.
func (s *Interactor) Dialect() Dialect {
	return s.dialect
}

func (s *Interactor) entity(name string) (*schema.SchemaDefinition, error) {
	sc, ok := s.catalog.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, name)
	}
	return sc, nil
}

// NewStatement begins a SELECT on entity.
func (s *Interactor) NewStatement(entity string) (persistence.Statement, error) {
	q, err := NewSelectQuery(s.dialect, s.catalog, s.options.TablePrefix, entity)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// NewHandle implements query.HandleFactory.
func (s *Interactor) NewHandle(entity string) (query.Handle, error) {
	return s.NewStatement(entity)
}

func (s *Interactor) selectQuery(st persistence.Statement) (*SelectQuery, error) {
	q, ok := st.(*SelectQuery)
	if !ok {
		return nil, fmt.Errorf("statement of type %T was not created by this interactor", st)
	}
	return q, nil
}

// Select runs st.
func (s *Interactor) Select(ctx context.Context, st persistence.Statement) ([]schema.Document, error) {
	q, err := s.selectQuery(st)
	if err != nil {
		return nil, err
	}
	sqlQuery, args, err := q.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to generate SQL query: %w", err)
	}

	s.logger.Debug("Executing SQL SELECT", zap.String("sql", sqlQuery), zap.Any("params", args))
	rows, err := s.runner().QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		s.logger.Error("Failed to execute SELECT query", zap.Error(err), zap.String("sql", sqlQuery))
		return nil, fmt.Errorf("failed to execute SELECT query: %w", err)
	}
	defer rows.Close()
	return readRows(s.logger, q.ColumnTypes(), rows)
}

// Count counts the rows st matches.
func (s *Interactor) Count(ctx context.Context, st persistence.Statement) (int, error) {
	q, err := s.selectQuery(st)
	if err != nil {
		return 0, err
	}
	sqlQuery, args, err := q.CountSQL()
	if err != nil {
		return 0, fmt.Errorf("failed to generate SQL query: %w", err)
	}

	s.logger.Debug("Executing SQL COUNT", zap.String("sql", sqlQuery), zap.Any("params", args))
	var n int
	if err := s.runner().QueryRowContext(ctx, sqlQuery, args...).Scan(&n); err != nil {
		s.logger.Error("Failed to execute COUNT query", zap.Error(err), zap.String("sql", sqlQuery))
		return 0, fmt.Errorf("failed to execute COUNT query: %w", err)
	}
	return n, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// InsertSQL renders the INSERT of one record.
func (s *Interactor) InsertSQL(sc *schema.SchemaDefinition, record map[string]any) (string, []any, error) {
	if len(record) == 0 {
		return "INSERT INTO " + s.tableName(sc.Name) + " DEFAULT VALUES RETURNING *", nil, nil
	}
	var columns, placeholders []string
	var args []any
	for _, name := range sortedKeys(record) {
		field := sc.FindField(name)
		if field == nil {
			return "", nil, fmt.Errorf("field '%s' not found in schema", name)
		}
		columns = append(columns, QuoteIdentifier(name))
		args = append(args, s.dialect.BindValue(field, record[name]))
		placeholders = append(placeholders, s.dialect.Placeholder(len(args)))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		s.tableName(sc.Name), strings.Join(columns, ", "), strings.Join(placeholders, ", ")), args, nil
}

// InsertDocuments inserts records one at a time and returns the stored rows.
func (s *Interactor) InsertDocuments(ctx context.Context, entity string, records []map[string]any) ([]schema.Document, error) {
	sc, err := s.entity(entity)
	if err != nil {
		return nil, err
	}
	types := make(map[string]*schema.FieldDefinition, len(sc.Fields))
	for name, f := range sc.Fields {
		types[name] = f
	}

	inserted := make([]schema.Document, 0, len(records))
	for _, record := range records {
		sqlQuery, args, err := s.InsertSQL(sc, record)
		if err != nil {
			return nil, fmt.Errorf("failed to generate INSERT SQL: %w", err)
		}
		s.logger.Debug("Executing SQL INSERT with RETURNING clause", zap.String("sql", sqlQuery), zap.Any("params", args))

		rows, err := s.runner().QueryContext(ctx, sqlQuery, args...)
		if err != nil {
			s.logger.Error("Failed to execute INSERT ... RETURNING query", zap.Error(err), zap.String("sql", sqlQuery))
			return nil, fmt.Errorf("failed to execute INSERT ... RETURNING query: %w", err)
		}
		docs, err := readRows(s.logger, types, rows)
		rows.Close()
		if err != nil {
			return nil, err
		}
		inserted = append(inserted, docs...)
	}
	return inserted, nil
}

// filterClause compiles filters on the root alias into a WHERE body.
func (s *Interactor) filterClause(filters query.Filters, offset int) (string, []any, error) {
	predicates, params, err := query.CompileFilters(query.RootAlias, filters)
	if err != nil {
		return "", nil, err
	}
	if len(predicates) == 0 {
		return "", nil, nil
	}
	condition := s.dialect.RewriteCondition(query.JoinPredicates(predicates))
	return bindNamed(s.dialect, condition, params.Map(), offset)
}

// UpdateSQL renders an UPDATE of the rows matching filters.
func (s *Interactor) UpdateSQL(sc *schema.SchemaDefinition, updates map[string]any, filters query.Filters) (string, []any, error) {
	if len(updates) == 0 {
		return "", nil, fmt.Errorf("no fields provided for update")
	}
	var sets []string
	var args []any
	for _, name := range sortedKeys(updates) {
		field := sc.FindField(name)
		if field == nil {
			return "", nil, fmt.Errorf("update set clause error: field '%s' not found in schema", name)
		}
		args = append(args, s.dialect.BindValue(field, updates[name]))
		sets = append(sets, QuoteIdentifier(name)+" = "+s.dialect.Placeholder(len(args)))
	}

	where, whereArgs, err := s.filterClause(filters, len(args))
	if err != nil {
		return "", nil, fmt.Errorf("error building WHERE clause for update: %w", err)
	}
	stmt := fmt.Sprintf("UPDATE %s AS %s SET %s", s.tableName(sc.Name), query.RootAlias, strings.Join(sets, ", "))
	if where != "" {
		stmt += " WHERE " + where
	}
	return stmt, append(args, whereArgs...), nil
}

// UpdateDocuments applies updates to the rows matching filters.
func (s *Interactor) UpdateDocuments(ctx context.Context, entity string, updates map[string]any, filters query.Filters) (int64, error) {
	sc, err := s.entity(entity)
	if err != nil {
		return 0, err
	}
	sqlQuery, args, err := s.UpdateSQL(sc, updates, filters)
	if err != nil {
		return 0, fmt.Errorf("failed to generate SQL UPDATE query: %w", err)
	}

	s.logger.Debug("Executing SQL UPDATE", zap.String("sql", sqlQuery), zap.Any("params", args))
	result, err := s.runner().ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		s.logger.Error("Failed to execute UPDATE query", zap.Error(err), zap.String("sql", sqlQuery))
		return 0, fmt.Errorf("failed to execute UPDATE query: %w", err)
	}
	return result.RowsAffected()
}

// DeleteSQL renders a DELETE of the rows matching filters.
func (s *Interactor) DeleteSQL(sc *schema.SchemaDefinition, filters query.Filters, unsafeDelete bool) (string, []any, error) {
	if len(filters) == 0 && !unsafeDelete {
		return "", nil, ErrUnsafeDelete
	}
	where, args, err := s.filterClause(filters, 0)
	if err != nil {
		return "", nil, fmt.Errorf("error building WHERE clause for delete: %w", err)
	}
	stmt := fmt.Sprintf("DELETE FROM %s AS %s", s.tableName(sc.Name), query.RootAlias)
	if where != "" {
		stmt += " WHERE " + where
	}
	return stmt, args, nil
}

// DeleteDocuments removes the rows matching filters.
func (s *Interactor) DeleteDocuments(ctx context.Context, entity string, filters query.Filters, unsafeDelete bool) (int64, error) {
	sc, err := s.entity(entity)
	if err != nil {
		return 0, err
	}
	sqlQuery, args, err := s.DeleteSQL(sc, filters, unsafeDelete)
	if err != nil {
		return 0, fmt.Errorf("failed to generate DELETE SQL: %w", err)
	}

	s.logger.Debug("Executing SQL DELETE", zap.String("sql", sqlQuery), zap.Any("params", args))
	result, err := s.runner().ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		s.logger.Error("Failed to execute DELETE query", zap.Error(err), zap.String("sql", sqlQuery))
		return 0, fmt.Errorf("failed to execute DELETE query: %w", err)
	}
	return result.RowsAffected()
}

// StartTransaction begins a transaction and returns an interactor scoped to it.
func (s *Interactor) StartTransaction(ctx context.Context) (persistence.DatabaseInteractor, error) {
	if s.tx != nil {
		return nil, fmt.Errorf("cannot start a new transaction from an existing transactional interactor")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	s.logger.Debug("Transaction initiated, returning new transactional interactor")
	clone := *s
	clone.tx = tx
	return &clone, nil
}

// Commit commits the current transaction.
func (s *Interactor) Commit(ctx context.Context) error {
	if s.tx == nil {
		return fmt.Errorf("commit not applicable: not in a transactional context")
	}
	s.logger.Debug("Committing transaction")
	return s.tx.Commit()
}

// Rollback rolls back the current transaction.
func (s *Interactor) Rollback(ctx context.Context) error {
	if s.tx == nil {
		return fmt.Errorf("rollback not applicable: not in a transactional context")
	}
	s.logger.Debug("Rolling back transaction")
	return s.tx.Rollback()
}
