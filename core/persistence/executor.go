package persistence

import (
	"context"
	"fmt"

	"github.com/asaidimu/go-roster/core/query"
	"go.uber.org/zap"
)

// Executor runs QueryOptions against a DatabaseInteractor: it resolves the
// options onto a statement, adds ordering and pagination, and hydrates the
// rows that come back.
type Executor struct {
	interactor DatabaseInteractor
	resolver   *query.Resolver
	processor  *query.DataProcessor
	logger     *zap.Logger
}

func NewExecutor(interactor DatabaseInteractor, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		interactor: interactor,
		resolver:   query.NewResolver(logger),
		processor:  query.NewDataProcessor(logger),
		logger:     logger,
	}
}

// WithInteractor returns an executor sharing this one's resolver and
// processor but running against interactor, typically a transaction.
func (e *Executor) WithInteractor(interactor DatabaseInteractor) *Executor {
	clone := *e
	clone.interactor = interactor
	return &clone
}

// Interactor returns the interactor the executor runs against.
func (e *Executor) Interactor() DatabaseInteractor {
	return e.interactor
}

// Query runs opts against entity. Count is the number of matching rows before
// pagination.
func (e *Executor) Query(ctx context.Context, entity string, opts query.QueryOptions) (*query.QueryResult, error) {
	st, err := e.interactor.NewStatement(entity)
	if err != nil {
		return nil, err
	}

	plan, err := e.resolver.Compile(st.Alias(), opts)
	if err != nil {
		return nil, err
	}
	plan.Apply(st)

	for _, o := range opts.Orders {
		if !query.ValidIdentifier(o.Field) {
			return nil, fmt.Errorf("%w: order field %q", query.ErrInvalidIdentifier, o.Field)
		}
		st.OrderBy(st.Alias()+"."+o.Field, o.Direction)
	}

	count := -1
	if opts.Pagination != nil {
		count, err = e.interactor.Count(ctx, st)
		if err != nil {
			return nil, err
		}
		page := opts.Pagination.Normalize()
		st.Skip(page.Skip()).Take(page.Take)
	}

	rows, err := e.interactor.Select(ctx, st)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("Fetched rows from DB", zap.String("entity", entity), zap.Int("count", len(rows)))

	docs := e.processor.Hydrate(rows, plan)
	if count < 0 {
		count = len(docs)
	}
	return &query.QueryResult{Data: docs, Count: count}, nil
}

// Insert performs an insert operation and returns the inserted records.
func (e *Executor) Insert(ctx context.Context, entity string, records []map[string]any) (*query.QueryResult, error) {
	inserted, err := e.interactor.InsertDocuments(ctx, entity, records)
	if err != nil {
		return nil, err
	}
	return &query.QueryResult{Data: inserted, Count: len(inserted)}, nil
}

// Update performs an update operation on the database.
func (e *Executor) Update(ctx context.Context, entity string, updates map[string]any, filters query.Filters) (int64, error) {
	return e.interactor.UpdateDocuments(ctx, entity, updates, filters)
}

// Delete performs a delete operation with optional filters for safety.
func (e *Executor) Delete(ctx context.Context, entity string, filters query.Filters, unsafeDelete bool) (int64, error) {
	return e.interactor.DeleteDocuments(ctx, entity, filters, unsafeDelete)
}
