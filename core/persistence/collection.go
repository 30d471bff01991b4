package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/asaidimu/go-roster/core/query"
	"github.com/asaidimu/go-roster/core/schema"
)

// ErrInvalidDocument is matched by every *ValidationError.
var ErrInvalidDocument = errors.New("document does not conform to schema")

// ValidationError carries the issues that made a write fail validation.
type ValidationError struct {
	Collection string
	Issues     []schema.Issue
}

func (e *ValidationError) Error() string {
	paths := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		paths = append(paths, issue.Path+": "+issue.Code)
	}
	return fmt.Sprintf("document for '%s' is invalid (%s)", e.Collection, strings.Join(paths, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidDocument
}

// Collection runs validated, event-emitting operations on one entity.
type Collection struct {
	schema   *schema.SchemaDefinition
	executor *Executor
	bus      *EventBus
}

// NewCollection creates a collection for s. A nil bus disables events.
func NewCollection(s *schema.SchemaDefinition, executor *Executor, bus *EventBus) *Collection {
	return &Collection{schema: s, executor: executor, bus: bus}
}

// Schema returns the collection's schema.
func (c *Collection) Schema() *schema.SchemaDefinition {
	return c.schema
}

// withEventEmission wraps an operation with start, success, and failure events
func (c *Collection) withEventEmission(
	operation string,
	startEventType PersistenceEventType,
	successEventType PersistenceEventType,
	failedEventType PersistenceEventType,
	input any,
	queryParam any,
	fn func() (any, error),
) (any, error) {
	startTime := time.Now()
	c.bus.Emit(createEvent(startEventType, operation, c.schema.Name, input, nil, queryParam, nil, nil, startTime))

	result, err := fn()
	if err != nil {
		errStr := err.Error()
		var issues []schema.Issue
		var verr *ValidationError
		if errors.As(err, &verr) {
			issues = verr.Issues
		}
		c.bus.Emit(createEvent(failedEventType, operation, c.schema.Name, input, nil, queryParam, &errStr, issues, startTime))
		return nil, err
	}

	c.bus.Emit(createEvent(successEventType, operation, c.schema.Name, input, result, queryParam, nil, nil, startTime))
	return result, nil
}

// Create validates record and inserts it, returning the stored document.
func (c *Collection) Create(ctx context.Context, record map[string]any) (schema.Document, error) {
	result, err := c.withEventEmission("create", DocumentCreateStart, DocumentCreateSuccess, DocumentCreateFailed, record, nil,
		func() (any, error) {
			if res := c.Validate(record, false); !res.Valid {
				return nil, &ValidationError{Collection: c.schema.Name, Issues: res.Issues}
			}
			inserted, err := c.executor.Insert(ctx, c.schema.Name, []map[string]any{record})
			if err != nil {
				return nil, fmt.Errorf("failed to insert data into collection '%s': %w", c.schema.Name, err)
			}
			if len(inserted.Data) != 1 {
				return nil, fmt.Errorf("insert into '%s' returned %d rows", c.schema.Name, len(inserted.Data))
			}
			return inserted.Data[0], nil
		})
	if err != nil {
		return nil, err
	}
	return result.(schema.Document), nil
}

// Read runs opts against the collection.
func (c *Collection) Read(ctx context.Context, opts query.QueryOptions) (*query.QueryResult, error) {
	result, err := c.withEventEmission("read", DocumentReadStart, DocumentReadSuccess, DocumentReadFailed, nil, opts,
		func() (any, error) {
			res, err := c.executor.Query(ctx, c.schema.Name, opts)
			if err != nil {
				return nil, fmt.Errorf("failed to read data from collection '%s': %w", c.schema.Name, err)
			}
			return res, nil
		})
	if err != nil {
		return nil, err
	}
	return result.(*query.QueryResult), nil
}

// Update validates params.Data loosely and applies it to the documents
// matching params.Filter.
func (c *Collection) Update(ctx context.Context, params CollectionUpdate) (int64, error) {
	result, err := c.withEventEmission("update", DocumentUpdateStart, DocumentUpdateSuccess, DocumentUpdateFailed, params.Data, params.Filter,
		func() (any, error) {
			if res := c.Validate(params.Data, true); !res.Valid {
				return nil, &ValidationError{Collection: c.schema.Name, Issues: res.Issues}
			}
			n, err := c.executor.Update(ctx, c.schema.Name, params.Data, params.Filter)
			if err != nil {
				return nil, fmt.Errorf("failed to update data in collection '%s': %w", c.schema.Name, err)
			}
			return n, nil
		})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

// Delete removes the documents matching filters.
func (c *Collection) Delete(ctx context.Context, filters query.Filters, unsafe bool) (int64, error) {
	result, err := c.withEventEmission("delete", DocumentDeleteStart, DocumentDeleteSuccess, DocumentDeleteFailed, nil, filters,
		func() (any, error) {
			n, err := c.executor.Delete(ctx, c.schema.Name, filters, unsafe)
			if err != nil {
				return nil, fmt.Errorf("failed to delete data from collection '%s': %w", c.schema.Name, err)
			}
			return n, nil
		})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

// Validate validates data against the collection's schema.
func (c *Collection) Validate(data map[string]any, loose bool) *schema.ValidationResult {
	valid, issues := schema.NewValidator(c.schema).Validate(data, loose)
	return &schema.ValidationResult{Valid: valid, Issues: issues}
}
