package persistence

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Transact runs fn with a Persistence bound to a new transaction. The
// transaction commits when fn returns nil and rolls back otherwise. Events
// emitted inside fn go to the same bus as the outer Persistence.
func (p *Persistence) Transact(ctx context.Context, fn func(tx *Persistence) error) error {
	startTime := time.Now()
	p.bus.Emit(createEvent(TransactionStart, "transaction", "", nil, nil, nil, nil, nil, startTime))

	txInteractor, err := p.interactor.StartTransaction(ctx)
	if err != nil {
		return p.transactionFailed(startTime, err)
	}

	tx := &Persistence{
		interactor: txInteractor,
		catalog:    p.catalog,
		executor:   p.executor.WithInteractor(txInteractor),
		bus:        p.bus,
		logger:     p.logger,
	}

	if err := fn(tx); err != nil {
		if rbErr := txInteractor.Rollback(ctx); rbErr != nil {
			p.logger.Error("Failed to roll back transaction", zap.Error(rbErr))
		}
		return p.transactionFailed(startTime, err)
	}

	if err := txInteractor.Commit(ctx); err != nil {
		return p.transactionFailed(startTime, fmt.Errorf("failed to commit transaction: %w", err))
	}
	p.bus.Emit(createEvent(TransactionSuccess, "transaction", "", nil, nil, nil, nil, nil, startTime))
	return nil
}

func (p *Persistence) transactionFailed(startTime time.Time, err error) error {
	errStr := err.Error()
	p.bus.Emit(createEvent(TransactionFailed, "transaction", "", nil, nil, nil, &errStr, nil, startTime))
	return err
}
