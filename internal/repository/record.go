// Package repository mediates between the persistence layer and reactive UI
// state. The record repository turns store changes into a continuously
// updating record sequence and folds every mutation outcome into an
// observable operation state; failures never propagate past its boundary.
package repository

import (
	"context"

	"github.com/99zwgp/AccountBook/internal/core"
	"github.com/99zwgp/AccountBook/internal/log"
	"github.com/99zwgp/AccountBook/internal/storage"
	"github.com/99zwgp/AccountBook/internal/stream"
)

// Human-readable messages surfaced through the operation state when the
// embedded store fails. The underlying error is logged, not shown.
const (
	msgSaveFailed   = "could not save the record"
	msgUpdateFailed = "could not update the record"
	msgDeleteFailed = "could not delete the record"
)

// RecordStore is the slice of the persistence layer the record repository
// depends on.
type RecordStore interface {
	InsertRecord(ctx context.Context, r core.Record) error
	UpdateRecord(ctx context.Context, r core.Record) error
	DeleteRecord(ctx context.Context, id, userID string) error
	GetRecord(ctx context.Context, id, userID string) (*core.Record, error)
	ListRecords(ctx context.Context, userID string) ([]core.Record, error)
	SumAmountByType(ctx context.Context, userID string, typ core.RecordType) (core.Money, error)
	SumExpenseByCategory(ctx context.Context, userID string) ([]storage.CategorySum, error)
	WatchRecords() (<-chan struct{}, func())
}

// RecordRepository wraps the store with operation-state tracking and the
// reactive record sequence.
type RecordRepository struct {
	store   RecordStore
	logger  *log.Logger
	opState *stream.Value[OperationState]
}

func NewRecordRepository(store RecordStore, logger *log.Logger) *RecordRepository {
	return &RecordRepository{
		store:   store,
		logger:  logger.WithComponent(log.ComponentRepository),
		opState: stream.NewValue(Idle()),
	}
}

// OperationState exposes the observable status of the most recent mutation.
func (r *RecordRepository) OperationState() *stream.Value[OperationState] {
	return r.opState
}

// ClearOperationState resets a terminal state back to idle so the UI does
// not redisplay a stale outcome.
func (r *RecordRepository) ClearOperationState() {
	r.opState.Set(Idle())
}

// Records returns a channel that emits the current record set of userID
// immediately and again after every store change, ordered by transaction
// date descending. The channel closes when ctx is done.
func (r *RecordRepository) Records(ctx context.Context, userID string) <-chan []core.Record {
	out := make(chan []core.Record, 1)
	changes, cancel := r.store.WatchRecords()

	go func() {
		defer close(out)
		defer cancel()
		for {
			records, err := r.store.ListRecords(ctx, userID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				r.logger.ErrorContext(ctx, "record stream query failed",
					log.FieldUserID, userID, log.FieldError, err)
			} else {
				select {
				case out <- records:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
			}
		}
	}()

	return out
}

// Add validates and persists a new record. The outcome lands in the
// operation state; Add itself never fails.
func (r *RecordRepository) Add(ctx context.Context, rec core.Record) {
	r.opState.Set(Loading())
	if err := rec.Validate(); err != nil {
		r.opState.Set(Failure(err.Error()))
		return
	}
	if err := r.store.InsertRecord(ctx, rec); err != nil {
		r.logger.ErrorContext(ctx, "add record failed",
			log.FieldRecordID, rec.ID, log.FieldUserID, rec.UserID, log.FieldError, err)
		r.opState.Set(Failure(msgSaveFailed))
		return
	}
	r.logger.InfoContext(ctx, "record added",
		log.FieldRecordID, rec.ID, log.FieldUserID, rec.UserID,
		log.FieldRecordType, string(rec.Type), log.FieldAmountCents, rec.Amount.Cents)
	r.opState.Set(Success())
}

// Update validates and overwrites an existing record. Last write wins; the
// entity's version counter is bumped by the store but never checked.
func (r *RecordRepository) Update(ctx context.Context, rec core.Record) {
	r.opState.Set(Loading())
	if err := rec.Validate(); err != nil {
		r.opState.Set(Failure(err.Error()))
		return
	}
	if err := r.store.UpdateRecord(ctx, rec); err != nil {
		r.logger.ErrorContext(ctx, "update record failed",
			log.FieldRecordID, rec.ID, log.FieldUserID, rec.UserID, log.FieldError, err)
		r.opState.Set(Failure(msgUpdateFailed))
		return
	}
	r.opState.Set(Success())
}

// Delete removes a record by id. Deleting a missing id still resolves to
// success: the end state is the same.
func (r *RecordRepository) Delete(ctx context.Context, id, userID string) {
	r.opState.Set(Loading())
	if err := r.store.DeleteRecord(ctx, id, userID); err != nil {
		r.logger.ErrorContext(ctx, "delete record failed",
			log.FieldRecordID, id, log.FieldUserID, userID, log.FieldError, err)
		r.opState.Set(Failure(msgDeleteFailed))
		return
	}
	r.opState.Set(Success())
}

// GetByID fetches a record scoped to its owner; a missing record is
// (nil, nil).
func (r *RecordRepository) GetByID(ctx context.Context, id, userID string) (*core.Record, error) {
	return r.store.GetRecord(ctx, id, userID)
}

// TotalByType delegates the summed amount of one record type to the store.
func (r *RecordRepository) TotalByType(ctx context.Context, userID string, typ core.RecordType) (core.Money, error) {
	return r.store.SumAmountByType(ctx, userID, typ)
}

// ExpenseByCategory delegates the grouped expense aggregate to the store.
func (r *RecordRepository) ExpenseByCategory(ctx context.Context, userID string) ([]storage.CategorySum, error) {
	return r.store.SumExpenseByCategory(ctx, userID)
}
