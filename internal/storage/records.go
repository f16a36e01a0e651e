package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/99zwgp/AccountBook/internal/core"
)

const recordColumns = `id, user_id, type, amount_cents, category, note, date, created_at, updated_at, version`

// CategorySum is one row of the per-category expense aggregate.
type CategorySum struct {
	Category string
	Amount   core.Money
}

// InsertRecord stores a record, replacing any existing row with the same id.
func (s *Store) InsertRecord(ctx context.Context, r core.Record) error {
	query := `INSERT OR REPLACE INTO records (` + recordColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.UserID, string(r.Type), r.Amount.Cents, r.Category, r.Note,
		r.Date.UnixMilli(), r.CreatedAt.UnixMilli(), r.UpdatedAt.UnixMilli(), r.Version)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	s.notifyRecords()
	return nil
}

// UpdateRecord overwrites the mutable fields of an existing record. The
// stored version is incremented and updated_at is bumped past its previous
// value, so updated_at strictly increases even for back-to-back edits.
// Last write wins: no version predicate is applied.
func (s *Store) UpdateRecord(ctx context.Context, r core.Record) error {
	query := `UPDATE records
		SET type = ?, amount_cents = ?, category = ?, note = ?, date = ?,
		    updated_at = MAX(updated_at + 1, ?), version = version + 1
		WHERE id = ? AND user_id = ?`
	_, err := s.db.ExecContext(ctx, query,
		string(r.Type), r.Amount.Cents, r.Category, r.Note, r.Date.UnixMilli(),
		time.Now().UnixMilli(), r.ID, r.UserID)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	s.notifyRecords()
	return nil
}

// DeleteRecord removes a record. Deleting an id that does not exist is a
// no-op, not an error.
func (s *Store) DeleteRecord(ctx context.Context, id, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	s.notifyRecords()
	return nil
}

// DeleteRecordsByUser removes every record owned by userID.
func (s *Store) DeleteRecordsByUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete records by user: %w", err)
	}
	s.notifyRecords()
	return nil
}

// GetRecord fetches a record by id scoped to its owner. A missing record is
// reported as (nil, nil).
func (s *Store) GetRecord(ctx context.Context, id, userID string) (*core.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE id = ? AND user_id = ?`
	r, err := scanRecord(s.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return &r, nil
}

// ListRecords returns all records of userID ordered by transaction date
// descending.
func (s *Store) ListRecords(ctx context.Context, userID string) ([]core.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE user_id = ? ORDER BY date DESC, created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []core.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// SumAmountByType returns the summed amount of userID's records of the given
// type. An empty set sums to zero.
func (s *Store) SumAmountByType(ctx context.Context, userID string, typ core.RecordType) (core.Money, error) {
	query := `SELECT COALESCE(SUM(amount_cents), 0) FROM records WHERE user_id = ? AND type = ?`
	var cents int64
	if err := s.db.QueryRowContext(ctx, query, userID, string(typ)).Scan(&cents); err != nil {
		return core.Money{}, fmt.Errorf("sum amount by type: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// SumExpenseByCategory groups userID's expense records by category and sums
// each group. Group order is unspecified.
func (s *Store) SumExpenseByCategory(ctx context.Context, userID string) ([]CategorySum, error) {
	query := `SELECT category, SUM(amount_cents) FROM records WHERE user_id = ? AND type = 'EXPENSE' GROUP BY category`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("sum expense by category: %w", err)
	}
	defer rows.Close()

	var sums []CategorySum
	for rows.Next() {
		var cs CategorySum
		if err := rows.Scan(&cs.Category, &cs.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		sums = append(sums, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sum expense by category: %w", err)
	}
	return sums, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (core.Record, error) {
	var r core.Record
	var typ string
	var date, createdAt, updatedAt int64
	err := row.Scan(&r.ID, &r.UserID, &typ, &r.Amount.Cents, &r.Category, &r.Note,
		&date, &createdAt, &updatedAt, &r.Version)
	if err != nil {
		return core.Record{}, err
	}
	r.Type = core.RecordType(typ)
	r.Date = time.UnixMilli(date)
	r.CreatedAt = time.UnixMilli(createdAt)
	r.UpdatedAt = time.UnixMilli(updatedAt)
	return r, nil
}
