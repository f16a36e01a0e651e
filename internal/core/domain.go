package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	Income  RecordType = "INCOME"
	Expense RecordType = "EXPENSE"
)

type (
	// RecordType distinguishes income from expense records.
	RecordType string

	// Record is a single income or expense transaction owned by one user.
	Record struct {
		ID        string
		UserID    string
		Type      RecordType
		Amount    Money
		Category  string
		Note      string
		Date      time.Time
		CreatedAt time.Time
		UpdatedAt time.Time
		Version   int64
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyCategory = errors.New("empty category")
	ErrInvalidType   = errors.New("invalid record type")
	ErrEmptyUserID   = errors.New("empty user id")
)

// Category vocabularies shown by the UI for each record type. These are a
// display convention: the store accepts any non-empty category string.
var (
	ExpenseCategories = []string{"Food", "Transport", "Shopping", "Entertainment", "Medical", "Education", "Housing", "Other"}
	IncomeCategories  = []string{"Salary", "Bonus", "Investment", "Part-time", "Other"}
)

// NewRecord builds a record with a fresh id, version 1 and both timestamps
// set to now. The transaction date defaults to now when zero.
func NewRecord(userID string, typ RecordType, amount Money, category, note string, date time.Time) Record {
	now := time.Now()
	if date.IsZero() {
		date = now
	}
	return Record{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      typ,
		Amount:    amount,
		Category:  category,
		Note:      note,
		Date:      date,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
}

func (t RecordType) Valid() bool {
	return t == Income || t == Expense
}

func (r Record) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return ErrEmptyUserID
	}
	if !r.Type.Valid() {
		return ErrInvalidType
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}
