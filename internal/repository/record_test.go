package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/99zwgp/AccountBook/internal/core"
	"github.com/99zwgp/AccountBook/internal/log"
	"github.com/99zwgp/AccountBook/internal/storage"
)

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

// fakeStore is an in-memory RecordStore with injectable failures.
type fakeStore struct {
	mu       sync.Mutex
	records  map[string]core.Record
	failWith error
	watchers []chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]core.Record)}
}

func (f *fakeStore) notify() {
	for _, ch := range f.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (f *fakeStore) InsertRecord(_ context.Context, r core.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.records[r.ID] = r
	f.notify()
	return nil
}

func (f *fakeStore) UpdateRecord(_ context.Context, r core.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if old, ok := f.records[r.ID]; ok && old.UserID == r.UserID {
		r.CreatedAt = old.CreatedAt
		r.Version = old.Version + 1
		r.UpdatedAt = old.UpdatedAt.Add(time.Millisecond)
		f.records[r.ID] = r
		f.notify()
	}
	return nil
}

func (f *fakeStore) DeleteRecord(_ context.Context, id, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if old, ok := f.records[id]; ok && old.UserID == userID {
		delete(f.records, id)
	}
	f.notify()
	return nil
}

func (f *fakeStore) GetRecord(_ context.Context, id, userID string) (*core.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	if r, ok := f.records[id]; ok && r.UserID == userID {
		return &r, nil
	}
	return nil, nil
}

func (f *fakeStore) ListRecords(_ context.Context, userID string) ([]core.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	var out []core.Record
	for _, r := range f.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (f *fakeStore) SumAmountByType(_ context.Context, userID string, typ core.RecordType) (core.Money, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return core.Money{}, f.failWith
	}
	var total core.Money
	for _, r := range f.records {
		if r.UserID == userID && r.Type == typ {
			total.Cents += r.Amount.Cents
		}
	}
	return total, nil
}

func (f *fakeStore) SumExpenseByCategory(_ context.Context, userID string) ([]storage.CategorySum, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	byName := make(map[string]int64)
	for _, r := range f.records {
		if r.UserID == userID && r.Type == core.Expense {
			byName[r.Category] += r.Amount.Cents
		}
	}
	var out []storage.CategorySum
	for name, cents := range byName {
		out = append(out, storage.CategorySum{Category: name, Amount: core.Money{Cents: cents}})
	}
	return out, nil
}

func (f *fakeStore) WatchRecords() (<-chan struct{}, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{}, 1)
	f.watchers = append(f.watchers, ch)
	return ch, func() {}
}

func (f *fakeStore) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWith = err
}

func waitPhase(t *testing.T, repo *RecordRepository, want Phase) OperationState {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		state := repo.OperationState().Get()
		if state.Phase == want {
			return state
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for phase %v, last %v", want, state.Phase)
		case <-time.After(time.Millisecond):
		}
	}
}

func TestAddResolvesToSuccess(t *testing.T) {
	store := newFakeStore()
	repo := NewRecordRepository(store, testLogger())
	ctx := context.Background()

	rec := core.NewRecord("user-1", core.Expense, core.Money{Cents: 100}, "Food", "", time.Now())
	repo.Add(ctx, rec)

	state := waitPhase(t, repo, PhaseSuccess)
	if state.Message != "" {
		t.Fatalf("success must carry no message, got %q", state.Message)
	}
	got, err := repo.GetByID(ctx, rec.ID, "user-1")
	if err != nil || got == nil {
		t.Fatalf("record not persisted: %v", err)
	}
}

func TestAddInvalidRecordFailsBeforeStore(t *testing.T) {
	store := newFakeStore()
	repo := NewRecordRepository(store, testLogger())

	rec := core.NewRecord("user-1", core.Expense, core.Money{}, "Food", "", time.Now())
	repo.Add(context.Background(), rec)

	state := waitPhase(t, repo, PhaseError)
	if state.Message == "" {
		t.Fatal("error state must carry a message")
	}
	if len(store.records) != 0 {
		t.Fatal("invalid record must not reach the store")
	}
}

func TestAddStoreFailureBecomesErrorState(t *testing.T) {
	store := newFakeStore()
	store.fail(errors.New("disk I/O error"))
	repo := NewRecordRepository(store, testLogger())

	rec := core.NewRecord("user-1", core.Expense, core.Money{Cents: 100}, "Food", "", time.Now())
	repo.Add(context.Background(), rec)

	state := waitPhase(t, repo, PhaseError)
	if state.Message != msgSaveFailed {
		t.Fatalf("expected generic message, got %q", state.Message)
	}
}

func TestClearOperationState(t *testing.T) {
	store := newFakeStore()
	repo := NewRecordRepository(store, testLogger())

	repo.Add(context.Background(), core.NewRecord("user-1", core.Income, core.Money{Cents: 1}, "Salary", "", time.Now()))
	waitPhase(t, repo, PhaseSuccess)

	repo.ClearOperationState()
	if got := repo.OperationState().Get(); got.Phase != PhaseIdle {
		t.Fatalf("expected idle after clear, got %v", got.Phase)
	}
}

func TestDeleteMissingRecordSucceeds(t *testing.T) {
	store := newFakeStore()
	repo := NewRecordRepository(store, testLogger())

	repo.Delete(context.Background(), "no-such-id", "user-1")
	waitPhase(t, repo, PhaseSuccess)
}

func TestRecordsEmitsInitialAndUpdates(t *testing.T) {
	store := newFakeStore()
	repo := NewRecordRepository(store, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	records := repo.Records(ctx, "user-1")

	select {
	case initial := <-records:
		if len(initial) != 0 {
			t.Fatalf("expected empty initial set, got %d", len(initial))
		}
	case <-time.After(time.Second):
		t.Fatal("no initial emission")
	}

	rec := core.NewRecord("user-1", core.Expense, core.Money{Cents: 100}, "Food", "", time.Now())
	repo.Add(ctx, rec)

	select {
	case next := <-records:
		if len(next) != 1 || next[0].ID != rec.ID {
			t.Fatalf("expected the added record, got %+v", next)
		}
	case <-time.After(time.Second):
		t.Fatal("no emission after add")
	}
}

func TestRecordsScopedToUser(t *testing.T) {
	store := newFakeStore()
	repo := NewRecordRepository(store, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo.Add(ctx, core.NewRecord("user-2", core.Expense, core.Money{Cents: 100}, "Food", "", time.Now()))
	waitPhase(t, repo, PhaseSuccess)

	records := repo.Records(ctx, "user-1")
	select {
	case got := <-records:
		if len(got) != 0 {
			t.Fatalf("user-1 must not see user-2 records, got %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no emission")
	}
}

func TestRecordsChannelClosesOnCancel(t *testing.T) {
	store := newFakeStore()
	repo := NewRecordRepository(store, testLogger())
	ctx, cancel := context.WithCancel(context.Background())

	records := repo.Records(ctx, "user-1")
	<-records
	cancel()

	select {
	case _, ok := <-records:
		if ok {
			// One in-flight emission may still arrive; the close must follow.
			if _, ok := <-records; ok {
				t.Fatal("channel must close after cancel")
			}
		}
	case <-time.After(time.Second):
		t.Fatal("channel did not close after cancel")
	}
}

func TestAggregateDelegation(t *testing.T) {
	store := newFakeStore()
	repo := NewRecordRepository(store, testLogger())
	ctx := context.Background()

	repo.Add(ctx, core.NewRecord("user-1", core.Expense, core.Money{Cents: 5000}, "Food", "", time.Now()))
	repo.Add(ctx, core.NewRecord("user-1", core.Income, core.Money{Cents: 100000}, "Salary", "", time.Now()))

	expense, err := repo.TotalByType(ctx, "user-1", core.Expense)
	if err != nil || expense.Cents != 5000 {
		t.Fatalf("expected expense 5000, got %d err=%v", expense.Cents, err)
	}
	sums, err := repo.ExpenseByCategory(ctx, "user-1")
	if err != nil || len(sums) != 1 || sums[0].Category != "Food" {
		t.Fatalf("unexpected category sums %+v err=%v", sums, err)
	}
}
