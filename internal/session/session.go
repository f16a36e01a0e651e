// Package session holds the per-user view state: the active user id, a
// synchronous snapshot of that user's records mirrored from the repository
// stream, and the statistics derived from it.
package session

import (
	"context"
	"sync"

	"github.com/99zwgp/AccountBook/internal/core"
	"github.com/99zwgp/AccountBook/internal/log"
	"github.com/99zwgp/AccountBook/internal/repository"
	"github.com/99zwgp/AccountBook/internal/stream"
)

// Session subscribes to the record stream of the active user and republishes
// it, together with recomputed statistics, through observable values. The
// snapshot is replaced wholesale on every upstream emission and is therefore
// eventually consistent with the store; RecordByID reads it synchronously,
// which is what edit forms need for pre-filling.
type Session struct {
	records *repository.RecordRepository
	logger  *log.Logger

	mu       sync.Mutex
	userID   string
	cancel   context.CancelFunc
	snapshot []core.Record

	recordsOut *stream.Value[[]core.Record]
	statsOut   *stream.Value[core.StatisticsData]
}

func New(records *repository.RecordRepository, logger *log.Logger) *Session {
	return &Session{
		records:    records,
		logger:     logger.WithComponent(log.ComponentSession),
		recordsOut: stream.NewValue([]core.Record(nil)),
		statsOut:   stream.NewValue(core.ComputeStatistics(nil)),
	}
}

// Records exposes the observable record snapshot of the active user.
func (s *Session) Records() *stream.Value[[]core.Record] {
	return s.recordsOut
}

// Statistics exposes the observable derived statistics of the active user.
func (s *Session) Statistics() *stream.Value[core.StatisticsData] {
	return s.statsOut
}

// OperationState exposes the repository's observable operation status.
func (s *Session) OperationState() *stream.Value[repository.OperationState] {
	return s.records.OperationState()
}

// ClearOperationState forwards the reset to the repository.
func (s *Session) ClearOperationState() {
	s.records.ClearOperationState()
}

// UserID returns the active user id, or "" when no session is active.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// SetUser switches the session to userID. The previous subscription is torn
// down and the cached records are cleared immediately; the new user's
// records appear once the fresh subscription emits. Setting the already
// active user is a no-op.
func (s *Session) SetUser(userID string) {
	s.mu.Lock()
	if s.userID == userID {
		s.mu.Unlock()
		return
	}
	s.teardownLocked()
	s.userID = userID

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	s.logger.Info("session user changed", log.FieldUserID, userID)
	go s.collect(ctx, userID)
}

// ClearUser ends the active session and empties the cached records.
func (s *Session) ClearUser() {
	s.mu.Lock()
	s.teardownLocked()
	s.userID = ""
	s.mu.Unlock()
	s.logger.Info("session cleared")
}

// Close tears down the subscription; the session is unusable afterwards.
func (s *Session) Close() {
	s.ClearUser()
}

// teardownLocked cancels the running subscription and publishes the empty
// state. Callers hold s.mu.
func (s *Session) teardownLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.snapshot = nil
	s.recordsOut.Set(nil)
	s.statsOut.Set(core.ComputeStatistics(nil))
}

// collect mirrors the repository stream into the snapshot until ctx is done.
func (s *Session) collect(ctx context.Context, userID string) {
	for records := range s.records.Records(ctx, userID) {
		s.mu.Lock()
		if s.userID != userID {
			// A stale subscription must never clobber the next user's state.
			s.mu.Unlock()
			return
		}
		s.snapshot = records
		s.recordsOut.Set(records)
		s.statsOut.Set(core.ComputeStatistics(records))
		s.mu.Unlock()
	}
}

// RecordByID looks up a record in the cached snapshot without touching the
// store. The snapshot trails the store by at most one emission.
func (s *Session) RecordByID(id string) (core.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.snapshot {
		if r.ID == id {
			return r, true
		}
	}
	return core.Record{}, false
}

// AddRecord forwards to the repository. The result arrives through the
// operation state and, on success, through the record stream; the snapshot
// is never mutated optimistically.
func (s *Session) AddRecord(ctx context.Context, rec core.Record) {
	s.records.Add(ctx, rec)
}

// UpdateRecord forwards to the repository.
func (s *Session) UpdateRecord(ctx context.Context, rec core.Record) {
	s.records.Update(ctx, rec)
}

// DeleteRecord forwards to the repository, scoped to the active user.
func (s *Session) DeleteRecord(ctx context.Context, id string) {
	s.records.Delete(ctx, id, s.UserID())
}

// GetRecord fetches a record from the store, bypassing the snapshot.
func (s *Session) GetRecord(ctx context.Context, id string) (*core.Record, error) {
	return s.records.GetByID(ctx, id, s.UserID())
}
