package state

import (
	"fmt"
	"sync"
	"time"
)

// Snapshot is the connection health shown by the UI.
type Snapshot struct {
	LastUpdated         time.Time
	LastSuccess         time.Time
	LastError           error
	ConsecutiveFailures int // requests failed in a row
	Requests            int
}

// IsOffline returns true when the service has failed several times in a row.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store records request outcomes from the cache observer.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Record notes one finished request. A nil err resets the failure count;
// otherwise the error is kept for display.
func (s *Store) Record(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.snapshot.LastUpdated = now
	s.snapshot.Requests++
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}
	s.snapshot.LastError = nil
	s.snapshot.LastSuccess = now
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}
