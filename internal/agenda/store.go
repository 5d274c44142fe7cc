package agenda

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	appLog "simacca/internal/log"
	"simacca/internal/model"
)

// Fetcher returns raw remote rows. *remote.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context) ([]json.RawMessage, error)
}

// Store is the in-memory agenda cache. Each successful Refresh replaces the
// whole collection under a single lock, so readers see either the old or the
// new set and never a mix.
//
// Overlapping refreshes are allowed. Every refresh takes a sequence number when
// it starts; a response whose sequence is older than the one already applied
// is discarded instead of overwriting newer data.
type Store struct {
	fetcher    Fetcher
	normalizer *Normalizer
	now        func() time.Time

	mu       sync.RWMutex
	records  []model.Agenda
	lastSync time.Time
	applied  uint64

	seq      atomic.Uint64
	inflight atomic.Int32
}

// NewStore creates an empty Store.
func NewStore(f Fetcher, n *Normalizer) *Store {
	return &Store{
		fetcher:    f,
		normalizer: n,
		now:        time.Now,
		records:    []model.Agenda{},
	}
}

// Refresh performs one fetch-decode-normalize-replace cycle. On error the
// cached collection is left untouched.
func (s *Store) Refresh(ctx context.Context) error {
	seq := s.seq.Add(1)
	s.inflight.Add(1)
	defer s.inflight.Add(-1)

	rows, err := s.fetcher.Fetch(ctx)
	if err != nil {
		appLog.Error("agenda refresh failed; keeping cached collection", err, "seq", seq)
		return err
	}
	records := s.normalizer.NormalizeAll(rows)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.applied {
		appLog.Info("agenda refresh discarded; newer result already applied", "seq", seq, "applied", s.applied)
		return nil
	}
	s.records = records
	s.applied = seq
	s.lastSync = s.now()

	appLog.Info("agenda refresh applied", "seq", seq, "records", len(records))
	return nil
}

// Snapshot returns the current collection. The returned slice is a copy.
func (s *Store) Snapshot() []model.Agenda {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records)
}

// LastSync is the time of the last applied refresh, zero if none.
func (s *Store) LastSync() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSync
}

// Loading reports whether any refresh is in flight.
func (s *Store) Loading() bool {
	return s.inflight.Load() > 0
}

// Find looks up a record by identifier.
func (s *Store) Find(id string) (model.Agenda, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.ID == id {
			return r, true
		}
	}
	return model.Agenda{}, false
}
