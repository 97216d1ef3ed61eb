// Package engagement keeps the client's like and bookmark state.
//
// The remote API only exposes anonymous increment/decrement endpoints, so the
// client is the only party that knows whether it has liked or bookmarked an
// artwork. A Ledger records that knowledge durably and drives the matching
// endpoint on each toggle.
package engagement

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mmcdole/artshelf/internal/domain"
)

// Ledger owns the engagement records of one kind.
type Ledger struct {
	kind     domain.Kind
	key      string
	remote   domain.EngagementRepository
	store    domain.Store
	observer domain.Observer
	logger   *slog.Logger
	clock    func() time.Time

	saveMu   sync.Mutex // Serializes persist so merged snapshots land in order
	mu       sync.RWMutex
	records  map[int64]domain.Record
	inFlight map[int64]struct{}
	cleared  map[int64]uint64 // Bumped by Clear so running toggles drop their write
	epoch    uint64           // Bumped by ClearAll
}

// NewLedger creates a ledger for kind and loads its records from store.
// A ledger that cannot be decoded is logged and replaced by an empty one.
func NewLedger(
	kind domain.Kind,
	remote domain.EngagementRepository,
	store domain.Store,
	observer domain.Observer,
	logger *slog.Logger,
) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if observer == nil {
		observer = domain.NoOpObserver{}
	}

	l := &Ledger{
		kind:     kind,
		key:      StoreKey(kind),
		remote:   remote,
		store:    store,
		observer: observer,
		logger:   logger.With("kind", kind.String()),
		clock:    time.Now,
		records:  make(map[int64]domain.Record),
		inFlight: make(map[int64]struct{}),
		cleared:  make(map[int64]uint64),
	}

	data, err := store.Load(l.key)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s ledger: %w", kind, err)
	}
	if records, err := decodeRecords(data); err != nil {
		l.logger.Warn("discarding unreadable ledger", "error", err)
	} else {
		l.records = records
	}

	l.observer.OnLedgerSize(kind, len(l.records))
	return l, nil
}

// Kind returns the engagement kind this ledger tracks
func (l *Ledger) Kind() domain.Kind { return l.kind }

// IsActive reports whether the client has engaged with the artwork.
// Artworks that were never toggled are inactive.
func (l *Ledger) IsActive(id int64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.records[id].Active
}

// Status returns the record for id, or an inactive zero record if none exists
func (l *Ledger) Status(id int64) domain.Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if rec, ok := l.records[id]; ok {
		return rec
	}
	return domain.Record{ArtworkID: id}
}

// Records returns every record, most recently changed first
func (l *Ledger) Records() []domain.Record {
	l.mu.RLock()
	out := make([]domain.Record, 0, len(l.records))
	for _, rec := range l.records {
		out = append(out, rec)
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].LastChangedAt != out[j].LastChangedAt {
			return out[i].LastChangedAt > out[j].LastChangedAt
		}
		return out[i].ArtworkID < out[j].ArtworkID
	})
	return out
}

// Toggle flips the engagement state of an artwork and returns the new state.
//
// The remote endpoint is called first and the record is only written once it
// succeeds. On error the returned state is the unchanged previous one. A
// second Toggle for the same artwork while one is running fails with
// domain.ErrConcurrentToggle and makes no remote call.
func (l *Ledger) Toggle(ctx context.Context, id int64) (bool, error) {
	if !l.acquire(id) {
		l.observer.OnToggle(l.kind, "rejected")
		l.logger.Warn("toggle rejected, already in flight", "artworkID", id)
		return l.IsActive(id), domain.ErrConcurrentToggle
	}
	defer l.release(id)

	prev := l.IsActive(id)
	gen := l.generation(id)

	var (
		count int
		err   error
	)
	if prev {
		count, err = l.remote.Decrement(ctx, l.kind, id)
	} else {
		count, err = l.remote.Increment(ctx, l.kind, id)
	}
	if err != nil {
		l.observer.OnToggle(l.kind, "failed")
		l.logger.Debug("failed to toggle", "error", err, "artworkID", id, "active", prev)
		return prev, err
	}

	rec := domain.Record{
		ArtworkID:     id,
		Active:        !prev,
		LastChangedAt: l.clock().UnixMilli(),
	}

	// A Clear that ran while the remote call was pending wins over this toggle.
	var superseded bool
	err = l.persist(func(records map[int64]domain.Record) {
		if superseded = l.generation(id) != gen; !superseded {
			records[id] = rec
		}
	})
	if err != nil {
		// The server already moved its counter; keep the session in step with it.
		l.mu.Lock()
		if l.generationLocked(id) == gen {
			l.records[id] = rec
		}
		l.mu.Unlock()
		l.logger.Error("failed to save ledger", "error", err, "artworkID", id)
		return rec.Active, fmt.Errorf("%w: %w", domain.ErrPersist, err)
	}
	if superseded {
		l.observer.OnToggle(l.kind, "cleared")
		l.logger.Debug("record cleared during toggle", "artworkID", id, "count", count)
		return rec.Active, nil
	}

	if rec.Active {
		l.observer.OnToggle(l.kind, "activated")
	} else {
		l.observer.OnToggle(l.kind, "deactivated")
	}
	l.logger.Debug("toggled", "artworkID", id, "active", rec.Active, "count", count)
	return rec.Active, nil
}

// Clear forgets the record for id. It never fails; storage errors are logged.
func (l *Ledger) Clear(id int64) {
	l.mu.Lock()
	delete(l.records, id)
	l.cleared[id]++
	l.mu.Unlock()

	err := l.persist(func(records map[int64]domain.Record) {
		delete(records, id)
	})
	if err != nil {
		l.logger.Error("failed to save ledger", "error", err, "artworkID", id)
		return
	}
	l.logger.Debug("cleared record", "artworkID", id)
}

// ClearAll forgets every record of this kind. Storage errors are logged.
func (l *Ledger) ClearAll() {
	l.saveMu.Lock()
	defer l.saveMu.Unlock()

	l.mu.Lock()
	l.records = make(map[int64]domain.Record)
	l.epoch++
	l.mu.Unlock()

	if err := l.store.Delete(l.key); err != nil {
		l.logger.Error("failed to clear ledger", "error", err)
	}
	l.observer.OnLedgerSize(l.kind, 0)
	l.logger.Info("cleared ledger")
}

// persist applies mutate to the stored ledger inside one store update and
// adopts the result as the in-memory copy. Records written by another
// process since our last read survive unless mutate touches them.
func (l *Ledger) persist(mutate func(map[int64]domain.Record)) error {
	l.saveMu.Lock()
	defer l.saveMu.Unlock()

	var merged map[int64]domain.Record

	err := l.store.Update(l.key, func(current []byte) ([]byte, error) {
		records, err := decodeRecords(current)
		if err != nil {
			l.logger.Warn("overwriting unreadable ledger", "error", err)
			records = l.snapshot()
		}
		mutate(records)
		merged = records

		if len(records) == 0 {
			return nil, nil
		}
		return json.Marshal(records)
	})
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.records = merged
	l.mu.Unlock()

	l.observer.OnLedgerSize(l.kind, len(merged))
	return nil
}

func (l *Ledger) snapshot() map[int64]domain.Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[int64]domain.Record, len(l.records))
	for id, rec := range l.records {
		out[id] = rec
	}
	return out
}

func (l *Ledger) generation(id int64) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.generationLocked(id)
}

func (l *Ledger) generationLocked(id int64) uint64 {
	return l.epoch + l.cleared[id]
}

func (l *Ledger) acquire(id int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.inFlight[id]; busy {
		return false
	}
	l.inFlight[id] = struct{}{}
	return true
}

func (l *Ledger) release(id int64) {
	l.mu.Lock()
	delete(l.inFlight, id)
	l.mu.Unlock()
}

func decodeRecords(data []byte) (map[int64]domain.Record, error) {
	records := make(map[int64]domain.Record)
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return make(map[int64]domain.Record), err
	}
	// Drop entries whose key and payload disagree
	for id, rec := range records {
		if rec.ArtworkID != id {
			delete(records, id)
		}
	}
	return records, nil
}
