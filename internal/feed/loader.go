// Package feed orchestrates one backend round-trip: fetch the raw feed,
// normalize it, and publish the resulting snapshot.
package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"gofinances/internal/backend"
	"gofinances/internal/core"
	"gofinances/internal/log"
	"gofinances/internal/storage"
)

// Fetcher is the read side of the backend collaborator.
type Fetcher interface {
	FetchFeed(ctx context.Context) (backend.FeedResponse, error)
}

// Loader owns the current feed snapshot. A load is all-or-nothing: on any
// failure the previously published snapshot stays untouched.
//
// Concurrent Load calls are coalesced: callers arriving while a load is in
// flight join it and receive the same result, so partial updates never
// interleave.
type Loader struct {
	fetcher Fetcher
	store   storage.SnapshotStore
	logger  *log.Logger

	group singleflight.Group

	mu      sync.RWMutex
	current core.Snapshot
	loaded  bool
}

func NewLoader(fetcher Fetcher, store storage.SnapshotStore, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentFeed})
	}
	return &Loader{
		fetcher: fetcher,
		store:   store,
		logger:  logger.WithComponent(log.ComponentFeed),
	}
}

// Restore publishes the snapshot persisted by a previous run, if any.
// Called once at startup, before the first Load.
func (l *Loader) Restore(ctx context.Context) error {
	if l.store == nil {
		return nil
	}
	snap, ok, err := l.store.Latest(ctx)
	if err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	if !ok {
		return nil
	}
	l.mu.Lock()
	l.current = snap
	l.loaded = true
	l.mu.Unlock()

	l.logger.Info("Restored feed snapshot",
		log.FieldTransactionCount, len(snap.Transactions),
		log.FieldLoadedAt, snap.LoadedAt)
	return nil
}

// Load runs one feed round-trip and publishes the result. Records failing
// normalization are skipped and reported in the snapshot; a transport
// failure aborts the load and keeps the previous snapshot.
func (l *Loader) Load(ctx context.Context) (core.Snapshot, error) {
	v, err, shared := l.group.Do("feed", func() (interface{}, error) {
		return l.loadOnce(ctx)
	})
	if err != nil {
		return core.Snapshot{}, err
	}
	if shared {
		l.logger.Debug("Joined in-flight feed load")
	}
	return v.(core.Snapshot), nil
}

func (l *Loader) loadOnce(ctx context.Context) (core.Snapshot, error) {
	raw, err := l.fetcher.FetchFeed(ctx)
	if err != nil {
		l.logger.ErrorContext(ctx, "Feed fetch failed", log.FieldError, err)
		return core.Snapshot{}, err
	}

	transactions, skipped := core.NormalizeTransactions(raw.Transactions)
	balance, err := core.AggregateBalance(raw.Balance)
	if err != nil {
		l.logger.ErrorContext(ctx, "Balance aggregation failed", log.FieldError, err)
		return core.Snapshot{}, fmt.Errorf("aggregate balance: %w", err)
	}

	snap := core.Snapshot{
		Transactions: transactions,
		Balance:      balance,
		Skipped:      skipped,
		LoadedAt:     time.Now().UTC(),
	}

	l.mu.Lock()
	l.current = snap
	l.loaded = true
	l.mu.Unlock()

	if l.store != nil {
		// Persistence is best-effort; the in-memory snapshot is already
		// published.
		if err := l.store.Save(ctx, snap); err != nil {
			l.logger.ErrorContext(ctx, "Failed to persist feed snapshot", log.FieldError, err)
		}
	}

	l.logger.InfoContext(ctx, "Feed loaded",
		log.FieldTransactionCount, len(transactions),
		log.FieldSkippedCount, len(skipped))

	return snap, nil
}

// Current returns the last published snapshot. ok is false before the
// first successful load or restore.
func (l *Loader) Current() (core.Snapshot, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current, l.loaded
}
