package feed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gofinances/internal/backend"
	"gofinances/internal/core"
	"gofinances/internal/storage"
)

type fakeFetcher struct {
	mu    sync.Mutex
	calls int32
	delay time.Duration
	feed  backend.FeedResponse
	err   error
}

func (f *fakeFetcher) FetchFeed(ctx context.Context) (backend.FeedResponse, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return backend.FeedResponse{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return backend.FeedResponse{}, f.err
	}
	return f.feed, nil
}

func (f *fakeFetcher) set(feed backend.FeedResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feed = feed
	f.err = err
}

func validFeed() backend.FeedResponse {
	return backend.FeedResponse{
		Transactions: []core.RawTransaction{
			{ID: "1", Title: "Salary", Value: 5000, Type: "income",
				Category: core.Category{Title: "Job"}, CreatedAt: "2024-01-05T00:00:00Z"},
			{ID: "2", Title: "Rent", Value: 1200, Type: "outcome",
				Category: core.Category{Title: "Housing"}, CreatedAt: "2024-01-06T00:00:00Z"},
		},
		Balance: core.RawBalance{Income: 5000, Outcome: 1200, Total: 3800},
	}
}

func TestLoadPublishesSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{feed: validFeed()}
	loader := NewLoader(fetcher, storage.NewMemoryStore(), nil)

	snap, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(snap.Transactions))
	}
	if snap.Transactions[0].DisplayValue != "R$ 5.000,00" {
		t.Errorf("DisplayValue = %q", snap.Transactions[0].DisplayValue)
	}
	if snap.Transactions[1].DisplayValue != "- R$ 1.200,00" {
		t.Errorf("DisplayValue = %q", snap.Transactions[1].DisplayValue)
	}
	if snap.Balance.Total != "R$ 3.800,00" {
		t.Errorf("Total = %q", snap.Balance.Total)
	}

	current, ok := loader.Current()
	if !ok || len(current.Transactions) != 2 {
		t.Fatalf("Current: ok=%v", ok)
	}
}

func TestLoadFailurePreservesPreviousSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{feed: validFeed()}
	loader := NewLoader(fetcher, storage.NewMemoryStore(), nil)

	if _, err := loader.Load(context.Background()); err != nil {
		t.Fatalf("first load: %v", err)
	}

	fetcher.set(backend.FeedResponse{}, core.ErrFeedUnavailable)
	_, err := loader.Load(context.Background())
	if !errors.Is(err, core.ErrFeedUnavailable) {
		t.Fatalf("expected ErrFeedUnavailable, got %v", err)
	}

	current, ok := loader.Current()
	if !ok {
		t.Fatalf("previous snapshot lost")
	}
	if len(current.Transactions) != 2 || current.Balance.Total != "R$ 3.800,00" {
		t.Fatalf("previous snapshot overwritten: %+v", current)
	}
}

func TestLoadSkipsBadRecords(t *testing.T) {
	feed := validFeed()
	feed.Transactions = append(feed.Transactions, core.RawTransaction{
		ID: "3", Title: "Broken", Value: 10, Type: "income", CreatedAt: "not-a-date",
	})
	fetcher := &fakeFetcher{feed: feed}
	loader := NewLoader(fetcher, storage.NewMemoryStore(), nil)

	snap, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Transactions) != 2 {
		t.Fatalf("expected bad record skipped, got %d transactions", len(snap.Transactions))
	}
	if len(snap.Skipped) != 1 || snap.Skipped[0].ID != "3" {
		t.Fatalf("Skipped = %+v", snap.Skipped)
	}
}

func TestConcurrentLoadsAreCoalesced(t *testing.T) {
	fetcher := &fakeFetcher{feed: validFeed(), delay: 50 * time.Millisecond}
	loader := NewLoader(fetcher, storage.NewMemoryStore(), nil)

	const callers = 10
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			if _, err := loader.Load(context.Background()); err != nil {
				t.Errorf("Load: %v", err)
			}
		}()
	}
	wg.Wait()

	if calls := atomic.LoadInt32(&fetcher.calls); calls != 1 {
		t.Fatalf("expected 1 backend fetch, got %d", calls)
	}
}

func TestRestore(t *testing.T) {
	store := storage.NewMemoryStore()
	persisted := core.Snapshot{
		Transactions: []core.Transaction{{ID: "1", Title: "Old", DisplayValue: "R$ 1,00"}},
		Balance:      core.Balance{Income: "R$ 1,00", Outcome: "R$ 0,00", Total: "R$ 1,00"},
		LoadedAt:     time.Now().Add(-time.Hour),
	}
	if err := store.Save(context.Background(), persisted); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loader := NewLoader(&fakeFetcher{}, store, nil)
	if err := loader.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	current, ok := loader.Current()
	if !ok || len(current.Transactions) != 1 || current.Transactions[0].ID != "1" {
		t.Fatalf("restore failed: ok=%v %+v", ok, current)
	}
}
