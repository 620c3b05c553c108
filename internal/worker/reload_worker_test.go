package worker

import (
	"context"
	"errors"
	"testing"

	"gofinances/internal/amqp"
	"gofinances/internal/backend"
	"gofinances/internal/core"
	"gofinances/internal/feed"
	"gofinances/internal/storage"
)

type stubFetcher struct {
	feed backend.FeedResponse
	err  error
}

func (s *stubFetcher) FetchFeed(ctx context.Context) (backend.FeedResponse, error) {
	if s.err != nil {
		return backend.FeedResponse{}, s.err
	}
	return s.feed, nil
}

type recordingExporter struct {
	snaps []core.Snapshot
	err   error
}

func (r *recordingExporter) Export(ctx context.Context, snap core.Snapshot) error {
	r.snaps = append(r.snaps, snap)
	return r.err
}

func TestHandleImportCompletedReloadsAndExports(t *testing.T) {
	fetcher := &stubFetcher{feed: backend.FeedResponse{
		Transactions: []core.RawTransaction{
			{ID: "1", Title: "Salary", Value: 5000, Type: "income", CreatedAt: "2024-01-05"},
		},
		Balance: core.RawBalance{Income: 5000, Outcome: 0, Total: 5000},
	}}
	loader := feed.NewLoader(fetcher, storage.NewMemoryStore(), nil)
	exporter := &recordingExporter{}
	w := NewReloadWorker(loader, exporter, nil)

	msg := amqp.NewImportCompletedMessage("e1", "movements.csv")
	if err := w.HandleImportCompleted(context.Background(), msg); err != nil {
		t.Fatalf("HandleImportCompleted: %v", err)
	}

	if _, ok := loader.Current(); !ok {
		t.Fatalf("feed not reloaded")
	}
	if len(exporter.snaps) != 1 || len(exporter.snaps[0].Transactions) != 1 {
		t.Fatalf("export not invoked with snapshot: %+v", exporter.snaps)
	}
}

func TestHandleImportCompletedPropagatesLoadFailure(t *testing.T) {
	loader := feed.NewLoader(&stubFetcher{err: core.ErrFeedUnavailable}, nil, nil)
	w := NewReloadWorker(loader, nil, nil)

	err := w.HandleImportCompleted(context.Background(), amqp.NewImportCompletedMessage("e1", "f.csv"))
	if !errors.Is(err, core.ErrFeedUnavailable) {
		t.Fatalf("expected ErrFeedUnavailable, got %v", err)
	}
}

func TestHandleImportCompletedToleratesExportFailure(t *testing.T) {
	fetcher := &stubFetcher{feed: backend.FeedResponse{
		Balance: core.RawBalance{},
	}}
	loader := feed.NewLoader(fetcher, nil, nil)
	exporter := &recordingExporter{err: errors.New("sheets down")}
	w := NewReloadWorker(loader, exporter, nil)

	if err := w.HandleImportCompleted(context.Background(), amqp.NewImportCompletedMessage("e1", "f.csv")); err != nil {
		t.Fatalf("export failure must not fail the event: %v", err)
	}
}
