package upload

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
)

type fakeImporter struct {
	mu      sync.Mutex
	calls   map[string]int
	failing map[string]error
	block   chan struct{}
}

func newFakeImporter() *fakeImporter {
	return &fakeImporter{
		calls:   make(map[string]int),
		failing: make(map[string]error),
	}
}

func (f *fakeImporter) Import(ctx context.Context, name string, content io.Reader) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	if err, ok := f.failing[name]; ok {
		return err
	}
	return nil
}

func (f *fakeImporter) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func newTestQueue(imp Importer) *Queue {
	return NewQueue(imp, Config{AcceptedTypes: []string{".csv"}, Concurrency: 2}, nil)
}

func csvFiles(names ...string) []File {
	files := make([]File, len(names))
	for i, n := range names {
		files[i] = File{Name: n, Content: []byte("title,value\n")}
	}
	return files
}

func TestSelectAppendsPendingEntries(t *testing.T) {
	q := newTestQueue(newFakeImporter())

	added, rejected := q.Select(csvFiles("a.csv", "b.csv"))
	if len(added) != 2 || len(rejected) != 0 {
		t.Fatalf("added=%d rejected=%d", len(added), len(rejected))
	}
	for _, e := range added {
		if e.Status != StatusPending {
			t.Errorf("entry %s status = %s", e.Name, e.Status)
		}
		if e.ID == "" || e.ReadableSize == "" {
			t.Errorf("entry metadata missing: %+v", e)
		}
	}

	// A second selection must not touch existing entries.
	q.Select(csvFiles("c.csv"))
	entries := q.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Name != "a.csv" || entries[2].Name != "c.csv" {
		t.Errorf("selection order broken: %+v", entries)
	}
}

func TestSelectRejectsUnsupportedTypesPerFile(t *testing.T) {
	q := newTestQueue(newFakeImporter())

	added, rejected := q.Select([]File{
		{Name: "good.csv", Content: []byte("x")},
		{Name: "bad.pdf", Content: []byte("x")},
		{Name: "noext", Content: []byte("x")},
	})
	if len(added) != 1 || added[0].Name != "good.csv" {
		t.Fatalf("added = %+v", added)
	}
	if len(rejected) != 2 {
		t.Fatalf("rejected = %+v", rejected)
	}
	for _, r := range rejected {
		if !strings.Contains(r.Reason, "unsupported file type") {
			t.Errorf("reason = %q", r.Reason)
		}
	}
}

func TestSelectNothingIsNoOp(t *testing.T) {
	q := newTestQueue(newFakeImporter())
	added, rejected := q.Select(nil)
	if len(added) != 0 || len(rejected) != 0 || len(q.Entries()) != 0 {
		t.Fatalf("expected no-op")
	}
}

func TestSubmitUploadsEachFileExactlyOnce(t *testing.T) {
	imp := newFakeImporter()
	q := newTestQueue(imp)
	q.Select(csvFiles("a.csv", "b.csv", "c.csv"))

	// Two quick successive submits: the second must find nothing Pending.
	first := q.Submit(context.Background())
	second := q.Submit(context.Background())

	if first != 3 {
		t.Errorf("first submit claimed %d, want 3", first)
	}
	if second != 0 {
		t.Errorf("second submit claimed %d, want 0", second)
	}
	for _, name := range []string{"a.csv", "b.csv", "c.csv"} {
		if n := imp.callCount(name); n != 1 {
			t.Errorf("%s submitted %d times, want 1", name, n)
		}
	}
}

func TestConcurrentSubmitsDoNotDuplicate(t *testing.T) {
	imp := newFakeImporter()
	q := newTestQueue(imp)
	q.Select(csvFiles("a.csv", "b.csv", "c.csv"))

	var wg sync.WaitGroup
	total := make([]int, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			total[i] = q.Submit(context.Background())
		}(i)
	}
	wg.Wait()

	claimed := 0
	for _, n := range total {
		claimed += n
	}
	if claimed != 3 {
		t.Errorf("total claimed = %d, want 3", claimed)
	}
	for _, name := range []string{"a.csv", "b.csv", "c.csv"} {
		if n := imp.callCount(name); n != 1 {
			t.Errorf("%s submitted %d times, want 1", name, n)
		}
	}
}

func TestSuccessRemovesEntryFailureRetainsIt(t *testing.T) {
	imp := newFakeImporter()
	imp.failing["bad.csv"] = errors.New("backend said no")
	q := newTestQueue(imp)
	q.Select(csvFiles("good.csv", "bad.csv"))

	q.Submit(context.Background())

	entries := q.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 retained entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Name != "bad.csv" || e.Status != StatusFailed {
		t.Fatalf("retained entry = %+v", e)
	}
	if !strings.Contains(e.Error, "backend said no") {
		t.Errorf("error not captured: %q", e.Error)
	}
	// One failure must not have blocked the other upload.
	if imp.callCount("good.csv") != 1 {
		t.Errorf("good.csv submitted %d times", imp.callCount("good.csv"))
	}
}

func TestRetryResubmitsOnlyFailedEntries(t *testing.T) {
	imp := newFakeImporter()
	imp.failing["bad.csv"] = errors.New("temporary")
	q := newTestQueue(imp)
	added, _ := q.Select(csvFiles("bad.csv"))
	q.Submit(context.Background())

	id := added[0].ID
	if err := q.Retry(context.Background(), id); err == nil {
		t.Fatalf("expected retry to fail while backend still rejects")
	}
	if imp.callCount("bad.csv") != 2 {
		t.Fatalf("bad.csv submitted %d times, want 2", imp.callCount("bad.csv"))
	}

	// Backend recovers; retry succeeds and removes the entry.
	imp.mu.Lock()
	delete(imp.failing, "bad.csv")
	imp.mu.Unlock()
	if err := q.Retry(context.Background(), id); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if len(q.Entries()) != 0 {
		t.Fatalf("entry not removed after successful retry")
	}

	// Retrying a removed entry fails.
	if err := q.Retry(context.Background(), id); err == nil {
		t.Fatalf("expected error for unknown entry")
	}
}

func TestRetryRejectsNonFailedEntries(t *testing.T) {
	q := newTestQueue(newFakeImporter())
	added, _ := q.Select(csvFiles("a.csv"))
	if err := q.Retry(context.Background(), added[0].ID); err == nil {
		t.Fatalf("expected error retrying a pending entry")
	}
}

func TestStatusTransitionsAreOrdered(t *testing.T) {
	imp := newFakeImporter()
	imp.failing["bad.csv"] = errors.New("nope")
	q := newTestQueue(imp)

	var mu sync.Mutex
	transitions := make(map[string][]Status)
	q.SetOnChange(func(e Entry) {
		mu.Lock()
		transitions[e.Name] = append(transitions[e.Name], e.Status)
		mu.Unlock()
	})

	q.Select(csvFiles("good.csv", "bad.csv"))
	q.Submit(context.Background())

	mu.Lock()
	defer mu.Unlock()
	want := map[string][]Status{
		"good.csv": {StatusPending, StatusUploading, StatusSucceeded},
		"bad.csv":  {StatusPending, StatusUploading, StatusFailed},
	}
	for name, seq := range want {
		got := transitions[name]
		if len(got) != len(seq) {
			t.Fatalf("%s transitions = %v, want %v", name, got, seq)
		}
		for i := range seq {
			if got[i] != seq[i] {
				t.Fatalf("%s transitions = %v, want %v", name, got, seq)
			}
		}
	}
}

type fakePublisher struct {
	mu    sync.Mutex
	names []string
}

func (p *fakePublisher) PublishImportCompleted(ctx context.Context, entryID, fileName string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.names = append(p.names, fileName)
	return nil
}

func TestSubmitPublishesImportCompleted(t *testing.T) {
	imp := newFakeImporter()
	imp.failing["bad.csv"] = errors.New("nope")
	pub := &fakePublisher{}

	q := newTestQueue(imp)
	q.SetPublisher(pub)
	q.Select(csvFiles("good.csv", "bad.csv"))
	q.Submit(context.Background())

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.names) != 1 || pub.names[0] != "good.csv" {
		t.Fatalf("published = %v, want [good.csv]", pub.names)
	}
}
