// Package upload manages the set of files selected for bulk import: the
// per-entry status lifecycle, independent submission to the backend, and
// the no-double-submit guarantee.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"gofinances/internal/core"
	"gofinances/internal/log"
)

// Importer is the write side of the backend collaborator.
type Importer interface {
	Import(ctx context.Context, name string, content io.Reader) error
}

// Publisher emits an event after each successful import, so a collaborator
// can trigger the feed reload. Optional.
type Publisher interface {
	PublishImportCompleted(ctx context.Context, entryID, fileName string) error
}

// Config for a Queue.
type Config struct {
	// AcceptedTypes are the allowed file extensions, dot included.
	AcceptedTypes []string
	// Concurrency bounds parallel submissions. Defaults to 3.
	Concurrency int
}

// Queue owns the upload entries. All state transitions happen under the
// queue lock, so concurrent Submit calls cannot lose, duplicate, or
// resubmit an entry.
type Queue struct {
	importer    Importer
	publisher   Publisher
	logger      *log.Logger
	accepted    map[string]bool
	concurrency int

	mu      sync.Mutex
	entries []*Entry
	byID    map[string]*Entry

	onChange func(Entry)
}

func NewQueue(importer Importer, cfg Config, logger *log.Logger) *Queue {
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentUpload})
	}
	accepted := make(map[string]bool, len(cfg.AcceptedTypes))
	for _, ext := range cfg.AcceptedTypes {
		accepted[strings.ToLower(ext)] = true
	}
	if len(accepted) == 0 {
		accepted[".csv"] = true
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 3
	}
	return &Queue{
		importer:    importer,
		logger:      logger.WithComponent(log.ComponentUpload),
		accepted:    accepted,
		concurrency: concurrency,
		byID:        make(map[string]*Entry),
	}
}

// SetPublisher wires the optional import-completed event publisher.
func (q *Queue) SetPublisher(p Publisher) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.publisher = p
}

// SetOnChange registers a hook invoked after every entry status change,
// outside the queue lock.
func (q *Queue) SetOnChange(fn func(Entry)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onChange = fn
}

// Select appends the given files as Pending entries. Files with an
// unaccepted extension are rejected individually; existing entries are
// never touched. Selecting nothing is a no-op.
func (q *Queue) Select(files []File) (added []Entry, rejected []Rejection) {
	var entries []*Entry
	for _, f := range files {
		ext := strings.ToLower(filepath.Ext(f.Name))
		if !q.accepted[ext] {
			rejected = append(rejected, Rejection{
				Name:   f.Name,
				Reason: fmt.Sprintf("%v: %s", core.ErrUnsupportedFileType, ext),
			})
			q.logger.Warn("Rejected file at selection",
				log.FieldFileName, f.Name, "extension", ext)
			continue
		}
		entries = append(entries, newEntry(f))
	}

	q.mu.Lock()
	for _, e := range entries {
		q.entries = append(q.entries, e)
		q.byID[e.ID] = e
		added = append(added, *e)
	}
	q.mu.Unlock()

	for _, e := range added {
		q.notify(e)
	}
	return added, rejected
}

// Submit sends every currently Pending entry to the backend. Entries are
// claimed under the lock before anything is sent, so a second Submit call
// racing with this one finds nothing to act on and double-clicks cannot
// duplicate an import.
//
// Submissions run independently with bounded parallelism: one failure
// neither blocks nor rolls back the others. Returns the number of entries
// claimed by this call.
func (q *Queue) Submit(ctx context.Context) int {
	q.mu.Lock()
	var claimed []*Entry
	for _, e := range q.entries {
		if e.Status != StatusPending {
			continue
		}
		e.Status = StatusUploading
		claimed = append(claimed, e)
	}
	snapshots := make([]Entry, len(claimed))
	for i, e := range claimed {
		snapshots[i] = *e
	}
	q.mu.Unlock()

	for _, snap := range snapshots {
		q.notify(snap)
	}
	if len(claimed) == 0 {
		return 0
	}

	var g errgroup.Group
	g.SetLimit(q.concurrency)
	for _, e := range claimed {
		e := e
		g.Go(func() error {
			q.upload(ctx, e)
			return nil
		})
	}
	_ = g.Wait()

	return len(claimed)
}

// Retry re-submits one Failed entry, re-entering at Uploading. Returns the
// upload error; on failure the entry stays in the queue as Failed with the
// new reason.
func (q *Queue) Retry(ctx context.Context, id string) error {
	q.mu.Lock()
	e, ok := q.byID[id]
	if !ok {
		q.mu.Unlock()
		return fmt.Errorf("entry %s not found", id)
	}
	if e.Status != StatusFailed {
		q.mu.Unlock()
		return fmt.Errorf("entry %s is %s, only failed entries can be retried", id, e.Status)
	}
	e.Status = StatusUploading
	e.Error = ""
	snap := *e
	q.mu.Unlock()

	q.notify(snap)
	return q.upload(ctx, e)
}

// upload performs one submission and applies the terminal transition.
func (q *Queue) upload(ctx context.Context, e *Entry) error {
	err := q.importer.Import(ctx, e.Name, bytes.NewReader(e.content))

	if err != nil {
		q.mu.Lock()
		e.Status = StatusFailed
		e.Error = err.Error()
		snap := *e
		q.mu.Unlock()

		q.logger.ErrorContext(ctx, "Import failed",
			log.FieldEntryID, e.ID,
			log.FieldFileName, e.Name,
			log.FieldError, err)
		q.notify(snap)
		return err
	}

	q.mu.Lock()
	e.Status = StatusSucceeded
	snap := *e
	q.removeLocked(e.ID)
	publisher := q.publisher
	q.mu.Unlock()

	q.logger.InfoContext(ctx, "Import succeeded",
		log.FieldEntryID, e.ID,
		log.FieldFileName, e.Name,
		log.FieldFileSize, e.Size)
	q.notify(snap)

	if publisher != nil {
		if err := publisher.PublishImportCompleted(ctx, e.ID, e.Name); err != nil {
			// The import itself succeeded; the reload event is best-effort.
			q.logger.ErrorContext(ctx, "Failed to publish import event",
				log.FieldEntryID, e.ID, log.FieldError, err)
		}
	}
	return nil
}

// Entries returns a snapshot of the queue in selection order.
func (q *Queue) Entries() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Entry, len(q.entries))
	for i, e := range q.entries {
		out[i] = *e
	}
	return out
}

func (q *Queue) removeLocked(id string) {
	delete(q.byID, id)
	for i, e := range q.entries {
		if e.ID == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return
		}
	}
}

func (q *Queue) notify(e Entry) {
	q.mu.Lock()
	fn := q.onChange
	q.mu.Unlock()
	if fn != nil {
		fn(e)
	}
}
