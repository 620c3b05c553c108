package upload

import (
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

const (
	StatusPending   Status = "pending"
	StatusUploading Status = "uploading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

type (
	// Status is the lifecycle state of one selected file. Transitions are
	// strictly ordered per entry: Pending -> Uploading -> Succeeded or
	// Failed. There is no automatic way back to Pending; a Failed entry
	// only moves again through an explicit retry.
	Status string

	// File is one file handed over by the view layer at selection time.
	File struct {
		Name    string
		Content []byte
	}

	// Entry tracks one file through its import lifecycle. The content is
	// owned exclusively by the queue until submission.
	Entry struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		Size         int64  `json:"size"`
		ReadableSize string `json:"readable_size"`
		Status       Status `json:"status"`
		Error        string `json:"error,omitempty"`

		content []byte
	}

	// Rejection reports one file refused at selection time.
	Rejection struct {
		Name   string `json:"name"`
		Reason string `json:"reason"`
	}
)

func newEntry(f File) *Entry {
	size := int64(len(f.Content))
	return &Entry{
		ID:           uuid.New().String(),
		Name:         f.Name,
		Size:         size,
		ReadableSize: humanize.Bytes(uint64(size)),
		Status:       StatusPending,
		content:      f.Content,
	}
}

// Terminal reports whether the entry has finished its lifecycle.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}
