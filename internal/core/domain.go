package core

import (
	"errors"
	"time"
)

const (
	Income  Kind = "income"
	Outcome Kind = "outcome"
)

type (
	// Kind distinguishes money entering the account from money leaving it.
	// It drives the display sign and nothing else.
	Kind string

	Date struct {
		time.Time
	}

	// Category is owned by the backend; only the title travels this far.
	Category struct {
		Title string `json:"title"`
	}

	// Transaction is the display-ready form of a raw backend record.
	// DisplayValue and DisplayDate are cached at normalization time and are
	// the only place formatting happens.
	Transaction struct {
		ID           string   `json:"id"`
		Title        string   `json:"title"`
		Value        float64  `json:"value"`
		Kind         Kind     `json:"type"`
		Category     Category `json:"category"`
		OccurredAt   Date     `json:"occurred_at"`
		DisplayValue string   `json:"display_value"`
		DisplayDate  string   `json:"display_date"`
	}

	// Balance carries the three backend totals as pre-formatted currency
	// strings. Total is trusted from the backend, not recomputed here.
	Balance struct {
		Income  string `json:"income"`
		Outcome string `json:"outcome"`
		Total   string `json:"total"`
	}

	// Snapshot is the result of one successful feed load: transactions in
	// backend order, the aggregated balance, and the records that were
	// skipped during normalization.
	Snapshot struct {
		Transactions []Transaction   `json:"transactions"`
		Balance      Balance         `json:"balance"`
		Skipped      []SkippedRecord `json:"skipped,omitempty"`
		LoadedAt     time.Time       `json:"loaded_at"`
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidKind         = errors.New("invalid transaction kind")
	ErrFeedUnavailable     = errors.New("feed unavailable")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrImportRejected      = errors.New("import rejected")
)

// ParseKind validates one of the two literal tags the backend uses.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Income, Outcome:
		return Kind(s), nil
	default:
		return "", ErrInvalidKind
	}
}

func (k Kind) Validate() error {
	_, err := ParseKind(string(k))
	return err
}

// NewDate creates a Date pinned to UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Display renders the calendar date as dd/mm/yyyy.
func (d Date) Display() string {
	return d.Format("02/01/2006")
}
