package core

import "fmt"

type (
	// RawTransaction is one unprocessed record as the backend sends it.
	RawTransaction struct {
		ID        string   `json:"id"`
		Title     string   `json:"title"`
		Value     float64  `json:"value"`
		Type      string   `json:"type"`
		Category  Category `json:"category"`
		CreatedAt string   `json:"created_at"`
	}

	// RawBalance is the unformatted totals block of a feed response.
	RawBalance struct {
		Income  float64 `json:"income"`
		Outcome float64 `json:"outcome"`
		Total   float64 `json:"total"`
	}

	// SkippedRecord reports one record excluded from a batch, with the
	// reason. Exclusions are surfaced to the caller, never swallowed.
	SkippedRecord struct {
		ID     string `json:"id"`
		Reason string `json:"reason"`
	}
)

// NormalizeTransaction converts a raw record into a display-ready
// Transaction. The cached DisplayValue is the formatted magnitude prefixed
// with "- " iff the record is an outcome; DisplayDate is dd/mm/yyyy.
//
// Transaction values are magnitudes: a negative value is a data-quality
// error (the direction is carried by the type tag), as are an unknown tag
// and an unparseable date.
func NormalizeTransaction(raw RawTransaction) (Transaction, error) {
	kind, err := ParseKind(raw.Type)
	if err != nil {
		return Transaction{}, fmt.Errorf("type %q: %w", raw.Type, err)
	}

	if raw.Value < 0 {
		return Transaction{}, fmt.Errorf("value %v: %w", raw.Value, ErrInvalidAmount)
	}
	formatted, err := FormatBRL(raw.Value)
	if err != nil {
		return Transaction{}, fmt.Errorf("value %v: %w", raw.Value, err)
	}
	if kind == Outcome {
		formatted = "- " + formatted
	}

	date, err := ParseISODate(raw.CreatedAt)
	if err != nil {
		return Transaction{}, fmt.Errorf("created_at %q: %w", raw.CreatedAt, err)
	}

	return Transaction{
		ID:           raw.ID,
		Title:        raw.Title,
		Value:        raw.Value,
		Kind:         kind,
		Category:     raw.Category,
		OccurredAt:   date,
		DisplayValue: formatted,
		DisplayDate:  date.Display(),
	}, nil
}

// NormalizeTransactions normalizes a batch in backend order. Records that
// fail normalization are skipped and reported; one bad record never aborts
// the batch.
func NormalizeTransactions(raws []RawTransaction) ([]Transaction, []SkippedRecord) {
	txs := make([]Transaction, 0, len(raws))
	var skipped []SkippedRecord
	for _, raw := range raws {
		tx, err := NormalizeTransaction(raw)
		if err != nil {
			skipped = append(skipped, SkippedRecord{ID: raw.ID, Reason: err.Error()})
			continue
		}
		txs = append(txs, tx)
	}
	return txs, skipped
}

// AggregateBalance formats the three backend totals. The total is passed
// through as-is; this service does not reconcile it against the
// transaction list.
func AggregateBalance(raw RawBalance) (Balance, error) {
	income, err := FormatBRL(raw.Income)
	if err != nil {
		return Balance{}, fmt.Errorf("income: %w", err)
	}
	outcome, err := FormatBRL(raw.Outcome)
	if err != nil {
		return Balance{}, fmt.Errorf("outcome: %w", err)
	}
	total, err := FormatBRL(raw.Total)
	if err != nil {
		return Balance{}, fmt.Errorf("total: %w", err)
	}
	return Balance{Income: income, Outcome: outcome, Total: total}, nil
}
