package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gofinances/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists the feed snapshot to a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save replaces the stored snapshot atomically: the previous one stays in
// place if anything fails mid-write.
func (s *SQLiteStore) Save(ctx context.Context, snap core.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM feed_transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}

	const insertTx = `
		INSERT INTO feed_transactions
			(position, id, title, value, kind, category_title, occurred_at, display_value, display_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for i, t := range snap.Transactions {
		_, err := tx.ExecContext(ctx, insertTx,
			i, t.ID, t.Title, t.Value, string(t.Kind), t.Category.Title,
			t.OccurredAt.Format("2006-01-02"), t.DisplayValue, t.DisplayDate)
		if err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}

	const upsertBalance = `
		INSERT INTO feed_balance (id, income, outcome, total, loaded_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			income = excluded.income,
			outcome = excluded.outcome,
			total = excluded.total,
			loaded_at = excluded.loaded_at`
	_, err = tx.ExecContext(ctx, upsertBalance,
		snap.Balance.Income, snap.Balance.Outcome, snap.Balance.Total,
		snap.LoadedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Latest(ctx context.Context) (core.Snapshot, bool, error) {
	var snap core.Snapshot
	var loadedAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT income, outcome, total, loaded_at FROM feed_balance WHERE id = 1`).
		Scan(&snap.Balance.Income, &snap.Balance.Outcome, &snap.Balance.Total, &loadedAt)
	if err == sql.ErrNoRows {
		return core.Snapshot{}, false, nil
	}
	if err != nil {
		return core.Snapshot{}, false, fmt.Errorf("read balance: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, loadedAt); err == nil {
		snap.LoadedAt = t
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, value, kind, category_title, occurred_at, display_value, display_date
		FROM feed_transactions
		ORDER BY position`)
	if err != nil {
		return core.Snapshot{}, false, fmt.Errorf("read transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t core.Transaction
		var kind, occurredAt string
		err := rows.Scan(&t.ID, &t.Title, &t.Value, &kind, &t.Category.Title,
			&occurredAt, &t.DisplayValue, &t.DisplayDate)
		if err != nil {
			return core.Snapshot{}, false, fmt.Errorf("scan transaction: %w", err)
		}
		t.Kind = core.Kind(kind)
		if d, err := core.ParseISODate(occurredAt); err == nil {
			t.OccurredAt = d
		}
		snap.Transactions = append(snap.Transactions, t)
	}
	if err := rows.Err(); err != nil {
		return core.Snapshot{}, false, fmt.Errorf("iterate transactions: %w", err)
	}

	return snap, true, nil
}
