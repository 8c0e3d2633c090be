// Package postgres provides the Postgres-backed notification ledger.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sports-iot/scorewatch/internal/scoreboard"
)

type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// Ledger stores one row per (day, winner, sport) reservation. The primary
// key makes Reserve an atomic insert-if-absent.
type Ledger struct {
	pool db
}

// NewLedger connects a ledger to Postgres.
func NewLedger(ctx context.Context, dsn string) (*Ledger, error) {
	if dsn == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Ledger{pool: pool}, nil
}

// NewLedgerWithPool constructs a ledger from an existing pool (primarily for
// testing).
func NewLedgerWithPool(pool db) (*Ledger, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Ledger{pool: pool}, nil
}

// Init creates the ledger table when it does not exist yet.
func (l *Ledger) Init(ctx context.Context) error {
	_, err := l.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS notified (
	day    TEXT NOT NULL,
	winner TEXT NOT NULL,
	sport  TEXT NOT NULL,
	PRIMARY KEY (day, winner, sport)
)`)
	if err != nil {
		return fmt.Errorf("create notified table: %w", err)
	}
	return nil
}

// Reserve inserts the triple if absent and reports whether the row was newly
// created.
func (l *Ledger) Reserve(ctx context.Context, day, winner, sport string) (bool, error) {
	tag, err := l.pool.Exec(ctx, `
INSERT INTO notified (day, winner, sport)
VALUES ($1, $2, $3)
ON CONFLICT DO NOTHING`, day, winner, sport)
	if err != nil {
		return false, fmt.Errorf("insert notified row: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListDay returns the reservations recorded under one day bucket.
func (l *Ledger) ListDay(ctx context.Context, day string) ([]scoreboard.LedgerEntry, error) {
	rows, err := l.pool.Query(ctx, `
SELECT winner, sport FROM notified WHERE day = $1 ORDER BY winner, sport`, day)
	if err != nil {
		return nil, fmt.Errorf("query notified rows: %w", err)
	}
	defer rows.Close()

	var entries []scoreboard.LedgerEntry
	for rows.Next() {
		entry := scoreboard.LedgerEntry{Day: day}
		if err := rows.Scan(&entry.Winner, &entry.Sport); err != nil {
			return nil, fmt.Errorf("scan notified row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notified rows: %w", err)
	}
	return entries, nil
}

// Delete removes one reservation row.
func (l *Ledger) Delete(ctx context.Context, day, winner, sport string) error {
	_, err := l.pool.Exec(ctx, `
DELETE FROM notified WHERE day = $1 AND winner = $2 AND sport = $3`, day, winner, sport)
	if err != nil {
		return fmt.Errorf("delete notified row: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (l *Ledger) Close() {
	if l == nil || l.pool == nil {
		return
	}
	l.pool.Close()
}
