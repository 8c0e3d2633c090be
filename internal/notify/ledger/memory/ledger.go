// Package memory provides an in-memory notification ledger for development
// and tests. It offers no durability across restarts.
package memory

import (
	"context"
	"sync"

	"github.com/sports-iot/scorewatch/internal/scoreboard"
)

type key struct {
	day    string
	winner string
	sport  string
}

// Ledger is a mutex-guarded reservation set.
type Ledger struct {
	mu   sync.Mutex
	rows map[key]struct{}
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{rows: make(map[key]struct{})}
}

// Reserve inserts the triple if absent and reports whether it was new.
func (l *Ledger) Reserve(_ context.Context, day, winner, sport string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := key{day: day, winner: winner, sport: sport}
	if _, exists := l.rows[k]; exists {
		return false, nil
	}
	l.rows[k] = struct{}{}
	return true, nil
}

// ListDay returns the reservations under one day bucket.
func (l *Ledger) ListDay(_ context.Context, day string) ([]scoreboard.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var entries []scoreboard.LedgerEntry
	for k := range l.rows {
		if k.day == day {
			entries = append(entries, scoreboard.LedgerEntry{Day: k.day, Winner: k.winner, Sport: k.sport})
		}
	}
	return entries, nil
}

// Delete removes one reservation.
func (l *Ledger) Delete(_ context.Context, day, winner, sport string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.rows, key{day: day, winner: winner, sport: sport})
	return nil
}
