// Package replay implements a change source fed from recorded snapshots.
package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/sports-iot/scorewatch/internal/recording"
)

// Source replays one sport's recorded snapshots for a given day, in order.
// Query reports a change per snapshot and false once the recording is
// exhausted.
type Source struct {
	store *recording.Store
	queue []recording.Snapshot
	index int
}

// New lists the recorded snapshots for sport/day and prepares playback.
func New(store *recording.Store, sport string, day time.Time) (*Source, error) {
	snaps, err := store.List(sport, day)
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	return &Source{
		store: store,
		queue: snaps,
	}, nil
}

// Remaining reports how many snapshots are left to play.
func (s *Source) Remaining() int {
	return len(s.queue) - s.index
}

// Query returns the next recorded snapshot, or false when playback is done.
func (s *Source) Query(_ context.Context) (bool, string, error) {
	if s.index >= len(s.queue) {
		return false, "", nil
	}
	snap := s.queue[s.index]
	s.index++
	html, err := s.store.Read(snap.Path)
	if err != nil {
		return false, "", fmt.Errorf("replay snapshot: %w", err)
	}
	return true, html, nil
}

// Restart does nothing during playback; the recording is consumed once.
func (s *Source) Restart(_ context.Context, _ string) error {
	return nil
}

// Close is a no-op.
func (s *Source) Close(_ context.Context) error {
	return nil
}
