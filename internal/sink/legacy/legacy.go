// Package legacy adapts the winner notifier into a sink so final games flow
// to the legacy display system alongside the primary sink.
package legacy

import (
	"context"

	"github.com/sports-iot/scorewatch/internal/notify"
	"github.com/sports-iot/scorewatch/internal/scoreboard"
)

// Sink routes final game records to the notifier. Sports and schools have no
// legacy representation.
type Sink struct {
	notifier *notify.Notifier
}

// New creates the legacy sink.
func New(notifier *notify.Notifier) *Sink {
	return &Sink{notifier: notifier}
}

// InsertSport is a no-op for the legacy sink.
func (s *Sink) InsertSport(_ context.Context, _ string) error {
	return nil
}

// InsertSchool is a no-op for the legacy sink.
func (s *Sink) InsertSchool(_ context.Context, _ string) error {
	return nil
}

// InsertGame hands the record to the notifier, which ignores non-final games.
func (s *Sink) InsertGame(ctx context.Context, rec scoreboard.GameRecord) error {
	return s.notifier.GameFinal(ctx, rec)
}
