// Package multi fans inserts out to several sinks.
package multi

import (
	"context"
	"errors"

	"github.com/sports-iot/scorewatch/internal/scoreboard"
)

// Sink forwards every call to each wrapped sink. All sinks are attempted even
// when an earlier one fails; the errors are joined.
type Sink struct {
	sinks []scoreboard.Sink
}

// New creates a fan-out sink.
func New(sinks ...scoreboard.Sink) *Sink {
	return &Sink{sinks: sinks}
}

// InsertSport forwards to every sink.
func (s *Sink) InsertSport(ctx context.Context, sport string) error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.InsertSport(ctx, sport); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// InsertSchool forwards to every sink.
func (s *Sink) InsertSchool(ctx context.Context, school string) error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.InsertSchool(ctx, school); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// InsertGame forwards to every sink.
func (s *Sink) InsertGame(ctx context.Context, rec scoreboard.GameRecord) error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.InsertGame(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
