// Package log provides a sink that writes extracted data to the logger. It is
// the default sink in development.
package log

import (
	"context"

	"go.uber.org/zap"

	"github.com/sports-iot/scorewatch/internal/scoreboard"
)

// Sink logs every insert instead of persisting it.
type Sink struct {
	logger *zap.Logger
}

// New creates a logging sink.
func New(logger *zap.Logger) *Sink {
	return &Sink{logger: logger}
}

// InsertSport logs the sport.
func (s *Sink) InsertSport(_ context.Context, sport string) error {
	s.logger.Debug("sink insert sport", zap.String("sport", sport))
	return nil
}

// InsertSchool logs the school.
func (s *Sink) InsertSchool(_ context.Context, school string) error {
	s.logger.Debug("sink insert school", zap.String("school", school))
	return nil
}

// InsertGame logs the full record.
func (s *Sink) InsertGame(_ context.Context, rec scoreboard.GameRecord) error {
	s.logger.Info("sink insert game",
		zap.String("sport", rec.Sport),
		zap.String("away", rec.AwayTeam),
		zap.String("home", rec.HomeTeam),
		zap.String("status", string(rec.Status)),
		zap.Ints("points", rec.Score.Points),
		zap.String("winner", rec.Winner),
	)
	return nil
}
