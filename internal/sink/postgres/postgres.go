// Package postgres provides a Postgres-backed sink for extracted data.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sports-iot/scorewatch/internal/scoreboard"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

// Sink persists sports, schools, and games. Sports and schools are reference
// rows; games are keyed by (sport, away, home) so a game converges on its
// latest state no matter how many snapshots re-emit it.
type Sink struct {
	pool execer
}

// New connects the sink to Postgres.
func New(ctx context.Context, dsn string) (*Sink, error) {
	if dsn == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Sink{pool: pool}, nil
}

// NewWithPool constructs a sink from an existing pool (primarily for testing).
func NewWithPool(pool execer) (*Sink, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Sink{pool: pool}, nil
}

// Init creates the sink tables when they do not exist yet.
func (s *Sink) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sports (
	name TEXT PRIMARY KEY
)`,
		`CREATE TABLE IF NOT EXISTS schools (
	name TEXT PRIMARY KEY
)`,
		`CREATE TABLE IF NOT EXISTS games (
	sport          TEXT NOT NULL,
	away_team      TEXT NOT NULL,
	home_team      TEXT NOT NULL,
	scheduled_at   TIMESTAMPTZ,
	status         TEXT NOT NULL,
	score          JSONB,
	winner         TEXT,
	attendance     INTEGER,
	current_period TEXT,
	current_clock  TEXT,
	game_link      TEXT,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (sport, away_team, home_team)
)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create sink tables: %w", err)
		}
	}
	return nil
}

// InsertSport records a sport reference row.
func (s *Sink) InsertSport(ctx context.Context, sport string) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO sports (name) VALUES ($1) ON CONFLICT DO NOTHING`, sport)
	if err != nil {
		return fmt.Errorf("insert sport: %w", err)
	}
	return nil
}

// InsertSchool records a school reference row.
func (s *Sink) InsertSchool(ctx context.Context, school string) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO schools (name) VALUES ($1) ON CONFLICT DO NOTHING`, school)
	if err != nil {
		return fmt.Errorf("insert school: %w", err)
	}
	return nil
}

// InsertGame upserts the game's latest state.
func (s *Sink) InsertGame(ctx context.Context, rec scoreboard.GameRecord) error {
	score, err := json.Marshal(rec.Score)
	if err != nil {
		return fmt.Errorf("marshal score: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO games (
	sport, away_team, home_team, scheduled_at, status, score,
	winner, attendance, current_period, current_clock, game_link, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
ON CONFLICT (sport, away_team, home_team) DO UPDATE SET
	scheduled_at   = EXCLUDED.scheduled_at,
	status         = EXCLUDED.status,
	score          = EXCLUDED.score,
	winner         = EXCLUDED.winner,
	attendance     = EXCLUDED.attendance,
	current_period = EXCLUDED.current_period,
	current_clock  = EXCLUDED.current_clock,
	game_link      = EXCLUDED.game_link,
	updated_at     = now()`,
		rec.Sport, rec.AwayTeam, rec.HomeTeam, rec.ScheduledAt, string(rec.Status), score,
		rec.Winner, rec.Attendance, rec.CurrentPeriod, rec.CurrentClock, rec.GameLink,
	)
	if err != nil {
		return fmt.Errorf("upsert game: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *Sink) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}
