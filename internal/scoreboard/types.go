// Package scoreboard defines the core types and interfaces shared by the
// scorewatch pipeline.
package scoreboard

import (
	"reflect"
	"time"
)

// GameStatus is the coarse lifecycle state of a game as rendered on the page.
type GameStatus string

const (
	StatusNotStarted GameStatus = "Not Started"
	StatusInProgress GameStatus = "In Progress"
	StatusFinal      GameStatus = "Final"
)

// WinnerTie marks a final game whose headline scores are equal.
const WinnerTie = "tie"

// ScoreDetail carries the sport-specific structured sub-scores. At most one
// of the fields is populated, depending on the sport's parser.
type ScoreDetail struct {
	// SetScores holds per-set points, one row per team (volleyball).
	SetScores [][]int `json:"setScores,omitempty"`
	// PeriodScores holds per-period points, one row per team (basketball).
	PeriodScores [][]int `json:"periodScores,omitempty"`
	// HitsErrors holds [hits, errors] pairs, one row per team (baseball).
	HitsErrors [][]int `json:"hitsErrors,omitempty"`
}

// Score is a game's headline points plus optional structured detail.
type Score struct {
	// Points holds the headline score, away team first.
	Points []int       `json:"points,omitempty"`
	Detail ScoreDetail `json:"detail"`
}

// HasPoints reports whether headline scores were rendered on the page.
func (s Score) HasPoints() bool {
	return len(s.Points) > 0
}

// GameRecord is one team's view of a game extracted from a scoreboard
// snapshot.
type GameRecord struct {
	Sport       string     `json:"sport"`
	AwayTeam    string     `json:"awayTeam"`
	HomeTeam    string     `json:"homeTeam"`
	ScheduledAt time.Time  `json:"scheduledAt"`
	Status      GameStatus `json:"status"`
	Score       Score      `json:"score"`
	// Winner is set only for final games: the winning team's name, WinnerTie
	// on equal scores, or empty when no winner could be derived.
	Winner string `json:"winner,omitempty"`
	// Attendance is nil when the page renders no numeric attendance.
	Attendance    *int   `json:"attendance,omitempty"`
	CurrentPeriod string `json:"currentPeriod,omitempty"`
	CurrentClock  string `json:"currentClock,omitempty"`
	GameLink      string `json:"gameLink,omitempty"`
}

// EqualIgnoringSchedule compares two records with the scheduled time masked
// out. The rendered schedule oscillates between formats on some pages and
// must not count as a game change.
func (r GameRecord) EqualIgnoringSchedule(other GameRecord) bool {
	r.ScheduledAt = time.Time{}
	other.ScheduledAt = time.Time{}
	return reflect.DeepEqual(r, other)
}

// ChangeEvent is one raw scoreboard snapshot flowing from a monitor to the
// consumer.
type ChangeEvent struct {
	ID         string    `json:"id"`
	Sport      string    `json:"sport"`
	HTML       string    `json:"html"`
	ObservedAt time.Time `json:"observedAt"`
}

// LedgerEntry is one durable notification reservation.
type LedgerEntry struct {
	Day    string `json:"day"`
	Winner string `json:"winner"`
	Sport  string `json:"sport"`
}
