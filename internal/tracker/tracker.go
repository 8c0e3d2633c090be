// Package tracker decides which extracted records are meaningful changes.
package tracker

import (
	"sort"

	"github.com/sports-iot/scorewatch/internal/scoreboard"
)

type key struct {
	sport string
	team  string
}

// Result describes the outcome of observing a record.
type Result struct {
	// Accepted is true when the record should be committed downstream.
	Accepted bool
	// WentFinal is true when the stored record was non-final and the new one
	// is final. It is an observability signal only.
	WentFinal bool
}

// Tracker remembers the last accepted record per (sport, team). It is owned
// by the single consumer loop and needs no locking.
type Tracker struct {
	prev map[key]scoreboard.GameRecord
}

// New creates an empty tracker. State does not survive restarts; after a
// restart every game re-emits once.
func New() *Tracker {
	return &Tracker{prev: make(map[key]scoreboard.GameRecord)}
}

// Observe accepts the record iff no prior record exists for the key or the
// new record differs in any field other than the scheduled time. On
// acceptance the stored record is replaced unconditionally.
func (t *Tracker) Observe(team string, rec scoreboard.GameRecord) Result {
	k := key{sport: rec.Sport, team: team}
	prev, seen := t.prev[k]
	if seen && rec.EqualIgnoringSchedule(prev) {
		return Result{}
	}
	t.prev[k] = rec
	return Result{
		Accepted:  true,
		WentFinal: seen && prev.Status != scoreboard.StatusFinal && rec.Status == scoreboard.StatusFinal,
	}
}

// Snapshot returns the currently stored records in stable order, for the
// operational state endpoint.
func (t *Tracker) Snapshot() []scoreboard.GameRecord {
	keys := make([]key, 0, len(t.prev))
	for k := range t.prev {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].sport != keys[j].sport {
			return keys[i].sport < keys[j].sport
		}
		return keys[i].team < keys[j].team
	})
	out := make([]scoreboard.GameRecord, 0, len(keys))
	for _, k := range keys {
		out = append(out, t.prev[k])
	}
	return out
}
