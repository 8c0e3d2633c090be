// Package pipeline drains the change event queue and commits game state.
//
// A single consumer goroutine owns the tracker and the sink, so every event
// is processed in arrival order with no locking downstream.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sports-iot/scorewatch/internal/extract"
	"github.com/sports-iot/scorewatch/internal/metrics"
	"github.com/sports-iot/scorewatch/internal/recording"
	"github.com/sports-iot/scorewatch/internal/scoreboard"
	"github.com/sports-iot/scorewatch/internal/tracker"
)

// Restarter receives restart requests when a sport's page stops parsing.
type Restarter interface {
	RequestRestart(sport, reason string)
}

// Config captures the consumer's tunables.
type Config struct {
	// MissThreshold is the number of consecutive snapshots without contest
	// rows after which the sport's source is restarted.
	MissThreshold int
	// SportTeams maps each sport to the tracked team names to extract.
	SportTeams map[string][]string
}

// Consumer processes change events one at a time.
type Consumer struct {
	cfg       Config
	queue     scoreboard.Queue
	registry  *extract.Registry
	tracker   *tracker.Tracker
	sink      scoreboard.Sink
	restarter Restarter
	store     *recording.Store
	logger    *zap.Logger

	misses map[string]int

	// state is a published copy of the tracker snapshot, safe to read from
	// the ops server while the consumer keeps running.
	stateMu sync.RWMutex
	state   []scoreboard.GameRecord
}

// New constructs the consumer. The recording store may be nil.
func New(
	cfg Config,
	queue scoreboard.Queue,
	registry *extract.Registry,
	trk *tracker.Tracker,
	sink scoreboard.Sink,
	restarter Restarter,
	store *recording.Store,
	logger *zap.Logger,
) *Consumer {
	return &Consumer{
		cfg:       cfg,
		queue:     queue,
		registry:  registry,
		tracker:   trk,
		sink:      sink,
		restarter: restarter,
		store:     store,
		logger:    logger.Named("pipeline"),
		misses:    make(map[string]int),
	}
}

// Seed writes the reference rows for every tracked sport so games can refer
// to them. Called once at startup.
func (c *Consumer) Seed(ctx context.Context) error {
	for sport := range c.cfg.SportTeams {
		if err := c.sink.InsertSport(ctx, sport); err != nil {
			return err
		}
	}
	return nil
}

// State returns the last published tracker snapshot.
func (c *Consumer) State() []scoreboard.GameRecord {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// Run consumes events until the context ends or the queue closes.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		ev, err := c.queue.Consume(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if strings.Contains(err.Error(), "queue closed") {
				return nil
			}
			return err
		}
		c.process(ctx, ev)
	}
}

// process handles one snapshot. Per-team failures are logged and skipped so
// one bad column never blocks the rest of the page.
func (c *Consumer) process(ctx context.Context, ev scoreboard.ChangeEvent) {
	if c.store != nil {
		if err := c.store.Append(ctx, ev); err != nil {
			c.logger.Warn("record snapshot failed",
				zap.String("sport", ev.Sport), zap.Error(err))
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(ev.HTML))
	if err != nil {
		c.logger.Error("parse snapshot html failed",
			zap.String("sport", ev.Sport), zap.Error(err))
		c.recordMiss(ev.Sport)
		return
	}

	if !extract.HasContestRows(doc) {
		c.recordMiss(ev.Sport)
		return
	}
	c.misses[ev.Sport] = 0

	for _, team := range c.cfg.SportTeams[ev.Sport] {
		col := extract.TeamColumn(doc, team)
		if col == nil {
			continue
		}
		rec, err := c.registry.Parse(ev.Sport, col)
		if err != nil {
			c.logger.Warn("extract game failed",
				zap.String("sport", ev.Sport),
				zap.String("team", team),
				zap.Error(err))
			continue
		}
		c.commit(ctx, team, rec)
	}
}

// recordMiss counts a snapshot without usable contest rows. When a sport
// misses the configured number of times in a row, its source is restarted
// once and the count resets.
func (c *Consumer) recordMiss(sport string) {
	metrics.ObserveParseMiss(sport)
	c.misses[sport]++
	if c.misses[sport] < c.cfg.MissThreshold {
		return
	}
	c.misses[sport] = 0
	c.logger.Warn("too many consecutive parse misses, restarting source",
		zap.String("sport", sport),
		zap.Int("threshold", c.cfg.MissThreshold))
	if c.restarter != nil {
		c.restarter.RequestRestart(sport, "parse_misses")
	}
}

// commit runs the diff and, on acceptance, writes schools and the game state.
// Sink errors are logged and counted; the tracker keeps the new state either
// way, matching the at-most-once notification stance.
func (c *Consumer) commit(ctx context.Context, team string, rec scoreboard.GameRecord) {
	res := c.tracker.Observe(team, rec)
	if !res.Accepted {
		return
	}
	c.stateMu.Lock()
	c.state = c.tracker.Snapshot()
	c.stateMu.Unlock()
	metrics.ObserveAccepted(rec.Sport)
	if res.WentFinal {
		metrics.ObserveWentFinal(rec.Sport)
		c.logger.Info("game went final",
			zap.String("sport", rec.Sport),
			zap.String("away", rec.AwayTeam),
			zap.String("home", rec.HomeTeam),
			zap.String("winner", rec.Winner))
	}

	var errs []error
	for _, school := range []string{rec.AwayTeam, rec.HomeTeam} {
		if school == "" {
			continue
		}
		if err := c.sink.InsertSchool(ctx, school); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.sink.InsertGame(ctx, rec); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		metrics.ObserveSinkError(rec.Sport)
		c.logger.Error("sink write failed",
			zap.String("sport", rec.Sport),
			zap.String("team", team),
			zap.Error(err))
	}
}
