// Package monitor runs one change watcher per sport and feeds the shared
// event queue.
package monitor

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sports-iot/scorewatch/internal/metrics"
	"github.com/sports-iot/scorewatch/internal/scoreboard"
)

// openRetryDelay paces reconnect attempts when a source cannot be opened.
const openRetryDelay = 5 * time.Second

// OpenFunc creates a change source for a sport bound to its page URL.
type OpenFunc func(ctx context.Context, sport, u string) (scoreboard.Source, error)

// URLFunc computes the current page URL for a sport. It is re-evaluated on
// every restart so the daily page roll-over picks up the new date.
type URLFunc func(sport string) string

// PageURL builds the scoreboard URL for a sport code on a given day.
func PageURL(baseURL, sportCode string, day time.Time) string {
	date := fmt.Sprintf("%d/%d/%d", int(day.Month()), day.Day(), day.Year())
	return fmt.Sprintf("%s?sport_code=%s&game_date=%s",
		baseURL, url.QueryEscape(sportCode), url.QueryEscape(date))
}

// Config wires a pool to its sources.
type Config struct {
	// Sports lists the sport names to watch, one worker each.
	Sports []string
	URLFor URLFunc
	Open   OpenFunc
	// IdleDelay paces the loop after a query that saw no change, so polling
	// sources do not hammer the site. Blocking sources may leave it zero.
	IdleDelay time.Duration
}

// Pool owns one worker goroutine per sport. Each worker serializes its
// source's Query and Restart calls, so sources never need internal locking.
type Pool struct {
	cfg     Config
	queue   scoreboard.Queue
	clock   scoreboard.Clock
	logger  *zap.Logger
	workers map[string]*worker
	wg      sync.WaitGroup
}

// New constructs a pool for the configured sports.
func New(cfg Config, queue scoreboard.Queue, clock scoreboard.Clock, logger *zap.Logger) *Pool {
	p := &Pool{
		cfg:     cfg,
		queue:   queue,
		clock:   clock,
		logger:  logger,
		workers: make(map[string]*worker, len(cfg.Sports)),
	}
	for _, sport := range cfg.Sports {
		p.workers[sport] = &worker{
			sport:     sport,
			pool:      p,
			restartCh: make(chan string, 1),
			logger:    logger.Named("monitor").With(zap.String("sport", sport)),
		}
	}
	return p
}

// Start launches every worker. It returns immediately; Wait blocks until the
// workers exit.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *worker) {
			defer p.wg.Done()
			w.run(ctx)
		}(w)
	}
}

// Wait blocks until all workers have exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// RequestRestart asks the sport's worker to restart its source before its
// next query. A pending request for the same worker is not duplicated.
func (p *Pool) RequestRestart(sport, reason string) {
	w, ok := p.workers[sport]
	if !ok {
		return
	}
	select {
	case w.restartCh <- reason:
	default:
	}
}

// RestartAll queues a restart for every worker.
func (p *Pool) RestartAll(reason string) {
	for sport := range p.workers {
		p.RequestRestart(sport, reason)
	}
}

type worker struct {
	sport     string
	pool      *Pool
	restartCh chan string
	logger    *zap.Logger
	source    scoreboard.Source
}

func (w *worker) run(ctx context.Context) {
	defer w.closeSource()

	if !w.openSource(ctx) {
		return
	}
	w.logger.Info("monitor started")

	for {
		select {
		case <-ctx.Done():
			return
		case reason := <-w.restartCh:
			w.restart(ctx, reason)
			continue
		default:
		}

		changed, html, err := w.source.Query(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			w.logger.Warn("source query failed, restarting", zap.Error(err))
			w.restart(ctx, "query_error")
			continue
		}
		if !changed {
			if done, ok := w.source.(interface{ Remaining() int }); ok && done.Remaining() == 0 {
				w.logger.Info("source exhausted, monitor exiting")
				return
			}
			if w.pool.cfg.IdleDelay > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(w.pool.cfg.IdleDelay):
				}
			}
			continue
		}

		ev := scoreboard.ChangeEvent{
			ID:         uuid.NewString(),
			Sport:      w.sport,
			HTML:       html,
			ObservedAt: w.pool.clock.Now(),
		}
		metrics.ObserveChange(w.sport)
		if err := w.pool.queue.Publish(ctx, ev); err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("publish change event failed", zap.Error(err))
		}
	}
}

// openSource connects the worker's source, retrying until it succeeds or the
// context ends. Returns false when the context ended first.
func (w *worker) openSource(ctx context.Context) bool {
	for {
		src, err := w.pool.cfg.Open(ctx, w.sport, w.pool.cfg.URLFor(w.sport))
		if err == nil {
			w.source = src
			return true
		}
		w.logger.Warn("open source failed, retrying", zap.Error(err))
		select {
		case <-ctx.Done():
			return false
		case <-time.After(openRetryDelay):
		}
	}
}

func (w *worker) restart(ctx context.Context, reason string) {
	metrics.ObserveRestart(w.sport, reason)
	u := w.pool.cfg.URLFor(w.sport)
	w.logger.Info("restarting source", zap.String("reason", reason), zap.String("url", u))
	if err := w.source.Restart(ctx, u); err != nil {
		w.logger.Error("source restart failed, reopening", zap.Error(err))
		w.closeSource()
		w.openSource(ctx)
	}
}

func (w *worker) closeSource() {
	if w.source == nil {
		return
	}
	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.source.Close(closeCtx); err != nil {
		w.logger.Warn("close source failed", zap.Error(err))
	}
	w.source = nil
}
