// Package main wires together the scorewatch service binary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/sports-iot/scorewatch/internal/clock/system"
	"github.com/sports-iot/scorewatch/internal/config"
	"github.com/sports-iot/scorewatch/internal/extract"
	"github.com/sports-iot/scorewatch/internal/logging"
	"github.com/sports-iot/scorewatch/internal/metrics"
	"github.com/sports-iot/scorewatch/internal/monitor"
	"github.com/sports-iot/scorewatch/internal/notify"
	ledgermemory "github.com/sports-iot/scorewatch/internal/notify/ledger/memory"
	ledgerpostgres "github.com/sports-iot/scorewatch/internal/notify/ledger/postgres"
	"github.com/sports-iot/scorewatch/internal/pipeline"
	queuememory "github.com/sports-iot/scorewatch/internal/queue/memory"
	"github.com/sports-iot/scorewatch/internal/recording"
	"github.com/sports-iot/scorewatch/internal/scoreboard"
	"github.com/sports-iot/scorewatch/internal/schedule"
	"github.com/sports-iot/scorewatch/internal/server"
	apisink "github.com/sports-iot/scorewatch/internal/sink/api"
	legacysink "github.com/sports-iot/scorewatch/internal/sink/legacy"
	logsink "github.com/sports-iot/scorewatch/internal/sink/log"
	multisink "github.com/sports-iot/scorewatch/internal/sink/multi"
	postgressink "github.com/sports-iot/scorewatch/internal/sink/postgres"
	pubsubsink "github.com/sports-iot/scorewatch/internal/sink/pubsub"
	"github.com/sports-iot/scorewatch/internal/source/headless"
	"github.com/sports-iot/scorewatch/internal/source/replay"
	"github.com/sports-iot/scorewatch/internal/source/static"
	"github.com/sports-iot/scorewatch/internal/tracker"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	replayDate := flag.String("replay-date", "", "Replay recorded snapshots for this date (YYYY-MM-DD) instead of watching live")
	recordOnly := flag.Bool("record-only", false, "Record snapshots without extracting or committing game state")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *replayDate, *recordOnly, logger); err != nil {
		logger.Fatal("scorewatch failed", zap.Error(err))
	}
	logger.Info("scorewatch stopped")
}

func run(ctx context.Context, cfg config.Config, replayDate string, recordOnly bool, logger *zap.Logger) error {
	clock := system.Clock{}

	store, err := buildStore(ctx, cfg, replayDate, logger)
	if err != nil {
		return err
	}

	sink, notifier, cleanup, err := buildSink(ctx, cfg, clock, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	sportTeams := cfg.SportTeams()
	sports := make([]string, 0, len(sportTeams))
	for sport := range sportTeams {
		sports = append(sports, sport)
	}
	if recordOnly {
		// Snapshots still flow and get recorded; nothing is extracted.
		sportTeams = map[string][]string{}
	}

	queue := queuememory.NewQueue(cfg.Pipeline.QueueDepth)
	poolCfg, allocCancel, err := buildSources(ctx, cfg, store, replayDate, sports, clock, logger)
	if err != nil {
		return err
	}
	defer allocCancel()
	pool := monitor.New(poolCfg, queue, clock, logger)

	consumer := pipeline.New(
		pipeline.Config{
			MissThreshold: cfg.Pipeline.MissThreshold,
			SportTeams:    sportTeams,
		},
		queue,
		extract.NewRegistry(clock),
		tracker.New(),
		sink,
		pool,
		store,
		logger,
	)
	if err := consumer.Seed(ctx); err != nil {
		return fmt.Errorf("seed sink: %w", err)
	}

	sched := schedule.New(clock, logger)
	restartAt, _ := config.ParseWallClock(cfg.Schedule.RestartAt)
	sched.Add(schedule.Job{
		Name: "daily-restart",
		At:   restartAt,
		Run: func(_ context.Context) error {
			pool.RestartAll("daily_rollover")
			return nil
		},
	})
	if notifier != nil {
		clearAt, _ := config.ParseWallClock(cfg.Schedule.ClearAt)
		sched.Add(schedule.Job{
			Name: "clear-previous-day",
			At:   clearAt,
			Run:  notifier.ClearPreviousDay,
		})
	}

	srv := server.New(cfg.Server.Port, consumer.State, logger)
	srv.Start()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("ops server shutdown failed", zap.Error(err))
		}
	}()

	pool.Start(ctx)
	sched.Start(ctx)

	consumerDone := make(chan error, 1)
	go func() {
		consumerDone <- consumer.Run(ctx)
	}()

	if replayDate != "" {
		// Replay sources exhaust themselves; close the queue once they have
		// and let the consumer drain the remainder.
		pool.Wait()
		queue.Close()
		return <-consumerDone
	}

	<-ctx.Done()
	pool.Wait()
	queue.Close()
	return <-consumerDone
}

// buildStore creates the snapshot store when recording or replay needs one.
func buildStore(ctx context.Context, cfg config.Config, replayDate string, logger *zap.Logger) (*recording.Store, error) {
	if !cfg.Recording.Enabled && replayDate == "" {
		return nil, nil
	}
	var archiver recording.Archiver
	if cfg.Recording.GCSBucket != "" && replayDate == "" {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create storage client: %w", err)
		}
		archiver, err = recording.NewGCSArchiver(client, cfg.Recording.GCSBucket, "snapshots")
		if err != nil {
			return nil, err
		}
	}
	return recording.NewStore(recording.Config{
		BaseDir:  cfg.Recording.Dir,
		Compress: cfg.Recording.Compress,
	}, archiver, logger.Named("recording"))
}

// buildSink assembles the configured sink chain. The returned notifier is nil
// unless the legacy channel is enabled.
func buildSink(
	ctx context.Context,
	cfg config.Config,
	clock scoreboard.Clock,
	logger *zap.Logger,
) (scoreboard.Sink, *notify.Notifier, func(), error) {
	var (
		sinks    []scoreboard.Sink
		cleanups []func()
	)
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	switch cfg.Sink.Mode {
	case "debug":
		sinks = append(sinks, logsink.New(logger.Named("sink")))
	case "postgres":
		pg, err := postgressink.New(ctx, cfg.DB.DSN)
		if err != nil {
			return nil, nil, cleanup, err
		}
		if err := pg.Init(ctx); err != nil {
			pg.Close()
			return nil, nil, cleanup, err
		}
		cleanups = append(cleanups, pg.Close)
		sinks = append(sinks, pg)
	case "api":
		api, err := apisink.New(apisink.Config{BaseURL: cfg.API.URL, Token: cfg.API.Token})
		if err != nil {
			return nil, nil, cleanup, err
		}
		sinks = append(sinks, api)
	case "pubsub":
		ps, err := pubsubsink.New(ctx, cfg.PubSub.ProjectID, cfg.PubSub.TopicName)
		if err != nil {
			return nil, nil, cleanup, err
		}
		cleanups = append(cleanups, func() {
			if err := ps.Close(); err != nil {
				logger.Warn("close pubsub sink failed", zap.Error(err))
			}
		})
		sinks = append(sinks, ps)
	default:
		return nil, nil, cleanup, fmt.Errorf("unknown sink mode %q", cfg.Sink.Mode)
	}

	var notifier *notify.Notifier
	if cfg.Sink.LegacyEnabled {
		var ledger scoreboard.Ledger
		if cfg.DB.DSN != "" {
			pgLedger, err := ledgerpostgres.NewLedger(ctx, cfg.DB.DSN)
			if err != nil {
				return nil, nil, cleanup, err
			}
			if err := pgLedger.Init(ctx); err != nil {
				pgLedger.Close()
				return nil, nil, cleanup, err
			}
			cleanups = append(cleanups, pgLedger.Close)
			ledger = pgLedger
		} else {
			ledger = ledgermemory.NewLedger()
		}
		notifier = notify.New(
			ledger,
			notify.NewSender(cfg.Notify.URL, 0),
			clock,
			cfg.Notify.Watch,
			logger.Named("notify"),
		)
		sinks = append(sinks, legacysink.New(notifier))
	}

	if len(sinks) == 1 {
		return sinks[0], notifier, cleanup, nil
	}
	return multisink.New(sinks...), notifier, cleanup, nil
}

// buildSources picks the change source backend and returns the monitor pool
// configuration plus a teardown for any shared browser allocator.
func buildSources(
	ctx context.Context,
	cfg config.Config,
	store *recording.Store,
	replayDate string,
	sports []string,
	clock scoreboard.Clock,
	logger *zap.Logger,
) (monitor.Config, context.CancelFunc, error) {
	urlFor := func(sport string) string {
		return monitor.PageURL(cfg.Source.BaseURL, cfg.Sports[sport], clock.Now())
	}
	noop := func() {}

	if replayDate != "" {
		if store == nil {
			return monitor.Config{}, noop, fmt.Errorf("replay requires a recording directory")
		}
		day, err := time.Parse("2006-01-02", replayDate)
		if err != nil {
			return monitor.Config{}, noop, fmt.Errorf("parse replay date: %w", err)
		}
		return monitor.Config{
			Sports: sports,
			URLFor: urlFor,
			Open: func(_ context.Context, sport, _ string) (scoreboard.Source, error) {
				return replay.New(store, sport, day)
			},
		}, noop, nil
	}

	switch cfg.Source.Mode {
	case "static":
		return monitor.Config{
			Sports:    sports,
			URLFor:    urlFor,
			IdleDelay: cfg.Source.PollInterval(),
			Open: func(_ context.Context, _, u string) (scoreboard.Source, error) {
				return static.New(static.Config{
					URL:       u,
					UserAgent: cfg.Source.UserAgent,
				})
			},
		}, noop, nil
	case "headless":
		allocator, allocCancel := headless.NewAllocator(ctx)
		idle := time.Duration(0)
		if cfg.Source.WaitTimeout() <= 0 {
			idle = cfg.Source.PollInterval()
		}
		return monitor.Config{
			Sports:    sports,
			URLFor:    urlFor,
			IdleDelay: idle,
			Open: func(_ context.Context, sport, u string) (scoreboard.Source, error) {
				return headless.Open(allocator, headless.Config{
					URL:          u,
					UserAgent:    cfg.Source.UserAgent,
					ObserveScope: cfg.Source.ObserveScope,
					WaitTimeout:  cfg.Source.WaitTimeout(),
				}, logger.Named("headless").With(zap.String("sport", sport)))
			},
		}, allocCancel, nil
	default:
		return monitor.Config{}, noop, fmt.Errorf("unknown source mode %q", cfg.Source.Mode)
	}
}
