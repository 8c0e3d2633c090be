// Package notify enforces at-most-one legacy notification per day and winner.
package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sports-iot/scorewatch/internal/metrics"
	"github.com/sports-iot/scorewatch/internal/scoreboard"
)

// Notifier guards the legacy status endpoint with a durable ledger so a
// winner is announced at most once per logical day, across restarts.
type Notifier struct {
	ledger scoreboard.Ledger
	sender scoreboard.StatusSender
	clock  scoreboard.Clock
	// watch maps tracked team names to their external school codes. Teams
	// outside the map never notify.
	watch  map[string]string
	logger *zap.Logger
}

// New constructs a Notifier.
func New(
	ledger scoreboard.Ledger,
	sender scoreboard.StatusSender,
	clock scoreboard.Clock,
	watch map[string]string,
	logger *zap.Logger,
) *Notifier {
	return &Notifier{
		ledger: ledger,
		sender: sender,
		clock:  clock,
		watch:  watch,
		logger: logger,
	}
}

// GameFinal handles a final record: if the winner is watch-listed, reserve
// its (day, winner, sport) slot and, only when the reservation is new, send
// the "set" notification. A delivery failure after a successful reservation
// is not rolled back, trading a possibly lost first notification for never
// spamming the legacy endpoint twice.
func (n *Notifier) GameFinal(ctx context.Context, rec scoreboard.GameRecord) error {
	if rec.Status != scoreboard.StatusFinal {
		return nil
	}
	if rec.Winner == "" || rec.Winner == scoreboard.WinnerTie {
		return nil
	}
	code, ok := n.watch[rec.Winner]
	if !ok {
		return nil
	}

	day := DayBucket(n.clock.Now())
	created, err := n.ledger.Reserve(ctx, day, rec.Winner, rec.Sport)
	if err != nil {
		return fmt.Errorf("reserve notification slot: %w", err)
	}
	if !created {
		metrics.ObserveNotification("duplicate")
		n.logger.Debug("winner already announced today",
			zap.String("winner", rec.Winner),
			zap.String("sport", rec.Sport),
			zap.String("day", day),
		)
		return nil
	}

	n.logger.Info("announcing winner",
		zap.String("winner", rec.Winner),
		zap.String("sport", rec.Sport),
		zap.String("day", day),
	)
	if err := n.sender.SendStatus(ctx, code, rec.Sport, 1); err != nil {
		metrics.ObserveNotification("failed")
		return fmt.Errorf("send winner notification: %w", err)
	}
	metrics.ObserveNotification("sent")
	return nil
}

// ClearPreviousDay sends a "clear" for every ledger row under yesterday's
// bucket and deletes each row only after its clear succeeded. Failed rows
// stay for the next run, making the clear at-least-once.
func (n *Notifier) ClearPreviousDay(ctx context.Context) error {
	day := PreviousDayBucket(n.clock.Now())
	entries, err := n.ledger.ListDay(ctx, day)
	if err != nil {
		return fmt.Errorf("list ledger day %s: %w", day, err)
	}

	for _, entry := range entries {
		code, ok := n.watch[entry.Winner]
		if !ok {
			n.logger.Warn("no external code for ledger entry, leaving it",
				zap.String("winner", entry.Winner),
				zap.String("sport", entry.Sport),
			)
			continue
		}
		if err := n.sender.SendStatus(ctx, code, entry.Sport, 0); err != nil {
			metrics.ObserveLedgerClear("failed")
			n.logger.Warn("clear notification failed, keeping ledger row",
				zap.String("winner", entry.Winner),
				zap.String("sport", entry.Sport),
				zap.Error(err),
			)
			continue
		}
		metrics.ObserveLedgerClear("cleared")
		if err := n.ledger.Delete(ctx, day, entry.Winner, entry.Sport); err != nil {
			n.logger.Error("delete ledger row failed",
				zap.String("winner", entry.Winner),
				zap.String("sport", entry.Sport),
				zap.Error(err),
			)
		}
	}
	return nil
}
