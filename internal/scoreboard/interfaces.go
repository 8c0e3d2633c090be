package scoreboard

import (
	"context"
	"time"
)

// Source watches one scoreboard page for changes.
//
// Query blocks until a change is detected, the wait window elapses, or the
// context ends. It returns whether the page changed and, when it did, the
// page's full HTML. Implementations guarantee a change on the first call
// after open or restart so consumers always see the initial state.
type Source interface {
	Query(ctx context.Context) (bool, string, error)
	// Restart tears the underlying session down and reopens it at url. The
	// next Query after a restart reports a change.
	Restart(ctx context.Context, url string) error
	Close(ctx context.Context) error
}

// Queue moves change events from the monitors to the single consumer.
type Queue interface {
	Publish(ctx context.Context, ev ChangeEvent) error
	Consume(ctx context.Context) (ChangeEvent, error)
}

// Sink commits extracted data downstream. Implementations must tolerate
// repeated inserts of the same sport, school, or game state.
type Sink interface {
	InsertSport(ctx context.Context, sport string) error
	InsertSchool(ctx context.Context, school string) error
	InsertGame(ctx context.Context, rec GameRecord) error
}

// Ledger durably reserves notification slots. Reserve reports true only for
// the first caller of a given (day, winner, sport) triple.
type Ledger interface {
	Reserve(ctx context.Context, day, winner, sport string) (bool, error)
	ListDay(ctx context.Context, day string) ([]LedgerEntry, error)
	Delete(ctx context.Context, day, winner, sport string) error
}

// StatusSender delivers a win/clear flag to the legacy display endpoint.
type StatusSender interface {
	SendStatus(ctx context.Context, school, sport string, status int) error
}

// Clock abstracts time.Now for deterministic tests.
type Clock interface {
	Now() time.Time
}
