package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sports-iot/scorewatch/internal/extract"
	"github.com/sports-iot/scorewatch/internal/metrics"
	queuememory "github.com/sports-iot/scorewatch/internal/queue/memory"
	"github.com/sports-iot/scorewatch/internal/scoreboard"
	"github.com/sports-iot/scorewatch/internal/tracker"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type fakeSink struct {
	mu      sync.Mutex
	sports  []string
	schools []string
	games   []scoreboard.GameRecord
}

func (s *fakeSink) InsertSport(_ context.Context, sport string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sports = append(s.sports, sport)
	return nil
}

func (s *fakeSink) InsertSchool(_ context.Context, school string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schools = append(s.schools, school)
	return nil
}

func (s *fakeSink) InsertGame(_ context.Context, rec scoreboard.GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games = append(s.games, rec)
	return nil
}

func (s *fakeSink) gameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.games)
}

type fakeRestarter struct {
	mu       sync.Mutex
	restarts []string
}

func (r *fakeRestarter) RequestRestart(sport, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.restarts = append(r.restarts, sport)
}

func (r *fakeRestarter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.restarts)
}

const gamePage = `
<html><body><div class="row">
<div class="col-md-auto p-0">
  <div class="card">
    <div class="card-header">10/12/2024</div>
    <table>
      <tr id="contest_102">
        <td class="opponents_min_width"><a href="/teams/1">Utah St. (4-1)</a></td>
        <td><div id="score_102_away" class="p-1">31</div></td>
      </tr>
      <tr id="contest_102_home">
        <td class="opponents_min_width"><a href="/teams/2">Nevada (3-2)</a></td>
        <td><div id="score_102_home" class="p-1">24</div></td>
      </tr>
    </table>
    <span id="period_102">F</span>
    <a target="box_score_102" href="/box/102">Box Score</a>
  </div>
</div>
</div></body></html>`

const emptyPage = `<html><body><p>Loading...</p></body></html>`

func newTestConsumer(missThreshold int, sink scoreboard.Sink, restarter Restarter) *Consumer {
	metrics.Init()
	clock := fixedClock{now: time.Date(2024, 10, 12, 20, 0, 0, 0, time.UTC)}
	return New(
		Config{
			MissThreshold: missThreshold,
			SportTeams:    map[string][]string{"Football": {"Utah St."}},
		},
		queuememory.NewQueue(4),
		extract.NewRegistry(clock),
		tracker.New(),
		sink,
		restarter,
		nil,
		zap.NewNop(),
	)
}

func footballEvent(id, html string) scoreboard.ChangeEvent {
	return scoreboard.ChangeEvent{
		ID:         id,
		Sport:      "Football",
		HTML:       html,
		ObservedAt: time.Date(2024, 10, 12, 20, 0, 0, 0, time.UTC),
	}
}

func TestProcessCommitsExtractedGame(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	c := newTestConsumer(10, sink, &fakeRestarter{})
	ctx := context.Background()

	c.process(ctx, footballEvent("ev-1", gamePage))

	require.Equal(t, []string{"Utah St.", "Nevada"}, sink.schools)
	require.Equal(t, 1, sink.gameCount())
	require.Equal(t, scoreboard.StatusFinal, sink.games[0].Status)
	require.Equal(t, "Utah St.", sink.games[0].Winner)

	state := c.State()
	require.Len(t, state, 1)
}

func TestProcessSkipsUnchangedSnapshot(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	c := newTestConsumer(10, sink, &fakeRestarter{})
	ctx := context.Background()

	c.process(ctx, footballEvent("ev-1", gamePage))
	c.process(ctx, footballEvent("ev-2", gamePage))

	require.Equal(t, 1, sink.gameCount())
}

func TestMissThresholdTriggersOneRestart(t *testing.T) {
	t.Parallel()

	restarter := &fakeRestarter{}
	c := newTestConsumer(3, &fakeSink{}, restarter)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		c.process(ctx, footballEvent("miss", emptyPage))
		if i < 2 {
			require.Zero(t, restarter.count())
		}
	}
	require.Equal(t, 1, restarter.count())

	// Counter reset: another full run of misses is needed before the next
	// restart request.
	c.process(ctx, footballEvent("miss", emptyPage))
	c.process(ctx, footballEvent("miss", emptyPage))
	require.Equal(t, 1, restarter.count())
	c.process(ctx, footballEvent("miss", emptyPage))
	require.Equal(t, 2, restarter.count())
}

func TestGoodSnapshotResetsMissCounter(t *testing.T) {
	t.Parallel()

	restarter := &fakeRestarter{}
	c := newTestConsumer(3, &fakeSink{}, restarter)
	ctx := context.Background()

	c.process(ctx, footballEvent("miss", emptyPage))
	c.process(ctx, footballEvent("miss", emptyPage))
	c.process(ctx, footballEvent("good", gamePage))
	c.process(ctx, footballEvent("miss", emptyPage))
	c.process(ctx, footballEvent("miss", emptyPage))

	require.Zero(t, restarter.count())
}

func TestSeedInsertsSports(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	c := newTestConsumer(10, sink, &fakeRestarter{})
	require.NoError(t, c.Seed(context.Background()))
	require.Equal(t, []string{"Football"}, sink.sports)
}

func TestRunStopsWhenQueueCloses(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	q := queuememory.NewQueue(4)
	metrics.Init()
	clock := fixedClock{now: time.Date(2024, 10, 12, 20, 0, 0, 0, time.UTC)}
	c := New(
		Config{MissThreshold: 10, SportTeams: map[string][]string{"Football": {"Utah St."}}},
		q,
		extract.NewRegistry(clock),
		tracker.New(),
		sink,
		&fakeRestarter{},
		nil,
		zap.NewNop(),
	)

	ctx := context.Background()
	require.NoError(t, q.Publish(ctx, footballEvent("ev-1", gamePage)))
	q.Close()

	require.NoError(t, c.Run(ctx))
	require.Equal(t, 1, sink.gameCount())
}
