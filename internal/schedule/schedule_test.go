package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func TestNextRunSameDay(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 10, 12, 1, 30, 0, 0, time.UTC)
	next := NextRun(now, [2]int{2, 0})
	require.Equal(t, time.Date(2024, 10, 12, 2, 0, 0, 0, time.UTC), next)
}

func TestNextRunRollsToTomorrow(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 10, 12, 9, 0, 0, 0, time.UTC)
	next := NextRun(now, [2]int{8, 0})
	require.Equal(t, time.Date(2024, 10, 13, 8, 0, 0, 0, time.UTC), next)
}

func TestNextRunExactTimeMovesToNextDay(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 10, 12, 8, 0, 0, 0, time.UTC)
	next := NextRun(now, [2]int{8, 0})
	require.Equal(t, time.Date(2024, 10, 13, 8, 0, 0, 0, time.UTC), next)
}

func TestSchedulerFiresJob(t *testing.T) {
	t.Parallel()

	// Clock frozen 50ms before the job's wall-clock time, so the real timer
	// fires almost immediately. The frozen clock then schedules the next run
	// a full day out, guaranteeing a single firing during the test.
	clock := fixedClock{now: time.Date(2024, 10, 12, 7, 59, 59, int(950*time.Millisecond), time.UTC)}

	var fired atomic.Int64
	s := New(clock, zap.NewNop())
	s.Add(Job{
		Name: "test-job",
		At:   [2]int{8, 0},
		Run: func(_ context.Context) error {
			fired.Add(1)
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	require.Eventually(t, func() bool {
		return fired.Load() >= 1
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	s.Wait()
}

func TestSchedulerStopsOnCancel(t *testing.T) {
	t.Parallel()

	clock := fixedClock{now: time.Now()}
	s := New(clock, zap.NewNop())
	s.Add(Job{
		Name: "never",
		At:   [2]int{0, 0},
		Run:  func(_ context.Context) error { return nil },
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}
