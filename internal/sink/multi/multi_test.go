package multi

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sports-iot/scorewatch/internal/scoreboard"
)

type recordingSink struct {
	sports  []string
	schools []string
	games   []scoreboard.GameRecord
	err     error
}

func (s *recordingSink) InsertSport(_ context.Context, sport string) error {
	if s.err != nil {
		return s.err
	}
	s.sports = append(s.sports, sport)
	return nil
}

func (s *recordingSink) InsertSchool(_ context.Context, school string) error {
	if s.err != nil {
		return s.err
	}
	s.schools = append(s.schools, school)
	return nil
}

func (s *recordingSink) InsertGame(_ context.Context, rec scoreboard.GameRecord) error {
	if s.err != nil {
		return s.err
	}
	s.games = append(s.games, rec)
	return nil
}

func TestFanOutReachesAllSinks(t *testing.T) {
	t.Parallel()

	a, b := &recordingSink{}, &recordingSink{}
	sink := New(a, b)
	ctx := context.Background()

	require.NoError(t, sink.InsertSport(ctx, "Football"))
	require.NoError(t, sink.InsertSchool(ctx, "Utah St."))
	require.NoError(t, sink.InsertGame(ctx, scoreboard.GameRecord{Sport: "Football"}))

	for _, s := range []*recordingSink{a, b} {
		require.Equal(t, []string{"Football"}, s.sports)
		require.Equal(t, []string{"Utah St."}, s.schools)
		require.Len(t, s.games, 1)
	}
}

func TestFanOutContinuesPastFailure(t *testing.T) {
	t.Parallel()

	failing := &recordingSink{err: fmt.Errorf("db down")}
	healthy := &recordingSink{}
	sink := New(failing, healthy)

	err := sink.InsertGame(context.Background(), scoreboard.GameRecord{Sport: "Football"})
	require.Error(t, err)
	require.Len(t, healthy.games, 1)
}
