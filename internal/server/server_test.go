package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sports-iot/scorewatch/internal/metrics"
	"github.com/sports-iot/scorewatch/internal/scoreboard"
)

func TestHealthz(t *testing.T) {
	t.Parallel()

	metrics.Init()
	s := New(0, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStateServesTrackedRecords(t *testing.T) {
	t.Parallel()

	metrics.Init()
	state := func() []scoreboard.GameRecord {
		return []scoreboard.GameRecord{{
			Sport:    "Football",
			AwayTeam: "Utah St.",
			HomeTeam: "Nevada",
			Status:   scoreboard.StatusInProgress,
		}}
	}
	s := New(0, state, zap.NewNop())

	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/state", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var records []scoreboard.GameRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	require.Equal(t, "Football", records[0].Sport)
}

func TestStateWithoutProviderIsEmptyList(t *testing.T) {
	t.Parallel()

	metrics.Init()
	s := New(0, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/state", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())
}

func TestMetricsEndpointExposed(t *testing.T) {
	t.Parallel()

	metrics.Init()
	s := New(0, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
