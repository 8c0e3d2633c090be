package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const validYAML = `
teams:
  - name: "Utah St."
    sports: ["Football", "Basketball (M)"]
  - name: "Nevada"
    sports: ["Football"]
sports:
  Football: "MFB"
  "Basketball (M)": "MBB"
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "headless", cfg.Source.Mode)
	require.Equal(t, "body", cfg.Source.ObserveScope)
	require.Equal(t, 10, cfg.Pipeline.MissThreshold)
	require.Equal(t, 64, cfg.Pipeline.QueueDepth)
	require.Equal(t, "debug", cfg.Sink.Mode)
	require.Equal(t, "02:00", cfg.Schedule.RestartAt)
	require.Equal(t, "08:00", cfg.Schedule.ClearAt)
	require.Equal(t, 10*time.Second, cfg.Source.WaitTimeout())
	require.Equal(t, 2*time.Second, cfg.Source.PollInterval())
}

func TestLoadRejectsUnknownSport(t *testing.T) {
	bad := `
teams:
  - name: "Utah St."
    sports: ["Cricket"]
sports:
  Football: "MFB"
`
	_, err := Load(writeConfig(t, bad))
	require.Error(t, err)
	require.Contains(t, err.Error(), "Cricket")
}

func TestLoadRejectsMissingTeams(t *testing.T) {
	_, err := Load(writeConfig(t, `sports: {Football: "MFB"}`))
	require.Error(t, err)
}

func TestLoadRejectsPostgresSinkWithoutDSN(t *testing.T) {
	_, err := Load(writeConfig(t, validYAML+`
sink:
  mode: postgres
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "db.dsn")
}

func TestLoadRejectsLegacyWithoutNotifyURL(t *testing.T) {
	_, err := Load(writeConfig(t, validYAML+`
sink:
  legacy_enabled: true
db:
  dsn: "postgres://localhost/scorewatch"
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "notify.url")
}

func TestLoadRejectsBadSourceMode(t *testing.T) {
	_, err := Load(writeConfig(t, validYAML+`
source:
  mode: carrier-pigeon
`))
	require.Error(t, err)
}

func TestSportTeamsInvertsAndSorts(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	st := cfg.SportTeams()
	require.Equal(t, []string{"Nevada", "Utah St."}, st["Football"])
	require.Equal(t, []string{"Utah St."}, st["Basketball (M)"])
}

func TestParseWallClock(t *testing.T) {
	t.Parallel()

	at, err := ParseWallClock("08:30")
	require.NoError(t, err)
	require.Equal(t, [2]int{8, 30}, at)

	_, err = ParseWallClock("25:00")
	require.Error(t, err)
	_, err = ParseWallClock("noon")
	require.Error(t, err)
}
