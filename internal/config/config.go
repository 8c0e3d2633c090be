// Package config loads and validates scorewatch configuration via Viper.
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Logging   LoggingConfig     `mapstructure:"logging"`
	Server    ServerConfig      `mapstructure:"server"`
	Source    SourceConfig      `mapstructure:"source"`
	Pipeline  PipelineConfig    `mapstructure:"pipeline"`
	Teams     []TeamConfig      `mapstructure:"teams"`
	Sports    map[string]string `mapstructure:"sports"`
	Sink      SinkConfig        `mapstructure:"sink"`
	DB        DBConfig          `mapstructure:"db"`
	API       APIConfig         `mapstructure:"api"`
	PubSub    PubSubConfig      `mapstructure:"pubsub"`
	Notify    NotifyConfig      `mapstructure:"notify"`
	Recording RecordingConfig   `mapstructure:"recording"`
	Schedule  ScheduleConfig    `mapstructure:"schedule"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// ServerConfig controls the operational HTTP listener.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// SourceConfig governs the change source backends.
type SourceConfig struct {
	Mode                string `mapstructure:"mode"`
	BaseURL             string `mapstructure:"base_url"`
	ObserveScope        string `mapstructure:"observe_scope"`
	WaitTimeoutSeconds  int    `mapstructure:"wait_timeout_seconds"`
	PollIntervalSeconds int    `mapstructure:"poll_interval_seconds"`
	UserAgent           string `mapstructure:"user_agent"`
}

// PipelineConfig controls the consumer loop.
type PipelineConfig struct {
	MissThreshold int `mapstructure:"miss_threshold"`
	QueueDepth    int `mapstructure:"queue_depth"`
}

// TeamConfig names one tracked team and the sports it plays.
type TeamConfig struct {
	Name   string   `mapstructure:"name"`
	Sports []string `mapstructure:"sports"`
}

// SinkConfig selects where accepted records are committed.
type SinkConfig struct {
	Mode          string `mapstructure:"mode"`
	LegacyEnabled bool   `mapstructure:"legacy_enabled"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN string `mapstructure:"dsn"`
}

// APIConfig configures the internal API sink.
type APIConfig struct {
	URL   string `mapstructure:"url"`
	Token string `mapstructure:"token"`
}

// PubSubConfig holds metadata for the publish-subscribe record channel.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// NotifyConfig configures the legacy status notifier.
type NotifyConfig struct {
	URL string `mapstructure:"url"`
	// Watch maps a tracked team name to its external school code. Teams
	// outside this map never trigger a legacy notification.
	Watch map[string]string `mapstructure:"watch"`
}

// RecordingConfig controls the append-only snapshot log.
type RecordingConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Dir       string `mapstructure:"dir"`
	Compress  bool   `mapstructure:"compress"`
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// ScheduleConfig holds the wall-clock times of the daily maintenance jobs.
type ScheduleConfig struct {
	RestartAt string `mapstructure:"restart_at"`
	ClearAt   string `mapstructure:"clear_at"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCOREWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)
	v.SetDefault("server.port", 9090)
	v.SetDefault("source.mode", "headless")
	v.SetDefault("source.base_url", "https://stats.ncaa.org/contests/livestream_scoreboards")
	v.SetDefault("source.observe_scope", "body")
	v.SetDefault("source.wait_timeout_seconds", 10)
	v.SetDefault("source.poll_interval_seconds", 2)
	v.SetDefault("source.user_agent", "scorewatch/0.1")
	v.SetDefault("pipeline.miss_threshold", 10)
	v.SetDefault("pipeline.queue_depth", 64)
	v.SetDefault("sink.mode", "debug")
	v.SetDefault("recording.dir", "recordings")
	v.SetDefault("recording.compress", true)
	v.SetDefault("schedule.restart_at", "02:00")
	v.SetDefault("schedule.clear_at", "08:00")
}

// Validate enforces required values and reasonable limits. Failing any of
// these is fatal at startup; nothing here is recoverable at runtime.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	switch c.Source.Mode {
	case "headless", "static":
	default:
		return fmt.Errorf("source.mode must be headless or static, got %q", c.Source.Mode)
	}
	switch c.Source.ObserveScope {
	case "body", "contest":
	default:
		return fmt.Errorf("source.observe_scope must be body or contest, got %q", c.Source.ObserveScope)
	}
	if c.Pipeline.MissThreshold <= 0 {
		return fmt.Errorf("pipeline.miss_threshold must be > 0")
	}
	if c.Pipeline.QueueDepth <= 0 {
		return fmt.Errorf("pipeline.queue_depth must be > 0")
	}
	if len(c.Teams) == 0 {
		return fmt.Errorf("at least one team must be configured")
	}
	for _, team := range c.Teams {
		if team.Name == "" {
			return fmt.Errorf("team name must not be empty")
		}
		for _, sport := range team.Sports {
			if _, ok := c.Sports[sport]; !ok {
				return fmt.Errorf("team %q plays unknown sport %q (no scoreboard code configured)", team.Name, sport)
			}
		}
	}
	switch c.Sink.Mode {
	case "debug":
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("sink.mode is postgres but db.dsn is not set")
		}
	case "api":
		if c.API.URL == "" || c.API.Token == "" {
			return fmt.Errorf("sink.mode is api but api.url or api.token is not set")
		}
	case "pubsub":
		if c.PubSub.ProjectID == "" || c.PubSub.TopicName == "" {
			return fmt.Errorf("sink.mode is pubsub but pubsub.project_id or pubsub.topic_name is not set")
		}
	default:
		return fmt.Errorf("unknown sink.mode %q", c.Sink.Mode)
	}
	if c.Sink.LegacyEnabled {
		if c.Notify.URL == "" {
			return fmt.Errorf("sink.legacy_enabled requires notify.url")
		}
		if c.DB.DSN == "" {
			return fmt.Errorf("sink.legacy_enabled requires db.dsn for the notification ledger")
		}
	}
	if _, err := ParseWallClock(c.Schedule.RestartAt); err != nil {
		return fmt.Errorf("schedule.restart_at: %w", err)
	}
	if _, err := ParseWallClock(c.Schedule.ClearAt); err != nil {
		return fmt.Errorf("schedule.clear_at: %w", err)
	}
	return nil
}

// SportTeams inverts the team list into sport -> tracked team names,
// deduplicated and sorted for stable iteration.
func (c Config) SportTeams() map[string][]string {
	set := make(map[string]map[string]struct{})
	for _, team := range c.Teams {
		for _, sport := range team.Sports {
			if set[sport] == nil {
				set[sport] = make(map[string]struct{})
			}
			set[sport][team.Name] = struct{}{}
		}
	}
	out := make(map[string][]string, len(set))
	for sport, names := range set {
		list := make([]string, 0, len(names))
		for name := range names {
			list = append(list, name)
		}
		sort.Strings(list)
		out[sport] = list
	}
	return out
}

// WaitTimeout converts the configured wait timeout into a duration.
func (c SourceConfig) WaitTimeout() time.Duration {
	return time.Duration(c.WaitTimeoutSeconds) * time.Second
}

// PollInterval converts the configured poll cadence into a duration.
func (c SourceConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// ParseWallClock parses an "HH:MM" wall-clock string into hour and minute.
func ParseWallClock(s string) ([2]int, error) {
	var hh, mm int
	if _, err := fmt.Sscanf(s, "%d:%d", &hh, &mm); err != nil {
		return [2]int{}, fmt.Errorf("parse wall clock %q: %w", s, err)
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return [2]int{}, fmt.Errorf("wall clock %q out of range", s)
	}
	return [2]int{hh, mm}, nil
}
