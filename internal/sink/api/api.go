// Package api provides a sink that POSTs extracted data to an HTTP API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sports-iot/scorewatch/internal/scoreboard"
)

// Config captures the parameters for the API sink.
type Config struct {
	// BaseURL is the API root; resources are posted under it.
	BaseURL string
	// Token, when set, is sent as a bearer token.
	Token   string
	Timeout time.Duration
}

// Sink delivers inserts to /sports, /schools, and /games under the base URL.
type Sink struct {
	cfg    Config
	client *http.Client
}

// New creates the API sink.
func New(cfg Config) (*Sink, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("api.url is required")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Sink{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// InsertSport posts the sport name.
func (s *Sink) InsertSport(ctx context.Context, sport string) error {
	return s.post(ctx, "/sports", map[string]string{"name": sport})
}

// InsertSchool posts the school name.
func (s *Sink) InsertSchool(ctx context.Context, school string) error {
	return s.post(ctx, "/schools", map[string]string{"name": school})
}

// InsertGame posts the full game record.
func (s *Sink) InsertGame(ctx context.Context, rec scoreboard.GameRecord) error {
	return s.post(ctx, "/games", rec)
}

func (s *Sink) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("post %s: unexpected response %d", path, resp.StatusCode)
	}
	return nil
}
