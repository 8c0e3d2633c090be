// Package static implements a polling change source using plain HTTP fetches.
//
// It serves scoreboard pages that render server-side; pages that only fill in
// via JavaScript need the headless source.
package static

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
)

// Config controls collector behavior.
type Config struct {
	URL       string
	UserAgent string
	Timeout   time.Duration
}

// Source fetches the page on every Query and reports a change when the body
// differs from the last snapshot. It never blocks; the caller owns cadence.
type Source struct {
	cfg       Config
	collector *colly.Collector

	lastContent string
	firstEmit   bool
}

// New builds a Source.
func New(cfg Config) (*Source, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("source url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	c := colly.NewCollector(colly.Async(false))
	c.AllowURLRevisit = true
	c.IgnoreRobotsTxt = true
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.SetRequestTimeout(cfg.Timeout)
	return &Source{
		cfg:       cfg,
		collector: c,
		firstEmit: true,
	}, nil
}

// Query fetches the page once. The first call after New or Restart always
// reports a change with the current content.
func (s *Source) Query(ctx context.Context) (bool, string, error) {
	body, err := s.fetch(ctx)
	if err != nil {
		return false, "", err
	}
	if s.firstEmit {
		s.firstEmit = false
		s.lastContent = body
		return true, body, nil
	}
	if body == s.lastContent {
		return false, s.lastContent, nil
	}
	s.lastContent = body
	return true, body, nil
}

func (s *Source) fetch(ctx context.Context) (string, error) {
	var (
		body     string
		fetchErr error
	)
	collector := s.collector.Clone()
	collector.AllowURLRevisit = true
	collector.IgnoreRobotsTxt = true
	collector.OnResponse(func(r *colly.Response) {
		body = string(r.Body)
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(s.cfg.URL)
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("fetch scoreboard: %w", err)
		}
		if fetchErr != nil {
			return "", fmt.Errorf("fetch scoreboard: %w", fetchErr)
		}
		return body, nil
	}
}

// Restart switches to a new URL (or keeps the current one) and forces the
// next Query to emit.
func (s *Source) Restart(_ context.Context, url string) error {
	if url != "" {
		s.cfg.URL = url
	}
	s.lastContent = ""
	s.firstEmit = true
	return nil
}

// Close is a no-op; the source holds no session state.
func (s *Source) Close(_ context.Context) error {
	return nil
}
