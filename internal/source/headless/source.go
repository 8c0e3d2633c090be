// Package headless implements the live change source with a headless browser.
package headless

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const counterPollInterval = 250 * time.Millisecond

// Config controls one headless change source.
type Config struct {
	URL          string
	UserAgent    string
	ObserveScope string // "body" (broad, default) or "contest" (narrow)
	// WaitTimeout bounds how long Query blocks waiting for the mutation
	// counter to advance. Zero selects polling mode: Query never blocks.
	WaitTimeout time.Duration
	NavTimeout  time.Duration
}

// NewAllocator creates the shared Chrome exec allocator. All sources derive
// their tabs from it; canceling it tears down the browser.
func NewAllocator(ctx context.Context) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	return chromedp.NewExecAllocator(ctx, opts...)
}

// Source owns one browser tab showing a live scoreboard page. It is not safe
// for concurrent use; each monitor owns its source exclusively.
type Source struct {
	cfg       Config
	allocator context.Context
	tabCtx    context.Context
	tabCancel context.CancelFunc
	logger    *zap.Logger

	lastContent string
	lastCounter int64
	firstEmit   bool
}

// Open creates a tab, navigates to the configured URL and installs the
// mutation observer. The first Query after Open reports a change.
func Open(allocator context.Context, cfg Config, logger *zap.Logger) (*Source, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("source url is required")
	}
	if cfg.ObserveScope == "" {
		cfg.ObserveScope = "body"
	}
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 45 * time.Second
	}
	s := &Source{
		cfg:       cfg,
		allocator: allocator,
		logger:    logger,
	}
	if err := s.openTab(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Source) openTab() error {
	tabCtx, tabCancel := chromedp.NewContext(s.allocator)
	navCtx, cancel := context.WithTimeout(tabCtx, s.cfg.NavTimeout)
	defer cancel()

	actions := []chromedp.Action{}
	if s.cfg.UserAgent != "" {
		actions = append(actions, emulation.SetUserAgentOverride(s.cfg.UserAgent))
	}
	var counter int64
	actions = append(actions,
		chromedp.Navigate(s.cfg.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(fmt.Sprintf(installObserverJS, s.cfg.ObserveScope), &counter),
	)
	if err := chromedp.Run(navCtx, actions...); err != nil {
		tabCancel()
		return fmt.Errorf("open scoreboard page: %w", err)
	}

	s.tabCtx = tabCtx
	s.tabCancel = tabCancel
	s.lastCounter = counter
	s.lastContent = ""
	s.firstEmit = true
	s.logger.Info("scoreboard session opened", zap.String("url", s.cfg.URL), zap.String("scope", s.cfg.ObserveScope))
	return nil
}

// Query reports whether the page changed since the last call. In event mode
// it blocks up to WaitTimeout for the mutation counter to advance; in polling
// mode it returns immediately. Session failures surface as errors and are
// never recovered here.
func (s *Source) Query(ctx context.Context) (bool, string, error) {
	// Emit an initial snapshot without waiting, so pages with no live
	// mutations still record once.
	if s.firstEmit {
		html, err := s.outerHTML(ctx)
		if err != nil {
			return false, "", err
		}
		s.lastContent = html
		s.firstEmit = false
		return true, html, nil
	}

	if s.cfg.ObserveScope == "contest" {
		if err := s.rescope(ctx); err != nil {
			return false, "", err
		}
	}

	counter, err := s.waitForCounter(ctx)
	if err != nil {
		return false, "", err
	}
	if counter <= s.lastCounter {
		return false, s.lastContent, nil
	}
	s.lastCounter = counter

	html, err := s.outerHTML(ctx)
	if err != nil {
		return false, "", err
	}
	if html == s.lastContent {
		return false, s.lastContent, nil
	}
	s.lastContent = html
	return true, html, nil
}

// waitForCounter returns the current mutation counter. In event mode it polls
// until the counter passes the last-observed value or the wait budget runs
// out; the last read wins either way.
func (s *Source) waitForCounter(ctx context.Context) (int64, error) {
	counter, err := s.readCounter(ctx)
	if err != nil {
		return 0, err
	}
	if s.cfg.WaitTimeout <= 0 || counter > s.lastCounter {
		return counter, nil
	}

	deadline := time.Now().Add(s.cfg.WaitTimeout)
	for counter <= s.lastCounter && time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return 0, fmt.Errorf("counter wait canceled: %w", ctx.Err())
		case <-time.After(counterPollInterval):
		}
		if counter, err = s.readCounter(ctx); err != nil {
			return 0, err
		}
	}
	return counter, nil
}

func (s *Source) readCounter(ctx context.Context) (int64, error) {
	var counter int64
	if err := s.run(ctx, chromedp.Evaluate(readCounterJS, &counter)); err != nil {
		return 0, fmt.Errorf("read mutation counter: %w", err)
	}
	return counter, nil
}

func (s *Source) rescope(ctx context.Context) error {
	var scope string
	if err := s.run(ctx, chromedp.Evaluate(rescopeObserverJS, &scope)); err != nil {
		return fmt.Errorf("rescope observer: %w", err)
	}
	return nil
}

func (s *Source) outerHTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read page source: %w", err)
	}
	return html, nil
}

func (s *Source) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx := s.tabCtx
	if done := ctx.Done(); done != nil {
		var cancel context.CancelFunc
		runCtx, cancel = mergeCancel(s.tabCtx, done)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}

// mergeCancel derives a context from the tab that also ends when the caller's
// context does. chromedp actions must run on the tab context to target the
// right session.
func mergeCancel(tab context.Context, callerDone <-chan struct{}) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(tab)
	go func() {
		select {
		case <-callerDone:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Restart tears the tab down and opens a fresh one. A non-empty url replaces
// the tracked address (the scoreboard URL embeds the game date, so the daily
// restart passes a new one). The next Query emits again.
func (s *Source) Restart(_ context.Context, url string) error {
	if url != "" {
		s.cfg.URL = url
	}
	if s.tabCancel != nil {
		s.tabCancel()
	}
	if err := s.openTab(); err != nil {
		return fmt.Errorf("restart source: %w", err)
	}
	return nil
}

// Close shuts down the tab. The shared allocator is owned by the caller.
func (s *Source) Close(_ context.Context) error {
	if s.tabCancel != nil {
		s.tabCancel()
		s.tabCancel = nil
	}
	return nil
}
