// internal/browser/session.go
package browser

import (
	"context"
	"strings"
	"sync"
	"time"

	"admission-checker/internal/common/config"
	"admission-checker/internal/common/errors"
	"admission-checker/internal/common/logger"
	"admission-checker/internal/common/metrics"

	"github.com/playwright-community/playwright-go"
)

// Timeouts bound every wait a session performs.
type Timeouts struct {
	Navigation  time.Duration
	Presence    time.Duration
	Optional    time.Duration // presence wait for optional targets
	Stability   time.Duration
	Settle      time.Duration
	Dialog      time.Duration
	TypingDelay time.Duration
	Attempts    int
}

func TimeoutsFromConfig(cfg config.BrowserConfig) Timeouts {
	return Timeouts{
		Navigation:  config.GetDuration(cfg.NavigationTimeout),
		Presence:    config.GetDuration(cfg.PresenceTimeout),
		Optional:    config.GetDuration(cfg.OptionalTimeout),
		Stability:   config.GetDuration(cfg.StabilityTimeout),
		Settle:      config.GetDuration(cfg.SettleTimeout),
		Dialog:      config.GetDuration(cfg.DialogTimeout),
		TypingDelay: config.GetDuration(cfg.TypingDelay),
		Attempts:    cfg.LocatorAttempts,
	}
}

// Session is one browser owned by exactly one check.
type Session struct {
	ID       string
	Timeouts Timeouts

	browser playwright.Browser
	page    playwright.Page
	dialogs chan string
	log     logger.Logger

	closeOnce sync.Once
	closeErr  error
}

func newSession(id string, b playwright.Browser, page playwright.Page, t Timeouts, log logger.Logger) *Session {
	s := &Session{
		ID:       id,
		Timeouts: t,
		browser:  b,
		page:     page,
		dialogs:  make(chan string, 8),
		log:      log.WithFields(map[string]interface{}{logger.FieldSessionID: id}),
	}
	page.SetDefaultTimeout(float64(t.Presence.Milliseconds()))
	page.SetDefaultNavigationTimeout(float64(t.Navigation.Milliseconds()))
	page.OnDialog(func(d playwright.Dialog) {
		msg := d.Message()
		if err := d.Accept(); err != nil {
			s.log.Warn("failed to accept native dialog", map[string]interface{}{"error": err.Error()})
		}
		select {
		case s.dialogs <- msg:
		default:
		}
	})
	return s
}

// Close releases the browser. It is safe on a nil session and idempotent.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		if s.browser != nil {
			s.closeErr = s.browser.Close()
		}
		metrics.BrowserSessionsActive.Dec()
		s.log.Debug("browser session closed", nil)
	})
	return s.closeErr
}

func (s *Session) Page() playwright.Page {
	return s.page
}

// Scope is the page's top-level document.
func (s *Session) Scope() Scope {
	return PageScope(s.page)
}

// Frame scopes lookups to an iframe.
func (s *Session) Frame(selector string) Scope {
	return FrameScope(s.page.FrameLocator(selector))
}

func (s *Session) URL() string {
	return s.page.URL()
}

// Goto navigates and waits for the DOM to be ready.
func (s *Session) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return errors.NewNavigationFailedError(url, err)
	}
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(s.Timeouts.Navigation.Milliseconds())),
	})
	if err != nil {
		return errors.NewNavigationFailedError(url, err)
	}
	s.log.Debug("navigated", map[string]interface{}{"url": url})
	return s.WaitSettled(ctx)
}

// Back goes one step back in history.
func (s *Session) Back(ctx context.Context) error {
	if _, err := s.page.GoBack(playwright.PageGoBackOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(s.Timeouts.Navigation.Milliseconds())),
	}); err != nil {
		return errors.NewNavigationFailedError("history.back", err)
	}
	return s.WaitSettled(ctx)
}

// WaitForURL blocks until the page URL contains fragment.
func (s *Session) WaitForURL(ctx context.Context, fragment string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.Contains(s.page.URL(), fragment) {
		return nil
	}
	err := s.page.WaitForURL("**"+fragment+"**", playwright.PageWaitForURLOptions{
		Timeout:   playwright.Float(float64(s.Timeouts.Navigation.Milliseconds())),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return errors.NewNavigationFailedError(fragment, err)
	}
	return nil
}

// WaitSettled waits for the document to finish loading. A page that never
// reports loaded within the settle timeout is treated as settled.
func (s *Session) WaitSettled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateLoad,
		Timeout: playwright.Float(float64(s.Timeouts.Settle.Milliseconds())),
	})
	if err != nil {
		s.log.Debug("document did not report loaded", map[string]interface{}{"error": err.Error()})
	}
	return nil
}

// AwaitDialog waits up to timeout for a native alert captured on this page.
// The alert has already been accepted when it is returned.
func (s *Session) AwaitDialog(ctx context.Context, timeout time.Duration) (string, bool) {
	return awaitDialog(ctx, s.dialogs, timeout)
}

// DrainDialogs discards alerts captured so far and returns their texts, so a
// later AwaitDialog only sees alerts raised after this call.
func (s *Session) DrainDialogs() []string {
	stale := drainDialogs(s.dialogs)
	if len(stale) > 0 {
		s.log.Debug("discarded earlier native alerts", map[string]interface{}{"alerts": stale})
	}
	return stale
}

func drainDialogs(dialogs <-chan string) []string {
	var out []string
	for {
		select {
		case msg := <-dialogs:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func awaitDialog(ctx context.Context, dialogs <-chan string, timeout time.Duration) (string, bool) {
	select {
	case msg := <-dialogs:
		return msg, true
	default:
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case msg := <-dialogs:
		return msg, true
	case <-timer.C:
		return "", false
	case <-ctx.Done():
		return "", false
	}
}
