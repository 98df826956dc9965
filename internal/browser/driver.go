// internal/browser/driver.go
package browser

import (
	"context"
	"fmt"
	"sync"

	"admission-checker/internal/common/config"
	"admission-checker/internal/common/errors"
	"admission-checker/internal/common/logger"
	"admission-checker/internal/common/metrics"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
)

// Driver owns the process-wide playwright runtime. Every check opens its own
// browser through Open; sessions are never pooled.
type Driver struct {
	cfg    config.BrowserConfig
	log    logger.Logger
	mu     sync.Mutex
	pw     *playwright.Playwright
	closed bool
}

func NewDriver(cfg config.BrowserConfig, log logger.Logger) *Driver {
	return &Driver{cfg: cfg, log: log}
}

// Start installs the browser if configured and starts the runtime. Open calls
// it lazily, so calling it up front only moves the cost to startup.
func (d *Driver) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.startLocked()
}

func (d *Driver) startLocked() error {
	if d.closed {
		return fmt.Errorf("browser driver is stopped")
	}
	if d.pw != nil {
		return nil
	}
	if d.cfg.InstallBrowsers {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return fmt.Errorf("install chromium: %w", err)
		}
	}
	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("start playwright: %w", err)
	}
	d.pw = pw
	d.log.Info("playwright runtime started", map[string]interface{}{"headless": d.cfg.Headless})
	return nil
}

// Open launches a fresh browser and page for one check.
func (d *Driver) Open(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewSessionStartFailedError(err)
	}

	d.mu.Lock()
	if err := d.startLocked(); err != nil {
		d.mu.Unlock()
		return nil, errors.NewSessionStartFailedError(err)
	}
	pw := d.pw
	d.mu.Unlock()

	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(d.cfg.Headless),
		Args:     d.cfg.Args,
	}
	if d.cfg.ExecutablePath != "" {
		opts.ExecutablePath = playwright.String(d.cfg.ExecutablePath)
	}
	b, err := pw.Chromium.Launch(opts)
	if err != nil {
		return nil, errors.NewSessionStartFailedError(err)
	}

	page, err := b.NewPage(playwright.BrowserNewPageOptions{
		Viewport: &playwright.Size{
			Width:  d.cfg.ViewportWidth,
			Height: d.cfg.ViewportHeight,
		},
		Locale: playwright.String("he-IL"),
	})
	if err != nil {
		_ = b.Close()
		return nil, errors.NewSessionStartFailedError(err)
	}

	s := newSession(uuid.NewString(), b, page, TimeoutsFromConfig(d.cfg), d.log)
	metrics.BrowserSessionsActive.Inc()
	return s, nil
}

// Stop shuts the runtime down. Open fails afterwards.
func (d *Driver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.pw == nil {
		return nil
	}
	err := d.pw.Stop()
	d.pw = nil
	return err
}
