// internal/wizard/kit.go
package wizard

import (
	"context"
	"strings"
	"time"

	"admission-checker/internal/browser"
	"admission-checker/internal/common/errors"
	"admission-checker/internal/common/logger"

	"github.com/playwright-community/playwright-go"
)

// Page is the part of a browser session a wizard drives.
type Page interface {
	Scope() browser.Scope
	AwaitDialog(ctx context.Context, timeout time.Duration) (string, bool)
	DrainDialogs() []string
	WaitSettled(ctx context.Context) error
}

// Kit bundles the resolver and executor bound to one session.
type Kit struct {
	Page     Page
	Resolver *browser.Resolver
	Exec     *browser.Executor
	Dialog   time.Duration
	Log      logger.Logger
}

// NewKit wires a resolver and executor to session.
func NewKit(session *browser.Session, log logger.Logger) *Kit {
	return &Kit{
		Page:     session,
		Resolver: browser.NewResolver(session.Timeouts, log),
		Exec:     browser.NewExecutor(session, session.Timeouts, log),
		Dialog:   session.Timeouts.Dialog,
		Log:      log,
	}
}

// Do resolves spec in scope and performs action on it. A missing target is fatal.
func (k *Kit) Do(ctx context.Context, scope browser.Scope, spec browser.LocatorSpec, action browser.Action) error {
	loc, err := k.Resolver.Require(ctx, spec, scope)
	if err != nil {
		return err
	}
	return k.Exec.Perform(ctx, spec.Target, loc, action)
}

// TryDo is Do for optional targets: each strategy gets one short wait and a
// missing target returns false, nil. Cancellation is still an error.
func (k *Kit) TryDo(ctx context.Context, scope browser.Scope, spec browser.LocatorSpec, action browser.Action) (bool, error) {
	loc, err := k.Resolver.Resolve(ctx, spec.AsOptional(), scope)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		return false, nil
	}
	if err := k.Exec.Perform(ctx, spec.Target, loc, action); err != nil {
		return true, err
	}
	return true, nil
}

// Read returns the trimmed inner text of a required element.
func (k *Kit) Read(ctx context.Context, scope browser.Scope, spec browser.LocatorSpec) (string, error) {
	loc, err := k.Resolver.Require(ctx, spec, scope)
	if err != nil {
		return "", err
	}
	text, err := loc.InnerText()
	if err != nil {
		return "", errors.NewExtractionError(spec.Target, err)
	}
	return strings.TrimSpace(text), nil
}

// NextSpec is the ordered click chain for an intermediate "next" affordance:
// class and href match first, then generic link or button, then keyword text.
func NextSpec(hrefFragment string) browser.LocatorSpec {
	var strategies []browser.Strategy
	if hrefFragment != "" {
		strategies = append(strategies,
			browser.CSS(`a.page-link[href*="`+hrefFragment+`"]`),
			browser.CSS(`a[href*="`+hrefFragment+`"]`),
		)
	}
	strategies = append(strategies,
		browser.CSS("a.page-link.next-link"),
		browser.CSS("button.next, a.next"),
		browser.Text("a", "הבא"),
		browser.Text("button", "הבא"),
		browser.Text("a", "המשך"),
		browser.Text("button", "המשך"),
	)
	return browser.Spec("next:"+hrefFragment, strategies...)
}

// Next clicks through one intermediate page.
func (k *Kit) Next(ctx context.Context, scope browser.Scope, hrefFragment string) error {
	return k.Do(ctx, scope, NextSpec(hrefFragment), browser.Click())
}

// Interstitial is a dialog seen after a submit.
type Interstitial struct {
	Source string // "alert" or "modal"
	Text   string
}

// ModalSpec describes an in-page modal and its dismiss control.
type ModalSpec struct {
	Container string
	Content   string
	Dismiss   []browser.Strategy
	Wait      time.Duration
}

// SubmitAndDismiss clicks a submit control and then dismisses whatever
// interstitial it raised. Alerts captured before the click are discarded.
func (k *Kit) SubmitAndDismiss(ctx context.Context, scope browser.Scope, submit browser.LocatorSpec, modal ModalSpec) (*Interstitial, error) {
	if stale := k.Page.DrainDialogs(); len(stale) > 0 {
		k.Log.Debug("alerts raised before submit", map[string]interface{}{"count": len(stale)})
	}
	if err := k.Do(ctx, scope, submit, browser.Click()); err != nil {
		return nil, err
	}
	return k.DismissInterstitial(ctx, modal)
}

// DismissInterstitial checks for a native alert first, with a bounded wait,
// then for an in-page modal. A modal that cannot be closed after one attempt
// is reported as an unexpected interstitial.
func (k *Kit) DismissInterstitial(ctx context.Context, modal ModalSpec) (*Interstitial, error) {
	if text, ok := k.Page.AwaitDialog(ctx, k.Dialog); ok {
		k.Log.Info("native alert dismissed", map[string]interface{}{"text": text})
		return &Interstitial{Source: "alert", Text: text}, nil
	}
	if modal.Container == "" {
		return nil, nil
	}

	scope := k.Page.Scope()
	container := scope.Find(modal.Container).First()
	wait := modal.Wait
	if wait <= 0 {
		wait = k.Dialog
	}
	if err := container.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(wait.Milliseconds())),
	}); err != nil {
		return nil, nil
	}

	text := ""
	if modal.Content != "" {
		if t, err := browser.Within(container).Find(modal.Content).First().InnerText(); err == nil {
			text = strings.TrimSpace(t)
		}
	}

	if _, err := k.TryDo(ctx, browser.Within(container), browser.Spec("modal dismiss", modal.Dismiss...), browser.Click()); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.NewUnexpectedInterstitialError(text)
	}
	if visible, _ := container.IsVisible(); visible {
		return nil, errors.NewUnexpectedInterstitialError(text)
	}
	k.Log.Info("modal dismissed", map[string]interface{}{"text": text})
	return &Interstitial{Source: "modal", Text: text}, nil
}
