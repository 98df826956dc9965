// internal/browser/action.go
package browser

import (
	"context"
	"fmt"
	"time"

	"admission-checker/internal/common/errors"
	"admission-checker/internal/common/logger"

	"github.com/playwright-community/playwright-go"
)

type ActionKind string

const (
	ActionClick   ActionKind = "click"
	ActionSetText ActionKind = "set-text"
	ActionSelect  ActionKind = "select"
)

// Action is one UI operation and its payload.
type Action struct {
	Kind    ActionKind
	Payload string
	// Paced types one key at a time, for inputs that react per keystroke.
	Paced bool
}

func Click() Action                { return Action{Kind: ActionClick} }
func SetText(text string) Action   { return Action{Kind: ActionSetText, Payload: text} }
func TypePaced(text string) Action { return Action{Kind: ActionSetText, Payload: text, Paced: true} }
func Select(option string) Action  { return Action{Kind: ActionSelect, Payload: option} }

// Settler waits for the hosting document after an action.
type Settler interface {
	WaitSettled(ctx context.Context) error
}

// Executor performs actions with a direct path first and programmatic fallbacks.
type Executor struct {
	settler     Settler
	timeout     time.Duration
	typingDelay time.Duration
	log         logger.Logger
}

func NewExecutor(settler Settler, t Timeouts, log logger.Logger) *Executor {
	return &Executor{
		settler:     settler,
		timeout:     t.Presence,
		typingDelay: t.TypingDelay,
		log:         log,
	}
}

const (
	jsClick    = `el => el.click()`
	jsSetValue = `(el, value) => {
		el.focus();
		el.value = value;
		el.dispatchEvent(new Event('input', { bubbles: true }));
		el.dispatchEvent(new Event('change', { bubbles: true }));
		el.blur();
	}`
	jsSelectByText = `(el, wanted) => {
		const opt = Array.from(el.options).find(o => o.value === wanted || o.text.trim() === wanted || o.text.includes(wanted));
		if (!opt) { return false; }
		el.value = opt.value;
		el.dispatchEvent(new Event('change', { bubbles: true }));
		return true;
	}`
)

type path struct {
	name string
	run  func() error
}

// Perform runs action against loc, then waits for the document to settle.
func (e *Executor) Perform(ctx context.Context, target string, loc playwright.Locator, action Action) error {
	if err := ctx.Err(); err != nil {
		return errors.NewActionFailedError(string(action.Kind), target, err)
	}

	var paths []path
	switch action.Kind {
	case ActionClick:
		paths = e.clickPaths(loc)
	case ActionSetText:
		paths = e.textPaths(loc, action)
	case ActionSelect:
		paths = e.selectPaths(loc, action.Payload)
	default:
		return errors.NewActionFailedError(string(action.Kind), target, fmt.Errorf("unknown action"))
	}

	var lastErr error
	for _, p := range paths {
		if err := p.run(); err != nil {
			lastErr = err
			e.log.Debug("action path failed", map[string]interface{}{
				logger.FieldTarget: target,
				"action":           string(action.Kind),
				"path":             p.name,
				"error":            err.Error(),
			})
			continue
		}
		return e.settler.WaitSettled(ctx)
	}
	return errors.NewActionFailedError(string(action.Kind), target, lastErr)
}

func (e *Executor) ms() *float64 {
	return playwright.Float(float64(e.timeout.Milliseconds()))
}

func (e *Executor) clickPaths(loc playwright.Locator) []path {
	return []path{
		{"native", func() error {
			return loc.Click(playwright.LocatorClickOptions{Timeout: e.ms()})
		}},
		{"forced", func() error {
			return loc.Click(playwright.LocatorClickOptions{Timeout: e.ms(), Force: playwright.Bool(true)})
		}},
		{"script", func() error {
			_, err := loc.Evaluate(jsClick, nil)
			return err
		}},
	}
}

func (e *Executor) textPaths(loc playwright.Locator, action Action) []path {
	direct := path{"fill", func() error {
		return loc.Fill(action.Payload, playwright.LocatorFillOptions{Timeout: e.ms()})
	}}
	if action.Paced {
		direct = path{"paced", func() error {
			if err := loc.Clear(playwright.LocatorClearOptions{Timeout: e.ms()}); err != nil {
				return err
			}
			return loc.PressSequentially(action.Payload, playwright.LocatorPressSequentiallyOptions{
				Delay:   playwright.Float(float64(e.typingDelay.Milliseconds())),
				Timeout: e.ms(),
			})
		}}
	}
	return []path{
		direct,
		{"script", func() error {
			_, err := loc.Evaluate(jsSetValue, action.Payload)
			return err
		}},
	}
}

func (e *Executor) selectPaths(loc playwright.Locator, option string) []path {
	return []path{
		{"by-value", func() error {
			return selectOption(loc, playwright.SelectOptionValues{Values: &[]string{option}}, e.ms())
		}},
		{"by-label", func() error {
			return selectOption(loc, playwright.SelectOptionValues{Labels: &[]string{option}}, e.ms())
		}},
		{"script", func() error {
			found, err := loc.Evaluate(jsSelectByText, option)
			if err != nil {
				return err
			}
			if ok, _ := found.(bool); !ok {
				return fmt.Errorf("no option matching %q", option)
			}
			return nil
		}},
	}
}

func selectOption(loc playwright.Locator, values playwright.SelectOptionValues, timeout *float64) error {
	selected, err := loc.SelectOption(values, playwright.LocatorSelectOptionOptions{Timeout: timeout})
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		return fmt.Errorf("nothing selected")
	}
	return nil
}
