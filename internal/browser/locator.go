// internal/browser/locator.go
package browser

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"admission-checker/internal/common/errors"
	"admission-checker/internal/common/logger"
	"admission-checker/internal/common/metrics"
	"admission-checker/internal/common/retry"

	"github.com/playwright-community/playwright-go"
)

// ErrNotFound is returned when every strategy of a LocatorSpec is exhausted.
var ErrNotFound = stderrors.New("element not found")

type Kind int

const (
	ByID Kind = iota
	ByCSS
	ByText
	ByXPath
	ByPosition
)

func (k Kind) String() string {
	switch k {
	case ByID:
		return "id"
	case ByCSS:
		return "css"
	case ByText:
		return "text"
	case ByXPath:
		return "xpath"
	case ByPosition:
		return "position"
	default:
		return "unknown"
	}
}

// Strategy is one concrete way of finding a target.
type Strategy struct {
	Kind     Kind
	Value    string
	Tag      string // ByText: restrict to elements of this tag
	Index    int    // ByPosition: zero-based index among matches of Value
	Attempts int    // zero uses the resolver default
}

func ID(id string) Strategy               { return Strategy{Kind: ByID, Value: id} }
func CSS(selector string) Strategy        { return Strategy{Kind: ByCSS, Value: selector} }
func XPath(expr string) Strategy          { return Strategy{Kind: ByXPath, Value: expr} }
func Nth(selector string, i int) Strategy { return Strategy{Kind: ByPosition, Value: selector, Index: i} }

// Text matches elements containing text, optionally restricted to tag.
func Text(tag, text string) Strategy {
	return Strategy{Kind: ByText, Value: text, Tag: tag}
}

// Selector renders the strategy as a playwright selector.
func (s Strategy) Selector() string {
	switch s.Kind {
	case ByID:
		return `[id="` + s.Value + `"]`
	case ByText:
		if s.Tag == "" {
			return "text=" + s.Value
		}
		return s.Tag + ":has-text(" + strconv.Quote(s.Value) + ")"
	case ByXPath:
		return "xpath=" + s.Value
	default:
		return s.Value
	}
}

func (s Strategy) String() string {
	if s.Kind == ByPosition {
		return fmt.Sprintf("%s(%s)[%d]", s.Kind, s.Value, s.Index)
	}
	return fmt.Sprintf("%s(%s)", s.Kind, s.Value)
}

// LocatorSpec is the ordered list of strategies for one logical target.
// Attached accepts hidden elements and skips the stability wait. Optional
// targets get one short presence wait per strategy.
type LocatorSpec struct {
	Target     string
	Strategies []Strategy
	Attached   bool
	Optional   bool
}

// Spec builds a visible-element spec.
func Spec(target string, strategies ...Strategy) LocatorSpec {
	return LocatorSpec{Target: target, Strategies: strategies}
}

// Hidden builds a spec that only requires the element to be attached.
func Hidden(target string, strategies ...Strategy) LocatorSpec {
	return LocatorSpec{Target: target, Strategies: strategies, Attached: true}
}

// Optional builds a spec for a target that is often absent, such as a
// cookie banner.
func Optional(target string, strategies ...Strategy) LocatorSpec {
	return LocatorSpec{Target: target, Strategies: strategies, Optional: true}
}

// AsOptional returns a copy of s resolved as an optional target.
func (s LocatorSpec) AsOptional() LocatorSpec {
	s.Optional = true
	return s
}

// Resolver resolves LocatorSpecs against a Scope.
type Resolver struct {
	presence  time.Duration
	optional  time.Duration
	stability time.Duration
	attempts  int
	delay     time.Duration
	log       logger.Logger
}

func NewResolver(t Timeouts, log logger.Logger) *Resolver {
	attempts := t.Attempts
	if attempts <= 0 {
		attempts = 3
	}
	optional := t.Optional
	if optional <= 0 || (t.Presence > 0 && optional > t.Presence) {
		optional = t.Presence
	}
	return &Resolver{
		presence:  t.Presence,
		optional:  optional,
		stability: t.Stability,
		attempts:  attempts,
		delay:     250 * time.Millisecond,
		log:       log,
	}
}

// Resolve tries each strategy in order, each with its own bounded attempts,
// and returns the first element that is present and geometrically stable.
func (r *Resolver) Resolve(ctx context.Context, spec LocatorSpec, scope Scope) (playwright.Locator, error) {
	presence, defaultAttempts := r.presence, r.attempts
	if spec.Optional {
		presence, defaultAttempts = r.optional, 1
	}

	var lastErr error
	for _, strategy := range spec.Strategies {
		attempts := strategy.Attempts
		if attempts <= 0 {
			attempts = defaultAttempts
		}
		loc, err := retry.Value(ctx, retry.Policy{Attempts: attempts, BaseDelay: r.delay, MaxDelay: time.Second},
			func(ctx context.Context) (playwright.Locator, error) {
				return r.try(ctx, strategy, scope, spec.Attached, presence)
			})
		if err == nil {
			r.log.Debug("element resolved", map[string]interface{}{
				logger.FieldTarget: spec.Target,
				"strategy":         strategy.String(),
			})
			return loc, nil
		}
		lastErr = err
		r.log.Debug("locator strategy exhausted", map[string]interface{}{
			logger.FieldTarget: spec.Target,
			"strategy":         strategy.String(),
			"error":            err.Error(),
		})
		if ctx.Err() != nil {
			break
		}
	}

	if !spec.Optional {
		metrics.LocatorFailuresTotal.WithLabelValues(spec.Target).Inc()
	}
	if lastErr == nil {
		return nil, fmt.Errorf("%w: %s has no strategies", ErrNotFound, spec.Target)
	}
	return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, spec.Target, lastErr)
}

// Require is Resolve for targets whose absence is fatal to the current step.
func (r *Resolver) Require(ctx context.Context, spec LocatorSpec, scope Scope) (playwright.Locator, error) {
	loc, err := r.Resolve(ctx, spec, scope)
	if err != nil {
		return nil, errors.NewElementResolutionError(spec.Target, len(spec.Strategies), err)
	}
	return loc, nil
}

func (r *Resolver) try(ctx context.Context, s Strategy, scope Scope, attached bool, presence time.Duration) (playwright.Locator, error) {
	loc := scope.Find(s.Selector())
	if s.Kind == ByPosition {
		loc = loc.Nth(s.Index)
	} else {
		loc = loc.First()
	}

	state := playwright.WaitForSelectorStateVisible
	if attached {
		state = playwright.WaitForSelectorStateAttached
	}
	if err := loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   state,
		Timeout: playwright.Float(float64(presence.Milliseconds())),
	}); err != nil {
		return nil, err
	}
	if attached {
		return loc, nil
	}
	if err := WaitStable(ctx, loc, r.stability); err != nil {
		return nil, err
	}
	return loc, nil
}

// All returns every element matching selector in scope, in document order.
func All(scope Scope, selector string) ([]playwright.Locator, error) {
	base := scope.Find(selector)
	n, err := base.Count()
	if err != nil {
		return nil, err
	}
	out := make([]playwright.Locator, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, base.Nth(i))
	}
	return out, nil
}

// Texts returns the trimmed, non-empty inner texts of every match.
func Texts(scope Scope, selector string) ([]string, error) {
	raw, err := scope.Find(selector).AllInnerTexts()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out, nil
}
