package browser

import (
	"context"
	"errors"

	"github.com/playwright-community/playwright-go"
)

var errMissing = errors.New("timeout waiting for selector")

// pwLocator lets the fakes embed the interface and still define Locator.
type pwLocator = playwright.Locator

// fakeLocator overrides only what the resolver and executor touch.
type fakeLocator struct {
	pwLocator

	waitErr      error
	waits        int
	waitTimeouts []float64
	boxes        []*playwright.Rect
	boxCall      int
	nth          int

	clickErrs []error
	clicks    []playwright.LocatorClickOptions

	fillErr  error
	filled   string
	cleared  bool
	pressed  string
	pressErr error

	selectByValue []string
	selectByLabel []string
	selectCalls   int

	evalResult interface{}
	evalErr    error
	evaluated  []interface{}

	texts []string
}

func (f *fakeLocator) First() playwright.Locator { return f }

func (f *fakeLocator) Nth(i int) playwright.Locator {
	f.nth = i
	return f
}

func (f *fakeLocator) WaitFor(options ...playwright.LocatorWaitForOptions) error {
	f.waits++
	if len(options) > 0 && options[0].Timeout != nil {
		f.waitTimeouts = append(f.waitTimeouts, *options[0].Timeout)
	}
	return f.waitErr
}

func (f *fakeLocator) ScrollIntoViewIfNeeded(options ...playwright.LocatorScrollIntoViewIfNeededOptions) error {
	return nil
}

func (f *fakeLocator) BoundingBox(options ...playwright.LocatorBoundingBoxOptions) (*playwright.Rect, error) {
	if len(f.boxes) == 0 {
		return &playwright.Rect{X: 1, Y: 1, Width: 10, Height: 10}, nil
	}
	i := f.boxCall
	if i >= len(f.boxes) {
		i = len(f.boxes) - 1
	}
	f.boxCall++
	return f.boxes[i], nil
}

func (f *fakeLocator) Click(options ...playwright.LocatorClickOptions) error {
	var opt playwright.LocatorClickOptions
	if len(options) > 0 {
		opt = options[0]
	}
	f.clicks = append(f.clicks, opt)
	i := len(f.clicks) - 1
	if i < len(f.clickErrs) {
		return f.clickErrs[i]
	}
	return nil
}

func (f *fakeLocator) Fill(value string, options ...playwright.LocatorFillOptions) error {
	if f.fillErr != nil {
		return f.fillErr
	}
	f.filled = value
	return nil
}

func (f *fakeLocator) Clear(options ...playwright.LocatorClearOptions) error {
	f.cleared = true
	return nil
}

func (f *fakeLocator) PressSequentially(text string, options ...playwright.LocatorPressSequentiallyOptions) error {
	if f.pressErr != nil {
		return f.pressErr
	}
	f.pressed = text
	return nil
}

func (f *fakeLocator) SelectOption(values playwright.SelectOptionValues, options ...playwright.LocatorSelectOptionOptions) ([]string, error) {
	f.selectCalls++
	if values.Values != nil {
		return f.selectByValue, nil
	}
	if values.Labels != nil {
		return f.selectByLabel, nil
	}
	return nil, nil
}

func (f *fakeLocator) Evaluate(expression string, arg interface{}, options ...playwright.LocatorEvaluateOptions) (interface{}, error) {
	f.evaluated = append(f.evaluated, arg)
	return f.evalResult, f.evalErr
}

func (f *fakeLocator) AllInnerTexts() ([]string, error) {
	return f.texts, nil
}

// fakeScope hands out one fakeLocator per selector.
type fakeScope struct {
	elements map[string]*fakeLocator
	queried  []string
}

func newFakeScope() *fakeScope {
	return &fakeScope{elements: map[string]*fakeLocator{}}
}

func (s *fakeScope) add(selector string) *fakeLocator {
	loc := &fakeLocator{}
	s.elements[selector] = loc
	return loc
}

func (s *fakeScope) Find(selector string) playwright.Locator {
	s.queried = append(s.queried, selector)
	if loc, ok := s.elements[selector]; ok {
		return loc
	}
	missing := &fakeLocator{waitErr: errMissing}
	s.elements[selector] = missing
	return missing
}

type fakeSettler struct{ calls int }

func (s *fakeSettler) WaitSettled(ctx context.Context) error {
	s.calls++
	return nil
}
