// internal/browser/stability.go
package browser

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/playwright-community/playwright-go"
)

// ErrUnstable means the element kept moving, or stayed off-layout, for the whole wait.
var ErrUnstable = stderrors.New("element did not settle")

const stabilityInterval = 100 * time.Millisecond

// WaitStable scrolls loc into view and polls its bounding box until two
// consecutive samples agree.
func WaitStable(ctx context.Context, loc playwright.Locator, timeout time.Duration) error {
	if timeout <= 0 {
		return nil
	}
	_ = loc.ScrollIntoViewIfNeeded(playwright.LocatorScrollIntoViewIfNeededOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})

	deadline := time.Now().Add(timeout)
	var prev *playwright.Rect
	for {
		box, err := loc.BoundingBox()
		if err == nil && box != nil {
			if prev != nil && *prev == *box {
				return nil
			}
			prev = box
		}
		if time.Now().After(deadline) {
			return ErrUnstable
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(stabilityInterval):
		}
	}
}
