// internal/browser/scope.go
package browser

import "github.com/playwright-community/playwright-go"

// Scope is where selectors are evaluated: a page, an iframe or an element.
type Scope interface {
	Find(selector string) playwright.Locator
}

type pageScope struct{ page playwright.Page }

func (p pageScope) Find(selector string) playwright.Locator { return p.page.Locator(selector) }

type frameScope struct{ frame playwright.FrameLocator }

func (f frameScope) Find(selector string) playwright.Locator { return f.frame.Locator(selector) }

type elementScope struct{ loc playwright.Locator }

func (e elementScope) Find(selector string) playwright.Locator { return e.loc.Locator(selector) }

func PageScope(page playwright.Page) Scope { return pageScope{page: page} }

func FrameScope(frame playwright.FrameLocator) Scope { return frameScope{frame: frame} }

// Within scopes lookups to descendants of loc.
func Within(loc playwright.Locator) Scope { return elementScope{loc: loc} }
