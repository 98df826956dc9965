// internal/universities/bengurion/results.go
package bengurion

import (
	"context"
	"strings"

	"admission-checker/internal/browser"
	"admission-checker/internal/common/errors"
	"admission-checker/internal/extract"
	"admission-checker/internal/models"
	"admission-checker/internal/session"
)

var (
	acceptedListLink = browser.Spec("accepted list",
		browser.XPath("//a[contains(., 'כל תחומי הלימוד אליהם התקבלתי')]"),
		browser.CSS("a.page-link[href='#/final-results'], a[href*='final-result']"),
		browser.XPath("//a[contains(@class, 'page-link') and contains(text(), 'תחומי')]"),
	)
	chancesLink = browser.Spec("admission chances",
		browser.XPath("//a[contains(@class, 'page-link') and contains(., 'חישוב סיכויי הקבלה שלי')]"),
		browser.CSS("a[href*='#/calc'], a.calc-link"),
	)
	chancesSubmit = browser.Spec("calculate chances", browser.CSS(".submit-btn"))
	degreeSearch  = browser.Spec("degree search",
		browser.ID("react-select-2-input"),
		browser.CSS(".react-select__input > input"),
		browser.CSS("div.search-degree input"),
	)
	searchResult = browser.Spec("search result",
		browser.CSS(".result-content"),
		browser.CSS(".degree-result, .acceptance-result"),
	)
	clearSearch = browser.Optional("clear search",
		browser.CSS(".clear-btn"),
		browser.CSS("button.reset-btn, button.clear-search"),
	)
)

const (
	listItems      = ".final-results-list li, .degrees-list li, .results-container li, div.item-list div.item"
	listContainers = ".final-results-list, .degrees-list, .results-container, div.item-list"
)

// resultsPage reads verdicts off the final pages of the calculator.
type resultsPage struct {
	run *run

	searchOpen bool
}

// AcceptedDegrees opens the accepted-degrees page and reads one entry per
// item, or per line of the list containers when no items are marked up.
func (p *resultsPage) AcceptedDegrees(ctx context.Context) ([]string, error) {
	r := p.run
	if err := r.kit.Do(ctx, r.frame, acceptedListLink, browser.Click()); err != nil {
		return nil, err
	}
	if err := r.session.WaitSettled(ctx); err != nil {
		return nil, err
	}

	items, err := browser.Texts(r.frame, listItems)
	if err == nil && len(items) > 0 {
		return items, nil
	}
	blocks, err := browser.Texts(r.frame, listContainers)
	if err != nil {
		return nil, errors.NewExtractionError("accepted degrees", err)
	}
	var lines []string
	for _, b := range blocks {
		for _, line := range strings.Split(b, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
	}
	if len(lines) == 0 {
		return nil, errors.NewExtractionError("accepted degrees", nil)
	}
	return lines, nil
}

// SearchDegree looks up one degree on the admission chances page.
func (p *resultsPage) SearchDegree(ctx context.Context, degree string) (string, error) {
	r := p.run
	if !p.searchOpen {
		if err := r.kit.Do(ctx, r.frame, chancesLink, browser.Click()); err != nil {
			return "", err
		}
		if _, err := r.kit.TryDo(ctx, r.frame, chancesSubmit, browser.Click()); err != nil {
			return "", err
		}
		p.searchOpen = true
	}

	loc, err := r.kit.Resolver.Require(ctx, degreeSearch, r.frame)
	if err != nil {
		return "", err
	}
	if err := r.kit.Exec.Perform(ctx, degreeSearch.Target, loc, browser.SetText(degree)); err != nil {
		return "", err
	}
	if err := loc.Press("Enter"); err != nil {
		return "", errors.NewActionFailedError("search degree", degreeSearch.Target, err)
	}
	text, err := r.kit.Read(ctx, r.frame, searchResult)
	if err != nil {
		return "", err
	}
	if _, err := r.kit.TryDo(ctx, r.frame, clearSearch, browser.Click()); err != nil {
		r.log.Debug("search not cleared", map[string]interface{}{"error": err.Error()})
	}
	return rawVerdict(text), nil
}

// rawVerdict reduces a search result text to the list vocabulary.
func rawVerdict(text string) string {
	switch {
	case strings.Contains(text, extract.NotAccepted):
		return extract.NotAccepted
	case strings.Contains(text, extract.Accepted):
		return extract.Accepted
	default:
		return strings.TrimSpace(text)
	}
}

// decide turns the raw verdict of the requested degree into a result.
func decide(raw, requested, url string) session.Live {
	switch raw {
	case "", extract.ErrorChecking:
		return session.Live{Result: models.NewResult("", url, "לא נמצאו תוצאות עבור תחום הלימוד "+requested)}
	case extract.Accepted:
		return session.Live{
			Result: models.NewResult(models.VerdictAccepted, url, "התקבלת לתואר "+requested),
			Raw:    extract.Accepted,
		}
	default:
		return session.Live{
			Result: models.NewResult(models.VerdictRejected, url, "לא התקבלת לתואר "+requested),
			Raw:    extract.NotAccepted,
		}
	}
}
