// internal/universities/hebrewuniversity/wizard.go
package hebrewuniversity

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"admission-checker/internal/browser"
	"admission-checker/internal/common/errors"
	"admission-checker/internal/common/logger"
	"admission-checker/internal/extract"
	"admission-checker/internal/models"
	"admission-checker/internal/session"
	"admission-checker/internal/wizard"

	"github.com/playwright-community/playwright-go"
)

const (
	stateLanding  wizard.StateID = "landing"
	stateSubjects wizard.StateID = "subject-entry"
	stateAverage  wizard.StateID = "average-computed"
	stateSearch   wizard.StateID = "program-search"
	statePsycho   wizard.StateID = "psychometric-entry"
	stateResults  wizard.StateID = "results"
)

const (
	subjectRows   = "div.input-data"
	rejectionText = "לא תתאפשר קבלה"
)

var (
	unitsToggle = browser.Spec("units dropdown",
		browser.CSS("div.subject-units button.dropdown-toggle-split"),
		browser.CSS("div.subject-units button"),
	)
	gradeInput = browser.Spec("grade",
		browser.CSS("div.subject-grade input"),
	)
	subjectTitle = browser.Spec("subject titles",
		browser.CSS("div.subject-title span"),
	)
	addSubject = browser.Spec("add subject",
		browser.XPath("//span[contains(text(),'הוסף מקצוע')]/.."),
		browser.Text("button", "הוסף מקצוע"),
	)
	subjectSearch = browser.Spec("subject search",
		browser.CSS("input[placeholder='הקלד מקצוע']"),
	)
	calcButton = browser.Spec("calculate average",
		browser.CSS(".btn-calc"),
	)
	averageValue = browser.Spec("average",
		browser.ID("grade"),
	)
	admissionNav = browser.Spec("admission nav",
		browser.ID("admission-nav"),
	)
	searchBar = browser.Spec("program search",
		browser.CSS(".search-bar"),
		browser.CSS("input[type='search']"),
	)
	courseFields = browser.Spec("course fields",
		browser.CSS(".course-fields"),
	)
	courseTrack = browser.Spec("course track",
		browser.CSS("select[name='courseTrack']"),
	)
	bagrutInput = browser.Spec("bagrut average",
		browser.CSS("input[name='bagrut']"),
	)
	submitButton = browser.Spec("check chances",
		browser.CSS("div.submit.submit-SingleCourse-singleCourseResults button"),
		browser.CSS("div.submit button"),
	)
	resultMessage = browser.Spec("result message",
		browser.CSS(".result-msg"),
	)
)

type run struct {
	adapter *Adapter
	session *browser.Session
	kit     *wizard.Kit
	req     models.AdmissionRequest
	program program
	log     logger.Logger

	average int
	live    session.Live
}

func newRun(a *Adapter, s *browser.Session, req models.AdmissionRequest, p program) *run {
	log := a.log.WithFields(map[string]interface{}{logger.FieldSessionID: s.ID})
	return &run{
		adapter: a,
		session: s,
		kit:     wizard.NewKit(s, log),
		req:     req,
		program: p,
		log:     log,
	}
}

func (r *run) states() []wizard.State {
	return []wizard.State{
		{ID: stateLanding, Run: r.landing},
		{ID: stateSubjects, Run: r.subjects},
		{ID: stateAverage, Run: r.computeAverage},
		{ID: stateSearch, Run: r.search},
		{ID: statePsycho, Run: r.psychometric},
		{ID: stateResults, Run: r.results, Terminal: true},
	}
}

// landing picks the applicant type on the calculator start page.
func (r *run) landing(ctx context.Context) (wizard.StateID, error) {
	if err := r.session.Goto(ctx, r.adapter.config.CalculatorURL); err != nil {
		return "", err
	}
	page := r.session.Scope()
	applicant := browser.Spec("applicant type", browser.CSS(".btn-group button:nth-of-type(2)"), browser.Nth(".btn-group button", 1))
	if err := r.kit.Do(ctx, page, applicant, browser.Click()); err != nil {
		return "", err
	}
	item := browser.Spec("applicant option", browser.Nth(".dropdown-item", 0))
	if err := r.kit.Do(ctx, page, item, browser.Click()); err != nil {
		return "", err
	}
	show := browser.Spec("show calculator", browser.CSS(".btn-show"))
	if err := r.kit.Do(ctx, page, show, browser.Click()); err != nil {
		return "", err
	}
	if err := r.session.WaitForURL(ctx, "/grade-input"); err != nil {
		return "", err
	}
	return stateSubjects, nil
}

// subjects fills the preset rows, then adds one row per remaining subject the
// calculator knows.
func (r *run) subjects(ctx context.Context) (wizard.StateID, error) {
	page := r.session.Scope()
	if _, err := r.kit.Resolver.Require(ctx, subjectTitle, page); err != nil {
		return "", err
	}
	rows, err := browser.All(page, subjectRows)
	if err != nil {
		return "", errors.NewElementResolutionError("subject rows", 1, err)
	}

	for _, row := range rows {
		if n, err := row.Locator("input").Count(); err != nil || n == 0 {
			continue
		}
		title, err := row.Locator("div.subject-title span").First().InnerText()
		if err != nil {
			continue
		}
		name := r.adapter.tables.SubjectName(title)
		score, ok := r.req.Score(name)
		if !ok {
			continue
		}
		if err := r.fillRow(ctx, row, name, score); err != nil {
			return "", err
		}
	}

	for _, name := range r.req.Subjects() {
		if coreSubjects[name] || missingSubjects[name] {
			continue
		}
		score, _ := r.req.Score(name)
		row, err := r.addRow(ctx, name)
		if err != nil {
			return "", err
		}
		if err := r.fillRow(ctx, row, name, score); err != nil {
			return "", err
		}
	}
	return stateAverage, nil
}

// addRow adds a subject row, types name into it and returns the new row.
func (r *run) addRow(ctx context.Context, name string) (playwright.Locator, error) {
	page := r.session.Scope()
	before, err := browser.All(page, subjectRows)
	if err != nil {
		return nil, errors.NewElementResolutionError("subject rows", 1, err)
	}
	if err := r.kit.Do(ctx, page, addSubject, browser.Click()); err != nil {
		return nil, err
	}
	if err := r.kit.Do(ctx, page, subjectSearch, browser.SetText(name)); err != nil {
		return nil, err
	}
	if err := r.session.WaitSettled(ctx); err != nil {
		return nil, err
	}
	after, err := browser.All(page, subjectRows)
	if err != nil {
		return nil, errors.NewElementResolutionError("subject rows", 1, err)
	}
	if len(after) <= len(before) {
		return nil, errors.NewActionFailedError("add subject", name, fmt.Errorf("row count stayed at %d", len(before)))
	}
	return after[len(after)-1], nil
}

func (r *run) fillRow(ctx context.Context, row playwright.Locator, name string, score models.SubjectScore) error {
	scope := browser.Within(row)
	units := strconv.Itoa(score.Units)
	if err := r.kit.Do(ctx, scope, unitsToggle, browser.Click()); err != nil {
		return err
	}
	option := browser.Spec("units "+units+" for "+name,
		browser.CSS(`div.subject-units .dropdown-menu a.dropdown-item:text-is("`+units+`")`),
		browser.Text("a", units),
	)
	if err := r.kit.Do(ctx, scope, option, browser.Click()); err != nil {
		return err
	}
	return r.kit.Do(ctx, scope, gradeInput, browser.SetText(strconv.Itoa(score.Grade)))
}

func (r *run) computeAverage(ctx context.Context) (wizard.StateID, error) {
	if err := r.kit.Do(ctx, r.session.Scope(), calcButton, browser.Click()); err != nil {
		return "", err
	}
	if err := r.session.WaitForURL(ctx, "/calc-average"); err != nil {
		return "", err
	}
	text, err := r.kit.Read(ctx, r.session.Scope(), averageValue)
	if err != nil {
		return "", err
	}
	avg, err := extract.ParseFirstNumber(text)
	if err != nil {
		return "", errors.NewExtractionError("bagrut average", err)
	}
	r.average = int(avg)
	r.log.Info("bagrut average computed", map[string]interface{}{"average": avg})
	return stateSearch, nil
}

// search finds the program page on the admissions site.
func (r *run) search(ctx context.Context) (wizard.StateID, error) {
	if err := r.session.Goto(ctx, r.adapter.config.ProgramsURL); err != nil {
		return "", err
	}
	nav, err := r.kit.Resolver.Require(ctx, admissionNav, r.session.Scope())
	if err != nil {
		return "", err
	}
	if err := r.kit.Do(ctx, browser.Within(nav), searchBar, browser.TypePaced(r.program.Search)); err != nil {
		return "", err
	}
	result := browser.Spec("search result "+r.program.Search,
		browser.CSS(`.search-results a:text-is("`+r.program.Search+`")`),
		browser.Text(".search-results a", r.program.Search),
	)
	if err := r.kit.Do(ctx, r.session.Scope(), result, browser.Click()); err != nil {
		return "", err
	}
	if err := r.session.WaitForURL(ctx, "programAdmission_"); err != nil {
		return "", err
	}
	return statePsycho, nil
}

// psychometric fills the track, the bagrut average and the three emphasis
// scores derived from the sub-scores.
func (r *run) psychometric(ctx context.Context) (wizard.StateID, error) {
	page := r.session.Scope()
	if _, err := r.kit.Resolver.Require(ctx, courseFields, page); err != nil {
		return "", err
	}
	if err := r.kit.Do(ctx, page, courseTrack, browser.Select(r.program.Track)); err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		r.log.Warn("track not offered, keeping default", map[string]interface{}{"track": r.program.Track})
	}
	if err := r.kit.Do(ctx, page, bagrutInput, browser.SetText(strconv.Itoa(r.average))); err != nil {
		return "", err
	}

	p := r.req.Psychometric
	values := extract.ComputeEmphases(p.Total, p.Verbal, p.Quantitative, p.English).Ordered()
	fields, err := browser.All(page, ".pet-fields .field")
	if err != nil {
		return "", errors.NewElementResolutionError("emphasis fields", 1, err)
	}
	for i, field := range fields {
		if i >= len(values) {
			break
		}
		input := browser.Spec(fmt.Sprintf("emphasis %d", i+1), browser.CSS("input"))
		if err := r.kit.Do(ctx, browser.Within(field), input, browser.SetText(strconv.Itoa(values[i]))); err != nil {
			return "", err
		}
	}

	if err := r.kit.Do(ctx, page, submitButton, browser.Click()); err != nil {
		return "", err
	}
	return stateResults, nil
}

func (r *run) results(ctx context.Context) (wizard.StateID, error) {
	text, err := r.kit.Read(ctx, r.session.Scope(), resultMessage)
	if err != nil {
		return "", err
	}
	verdict := verdictFor(text)
	r.live = session.Live{
		Result: models.NewResult(verdict, r.session.URL(), ""),
		Raw:    string(verdict),
	}
	return wizard.Done, nil
}

func verdictFor(message string) models.Verdict {
	if strings.Contains(message, rejectionText) {
		return models.VerdictRejected
	}
	return models.VerdictAccepted
}
