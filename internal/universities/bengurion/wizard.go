// internal/universities/bengurion/wizard.go
package bengurion

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"admission-checker/internal/browser"
	"admission-checker/internal/common/errors"
	"admission-checker/internal/common/logger"
	"admission-checker/internal/common/retry"
	"admission-checker/internal/models"
	"admission-checker/internal/session"
	"admission-checker/internal/wizard"
)

const (
	stateLanding   wizard.StateID = "landing"
	stateSubjects  wizard.StateID = "subject-entry"
	stateAverage   wizard.StateID = "average-computed"
	stateScience   wizard.StateID = "science-bonus"
	statePsycho    wizard.StateID = "psychometric-entry"
	statePreResult wizard.StateID = "pre-results"
	stateResults   wizard.StateID = "results"
)

const userFields = ".user-field"

var (
	closePopup = browser.Optional("popup close", browser.ID("closeXButton"))
	cookieOK   = browser.Optional("cookie accept", browser.ID("ct-ultimate-gdpr-cookie-accept"))

	goToAverage = browser.Spec("average calculator",
		browser.CSS("a.page-link.go-to-average"),
		browser.Text("a", "לחישוב ממוצע בגרות"),
	)
	addSubjectButton = browser.Spec("add subject",
		browser.CSS(".add-subject"),
		browser.Text("button", "הוספת מקצוע"),
	)
	subjectOption = browser.Spec("subject option",
		browser.CSS(".react-select__option"),
		browser.CSS(".react-select__menu-list > div"),
	)
	calculateAverage = browser.Spec("calculate average",
		browser.CSS("button.page-link"),
	)
	averageResult = browser.Spec("calculated average",
		browser.CSS(".calculated-result-holder span"),
	)
	backToMain = browser.Spec("back to main",
		browser.CSS("a.page-link.short-link.prev-link"),
		browser.CSS("a.prev-link"),
	)
	averageInput = browser.Spec("average input",
		browser.Nth(".simple-input", 0),
	)
	addScienceButton = browser.Spec("add science subject",
		browser.CSS(".add-subject"),
		browser.XPath("//button[contains(text(), 'הוספת מקצוע מדעי')]"),
	)
)

// psychometric field label keywords, in entry order.
var (
	psychoOrder    = []string{"total", "english", "quantitative", "verbal"}
	psychoKeywords = map[string][]string{
		"total":        {"כללי"},
		"english":      {"אנגלית"},
		"quantitative": {"כמותי"},
		"verbal":       {"מילולי"},
	}
)

type run struct {
	adapter *Adapter
	session *browser.Session
	kit     *wizard.Kit
	frame   browser.Scope
	req     models.AdmissionRequest
	log     logger.Logger

	average string
	live    session.Live
}

func newRun(a *Adapter, s *browser.Session, req models.AdmissionRequest) *run {
	log := a.log.WithFields(map[string]interface{}{logger.FieldSessionID: s.ID})
	return &run{
		adapter: a,
		session: s,
		kit:     wizard.NewKit(s, log),
		frame:   s.Frame(a.config.CalculatorFrame),
		req:     req,
		log:     log,
	}
}

func (r *run) states() []wizard.State {
	return []wizard.State{
		{ID: stateLanding, Run: r.landing},
		{ID: stateSubjects, Run: r.subjects},
		{ID: stateAverage, Run: r.computeAverage},
		{ID: stateScience, Run: r.scienceBonus},
		{ID: statePsycho, Run: r.psychometric},
		{ID: statePreResult, Run: r.preResults},
		{ID: stateResults, Run: r.results, Terminal: true},
	}
}

func (r *run) landing(ctx context.Context) (wizard.StateID, error) {
	if err := r.session.Goto(ctx, r.adapter.config.BaseURL); err != nil {
		return "", err
	}
	page := r.session.Scope()
	if _, err := r.kit.TryDo(ctx, page, closePopup, browser.Click()); err != nil {
		r.log.Debug("popup not closed", map[string]interface{}{"error": err.Error()})
	}
	if _, err := r.kit.TryDo(ctx, page, cookieOK, browser.Click()); err != nil {
		r.log.Debug("cookie banner not accepted", map[string]interface{}{"error": err.Error()})
	}
	if err := r.kit.Do(ctx, r.frame, goToAverage, browser.Click()); err != nil {
		return "", err
	}
	return stateSubjects, nil
}

// orderedSubjects puts math and physics first; the calculator keys its
// science bonus rows on those positions.
func orderedSubjects(req models.AdmissionRequest) []string {
	out := make([]string, 0, len(req.Subjects()))
	for _, first := range []string{mathSubject, physicsSubject} {
		if _, ok := req.Score(first); ok {
			out = append(out, first)
		}
	}
	for _, name := range req.Subjects() {
		if name != mathSubject && name != physicsSubject {
			out = append(out, name)
		}
	}
	return out
}

func (r *run) subjects(ctx context.Context) (wizard.StateID, error) {
	subjects := orderedSubjects(r.req)
	for i := 1; i < len(subjects); i++ {
		if err := r.addRow(ctx, addSubjectButton); err != nil {
			return "", err
		}
	}

	for idx, name := range subjects {
		score, _ := r.req.Score(name)
		input := browser.Spec("subject "+name,
			browser.ID(fmt.Sprintf("react-select-%d-input", 2+idx)),
			browser.Nth(".react-select__input input", idx),
		)
		if err := r.chooseSubject(ctx, input, name); err != nil {
			return "", err
		}
		if err := r.fillUnitsAndGrade(ctx, idx, score); err != nil {
			return "", err
		}
	}
	r.log.Debug("subjects entered", map[string]interface{}{"count": len(subjects)})
	return stateAverage, nil
}

// addRow clicks an add-subject control and checks a new row appeared.
func (r *run) addRow(ctx context.Context, button browser.LocatorSpec) error {
	before, err := browser.All(r.frame, userFields)
	if err != nil {
		return errors.NewElementResolutionError("subject rows", 1, err)
	}
	if err := r.kit.Do(ctx, r.frame, button, browser.Click()); err != nil {
		return err
	}
	return retry.Do(ctx, r.rowPolicy(), func(context.Context) error {
		after, err := browser.All(r.frame, userFields)
		if err != nil {
			return err
		}
		if len(after) <= len(before) {
			return errors.NewActionFailedError("add subject", button.Target, fmt.Errorf("row count stayed at %d", len(before)))
		}
		return nil
	})
}

func (r *run) rowPolicy() retry.Policy {
	return retry.Policy{Attempts: 5, BaseDelay: 300 * time.Millisecond, MaxDelay: time.Second}
}

// chooseSubject types name into a react-select box and picks the first
// suggestion, pressing Enter when no menu shows up.
func (r *run) chooseSubject(ctx context.Context, spec browser.LocatorSpec, name string) error {
	loc, err := r.kit.Resolver.Require(ctx, spec, r.frame)
	if err != nil {
		return err
	}
	if err := r.kit.Exec.Perform(ctx, spec.Target, loc, browser.TypePaced(name)); err != nil {
		return err
	}
	picked, err := r.kit.TryDo(ctx, r.frame, subjectOption, browser.Click())
	if err != nil {
		return err
	}
	if !picked {
		r.log.Warn("no suggestion for subject, pressing enter", map[string]interface{}{"subject": name})
		if err := loc.Press("Enter"); err != nil {
			return errors.NewActionFailedError("select subject", spec.Target, err)
		}
	}
	return nil
}

func (r *run) fillUnitsAndGrade(ctx context.Context, idx int, score models.SubjectScore) error {
	units := browser.Spec(fmt.Sprintf("units row %d", idx),
		browser.ID(fmt.Sprintf("item_%d_level", idx)),
		browser.CSS(fmt.Sprintf(".user-field:nth-child(%d) input.simple-input:first-child", idx+1)),
	)
	grade := browser.Spec(fmt.Sprintf("grade row %d", idx),
		browser.ID(fmt.Sprintf("item_%d_grade", idx)),
		browser.CSS(fmt.Sprintf(".user-field:nth-child(%d) input.simple-input:nth-child(2)", idx+1)),
	)
	if err := r.kit.Do(ctx, r.frame, units, browser.SetText(strconv.Itoa(score.Units))); err != nil {
		return err
	}
	return r.kit.Do(ctx, r.frame, grade, browser.SetText(strconv.Itoa(score.Grade)))
}

// computeAverage reads the calculated average and carries it back to the
// main form.
func (r *run) computeAverage(ctx context.Context) (wizard.StateID, error) {
	if err := r.kit.Do(ctx, r.frame, calculateAverage, browser.Click()); err != nil {
		return "", err
	}
	avg, err := retry.Value(ctx, r.rowPolicy(), func(ctx context.Context) (string, error) {
		text, err := r.kit.Read(ctx, r.frame, averageResult)
		if err != nil {
			return "", err
		}
		if text == "" {
			return "", errors.NewExtractionError("calculated average", nil)
		}
		return text, nil
	})
	if err != nil {
		return "", err
	}
	r.average = avg
	r.log.Info("bagrut average computed", map[string]interface{}{"average": avg})

	if err := r.kit.Do(ctx, r.frame, backToMain, browser.Click()); err != nil {
		return "", err
	}
	if err := r.kit.Do(ctx, r.frame, averageInput, browser.SetText(avg)); err != nil {
		return "", err
	}
	return stateScience, nil
}

// scienceBonus refills the fixed math and physics rows and adds one row per
// other science subject.
func (r *run) scienceBonus(ctx context.Context) (wizard.StateID, error) {
	for idx, name := range []string{mathSubject, physicsSubject} {
		score, ok := r.req.Score(name)
		if !ok {
			continue
		}
		if err := r.fillUnitsAndGrade(ctx, idx, score); err != nil {
			return "", err
		}
	}

	for _, name := range r.req.Subjects() {
		if !scienceSubjects[name] {
			continue
		}
		score, _ := r.req.Score(name)
		if err := r.addRow(ctx, addScienceButton); err != nil {
			return "", err
		}
		rows, err := browser.All(r.frame, userFields)
		if err != nil || len(rows) == 0 {
			return "", errors.NewElementResolutionError("science row", 1, err)
		}
		row := browser.Within(rows[len(rows)-1])
		input := browser.Spec("science subject "+name,
			browser.CSS("input[id^='react-select-']"),
			browser.CSS(".react-select__input input"),
		)
		loc, err := r.kit.Resolver.Require(ctx, input, row)
		if err != nil {
			return "", err
		}
		if err := r.kit.Exec.Perform(ctx, input.Target, loc, browser.TypePaced(name)); err != nil {
			return "", err
		}
		if picked, err := r.kit.TryDo(ctx, r.frame, subjectOption, browser.Click()); err != nil {
			return "", err
		} else if !picked {
			if err := loc.Press("Enter"); err != nil {
				return "", errors.NewActionFailedError("select subject", input.Target, err)
			}
		}

		units := browser.Spec("science units "+name, browser.Nth("input.simple-input", 0))
		grade := browser.Spec("science grade "+name, browser.Nth("input.simple-input", 1))
		if err := r.kit.Do(ctx, row, units, browser.SetText(strconv.Itoa(score.Units))); err != nil {
			return "", err
		}
		if err := r.kit.Do(ctx, row, grade, browser.SetText(strconv.Itoa(score.Grade))); err != nil {
			return "", err
		}
	}
	return statePsycho, nil
}

func (r *run) psychometric(ctx context.Context) (wizard.StateID, error) {
	for i := 0; i < 2; i++ {
		if err := r.kit.Next(ctx, r.frame, ""); err != nil {
			return "", err
		}
		if err := r.session.WaitSettled(ctx); err != nil {
			return "", err
		}
	}

	fields, err := browser.All(r.frame, "div.user-field.content-description.psychometry")
	if err != nil || len(fields) == 0 {
		fields, err = browser.All(r.frame, userFields)
	}
	if err != nil || len(fields) == 0 {
		return "", errors.NewElementResolutionError("psychometric fields", 1, err)
	}

	labeled := make([]wizard.Field, len(fields))
	for i, f := range fields {
		label, _ := f.Locator("div").First().InnerText()
		labeled[i] = wizard.Field{Index: i, Label: label}
	}

	p := r.req.Psychometric
	values := map[string]int{
		"total":        p.Total,
		"english":      p.English,
		"quantitative": p.Quantitative,
		"verbal":       p.Verbal,
	}
	input := browser.Spec("psychometric input", browser.CSS("input.simple-input"), browser.CSS("input"))
	for _, as := range wizard.AssignByLabel(labeled, psychoOrder, psychoKeywords) {
		scope := browser.Within(fields[as.Field])
		if err := r.kit.Do(ctx, scope, input, browser.SetText(strconv.Itoa(values[as.Key]))); err != nil {
			return "", err
		}
	}
	return statePreResult, nil
}

// preResults walks the summary pages. A missing "next" is tolerated; the
// results state fails if the result page never shows.
func (r *run) preResults(ctx context.Context) (wizard.StateID, error) {
	for _, target := range []string{"#/total", "#/semester", "#/result"} {
		clicked, err := r.kit.TryDo(ctx, r.frame, wizard.NextSpec(target), browser.Click())
		if err != nil {
			return "", err
		}
		if !clicked {
			r.log.Warn("next not found, continuing", map[string]interface{}{logger.FieldTarget: target})
		}
		if err := r.session.WaitSettled(ctx); err != nil {
			return "", err
		}
	}
	return stateResults, nil
}

func (r *run) results(ctx context.Context) (wizard.StateID, error) {
	degrees := r.req.Degrees()
	raw, err := r.adapter.extractor.Extract(ctx, &resultsPage{run: r}, degrees)
	if err != nil {
		return "", err
	}
	requested := r.req.RequestedDegree()
	r.live = decide(raw[requested], requested, r.adapter.BaseURL())
	return wizard.Done, nil
}
