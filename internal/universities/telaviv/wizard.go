// internal/universities/telaviv/wizard.go
package telaviv

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
)

const (
	stateBagrut  wizard.StateID = "bagrut-entry"
	stateAverage wizard.StateID = "average-computed"
	stateMatch   wizard.StateID = "match-score"
	stateResults wizard.StateID = "results"
)

const (
	bagrutRows = "form .trtblscont tr"
	waitlisted = "רשימת המתנה"
)

// sectionColumns is the column order of the sectional score table.
var sectionColumns = []string{sectionEngineering, sectionExact, sectionNoMor, sectionManagement}

var (
	bagrutSubmit = browser.Spec("calculate bagrut",
		browser.XPath("//input[@type='submit']"),
		browser.CSS("input[type='submit']"),
	)
	averageCell = browser.Spec("bagrut average",
		browser.CSS(".rowalter td:nth-child(3)"),
		browser.Nth(".rowalter td", 2),
	)
	averageField = browser.Spec("average", browser.Nth("form input", 0))
	totalField   = browser.Spec("psychometric total", browser.Nth("form input", 1))
	fiveUnitsBox = browser.Spec("five units math and physics", browser.Nth("form input", 2))

	matchSubmit = browser.Spec("calculate match",
		browser.CSS("button.calc-btn.btn.btn-dark"),
		browser.CSS("button.calc-btn"),
	)
	matchPanel = browser.Spec("match results",
		browser.CSS("div.suitability-calc.faculty-filter-shown"),
		browser.CSS("div.suitability-calc"),
	)
	dialogClose = browser.Optional("program popup close",
		browser.CSS(".ui-dialog-titlebar-close"),
	)
	acceptanceThreshold = browser.Hidden("acceptance threshold", browser.ID("acceptanceThreshold"))
	rejectionThreshold  = browser.Hidden("rejection threshold", browser.ID("rejectionThreshold"))
)

// rowFill is one bagrut form row to fill.
type rowFill struct {
	Row     int
	Subject string
	Score   models.SubjectScore
}

type run struct {
	adapter *Adapter
	session *browser.Session
	kit     *wizard.Kit
	req     models.AdmissionRequest
	program program
	log     logger.Logger

	average string
	scores  map[string]float64
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
		{ID: stateBagrut, Run: r.bagrut},
		{ID: stateAverage, Run: r.readAverage},
		{ID: stateMatch, Run: r.matchScore},
		{ID: stateResults, Run: r.results, Terminal: true},
	}
}

// planBagrut assigns subjects to form rows. labels holds each row's subject
// cell, or "" for rows without inputs. Subjects the form does not list go to
// the "other" rows in order; subjects with no row left are dropped.
func planBagrut(labels []string, req models.AdmissionRequest) []rowFill {
	remaining := map[string]bool{}
	var others []string
	for _, name := range req.Subjects() {
		if formSubjects[name] {
			remaining[name] = true
		} else {
			others = append(others, name)
		}
	}

	var plan []rowFill
	for i, label := range labels {
		if label == "" {
			continue
		}
		if strings.Contains(label, otherSubjectRow) {
			if len(others) == 0 {
				continue
			}
			name := others[0]
			others = others[1:]
			score, _ := req.Score(name)
			plan = append(plan, rowFill{Row: i, Subject: name, Score: score})
			continue
		}
		for _, name := range req.Subjects() {
			if remaining[name] && strings.Contains(label, name) {
				score, _ := req.Score(name)
				plan = append(plan, rowFill{Row: i, Subject: name, Score: score})
				delete(remaining, name)
				break
			}
		}
	}
	return plan
}

func (r *run) bagrut(ctx context.Context) (wizard.StateID, error) {
	if err := r.session.Goto(ctx, r.adapter.config.BagrutURL); err != nil {
		return "", err
	}
	rows, err := browser.All(r.session.Scope(), bagrutRows)
	if err != nil || len(rows) == 0 {
		return "", errors.NewElementResolutionError("bagrut rows", 1, err)
	}

	labels := make([]string, len(rows))
	for i, row := range rows {
		if n, err := row.Locator("input").Count(); err != nil || n == 0 {
			continue
		}
		cells, err := row.Locator("td").AllInnerTexts()
		if err != nil || len(cells) < 3 {
			continue
		}
		labels[i] = strings.TrimSpace(cells[2])
	}

	plan := planBagrut(labels, r.req)
	for _, f := range plan {
		scope := browser.Within(rows[f.Row])
		grade := browser.Spec("grade "+f.Subject, browser.CSS("td:nth-child(1) input"))
		units := browser.Spec("units "+f.Subject, browser.CSS("td:nth-child(2) input"))
		if err := r.kit.Do(ctx, scope, grade, browser.SetText(strconv.Itoa(f.Score.Grade))); err != nil {
			return "", err
		}
		if err := r.kit.Do(ctx, scope, units, browser.SetText(strconv.Itoa(f.Score.Units))); err != nil {
			return "", err
		}
	}
	r.log.Debug("bagrut rows filled", map[string]interface{}{"rows": len(plan)})

	if err := r.kit.Do(ctx, r.session.Scope(), bagrutSubmit, browser.Click()); err != nil {
		return "", err
	}
	return stateAverage, nil
}

func (r *run) readAverage(ctx context.Context) (wizard.StateID, error) {
	if err := r.session.WaitForURL(ctx, "Bagrut_T.aspx"); err != nil {
		return "", err
	}
	text, err := r.kit.Read(ctx, r.session.Scope(), averageCell)
	if err != nil {
		return "", err
	}
	r.average = strings.ReplaceAll(text, " ", "")
	if _, err := extract.ParseFirstNumber(r.average); err != nil {
		return "", errors.NewExtractionError("bagrut average", err)
	}
	r.log.Info("bagrut average computed", map[string]interface{}{"average": r.average})
	return stateMatch, nil
}

// fiveUnitBonus reports whether math and physics were both taken at five units.
func fiveUnitBonus(req models.AdmissionRequest) bool {
	math, okMath := req.Score("מתמטיקה")
	physics, okPhysics := req.Score("פיזיקה")
	return okMath && okPhysics && math.Units == 5 && physics.Units == 5
}

func (r *run) matchScore(ctx context.Context) (wizard.StateID, error) {
	if err := r.session.Goto(ctx, r.adapter.config.CalculatorURL); err != nil {
		return "", err
	}
	page := r.session.Scope()
	if err := r.kit.Do(ctx, page, averageField, browser.SetText(r.average)); err != nil {
		return "", err
	}
	if err := r.kit.Do(ctx, page, totalField, browser.SetText(strconv.Itoa(r.req.Psychometric.Total))); err != nil {
		return "", err
	}
	if fiveUnitBonus(r.req) {
		if err := r.kit.Do(ctx, page, fiveUnitsBox, browser.Click()); err != nil {
			return "", err
		}
	}
	if err := r.kit.Do(ctx, page, matchSubmit, browser.Click()); err != nil {
		return "", err
	}

	panel, err := r.kit.Resolver.Require(ctx, matchPanel, page)
	if err != nil {
		return "", err
	}
	scope := browser.Within(panel)
	general, err := r.kit.Read(ctx, scope, browser.Spec("general score", browser.CSS(".result-score")))
	if err != nil {
		return "", err
	}
	sectional, err := browser.Texts(scope, "table .tr-r td")
	if err != nil {
		return "", errors.NewExtractionError("sectional scores", err)
	}
	r.scores, err = parseScores(general, sectional)
	if err != nil {
		return "", err
	}
	r.log.Info("match scores computed", map[string]interface{}{"scores": r.scores})
	return stateResults, nil
}

// parseScores maps the general score and the sectional cells to sections.
func parseScores(general string, sectional []string) (map[string]float64, error) {
	out := make(map[string]float64, len(sectionColumns)+1)
	g, err := extract.ParseFirstNumber(general)
	if err != nil {
		return nil, errors.NewExtractionError("general score", err)
	}
	out[sectionGeneral] = g
	for i, cell := range sectional {
		if i >= len(sectionColumns) {
			break
		}
		if v, err := extract.ParseFirstNumber(cell); err == nil {
			out[sectionColumns[i]] = v
		}
	}
	return out, nil
}

func (r *run) results(ctx context.Context) (wizard.StateID, error) {
	if err := r.session.Goto(ctx, r.program.URL); err != nil {
		return "", err
	}
	if _, err := r.kit.TryDo(ctx, r.session.Scope(), dialogClose, browser.Click()); err != nil {
		r.log.Debug("program popup not closed", map[string]interface{}{"error": err.Error()})
	}

	acceptance, err := r.readThreshold(ctx, acceptanceThreshold)
	if err != nil {
		return "", err
	}
	rejection, err := r.readThreshold(ctx, rejectionThreshold)
	if err != nil {
		return "", err
	}
	score, ok := r.scores[r.program.Section]
	if !ok {
		return "", errors.NewExtractionError("section score "+r.program.Section, nil)
	}
	r.live = decide(score, acceptance, rejection, r.program.URL)
	return wizard.Done, nil
}

func (r *run) readThreshold(ctx context.Context, spec browser.LocatorSpec) (float64, error) {
	loc, err := r.kit.Resolver.Require(ctx, spec, r.session.Scope())
	if err != nil {
		return 0, err
	}
	text, err := loc.TextContent()
	if err != nil {
		return 0, errors.NewExtractionError(spec.Target, err)
	}
	v, err := extract.ParseFirstNumber(text)
	if err != nil {
		return 0, errors.NewExtractionError(spec.Target, fmt.Errorf("%q: %w", text, err))
	}
	return v, nil
}

// decide places the section score in the program's threshold bands. The
// waitlist band has no verdict and is not remembered for degraded runs.
func decide(score, acceptance, rejection float64, url string) session.Live {
	switch extract.CompareBands(score, acceptance, rejection) {
	case extract.BandAccepted:
		return session.Live{Result: models.NewResult(models.VerdictAccepted, url, ""), Raw: string(models.VerdictAccepted)}
	case extract.BandWaitlist:
		return session.Live{Result: models.NewResult("", url, waitlisted)}
	default:
		return session.Live{Result: models.NewResult(models.VerdictRejected, url, ""), Raw: string(models.VerdictRejected)}
	}
}
