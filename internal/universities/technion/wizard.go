// internal/universities/technion/wizard.go
package technion

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
	"admission-checker/internal/normalize"
	"admission-checker/internal/session"
	"admission-checker/internal/wizard"
)

const (
	stateLanding   wizard.StateID = "landing"
	stateSubjects  wizard.StateID = "subject-entry"
	stateElectives wizard.StateID = "elective-entry"
	statePsycho    wizard.StateID = "psychometric-entry"
	stateSubmit    wizard.StateID = "submit"
	stateResults   wizard.StateID = "results"
	stateCutoffs   wizard.StateID = "cutoffs"
)

const (
	unparsableSum = "לא ניתן לחשב את הסכם שלך"
	mandatoryRows = "#bagrotForm .two-column-table tbody tr"
)

var (
	bagrotYes = browser.Spec("bagrut yes",
		browser.ID("bagrotYes"),
		browser.CSS(".technion-calculator #bagrotYes"),
	)
	psychometryInput = browser.Spec("psychometry",
		browser.ID("psychometry"),
		browser.CSS("input[name='psychometry']"),
	)
	calculateButton = browser.Spec("calculate sechem",
		browser.CSS(`input[value="חישוב סכם"]`),
		browser.Text("button", "חישוב סכם"),
	)
	resultsBlock = browser.Spec("results",
		browser.CSS(".one_line_results"),
	)
	sumHeading = browser.Spec("sechem heading",
		browser.XPath("//h2[contains(text(),'הסכם לדיוני הקבלה')]"),
		browser.Text("h2", "הסכם לדיוני הקבלה"),
	)
	errorModal = wizard.ModalSpec{
		Container: ".ui-dialog",
		Content:   ".ui-dialog-content",
		Dismiss: []browser.Strategy{
			browser.CSS(".ui-button"),
			browser.CSS(".ui-dialog-titlebar-close"),
		},
	}
)

// run holds the state of one wizard pass.
type run struct {
	adapter *Adapter
	session *browser.Session
	kit     *wizard.Kit
	req     models.AdmissionRequest
	degree  normalize.Degree
	log     logger.Logger

	remaining []string
	sum       float64

	// decided is set when the run ends before the cutoff lookup.
	decided bool
	live    session.Live
}

func newRun(a *Adapter, s *browser.Session, req models.AdmissionRequest, degree normalize.Degree) *run {
	log := a.log.WithFields(map[string]interface{}{logger.FieldSessionID: s.ID})
	return &run{
		adapter: a,
		session: s,
		kit:     wizard.NewKit(s, log),
		req:     req,
		degree:  degree,
		log:     log,
	}
}

func (r *run) states() []wizard.State {
	return []wizard.State{
		{ID: stateLanding, Run: r.landing},
		{ID: stateSubjects, Run: r.subjects},
		{ID: stateElectives, Run: r.electives},
		{ID: statePsycho, Run: r.psychometric},
		{ID: stateSubmit, Run: r.submit},
		{ID: stateResults, Run: r.results},
		{ID: stateCutoffs, Run: r.cutoffs, Terminal: true},
	}
}

func (r *run) landing(ctx context.Context) (wizard.StateID, error) {
	if err := r.session.Goto(ctx, r.adapter.config.CalculatorURL); err != nil {
		return "", err
	}
	if err := r.kit.Do(ctx, r.session.Scope(), bagrotYes, browser.Click()); err != nil {
		return "", err
	}
	return stateSubjects, nil
}

// subjects fills the fixed rows whose header names a subject the applicant has.
func (r *run) subjects(ctx context.Context) (wizard.StateID, error) {
	rows, err := browser.All(r.session.Scope(), mandatoryRows)
	if err != nil {
		return "", errors.NewElementResolutionError("mandatory subject rows", 1, err)
	}
	if len(rows) == 0 {
		return "", errors.NewElementResolutionError("mandatory subject rows", 1, fmt.Errorf("no rows"))
	}

	filled := map[string]bool{}
	for _, row := range rows {
		header, err := row.Locator("th").First().InnerText()
		if err != nil {
			continue
		}
		name := strings.Join(strings.Fields(header), " ")
		score, ok := r.req.Score(name)
		if !ok {
			continue
		}

		scope := browser.Within(row)
		units := browser.Spec("units "+name, browser.CSS("td select"), browser.CSS("select"))
		grade := browser.Spec("grade "+name, browser.CSS("td input"), browser.CSS("input"))
		if err := r.kit.Do(ctx, scope, units, browser.Select(strconv.Itoa(score.Units))); err != nil {
			return "", err
		}
		if err := r.kit.Do(ctx, scope, grade, browser.SetText(strconv.Itoa(score.Grade))); err != nil {
			return "", err
		}
		filled[name] = true
	}

	for _, name := range r.req.Subjects() {
		if !filled[name] {
			r.remaining = append(r.remaining, name)
		}
	}
	r.log.Debug("mandatory subjects entered", map[string]interface{}{
		"filled":    len(filled),
		"electives": len(r.remaining),
	})
	return stateElectives, nil
}

// electives enters every other subject into its own elective row, adding a
// row after each one while subjects remain.
func (r *run) electives(ctx context.Context) (wizard.StateID, error) {
	page := r.session.Scope()
	idx := 1
	for i, name := range r.remaining {
		score, _ := r.req.Score(name)
		rowSpec := browser.Spec(fmt.Sprintf("elective row %d", idx), browser.ID(fmt.Sprintf("bhira%d", idx)))
		row, err := r.kit.Resolver.Require(ctx, rowSpec, page)
		if err != nil {
			return "", err
		}
		scope := browser.Within(row)

		subject := browser.Spec("elective subject "+name,
			browser.CSS(fmt.Sprintf("select[name='mikztootBhira_%d']", idx)),
			browser.CSS("select"),
		)
		if err := r.kit.Do(ctx, scope, subject, browser.Select(name)); err != nil {
			if err := r.kit.Do(ctx, scope, subject, browser.Select(otherSubjectOption)); err != nil {
				r.log.Warn("elective subject not offered, skipping", map[string]interface{}{"subject": name})
				continue
			}
		}

		units := browser.Spec("elective units "+name, browser.ID(fmt.Sprintf("y%d", idx)))
		if err := r.kit.Do(ctx, scope, units, browser.Select(strconv.Itoa(score.Units))); err != nil {
			return "", err
		}
		grade := browser.Spec("elective grade "+name, browser.ID(fmt.Sprintf("G_%d", idx)))
		if err := r.kit.Do(ctx, scope, grade, browser.SetText(strconv.Itoa(score.Grade))); err != nil {
			return "", err
		}

		idx++
		if i == len(r.remaining)-1 {
			break
		}
		if err := r.addRow(ctx, scope, idx); err != nil {
			return "", err
		}
	}
	return statePsycho, nil
}

// addRow reveals elective row idx and checks it appeared.
func (r *run) addRow(ctx context.Context, current browser.Scope, idx int) error {
	next := browser.Spec(fmt.Sprintf("elective row %d", idx), browser.ID(fmt.Sprintf("bhira%d", idx)))
	if _, err := r.kit.Resolver.Resolve(ctx, next.AsOptional(), r.session.Scope()); err == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	add := browser.Spec("add elective", browser.CSS("button.add_bhira"), browser.Text("button", "הוספת"))
	if err := r.kit.Do(ctx, current, add, browser.Click()); err != nil {
		return err
	}
	_, err := r.kit.Resolver.Require(ctx, next, r.session.Scope())
	return err
}

func (r *run) psychometric(ctx context.Context) (wizard.StateID, error) {
	total := strconv.Itoa(r.req.Psychometric.Total)
	if err := r.kit.Do(ctx, r.session.Scope(), psychometryInput, browser.SetText(total)); err != nil {
		return "", err
	}
	return stateSubmit, nil
}

func (r *run) submit(ctx context.Context) (wizard.StateID, error) {
	seen, err := r.kit.SubmitAndDismiss(ctx, r.session.Scope(), calculateButton, errorModal)
	if err != nil {
		return "", err
	}
	if seen != nil {
		r.log.Info("interstitial after submit", map[string]interface{}{
			"source": seen.Source,
			"text":   seen.Text,
		})
	}
	return stateResults, nil
}

func (r *run) results(ctx context.Context) (wizard.StateID, error) {
	block, err := r.kit.Resolver.Require(ctx, resultsBlock, r.session.Scope())
	if err != nil {
		return "", err
	}
	text, err := r.kit.Read(ctx, browser.Within(block), sumHeading)
	if err != nil {
		text, err = r.kit.Read(ctx, r.session.Scope(), sumHeading)
	}
	if err == nil {
		r.sum, err = extract.ParseTrailingScore(text)
	}
	if err != nil {
		r.log.Warn("sechem not readable", map[string]interface{}{"error": err.Error()})
		r.live = session.Live{Result: models.NewResult("", r.adapter.BaseURL(), unparsableSum)}
		r.decided = true
		return stateCutoffs, nil
	}
	r.log.Info("sechem computed", map[string]interface{}{"sum": r.sum})
	return stateCutoffs, nil
}

func (r *run) cutoffs(ctx context.Context) (wizard.StateID, error) {
	if r.decided {
		return wizard.Done, nil
	}
	cfg := r.adapter.config
	if err := r.session.Goto(ctx, cfg.CutoffURL); err != nil {
		return "", err
	}
	label := browser.Spec("cutoff accordion", browser.ID(cfg.CutoffLabel), browser.CSS(".fl-accordion-button-label"))
	if err := r.kit.Do(ctx, r.session.Scope(), label, browser.Click()); err != nil {
		return "", err
	}

	table, err := readCutoffs(r.session.Scope(), cfg.CutoffPanel)
	if err != nil {
		return "", errors.NewExtractionError("cutoff table", err)
	}
	r.live = decide(r.sum, table, r.degree, r.req.RequestedDegree(), r.adapter.BaseURL())
	return wizard.Done, nil
}

func readCutoffs(scope browser.Scope, panel string) ([]extract.Cutoff, error) {
	rows, err := browser.All(scope, `[id="`+panel+`"] tbody tr`)
	if err != nil {
		return nil, err
	}
	var table []extract.Cutoff
	for _, row := range rows {
		cells, err := row.Locator("td").AllInnerTexts()
		if err != nil || len(cells) < 3 {
			continue
		}
		required, err := extract.ParseFirstNumber(cells[2])
		if err != nil {
			continue
		}
		table = append(table, extract.Cutoff{Degree: cells[0], Required: required})
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("no cutoff rows in %s", panel)
	}
	return table, nil
}

// decide compares the computed sechem with the degree's published cutoff.
func decide(sum float64, table []extract.Cutoff, degree normalize.Degree, requested, url string) session.Live {
	row, ok := extract.FindCutoff(table, degree.Name)
	if !ok {
		return session.Live{Result: models.NewResult("", url, missingDegreeMessage(requested))}
	}
	verdict := extract.CompareThreshold(sum, row.Required)
	msg := fmt.Sprintf("הסכם שלך %.2f, הסכם הנדרש לתואר %s הוא %.2f", sum, requested, row.Required)
	return session.Live{
		Result: models.NewResult(verdict, url, msg),
		Raw:    string(verdict),
	}
}
