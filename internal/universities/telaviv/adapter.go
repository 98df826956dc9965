// internal/universities/telaviv/adapter.go
package telaviv

import (
	"context"

	"admission-checker/internal/browser"
	"admission-checker/internal/common/logger"
	"admission-checker/internal/models"
	"admission-checker/internal/normalize"
	"admission-checker/internal/session"
	"admission-checker/internal/wizard"
)

const (
	thresholdMessage  = "עבור רפואה ופיזיותרפיה קבלה משמעותה מעבר תנאי סף על מנת להתחיל בתהליך המיונים ולא בקבלה ללימודים"
	minMathGrade      = 56
	minMathUnits      = 4
	minEnglishSection = 120
)

// Adapter computes the TAU match score and places it against the program's
// published acceptance and rejection thresholds.
type Adapter struct {
	config   *Config
	tables   normalize.Tables
	programs map[string]program
	log      logger.Logger
}

func NewAdapter(cfg *Config, log logger.Logger) *Adapter {
	if cfg == nil {
		cfg = LoadConfig()
	}
	return &Adapter{
		config:   cfg,
		tables:   Tables(),
		programs: programs(),
		log:      log.WithFields(map[string]interface{}{logger.FieldUniversity: string(models.TelAviv)}),
	}
}

func (a *Adapter) ID() models.UniversityID  { return models.TelAviv }
func (a *Adapter) BaseURL() string          { return a.config.CalculatorURL }
func (a *Adapter) Tables() normalize.Tables { return a.tables }

// Precheck answers degrees TAU does not list and the degrees decided by
// threshold rules alone.
func (a *Adapter) Precheck(req models.AdmissionRequest, _ normalize.Degree) (models.AdmissionResult, bool) {
	requested := req.RequestedDegree()
	p, ok := a.programs[requested]
	if !ok {
		return models.NewResult("", a.BaseURL(), missingDegreeMessage(requested)), true
	}
	if unsupportedDegrees()[requested] {
		return models.NewResult("", p.URL, missingDegreeMessage(requested)), true
	}
	if minTotal, ok := thresholdRules()[requested]; ok {
		return models.NewResult(passesThreshold(req, minTotal), p.URL, thresholdMessage), true
	}
	return models.AdmissionResult{}, false
}

// passesThreshold applies the pre-screening rule for degrees that admit by
// interview after a threshold.
func passesThreshold(req models.AdmissionRequest, minTotal int) models.Verdict {
	math, _ := req.Score("מתמטיקה")
	if req.Psychometric.Total >= minTotal &&
		math.Grade >= minMathGrade &&
		math.Units >= minMathUnits &&
		req.Psychometric.English >= minEnglishSection {
		return models.VerdictAccepted
	}
	return models.VerdictRejected
}

func (a *Adapter) Drive(ctx context.Context, s *browser.Session, req models.AdmissionRequest, degree normalize.Degree) (session.Live, error) {
	run := newRun(a, s, req, a.programs[req.RequestedDegree()])
	m, err := wizard.NewMachine("tel-aviv", stateBagrut, a.log, run.states()...)
	if err != nil {
		return session.Live{}, err
	}
	if _, err := m.Drive(ctx); err != nil {
		return session.Live{}, err
	}
	return run.live, nil
}
