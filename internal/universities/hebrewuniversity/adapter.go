// internal/universities/hebrewuniversity/adapter.go
package hebrewuniversity

import (
	"context"
	"fmt"

	"admission-checker/internal/browser"
	"admission-checker/internal/common/logger"
	"admission-checker/internal/models"
	"admission-checker/internal/normalize"
	"admission-checker/internal/session"
	"admission-checker/internal/wizard"
)

const minimumEnglishUnits = 4

// Adapter computes the HUJI bagrut average on the calculator site and feeds it
// to the program admission simulator.
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
		log:      log.WithFields(map[string]interface{}{logger.FieldUniversity: string(models.HebrewUniversity)}),
	}
}

func (a *Adapter) ID() models.UniversityID  { return models.HebrewUniversity }
func (a *Adapter) BaseURL() string          { return a.config.ProgramsURL }
func (a *Adapter) Tables() normalize.Tables { return a.tables }

// Precheck answers unknown degrees and applicants below four English units.
func (a *Adapter) Precheck(req models.AdmissionRequest, degree normalize.Degree) (models.AdmissionResult, bool) {
	if _, ok := a.programs[degree.Name]; !ok {
		return models.NewResult("", a.BaseURL(), missingDegreeMessage(req.RequestedDegree())), true
	}
	if score, ok := req.Score("אנגלית"); ok && score.Units < minimumEnglishUnits {
		msg := fmt.Sprintf("כמות היחידות באנגלית נמוכה מדי. נדרש מינימום של %d יחידות.", minimumEnglishUnits)
		return models.NewResult(models.VerdictRejected, a.BaseURL(), msg), true
	}
	return models.AdmissionResult{}, false
}

func (a *Adapter) Drive(ctx context.Context, s *browser.Session, req models.AdmissionRequest, degree normalize.Degree) (session.Live, error) {
	run := newRun(a, s, req, a.programs[degree.Name])
	m, err := wizard.NewMachine("hebrew-university", stateLanding, a.log, run.states()...)
	if err != nil {
		return session.Live{}, err
	}
	if _, err := m.Drive(ctx); err != nil {
		return session.Live{}, err
	}
	return run.live, nil
}
