// internal/universities/technion/adapter.go
package technion

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

const minimumUnits = 4

// Adapter drives the Technion sechem calculator and cutoff table.
type Adapter struct {
	config *Config
	tables normalize.Tables
	log    logger.Logger
}

func NewAdapter(cfg *Config, log logger.Logger) *Adapter {
	if cfg == nil {
		cfg = LoadConfig()
	}
	return &Adapter{
		config: cfg,
		tables: Tables(),
		log:    log.WithFields(map[string]interface{}{logger.FieldUniversity: string(models.Technion)}),
	}
}

func (a *Adapter) ID() models.UniversityID  { return models.Technion }
func (a *Adapter) BaseURL() string          { return a.config.CutoffURL }
func (a *Adapter) Tables() normalize.Tables { return a.tables }

// Precheck rejects applicants below four units in English or mathematics.
func (a *Adapter) Precheck(req models.AdmissionRequest, degree normalize.Degree) (models.AdmissionResult, bool) {
	for _, subject := range []string{"אנגלית", "מתמטיקה"} {
		score, ok := req.Score(subject)
		if ok && score.Units < minimumUnits {
			msg := fmt.Sprintf("דחייה בגלל מספר יחידות לא מספק ב%s. בטכניון נדרש מינימום %d יחידות.", subject, minimumUnits)
			return models.NewResult(models.VerdictRejected, a.BaseURL(), msg), true
		}
	}
	return models.AdmissionResult{}, false
}

// Drive computes the sechem on the calculator and compares it with the cutoff table.
func (a *Adapter) Drive(ctx context.Context, s *browser.Session, req models.AdmissionRequest, degree normalize.Degree) (session.Live, error) {
	run := newRun(a, s, req, degree)
	m, err := wizard.NewMachine("technion", stateLanding, a.log, run.states()...)
	if err != nil {
		return session.Live{}, err
	}
	if _, err := m.Drive(ctx); err != nil {
		return session.Live{}, err
	}
	return run.live, nil
}
