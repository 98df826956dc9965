// internal/universities/bengurion/adapter.go
package bengurion

import (
	"context"

	"admission-checker/internal/browser"
	"admission-checker/internal/common/logger"
	"admission-checker/internal/extract"
	"admission-checker/internal/models"
	"admission-checker/internal/normalize"
	"admission-checker/internal/session"
	"admission-checker/internal/wizard"
)

// Adapter drives the BGU calculator embedded in the admissions page and
// reads the list of degrees the applicant qualifies for.
type Adapter struct {
	config    *Config
	tables    normalize.Tables
	extractor *extract.ListExtractor
	log       logger.Logger
}

func NewAdapter(cfg *Config, log logger.Logger) *Adapter {
	if cfg == nil {
		cfg = LoadConfig()
	}
	log = log.WithFields(map[string]interface{}{logger.FieldUniversity: string(models.BenGurion)})
	tables := Tables()
	siteName := func(degree string) string { return tables.NormalizeDegree(degree).Name }
	return &Adapter{
		config:    cfg,
		tables:    tables,
		extractor: extract.NewListExtractor(tables.Qualifiers, siteName, log),
		log:       log,
	}
}

func (a *Adapter) ID() models.UniversityID  { return models.BenGurion }
func (a *Adapter) BaseURL() string          { return a.config.BaseURL }
func (a *Adapter) Tables() normalize.Tables { return a.tables }

// Precheck answers when any degree to check is one BGU does not offer.
func (a *Adapter) Precheck(req models.AdmissionRequest, _ normalize.Degree) (models.AdmissionResult, bool) {
	for _, d := range req.Degrees() {
		if nd := a.tables.NormalizeDegree(d); nd.Absent {
			return models.NewResult("", a.BaseURL(), nd.Reason), true
		}
	}
	return models.AdmissionResult{}, false
}

func (a *Adapter) Drive(ctx context.Context, s *browser.Session, req models.AdmissionRequest, degree normalize.Degree) (session.Live, error) {
	run := newRun(a, s, req)
	m, err := wizard.NewMachine("ben-gurion", stateLanding, a.log, run.states()...)
	if err != nil {
		return session.Live{}, err
	}
	if _, err := m.Drive(ctx); err != nil {
		return session.Live{}, err
	}
	return run.live, nil
}
