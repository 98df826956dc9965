// internal/admission/engine.go
package admission

import (
	"context"
	"fmt"
	"time"

	"admission-checker/internal/browser"
	"admission-checker/internal/common/errors"
	"admission-checker/internal/common/logger"
	"admission-checker/internal/common/metrics"
	"admission-checker/internal/common/observability"
	"admission-checker/internal/fallback"
	"admission-checker/internal/models"
	"admission-checker/internal/session"

	"github.com/google/uuid"
)

// SourcePrecheck marks answers decided without opening a session.
const SourcePrecheck fallback.Source = "precheck"

const noDegreeMessage = "לא צוין תחום לימוד לבדיקה"

// Report describes one finished check.
type Report struct {
	RequestID  string
	University models.UniversityID
	Degree     string
	Result     models.AdmissionResult
	Source     fallback.Source
	Duration   time.Duration
	// Err is the live failure behind a degraded answer.
	Err error
}

// Engine routes requests to adapters through the session manager.
type Engine struct {
	adapters map[models.UniversityID]Adapter
	manager  *session.Manager[*browser.Session]
	history  HistoryStore
	obs      *observability.Observability
	log      logger.Logger
}

// Option configures optional Engine collaborators.
type Option func(*Engine)

func WithHistory(h HistoryStore) Option {
	return func(e *Engine) { e.history = h }
}

func WithObservability(o *observability.Observability) Option {
	return func(e *Engine) { e.obs = o }
}

func NewEngine(manager *session.Manager[*browser.Session], log logger.Logger, adapters []Adapter, opts ...Option) *Engine {
	e := &Engine{
		adapters: make(map[models.UniversityID]Adapter, len(adapters)),
		manager:  manager,
		log:      log,
	}
	for _, a := range adapters {
		e.adapters[a.ID()] = a
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Adapter returns the adapter registered for id.
func (e *Engine) Adapter(id models.UniversityID) (Adapter, bool) {
	a, ok := e.adapters[id]
	return a, ok
}

// Universities lists the registered universities.
func (e *Engine) Universities() []models.UniversityID {
	out := make([]models.UniversityID, 0, len(e.adapters))
	for id := range e.adapters {
		out = append(out, id)
	}
	return out
}

// Check answers one request. The returned error is reserved for requests the
// engine cannot route; every automation failure ends up in the report.
func (e *Engine) Check(ctx context.Context, id models.UniversityID, requestID string, req models.AdmissionRequest) (Report, error) {
	adapter, ok := e.adapters[id]
	if !ok {
		return Report{}, errors.NewInvalidRequestError(fmt.Sprintf("unknown university %q", id))
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}

	started := time.Now()
	log := logger.ForCheck(e.log, string(id), requestID)
	report := e.check(ctx, adapter, req, log)
	report.RequestID = requestID
	report.University = id
	report.Duration = time.Since(started)

	e.record(ctx, report, log)
	return report, nil
}

func (e *Engine) check(ctx context.Context, adapter Adapter, req models.AdmissionRequest, log logger.Logger) Report {
	requested := req.RequestedDegree()
	if requested == "" {
		return Report{
			Result: models.NewResult("", adapter.BaseURL(), noDegreeMessage),
			Source: SourcePrecheck,
		}
	}

	tables := adapter.Tables()
	siteReq := tables.NormalizeSubjects(req)
	degree := tables.NormalizeDegree(requested)

	if degree.Absent {
		log.Info("degree not offered", map[string]interface{}{logger.FieldDegree: requested})
		return Report{
			Degree: requested,
			Result: models.NewResult("", adapter.BaseURL(), degree.Reason),
			Source: SourcePrecheck,
		}
	}

	if result, decided := adapter.Precheck(siteReq, degree); decided {
		log.Info("decided without a session", map[string]interface{}{
			logger.FieldDegree: requested,
			"verdict":          string(result.Verdict()),
		})
		return Report{Degree: requested, Result: result, Source: SourcePrecheck}
	}

	target := session.Target{
		University: adapter.ID(),
		BaseURL:    adapter.BaseURL(),
		Degree:     requested,
		Total:      req.Psychometric.Total,
	}
	out := e.manager.WithSession(ctx, target, func(ctx context.Context, s *browser.Session) (session.Live, error) {
		return adapter.Drive(ctx, s, siteReq, degree)
	})
	return Report{Degree: requested, Result: out.Result, Source: out.Source, Err: out.Err}
}

func (e *Engine) record(ctx context.Context, r Report, log logger.Logger) {
	outcome := outcomeLabel(r.Result)
	metrics.AdmissionChecksTotal.WithLabelValues(string(r.University), outcome, string(r.Source)).Inc()
	metrics.AdmissionCheckDuration.WithLabelValues(string(r.University)).Observe(r.Duration.Seconds())
	if e.obs != nil {
		e.obs.RecordCheck(ctx, string(r.University), outcome, string(r.Source), r.Duration)
	}

	log.Info("admission check finished", map[string]interface{}{
		logger.FieldDegree: r.Degree,
		"outcome":          outcome,
		"source":           string(r.Source),
		"durationMs":       r.Duration.Milliseconds(),
	})

	if e.history == nil {
		return
	}
	if err := e.history.Record(context.WithoutCancel(ctx), r); err != nil {
		log.Warn("failed to record check history", map[string]interface{}{"error": err.Error()})
	}
}

func outcomeLabel(r models.AdmissionResult) string {
	switch r.Verdict() {
	case models.VerdictAccepted:
		return "accepted"
	case models.VerdictRejected:
		return "rejected"
	default:
		return "none"
	}
}

