// internal/admission/adapter.go
package admission

import (
	"context"

	"admission-checker/internal/browser"
	"admission-checker/internal/models"
	"admission-checker/internal/normalize"
	"admission-checker/internal/session"
)

// Adapter is one university's calculator automation.
type Adapter interface {
	ID() models.UniversityID
	BaseURL() string
	Tables() normalize.Tables

	// Precheck decides requests that need no browser, such as unit-level gating.
	// It must not perform I/O. The bool reports whether a decision was made.
	Precheck(req models.AdmissionRequest, degree normalize.Degree) (models.AdmissionResult, bool)

	// Drive runs the calculator wizard on s. req is already in site vocabulary.
	Drive(ctx context.Context, s *browser.Session, req models.AdmissionRequest, degree normalize.Degree) (session.Live, error)
}
