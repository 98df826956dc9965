// internal/workers/admission-check/models.go
package admissioncheck

import (
	"admission-checker/internal/models"
)

// Input is one job's variables. Request carries the same body the HTTP routes accept.
type Input struct {
	RequestID string
	Request   models.AdmissionRequest
}

type Output struct {
	RequestID  string                 `json:"requestId"`
	University string                 `json:"university"`
	Degree     string                 `json:"degree"`
	Result     models.AdmissionResult `json:"result"`
	Source     string                 `json:"source"`
	DurationMs int64                  `json:"durationMs"`
}

// Variables is what the job completes with. Result keeps the HTTP response shape.
func (o *Output) Variables() map[string]interface{} {
	return map[string]interface{}{
		"admissionResult":     o.Result,
		"admissionRequestId":  o.RequestID,
		"admissionUniversity": o.University,
		"admissionDegree":     o.Degree,
		"admissionSource":     o.Source,
		"admissionDurationMs": o.DurationMs,
	}
}
