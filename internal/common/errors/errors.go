// Package errors provides the admission-check error taxonomy and its mapping to workflow errors.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Automation taxonomy
const (
	ErrCodeUnsupportedDegree      ErrorCode = "UNSUPPORTED_DEGREE"
	ErrCodeGatingThreshold        ErrorCode = "GATING_THRESHOLD"
	ErrCodeElementResolution      ErrorCode = "ELEMENT_RESOLUTION"
	ErrCodeUnexpectedInterstitial ErrorCode = "UNEXPECTED_INTERSTITIAL"
	ErrCodeExtraction             ErrorCode = "EXTRACTION"
)

// Infrastructure errors
const (
	ErrCodeNavigationFailed   ErrorCode = "NAVIGATION_FAILED"
	ErrCodeSessionStartFailed ErrorCode = "SESSION_START_FAILED"
	ErrCodeActionFailed       ErrorCode = "ACTION_FAILED"
	ErrCodeInvalidRequest     ErrorCode = "INVALID_REQUEST"
	ErrCodeCacheUnavailable   ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeHistoryWriteFailed ErrorCode = "HISTORY_WRITE_FAILED"
	ErrCodeWorkflowEngine     ErrorCode = "WORKFLOW_ENGINE_ERROR"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a metadata key and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewUnsupportedDegreeError reports a degree that has no equivalent at the university.
func NewUnsupportedDegreeError(university, degree string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnsupportedDegree,
		Message:   "Degree is not offered by the university",
		Details:   fmt.Sprintf("university: %s, degree: %s", university, degree),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewGatingThresholdError reports a mandatory subject below the minimum unit level.
func NewGatingThresholdError(subject string, units, minimum int) *StandardError {
	return &StandardError{
		Code:      ErrCodeGatingThreshold,
		Message:   "Mandatory subject below minimum unit level",
		Details:   fmt.Sprintf("subject: %s, units: %d, minimum: %d", subject, units, minimum),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewElementResolutionError reports that no locator strategy found a UI target.
func NewElementResolutionError(target string, attempts int, cause error) *StandardError {
	details := fmt.Sprintf("target: %s, attempts: %d", target, attempts)
	if cause != nil {
		details += ", last error: " + cause.Error()
	}
	return &StandardError{
		Code:      ErrCodeElementResolution,
		Message:   "UI element could not be resolved",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewUnexpectedInterstitialError reports a dialog the navigator could not dismiss.
func NewUnexpectedInterstitialError(text string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnexpectedInterstitial,
		Message:   "Unrecognised dialog blocked the wizard",
		Details:   text,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewExtractionError reports a terminal page whose verdict could not be parsed.
func NewExtractionError(what string, cause error) *StandardError {
	details := what
	if cause != nil {
		details = fmt.Sprintf("%s: %s", what, cause.Error())
	}
	return &StandardError{
		Code:      ErrCodeExtraction,
		Message:   "Verdict could not be extracted",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewNavigationFailedError reports a page that did not load or transition.
func NewNavigationFailedError(url string, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNavigationFailed,
		Message:   "Page navigation failed",
		Details:   fmt.Sprintf("url: %s, error: %v", url, cause),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewSessionStartFailedError reports a browser that could not be started.
func NewSessionStartFailedError(cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionStartFailed,
		Message:   "Browser session could not be started",
		Details:   fmt.Sprint(cause),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewActionFailedError reports an action that failed on every execution path.
func NewActionFailedError(action, target string, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeActionFailed,
		Message:   fmt.Sprintf("Action '%s' failed", action),
		Details:   fmt.Sprintf("target: %s, error: %v", target, cause),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewInvalidRequestError reports a malformed admission request.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Invalid admission request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheUnavailableError reports a verdict cache tier that could not be read or written.
func NewCacheUnavailableError(tier string, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   fmt.Sprintf("Verdict cache '%s' unavailable", tier),
		Details:   fmt.Sprint(cause),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewHistoryWriteFailedError reports a check that could not be recorded.
func NewHistoryWriteFailedError(cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeHistoryWriteFailed,
		Message:   "Check history write failed",
		Details:   fmt.Sprint(cause),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewWorkflowEngineError reports a failed call to the workflow broker.
func NewWorkflowEngineError(operation string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeWorkflowEngine,
		Message:   fmt.Sprintf("Workflow engine operation '%s' failed", operation),
		Details:   fmt.Sprint(cause),
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeUnsupportedDegree:      "UNSUPPORTED_DEGREE",
	ErrCodeGatingThreshold:        "GATING_THRESHOLD",
	ErrCodeElementResolution:      "AUTOMATION_FAILED",
	ErrCodeUnexpectedInterstitial: "AUTOMATION_FAILED",
	ErrCodeExtraction:             "AUTOMATION_FAILED",
	ErrCodeNavigationFailed:       "AUTOMATION_FAILED",
	ErrCodeActionFailed:           "AUTOMATION_FAILED",
	ErrCodeSessionStartFailed:     "SESSION_START_FAILED",
	ErrCodeInvalidRequest:         "INVALID_REQUEST",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeElementResolution,
		ErrCodeActionFailed:
		return 3

	case ErrCodeNavigationFailed,
		ErrCodeSessionStartFailed,
		ErrCodeExtraction,
		ErrCodeCacheUnavailable,
		ErrCodeHistoryWriteFailed,
		ErrCodeWorkflowEngine:
		return 2

	case ErrCodeUnexpectedInterstitial:
		return 1 // one dismissal attempt

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// As extracts a StandardError from an error chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether any StandardError in the chain carries code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := As(err)
	return ok && stdErr.Code == code
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// IsFatal reports whether an error ends a live attempt. Definitive outcomes
// (unsupported degree, gating) are not failures of the automation.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	stdErr, ok := As(err)
	if !ok {
		return true
	}
	switch stdErr.Code {
	case ErrCodeUnsupportedDegree, ErrCodeGatingThreshold:
		return false
	default:
		return true
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case code == ErrCodeUnsupportedDegree || code == ErrCodeGatingThreshold:
		return "ADMISSION_POLICY"
	case strings.Contains(codeStr, "ELEMENT") || strings.Contains(codeStr, "INTERSTITIAL") ||
		strings.Contains(codeStr, "ACTION") || strings.Contains(codeStr, "NAVIGATION"):
		return "AUTOMATION"
	case code == ErrCodeExtraction:
		return "EXTRACTION"
	case strings.Contains(codeStr, "SESSION"):
		return "BROWSER"
	case strings.Contains(codeStr, "CACHE") || strings.Contains(codeStr, "HISTORY"):
		return "STORAGE"
	case code == ErrCodeWorkflowEngine:
		return "EXTERNAL_SERVICE"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
