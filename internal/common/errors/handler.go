// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// ErrorHandler reports a failed admission-check job back to the broker:
// retryable automation failures become job failures with a retry budget,
// everything else is thrown as a BPMN error the process can catch.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := normalizeError(err)
	bpmnErr := ConvertToBPMNError(stdErr)
	retries, retry := nextRetries(stdErr, job.Retries)

	h.logger.Error("Admission check job failed", map[string]interface{}{
		"jobKey":          job.Key,
		"jobType":         job.Type,
		"processInstance": job.ProcessInstanceKey,
		"errorCode":       string(stdErr.Code),
		"bpmnErrorCode":   bpmnErr.Code,
		"category":        GetErrorCategory(stdErr.Code),
		"details":         stdErr.Details,
		"retry":           retry,
		"retriesLeft":     retries,
	})

	vars := ""
	if data, err := json.Marshal(bpmnErr.ToErrorVariables()); err == nil {
		vars = string(data)
	}

	if retry {
		cmd := client.NewFailJobCommand().JobKey(job.Key).Retries(retries).ErrorMessage(bpmnErr.Message)
		if vars != "" {
			if withVars, err := cmd.VariablesFromString(vars); err == nil {
				_, _ = withVars.Send(ctx)
				return
			}
		}
		_, _ = cmd.Send(ctx)
		return
	}

	cmd := client.NewThrowErrorCommand().JobKey(job.Key).ErrorCode(bpmnErr.Code).ErrorMessage(bpmnErr.Message)
	if vars != "" {
		if withVars, err := cmd.VariablesFromString(vars); err == nil {
			_, _ = withVars.Send(ctx)
			return
		}
	}
	_, _ = cmd.Send(ctx)
}

// nextRetries decides between failing with a retry budget and throwing.
// remaining is the job's current budget and is never raised.
func nextRetries(stdErr *StandardError, remaining int32) (int32, bool) {
	budget := int32(GetRetryCount(stdErr.Code))
	if !stdErr.Retryable || budget == 0 || remaining <= 0 {
		return 0, false
	}
	if remaining <= budget {
		return remaining - 1, true
	}
	return budget, true
}

func normalizeError(err error) *StandardError {
	if stdErr, ok := As(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}
