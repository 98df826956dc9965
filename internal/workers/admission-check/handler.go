// internal/workers/admission-check/handler.go
package admissioncheck

import (
	"context"
	"encoding/json"
	"fmt"

	"admission-checker/internal/admission"
	"admission-checker/internal/common/camunda"
	"admission-checker/internal/common/config"
	"admission-checker/internal/common/errors"
	"admission-checker/internal/common/logger"
	"admission-checker/internal/common/metrics"
	"admission-checker/internal/common/validation"
	"admission-checker/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

const taskTypePrefix = "admission-check-"

// TaskType is the job type served for one university.
func TaskType(university models.UniversityID) string {
	return taskTypePrefix + string(university)
}

// Checker runs one admission check. *admission.Engine implements it.
type Checker interface {
	Check(ctx context.Context, id models.UniversityID, requestID string, req models.AdmissionRequest) (admission.Report, error)
}

type Handler struct {
	config     *Config
	logger     logger.Logger
	checker    Checker
	errHandler *errors.ErrorHandler
	university models.UniversityID
	taskType   string
}

type HandlerOptions struct {
	AppConfig    *config.Config
	Checker      Checker
	University   models.UniversityID
	CustomConfig *Config
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	if opts.Checker == nil {
		return nil, fmt.Errorf("admission-check worker requires a checker")
	}
	if opts.University == "" {
		return nil, fmt.Errorf("admission-check worker requires a university")
	}

	taskType := TaskType(opts.University)
	workerConfig := createConfigFromAppConfig(opts.AppConfig, taskType, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", taskType, err)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{
		"worker":               taskType,
		logger.FieldUniversity: string(opts.University),
	})

	return &Handler{
		config:     workerConfig,
		logger:     log,
		checker:    opts.Checker,
		errHandler: errors.NewErrorHandler(log),
		university: opts.University,
		taskType:   taskType,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing admission check job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

// Execute runs the check for an already parsed job.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	report, err := h.checker.Check(ctx, h.university, input.RequestID, input.Request)
	if err != nil {
		return nil, err
	}
	return &Output{
		RequestID:  report.RequestID,
		University: string(report.University),
		Degree:     report.Degree,
		Result:     report.Result,
		Source:     string(report.Source),
		DurationMs: report.Duration.Milliseconds(),
	}, nil
}

type jobMeta struct {
	RequestID string `json:"requestId"`
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	raw := []byte(job.GetVariables())
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	validator, err := validation.AdmissionRequest()
	if err != nil {
		return nil, err
	}
	if result := validator.ValidateJSON(raw); !result.Valid {
		return nil, errors.NewInvalidRequestError(fmt.Sprintf("Validation errors: %v", result.GetErrorMessages()))
	}

	var input Input
	if err := json.Unmarshal(raw, &input.Request); err != nil {
		return nil, errors.NewInvalidRequestError(err.Error())
	}
	var meta jobMeta
	if err := json.Unmarshal(raw, &meta); err == nil {
		input.RequestID = meta.RequestID
	}
	return &input, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromMap(output.Variables())
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	if _, err := request.Send(ctx); err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(h.taskType).Inc()
	h.logger.Info("Admission check job completed", map[string]interface{}{
		"jobKey":              job.GetKey(),
		logger.FieldRequestID: output.RequestID,
		"verdict":             string(output.Result.Verdict()),
		"source":              output.Source,
	})
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(h.taskType, errorCode(err)).Inc()
	h.errHandler.HandleJobError(ctx, client, job, err)
}

// Register opens the job worker, or returns nil when the worker is disabled.
func (h *Handler) Register(client zbc.Client) *camunda.CamundaWorker {
	if !h.config.Enabled {
		h.logger.Info("Worker is disabled, skipping registration", nil)
		return nil
	}
	return camunda.NewWorker(client, h.taskType, h.config.WorkerConfig(), h, h.logger)
}

func (h *Handler) GetTaskType() string {
	return h.taskType
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}

func errorCode(err error) string {
	if stdErr, ok := errors.As(err); ok {
		return string(stdErr.Code)
	}
	return string(errors.ErrCodeInternal)
}
