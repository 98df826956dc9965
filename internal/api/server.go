// internal/api/server.go
package api

import (
	"context"
	"time"

	"admission-checker/internal/admission"
	"admission-checker/internal/common/logger"
	"admission-checker/internal/common/validation"
	"admission-checker/internal/models"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20

// Routes maps each public path to its university.
var Routes = map[string]models.UniversityID{
	"/BenGurion":        models.BenGurion,
	"/TelAviv":          models.TelAviv,
	"/HebrewUniversity": models.HebrewUniversity,
	"/Technion":         models.Technion,
}

// Checker runs one admission check. *admission.Engine implements it.
type Checker interface {
	Check(ctx context.Context, id models.UniversityID, requestID string, req models.AdmissionRequest) (admission.Report, error)
}

// HistoryReader serves /history. *admission.PostgresHistory implements it.
type HistoryReader interface {
	Recent(ctx context.Context, university string, limit int) ([]admission.HistoryEntry, error)
}

// ReadyCheck reports whether one dependency can serve traffic.
type ReadyCheck func(ctx context.Context) error

type Server struct {
	checker   Checker
	history   HistoryReader
	ready     map[string]ReadyCheck
	validator *validation.Validator
	timeout   time.Duration
	log       logger.Logger
}

// Options configures a Server. History is optional; /history answers 503 without it.
type Options struct {
	Checker        Checker
	History        HistoryReader
	ReadyChecks    map[string]ReadyCheck
	RequestTimeout time.Duration
	Logger         logger.Logger
}

func NewServer(opts Options) (*Server, error) {
	validator, err := validation.AdmissionRequest()
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Server{
		checker:   opts.Checker,
		history:   opts.History,
		ready:     opts.ReadyChecks,
		validator: validator,
		timeout:   timeout,
		log:       log,
	}, nil
}

// Router serves every university plus the operational endpoints.
func (s *Server) Router() *mux.Router {
	r := s.base()
	for path, id := range Routes {
		r.HandleFunc(path, s.handleCheck(id)).Methods("POST")
	}
	r.HandleFunc("/history/{university}", s.handleHistory).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	return r
}

// UniversityRouter serves a single university, for its dedicated listener.
func (s *Server) UniversityRouter(id models.UniversityID) *mux.Router {
	r := s.base()
	for path, routed := range Routes {
		if routed == id {
			r.HandleFunc(path, s.handleCheck(id)).Methods("POST")
		}
	}
	return r
}

func (s *Server) base() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.recoverer, s.requestLogger)
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/ready", s.handleReady).Methods("GET")
	return r
}
