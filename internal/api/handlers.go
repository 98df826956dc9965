// internal/api/handlers.go
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"admission-checker/internal/admission"
	"admission-checker/internal/common/logger"
	"admission-checker/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const requestIDHeader = "X-Request-ID"

func (s *Server) handleCheck(id models.UniversityID) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		log := logger.ForCheck(s.log, string(id), requestID)

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, fmt.Errorf("read body: %w", err))
			return
		}

		if result := s.validator.ValidateJSON(body); !result.Valid {
			log.Warn("request rejected by schema", map[string]interface{}{
				"errors": result.GetErrorMessages(),
			})
			writeError(w, fmt.Errorf("invalid request: %s", strings.Join(result.GetErrorMessages(), "; ")))
			return
		}

		var req models.AdmissionRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, fmt.Errorf("invalid request: %w", err))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()

		report, err := s.checker.Check(ctx, id, requestID, req)
		if err != nil {
			log.Error("admission check failed", map[string]interface{}{"error": err.Error()})
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report.Result)
	}
}

type historyView struct {
	RequestID  string  `json:"requestId"`
	University string  `json:"university"`
	Degree     string  `json:"degree"`
	Verdict    *string `json:"isAccepted"`
	Message    *string `json:"message"`
	Source     string  `json:"source"`
	DurationMs int64   `json:"durationMs"`
	CreatedAt  string  `json:"createdAt"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "check history is disabled"})
		return
	}

	university := mux.Vars(r)["university"]
	if id, ok := Routes["/"+university]; ok {
		university = string(id)
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := s.history.Recent(r.Context(), university, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]historyView, 0, len(entries))
	for _, e := range entries {
		out = append(out, toHistoryView(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func toHistoryView(e admission.HistoryEntry) historyView {
	v := historyView{
		RequestID:  e.RequestID,
		University: e.University,
		Degree:     e.Degree,
		Source:     e.Source,
		DurationMs: e.DurationMs,
		CreatedAt:  e.CreatedAt.UTC().Format(time.RFC3339),
	}
	if e.Verdict.Valid {
		v.Verdict = &e.Verdict.String
	}
	if e.Message.Valid {
		v.Message = &e.Message.String
	}
	return v
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	failed := make(map[string]string)
	for name, check := range s.ready {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "not ready",
			"failed": failed,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers 500 with {"error": ...}, the only failure shape the routes use.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
