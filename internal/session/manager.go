// internal/session/manager.go
package session

import (
	"context"
	"fmt"
	"io"

	"admission-checker/internal/common/errors"
	"admission-checker/internal/common/logger"
	"admission-checker/internal/common/metrics"
	"admission-checker/internal/fallback"
	"admission-checker/internal/models"
)

// Opener starts one session resource. Close on the returned value must be
// safe to call more than once.
type Opener[S io.Closer] func(ctx context.Context) (S, error)

// Live is what a successful run produced.
type Live struct {
	Result models.AdmissionResult
	// Raw is the verdict string remembered for degraded runs; empty skips the cache.
	Raw string
}

// Outcome is the final answer for one check.
type Outcome struct {
	Result models.AdmissionResult
	Source fallback.Source
	Raw    string
	// Err is the live failure that caused a degraded answer, if any.
	Err error
}

// Target identifies what a run checks, for the fallback path.
type Target struct {
	University models.UniversityID
	BaseURL    string
	Degree     string
	Total      int
}

// Manager runs checks against exactly one session each and always releases it.
type Manager[S io.Closer] struct {
	open     Opener[S]
	fallback *fallback.Resolver
	log      logger.Logger
}

// NewManager accepts a nil resolver; failures are then reported without a verdict.
func NewManager[S io.Closer](open Opener[S], resolver *fallback.Resolver, log logger.Logger) *Manager[S] {
	return &Manager[S]{open: open, fallback: resolver, log: log}
}

// WithSession opens a session, runs fn on it and closes it on every exit path,
// including cancellation of ctx while fn is still running. A failed run is
// answered from the fallback resolver.
func (m *Manager[S]) WithSession(ctx context.Context, target Target, fn func(ctx context.Context, s S) (Live, error)) Outcome {
	log := m.log.WithFields(map[string]interface{}{
		logger.FieldUniversity: string(target.University),
		logger.FieldDegree:     target.Degree,
	})

	s, err := m.open(ctx)
	if err != nil {
		log.Error("failed to open browser session", map[string]interface{}{"error": err.Error()})
		return m.degrade(ctx, target, err, log)
	}

	live, err := m.run(ctx, s, fn, log)
	if err != nil {
		log.Warn("live check failed", map[string]interface{}{"error": err.Error()})
		return m.degrade(ctx, target, err, log)
	}

	if m.fallback != nil && live.Raw != "" {
		if err := m.fallback.Remember(ctx, target.University, target.Degree, live.Raw); err != nil {
			log.Warn("failed to store verdict in cache", map[string]interface{}{"error": err.Error()})
		}
	}
	return Outcome{Result: live.Result, Source: fallback.SourceLive, Raw: live.Raw}
}

type runResult struct {
	live Live
	err  error
}

func (m *Manager[S]) run(ctx context.Context, s S, fn func(ctx context.Context, s S) (Live, error), log logger.Logger) (Live, error) {
	done := make(chan runResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- runResult{err: fmt.Errorf("panic in wizard: %v", r)}
			}
		}()
		live, err := fn(ctx, s)
		done <- runResult{live: live, err: err}
	}()

	var res runResult
	select {
	case res = <-done:
	case <-ctx.Done():
		// closing unblocks any browser call fn is waiting on
		m.release(s, log)
		res = <-done
		if res.err == nil {
			res.err = ctx.Err()
		}
	}
	m.release(s, log)
	return res.live, res.err
}

func (m *Manager[S]) release(s S, log logger.Logger) {
	if err := s.Close(); err != nil {
		log.Warn("failed to close browser session", map[string]interface{}{"error": err.Error()})
	}
}

func (m *Manager[S]) degrade(ctx context.Context, target Target, cause error, log logger.Logger) Outcome {
	if m.fallback == nil {
		return Outcome{
			Result: models.NewResult("", target.BaseURL, "שגיאה בבדיקת הקבלה: "+describe(cause)),
			Source: fallback.SourceLive,
			Err:    cause,
		}
	}

	// the fallback may still answer after the request deadline passed
	out := m.fallback.Recover(context.WithoutCancel(ctx), target.University, target.Degree, target.Total)
	metrics.FallbacksTotal.WithLabelValues(string(target.University), string(out.Source)).Inc()
	log.Info("answered in degraded mode", map[string]interface{}{
		"source":  string(out.Source),
		"verdict": string(out.Verdict),
	})
	return Outcome{
		Result: models.NewResult(out.Verdict, target.BaseURL, out.Message),
		Source: out.Source,
		Raw:    out.Raw,
		Err:    cause,
	}
}

func describe(err error) string {
	if stdErr, ok := errors.As(err); ok {
		return stdErr.Message
	}
	return err.Error()
}
