package session

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"admission-checker/internal/common/errors"
	"admission-checker/internal/common/logger"
	"admission-checker/internal/fallback"
	"admission-checker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	mu       sync.Mutex
	closes   int
	released chan struct{}
}

func newFakeSession() *fakeSession {
	return &fakeSession{released: make(chan struct{})}
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closes == 0 {
		close(f.released)
	}
	f.closes++
	return nil
}

func (f *fakeSession) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

func openerFor(s *fakeSession) Opener[*fakeSession] {
	return func(ctx context.Context) (*fakeSession, error) { return s, nil }
}

func cacheResolver(t *testing.T, university, contents string) *fallback.Resolver {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, university+"_cache.json"), []byte(contents), 0o644))
	return fallback.NewResolver(fallback.NewFileCache(dir), fallback.NewEstimator(nil), logger.NewTestLogger(t))
}

var bguTarget = Target{
	University: models.BenGurion,
	BaseURL:    "https://www.bgu.ac.il/welcome/ba/calculator/",
	Degree:     "מדעי המחשב",
	Total:      600,
}

func TestWithSession_LiveResultIsCached(t *testing.T) {
	s := newFakeSession()
	cacheDir := t.TempDir()
	cache := fallback.NewFileCache(cacheDir)
	m := NewManager(openerFor(s), fallback.NewResolver(cache, nil, logger.NewNoOpLogger()), logger.NewTestLogger(t))

	out := m.WithSession(context.Background(), bguTarget, func(ctx context.Context, s *fakeSession) (Live, error) {
		return Live{
			Result: models.NewResult(models.VerdictAccepted, bguTarget.BaseURL, "התקבלת לתואר מדעי המחשב"),
			Raw:    "התקבלתי",
		}, nil
	})

	assert.Equal(t, fallback.SourceLive, out.Source)
	assert.Equal(t, models.VerdictAccepted, out.Result.Verdict())
	assert.NoError(t, out.Err)
	assert.Equal(t, 1, s.closeCount())

	v, ok, err := cache.Get(context.Background(), string(models.BenGurion), "מדעי המחשב")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "התקבלתי", v)
}

func TestWithSession_ResolutionFailureUsesCache(t *testing.T) {
	s := newFakeSession()
	m := NewManager(openerFor(s), cacheResolver(t, "ben-gurion", `{"מדעי המחשב": "התקבלתי"}`), logger.NewTestLogger(t))

	attempts := 0
	out := m.WithSession(context.Background(), bguTarget, func(ctx context.Context, s *fakeSession) (Live, error) {
		attempts++
		return Live{}, errors.NewElementResolutionError("add subject", 3, stderrors.New("not found"))
	})

	assert.Equal(t, 1, attempts)
	assert.Equal(t, fallback.SourceCache, out.Source)
	assert.Equal(t, "התקבלתי", out.Raw)
	assert.Equal(t, models.VerdictAccepted, out.Result.Verdict())
	assert.Contains(t, out.Result.Text(), "מטמון")
	assert.True(t, errors.HasCode(out.Err, errors.ErrCodeElementResolution))
	assert.Equal(t, 1, s.closeCount())
}

func TestWithSession_OpenFailureUsesEstimate(t *testing.T) {
	m := NewManager(func(ctx context.Context) (*fakeSession, error) {
		return nil, errors.NewSessionStartFailedError(stderrors.New("chromium missing"))
	}, fallback.NewResolver(nil, fallback.NewEstimator(nil), logger.NewNoOpLogger()), logger.NewTestLogger(t))

	called := false
	out := m.WithSession(context.Background(), Target{University: models.Technion, Degree: "רפואה", Total: 720},
		func(ctx context.Context, s *fakeSession) (Live, error) {
			called = true
			return Live{}, nil
		})

	assert.False(t, called)
	assert.Equal(t, fallback.SourceHeuristic, out.Source)
	assert.Equal(t, models.VerdictAccepted, out.Result.Verdict())
}

func TestWithSession_NoFallbackReportsError(t *testing.T) {
	s := newFakeSession()
	m := NewManager(openerFor(s), nil, logger.NewTestLogger(t))

	out := m.WithSession(context.Background(), bguTarget, func(ctx context.Context, s *fakeSession) (Live, error) {
		return Live{}, errors.NewExtractionError("accepted list", nil)
	})

	assert.Nil(t, out.Result.IsAccepted)
	assert.Contains(t, out.Result.Text(), "שגיאה בבדיקת הקבלה")
	assert.Equal(t, 1, s.closeCount())
}

func TestWithSession_PanicStillReleases(t *testing.T) {
	s := newFakeSession()
	m := NewManager(openerFor(s), nil, logger.NewTestLogger(t))

	out := m.WithSession(context.Background(), bguTarget, func(ctx context.Context, s *fakeSession) (Live, error) {
		var rows []string
		_ = rows[3]
		return Live{}, nil
	})

	require.Error(t, out.Err)
	assert.Contains(t, out.Err.Error(), "panic")
	assert.Equal(t, 1, s.closeCount())
}

func TestWithSession_CancellationReleasesSession(t *testing.T) {
	s := newFakeSession()
	m := NewManager(openerFor(s), cacheResolver(t, "ben-gurion", `{}`), logger.NewTestLogger(t))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	out := m.WithSession(ctx, bguTarget, func(ctx context.Context, s *fakeSession) (Live, error) {
		// a blocked browser call only returns once the session is closed
		<-s.released
		return Live{}, stderrors.New("target closed")
	})

	assert.GreaterOrEqual(t, s.closeCount(), 1)
	require.Error(t, out.Err)
	assert.Equal(t, fallback.SourceHeuristic, out.Source)
	assert.Equal(t, models.VerdictRejected, out.Result.Verdict())
}
