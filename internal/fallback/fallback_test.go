package fallback

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"admission-checker/internal/common/config"
	"admission-checker/internal/common/errors"
	"admission-checker/internal/common/logger"
	"admission-checker/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return redis.NewClient(&redis.Options{Addr: mr.Addr()}), mr
}

type stubCache struct {
	values map[string]string
	getErr error
	putErr error
	puts   int
}

func (s *stubCache) Get(ctx context.Context, university, degree string) (string, bool, error) {
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.values[university+"/"+degree]
	return v, ok, nil
}

func (s *stubCache) Put(ctx context.Context, university, degree, verdict string) error {
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	if s.values == nil {
		s.values = map[string]string{}
	}
	s.values[university+"/"+degree] = verdict
	return nil
}

// ==========================
// FileCache
// ==========================

func TestFileCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := NewFileCache(filepath.Join(t.TempDir(), "cache"))

	_, ok, err := cache.Get(ctx, "ben-gurion", "מדעי המחשב")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Put(ctx, "ben-gurion", "מדעי המחשב", "התקבלתי"))
	require.NoError(t, cache.Put(ctx, "ben-gurion", "כלכלה", "לא התקבלתי"))

	v, ok, err := cache.Get(ctx, "ben-gurion", "מדעי המחשב")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "התקבלתי", v)

	_, ok, err = cache.Get(ctx, "technion", "מדעי המחשב")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileCache_ReadsExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ben-gurion_cache.json"),
		[]byte(`{"מדעי המחשב": "התקבלתי"}`), 0o644))

	v, ok, err := NewFileCache(dir).Get(context.Background(), "ben-gurion", "מדעי המחשב")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "התקבלתי", v)
}

func TestFileCache_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "technion_cache.json"), []byte(`{not json`), 0o644))
	cache := NewFileCache(dir)

	_, _, err := cache.Get(context.Background(), "technion", "רפואה")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeCacheUnavailable))

	require.NoError(t, cache.Put(context.Background(), "technion", "רפואה", "קבלה"))
	v, ok, err := cache.Get(context.Background(), "technion", "רפואה")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "קבלה", v)
}

// ==========================
// RedisCache
// ==========================

func TestRedisCache_WithMiniredis(t *testing.T) {
	client, mr := setupRedis(t)
	cache := NewRedisCache(client, "admission:verdict", time.Hour)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "tel-aviv", "כלכלה")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Put(ctx, "tel-aviv", "כלכלה", "קבלה"))
	assert.True(t, mr.Exists("admission:verdict:tel-aviv:כלכלה"))
	assert.Equal(t, time.Hour, mr.TTL("admission:verdict:tel-aviv:כלכלה"))

	v, ok, err := cache.Get(ctx, "tel-aviv", "כלכלה")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "קבלה", v)

	mr.FastForward(2 * time.Hour)
	_, ok, err = cache.Get(ctx, "tel-aviv", "כלכלה")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache_Errors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewRedisCache(client, "admission:verdict", 0)
	ctx := context.Background()

	mock.ExpectGet("admission:verdict:technion:רפואה").SetErr(stderrors.New("connection refused"))
	_, _, err := cache.Get(ctx, "technion", "רפואה")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeCacheUnavailable))

	mock.ExpectSet("admission:verdict:technion:רפואה", "קבלה", 0).SetErr(stderrors.New("READONLY"))
	err = cache.Put(ctx, "technion", "רפואה", "קבלה")
	require.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Tiered
// ==========================

func TestTiered_ReadsInOrderAndWritesAll(t *testing.T) {
	first := &stubCache{}
	second := &stubCache{values: map[string]string{"technion/רפואה": "דחייה"}}
	tiered := NewTiered(logger.NewTestLogger(t), first, nil, second)
	ctx := context.Background()

	v, ok, err := tiered.Get(ctx, "technion", "רפואה")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "דחייה", v)

	require.NoError(t, tiered.Put(ctx, "technion", "כלכלה", "קבלה"))
	assert.Equal(t, 1, first.puts)
	assert.Equal(t, 1, second.puts)
}

func TestTiered_FailingTierIsSkipped(t *testing.T) {
	broken := &stubCache{getErr: stderrors.New("down"), putErr: stderrors.New("down")}
	healthy := &stubCache{values: map[string]string{"tel-aviv/כלכלה": "קבלה"}}
	tiered := NewTiered(logger.NewTestLogger(t), broken, healthy)
	ctx := context.Background()

	v, ok, err := tiered.Get(ctx, "tel-aviv", "כלכלה")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "קבלה", v)

	err = tiered.Put(ctx, "tel-aviv", "משפטים", "דחייה")
	assert.Error(t, err)
	assert.Equal(t, "דחייה", healthy.values["tel-aviv/משפטים"])
}

func TestTiered_AllTiersFail(t *testing.T) {
	tiered := NewTiered(logger.NewNoOpLogger(), &stubCache{getErr: stderrors.New("down")})
	_, _, err := tiered.Get(context.Background(), "tel-aviv", "כלכלה")
	assert.Error(t, err)
}

// ==========================
// Estimator
// ==========================

func TestEstimator(t *testing.T) {
	e := NewEstimator(config.DefaultTiers())

	tests := []struct {
		degree   string
		total    int
		want     models.Verdict
		wantTier string
	}{
		{"רפואה", 720, models.VerdictAccepted, "high"},
		{"רפואה", 699, models.VerdictRejected, "high"},
		{"כלכלה", 640, models.VerdictAccepted, "medium"},
		{"עבודה סוציאלית", 570, models.VerdictRejected, "low"},
		{"ארכיאולוגיה", 550, models.VerdictAccepted, "other"},
		{"רפואה", 0, "", "high"},
	}

	for _, tt := range tests {
		t.Run(tt.degree, func(t *testing.T) {
			got, tier := e.Estimate(tt.degree, tt.total)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantTier, tier)
		})
	}
}

func TestEstimator_CustomTiersKeepOther(t *testing.T) {
	e := NewEstimator(map[string]config.TierSpec{"high": {Cutoff: 750, Degrees: []string{"רפואה"}}})

	assert.Equal(t, 750, e.Cutoff("high"))
	assert.Equal(t, 550, e.Cutoff("other"))
	v, _ := e.Estimate("היסטוריה", 560)
	assert.Equal(t, models.VerdictAccepted, v)
}

// ==========================
// Resolver
// ==========================

func TestResolver_PrefersCache(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ben-gurion_cache.json"),
		[]byte(`{"מדעי המחשב": "התקבלתי"}`), 0o644))
	r := NewResolver(NewFileCache(dir), NewEstimator(nil), logger.NewTestLogger(t))

	out := r.Recover(context.Background(), models.BenGurion, "מדעי המחשב", 500)

	assert.Equal(t, SourceCache, out.Source)
	assert.Equal(t, "התקבלתי", out.Raw)
	assert.Equal(t, models.VerdictAccepted, out.Verdict)
	assert.Contains(t, out.Message, "מטמון")
}

func TestResolver_FallsBackToEstimate(t *testing.T) {
	r := NewResolver(&stubCache{getErr: stderrors.New("down")}, NewEstimator(nil), logger.NewTestLogger(t))

	out := r.Recover(context.Background(), models.Technion, "רפואה", 710)

	assert.Equal(t, SourceHeuristic, out.Source)
	assert.Equal(t, models.VerdictAccepted, out.Verdict)
	assert.Contains(t, out.Message, "הערכה")
	assert.Contains(t, out.Message, "700")
}

func TestResolver_NoTotalNoVerdict(t *testing.T) {
	r := NewResolver(nil, NewEstimator(nil), logger.NewNoOpLogger())
	out := r.Recover(context.Background(), models.Technion, "רפואה", 0)

	assert.Equal(t, models.Verdict(""), out.Verdict)
	assert.NotEmpty(t, out.Message)
}

func TestResolver_Remember(t *testing.T) {
	cache := &stubCache{}
	r := NewResolver(cache, nil, logger.NewNoOpLogger())

	require.NoError(t, r.Remember(context.Background(), models.TelAviv, "כלכלה", "קבלה"))
	require.NoError(t, r.Remember(context.Background(), models.TelAviv, "כלכלה", " "))
	assert.Equal(t, 1, cache.puts)
}

func TestVerdictFromRaw(t *testing.T) {
	assert.Equal(t, models.VerdictAccepted, VerdictFromRaw("התקבלתי"))
	assert.Equal(t, models.VerdictAccepted, VerdictFromRaw("קבלה"))
	assert.Equal(t, models.VerdictRejected, VerdictFromRaw("לא התקבלתי"))
	assert.Equal(t, models.VerdictRejected, VerdictFromRaw("דחייה"))
	assert.Equal(t, models.Verdict(""), VerdictFromRaw("Error checking"))
}
