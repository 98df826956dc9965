//go:build e2e

// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"admission-checker/internal/admission"
	"admission-checker/internal/api"
	"admission-checker/internal/browser"
	"admission-checker/internal/common/config"
	"admission-checker/internal/common/database"
	"admission-checker/internal/common/logger"
	"admission-checker/internal/fallback"
	"admission-checker/internal/models"
	"admission-checker/internal/session"
	"admission-checker/internal/universities/bengurion"
	"admission-checker/internal/universities/hebrewuniversity"
	"admission-checker/internal/universities/technion"
	"admission-checker/internal/universities/telaviv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const liveEnv = "ADMISSION_E2E_LIVE"

type stack struct {
	server *httptest.Server
	driver *browser.Driver
}

// newStack wires the engine the way cmd/admission-server does, with the file
// cache in a temp dir and redis/postgres only when the config enables them.
func newStack(t *testing.T) *stack {
	t.Helper()

	cfg, err := config.Load()
	require.NoError(t, err)
	log := logger.NewTestLogger(t)
	ctx := context.Background()

	tiers := []fallback.Cache{}
	if cfg.Database.Redis.Enabled {
		rc, err := database.NewRedis(ctx, cfg.Database.Redis)
		require.NoError(t, err, "redis connection failed")
		t.Cleanup(func() { _ = rc.Close() })
		tiers = append(tiers, fallback.NewRedisCache(rc.GetClient(), "e2e:"+cfg.Cache.KeyPrefix, time.Hour))
	}
	tiers = append(tiers, fallback.NewFileCache(t.TempDir()))
	resolver := fallback.NewResolver(fallback.NewTiered(log, tiers...), fallback.NewEstimator(cfg.Fallback.Tiers), log)

	driver := browser.NewDriver(cfg.Browser, log)
	t.Cleanup(func() { _ = driver.Stop() })
	manager := session.NewManager[*browser.Session](driver.Open, resolver, log)

	var opts []admission.Option
	var history api.HistoryReader
	if cfg.Database.Postgres.Enabled {
		pg, err := database.NewPostgres(ctx, cfg.Database.Postgres)
		require.NoError(t, err, "postgres connection failed")
		t.Cleanup(func() { _ = pg.Close() })
		store := admission.NewPostgresHistory(pg.GetDB())
		require.NoError(t, store.EnsureSchema(ctx))
		opts = append(opts, admission.WithHistory(store))
		history = store
	}

	engine := admission.NewEngine(manager, log, []admission.Adapter{
		bengurion.NewAdapter(nil, log),
		telaviv.NewAdapter(nil, log),
		hebrewuniversity.NewAdapter(nil, log),
		technion.NewAdapter(nil, log),
	}, opts...)

	srv, err := api.NewServer(api.Options{
		Checker:        engine,
		History:        history,
		RequestTimeout: config.GetDuration(cfg.Server.RequestTimeout),
		Logger:         log,
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &stack{server: ts, driver: driver}
}

func (s *stack) post(t *testing.T, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	client := &http.Client{Timeout: 6 * time.Minute}
	resp, err := client.Post(s.server.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

// Answers decided before any browser session opens.
func TestE2E_Prechecks(t *testing.T) {
	s := newStack(t)

	tests := []struct {
		name        string
		path        string
		body        map[string]interface{}
		wantVerdict interface{}
	}{
		{
			name:        "no degree",
			path:        "/Technion",
			body:        map[string]interface{}{"subject": ""},
			wantVerdict: nil,
		},
		{
			name:        "BGU does not offer law",
			path:        "/BenGurion",
			body:        map[string]interface{}{"subject": "משפטים", "psycho_score": 700},
			wantVerdict: nil,
		},
		{
			name: "HUJI english below four units",
			path: "/HebrewUniversity",
			body: map[string]interface{}{
				"subject":           "כלכלה",
				"highschool_scores": map[string]interface{}{"אנגלית": []int{90, 3}},
				"psycho_score":      700,
			},
			wantVerdict: string(models.VerdictRejected),
		},
		{
			name: "TAU medicine below threshold",
			path: "/TelAviv",
			body: map[string]interface{}{
				"subject":           "רפואה",
				"highschool_scores": map[string]interface{}{"מתמטיקה": []int{90, 5}, "אנגלית": []int{90, 5}},
				"psychometric":      map[string]int{"total": 650, "math": 130, "verbal": 130, "english": 130},
			},
			wantVerdict: string(models.VerdictRejected),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, out := s.post(t, tt.path, tt.body)
			require.Equal(t, http.StatusOK, status)
			assert.Equal(t, tt.wantVerdict, out["isAccepted"])
			assert.NotEmpty(t, out["url"])
		})
	}
}

// Drives the real university sites. Opt in with ADMISSION_E2E_LIVE=1.
func TestE2E_LiveSites(t *testing.T) {
	if os.Getenv(liveEnv) != "1" {
		t.Skipf("set %s=1 to run against the university sites", liveEnv)
	}
	s := newStack(t)
	require.NoError(t, s.driver.Start(), "playwright runtime failed to start")

	scores := map[string]interface{}{}
	scores["מתמטיקה"] = []int{95, 5}
	scores["אנגלית"] = []int{92, 5}
	scores["פיזיקה"] = []int{90, 5}
	scores["היסטוריה"] = []int{85, 2}
	scores["ספרות"] = []int{85, 2}
	scores["תנך"] = []int{80, 2}
	scores["אזרחות"] = []int{90, 2}
	scores["עברית: הבנה, הבעה ולשון"] = []int{88, 2}

	body := map[string]interface{}{
		"subject":           "מדעי המחשב",
		"degrees_to_check":  []string{"מדעי המחשב"},
		"highschool_scores": scores,
		"psychometric":      map[string]int{"total": 720, "math": 150, "verbal": 140, "english": 145},
	}

	for _, path := range []string{"/BenGurion", "/TelAviv", "/HebrewUniversity", "/Technion"} {
		t.Run(path, func(t *testing.T) {
			status, out := s.post(t, path, body)
			require.Equal(t, http.StatusOK, status)
			assert.Contains(t, out, "isAccepted")
			assert.NotEmpty(t, out["url"])
			t.Logf("%s answered %v: %v", path, out["isAccepted"], out["message"])
		})
	}
}
