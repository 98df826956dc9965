package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"admission-checker/internal/common/config"
	commonhttp "admission-checker/internal/common/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunTarget(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)

		w.Header().Set("Content-Type", "application/json")
		if body["subject"] == "boom" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"engine exploded"}`))
			return
		}
		_, _ = w.Write([]byte(`{"isAccepted":"קבלה","url":"u","message":null}`))
	}))
	defer srv.Close()

	entries := []json.RawMessage{
		json.RawMessage(`{"subject":"רפואה"}`),
		json.RawMessage(`{"subject":"boom"}`),
		json.RawMessage(`{"subject":"כלכלה"}`),
	}

	failures := runTarget(context.Background(), commonhttp.NewClient(5*time.Second), srv.URL+"/TelAviv", entries)

	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
	require.Len(t, failures, 1)
	assert.Equal(t, http.StatusInternalServerError, failures[0].StatusCode)
	assert.Equal(t, "engine exploded", failures[0].ErrorMessage)
	assert.JSONEq(t, `{"subject":"boom"}`, string(failures[0].Input))
}

func TestRunTarget_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	failures := runTarget(context.Background(), commonhttp.NewClient(time.Second), url+"/Technion",
		[]json.RawMessage{json.RawMessage(`{}`)})
	require.Len(t, failures, 1)
	assert.Zero(t, failures[0].StatusCode)
	assert.NotEmpty(t, failures[0].ErrorMessage)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "bad", errorMessage([]byte(`{"error":"bad"}`)))
	assert.Equal(t, "<html>oops</html>", errorMessage([]byte(`<html>oops</html>`)))
}

func TestApplyPorts(t *testing.T) {
	targets := applyPorts(defaultTargets(), map[string]int{config.UniversityTelAviv: 9004})

	for _, tt := range targets {
		if tt.Key == config.UniversityTelAviv {
			assert.Equal(t, 9004, tt.Port)
		}
		if tt.Key == config.UniversityBenGurion {
			assert.Equal(t, 3001, tt.Port)
		}
	}
	assert.Equal(t, 3004, defaultTargets()[3].Port)
}

func TestLoadAndWrite(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "testData.json")
	require.NoError(t, os.WriteFile(dataPath, []byte(`[{"subject":"רפואה"},{"subject":"משפטים"}]`), 0o644))

	entries, err := loadEntries(dataPath)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	out := filepath.Join(dir, "Tel Aviv UniversityTestResults.json")
	require.NoError(t, writeFailures(out, []failure{}))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(data)))

	_, err = loadEntries(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
