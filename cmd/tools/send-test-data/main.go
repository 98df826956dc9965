// cmd/tools/send-test-data/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"admission-checker/internal/common/config"
	commonhttp "admission-checker/internal/common/http"
	"admission-checker/internal/common/logger"
	"admission-checker/internal/common/retry"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// target is one university route under test.
type target struct {
	Key  string
	Name string
	Path string
	Port int
}

// defaultTargets mirrors the per-university listener ports.
func defaultTargets() []target {
	return []target{
		{Key: config.UniversityBenGurion, Name: "Ben-Gurion University", Path: "/BenGurion", Port: 3001},
		{Key: config.UniversityHebrew, Name: "Hebrew University", Path: "/HebrewUniversity", Port: 3002},
		{Key: config.UniversityTechnion, Name: "Technion University", Path: "/Technion", Port: 3003},
		{Key: config.UniversityTelAviv, Name: "Tel Aviv University", Path: "/TelAviv", Port: 3004},
	}
}

// failure is one request that did not answer 2xx.
type failure struct {
	Input        json.RawMessage `json:"input"`
	StatusCode   int             `json:"statusCode,omitempty"`
	ErrorMessage string          `json:"errorMessage"`
}

func main() {
	dataPath := flag.String("data", "testData.json", "JSON array of request bodies")
	host := flag.String("host", "http://127.0.0.1", "Scheme and host of the admission server")
	outDir := flag.String("out", ".", "Directory for the per-university result files")
	only := flag.String("university", "", "Test a single university key (e.g. tel-aviv)")
	useConfig := flag.Bool("config", true, "Read listener ports from configs/config.yaml")
	timeout := flag.Duration("timeout", 5*time.Minute, "Per-request timeout")
	flag.Parse()

	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	entries, err := loadEntries(*dataPath)
	if err != nil {
		zapLog.Fatal("failed to load test data", zap.Error(err))
	}

	targets := defaultTargets()
	if *useConfig {
		if cfg, err := config.Load(); err == nil {
			targets = applyPorts(targets, cfg.Server.UniversityPorts)
		} else {
			zapLog.Warn("config not loaded, using default ports", zap.Error(err))
		}
	}

	client := commonhttp.NewClient(*timeout).WithRetry(retry.Policy{
		Attempts:  2,
		BaseDelay: time.Second,
	})

	g, ctx := errgroup.WithContext(context.Background())
	for _, t := range targets {
		if *only != "" && t.Key != *only {
			continue
		}
		g.Go(func() error {
			endpoint := fmt.Sprintf("%s:%d%s", *host, t.Port, t.Path)
			zapLog.Info("Testing university", zap.String("university", t.Name), zap.String("endpoint", endpoint))

			failures := runTarget(ctx, client, endpoint, entries)
			path := filepath.Join(*outDir, t.Name+"TestResults.json")
			if err := writeFailures(path, failures); err != nil {
				return fmt.Errorf("%s: %w", t.Name, err)
			}

			if len(failures) > 0 {
				zapLog.Warn("failures logged", zap.String("university", t.Name), zap.Int("failures", len(failures)), zap.String("file", path))
			} else {
				zapLog.Info("All tests passed!", zap.String("university", t.Name))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		zapLog.Fatal("test run failed", zap.Error(err))
	}
}

func loadEntries(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return entries, nil
}

func applyPorts(targets []target, ports map[string]int) []target {
	out := make([]target, len(targets))
	copy(out, targets)
	for i, t := range out {
		if port, ok := ports[t.Key]; ok && port > 0 {
			out[i].Port = port
		}
	}
	return out
}

// runTarget posts every entry in order; one university's requests never overlap.
func runTarget(ctx context.Context, client *commonhttp.Client, endpoint string, entries []json.RawMessage) []failure {
	failures := []failure{}
	for _, entry := range entries {
		resp, err := client.PostJSON(ctx, endpoint, entry)
		if err != nil {
			failures = append(failures, failure{Input: entry, ErrorMessage: err.Error()})
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			failures = append(failures, failure{
				Input:        entry,
				StatusCode:   resp.StatusCode,
				ErrorMessage: errorMessage(resp.Body),
			})
		}
	}
	return failures
}

func errorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return string(body)
}

// writeFailures always writes the file, [] when everything passed.
func writeFailures(path string, failures []failure) error {
	data, err := json.MarshalIndent(failures, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
