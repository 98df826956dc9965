// internal/admission/history.go
package admission

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"admission-checker/internal/common/errors"
)

// HistoryStore persists finished checks.
type HistoryStore interface {
	Record(ctx context.Context, r Report) error
}

// HistoryEntry is one stored check.
type HistoryEntry struct {
	RequestID  string
	University string
	Degree     string
	Verdict    sql.NullString
	Source     string
	Message    sql.NullString
	DurationMs int64
	CreatedAt  time.Time
}

// PostgresHistory stores checks in the admission_checks table.
type PostgresHistory struct {
	db *sql.DB
}

func NewPostgresHistory(db *sql.DB) *PostgresHistory {
	return &PostgresHistory{db: db}
}

// EnsureSchema creates the history table when it is missing.
func (h *PostgresHistory) EnsureSchema(ctx context.Context) error {
	_, err := h.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS admission_checks (
			request_id  TEXT PRIMARY KEY,
			university  TEXT NOT NULL,
			degree      TEXT NOT NULL,
			verdict     TEXT,
			source      TEXT NOT NULL,
			message     TEXT,
			error       TEXT,
			duration_ms BIGINT NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return errors.NewHistoryWriteFailedError(fmt.Errorf("create schema: %w", err))
	}
	return nil
}

func (h *PostgresHistory) Record(ctx context.Context, r Report) error {
	var failure sql.NullString
	if r.Err != nil {
		failure = sql.NullString{String: r.Err.Error(), Valid: true}
	}

	_, err := h.db.ExecContext(ctx, `
		INSERT INTO admission_checks (
			request_id, university, degree, verdict, source,
			message, error, duration_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.RequestID,
		string(r.University),
		r.Degree,
		nullable(string(r.Result.Verdict())),
		string(r.Source),
		nullable(r.Result.Text()),
		failure,
		r.Duration.Milliseconds(),
		time.Now().UTC(),
	)
	if err != nil {
		return errors.NewHistoryWriteFailedError(err)
	}
	return nil
}

// Recent returns the latest checks for a university, newest first.
func (h *PostgresHistory) Recent(ctx context.Context, university string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := h.db.QueryContext(ctx, `
		SELECT request_id, university, degree, verdict, source, message, duration_ms, created_at
		FROM admission_checks
		WHERE university = $1
		ORDER BY created_at DESC
		LIMIT $2`, university, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.RequestID, &e.University, &e.Degree, &e.Verdict, &e.Source,
			&e.Message, &e.DurationMs, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
