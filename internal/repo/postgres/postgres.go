package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/integrationprobe/internal/domain"
	"github.com/hamed0406/integrationprobe/internal/repo"
)

var _ repo.HistoryStore = (*Store)(nil)
var _ repo.AlertStore = (*Store)(nil)

// Schema is applied by EnsureSchema; every statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS probe_history (
  id               BIGSERIAL PRIMARY KEY,
  integration_id   TEXT NOT NULL,
  integration_name TEXT NOT NULL DEFAULT '',
  success          BOOLEAN NOT NULL,
  latency_ms       BIGINT NULL,
  kind             TEXT NOT NULL DEFAULT '',
  status_code      INTEGER NULL,
  error            TEXT NOT NULL DEFAULT '',
  details          TEXT NOT NULL DEFAULT '',
  tested_at        TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_probe_history_integration_time
  ON probe_history (integration_id, tested_at DESC);

ALTER TABLE probe_history ADD COLUMN IF NOT EXISTS source TEXT NOT NULL DEFAULT 'adhoc';
ALTER TABLE probe_history ADD COLUMN IF NOT EXISTS watch_key TEXT NOT NULL DEFAULT '';

CREATE INDEX IF NOT EXISTS idx_probe_history_watch
  ON probe_history (watch_key, tested_at DESC) WHERE source = 'watch';

CREATE TABLE IF NOT EXISTS alerts (
  integration_id TEXT PRIMARY KEY,
  last_state     BOOLEAN NOT NULL,
  last_sent_at   TIMESTAMPTZ NULL
);
`

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	s.log.Info("pg_schema_ready")
	return nil
}

// ---- HistoryStore ----

func (s *Store) Append(ctx context.Context, r *domain.ProbeRecord) error {
	if r.TestedAt.IsZero() {
		r.TestedAt = time.Now().UTC()
	}
	if r.Source == "" {
		r.Source = domain.SourceAdhoc
	}
	var statusPtr *int
	if r.StatusCode != 0 {
		statusPtr = &r.StatusCode
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO probe_history
		   (integration_id, integration_name, source, watch_key, success, latency_ms, kind, status_code, error, details, tested_at)
		 VALUES
		   ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`,
		r.IntegrationID, r.IntegrationName, string(r.Source), r.WatchKey, r.Success, r.LatencyMS, r.Kind, statusPtr, r.Error, r.Details, r.TestedAt,
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("insert probe: %w", err)
	}
	return nil
}

const selectCols = `id, integration_id, integration_name, source, watch_key, success, latency_ms, kind, status_code, error, details, tested_at`

func (s *Store) Latest(ctx context.Context) ([]domain.ProbeRecord, error) {
	rows, err := s.pool.Query(ctx, `
SELECT DISTINCT ON (lower(integration_id)) `+selectCols+`
  FROM probe_history
 ORDER BY lower(integration_id), tested_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("latest: %w", err)
	}
	return collect(rows)
}

func (s *Store) LatestWatch(ctx context.Context) ([]domain.ProbeRecord, error) {
	rows, err := s.pool.Query(ctx, `
SELECT DISTINCT ON (watch_key) `+selectCols+`
  FROM probe_history
 WHERE source = 'watch' AND watch_key <> ''
 ORDER BY watch_key, tested_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("latest watch: %w", err)
	}
	return collect(rows)
}

func (s *Store) ListByIntegration(ctx context.Context, integrationID string, limit int) ([]domain.ProbeRecord, error) {
	if limit <= 0 {
		limit = repo.DefaultListLimit
	}
	rows, err := s.pool.Query(ctx, `
SELECT `+selectCols+`
  FROM probe_history
 WHERE lower(integration_id) = lower($1)
 ORDER BY tested_at DESC, id DESC
 LIMIT $2`, integrationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list probes: %w", err)
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]domain.ProbeRecord, error) {
	defer rows.Close()

	out := []domain.ProbeRecord{}
	for rows.Next() {
		var (
			r       domain.ProbeRecord
			source  string
			latency *int64
			status  *int32
		)
		if err := rows.Scan(&r.ID, &r.IntegrationID, &r.IntegrationName, &source, &r.WatchKey, &r.Success,
			&latency, &r.Kind, &status, &r.Error, &r.Details, &r.TestedAt); err != nil {
			return nil, fmt.Errorf("scan probe: %w", err)
		}
		r.Source = domain.Source(source)
		r.LatencyMS = latency
		if status != nil {
			r.StatusCode = int(*status)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
