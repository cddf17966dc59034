package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hamed0406/integrationprobe/internal/domain"
	"github.com/hamed0406/integrationprobe/internal/repo"
)

// Alert state lives in the alerts table; integration_id holds the normalized
// watch key.
func (s *Store) Get(ctx context.Context, key string) (*repo.AlertRecord, error) {
	const q = `SELECT last_state, last_sent_at FROM alerts WHERE integration_id=$1`
	key = domain.NormalizeID(key)
	r := repo.AlertRecord{Key: key}
	err := s.pool.QueryRow(ctx, q, key).Scan(&r.LastState, &r.LastSentAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

func (s *Store) Set(ctx context.Context, key string, lastState bool, sentAt time.Time) error {
	const q = `
		INSERT INTO alerts (integration_id, last_state, last_sent_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (integration_id)
		DO UPDATE SET last_state=EXCLUDED.last_state, last_sent_at=EXCLUDED.last_sent_at
	`
	var ts *time.Time
	if !sentAt.IsZero() {
		ts = &sentAt
	}
	_, err := s.pool.Exec(ctx, q, domain.NormalizeID(key), lastState, ts)
	return err
}
