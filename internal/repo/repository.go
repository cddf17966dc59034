package repo

import (
	"context"

	"github.com/hamed0406/integrationprobe/internal/domain"
)

// DefaultListLimit caps ListByIntegration when the caller passes limit <= 0.
const DefaultListLimit = 50

// HistoryStore is implemented by the memory and postgres adapters.
type HistoryStore interface {
	Append(ctx context.Context, r *domain.ProbeRecord) error
	// Latest returns the newest record per integration id, any source.
	Latest(ctx context.Context) ([]domain.ProbeRecord, error)
	// LatestWatch returns the newest watch-sourced record per watch key.
	LatestWatch(ctx context.Context) ([]domain.ProbeRecord, error)
	// ListByIntegration returns newest-first records for one integration.
	ListByIntegration(ctx context.Context, integrationID string, limit int) ([]domain.ProbeRecord, error)
}
