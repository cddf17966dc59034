package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hamed0406/integrationprobe/internal/domain"
	"github.com/hamed0406/integrationprobe/internal/repo"
)

// maxRecords bounds history kept in memory; the oldest rows are dropped.
const maxRecords = 10_000

type Store struct {
	mu      sync.RWMutex
	nextID  int64
	records []domain.ProbeRecord
	alerts  map[string]repo.AlertRecord
}

func New() *Store {
	return &Store{
		records: make([]domain.ProbeRecord, 0, 128),
		alerts:  make(map[string]repo.AlertRecord),
	}
}

// ---- HistoryStore ----

func (m *Store) Append(ctx context.Context, r *domain.ProbeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r.ID = m.nextID
	if r.TestedAt.IsZero() {
		r.TestedAt = time.Now().UTC()
	}
	if r.Source == "" {
		r.Source = domain.SourceAdhoc
	}
	m.records = append(m.records, *r)
	if len(m.records) > maxRecords {
		m.records = m.records[len(m.records)-maxRecords:]
	}
	return nil
}

func (m *Store) Latest(ctx context.Context) ([]domain.ProbeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	latest := make(map[string]domain.ProbeRecord)
	for _, r := range m.records {
		key := domain.NormalizeID(r.IntegrationID)
		cur, ok := latest[key]
		if !ok || !r.TestedAt.Before(cur.TestedAt) {
			latest[key] = r
		}
	}

	out := make([]domain.ProbeRecord, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IntegrationID < out[j].IntegrationID })
	return out, nil
}

func (m *Store) LatestWatch(ctx context.Context) ([]domain.ProbeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	latest := make(map[string]domain.ProbeRecord)
	for _, r := range m.records {
		if r.Source != domain.SourceWatch || r.WatchKey == "" {
			continue
		}
		cur, ok := latest[r.WatchKey]
		if !ok || !r.TestedAt.Before(cur.TestedAt) {
			latest[r.WatchKey] = r
		}
	}

	out := make([]domain.ProbeRecord, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WatchKey < out[j].WatchKey })
	return out, nil
}

func (m *Store) ListByIntegration(ctx context.Context, integrationID string, limit int) ([]domain.ProbeRecord, error) {
	if limit <= 0 {
		limit = repo.DefaultListLimit
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.ProbeRecord, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		if strings.EqualFold(m.records[i].IntegrationID, integrationID) {
			out = append(out, m.records[i])
		}
	}
	return out, nil
}

// ---- AlertStore ----

func (m *Store) Get(ctx context.Context, key string) (*repo.AlertRecord, error) {
	key = domain.NormalizeID(key)
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.alerts[key]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *Store) Set(ctx context.Context, key string, lastState bool, sentAt time.Time) error {
	key = domain.NormalizeID(key)
	m.mu.Lock()
	defer m.mu.Unlock()
	var ts *time.Time
	if !sentAt.IsZero() {
		ts = &sentAt
	}
	m.alerts[key] = repo.AlertRecord{Key: key, LastState: lastState, LastSentAt: ts}
	return nil
}
