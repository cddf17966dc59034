package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/integrationprobe/internal/domain"
	"github.com/hamed0406/integrationprobe/internal/notify"
	"github.com/hamed0406/integrationprobe/internal/repo/memory"
)

// ---- shared helpers ----

type fakeHistory struct {
	mu   sync.Mutex
	rows []domain.ProbeRecord
}

func (f *fakeHistory) set(rows ...domain.ProbeRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = rows
}

func (f *fakeHistory) Append(context.Context, *domain.ProbeRecord) error { return nil }
func (f *fakeHistory) Latest(context.Context) ([]domain.ProbeRecord, error) {
	return nil, nil
}
func (f *fakeHistory) LatestWatch(context.Context) ([]domain.ProbeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows, nil
}
func (f *fakeHistory) ListByIntegration(context.Context, string, int) ([]domain.ProbeRecord, error) {
	return nil, nil
}

func row(id string, up bool) domain.ProbeRecord {
	lat := int64(40)
	r := domain.ProbeRecord{
		IntegrationID: id,
		Source:        domain.SourceWatch,
		WatchKey:      id + "#0",
		Success:       up,
		LatencyMS:     &lat,
		TestedAt:      time.Now().UTC(),
	}
	if !up {
		r.Error = "Connection timed out after 5000ms"
	}
	return r
}

type memNotifier struct {
	sent []notify.Alert
	err  error
}

func (m *memNotifier) Notify(_ context.Context, a notify.Alert) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, a)
	return nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newAlerter(h *fakeHistory, n *memNotifier, cfg AlerterConfig) (*Alerter, *clock) {
	al := NewAlerter(zap.NewNop(), h, memory.New(), n, cfg)
	c := &clock{t: time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)}
	al.now = c.now
	return al, c
}

// ---- tests ----

func TestAlerter_SendsOnDown_RespectsCooldown(t *testing.T) {
	h := &fakeHistory{}
	h.set(row("smtp", false))
	nt := &memNotifier{}
	al, clk := newAlerter(h, nt, AlerterConfig{AlertOnRecovery: true, Cooldown: time.Minute})
	ctx := context.Background()

	// first scan -> should alert
	if err := al.scanOnce(ctx); err != nil {
		t.Fatal(err)
	}
	if len(nt.sent) != 1 || nt.sent[0].Up || nt.sent[0].Error == "" {
		t.Fatalf("want 1 down alert, got %+v", nt.sent)
	}

	// same DOWN again -> nothing new
	_ = al.scanOnce(ctx)
	if len(nt.sent) != 1 {
		t.Fatalf("repeated state must not alert, got %d", len(nt.sent))
	}

	// flip to UP -> recovery alert bypasses cooldown
	clk.t = clk.t.Add(10 * time.Second)
	h.set(row("smtp", true))
	_ = al.scanOnce(ctx)
	if len(nt.sent) != 2 || !nt.sent[1].Up {
		t.Fatalf("want recovery alert, got %+v", nt.sent)
	}

	// DOWN again within cooldown -> suppressed
	clk.t = clk.t.Add(10 * time.Second)
	h.set(row("smtp", false))
	_ = al.scanOnce(ctx)
	if len(nt.sent) != 2 {
		t.Fatalf("cooldown should suppress, got %d", len(nt.sent))
	}

	// UP then DOWN after cooldown -> alert again
	clk.t = clk.t.Add(2 * time.Minute)
	h.set(row("smtp", true))
	_ = al.scanOnce(ctx)
	clk.t = clk.t.Add(2 * time.Minute)
	h.set(row("smtp", false))
	_ = al.scanOnce(ctx)
	if n := len(nt.sent); n != 4 || nt.sent[3].Up {
		t.Fatalf("want recovery + new down alert, got %d", n)
	}
}

func TestAlerter_FirstReachableIsBaseline(t *testing.T) {
	h := &fakeHistory{}
	h.set(row("ldap", true))
	nt := &memNotifier{}
	al, _ := newAlerter(h, nt, AlerterConfig{AlertOnRecovery: true})

	_ = al.scanOnce(context.Background())
	if len(nt.sent) != 0 {
		t.Fatalf("unexpected alert: %+v", nt.sent)
	}
}

func TestAlerter_NoRecoveryIfDisabled(t *testing.T) {
	h := &fakeHistory{}
	h.set(row("sip", false))
	nt := &memNotifier{}
	al, clk := newAlerter(h, nt, AlerterConfig{AlertOnRecovery: false})

	_ = al.scanOnce(context.Background())
	clk.t = clk.t.Add(time.Minute)
	h.set(row("sip", true))
	_ = al.scanOnce(context.Background())
	if len(nt.sent) != 1 {
		t.Fatalf("want only the down alert, got %d", len(nt.sent))
	}
}

func TestAlerter_RetriesWhenNotifierFails(t *testing.T) {
	h := &fakeHistory{}
	h.set(row("rcs", false))
	nt := &memNotifier{err: errors.New("webhook down")}
	al, _ := newAlerter(h, nt, AlerterConfig{})

	_ = al.scanOnce(context.Background())
	nt.err = nil
	_ = al.scanOnce(context.Background())
	if len(nt.sent) != 1 {
		t.Fatalf("want alert on retry, got %d", len(nt.sent))
	}
}

func TestAlerter_RunStopsOnCancel(t *testing.T) {
	h := &fakeHistory{}
	al, _ := newAlerter(h, &memNotifier{}, AlerterConfig{PollInterval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- al.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestAlerter_StateKeyIgnoresCase(t *testing.T) {
	h := &fakeHistory{}
	nt := &memNotifier{}
	store := memory.New()
	al := NewAlerter(zap.NewNop(), h, store, nt, AlerterConfig{AlertOnRecovery: true})

	// state written under a differently cased key
	if err := store.Set(context.Background(), "SMTP#0", false, time.Time{}); err != nil {
		t.Fatal(err)
	}
	h.set(row("smtp", false))
	_ = al.scanOnce(context.Background())
	if len(nt.sent) != 0 {
		t.Fatalf("known DOWN state must not alert again, got %+v", nt.sent)
	}
}
