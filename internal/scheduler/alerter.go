package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/integrationprobe/internal/notify"
	"github.com/hamed0406/integrationprobe/internal/repo"
)

type AlerterConfig struct {
	AlertOnRecovery bool
	Cooldown        time.Duration // minimum gap between DOWN alerts
	PollInterval    time.Duration
}

// Alerter watches the newest scheduled result per watch entry and notifies on
// reachable/unreachable transitions. Ad-hoc tests never reach it.
type Alerter struct {
	log      *zap.Logger
	history  repo.HistoryStore
	alertDB  repo.AlertStore
	notifier notify.Notifier
	cfg      AlerterConfig
	now      func() time.Time
}

func NewAlerter(log *zap.Logger, history repo.HistoryStore, alertDB repo.AlertStore, n notify.Notifier, cfg AlerterConfig) *Alerter {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	return &Alerter{
		log:      log,
		history:  history,
		alertDB:  alertDB,
		notifier: n,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (a *Alerter) Run(ctx context.Context) error {
	t := time.NewTicker(a.cfg.PollInterval)
	defer t.Stop()

	// initial pass
	a.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			a.scan(ctx)
		}
	}
}

func (a *Alerter) scan(ctx context.Context) {
	if err := a.scanOnce(ctx); err != nil {
		a.log.Warn("alerter_scan_error", zap.Error(err))
	}
}

func (a *Alerter) scanOnce(ctx context.Context) error {
	rows, err := a.history.LatestWatch(ctx)
	if err != nil {
		return err
	}
	now := a.now()

	for _, r := range rows {
		key := r.WatchKey
		rec, err := a.alertDB.Get(ctx, key)
		if err != nil {
			a.log.Warn("alert_state_read_error", zap.String("watch_key", key), zap.Error(err))
			continue
		}

		// First sighting of a reachable entry is the baseline.
		if rec == nil && r.Success {
			a.set(ctx, key, true, time.Time{})
			continue
		}
		if rec != nil && rec.LastState == r.Success {
			continue
		}

		// Cooldown only suppresses repeated DOWN alerts.
		cooled := rec == nil || rec.LastSentAt == nil || now.Sub(*rec.LastSentAt) >= a.cfg.Cooldown
		send := (!r.Success && cooled) || (r.Success && a.cfg.AlertOnRecovery)
		if !send {
			var prev time.Time
			if rec != nil && rec.LastSentAt != nil {
				prev = *rec.LastSentAt
			}
			a.set(ctx, key, r.Success, prev)
			continue
		}

		alert := notify.Alert{
			IntegrationID: r.IntegrationID,
			Name:          r.IntegrationName,
			Up:            r.Success,
			Error:         r.Error,
			Details:       r.Details,
			LatencyMS:     r.LatencyMS,
			At:            r.TestedAt,
		}
		if err := a.notifier.Notify(ctx, alert); err != nil {
			// state stays unchanged so the next scan retries
			a.log.Warn("alert_send_error", zap.String("watch_key", key), zap.Error(err))
			continue
		}
		a.log.Info("alert_sent",
			zap.String("integration_id", r.IntegrationID),
			zap.String("watch_key", key),
			zap.Bool("up", r.Success),
		)
		a.set(ctx, key, r.Success, now)
	}
	return nil
}

func (a *Alerter) set(ctx context.Context, key string, up bool, sentAt time.Time) {
	if err := a.alertDB.Set(ctx, key, up, sentAt); err != nil {
		a.log.Warn("alert_state_write_error", zap.String("watch_key", key), zap.Error(err))
	}
}
