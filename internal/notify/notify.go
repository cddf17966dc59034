// Package notify delivers reachability change alerts.
package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Alert describes a reachability transition of one integration.
type Alert struct {
	IntegrationID string
	Name          string
	Up            bool
	Error         string
	Details       string
	LatencyMS     *int64
	At            time.Time
}

// Title is a one-line summary, e.g. "DOWN: smtp".
func (a Alert) Title() string {
	state := "DOWN"
	if a.Up {
		state = "RECOVERED"
	}
	label := a.IntegrationID
	if a.Name != "" && a.Name != a.IntegrationID {
		label = fmt.Sprintf("%s (%s)", a.Name, a.IntegrationID)
	}
	return state + ": " + label
}

// Text is the alert body.
func (a Alert) Text() string {
	s := ""
	if a.Error != "" {
		s += "Error: " + a.Error + "\n"
	}
	if a.Details != "" {
		s += a.Details + "\n"
	}
	if a.LatencyMS != nil {
		s += fmt.Sprintf("Latency: %dms\n", *a.LatencyMS)
	}
	return s + "Tested at " + a.At.UTC().Format(time.RFC3339)
}

type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

// Multi sends to every notifier and returns the combined errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, a Alert) error {
	var err error
	for _, n := range m {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Notify(ctx, a))
	}
	return err
}

// Log writes alerts to the service log; used when no webhook is set.
type Log struct {
	Logger *zap.Logger
}

func (l Log) Notify(_ context.Context, a Alert) error {
	l.Logger.Warn("integration_alert",
		zap.String("integration_id", a.IntegrationID),
		zap.Bool("up", a.Up),
		zap.String("error", a.Error),
		zap.Time("tested_at", a.At),
	)
	return nil
}
