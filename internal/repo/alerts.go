package repo

import (
	"context"
	"time"
)

// AlertRecord holds last-known reachability and the last time we sent a
// notification for a watch entry. LastSentAt drives the cooldown.
type AlertRecord struct {
	Key        string
	LastState  bool
	LastSentAt *time.Time
}

// AlertStore is implemented by a persistence layer to store alert state.
// Keys are compared after domain.NormalizeID, so "SMTP" and "smtp" share
// one record.
type AlertStore interface {
	// Get returns nil, nil if there's no record yet.
	Get(ctx context.Context, key string) (*AlertRecord, error)
	// Set upserts the record. If sentAt.IsZero() we store NULL for last_sent_at.
	Set(ctx context.Context, key string, lastState bool, sentAt time.Time) error
}
