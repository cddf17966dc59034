package probe

import (
	"time"
)

const (
	DefaultTCPTimeout  = 5000 * time.Millisecond
	DefaultHTTPTimeout = 8000 * time.Millisecond
)

// Kind classifies why a probe ended the way it did.
type Kind string

const (
	KindNone     Kind = ""
	KindTimeout  Kind = "timeout"
	KindRefused  Kind = "refused"
	KindDNS      Kind = "dns"
	KindNetwork  Kind = "network"
	KindUpstream Kind = "upstream"
	KindNoTarget Kind = "no_target"
)

// Outcome is the unified result of a single probe.
//
// Fields:
//   - LatencyMS: nil when no network attempt was made.
//   - StatusCode: HTTP status code when available; 0 for TCP and transport errors.
//   - Kind: failure class, KindNone on success.
//
// Success implies Error is empty.
type Outcome struct {
	Success    bool
	LatencyMS  *int64
	Error      string
	Details    string
	Kind       Kind
	StatusCode int
}

// Latency returns the measured latency, or 0 when none was recorded.
func (o Outcome) Latency() int64 {
	if o.LatencyMS == nil {
		return 0
	}
	return *o.LatencyMS
}

func elapsedMS(start time.Time) *int64 {
	ms := time.Since(start).Milliseconds()
	if ms < 0 {
		ms = 0
	}
	return &ms
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
