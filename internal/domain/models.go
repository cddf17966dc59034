package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// ProbeRequest is the inbound body of a connectivity test.
type ProbeRequest struct {
	IntegrationID   string            `json:"integrationId" yaml:"integrationId"`
	IntegrationName string            `json:"integrationName" yaml:"integrationName"`
	Config          map[string]string `json:"config" yaml:"config"`
}

// Valid reports whether the required fields are present. An empty config
// object is present; a missing one is not. A blank id is missing.
func (r ProbeRequest) Valid() bool {
	return strings.TrimSpace(r.IntegrationID) != "" && r.Config != nil
}

// WatchKey identifies one watchlist entry: the normalized integration id plus
// a digest of its config, so entries sharing an id but targeting different
// hosts stay apart. Config values never appear in the key.
func (r ProbeRequest) WatchKey() string {
	keys := make([]string, 0, len(r.Config))
	for k := range r.Config {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(r.Config[k]))
		h.Write([]byte{0})
	}
	return NormalizeID(r.IntegrationID) + "#" + hex.EncodeToString(h.Sum(nil))[:12]
}

// NormalizeID is the canonical form of an integration id used for grouping
// history and keying alert state.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Source says what triggered a probe.
type Source string

const (
	SourceAdhoc Source = "adhoc" // POST /api/integrations/test, CLI
	SourceWatch Source = "watch" // scheduled watchlist pass
)

// ProbeResult is what the caller gets back for every completed probe,
// successful or not.
type ProbeResult struct {
	Success     bool      `json:"success"`
	Latency     *int64    `json:"latency,omitempty"` // ms
	Error       string    `json:"error,omitempty"`
	Details     string    `json:"details,omitempty"`
	TestedAt    time.Time `json:"tested_at"`
	Integration string    `json:"integration"`
}

// ProbeRecord is one row of probe history. WatchKey is set only for
// watch-sourced rows.
type ProbeRecord struct {
	ID              int64     `json:"id"`
	IntegrationID   string    `json:"integration_id"`
	IntegrationName string    `json:"integration_name"`
	Source          Source    `json:"source"`
	WatchKey        string    `json:"watch_key,omitempty"`
	Success         bool      `json:"success"`
	LatencyMS       *int64    `json:"latency_ms"` // pointer to allow nil
	Kind            string    `json:"kind,omitempty"`
	StatusCode      int       `json:"status_code,omitempty"`
	Error           string    `json:"error,omitempty"`
	Details         string    `json:"details,omitempty"`
	TestedAt        time.Time `json:"tested_at"`
}
