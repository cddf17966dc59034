// Package registry holds the table of supported integrations: how each one
// is probed, what it defaults to, and what to tell the operator afterwards.
// A Registry is read-only once built; overrides produce a new Registry.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hamed0406/integrationprobe/internal/probe"
)

var (
	ErrUnknownIntegration = errors.New("unknown integration")
	ErrDuplicate          = errors.New("duplicate integration id")
)

// Tag names a probing strategy.
type Tag string

const (
	TagTCP       Tag = "tcp"
	TagHTTP      Tag = "http"
	TagComposite Tag = "composite"
)

// Strategy is one of TCPStrategy, HTTPStrategy or CompositeStrategy.
type Strategy interface {
	Tag() Tag
	isStrategy()
}

// TCPStrategy dials a host and port. HostKeys are consulted in order; a
// host value carrying its own ":port" wins over PortKey.
type TCPStrategy struct {
	HostKeys    []string
	PortKey     string
	DefaultHost string
	DefaultPort int
}

// HTTPStrategy requests the first non-empty URLKeys value, else DefaultURL.
type HTTPStrategy struct {
	URLKeys    []string
	DefaultURL string
}

// Endpoint is one fixed leg of a composite probe.
type Endpoint struct {
	Label string `json:"label" yaml:"label"`
	URL   string `json:"url" yaml:"url"`
}

// CompositeStrategy probes every endpoint concurrently and merges with Policy.
type CompositeStrategy struct {
	Endpoints []Endpoint
	Policy    probe.MergePolicy
}

func (TCPStrategy) Tag() Tag       { return TagTCP }
func (HTTPStrategy) Tag() Tag      { return TagHTTP }
func (CompositeStrategy) Tag() Tag { return TagComposite }

func (TCPStrategy) isStrategy()       {}
func (HTTPStrategy) isStrategy()      {}
func (CompositeStrategy) isStrategy() {}

// Templates are detail messages keyed by outcome. Placeholders:
// {target} (host:port or URL), {status} (HTTP status code) and {results}
// (per-leg summary of a composite probe).
type Templates struct {
	Success string
	Failure string
}

// Entry describes one supported integration.
type Entry struct {
	ID       string
	Name     string
	Strategy Strategy
	Details  Templates
}

// Render fills a template. Empty placeholders collapse cleanly.
func Render(tmpl, target string, status int, results string) string {
	st := ""
	if status != 0 {
		st = strconv.Itoa(status)
	}
	return strings.NewReplacer(
		"{target}", target,
		"{status}", st,
		"{results}", results,
	).Replace(tmpl)
}

type Registry struct {
	entries map[string]Entry
}

// New builds a registry; ids are matched case-insensitively.
func New(entries ...Entry) (*Registry, error) {
	r := &Registry{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		key := normalizeID(e.ID)
		if key == "" {
			return nil, fmt.Errorf("registry: entry %q has no id", e.Name)
		}
		if e.Strategy == nil {
			return nil, fmt.Errorf("registry: entry %q has no strategy", e.ID)
		}
		if _, dup := r.entries[key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, e.ID)
		}
		r.entries[key] = e
	}
	return r, nil
}

// Lookup finds the entry for id.
func (r *Registry) Lookup(id string) (Entry, bool) {
	e, ok := r.entries[normalizeID(id)]
	return e, ok
}

// Entries returns every entry sorted by id.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
