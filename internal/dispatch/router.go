package dispatch

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/integrationprobe/internal/domain"
	"github.com/hamed0406/integrationprobe/internal/probe"
	"github.com/hamed0406/integrationprobe/internal/registry"
	"github.com/hamed0406/integrationprobe/internal/repo"
)

const noTargetMessage = "No host or URL configured to test against."

// TCPProber is satisfied by *probe.TCPProber.
type TCPProber interface {
	Probe(ctx context.Context, host string, port int, timeout time.Duration) probe.Outcome
}

// HTTPProber is satisfied by *probe.HTTPProber.
type HTTPProber interface {
	Probe(ctx context.Context, target string, timeout time.Duration) probe.Outcome
}

// Templates for integrations the registry does not know.
var (
	genericHTTP = registry.Templates{Success: "Endpoint reachable at {target} (HTTP {status})"}
	genericTCP  = registry.Templates{Success: "Port open at {target}"}
)

// genericURLKeys are checked first, in this order, when guessing a URL for an
// unknown integration. Remaining keys follow in sorted order.
var genericURLKeys = []string{"base_url", "url", "endpoint", "host"}

type Router struct {
	Logger      *zap.Logger
	Registry    *registry.Registry
	TCP         TCPProber
	HTTP        HTTPProber
	TCPTimeout  time.Duration
	HTTPTimeout time.Duration
	History     repo.HistoryStore // optional
	Now         func() time.Time
}

func NewRouter(logger *zap.Logger, reg *registry.Registry, tcp TCPProber, http HTTPProber) *Router {
	return &Router{
		Logger:      logger,
		Registry:    reg,
		TCP:         tcp,
		HTTP:        http,
		TCPTimeout:  probe.DefaultTCPTimeout,
		HTTPTimeout: probe.DefaultHTTPTimeout,
		Now:         time.Now,
	}
}

// Dispatch runs one ad-hoc probe cycle for req and returns the caller-facing
// result. When a history store is configured the outcome is appended to it;
// storage failures are logged and never change the result.
func (r *Router) Dispatch(ctx context.Context, req domain.ProbeRequest) domain.ProbeResult {
	return r.dispatch(ctx, req, domain.SourceAdhoc, "")
}

// DispatchWatch is Dispatch for a watchlist entry. The history row carries
// the watch source and req.WatchKey(), which is what the alerter reads.
func (r *Router) DispatchWatch(ctx context.Context, req domain.ProbeRequest) domain.ProbeResult {
	return r.dispatch(ctx, req, domain.SourceWatch, req.WatchKey())
}

func (r *Router) dispatch(ctx context.Context, req domain.ProbeRequest, src domain.Source, watchKey string) domain.ProbeResult {
	out, strategy := r.Probe(ctx, req)
	res := Normalize(req.IntegrationName, out, r.now())

	r.Logger.Info("probe_completed",
		zap.String("integration_id", req.IntegrationID),
		zap.String("source", string(src)),
		zap.String("strategy", string(strategy)),
		zap.Bool("success", out.Success),
		zap.Int64("latency_ms", out.Latency()),
		zap.String("kind", string(out.Kind)),
		zap.Int("status", out.StatusCode),
	)

	if r.History != nil {
		rec := &domain.ProbeRecord{
			IntegrationID:   req.IntegrationID,
			IntegrationName: req.IntegrationName,
			Source:          src,
			WatchKey:        watchKey,
			Success:         res.Success,
			LatencyMS:       res.Latency,
			Kind:            string(out.Kind),
			StatusCode:      out.StatusCode,
			Error:           res.Error,
			Details:         res.Details,
			TestedAt:        res.TestedAt,
		}
		if err := r.History.Append(ctx, rec); err != nil {
			r.Logger.Warn("history_append_error",
				zap.String("integration_id", req.IntegrationID),
				zap.Error(err),
			)
		}
	}
	return res
}

// Probe resolves req to a strategy and runs it. The returned tag is
// "generic" for unknown integrations.
func (r *Router) Probe(ctx context.Context, req domain.ProbeRequest) (probe.Outcome, registry.Tag) {
	cfg := req.Config
	entry, ok := r.Registry.Lookup(req.IntegrationID)
	if !ok {
		return r.generic(ctx, cfg), "generic"
	}

	switch s := entry.Strategy.(type) {
	case registry.TCPStrategy:
		return r.runTCP(ctx, entry.Details, s, cfg), s.Tag()
	case registry.HTTPStrategy:
		return r.runHTTP(ctx, entry.Details, s, cfg), s.Tag()
	case registry.CompositeStrategy:
		return r.runComposite(ctx, entry.Details, s), s.Tag()
	default:
		return probe.Outcome{Error: fmt.Sprintf("unsupported strategy %T", s), Kind: probe.KindNoTarget}, ""
	}
}

func (r *Router) runTCP(ctx context.Context, tmpl registry.Templates, s registry.TCPStrategy, cfg map[string]string) probe.Outcome {
	host := firstValue(cfg, s.HostKeys)
	if host == "" {
		host = s.DefaultHost
	}
	port := s.DefaultPort
	if v := strings.TrimSpace(cfg[s.PortKey]); v != "" {
		p, ok := parsePort(v)
		if !ok {
			return invalidPort(v)
		}
		port = p
	}

	host, port = splitHostPort(host, port)
	if host == "" || port == 0 {
		return noTarget()
	}
	return r.tcp(ctx, tmpl, host, port)
}

func (r *Router) runHTTP(ctx context.Context, tmpl registry.Templates, s registry.HTTPStrategy, cfg map[string]string) probe.Outcome {
	target := firstValue(cfg, s.URLKeys)
	if target == "" {
		target = s.DefaultURL
	}
	if target == "" {
		return noTarget()
	}
	return r.http(ctx, tmpl, normalizeURL(target))
}

func (r *Router) runComposite(ctx context.Context, tmpl registry.Templates, s registry.CompositeStrategy) probe.Outcome {
	tasks := make([]probe.Task, 0, len(s.Endpoints))
	for _, ep := range s.Endpoints {
		target := normalizeURL(ep.URL)
		tasks = append(tasks, probe.Task{
			Label: ep.Label,
			Run: func(ctx context.Context) probe.Outcome {
				return r.HTTP.Probe(ctx, target, r.HTTPTimeout)
			},
		})
	}
	if len(tasks) == 0 {
		return noTarget()
	}

	out := probe.FanOut(ctx, tasks, s.Policy)
	if out.Success && tmpl.Success != "" {
		out.Details = registry.Render(tmpl.Success, "", 0, out.Details)
	}
	return out
}

// generic handles integrations missing from the registry: a URL-looking
// value wins, then host+port, else nothing is attempted.
func (r *Router) generic(ctx context.Context, cfg map[string]string) probe.Outcome {
	for _, k := range genericKeyOrder(cfg) {
		if v := strings.TrimSpace(cfg[k]); looksLikeURL(v) {
			return r.http(ctx, genericHTTP, v)
		}
	}

	host := strings.TrimSpace(cfg["host"])
	rawPort := strings.TrimSpace(cfg["port"])
	if host == "" || rawPort == "" {
		return noTarget()
	}
	port, ok := parsePort(rawPort)
	if !ok {
		return invalidPort(rawPort)
	}
	return r.tcp(ctx, genericTCP, host, port)
}

func (r *Router) tcp(ctx context.Context, tmpl registry.Templates, host string, port int) probe.Outcome {
	target := net.JoinHostPort(host, strconv.Itoa(port))
	out := r.TCP.Probe(ctx, host, port, r.TCPTimeout)
	return decorate(out, tmpl, target)
}

func (r *Router) http(ctx context.Context, tmpl registry.Templates, target string) probe.Outcome {
	out := r.HTTP.Probe(ctx, target, r.HTTPTimeout)
	return decorate(out, tmpl, target)
}

func decorate(out probe.Outcome, tmpl registry.Templates, target string) probe.Outcome {
	switch {
	case out.Success:
		out.Details = registry.Render(tmpl.Success, target, out.StatusCode, "")
	case out.Details == "" && tmpl.Failure != "":
		out.Details = registry.Render(tmpl.Failure, target, out.StatusCode, "")
	}
	return out
}

func (r *Router) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func noTarget() probe.Outcome {
	return probe.Outcome{Error: noTargetMessage, Kind: probe.KindNoTarget}
}

func invalidPort(v string) probe.Outcome {
	return probe.Outcome{Error: fmt.Sprintf("Invalid port %q", v), Kind: probe.KindNoTarget}
}

func firstValue(cfg map[string]string, keys []string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(cfg[k]); v != "" {
			return v
		}
	}
	return ""
}

func genericKeyOrder(cfg map[string]string) []string {
	keys := make([]string, 0, len(cfg))
	seen := make(map[string]bool, len(genericURLKeys))
	for _, k := range genericURLKeys {
		seen[k] = true
		if _, ok := cfg[k]; ok {
			keys = append(keys, k)
		}
	}
	rest := make([]string, 0, len(cfg))
	for k := range cfg {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func looksLikeURL(v string) bool {
	l := strings.ToLower(v)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// normalizeURL maps WebSocket schemes onto their HTTP equivalents and adds
// https:// to bare hosts.
func normalizeURL(raw string) string {
	l := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(l, "wss://"):
		return "https://" + raw[len("wss://"):]
	case strings.HasPrefix(l, "ws://"):
		return "http://" + raw[len("ws://"):]
	case !strings.Contains(raw, "://"):
		return "https://" + raw
	}
	return raw
}

// splitHostPort lets a host value carry its own port ("proxy:5080",
// "[::1]:5060", "sip://proxy:5080"). Otherwise port is kept.
func splitHostPort(host string, port int) (string, int) {
	if strings.Contains(host, "://") {
		if u, err := url.Parse(host); err == nil && u.Hostname() != "" {
			if p, ok := parsePort(u.Port()); ok {
				return u.Hostname(), p
			}
			return u.Hostname(), port
		}
	}
	if h, p, err := net.SplitHostPort(host); err == nil {
		if n, ok := parsePort(p); ok {
			return h, n
		}
	}
	return host, port
}

func parsePort(v string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 || n > 65535 {
		return 0, false
	}
	return n, true
}
