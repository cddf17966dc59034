// cmd/preflight/main.go
package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/hamed0406/integrationprobe/internal/config"
	"github.com/hamed0406/integrationprobe/internal/registry"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg := config.FromEnv()

	// Normalize and sanity-check lists (no spaces around commas).
	for _, name := range []string{"ADMIN_API_KEYS", "PUBLIC_API_KEYS", "ALLOWED_ORIGINS"} {
		if strings.Contains(os.Getenv(name), " ") {
			warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}

	switch {
	case len(cfg.AdminAPIKeys) == 0 && len(cfg.PublicAPIKeys) == 0:
		warn("no API keys set — every /api route is open.")
	case len(cfg.AdminAPIKeys) == 0:
		warn("ADMIN_API_KEYS is empty — POST /api/watch/run is open to public keys.")
	default:
		ok(fmt.Sprintf("API keys: %d public, %d admin", len(cfg.PublicAPIKeys), len(cfg.AdminAPIKeys)))
	}

	ok("API_ADDR=" + cfg.Addr)
	ok(fmt.Sprintf("timeouts: tcp=%v http=%v", cfg.TCPTimeout, cfg.HTTPTimeout))

	if cfg.DatabaseURL == "" {
		warn("DATABASE_URL empty — probe history and alert state live in memory only.")
	} else if u, err := url.Parse(cfg.DatabaseURL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		fail("DATABASE_URL is not a postgres:// URL.")
	} else {
		ok("DATABASE_URL present")
	}

	if len(cfg.AllowedOrigins) == 0 {
		warn("ALLOWED_ORIGINS empty — CORS allows any origin.")
	} else {
		ok("ALLOWED_ORIGINS=" + strings.Join(cfg.AllowedOrigins, ","))
	}

	if cfg.SlackWebhookURL == "" {
		warn("SLACK_WEBHOOK_URL empty — alerts go to the log only.")
	} else if u, err := url.Parse(cfg.SlackWebhookURL); err != nil || u.Scheme != "https" {
		fail("SLACK_WEBHOOK_URL must be an https URL.")
	} else {
		ok("Slack alerts enabled")
	}

	if cfg.ProbeConfigPath == "" {
		ok("PROBE_CONFIG unset — builtin defaults, no watchlist")
	} else {
		f, err := config.LoadFile(cfg.ProbeConfigPath)
		if err != nil {
			fail("PROBE_CONFIG: " + err.Error())
		}
		if _, err := f.Registry(registry.Default()); err != nil {
			fail("PROBE_CONFIG: " + err.Error())
		}
		ok(fmt.Sprintf("PROBE_CONFIG: %d overrides, %d watched probes", len(f.Integrations), len(f.Watch.Probes)))
	}

	ok("preflight passed")
}
