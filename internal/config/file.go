package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/hamed0406/integrationprobe/internal/domain"
	"github.com/hamed0406/integrationprobe/internal/registry"
)

var ErrInvalidWatch = errors.New("invalid watch section")

// File is the optional YAML document named by PROBE_CONFIG.
//
//	integrations:
//	  smpp: {host: smsc.internal}
//	  graph-api:
//	    endpoints:
//	      - {label: Microsoft Graph, url: "https://graph.microsoft.com/v1.0/"}
//	watch:
//	  schedule: "@every 1m"
//	  probes:
//	    - integrationId: smtp
//	      config: {host: relay.internal, port: "587"}
type File struct {
	Integrations map[string]registry.Override `yaml:"integrations"`
	Watch        Watch                        `yaml:"watch"`
}

// Watch lists probes re-run on a cron schedule.
type Watch struct {
	Schedule string                `yaml:"schedule"`
	Probes   []domain.ProbeRequest `yaml:"probes"`
}

// Enabled reports whether there is anything to schedule.
func (w Watch) Enabled() bool { return len(w.Probes) > 0 }

func LoadFile(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(b)
}

func Parse(b []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := f.Watch.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (w *Watch) validate() error {
	if !w.Enabled() {
		return nil
	}
	if strings.TrimSpace(w.Schedule) == "" {
		return fmt.Errorf("%w: schedule is required when probes are listed", ErrInvalidWatch)
	}
	if _, err := cron.ParseStandard(w.Schedule); err != nil {
		return fmt.Errorf("%w: schedule %q: %v", ErrInvalidWatch, w.Schedule, err)
	}
	for i := range w.Probes {
		p := &w.Probes[i]
		if strings.TrimSpace(p.IntegrationID) == "" {
			return fmt.Errorf("%w: probe #%d has no integrationId", ErrInvalidWatch, i+1)
		}
		if p.Config == nil {
			p.Config = map[string]string{}
		}
	}
	return nil
}

// Registry applies the file's overrides to base.
func (f *File) Registry(base *registry.Registry) (*registry.Registry, error) {
	if f == nil || len(f.Integrations) == 0 {
		return base, nil
	}
	return base.WithOverrides(f.Integrations)
}
