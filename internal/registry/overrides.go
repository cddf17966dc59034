package registry

import "fmt"

// Override replaces the compiled-in defaults of one entry. Zero fields keep
// the builtin value.
type Override struct {
	Host      string     `yaml:"host"`
	Port      int        `yaml:"port"`
	URL       string     `yaml:"url"`
	Endpoints []Endpoint `yaml:"endpoints"`
}

// WithOverrides returns a copy of r with per-id defaults replaced. The
// receiver is left untouched.
func (r *Registry) WithOverrides(overrides map[string]Override) (*Registry, error) {
	out := &Registry{entries: make(map[string]Entry, len(r.entries))}
	for k, e := range r.entries {
		out.entries[k] = e
	}

	for id, ov := range overrides {
		key := normalizeID(id)
		e, ok := out.entries[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownIntegration, id)
		}
		s, err := applyOverride(e.Strategy, ov)
		if err != nil {
			return nil, fmt.Errorf("override %s: %w", id, err)
		}
		e.Strategy = s
		out.entries[key] = e
	}
	return out, nil
}

func applyOverride(s Strategy, ov Override) (Strategy, error) {
	switch st := s.(type) {
	case TCPStrategy:
		if ov.URL != "" || len(ov.Endpoints) > 0 {
			return nil, fmt.Errorf("tcp strategy takes host/port, not url")
		}
		if ov.Host != "" {
			st.DefaultHost = ov.Host
		}
		if ov.Port < 0 || ov.Port > 65535 {
			return nil, fmt.Errorf("port %d out of range", ov.Port)
		}
		if ov.Port != 0 {
			st.DefaultPort = ov.Port
		}
		return st, nil
	case HTTPStrategy:
		if ov.Host != "" || ov.Port != 0 || len(ov.Endpoints) > 0 {
			return nil, fmt.Errorf("http strategy takes url only")
		}
		if ov.URL != "" {
			st.DefaultURL = ov.URL
		}
		return st, nil
	case CompositeStrategy:
		if ov.Host != "" || ov.Port != 0 || ov.URL != "" {
			return nil, fmt.Errorf("composite strategy takes endpoints only")
		}
		if len(ov.Endpoints) > 0 {
			eps := make([]Endpoint, len(ov.Endpoints))
			copy(eps, ov.Endpoints)
			st.Endpoints = eps
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unsupported strategy %T", s)
	}
}
