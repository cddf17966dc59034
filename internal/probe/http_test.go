package probe

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPProber_StatusOK(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("ok"))
	}))
	defer s.Close()

	out := NewHTTPProber().Probe(context.Background(), s.URL, 2*time.Second)
	if !out.Success {
		t.Fatalf("want success, got %+v", out)
	}
	if out.StatusCode != 200 {
		t.Fatalf("want status 200, got %d", out.StatusCode)
	}
	if out.Error != "" {
		t.Fatalf("success must not carry an error, got %q", out.Error)
	}
	if out.LatencyMS == nil || *out.LatencyMS < 0 {
		t.Fatalf("latency should be set and >= 0, got %v", out.LatencyMS)
	}
}

func TestHTTPProber_ClientErrorsCountAsReachable(t *testing.T) {
	for _, code := range []int{400, 401, 403, 404, 405, 499} {
		s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		out := NewHTTPProber().Probe(context.Background(), s.URL, 2*time.Second)
		s.Close()
		if !out.Success {
			t.Fatalf("status %d: want success, got %+v", code, out)
		}
		if out.StatusCode != code {
			t.Fatalf("status %d: recorded %d", code, out.StatusCode)
		}
	}
}

func TestHTTPProber_ServerErrorsFail(t *testing.T) {
	for _, code := range []int{500, 502, 503} {
		s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", code)
		}))
		out := NewHTTPProber().Probe(context.Background(), s.URL, 2*time.Second)
		s.Close()
		if out.Success {
			t.Fatalf("status %d: want failure, got %+v", code, out)
		}
		if out.Kind != KindUpstream {
			t.Fatalf("status %d: want kind upstream, got %q", code, out.Kind)
		}
		if !strings.Contains(out.Details, http.StatusText(code)) {
			t.Fatalf("status %d: details should echo status, got %q", code, out.Details)
		}
	}
}

func TestHTTPProber_RedirectIsNotFollowed(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://127.0.0.1:1/elsewhere", http.StatusFound)
	}))
	defer s.Close()

	out := NewHTTPProber().Probe(context.Background(), s.URL, 2*time.Second)
	if !out.Success || out.StatusCode != http.StatusFound {
		t.Fatalf("want success with 302, got %+v", out)
	}
}

func TestHTTPProber_Timeout(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer s.Close()

	start := time.Now()
	out := NewHTTPProber().Probe(context.Background(), s.URL, 50*time.Millisecond)
	elapsed := time.Since(start)

	if out.Success {
		t.Fatalf("want failure due to timeout, got %+v", out)
	}
	if out.Error != "Request timed out after 50ms" {
		t.Fatalf("unexpected error text %q", out.Error)
	}
	if out.Kind != KindTimeout {
		t.Fatalf("want kind timeout, got %q", out.Kind)
	}
	if out.StatusCode != 0 {
		t.Fatalf("want status 0 on transport error, got %d", out.StatusCode)
	}
	if elapsed > time.Second {
		t.Fatalf("probe overran its deadline: %v", elapsed)
	}
}

func TestHTTPProber_Refused(t *testing.T) {
	addr := closedAddr(t)

	out := NewHTTPProber().Probe(context.Background(), "http://"+addr, 2*time.Second)
	if out.Success {
		t.Fatalf("want failure, got %+v", out)
	}
	if out.Kind != KindRefused {
		t.Fatalf("want kind refused, got %q (%s)", out.Kind, out.Error)
	}
	if out.Error != refusedMessage {
		t.Fatalf("unexpected error text %q", out.Error)
	}
}

func TestHTTPProber_MalformedURL(t *testing.T) {
	out := NewHTTPProber().Probe(context.Background(), "://nope", time.Second)
	if out.Success || out.Error == "" {
		t.Fatalf("want failure with native message, got %+v", out)
	}
	if out.LatencyMS != nil {
		t.Fatalf("no request was sent, latency should be nil")
	}
}

// closedAddr returns a loopback address nothing listens on.
func closedAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}
