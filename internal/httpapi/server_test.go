package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDecodeProbeRequest_StringifiesScalars(t *testing.T) {
	body := `{"integrationId":"smpp","integrationName":"SMSC","config":{"host":"smsc","port":2775,"tls":true,"ratio":1.5,"skip":null,"tags":["a"]}}`
	req, err := decodeProbeRequest(strings.NewReader(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]string{"host": "smsc", "port": "2775", "tls": "true", "ratio": "1.5", "tags": `["a"]`}
	if len(req.Config) != len(want) {
		t.Fatalf("got %v", req.Config)
	}
	for k, v := range want {
		if req.Config[k] != v {
			t.Fatalf("config[%s]=%q want %q", k, req.Config[k], v)
		}
	}
	if !req.Valid() {
		t.Fatalf("want valid request")
	}
}

func TestDecodeProbeRequest_MissingConfigStaysNil(t *testing.T) {
	req, err := decodeProbeRequest(strings.NewReader(`{"integrationId":"smtp"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.Config != nil || req.Valid() {
		t.Fatalf("want nil config and invalid request, got %+v", req)
	}
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	h := corsHandler([]string{"https://ops.example"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/integrations", nil)
	req.Header.Set("Origin", "https://ops.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://ops.example" {
		t.Fatalf("allowed origin not echoed: %v", rec.Header())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/integrations", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("foreign origin must not be allowed")
	}
}
