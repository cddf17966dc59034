package probe

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const refusedMessage = "Connection refused — host reachable but port rejected"

// HTTPProber issues one bodyless GET per probe. Any status below 500 counts
// as reachable, including 401 and 404.
type HTTPProber struct {
	Client *http.Client
}

func NewHTTPProber() *HTTPProber {
	return &HTTPProber{
		Client: &http.Client{
			// a redirect already proves the endpoint speaks HTTP
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Probe requests target with a deadline of timeout (DefaultHTTPTimeout when
// <= 0). The response body is closed unread.
func (p *HTTPProber) Probe(ctx context.Context, target string, timeout time.Duration) Outcome {
	timeout = orDefault(timeout, DefaultHTTPTimeout)
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Outcome{Success: false, Error: err.Error(), Kind: KindNetwork}
	}

	resp, err := p.Client.Do(req)
	latency := elapsedMS(start)
	if err != nil {
		kind := classify(ctx, err)
		msg := err.Error()
		switch kind {
		case KindTimeout:
			msg = fmt.Sprintf("Request timed out after %dms", timeout.Milliseconds())
		case KindRefused:
			msg = refusedMessage
		}
		return Outcome{Success: false, LatencyMS: latency, Error: msg, Kind: kind}
	}
	_ = resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return Outcome{
			Success:    false,
			LatencyMS:  latency,
			Details:    fmt.Sprintf("Server responded with HTTP %s", resp.Status),
			Kind:       KindUpstream,
			StatusCode: resp.StatusCode,
		}
	}
	return Outcome{Success: true, LatencyMS: latency, StatusCode: resp.StatusCode}
}
