package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// DialFunc matches (*net.Dialer).DialContext.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// TCPProber opens a raw TCP connection and closes it straight away.
type TCPProber struct {
	Dial DialFunc
}

func NewTCPProber() *TCPProber {
	var d net.Dialer
	return &TCPProber{Dial: d.DialContext}
}

type dialResult struct {
	conn net.Conn
	err  error
}

// Probe dials host:port and reports whichever of connect, deadline or OS
// error happens first. A timeout <= 0 means DefaultTCPTimeout.
//
// The connection, if one is ever established, is closed exactly once: right
// away when the dial wins, or by the drain goroutine when the deadline wins.
func (p *TCPProber) Probe(ctx context.Context, host string, port int, timeout time.Duration) Outcome {
	timeout = orDefault(timeout, DefaultTCPTimeout)
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan dialResult, 1)
	go func() {
		conn, err := p.Dial(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		done <- dialResult{conn: conn, err: err}
	}()

	select {
	case r := <-done:
		latency := elapsedMS(start)
		if r.err != nil {
			return p.failure(ctx, r.err, timeout, latency)
		}
		_ = r.conn.Close()
		return Outcome{Success: true, LatencyMS: latency}

	case <-ctx.Done():
		latency := elapsedMS(start)
		go func() {
			if r := <-done; r.conn != nil {
				_ = r.conn.Close()
			}
		}()
		return p.failure(ctx, ctx.Err(), timeout, latency)
	}
}

func (p *TCPProber) failure(ctx context.Context, err error, timeout time.Duration, latency *int64) Outcome {
	kind := classify(ctx, err)
	msg := err.Error()
	if kind == KindTimeout {
		msg = fmt.Sprintf("Connection timed out after %dms", timeout.Milliseconds())
	} else if errors.Is(err, context.Canceled) {
		msg = "Connection attempt cancelled"
	}
	return Outcome{Success: false, LatencyMS: latency, Error: msg, Kind: kind}
}
