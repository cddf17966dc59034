package probe

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// classify maps a dial or transport error to a failure Kind. The first
// terminal event wins: a refusal that arrived before the deadline is a
// refusal even if the deadline has since passed.
func classify(ctx context.Context, err error) Kind {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return KindRefused
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return KindTimeout
	}
	var de *net.DNSError
	if errors.As(err, &de) {
		if de.IsTimeout {
			return KindTimeout
		}
		return KindDNS
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}
	return KindNetwork
}
