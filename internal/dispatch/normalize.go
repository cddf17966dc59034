package dispatch

import (
	"time"

	"github.com/hamed0406/integrationprobe/internal/domain"
	"github.com/hamed0406/integrationprobe/internal/probe"
)

// Normalize turns a prober outcome into the result sent to the caller. It
// only adds tested_at and the echoed integration name.
func Normalize(integrationName string, out probe.Outcome, now time.Time) domain.ProbeResult {
	res := domain.ProbeResult{
		Success:     out.Success,
		Error:       out.Error,
		Details:     out.Details,
		TestedAt:    now.UTC(),
		Integration: integrationName,
	}
	if out.LatencyMS != nil {
		v := *out.LatencyMS
		res.Latency = &v
	}
	if res.Success {
		res.Error = ""
	}
	return res
}
