package probe

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MergePolicy decides how sub-probe outcomes combine into one.
type MergePolicy int

const (
	// MergeAny succeeds when at least one sub-probe succeeds.
	MergeAny MergePolicy = iota
	// MergeAll succeeds only when every sub-probe succeeds.
	MergeAll
)

// Task is one leg of a fan-out.
type Task struct {
	Label string
	Run   func(ctx context.Context) Outcome
}

// FanOut runs every task concurrently, waits for all of them and merges the
// results. Latency is that of the slowest leg.
func FanOut(ctx context.Context, tasks []Task, policy MergePolicy) Outcome {
	results := make([]Outcome, len(tasks))

	var wg sync.WaitGroup
	for i, t := range tasks {
		wg.Add(1)
		go func(idx int, t Task) {
			defer wg.Done()
			results[idx] = t.Run(ctx)
		}(i, t)
	}
	wg.Wait()

	return merge(tasks, results, policy)
}

func merge(tasks []Task, results []Outcome, policy MergePolicy) Outcome {
	var (
		out     Outcome
		ok      int
		maxLat  int64
		hasLat  bool
		lines   = make([]string, 0, len(results))
		failure Kind
	)

	for i, r := range results {
		if r.LatencyMS != nil {
			if !hasLat || *r.LatencyMS > maxLat {
				maxLat = *r.LatencyMS
			}
			hasLat = true
		}
		if r.Success {
			ok++
		} else if failure == KindNone {
			failure = r.Kind
		}
		lines = append(lines, summarize(tasks[i].Label, r))
	}

	if hasLat {
		out.LatencyMS = &maxLat
	}
	out.Details = strings.Join(lines, " | ")

	switch policy {
	case MergeAll:
		out.Success = len(results) > 0 && ok == len(results)
		if !out.Success {
			out.Error = fmt.Sprintf("%d of %d endpoints unreachable", len(results)-ok, len(results))
		}
	default:
		out.Success = ok > 0
		if !out.Success {
			out.Error = fmt.Sprintf("None of the %d endpoints were reachable", len(results))
		}
	}
	if !out.Success {
		out.Kind = failure
	}
	return out
}

func summarize(label string, r Outcome) string {
	if r.Success {
		if r.StatusCode != 0 {
			return fmt.Sprintf("✓ %s (HTTP %d, %dms)", label, r.StatusCode, r.Latency())
		}
		return fmt.Sprintf("✓ %s (%dms)", label, r.Latency())
	}
	reason := r.Error
	if reason == "" {
		reason = r.Details
	}
	return fmt.Sprintf("✗ %s: %s", label, reason)
}
