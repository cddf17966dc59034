package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/hamed0406/integrationprobe/internal/domain"
)

// Dispatcher is satisfied by *dispatch.Router, which also appends every
// result to history tagged with the watch entry it came from.
type Dispatcher interface {
	DispatchWatch(ctx context.Context, req domain.ProbeRequest) domain.ProbeResult
}

// Rechecker re-runs the watchlist on a cron schedule. Probes of one pass
// share a bounded worker pool; a pass never overlaps another.
type Rechecker struct {
	Logger  *zap.Logger
	Router  Dispatcher
	Probes  []domain.ProbeRequest
	spec    string
	pool    *ants.Pool
	running sync.Mutex // held for the length of a pass, scheduled or manual
}

// NewRechecker accepts standard 5-field cron specs and descriptors such as
// "@every 1m".
func NewRechecker(logger *zap.Logger, router Dispatcher, probes []domain.ProbeRequest, spec string, concurrency int) (*Rechecker, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	if concurrency < 1 {
		concurrency = 1
	}
	pool, err := ants.NewPool(concurrency)
	if err != nil {
		return nil, fmt.Errorf("worker pool: %w", err)
	}
	return &Rechecker{
		Logger: logger,
		Router: router,
		Probes: probes,
		spec:   spec,
		pool:   pool,
	}, nil
}

// Run does an immediate pass, then hands the schedule to a cron runner until
// ctx is cancelled. Activations that fire while a pass is still running are
// skipped. The worker pool is released on return.
func (r *Rechecker) Run(ctx context.Context) error {
	defer r.pool.Release()

	cl := cronLogger{r.Logger.Sugar()}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(r.spec, func() { r.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule %q: %w", r.spec, err)
	}

	r.Logger.Info("rechecker_started", zap.Int("probes", len(r.Probes)), zap.String("schedule", r.spec))
	r.RunOnce(ctx)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	r.Logger.Info("rechecker_stopped")
	return nil
}

// RunOnce probes every watchlist entry and waits for all of them. It returns
// the number of probes run, 0 when another pass is still in progress. The
// admin endpoint calls it directly, so it shares the guard with the cron job.
func (r *Rechecker) RunOnce(ctx context.Context) int {
	if !r.running.TryLock() {
		r.Logger.Info("rechecker_busy")
		return 0
	}
	defer r.running.Unlock()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
		down int
	)
	start := time.Now()
	for _, p := range r.Probes {
		req := p
		wg.Add(1)
		err := r.pool.Submit(func() {
			defer wg.Done()
			res := r.Router.DispatchWatch(ctx, req)

			mu.Lock()
			done++
			if !res.Success {
				down++
			}
			mu.Unlock()

			r.Logger.Debug("rechecker_checked",
				zap.String("integration_id", req.IntegrationID),
				zap.Bool("success", res.Success),
				zap.String("error", res.Error),
			)
		})
		if err != nil {
			wg.Done()
			r.Logger.Warn("rechecker_submit_error",
				zap.String("integration_id", req.IntegrationID),
				zap.Error(err),
			)
		}
	}
	wg.Wait()

	r.Logger.Info("rechecker_pass",
		zap.Int("probed", done),
		zap.Int("unreachable", down),
		zap.Duration("took", time.Since(start)),
	)
	return done
}

// cronLogger routes cron's own logging through zap. Routine scheduler chatter
// goes to debug.
type cronLogger struct{ s *zap.SugaredLogger }

func (l cronLogger) Info(msg string, kv ...interface{}) {
	l.s.Debugw("cron_"+msg, kv...)
}

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.s.Errorw("cron_"+msg, append(kv, "error", err)...)
}
