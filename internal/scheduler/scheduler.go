package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/pong/internal/domain"
	"github.com/hamed0406/pong/internal/probe"
)

// ProbeFactory builds one probe per task; probe.New in production.
type ProbeFactory func(ctx context.Context, task domain.Task, timeout time.Duration) (probe.Probe, error)

type Scheduler struct {
	Logger   *zap.Logger
	Results  chan<- domain.ProbeResult
	NewProbe ProbeFactory

	wg sync.WaitGroup
}

func New(logger *zap.Logger, results chan<- domain.ProbeResult) *Scheduler {
	return &Scheduler{
		Logger:   logger,
		Results:  results,
		NewProbe: probe.New,
	}
}

type job struct {
	task  domain.Task
	probe probe.Probe
}

type group struct {
	id       int
	interval time.Duration
	timeout  time.Duration
	jobs     []job
}

// Start builds every probe up front and, only if all of them construct,
// launches one goroutine per group. Cycles stop when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context, groups []domain.TaskGroup) error {
	built := make([]group, 0, len(groups))
	var errs error
	for i, g := range groups {
		gr := group{id: i, interval: g.Interval, timeout: g.Timeout}
		for _, t := range g.Tasks {
			p, err := s.NewProbe(ctx, t, g.Timeout)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("group %d: %s %s: %w", i, t.Type, t.Target, err))
				continue
			}
			gr.jobs = append(gr.jobs, job{task: t, probe: p})
		}
		built = append(built, gr)
	}
	if errs != nil {
		return errs
	}

	for _, g := range built {
		s.Logger.Info("scheduler_group_started",
			zap.Int("group", g.id),
			zap.Duration("interval", g.interval),
			zap.Duration("timeout", g.timeout),
			zap.Int("tasks", len(g.jobs)),
		)
		s.wg.Add(1)
		go s.run(ctx, g)
	}
	return nil
}

// Wait blocks until every group cycle has returned.
func (s *Scheduler) Wait() { s.wg.Wait() }

func (s *Scheduler) run(ctx context.Context, g group) {
	defer s.wg.Done()
	for s.runOnce(ctx, g) && sleep(ctx, g.interval) {
	}
	s.Logger.Info("scheduler_group_stopped", zap.Int("group", g.id))
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// runOnce executes the group's probes in declared order. It returns
// false once ctx is done.
func (s *Scheduler) runOnce(ctx context.Context, g group) bool {
	for _, j := range g.jobs {
		if ctx.Err() != nil {
			return false
		}
		r := s.exec(ctx, j)
		select {
		case s.Results <- r:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

func (s *Scheduler) exec(ctx context.Context, j job) domain.ProbeResult {
	start := time.Now()
	err := j.probe.Exec(ctx)
	elapsed := time.Since(start).Milliseconds()

	r := domain.ProbeResult{Type: j.task.Type, Target: j.task.Target, Elapsed: elapsed}
	if err != nil {
		r.Elapsed = domain.FailedElapsed
		s.Logger.Warn("probe_failed",
			zap.String("task_type", j.probe.Name()),
			zap.String("target", j.task.Target),
			zap.Int64("after_ms", elapsed),
			zap.Error(err),
		)
		return r
	}
	s.Logger.Debug("probe_ok",
		zap.String("task_type", j.probe.Name()),
		zap.String("target", j.task.Target),
		zap.Int64("elapsed_ms", elapsed),
	)
	return r
}
