package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/pong/internal/domain"
	"github.com/hamed0406/pong/internal/probe"
)

// --- fakes ---

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(target string) {
	r.mu.Lock()
	r.calls = append(r.calls, target)
	r.mu.Unlock()
}

func (r *recorder) count(target string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c == target {
			n++
		}
	}
	return n
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type fakeProbe struct {
	target string
	rec    *recorder
	err    error
	delay  time.Duration
}

func (f *fakeProbe) Name() string   { return "FAKE" }
func (f *fakeProbe) Target() string { return f.target }
func (f *fakeProbe) Exec(ctx context.Context) error {
	f.rec.add(f.target)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.err
}

func fakeFactory(rec *recorder, failing map[string]error) ProbeFactory {
	return func(_ context.Context, task domain.Task, _ time.Duration) (probe.Probe, error) {
		if strings.HasPrefix(task.Target, "bad") {
			return nil, probe.ErrResolution
		}
		return &fakeProbe{target: task.Target, rec: rec, err: failing[task.Target]}, nil
	}
}

func drain(ctx context.Context, ch <-chan domain.ProbeResult, out *[]domain.ProbeResult, mu *sync.Mutex) {
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-ch:
			mu.Lock()
			*out = append(*out, r)
			mu.Unlock()
		}
	}
}

// --- tests ---

func TestScheduler_GroupsRunAtOwnCadence(t *testing.T) {
	rec := &recorder{}
	ch := make(chan domain.ProbeResult, 256)
	s := New(zap.NewNop(), ch)
	s.NewProbe = fakeFactory(rec, nil)

	ctx, cancel := context.WithCancel(context.Background())
	var got []domain.ProbeResult
	var mu sync.Mutex
	go drain(ctx, ch, &got, &mu)

	err := s.Start(ctx, []domain.TaskGroup{
		{Interval: 100 * time.Millisecond, Timeout: time.Second, Tasks: []domain.Task{{Type: domain.TaskTCP, Target: "fast:1"}}},
		{Interval: 500 * time.Millisecond, Timeout: time.Second, Tasks: []domain.Task{{Type: domain.TaskTCP, Target: "slow:1"}}},
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	time.Sleep(1050 * time.Millisecond)
	cancel()
	s.Wait()

	fast, slow := rec.count("fast:1"), rec.count("slow:1")
	if fast < 8 || fast > 12 {
		t.Fatalf("fast group ran %d times, want ~11", fast)
	}
	if slow < 2 || slow > 3 {
		t.Fatalf("slow group ran %d times, want ~3", slow)
	}
}

func TestScheduler_DeclaredOrderAndFailureDoesNotAbort(t *testing.T) {
	rec := &recorder{}
	ch := make(chan domain.ProbeResult, 64)
	s := New(zap.NewNop(), ch)
	s.NewProbe = fakeFactory(rec, map[string]error{"b:1": probe.ErrIO})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := s.Start(ctx, []domain.TaskGroup{{
		Interval: time.Hour,
		Timeout:  time.Second,
		Tasks: []domain.Task{
			{Type: domain.TaskTCP, Target: "a:1"},
			{Type: domain.TaskTCP, Target: "b:1"},
			{Type: domain.TaskHTTP, Target: "c:1"},
		},
	}})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	var results []domain.ProbeResult
	for i := 0; i < 3; i++ {
		select {
		case r := <-ch:
			results = append(results, r)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for result %d", i)
		}
	}
	cancel()
	s.Wait()

	want := []string{"a:1", "b:1", "c:1"}
	for i, r := range results {
		if r.Target != want[i] {
			t.Fatalf("result %d target=%s want %s", i, r.Target, want[i])
		}
	}
	if results[0].Elapsed < 0 || results[2].Elapsed < 0 {
		t.Fatalf("successful probes must report non-negative elapsed: %+v", results)
	}
	if results[1].Elapsed != domain.FailedElapsed {
		t.Fatalf("failed probe must report the sentinel: %+v", results[1])
	}
	if results[2].Type != domain.TaskHTTP {
		t.Fatalf("task type not carried: %+v", results[2])
	}
	if got := rec.snapshot(); strings.Join(got, ",") != "a:1,b:1,c:1" {
		t.Fatalf("exec order %v", got)
	}
}

func TestScheduler_ConstructionFailureAbortsStart(t *testing.T) {
	rec := &recorder{}
	ch := make(chan domain.ProbeResult, 8)
	s := New(zap.NewNop(), ch)
	s.NewProbe = fakeFactory(rec, nil)

	err := s.Start(context.Background(), []domain.TaskGroup{
		{Interval: time.Second, Timeout: time.Second, Tasks: []domain.Task{
			{Type: domain.TaskTCP, Target: "good:1"},
			{Type: domain.TaskTCP, Target: "bad:1"},
		}},
		{Interval: time.Second, Timeout: time.Second, Tasks: []domain.Task{
			{Type: domain.TaskICMP, Target: "bad-host"},
		}},
	})
	if !errors.Is(err, probe.ErrResolution) {
		t.Fatalf("want ErrResolution, got %v", err)
	}
	if !strings.Contains(err.Error(), "bad:1") || !strings.Contains(err.Error(), "bad-host") {
		t.Fatalf("every failing task should be reported: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if n := len(rec.snapshot()); n != 0 {
		t.Fatalf("no group may run after a failed start, got %d execs", n)
	}
}

func TestScheduler_SlowProbeDoesNotDelayOtherGroup(t *testing.T) {
	rec := &recorder{}
	ch := make(chan domain.ProbeResult, 256)
	s := New(zap.NewNop(), ch)
	s.NewProbe = func(_ context.Context, task domain.Task, _ time.Duration) (probe.Probe, error) {
		fp := &fakeProbe{target: task.Target, rec: rec}
		if task.Target == "slow:1" {
			fp.delay = 400 * time.Millisecond
		}
		return fp, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	var got []domain.ProbeResult
	var mu sync.Mutex
	go drain(ctx, ch, &got, &mu)

	if err := s.Start(ctx, []domain.TaskGroup{
		{Interval: 10 * time.Millisecond, Timeout: time.Second, Tasks: []domain.Task{{Type: domain.TaskTCP, Target: "slow:1"}}},
		{Interval: 50 * time.Millisecond, Timeout: time.Second, Tasks: []domain.Task{{Type: domain.TaskTCP, Target: "quick:1"}}},
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(320 * time.Millisecond)
	cancel()
	s.Wait()

	if n := rec.count("quick:1"); n < 4 {
		t.Fatalf("quick group starved by slow group: %d runs", n)
	}
}
