package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRegisterValidation(t *testing.T) {
	s := New()
	run := func(context.Context) error { return nil }

	if err := s.Register(Job{Interval: time.Second, Run: run}); err == nil {
		t.Fatal("expected error for missing name")
	}
	if err := s.Register(Job{Name: "a", Run: run}); err == nil {
		t.Fatal("expected error for missing interval")
	}
	if err := s.Register(Job{Name: "a", Interval: time.Second}); err == nil {
		t.Fatal("expected error for missing callback")
	}
	if err := s.Register(Job{Name: "a", Interval: time.Second, Run: run}); err != nil {
		t.Fatalf("valid job rejected: %v", err)
	}
	if err := s.Register(Job{Name: "a", Interval: time.Second, Run: run}); !errors.Is(err, ErrJobExists) {
		t.Fatalf("expected ErrJobExists, got %v", err)
	}
}

func TestRunOnStartAndTicks(t *testing.T) {
	s := New()
	var runs int64
	err := s.Register(Job{
		Name:       "sweep",
		Interval:   20 * time.Millisecond,
		RunOnStart: true,
		Run: func(context.Context) error {
			atomic.AddInt64(&runs, 1)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer s.Stop(time.Second)

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt64(&runs) < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected at least 3 runs, got %d", atomic.LoadInt64(&runs))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStartTwiceFails(t *testing.T) {
	s := New()
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer s.Stop(time.Second)
	if err := s.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestRegisterAfterStartFails(t *testing.T) {
	s := New()
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer s.Stop(time.Second)
	err := s.Register(Job{Name: "late", Interval: time.Second, Run: func(context.Context) error { return nil }})
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestSnapshotTracksFailures(t *testing.T) {
	s := New()
	fail := errors.New("boom")
	var runs int64
	err := s.Register(Job{
		Name:       "flaky",
		Interval:   10 * time.Millisecond,
		RunOnStart: true,
		Run: func(context.Context) error {
			if atomic.AddInt64(&runs, 1)%2 == 1 {
				return fail
			}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt64(&runs) < 2 {
		if time.Now().After(deadline) {
			t.Fatal("job did not run enough")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := s.Stop(time.Second); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	snap := s.Snapshot()
	if len(snap) != 1 || snap[0].Name != "flaky" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap[0].Failures == 0 {
		t.Fatal("expected at least one recorded failure")
	}
	if snap[0].Runs < snap[0].Failures {
		t.Fatalf("runs %d < failures %d", snap[0].Runs, snap[0].Failures)
	}
}

func TestJobTimeoutCancelsRun(t *testing.T) {
	s := New()
	timedOut := make(chan struct{}, 1)
	err := s.Register(Job{
		Name:       "slow",
		Interval:   time.Hour,
		Timeout:    20 * time.Millisecond,
		RunOnStart: true,
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			timedOut <- struct{}{}
			return ctx.Err()
		},
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer s.Stop(time.Second)

	select {
	case <-timedOut:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not cancelled by its timeout")
	}
}

func TestStopWaitsForJobs(t *testing.T) {
	s := New()
	started := make(chan struct{})
	err := s.Register(Job{
		Name:       "draining",
		Interval:   time.Hour,
		RunOnStart: true,
		Run: func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return nil
		},
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	<-started
	if err := s.Stop(time.Second); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	// stop again is a no-op
	if err := s.Stop(time.Second); err != nil {
		t.Fatalf("second stop failed: %v", err)
	}
}
