package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingTask struct {
	name  string
	calls atomic.Int32
	err   error
}

func (t *countingTask) Name() string { return t.name }

func (t *countingTask) Run(_ context.Context) error {
	t.calls.Add(1)
	return t.err
}

type orderRecorder struct {
	mu    sync.Mutex
	order []string
}

type recordingTask struct {
	id       string
	recorder *orderRecorder
}

func (t *recordingTask) Name() string { return t.id }

func (t *recordingTask) Run(_ context.Context) error {
	t.recorder.mu.Lock()
	t.recorder.order = append(t.recorder.order, t.id)
	t.recorder.mu.Unlock()
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_RunsImmediatelyThenStopsOnCancel(t *testing.T) {
	task := &countingTask{name: "sweep"}
	s := NewScheduler([]Task{task}, time.Hour, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for task.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("task was not run immediately")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if c := task.calls.Load(); c != 1 {
		t.Errorf("calls = %d, want 1", c)
	}
}

func TestScheduler_TicksOnInterval(t *testing.T) {
	task := &countingTask{name: "sweep"}
	s := NewScheduler([]Task{task}, 10*time.Millisecond, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run = %v", err)
	}
	if c := task.calls.Load(); c < 3 {
		t.Errorf("calls = %d, want at least 3", c)
	}
}

func TestScheduler_FailingTaskDoesNotStopOthers(t *testing.T) {
	failing := &countingTask{name: "broken", err: errors.New("boom")}
	healthy := &countingTask{name: "healthy"}
	s := NewScheduler([]Task{failing, healthy}, time.Hour, discardLogger())

	s.runAll(context.Background())

	if failing.calls.Load() != 1 || healthy.calls.Load() != 1 {
		t.Errorf("calls = %d/%d, want 1/1", failing.calls.Load(), healthy.calls.Load())
	}
}

func TestScheduler_RunsTasksInOrder(t *testing.T) {
	rec := &orderRecorder{}
	tasks := []Task{
		&recordingTask{id: "a", recorder: rec},
		&recordingTask{id: "b", recorder: rec},
		&recordingTask{id: "c", recorder: rec},
	}
	s := NewScheduler(tasks, time.Hour, discardLogger())

	s.runAll(context.Background())

	want := []string{"a", "b", "c"}
	if len(rec.order) != len(want) {
		t.Fatalf("order = %v, want %v", rec.order, want)
	}
	for i := range want {
		if rec.order[i] != want[i] {
			t.Errorf("order = %v, want %v", rec.order, want)
			break
		}
	}
}

func TestScheduler_CancelledContextSkipsTasks(t *testing.T) {
	task := &countingTask{name: "sweep"}
	s := NewScheduler([]Task{task}, time.Hour, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.runAll(ctx)

	if c := task.calls.Load(); c != 0 {
		t.Errorf("calls = %d, want 0", c)
	}
}
