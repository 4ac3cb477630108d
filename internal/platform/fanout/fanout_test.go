package fanout

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestCollectPreservesTaskOrder(t *testing.T) {
	tasks := make([]Task[int], 5)
	for i := range tasks {
		i := i
		delay := time.Duration(5-i) * 10 * time.Millisecond // later slots finish first
		tasks[i] = Task[int]{
			Name: fmt.Sprintf("task-%d", i),
			Run: func(ctx context.Context) (int, error) {
				time.Sleep(delay)
				return i, nil
			},
		}
	}

	results := Collect(context.Background(), 0, tasks)
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("task %d: unexpected error %v", i, r.Err)
		}
		if r.Value != i {
			t.Errorf("slot %d holds value %d, want %d", i, r.Value, i)
		}
		if r.Name != fmt.Sprintf("task-%d", i) {
			t.Errorf("slot %d holds name %s", i, r.Name)
		}
	}
}

func TestCollectAcceptsPartialFailure(t *testing.T) {
	boom := errors.New("boom")
	tasks := []Task[string]{
		{Name: "ok", Run: func(ctx context.Context) (string, error) { return "a", nil }},
		{Name: "fail", Run: func(ctx context.Context) (string, error) { return "", boom }},
		{Name: "ok2", Run: func(ctx context.Context) (string, error) { return "b", nil }},
	}

	results := Collect(context.Background(), 0, tasks)
	if Succeeded(results) != 2 {
		t.Fatalf("expected 2 successes, got %d", Succeeded(results))
	}
	if !errors.Is(results[1].Err, boom) {
		t.Errorf("expected boom error in slot 1, got %v", results[1].Err)
	}
	if results[0].Value != "a" || results[2].Value != "b" {
		t.Error("sibling results must survive an individual failure")
	}
}

func TestCollectPerCallTimeout(t *testing.T) {
	tasks := []Task[int]{
		{Name: "slow", Run: func(ctx context.Context) (int, error) {
			select {
			case <-time.After(time.Second):
				return 1, nil
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		}},
		{Name: "fast", Run: func(ctx context.Context) (int, error) { return 2, nil }},
	}

	start := time.Now()
	results := Collect(context.Background(), 30*time.Millisecond, tasks)
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("per-call timeout did not bound the slow task")
	}
	if !errors.Is(results[0].Err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", results[0].Err)
	}
	if results[1].Err != nil || results[1].Value != 2 {
		t.Error("fast task should be unaffected by sibling timeout")
	}
}

func TestCollectRespectsParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tasks := []Task[int]{
		{Name: "t", Run: func(ctx context.Context) (int, error) {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			return 1, nil
		}},
	}
	results := Collect(ctx, time.Second, tasks)
	if results[0].Err == nil {
		t.Error("expected error from cancelled parent context")
	}
}
