package worker

import (
	"context"
	"sync/atomic"
	"testing"
)

type countJob struct {
	counter *atomic.Int64
}

type countResult struct{ err error }

func (r *countResult) GetError() error { return r.err }

func (j *countJob) Execute(ctx context.Context) Result {
	j.counter.Add(1)
	return &countResult{}
}

func TestPool_RunsAllJobs(t *testing.T) {
	var counter atomic.Int64
	pool := NewPool(3)
	pool.Start()

	const jobs = 20
	for i := 0; i < jobs; i++ {
		pool.Submit(&countJob{counter: &counter})
	}

	results := pool.Wait()
	if len(results) != jobs {
		t.Fatalf("Expected %d results, got %d", jobs, len(results))
	}
	if counter.Load() != jobs {
		t.Errorf("Expected %d executions, got %d", jobs, counter.Load())
	}
}

func TestPool_ZeroWorkersDefaultsToOne(t *testing.T) {
	var counter atomic.Int64
	pool := NewPool(0)
	pool.Start()
	pool.Submit(&countJob{counter: &counter})

	results := pool.Wait()
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
}

func TestPool_ShutdownStopsAcceptingJobs(t *testing.T) {
	var counter atomic.Int64
	pool := NewPool(2)
	pool.Start()
	pool.Shutdown()

	// Submissions after shutdown are dropped, not deadlocked.
	pool.Submit(&countJob{counter: &counter})
}
