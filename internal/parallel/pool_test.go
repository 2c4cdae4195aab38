package parallel

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsSubmittedTasks(t *testing.T) {
	p := New(4)
	defer p.Shutdown()

	var count int64
	const n = 100
	for i := 0; i < n; i++ {
		if err := p.Submit(context.Background(), func() { atomic.AddInt64(&count, 1) }); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt64(&count) != n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for tasks to run, got %d/%d", atomic.LoadInt64(&count), n)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPoolIsolatesPanics(t *testing.T) {
	p := New(2)
	defer p.Shutdown()

	var ran int64
	if err := p.Submit(context.Background(), func() { panic("boom") }); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := p.Submit(context.Background(), func() { atomic.AddInt64(&ran, 1) }); err != nil {
		t.Fatalf("submit: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt64(&ran) != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("panicking task should not have taken down the pool")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSubmitAfterShutdownFails(t *testing.T) {
	p := New(1)
	p.Shutdown()

	if err := p.Submit(context.Background(), func() {}); err != ErrPoolShutdown {
		t.Fatalf("expected ErrPoolShutdown, got %v", err)
	}
}

func TestShutdownContextHonorsDeadline(t *testing.T) {
	p := New(1)
	block := make(chan struct{})
	if err := p.Submit(context.Background(), func() { <-block }); err != nil {
		t.Fatalf("submit: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := p.ShutdownContext(ctx); err == nil {
		t.Fatalf("expected deadline to expire while a task blocks")
	}
	close(block)
	p.Shutdown()
}
