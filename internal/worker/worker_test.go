package worker

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmit_RunsTask(t *testing.T) {
	p, err := NewPool(2)
	if err != nil {
		t.Fatalf("pool creation failed: %v", err)
	}
	defer p.Release()

	done := make(chan struct{})
	p.Submit("test-task", func() error {
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
}

func TestSubmit_ErrorDoesNotPanic(t *testing.T) {
	p, err := NewPool(1)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Release()

	done := make(chan struct{})
	p.Submit("failing-task", func() error {
		defer close(done)
		return errors.New("boom")
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("failing task did not run")
	}
}

func TestSubmit_ManyTasksAllComplete(t *testing.T) {
	p, err := NewPool(4)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Release()

	var count atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		p.Submit("counted", func() error {
			defer wg.Done()
			count.Add(1)
			return nil
		})
	}
	wg.Wait()
	if count.Load() != 100 {
		t.Errorf("ran %d tasks, want 100", count.Load())
	}
}

func TestSubmit_AfterReleaseRunsInline(t *testing.T) {
	p, err := NewPool(1)
	if err != nil {
		t.Fatal(err)
	}
	p.Release()

	ran := false
	p.Submit("late", func() error {
		ran = true
		return nil
	})
	if !ran {
		t.Error("task submitted after release did not run inline")
	}
}
