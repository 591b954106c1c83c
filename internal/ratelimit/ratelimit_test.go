package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestAllow_LimitWithinWindow(t *testing.T) {
	current := time.Unix(1000, 0)
	l := New(20, 5*time.Minute, WithClock(func() time.Time { return current }))

	for i := 0; i < 20; i++ {
		current = current.Add(time.Second)
		if !l.Allow("user-1") {
			t.Fatalf("request %d rejected, want allowed", i+1)
		}
	}
	if l.Allow("user-1") {
		t.Fatal("21st request allowed, want rejected")
	}
}

func TestAllow_WindowSlides(t *testing.T) {
	current := time.Unix(1000, 0)
	l := New(20, 5*time.Minute, WithClock(func() time.Time { return current }))

	for i := 0; i < 20; i++ {
		l.Allow("user-1")
	}
	if l.Allow("user-1") {
		t.Fatal("request over limit allowed")
	}

	// Advance past the window; old entries are purged lazily.
	current = current.Add(5*time.Minute + time.Second)
	if !l.Allow("user-1") {
		t.Fatal("request after window expiry rejected")
	}
}

func TestAllow_PrincipalsIndependent(t *testing.T) {
	l := New(2, time.Minute)

	l.Allow("a")
	l.Allow("a")
	if l.Allow("a") {
		t.Fatal("principal a over limit")
	}
	if !l.Allow("b") {
		t.Fatal("principal b should be unaffected by a's usage")
	}
}

func TestAllow_PartialExpiry(t *testing.T) {
	current := time.Unix(1000, 0)
	l := New(3, time.Minute, WithClock(func() time.Time { return current }))

	l.Allow("u") // t=0
	current = current.Add(30 * time.Second)
	l.Allow("u") // t=30
	l.Allow("u") // t=30
	if l.Allow("u") {
		t.Fatal("4th request within window allowed")
	}

	// First stamp expires, the two at t=30 remain.
	current = current.Add(31 * time.Second)
	if !l.Allow("u") {
		t.Fatal("request rejected after oldest stamp expired")
	}
	if l.Allow("u") {
		t.Fatal("window should be full again")
	}
}

func TestAllow_ConcurrentSamePrincipal(t *testing.T) {
	l := New(50, time.Minute)

	var wg sync.WaitGroup
	allowed := make(chan bool, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- l.Allow("shared")
		}()
	}
	wg.Wait()
	close(allowed)

	count := 0
	for ok := range allowed {
		if ok {
			count++
		}
	}
	if count != 50 {
		t.Errorf("admitted %d concurrent requests, want exactly 50", count)
	}
}

func TestNew_Defaults(t *testing.T) {
	l := New(0, 0)
	if l.limit != DefaultLimit || l.window != DefaultWindow {
		t.Errorf("defaults not applied: limit=%d window=%v", l.limit, l.window)
	}
}

// fixedStore admits everything; verifies the store is pluggable.
type fixedStore struct{ calls int }

func (f *fixedStore) Admit(principalID string, cutoff, now time.Time, limit int) bool {
	f.calls++
	return true
}

func TestWithStore(t *testing.T) {
	fs := &fixedStore{}
	l := New(1, time.Minute, WithStore(fs))
	l.Allow("x")
	l.Allow("x")
	if fs.calls != 2 {
		t.Errorf("injected store called %d times, want 2", fs.calls)
	}
}
