package chat

import (
	"sync"
	"testing"
	"time"
)

func TestGuardSerializesSameSession(t *testing.T) {
	g := NewGuard(time.Minute)

	var mu sync.Mutex
	inCritical := 0
	maxInCritical := 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := g.Lock("s1")
			defer unlock()

			mu.Lock()
			inCritical++
			if inCritical > maxInCritical {
				maxInCritical = inCritical
			}
			mu.Unlock()

			time.Sleep(2 * time.Millisecond)

			mu.Lock()
			inCritical--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxInCritical != 1 {
		t.Fatalf("max concurrent holders on one session = %d, want 1", maxInCritical)
	}
}

func TestGuardDifferentSessionsRunInParallel(t *testing.T) {
	g := NewGuard(time.Minute)

	unlockA := g.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := g.Lock("b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("lock on session b blocked behind session a")
	}
}

func TestGuardJanitorDropsIdleEntries(t *testing.T) {
	g := NewGuard(time.Millisecond)

	unlock := g.Lock("s1")
	unlock()
	if got := g.ActiveCount(); got != 1 {
		t.Fatalf("ActiveCount() = %d, want 1", got)
	}

	time.Sleep(5 * time.Millisecond)
	g.expireIdle()
	if got := g.ActiveCount(); got != 0 {
		t.Fatalf("ActiveCount() after expiry = %d, want 0", got)
	}
}

func TestGuardJanitorKeepsHeldEntries(t *testing.T) {
	g := NewGuard(time.Millisecond)

	unlock := g.Lock("s1")
	defer unlock()

	time.Sleep(5 * time.Millisecond)
	g.expireIdle()
	if got := g.ActiveCount(); got != 1 {
		t.Fatalf("ActiveCount() = %d, want held entry kept", got)
	}
}
