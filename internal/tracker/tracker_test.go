package tracker

import (
	"fmt"
	"sync"
	"testing"
)

func TestTryClaimAtMostOnce(t *testing.T) {
	s := New()

	if !s.TryClaim("/downloads/a.pdf") {
		t.Fatal("first claim should succeed")
	}
	if s.TryClaim("/downloads/a.pdf") {
		t.Fatal("second claim should fail")
	}
	if !s.TryClaim("/downloads/b.pdf") {
		t.Fatal("claim for a different path should succeed")
	}
}

func TestSeed(t *testing.T) {
	s := New()
	s.Seed([]string{"/downloads/old1.pdf", "/downloads/old2.pdf"})

	if s.TryClaim("/downloads/old1.pdf") {
		t.Error("seeded path should already be claimed")
	}
	if !s.TryClaim("/downloads/new.pdf") {
		t.Error("unseeded path should be claimable")
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
}

func TestCloseRefusesClaims(t *testing.T) {
	s := New()
	s.Close()

	if s.TryClaim("/downloads/late.pdf") {
		t.Error("claim after teardown should be refused")
	}
	// Seeding after teardown is a no-op too.
	s.Seed([]string{"/downloads/x.pdf"})
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestConcurrentClaimsSingleWinner(t *testing.T) {
	s := New()
	const goroutines = 64

	var wg sync.WaitGroup
	wins := make(chan struct{}, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.TryClaim("/downloads/contended.pdf") {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	if count != 1 {
		t.Errorf("expected exactly one winner, got %d", count)
	}
}

func TestConcurrentDistinctPaths(t *testing.T) {
	s := New()
	const paths = 100

	var wg sync.WaitGroup
	for i := 0; i < paths; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if !s.TryClaim(fmt.Sprintf("/downloads/file-%d.pdf", n)) {
				t.Errorf("claim for distinct path %d should succeed", n)
			}
		}(i)
	}
	wg.Wait()

	if s.Len() != paths {
		t.Errorf("Len() = %d, want %d", s.Len(), paths)
	}
}
