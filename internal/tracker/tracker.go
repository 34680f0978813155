// Package tracker maintains the process-run set of paths already handed to
// the mover, preventing the same arrival from being handled twice.
package tracker

import "sync"

// ProcessedSet is an explicitly constructed, run-scoped claim set. It is
// never persisted; a restart begins with a fresh (optionally seeded) set.
type ProcessedSet struct {
	seen   map[string]struct{}
	mu     sync.Mutex
	closed bool
}

// New creates an empty processed set.
func New() *ProcessedSet {
	return &ProcessedSet{seen: make(map[string]struct{})}
}

// Seed marks paths as already processed. Used at startup with the watch
// folder's current listing so pre-existing files are ignored.
func (s *ProcessedSet) Seed(paths []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, p := range paths {
		s.seen[p] = struct{}{}
	}
}

// TryClaim atomically inserts path if absent. It returns true when the
// caller now owns the path and false when it was already claimed or the set
// has been torn down. A false return is a no-op signal, not an error.
func (s *ProcessedSet) TryClaim(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if _, ok := s.seen[path]; ok {
		return false
	}
	s.seen[path] = struct{}{}
	return true
}

// Len returns the number of claimed paths.
func (s *ProcessedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// Close tears the set down. Subsequent claims are refused without error.
func (s *ProcessedSet) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}
