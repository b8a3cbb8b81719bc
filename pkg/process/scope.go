package process

import (
	"errors"
	"sync"
)

// Scope owns resources acquired during a run and releases them exactly once,
// in reverse acquisition order, when closed
type Scope struct {
	mu       sync.Mutex
	releases []func() error
	closed   bool
}

// NewScope creates an empty scope
func NewScope() *Scope {
	return &Scope{}
}

// Defer registers a release function. If the scope is already closed the
// function runs immediately.
func (s *Scope) Defer(release func() error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = release()
		return
	}
	s.releases = append(s.releases, release)
	s.mu.Unlock()
}

// Close runs every registered release function. It is safe to call more than
// once and from a signal handler.
func (s *Scope) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	releases := s.releases
	s.releases = nil
	s.mu.Unlock()

	var errs []error
	for i := len(releases) - 1; i >= 0; i-- {
		if err := releases[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of pending release functions
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.releases)
}
