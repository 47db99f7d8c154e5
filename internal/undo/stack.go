// Package undo keeps a bounded history of committed decisions.
package undo

import (
	"sync"

	"github.com/oggyb/muzz-swipe/internal/domain"
	"github.com/oggyb/muzz-swipe/internal/quota"
)

// Entry is everything needed to reverse one committed decision locally.
type Entry struct {
	Decision     domain.Decision
	CursorBefore int
	QuotaBefore  quota.State
}

// Stack is a LIFO with a fixed capacity; pushing onto a full stack evicts
// the oldest entry.
type Stack struct {
	mu      sync.Mutex
	limit   int
	entries []Entry
}

// NewStack returns a stack holding at most limit entries (minimum 1).
func NewStack(limit int) *Stack {
	if limit < 1 {
		limit = 1
	}
	return &Stack{limit: limit, entries: make([]Entry, 0, limit)}
}

// Push records e and reports whether an older entry was evicted.
func (s *Stack) Push(e Entry) (evicted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == s.limit {
		copy(s.entries, s.entries[1:])
		s.entries = s.entries[:len(s.entries)-1]
		evicted = true
	}
	s.entries = append(s.entries, e)
	return evicted
}

// Pop removes and returns the most recent entry.
func (s *Stack) Pop() (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == 0 {
		return Entry{}, false
	}
	last := s.entries[len(s.entries)-1]
	s.entries[len(s.entries)-1] = Entry{}
	s.entries = s.entries[:len(s.entries)-1]
	return last, true
}

// Peek returns the most recent entry without removing it.
func (s *Stack) Peek() (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == 0 {
		return Entry{}, false
	}
	return s.entries[len(s.entries)-1], true
}

func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Clear drops all history, e.g. after a quota reconcile.
func (s *Stack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = s.entries[:0]
}
