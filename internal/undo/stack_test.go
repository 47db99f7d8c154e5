package undo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/muzz-swipe/internal/domain"
)

func entry(id string, cursor int) Entry {
	return Entry{
		Decision:     domain.Decision{ProfileID: id, Direction: domain.DirectionLike},
		CursorBefore: cursor,
	}
}

func TestStack_LIFO(t *testing.T) {
	s := NewStack(3)
	s.Push(entry("a", 0))
	s.Push(entry("b", 1))

	top, ok := s.Peek()
	require.True(t, ok)
	assert.Equal(t, "b", top.Decision.ProfileID)

	e, ok := s.Pop()
	require.True(t, ok)
	assert.Equal(t, "b", e.Decision.ProfileID)

	e, ok = s.Pop()
	require.True(t, ok)
	assert.Equal(t, "a", e.Decision.ProfileID)

	_, ok = s.Pop()
	assert.False(t, ok)
}

func TestStack_EvictsOldest(t *testing.T) {
	s := NewStack(2)
	assert.False(t, s.Push(entry("a", 0)))
	assert.False(t, s.Push(entry("b", 1)))
	assert.True(t, s.Push(entry("c", 2)))
	assert.Equal(t, 2, s.Len())

	e, _ := s.Pop()
	assert.Equal(t, "c", e.Decision.ProfileID)
	e, _ = s.Pop()
	assert.Equal(t, "b", e.Decision.ProfileID)
	_, ok := s.Pop()
	assert.False(t, ok, "a was evicted")
}

func TestStack_MinimumCapacity(t *testing.T) {
	s := NewStack(0)
	s.Push(entry("a", 0))
	s.Push(entry("b", 1))
	assert.Equal(t, 1, s.Len())

	s.Clear()
	_, ok := s.Peek()
	assert.False(t, ok)
}
