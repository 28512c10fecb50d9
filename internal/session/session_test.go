package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeatlas/codeatlas/internal/graph"
)

func node(id string) graph.Node {
	return graph.Node{ID: id, Name: id, FilePath: id + ".py"}
}

func TestSession_LRUEviction(t *testing.T) {
	s := NewSession(3, time.Minute)
	s.AddNodes([]graph.Node{node("A"), node("B"), node("C"), node("D")})

	assert.Equal(t, 3, s.Len())
	assert.False(t, s.Has("A"), "oldest entry evicted")
	assert.True(t, s.Has("B"))
	assert.True(t, s.Has("C"))
	assert.True(t, s.Has("D"))
}

func TestSession_GetRefreshesRecency(t *testing.T) {
	s := NewSession(3, time.Minute)
	s.AddNodes([]graph.Node{node("A"), node("B"), node("C")})

	_, ok := s.Get("A")
	require.True(t, ok)

	s.AddNodes([]graph.Node{node("D")})
	assert.True(t, s.Has("A"), "recently read entry survives")
	assert.False(t, s.Has("B"), "least recently used entry evicted")
}

func TestSession_ReAddRefreshesAndUpdates(t *testing.T) {
	s := NewSession(3, time.Minute)
	s.AddNodes([]graph.Node{node("A"), node("B"), node("C")})

	updated := node("A")
	updated.Docstring = "fresh"
	s.AddNodes([]graph.Node{updated})
	s.AddNodes([]graph.Node{node("D")})

	got, ok := s.Get("A")
	require.True(t, ok)
	assert.Equal(t, "fresh", got.Docstring)
	assert.False(t, s.Has("B"))
}

func TestSession_Gaps(t *testing.T) {
	s := NewSession(3, time.Minute)
	s.MarkGap("missing")
	assert.True(t, s.IsGap("missing"))

	// A gap that later materializes stops being a gap.
	s.AddNodes([]graph.Node{node("missing")})
	assert.False(t, s.IsGap("missing"))
}

func TestSession_Expiry(t *testing.T) {
	s := NewSession(3, 10*time.Millisecond)
	assert.False(t, s.IsExpired())

	time.Sleep(20 * time.Millisecond)
	assert.True(t, s.IsExpired())

	s.Touch()
	assert.False(t, s.IsExpired())
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	m := NewManager(3, time.Minute)
	defer m.Stop()

	m.With("conv-1", func(s *Session) {
		s.AddNodes([]graph.Node{node("A")})
	})
	m.With("conv-2", func(s *Session) {
		assert.False(t, s.Has("A"))
	})
	assert.Equal(t, 2, m.Len())

	m.Reset("conv-1")
	assert.Equal(t, 1, m.Len())
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := NewManager(10, time.Minute)
	defer m.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessionID := fmt.Sprintf("conv-%d", i%2)
			for j := 0; j < 50; j++ {
				m.With(sessionID, func(s *Session) {
					s.AddNodes([]graph.Node{node(fmt.Sprintf("n%d", j))})
					s.Get(fmt.Sprintf("n%d", j))
				})
			}
		}(i)
	}
	wg.Wait()

	m.With("conv-0", func(s *Session) {
		assert.LessOrEqual(t, s.Len(), 10)
	})
}

func TestManager_ExpiredSessionReplaced(t *testing.T) {
	m := NewManager(3, 10*time.Millisecond)
	defer m.Stop()

	m.With("conv", func(s *Session) {
		s.AddNodes([]graph.Node{node("A")})
	})
	time.Sleep(20 * time.Millisecond)
	m.With("conv", func(s *Session) {
		assert.False(t, s.Has("A"), "expired session starts fresh")
	})
}
