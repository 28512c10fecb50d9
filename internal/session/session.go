// Package session caches graph context per conversation so follow-up
// questions reuse previously retrieved nodes instead of re-walking the
// graph. Eviction must be exact LRU (the oldest entry goes first, always),
// so the cache is an ordered map rather than a probabilistic cache.
package session

import (
	"container/list"
	"time"

	"github.com/codeatlas/codeatlas/internal/graph"
)

// DefaultCapacity bounds how many nodes one conversation retains.
const DefaultCapacity = 50

// Session is one conversation's cached graph context. It is not safe for
// concurrent use; the Manager serializes access per session.
type Session struct {
	capacity     int
	order        *list.List // front = most recently used
	byID         map[string]*list.Element
	gaps         map[string]bool
	createdAt    time.Time
	lastAccessed time.Time
	ttl          time.Duration
}

type cacheEntry struct {
	id   string
	node graph.Node
}

// NewSession creates a session with the given capacity and TTL.
func NewSession(capacity int, ttl time.Duration) *Session {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	now := time.Now()
	return &Session{
		capacity:     capacity,
		order:        list.New(),
		byID:         make(map[string]*list.Element),
		gaps:         make(map[string]bool),
		createdAt:    now,
		lastAccessed: now,
		ttl:          ttl,
	}
}

// AddNodes inserts or refreshes nodes in LRU order, then evicts the least
// recently used entries beyond capacity.
func (s *Session) AddNodes(nodes []graph.Node) {
	for _, n := range nodes {
		if el, ok := s.byID[n.ID]; ok {
			el.Value = cacheEntry{id: n.ID, node: n}
			s.order.MoveToFront(el)
			continue
		}
		s.byID[n.ID] = s.order.PushFront(cacheEntry{id: n.ID, node: n})
		delete(s.gaps, n.ID)
	}

	for s.order.Len() > s.capacity {
		oldest := s.order.Back()
		s.order.Remove(oldest)
		delete(s.byID, oldest.Value.(cacheEntry).id)
	}
}

// Get returns a cached node and refreshes its recency.
func (s *Session) Get(id string) (graph.Node, bool) {
	el, ok := s.byID[id]
	if !ok {
		return graph.Node{}, false
	}
	s.order.MoveToFront(el)
	return el.Value.(cacheEntry).node, true
}

// Has reports whether a node is cached without touching recency.
func (s *Session) Has(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// NodeIDs returns cached ids from most to least recently used.
func (s *Session) NodeIDs() []string {
	out := make([]string, 0, s.order.Len())
	for el := s.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(cacheEntry).id)
	}
	return out
}

// MarkGap records an id that was looked up and not found, so repeated
// follow-ups skip the lookup.
func (s *Session) MarkGap(id string) {
	if !s.Has(id) {
		s.gaps[id] = true
	}
}

// IsGap reports whether an id is a known miss.
func (s *Session) IsGap(id string) bool {
	return s.gaps[id]
}

// Len returns the number of cached nodes.
func (s *Session) Len() int {
	return s.order.Len()
}

// Touch refreshes the last-access timestamp.
func (s *Session) Touch() {
	s.lastAccessed = time.Now()
}

// IsExpired reports whether the session has been idle past its TTL.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.lastAccessed.Add(s.ttl))
}
