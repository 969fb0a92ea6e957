package testutil

import (
	"sync"
	"testing"
)

// ScriptedSource replays a fixed sequence of Float64 draws and fails the
// test if more are requested. It satisfies dice.Source.
type ScriptedSource struct {
	t      testing.TB
	mu     sync.Mutex
	floats []float64
	next   int
}

// NewScriptedSource returns a source that yields floats in order.
func NewScriptedSource(t testing.TB, floats ...float64) *ScriptedSource {
	return &ScriptedSource{t: t, floats: floats}
}

// Float64 returns the next scripted draw.
func (s *ScriptedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.floats) {
		s.t.Fatalf("scripted source exhausted after %d draws", len(s.floats))
		return 0
	}
	v := s.floats[s.next]
	s.next++
	return v
}

// Intn derives an int in [0, n) from the next scripted draw.
func (s *ScriptedSource) Intn(n int) int {
	return int(s.Float64() * float64(n))
}

// Remaining reports how many scripted draws were not consumed.
func (s *ScriptedSource) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.floats) - s.next
}
