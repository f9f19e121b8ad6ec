package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAlignedIntervalBeforeStart(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := alignedInterval{start: start, hasStart: true, interval: 10 * time.Second}

	next := s.Next(start.Add(-30 * time.Second))
	assert.Equal(t, start, next)
}

func TestAlignedIntervalAfterStart(t *testing.T) {
	// With start in the past the next fire lands on the next whole
	// multiple of the interval relative to start, not relative to now.
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := alignedInterval{start: start, hasStart: true, interval: 10 * time.Second}

	next := s.Next(start.Add(23 * time.Second))
	assert.Equal(t, start.Add(30*time.Second), next)

	// Exactly on a boundary the next fire is one interval later.
	next = s.Next(start.Add(30 * time.Second))
	assert.Equal(t, start.Add(40*time.Second), next)
}

func TestAlignedIntervalOneSecond(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 500_000_000, time.UTC)
	s := alignedInterval{start: start, hasStart: true, interval: time.Second}

	// Fires on the next whole-second tick relative to start.
	next := s.Next(start.Add(90*time.Second + 100*time.Millisecond))
	assert.Equal(t, start.Add(91*time.Second), next)
}

func TestAlignedIntervalWithoutStart(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := alignedInterval{interval: time.Minute}
	assert.Equal(t, now.Add(time.Minute), s.Next(now))
}

func TestOnceAt(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := onceAt{at: at}

	assert.Equal(t, at, s.Next(at.Add(-time.Second)))
	assert.True(t, s.Next(at.Add(time.Second)).IsZero(), "never fires again")
}

func TestRandIntervalBounds(t *testing.T) {
	rng := newTestRand()
	seen := make(map[uint32]bool)
	for i := 0; i < 10000; i++ {
		v := randInterval(rng, 0, 4)
		assert.LessOrEqual(t, v, uint32(4))
		seen[v] = true
	}
	// Every bucket is reachable.
	for v := uint32(0); v <= 4; v++ {
		assert.True(t, seen[v], "value %d never drawn", v)
	}
}

func TestRandIntervalDegenerate(t *testing.T) {
	rng := newTestRand()
	assert.Equal(t, uint32(7), randInterval(rng, 7, 7))
}
