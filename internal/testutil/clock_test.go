package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var clockStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestClock_StaysFrozen(t *testing.T) {
	clock := NewClock(clockStart)

	// Now never advances on its own
	assert.Equal(t, clockStart, clock.Now())
	assert.Equal(t, clockStart, clock.Now())
}

func TestClock_Advance(t *testing.T) {
	clock := NewClock(clockStart)

	got := clock.Advance(time.Minute)
	assert.Equal(t, clockStart.Add(time.Minute), got)
	assert.Equal(t, clockStart.Add(time.Minute), clock.Now())

	clock.Advance(time.Hour)
	assert.Equal(t, clockStart.Add(time.Minute+time.Hour), clock.Now())
}

func TestClock_Set(t *testing.T) {
	clock := NewClock(clockStart)

	target := clockStart.Add(24 * time.Hour)
	clock.Set(target)
	assert.Equal(t, target, clock.Now())
}

func TestClock_ThreadSafe(t *testing.T) {
	clock := NewClock(clockStart)
	const numGoroutines = 50

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				clock.Advance(time.Second)
				_ = clock.Now()
			}
		}()
	}
	wg.Wait()

	// Every advance landed exactly once
	want := clockStart.Add(time.Duration(numGoroutines*20) * time.Second)
	assert.Equal(t, want, clock.Now())
}
