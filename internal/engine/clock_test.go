package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClock_NewClock(t *testing.T) {
	c := NewClock()
	assert.Equal(t, 0, c.Current(), "new clock should start at tick 0")
}

func TestClock_Next_Incrementing(t *testing.T) {
	c := NewClock()

	assert.Equal(t, 1, c.Next())
	assert.Equal(t, 2, c.Next())
	assert.Equal(t, 3, c.Next())

	assert.Equal(t, 3, c.Current())
}

func TestClock_Current_DoesNotIncrement(t *testing.T) {
	c := NewClock()
	c.Next()

	for i := 0; i < 5; i++ {
		assert.Equal(t, 1, c.Current())
	}
}

func TestClock_ConcurrentReaders(t *testing.T) {
	c := NewClock()
	const ticks = 1000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		last := 0
		for last < ticks {
			cur := c.Current()
			assert.GreaterOrEqual(t, cur, last, "clock must never go backwards")
			last = cur
		}
	}()

	for i := 0; i < ticks; i++ {
		c.Next()
	}
	wg.Wait()
}
