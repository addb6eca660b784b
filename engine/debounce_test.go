package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fireLog struct {
	mu      sync.Mutex
	reasons []string
}

func (f *fireLog) add(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reasons = append(f.reasons, reason)
}

func (f *fireLog) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.reasons...)
}

// N triggers within the window produce exactly one firing; the next
// trigger after the window produces a second.
func TestDebouncerCoalesces(t *testing.T) {
	log := &fireLog{}
	d := NewDebouncer(50*time.Millisecond, log.add)
	defer d.Stop()

	for i := 0; i < 5; i++ {
		d.Trigger("burst")
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return len(log.snapshot()) == 1
	}, time.Second, 5*time.Millisecond, "burst coalesces into one firing")

	time.Sleep(60 * time.Millisecond)
	assert.Len(t, log.snapshot(), 1, "no extra firing without a new trigger")

	d.Trigger("second")
	require.Eventually(t, func() bool {
		return len(log.snapshot()) == 2
	}, time.Second, 5*time.Millisecond, "a trigger after the window opens a new cycle")

	assert.Equal(t, []string{"burst", "second"}, log.snapshot())
}

func TestDebouncerKeepsLatestReason(t *testing.T) {
	log := &fireLog{}
	d := NewDebouncer(30*time.Millisecond, log.add)
	defer d.Stop()

	d.Trigger("first")
	d.Trigger("last")

	require.Eventually(t, func() bool {
		return len(log.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "last", log.snapshot()[0])
}

func TestDebouncerStop(t *testing.T) {
	log := &fireLog{}
	d := NewDebouncer(20*time.Millisecond, log.add)

	d.Trigger("pending")
	d.Stop()
	time.Sleep(40 * time.Millisecond)
	assert.Empty(t, log.snapshot(), "stop cancels the pending firing")

	d.Trigger("after stop")
	time.Sleep(40 * time.Millisecond)
	assert.Empty(t, log.snapshot())
}
