package netty

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// popOne removes and returns the oldest queued task without draining the
// rest of the loop, so a self-rearming schedule can be advanced one tick at
// a time instead of running to exhaustion.
func popOne(l *embeddedLoop) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	task := l.queue[0]
	l.queue = l.queue[1:]
	return task
}

func TestNewCronScheduleRejectsInvalidExpression(t *testing.T) {
	l := newEmbeddedLoop()
	_, err := NewCronSchedule(l, "not a cron expression", func() {})
	assert.Error(t, err)
}

func TestNewCronScheduleFiresTaskOnLoop(t *testing.T) {
	l := newEmbeddedLoop()
	fired := 0
	stop, err := NewCronSchedule(l, "* * * * *", func() { fired++ })
	require.NoError(t, err)

	popOne(l)()
	assert.Equal(t, 1, fired)

	stop()
	l.Run()
	assert.Equal(t, 1, fired) // the re-armed next tick was cancelled before it ran
}

func TestNewCronScheduleStopBeforeFirstFireCancelsIt(t *testing.T) {
	l := newEmbeddedLoop()
	fired := 0
	stop, err := NewCronSchedule(l, "* * * * *", func() { fired++ })
	require.NoError(t, err)

	stop()
	l.Run()
	assert.Equal(t, 0, fired)
}
