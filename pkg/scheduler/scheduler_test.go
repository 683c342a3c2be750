package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerFiresAfterDelay(t *testing.T) {
	s := New()
	fired := 0
	h := s.SetTimer(1.5, func() { fired++ })

	require.True(t, h.Valid())
	assert.True(t, s.IsActive(h))
	assert.Equal(t, 1.5, s.TimeLeft(h))

	s.Advance(1.0)
	assert.Equal(t, 0, fired)
	assert.Equal(t, 0.5, s.TimeLeft(h))

	s.Advance(0.5)
	assert.Equal(t, 1, fired)
	assert.False(t, s.IsActive(h))
	assert.Equal(t, 0.0, s.TimeLeft(h))

	s.Advance(10)
	assert.Equal(t, 1, fired, "one-shot timers fire once")
}

func TestClearTimerPreventsFiring(t *testing.T) {
	s := New()
	fired := false
	h := s.SetTimer(1, func() { fired = true })

	assert.True(t, s.ClearTimer(&h))
	assert.False(t, h.Valid(), "clearing invalidates the handle")
	assert.False(t, s.ClearTimer(&h))

	s.Advance(2)
	assert.False(t, fired)
	assert.Equal(t, 0, s.Pending())
}

func TestClearTimerNilAndZero(t *testing.T) {
	s := New()
	var h Handle
	assert.False(t, s.ClearTimer(nil))
	assert.False(t, s.ClearTimer(&h))
}

func TestTimersFireInOrder(t *testing.T) {
	s := New()
	var order []string
	s.SetTimer(2, func() { order = append(order, "late") })
	s.SetTimer(1, func() { order = append(order, "early") })
	s.SetTimer(1, func() { order = append(order, "early-second") })

	s.Advance(5)
	assert.Equal(t, []string{"early", "early-second", "late"}, order)
}

func TestZeroDelayFiresOnNextAdvance(t *testing.T) {
	s := New()
	fired := false
	s.SetTimer(0, func() { fired = true })
	assert.False(t, fired)

	s.Advance(0.016)
	assert.True(t, fired)
}

func TestCallbackCanClearAndSchedule(t *testing.T) {
	s := New()
	var other Handle
	var chained Handle
	chainedFired := false

	other = s.SetTimer(1, func() { t.Fatal("cleared timer fired") })
	s.SetTimer(0.5, func() {
		s.ClearTimer(&other)
		chained = s.SetTimer(0, func() { chainedFired = true })
	})

	s.Advance(0.5)
	assert.False(t, chainedFired, "timers created during Advance wait for the next call")
	assert.True(t, s.IsActive(chained))

	s.Advance(0.1)
	assert.True(t, chainedFired)
	assert.Equal(t, 0, s.Pending())
}
