package drone

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/open-teleop/dronecontrols/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type integratingBody struct {
	*fakeBody
	steps []float64
}

func (b *integratingBody) Step(deltaTime float64) {
	b.steps = append(b.steps, deltaTime)
}

func TestRunnerStepDrainsActionsBeforeTick(t *testing.T) {
	h := newHarness()
	var snaps []Snapshot
	r := NewRunner(h.controller, RunnerOptions{TickHz: 4, OnTick: func(s Snapshot) {
		snaps = append(snaps, s)
	}}, nil)

	require.NoError(t, r.Do(func(c *Controller) { c.Record() }))
	assert.False(t, r.Snapshot().State.Recording)

	r.Step(r.DeltaTime())
	snap := r.Snapshot()
	assert.Equal(t, uint64(1), snap.Tick)
	assert.True(t, snap.State.Recording)
	assert.Equal(t, 1, snap.Samples)
	assert.Equal(t, 0.25, snap.Clock)
	require.Len(t, snaps, 1)
	assert.Equal(t, snap, snaps[0])
}

func TestRunnerSnapshotCarriesActiveCommand(t *testing.T) {
	h := newHarness()
	r := NewRunner(h.controller, RunnerOptions{TickHz: 4}, nil)
	h.commands.push("MoveUp 1")

	r.Step(0.25)
	snap := r.Snapshot()
	require.NotNil(t, snap.Command)
	assert.Equal(t, Command{MoveUp, 1}, *snap.Command)
	assert.Equal(t, 0.75, snap.CommandTimeLeft)

	r.Step(0.25)
	assert.Equal(t, mgl64.Vec3{0, 0, 1}, r.Snapshot().Location)

	for i := 0; i < 2; i++ {
		r.Step(0.25)
	}
	assert.Nil(t, r.Snapshot().Command)
}

func TestRunnerStepsIntegratingBody(t *testing.T) {
	body := &integratingBody{fakeBody: newFakeBody()}
	c := NewController(Dependencies{Body: body}, nil, nil)
	r := NewRunner(c, RunnerOptions{}, nil)

	r.Step(0.5)
	r.Step(0.5)
	assert.Equal(t, []float64{0.5, 0.5}, body.steps)
	assert.InDelta(t, 1.0/config.DefaultTickHz, r.DeltaTime(), 1e-12)
}

func TestRunnerQueueFull(t *testing.T) {
	h := newHarness()
	r := NewRunner(h.controller, RunnerOptions{QueueSize: 1}, nil)

	require.NoError(t, r.Do(func(*Controller) {}))
	assert.ErrorIs(t, r.Do(func(*Controller) {}), ErrActionQueueFull)
}

func TestRunnerRunUntilCancelled(t *testing.T) {
	h := newHarness()
	var mu sync.Mutex
	ticks := 0
	r := NewRunner(h.controller, RunnerOptions{TickHz: 200, OnTick: func(Snapshot) {
		mu.Lock()
		ticks++
		mu.Unlock()
	}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return ticks >= 3
	}, 2*time.Second, 5*time.Millisecond)

	toggled := make(chan struct{})
	require.NoError(t, r.Do(func(c *Controller) {
		c.Record()
		close(toggled)
	}))
	select {
	case <-toggled:
	case <-time.After(2 * time.Second):
		t.Fatal("queued action never ran")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
	assert.ErrorIs(t, r.Do(func(*Controller) {}), ErrRunnerStopped)
}
