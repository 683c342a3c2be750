package archive

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/open-teleop/dronecontrols/domain/drone"
	"github.com/open-teleop/dronecontrols/pkg/export"
	"github.com/open-teleop/dronecontrols/pkg/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "archive.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testRecording(id string, n int) drone.Recording {
	var s export.Series
	for i := 0; i < n; i++ {
		f := float64(i)
		s.Times = append(s.Times, f*0.25)
		s.Locations = append(s.Locations, mgl64.Vec3{f, 0, -f})
		s.Rotations = append(s.Rotations, geom.Rotator{Yaw: f})
		s.Velocities = append(s.Velocities, mgl64.Vec3{600, 0, 0})
		s.Distances = append(s.Distances, drone.DefaultTraceLength)
	}
	return drone.Recording{
		ID:        id,
		Reason:    drone.ReasonCommand,
		Command:   "MoveForward 2",
		StartedAt: 1,
		EndedAt:   3,
		Series:    s,
		Sections:  []drone.Section{{Index: 1, Start: 0, End: n}},
	}
}

func TestSaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	rec := testRecording("rec-1", 700)
	saved, err := store.Save(ctx, rec)
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.Equal(t, 700, saved.SampleCount)

	got, err := store.Get(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "MoveForward 2", got.Command)
	require.Len(t, got.Samples, 700)
	assert.Equal(t, rec.Series, got.Series())
	require.Len(t, got.Sections, 1)
	assert.Equal(t, 700, got.Sections[0].End)
}

func TestGetMissing(t *testing.T) {
	store := openStore(t)
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(context.Background(), "nope"), ErrNotFound)
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	_, err := store.Save(ctx, testRecording("a", 2))
	require.NoError(t, err)
	manual := testRecording("b", 0)
	manual.Reason = drone.ReasonManual
	_, err = store.Save(ctx, manual)
	require.NoError(t, err)
	_, err = store.Save(ctx, testRecording("c", 1))
	require.NoError(t, err)

	all, err := store.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].UUID)
	assert.Empty(t, all[0].Samples)

	manuals, err := store.List(ctx, ListOptions{Reason: drone.ReasonManual})
	require.NoError(t, err)
	require.Len(t, manuals, 1)
	assert.Equal(t, "b", manuals[0].UUID)

	page, err := store.List(ctx, ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "b", page[0].UUID)

	require.NoError(t, store.Delete(ctx, "a"))
	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var orphans int64
	require.NoError(t, store.db.Model(&Sample{}).Where("recording_id NOT IN (?)", store.db.Model(&Recording{}).Select("id")).Count(&orphans).Error)
	assert.Zero(t, orphans)
}

func TestDuplicateIDRejected(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	_, err := store.Save(ctx, testRecording("dup", 1))
	require.NoError(t, err)
	_, err = store.Save(ctx, testRecording("dup", 1))
	assert.Error(t, err)
}

func TestArchiverDrainsOnClose(t *testing.T) {
	store := openStore(t)
	a := NewArchiver(store, 4, nil)
	var saved []string
	a.OnSaved(func(r *Recording) { saved = append(saved, r.UUID) })

	done := make(chan struct{})
	go func() {
		a.Run(context.Background())
		close(done)
	}()

	assert.True(t, a.Submit(testRecording("x", 3)))
	assert.True(t, a.Submit(testRecording("y", 3)))
	a.Close()
	<-done

	assert.Equal(t, []string{"x", "y"}, saved)
	assert.False(t, a.Submit(testRecording("z", 1)))
	a.Close()
}
