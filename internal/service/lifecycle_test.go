package service

import (
	"context"
	"testing"
	"time"

	"github.com/podloop/podloop/internal/lifecycle"
	"github.com/podloop/podloop/internal/model"
	"github.com/stretchr/testify/require"
)

func TestSweepRecordsDueLaunches(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	env.setClock(now)
	ctx := context.Background()

	creator := env.createUser(t, "alice", "")

	dueAt := now.Add(2 * time.Hour)
	dueIn := manualPodInput()
	dueIn.Title = "due soon"
	dueIn.LaunchMode = model.LaunchModeCountdown
	dueIn.AutoLaunchAt = &dueAt
	due := env.createPod(t, creator.ID, dueIn)

	laterAt := now.Add(48 * time.Hour)
	laterIn := manualPodInput()
	laterIn.Title = "due later"
	laterIn.LaunchMode = model.LaunchModeCountdown
	laterIn.AutoLaunchAt = &laterAt
	later := env.createPod(t, creator.ID, laterIn)

	manual := env.createPod(t, creator.ID, manualPodInput())

	// Nothing is due yet.
	launched, err := env.lifecycleService.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, launched)

	// Past the first countdown: exactly one pod launches, recorded at its
	// countdown instant rather than the sweep time.
	env.setClock(dueAt.Add(30 * time.Minute))
	launched, err = env.lifecycleService.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, launched)

	got, err := env.podService.ByID(ctx, due.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LaunchedAt)
	if !got.LaunchedAt.Equal(dueAt) {
		t.Errorf("launched at: got %v, want countdown instant %v", got.LaunchedAt, dueAt)
	}

	got, err = env.podService.ByID(ctx, later.ID)
	require.NoError(t, err)
	require.Nil(t, got.LaunchedAt)

	got, err = env.podService.ByID(ctx, manual.ID)
	require.NoError(t, err)
	require.Nil(t, got.LaunchedAt)

	// Re-sweeping finds nothing left to record.
	launched, err = env.lifecycleService.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, launched)
}

// Countdown times supplied with a non-UTC offset are compared as instants,
// not by wall-clock reading: 10:00-04:00 is later than 13:00 UTC.
func TestSweepWithOffsetCountdownTime(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2026, 8, 10, 13, 0, 0, 0, time.UTC)
	env.setClock(now)
	ctx := context.Background()

	creator := env.createUser(t, "alice", "")

	dueAt := time.Date(2026, 8, 10, 10, 0, 0, 0, time.FixedZone("EDT", -4*60*60)) // 14:00 UTC
	in := manualPodInput()
	in.LaunchMode = model.LaunchModeCountdown
	in.AutoLaunchAt = &dueAt
	pod := env.createPod(t, creator.ID, in)

	launched, err := env.lifecycleService.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, launched)

	env.setClock(now.Add(90 * time.Minute))
	launched, err = env.lifecycleService.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, launched)

	got, err := env.podService.ByID(ctx, pod.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LaunchedAt)
	if !got.LaunchedAt.Equal(dueAt) {
		t.Errorf("launched at: got %v, want %v", got.LaunchedAt, dueAt)
	}
}

// Derived state does not depend on the sweep having run: a due countdown pod
// reads as active either way, with the same launch time.
func TestSweepDoesNotChangeDerivedState(t *testing.T) {
	env := newTestEnv(t)
	now := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	env.setClock(now)
	ctx := context.Background()

	creator := env.createUser(t, "alice", "")

	dueAt := now.Add(time.Hour)
	in := manualPodInput()
	in.LaunchMode = model.LaunchModeCountdown
	in.AutoLaunchAt = &dueAt
	pod := env.createPod(t, creator.ID, in)

	readTime := dueAt.Add(10 * time.Minute)

	before, err := env.podService.ByID(ctx, pod.ID)
	require.NoError(t, err)
	phaseBefore := lifecycle.PhaseAt(before, readTime)

	env.setClock(readTime)
	_, err = env.lifecycleService.Sweep(ctx)
	require.NoError(t, err)

	after, err := env.podService.ByID(ctx, pod.ID)
	require.NoError(t, err)
	phaseAfter := lifecycle.PhaseAt(after, readTime)

	if phaseBefore != phaseAfter {
		t.Errorf("sweep changed derived phase: %q before, %q after", phaseBefore, phaseAfter)
	}
	if phaseAfter != lifecycle.PhaseActive {
		t.Errorf("phase: got %q, want active", phaseAfter)
	}

	launchBefore, _ := lifecycle.LaunchTimeAt(before, readTime)
	launchAfter, _ := lifecycle.LaunchTimeAt(after, readTime)
	if !launchBefore.Equal(launchAfter) {
		t.Errorf("sweep changed launch time: %v before, %v after", launchBefore, launchAfter)
	}
}
