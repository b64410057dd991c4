package attackstate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryBeginClaimsOnce(t *testing.T) {
	store := NewStore(false)

	require.NoError(t, store.TryBegin("HomeNet"))
	require.ErrorIs(t, store.TryBegin("OtherNet"), ErrAlreadyRunning)

	snap := store.Snapshot()
	assert.True(t, snap.Running)
	assert.Equal(t, "HomeNet", snap.TargetSSID)
	assert.Equal(t, PhaseScanning, snap.Phase)
	assert.NotZero(t, snap.StartTime)
}

func TestTryBeginResetsFinishedRecord(t *testing.T) {
	store := NewStore(true)

	require.NoError(t, store.TryBegin("HomeNet"))
	store.Update(func(a *Attack) {
		a.Running = false
		a.Completed = true
		a.Result = "letmein"
	})

	require.NoError(t, store.TryBegin("OtherNet"))

	snap := store.Snapshot()
	assert.Equal(t, "OtherNet", snap.TargetSSID)
	assert.Empty(t, snap.Result)
	assert.False(t, snap.Completed)
	assert.True(t, snap.GPUEnabled)
}

func TestRequestCancel(t *testing.T) {
	store := NewStore(false)

	assert.False(t, store.RequestCancel())

	require.NoError(t, store.TryBegin("HomeNet"))
	assert.True(t, store.RequestCancel())
	assert.True(t, store.CancelRequested())
	assert.True(t, store.Snapshot().CancelRequested)
}

func TestUpdateBumpsLastUpdate(t *testing.T) {
	store := NewStore(false)

	base := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return base }

	require.NoError(t, store.TryBegin("HomeNet"))

	store.now = func() time.Time { return base.Add(30 * time.Second) }
	store.Update(func(a *Attack) { a.Progress = 20 })

	snap := store.Snapshot()
	assert.Equal(t, base.Unix(), snap.StartTime)
	assert.Equal(t, base.Add(30*time.Second).Unix(), snap.LastUpdate)
}

func TestRuntime(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)

	running := Attack{StartTime: start.Unix()}
	assert.Equal(t, int64(90), running.Runtime(start.Add(90*time.Second)))

	finished := Attack{StartTime: start.Unix(), EndTime: start.Unix() + 45}
	assert.Equal(t, int64(45), finished.Runtime(start.Add(time.Hour)))

	assert.Zero(t, Attack{}.Runtime(start))
}

func TestTextLine(t *testing.T) {
	tests := []struct {
		name   string
		attack Attack
		want   string
	}{
		{
			name:   "idle",
			attack: Attack{Phase: PhaseIdle},
			want:   "0|0|idle||",
		},
		{
			name: "running hides result",
			attack: Attack{
				Running: true, Phase: PhaseCapture, Progress: 40,
				TargetSSID: "HomeNet", Result: "partial",
			},
			want: "1|40|capture|HomeNet|",
		},
		{
			name: "completed holds result screen",
			attack: Attack{
				Phase: PhaseComplete, Progress: 100,
				TargetSSID: "Home", Result: "letmein", Completed: true,
			},
			want: "1|100|complete|Home|letmein",
		},
		{
			name: "long fields truncated",
			attack: Attack{
				Phase: PhaseComplete, Progress: 100, Completed: true,
				TargetSSID: "a-very-long-network-name",
				Result:     "an-extremely-long-passphrase",
			},
			want: "1|100|complete|a-very-long-netw|an-extremely-long-pa",
		},
		{
			name: "failed run goes dark",
			attack: Attack{
				Phase: PhaseError, Failed: true, TargetSSID: "HomeNet", Progress: 20,
			},
			want: "0|20|error|HomeNet|",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.attack.TextLine())
		})
	}
}

func TestSimpleLine(t *testing.T) {
	attack := Attack{
		Running: true, Progress: 65, Phase: PhaseGPUCracking,
		TargetSSID: "HomeNet", GPUProcessing: true, GPUEnabled: true,
	}
	assert.Equal(t, "1|65|gpu_cracking|HomeNet|1|1", attack.SimpleLine())

	assert.Equal(t, "0|0|idle||0|0", Attack{Phase: PhaseIdle}.SimpleLine())
}

func TestResultsLine(t *testing.T) {
	assert.Equal(t, "RUNNING|Attack in progress",
		Attack{Running: true}.ResultsLine())
	assert.Equal(t, "SUCCESS|letmein",
		Attack{Completed: true, Result: "letmein"}.ResultsLine())
	assert.Equal(t, "FAILED|NOT FOUND",
		Attack{Completed: true, Result: ResultNotFound}.ResultsLine())
	assert.Equal(t, "FAILED|NOT FOUND",
		Attack{Failed: true}.ResultsLine())
}
