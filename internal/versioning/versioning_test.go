package versioning_test

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/storyloom/storyloom/internal/graph"
	"github.com/storyloom/storyloom/internal/models"
	"github.com/storyloom/storyloom/internal/testhelpers"
	"github.com/storyloom/storyloom/internal/versioning"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *versioning.Manager {
	t.Helper()
	return versioning.NewManager(testhelpers.NewLogger(io.Discard), nil)
}

func TestManager_CaptureIfChanged_Deduplicates(t *testing.T) {
	manager := newTestManager(t)
	nodes := []models.Node{{ID: "a", Title: "Start"}}

	_, captured := manager.CaptureIfChanged(nodes, "premise", "Added node")
	require.True(t, captured)

	// Two auto-save timers firing back to back for unchanged state.
	_, captured = manager.CaptureIfChanged(nodes, "premise", "Added node")
	require.False(t, captured, "unchanged state yields one snapshot, not two")
	require.Len(t, manager.List(), 1)

	nodes[0].Content = "Once upon a time"
	_, captured = manager.CaptureIfChanged(nodes, "premise", "Edited node")
	require.True(t, captured)
	require.Len(t, manager.List(), 2)
}

func TestManager_Retention(t *testing.T) {
	manager := newTestManager(t)

	for i := 0; i < versioning.Retention+13; i++ {
		nodes := []models.Node{{ID: "a", Title: fmt.Sprintf("Title %d", i)}}
		_, captured := manager.CaptureIfChanged(nodes, "premise", fmt.Sprintf("edit %d", i))
		require.True(t, captured)
	}

	snapshots := manager.List()
	require.Len(t, snapshots, versioning.Retention, "list never exceeds retention")
	require.Equal(t, "edit 13", snapshots[0].Action, "oldest entries are evicted first")
	require.Equal(t, fmt.Sprintf("edit %d", versioning.Retention+12), snapshots[len(snapshots)-1].Action)
}

func TestManager_Restore(t *testing.T) {
	manager := newTestManager(t)
	nodes := []models.Node{{ID: "a", Title: "Start", Connections: []models.Edge{
		{ID: "e1", TargetID: "a", Label: "Start"},
	}}}
	snapshot, captured := manager.CaptureIfChanged(nodes, "premise", "Added node")
	require.True(t, captured)

	restored, err := manager.Restore(snapshot.ID)
	require.NoError(t, err)
	require.Equal(t, snapshot.Nodes, restored.Nodes)

	// The restored copy must not alias the stored snapshot.
	restored.Nodes[0].Title = "mutated"
	again, err := manager.Restore(snapshot.ID)
	require.NoError(t, err)
	require.Equal(t, "Start", again.Nodes[0].Title)

	_, err = manager.Restore("nonexistent")
	require.ErrorIs(t, err, versioning.ErrNotFound)
}

func TestManager_Debounce(t *testing.T) {
	manager := newTestManager(t)
	nodes := []models.Node{{ID: "a", Title: "Start"}}
	start := time.Now()

	_, fired := manager.Tick(nodes, "premise", start)
	require.False(t, fired, "disarmed deadline never fires")

	manager.MarkDirty(graph.MutationAdded, start)
	_, fired = manager.Tick(nodes, "premise", start.Add(time.Second))
	require.False(t, fired, "deadline not due yet")

	// A new qualifying mutation re-arms the deadline.
	manager.MarkDirty(graph.MutationRenamed, start.Add(time.Second))
	_, fired = manager.Tick(nodes, "premise", start.Add(2100*time.Millisecond))
	require.False(t, fired, "re-armed deadline pushed past the original due time")

	snapshot, fired := manager.Tick(nodes, "premise", start.Add(3100*time.Millisecond))
	require.True(t, fired)
	require.Equal(t, "Renamed node", snapshot.Action, "label summarizes the most recent mutation kind")

	// Firing disarms the deadline.
	_, fired = manager.Tick(nodes, "premise", start.Add(time.Hour))
	require.False(t, fired)
}

func TestManager_MarkDirty_IgnoresNoOps(t *testing.T) {
	manager := newTestManager(t)
	manager.MarkDirty(graph.MutationNone, time.Now())
	require.False(t, manager.Due(time.Now().Add(time.Hour)))
}
