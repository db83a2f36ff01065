package graph_test

import (
	"io"
	"testing"

	"github.com/storyloom/storyloom/internal/graph"
	"github.com/storyloom/storyloom/internal/models"
	"github.com/storyloom/storyloom/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, nodes ...models.Node) *graph.Store {
	t.Helper()
	return graph.NewStore(testhelpers.NewLogger(io.Discard), nodes)
}

func TestStore_AddNode(t *testing.T) {
	store := newTestStore(t)

	node, err := store.AddNode(models.Node{Title: "Start"})
	require.NoError(t, err)
	require.NotEmpty(t, node.ID, "id is assigned when missing")

	_, err = store.AddNode(models.Node{ID: node.ID, Title: "Duplicate"})
	require.ErrorIs(t, err, graph.ErrExists)
	require.Equal(t, 1, store.Len())
}

func TestStore_UpdateNode_NoOp(t *testing.T) {
	store := newTestStore(t, models.Node{ID: "a", Title: "Start", Content: "Once upon a time"})

	node, err := store.Node("a")
	require.NoError(t, err)

	kind, err := store.UpdateNode("a", node)
	require.NoError(t, err)
	require.Equal(t, graph.MutationNone, kind, "structurally equal patch must not report a mutation")

	node.Content = "A dark and stormy night"
	kind, err = store.UpdateNode("a", node)
	require.NoError(t, err)
	require.Equal(t, graph.MutationUpdated, kind)
}

func TestStore_UpdateNode_RenameSyncsLabels(t *testing.T) {
	store := newTestStore(t,
		models.Node{ID: "start", Title: "Start"},
		models.Node{ID: "cave", Title: "The Cave"},
		models.Node{ID: "forest", Title: "The Forest"},
	)
	_, _, err := store.Connect("start", "cave", "")
	require.NoError(t, err)
	_, _, err = store.Connect("forest", "cave", "")
	require.NoError(t, err)
	_, _, err = store.Connect("start", "forest", "")
	require.NoError(t, err)

	patch, err := store.Node("cave")
	require.NoError(t, err)
	patch.Title = "The Glittering Cave"
	kind, err := store.UpdateNode("cave", patch)
	require.NoError(t, err)
	require.Equal(t, graph.MutationRenamed, kind)

	for _, sourceID := range []string{"start", "forest"} {
		source, err := store.Node(sourceID)
		require.NoError(t, err)
		for _, edge := range source.Connections {
			if edge.TargetID == "cave" {
				require.Equal(t, "The Glittering Cave", edge.Label)
			} else {
				require.Equal(t, "The Forest", edge.Label, "only edges targeting the renamed node change")
			}
		}
	}
}

func TestStore_RemoveNode_CascadesEdges(t *testing.T) {
	store := newTestStore(t,
		models.Node{ID: "start", Title: "Start"},
		models.Node{ID: "cave", Title: "The Cave"},
		models.Node{ID: "forest", Title: "The Forest"},
	)
	mustConnect(t, store, "start", "cave")
	mustConnect(t, store, "forest", "cave")
	mustConnect(t, store, "cave", "forest")

	require.NoError(t, store.RemoveNode("cave"))

	for _, node := range store.Nodes() {
		for _, edge := range node.Connections {
			require.NotEqual(t, "cave", edge.TargetID, "no dangling edges survive a delete")
		}
	}
	_, err := store.Node("cave")
	require.ErrorIs(t, err, graph.ErrNotFound)
}

func TestStore_Connect_Idempotent(t *testing.T) {
	store := newTestStore(t,
		models.Node{ID: "a", Title: "A"},
		models.Node{ID: "b", Title: "B"},
	)

	first, kind, err := store.Connect("a", "b", "")
	require.NoError(t, err)
	require.Equal(t, graph.MutationConnected, kind)
	require.Equal(t, "B", first.Label, "empty label defaults to target title")

	second, kind, err := store.Connect("a", "b", "ignored")
	require.NoError(t, err)
	require.Equal(t, graph.MutationNone, kind)
	require.Equal(t, first.ID, second.ID)

	node, err := store.Node("a")
	require.NoError(t, err)
	require.Len(t, node.Connections, 1, "double connect yields exactly one edge")
}

func TestStore_Connect_NotFound(t *testing.T) {
	store := newTestStore(t, models.Node{ID: "a", Title: "A"})

	_, _, err := store.Connect("a", "missing", "")
	require.ErrorIs(t, err, graph.ErrNotFound)
	_, _, err = store.Connect("missing", "a", "")
	require.ErrorIs(t, err, graph.ErrNotFound)

	node, err := store.Node("a")
	require.NoError(t, err)
	require.Empty(t, node.Connections, "caller sees no change")
}

func TestStore_Disconnect(t *testing.T) {
	store := newTestStore(t,
		models.Node{ID: "a", Title: "A"},
		models.Node{ID: "b", Title: "B"},
	)
	edge, _, err := store.Connect("a", "b", "")
	require.NoError(t, err)

	require.NoError(t, store.Disconnect(edge.ID))
	require.ErrorIs(t, store.Disconnect(edge.ID), graph.ErrNotFound)

	node, err := store.Node("a")
	require.NoError(t, err)
	require.Empty(t, node.Connections)
}

func TestStore_ApplyEdits_Atomic(t *testing.T) {
	store := newTestStore(t,
		models.Node{ID: "start", Title: "Start"},
		models.Node{ID: "cave", Title: "The Cave"},
	)
	mustConnect(t, store, "start", "cave")
	before := store.Nodes()

	// Batch referencing a missing node must change nothing.
	_, err := store.ApplyEdits(graph.EditBatch{
		NodesToAdd:      []models.Node{{Title: "The Forest"}},
		NodeIDsToDelete: []string{"missing"},
	})
	require.ErrorIs(t, err, graph.ErrNotFound)
	require.Equal(t, before, store.Nodes(), "failed batch applies nothing")

	// Valid batch applies every edit kind at once.
	kind, err := store.ApplyEdits(graph.EditBatch{
		Action:     "expand",
		NodesToAdd: []models.Node{{ID: "forest", Title: "The Forest"}},
		NodesToModify: []models.Node{
			{ID: "start", Title: "Start", Content: "You wake up at a crossroads."},
		},
		NodeIDsToDelete: []string{"cave"},
		NewConnections:  []graph.Connection{{SourceID: "start", TargetID: "forest"}},
	})
	require.NoError(t, err)
	require.Equal(t, graph.MutationAIModified, kind)

	start, err := store.Node("start")
	require.NoError(t, err)
	require.Equal(t, "You wake up at a crossroads.", start.Content)
	require.Len(t, start.Connections, 1)
	require.Equal(t, "forest", start.Connections[0].TargetID)

	_, err = store.Node("cave")
	require.ErrorIs(t, err, graph.ErrNotFound)
}

func TestStore_ApplyEdits_DuplicateDeletesCollapse(t *testing.T) {
	store := newTestStore(t,
		models.Node{ID: "start", Title: "Start"},
		models.Node{ID: "cave", Title: "The Cave"},
	)
	mustConnect(t, store, "start", "cave")

	// Generated batches sometimes list the same delete twice; the whole
	// batch must still apply as one mutation.
	kind, err := store.ApplyEdits(graph.EditBatch{
		Action:          "prune",
		NodesToAdd:      []models.Node{{ID: "forest", Title: "The Forest"}},
		NodeIDsToDelete: []string{"cave", "cave"},
	})
	require.NoError(t, err)
	require.Equal(t, graph.MutationAIModified, kind)

	_, err = store.Node("cave")
	require.ErrorIs(t, err, graph.ErrNotFound)
	_, err = store.Node("forest")
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())
}

func TestStore_Replace(t *testing.T) {
	store := newTestStore(t, models.Node{ID: "a", Title: "A"})

	replacement := []models.Node{
		{ID: "x", Title: "X"},
		{ID: "y", Title: "Y"},
	}
	store.Replace(replacement)
	require.Equal(t, replacement, store.Nodes())

	// The store must not alias the caller's slice.
	replacement[0].Title = "mutated"
	node, err := store.Node("x")
	require.NoError(t, err)
	require.Equal(t, "X", node.Title)
}

func mustConnect(t *testing.T, store *graph.Store, sourceID, targetID string) {
	t.Helper()
	_, _, err := store.Connect(sourceID, targetID, "")
	require.NoError(t, err)
}
