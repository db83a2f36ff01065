// Package editor coordinates the graph store and the version manager for a
// single story being authored: every accepted mutation re-arms the auto-save
// debounce, and restores are stop-the-world replaces followed by their own
// capture.
package editor

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/storyloom/storyloom/internal/graph"
	"github.com/storyloom/storyloom/internal/models"
	"github.com/storyloom/storyloom/internal/versioning"
)

// Workspace owns the live editing state of one story.
type Workspace struct {
	logger   *slog.Logger
	store    *graph.Store
	versions *versioning.Manager
	story    models.Story
}

// NewWorkspace opens a story document for editing.
func NewWorkspace(logger *slog.Logger, story models.Story) *Workspace {
	story = story.Clone()
	return &Workspace{
		logger:   logger.With("source", "editor.Workspace", "story", story.ID),
		store:    graph.NewStore(logger, story.Nodes),
		versions: versioning.NewManager(logger, story.Versions),
		story:    story,
	}
}

// Store exposes read-only traversal and lookups for playback.
func (w *Workspace) Store() *graph.Store {
	return w.store
}

// Versions exposes the snapshot list.
func (w *Workspace) Versions() *versioning.Manager {
	return w.versions
}

// Story assembles the current document for persistence.
func (w *Workspace) Story() models.Story {
	story := w.story.Clone()
	story.Nodes = w.store.Nodes()
	story.Versions = w.versions.List()
	return story
}

// PremiseText returns the master premise.
func (w *Workspace) PremiseText() string {
	return w.story.PremiseText
}

// SetPremiseText updates the master premise and arms the debounce.
func (w *Workspace) SetPremiseText(premise string) {
	if premise == w.story.PremiseText {
		return
	}
	w.story.PremiseText = premise
	w.versions.MarkDirty(graph.MutationPremise, time.Now())
}

// AddNode inserts a node and arms the debounce.
func (w *Workspace) AddNode(node models.Node) (models.Node, error) {
	added, err := w.store.AddNode(node)
	if err != nil {
		return models.Node{}, err
	}
	w.versions.MarkDirty(graph.MutationAdded, time.Now())
	return added, nil
}

// UpdateNode patches a node; structurally equal patches never arm the
// debounce.
func (w *Workspace) UpdateNode(id string, patch models.Node) error {
	kind, err := w.store.UpdateNode(id, patch)
	if err != nil {
		return err
	}
	w.versions.MarkDirty(kind, time.Now())
	return nil
}

// RemoveNode deletes a node, cascading edge removal, and arms the debounce.
func (w *Workspace) RemoveNode(id string) error {
	if err := w.store.RemoveNode(id); err != nil {
		return err
	}
	w.versions.MarkDirty(graph.MutationDeleted, time.Now())
	return nil
}

// Connect links two nodes and arms the debounce unless the edge already
// existed.
func (w *Workspace) Connect(sourceID, targetID, label string) (models.Edge, error) {
	edge, kind, err := w.store.Connect(sourceID, targetID, label)
	if err != nil {
		return models.Edge{}, err
	}
	w.versions.MarkDirty(kind, time.Now())
	return edge, nil
}

// Disconnect removes an edge and arms the debounce.
func (w *Workspace) Disconnect(edgeID string) error {
	if err := w.store.Disconnect(edgeID); err != nil {
		return err
	}
	w.versions.MarkDirty(graph.MutationDisconnected, time.Now())
	return nil
}

// ApplyEdits applies a generated edit batch atomically and arms the
// debounce.
func (w *Workspace) ApplyEdits(batch graph.EditBatch) error {
	kind, err := w.store.ApplyEdits(batch)
	if err != nil {
		return err
	}
	w.versions.MarkDirty(kind, time.Now())
	return nil
}

// Save captures a snapshot immediately with an explicit action label,
// bypassing the debounce.
func (w *Workspace) Save(action string) (models.Snapshot, bool) {
	return w.versions.CaptureIfChanged(w.store.Nodes(), w.story.PremiseText, action)
}

// Tick fires the pending auto-capture when the debounce deadline is due.
func (w *Workspace) Tick(now time.Time) (models.Snapshot, bool) {
	return w.versions.Tick(w.store.Nodes(), w.story.PremiseText, now)
}

// RestoreVersion replaces the live graph and premise with the snapshot's
// deep-copied contents, then immediately captures the restoration so it is
// itself undoable.
func (w *Workspace) RestoreVersion(id string) error {
	snapshot, err := w.versions.Restore(id)
	if err != nil {
		return err
	}
	w.store.Replace(snapshot.Nodes)
	w.story.PremiseText = snapshot.PremiseText
	label := fmt.Sprintf("%s (%s)", versioning.ActionLabel(graph.MutationRestored),
		snapshot.CreatedAt.Format(time.RFC3339))
	// Forced so that restoring the latest snapshot is recorded too.
	w.versions.Capture(w.store.Nodes(), w.story.PremiseText, label)
	w.logger.Info("version restored", "snapshot", id)
	return nil
}
