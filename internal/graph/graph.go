package graph

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/storyloom/storyloom/internal/errors"
	"github.com/storyloom/storyloom/internal/models"
)

var (
	// ErrNotFound signals a reference to a missing node or edge id. It is
	// non-fatal: the caller sees no change.
	ErrNotFound = errors.NewSentinel("not found")
	// ErrExists signals an attempt to add a node with an id already in use.
	ErrExists = errors.NewSentinel("node already exists")
)

// MutationKind describes an accepted graph mutation. The version manager
// turns kinds into human-readable snapshot action labels.
type MutationKind string

const (
	MutationNone         MutationKind = ""
	MutationAdded        MutationKind = "added"
	MutationUpdated      MutationKind = "updated"
	MutationRenamed      MutationKind = "renamed"
	MutationConnected    MutationKind = "connected"
	MutationDisconnected MutationKind = "disconnected"
	MutationDeleted      MutationKind = "deleted"
	MutationAIModified   MutationKind = "ai-modified"
	MutationRestored     MutationKind = "restored"
	MutationPremise      MutationKind = "premise-edited"
)

// Connection names a requested edge inside an EditBatch.
type Connection struct {
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
	Label    string `json:"label,omitempty"`
}

// EditBatch is the structured edit set returned by the text-generation
// collaborator. Any subset of the edit kinds may be present; the batch is
// applied atomically.
type EditBatch struct {
	Action          string        `json:"action"`
	NodesToAdd      []models.Node `json:"nodesToAdd,omitempty"`
	NodesToModify   []models.Node `json:"nodesToModify,omitempty"`
	NodeIDsToDelete []string      `json:"nodeIdsToDelete,omitempty"`
	NewConnections  []Connection  `json:"newConnections,omitempty"`
	Message         string        `json:"message,omitempty"`
}

// Store owns the canonical list of narrative nodes and their outgoing
// connections and enforces referential integrity. Nodes keep document order
// so the story round-trips exactly through persistence.
//
// Store is not safe for concurrent use; the host serializes all mutations
// through its event loop.
type Store struct {
	logger *slog.Logger
	nodes  []models.Node
	index  map[string]int
}

// NewStore builds a store over the given nodes. The slice is deep-copied.
func NewStore(logger *slog.Logger, nodes []models.Node) *Store {
	s := &Store{
		logger: logger.With("source", "graph.Store"),
	}
	s.Replace(nodes)
	return s
}

// Replace swaps the live graph wholesale, e.g. when restoring a snapshot.
func (s *Store) Replace(nodes []models.Node) {
	s.nodes = models.CloneNodes(nodes)
	if s.nodes == nil {
		s.nodes = []models.Node{}
	}
	s.reindex()
}

func (s *Store) reindex() {
	s.index = make(map[string]int, len(s.nodes))
	for i, n := range s.nodes {
		s.index[n.ID] = i
	}
}

// Nodes returns a deep copy of every node in document order.
func (s *Store) Nodes() []models.Node {
	return models.CloneNodes(s.nodes)
}

// Len returns the number of nodes.
func (s *Store) Len() int {
	return len(s.nodes)
}

// Node returns a deep copy of the node with the given id.
func (s *Store) Node(id string) (models.Node, error) {
	i, ok := s.index[id]
	if !ok {
		return models.Node{}, errors.Wrap(ErrNotFound, "node", slog.String("id", id))
	}
	return s.nodes[i].Clone(), nil
}

// AddNode inserts a node, assigning an id when the node carries none.
func (s *Store) AddNode(node models.Node) (models.Node, error) {
	if node.ID == "" {
		node.ID = uuid.NewString()
	}
	if _, ok := s.index[node.ID]; ok {
		return models.Node{}, errors.Wrap(ErrExists, "add node", slog.String("id", node.ID))
	}
	s.nodes = append(s.nodes, node.Clone())
	s.index[node.ID] = len(s.nodes) - 1
	s.logger.Debug("node added", "id", node.ID, "title", node.Title)
	return node, nil
}

// UpdateNode replaces the node with the given id by the patch. A patch that
// is structurally equal to the current value is a no-op and reports
// MutationNone, so spurious edits never trigger downstream auto-save.
// When the title changes, every edge elsewhere in the graph that targets the
// node has its label rewritten to the new title.
func (s *Store) UpdateNode(id string, patch models.Node) (MutationKind, error) {
	i, ok := s.index[id]
	if !ok {
		return MutationNone, errors.Wrap(ErrNotFound, "update node", slog.String("id", id))
	}
	patch.ID = id
	current := s.nodes[i]
	if current.Equal(patch) {
		return MutationNone, nil
	}
	renamed := current.Title != patch.Title
	s.nodes[i] = patch.Clone()
	if renamed {
		s.syncEdgeLabels(id, patch.Title)
		s.logger.Debug("node renamed", "id", id, "title", patch.Title)
		return MutationRenamed, nil
	}
	s.logger.Debug("node updated", "id", id)
	return MutationUpdated, nil
}

// RemoveNode deletes a node and cascades: every edge in every remaining node
// whose target is the removed id is stripped, so no dangling edges survive.
func (s *Store) RemoveNode(id string) error {
	i, ok := s.index[id]
	if !ok {
		return errors.Wrap(ErrNotFound, "remove node", slog.String("id", id))
	}
	s.nodes = append(s.nodes[:i], s.nodes[i+1:]...)
	for j := range s.nodes {
		s.nodes[j].Connections = pruneEdges(s.nodes[j].Connections, id)
	}
	s.reindex()
	s.logger.Debug("node removed", "id", id)
	return nil
}

func pruneEdges(edges []models.Edge, targetID string) []models.Edge {
	kept := edges[:0]
	for _, e := range edges {
		if e.TargetID != targetID {
			kept = append(kept, e)
		}
	}
	return kept
}

// Connect adds an edge from source to target. A (source, target) pair that
// already has an edge is a silent no-op returning the existing edge. An
// empty label defaults to the target node's title.
func (s *Store) Connect(sourceID, targetID, label string) (models.Edge, MutationKind, error) {
	si, ok := s.index[sourceID]
	if !ok {
		return models.Edge{}, MutationNone, errors.Wrap(ErrNotFound, "connect source", slog.String("id", sourceID))
	}
	ti, ok := s.index[targetID]
	if !ok {
		return models.Edge{}, MutationNone, errors.Wrap(ErrNotFound, "connect target", slog.String("id", targetID))
	}
	for _, e := range s.nodes[si].Connections {
		if e.TargetID == targetID {
			return e, MutationNone, nil
		}
	}
	if label == "" {
		label = s.nodes[ti].Title
	}
	edge := models.Edge{
		ID:       uuid.NewString(),
		TargetID: targetID,
		Label:    label,
	}
	s.nodes[si].Connections = append(s.nodes[si].Connections, edge)
	s.logger.Debug("nodes connected", "source", sourceID, "target", targetID)
	return edge, MutationConnected, nil
}

// Disconnect removes the edge with the given id from whichever node owns it.
func (s *Store) Disconnect(edgeID string) error {
	for i := range s.nodes {
		for j, e := range s.nodes[i].Connections {
			if e.ID == edgeID {
				s.nodes[i].Connections = append(s.nodes[i].Connections[:j], s.nodes[i].Connections[j+1:]...)
				s.logger.Debug("edge removed", "edge", edgeID, "source", s.nodes[i].ID)
				return nil
			}
		}
	}
	return errors.Wrap(ErrNotFound, "disconnect", slog.String("edge", edgeID))
}

// syncEdgeLabels rewrites the label of every edge targeting id. Labels
// denormalize the target's title for display; this is the one derived-data
// fix-up the store performs.
func (s *Store) syncEdgeLabels(id, title string) {
	for i := range s.nodes {
		for j := range s.nodes[i].Connections {
			if s.nodes[i].Connections[j].TargetID == id {
				s.nodes[i].Connections[j].Label = title
			}
		}
	}
}

// ApplyEdits applies a generated edit batch as a single atomic mutation:
// everything is validated against the post-add, post-delete shape of the
// graph before any change lands, so a failed batch changes nothing.
func (s *Store) ApplyEdits(batch EditBatch) (MutationKind, error) {
	adds := make([]models.Node, len(batch.NodesToAdd))
	ids := make(map[string]bool, len(s.nodes)+len(batch.NodesToAdd))
	for id := range s.index {
		ids[id] = true
	}
	for i, n := range batch.NodesToAdd {
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		if ids[n.ID] {
			return MutationNone, errors.Wrap(ErrExists, "batch add", slog.String("id", n.ID))
		}
		ids[n.ID] = true
		adds[i] = n
	}
	for _, n := range batch.NodesToModify {
		if _, ok := s.index[n.ID]; !ok {
			return MutationNone, errors.Wrap(ErrNotFound, "batch modify", slog.String("id", n.ID))
		}
	}
	deletes := make([]string, 0, len(batch.NodeIDsToDelete))
	for _, id := range batch.NodeIDsToDelete {
		if _, ok := s.index[id]; !ok {
			return MutationNone, errors.Wrap(ErrNotFound, "batch delete", slog.String("id", id))
		}
		if !ids[id] {
			// Repeated deletes of the same id collapse into one.
			continue
		}
		ids[id] = false
		deletes = append(deletes, id)
	}
	for _, c := range batch.NewConnections {
		if !ids[c.SourceID] {
			return MutationNone, errors.Wrap(ErrNotFound, "batch connect source", slog.String("id", c.SourceID))
		}
		if !ids[c.TargetID] {
			return MutationNone, errors.Wrap(ErrNotFound, "batch connect target", slog.String("id", c.TargetID))
		}
	}

	for _, n := range adds {
		if _, err := s.AddNode(n); err != nil {
			return MutationNone, err
		}
	}
	for _, n := range batch.NodesToModify {
		if _, err := s.UpdateNode(n.ID, n); err != nil {
			return MutationNone, err
		}
	}
	for _, id := range deletes {
		if err := s.RemoveNode(id); err != nil {
			return MutationNone, err
		}
	}
	for _, c := range batch.NewConnections {
		if _, _, err := s.Connect(c.SourceID, c.TargetID, c.Label); err != nil {
			return MutationNone, err
		}
	}
	s.logger.Debug("edit batch applied",
		"added", len(adds),
		"modified", len(batch.NodesToModify),
		"deleted", len(deletes),
		"connected", len(batch.NewConnections))
	return MutationAIModified, nil
}
