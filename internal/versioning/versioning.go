package versioning

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/storyloom/storyloom/internal/errors"
	"github.com/storyloom/storyloom/internal/graph"
	"github.com/storyloom/storyloom/internal/models"
)

// ErrNotFound signals a restore of a non-existent snapshot id.
var ErrNotFound = errors.NewSentinel("snapshot not found")

// Retention is the hard cap on stored snapshots; oldest entries are evicted
// first. Evaluated on every capture, never lazily.
const Retention = 50

// DefaultDebounce is the quiescence window after the last accepted mutation
// before an auto-capture fires.
const DefaultDebounce = 2 * time.Second

// Manager owns the ordered snapshot list and the auto-save debounce
// deadline. It never mutates live nodes: everything captured or restored is
// deep-copied.
type Manager struct {
	logger    *slog.Logger
	debounce  time.Duration
	snapshots []models.Snapshot

	// fingerprint of the most recent snapshot's content, so that back-to-back
	// captures of unchanged state collapse into one.
	fingerprint string

	// deadline is the re-armable auto-capture deadline. Zero means disarmed.
	deadline time.Time
	pending  graph.MutationKind
}

// NewManager seeds the manager with previously persisted snapshots, newest
// last.
func NewManager(logger *slog.Logger, snapshots []models.Snapshot) *Manager {
	m := &Manager{
		logger:   logger.With("source", "versioning.Manager"),
		debounce: DefaultDebounce,
	}
	for _, s := range snapshots {
		m.snapshots = append(m.snapshots, s.Clone())
	}
	if len(m.snapshots) > 0 {
		latest := m.snapshots[len(m.snapshots)-1]
		m.fingerprint = fingerprint(latest.Nodes, latest.PremiseText)
	}
	return m
}

// SetDebounce overrides the auto-capture quiescence window.
func (m *Manager) SetDebounce(d time.Duration) {
	m.debounce = d
}

// List returns deep copies of all snapshots, newest last.
func (m *Manager) List() []models.Snapshot {
	out := make([]models.Snapshot, len(m.snapshots))
	for i, s := range m.snapshots {
		out[i] = s.Clone()
	}
	return out
}

// CaptureIfChanged appends a snapshot of (nodes, premise) unless its content
// fingerprint matches the most recent snapshot, in which case the call is a
// no-op. After append the list is truncated to the Retention newest entries.
func (m *Manager) CaptureIfChanged(nodes []models.Node, premise, action string) (models.Snapshot, bool) {
	if fingerprint(nodes, premise) == m.fingerprint && len(m.snapshots) > 0 {
		return models.Snapshot{}, false
	}
	return m.Capture(nodes, premise, action), true
}

// Capture appends a snapshot unconditionally, bypassing the duplicate check.
// Restoration markers use it so that restoring the most recent snapshot is
// still recorded even though the content is unchanged.
func (m *Manager) Capture(nodes []models.Node, premise, action string) models.Snapshot {
	snapshot := models.Snapshot{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now(),
		Action:      action,
		Nodes:       models.CloneNodes(nodes),
		PremiseText: premise,
	}
	m.snapshots = append(m.snapshots, snapshot)
	if len(m.snapshots) > Retention {
		m.snapshots = m.snapshots[len(m.snapshots)-Retention:]
	}
	m.fingerprint = fingerprint(nodes, premise)
	m.logger.Debug("snapshot captured", "id", snapshot.ID, "action", action, "count", len(m.snapshots))
	return snapshot.Clone()
}

// Restore returns a deep copy of the snapshot with the given id. The caller
// replaces the live graph and premise wholesale and then performs a
// follow-up capture describing the restoration, so restores are themselves
// undoable.
func (m *Manager) Restore(id string) (models.Snapshot, error) {
	for _, s := range m.snapshots {
		if s.ID == id {
			return s.Clone(), nil
		}
	}
	return models.Snapshot{}, errors.Wrap(ErrNotFound, "restore", slog.String("id", id))
}

// MarkDirty re-arms the auto-capture deadline after an accepted mutation.
// A new qualifying mutation always resets the deadline, so a capture
// reflects the latest state only, never an intermediate one.
func (m *Manager) MarkDirty(kind graph.MutationKind, now time.Time) {
	if kind == graph.MutationNone {
		return
	}
	m.deadline = now.Add(m.debounce)
	m.pending = kind
}

// Due reports whether the armed deadline has passed.
func (m *Manager) Due(now time.Time) bool {
	return !m.deadline.IsZero() && !now.Before(m.deadline)
}

// Tick fires the pending auto-capture when the deadline is due. The deadline
// is disarmed regardless of whether the capture produced a new snapshot.
func (m *Manager) Tick(nodes []models.Node, premise string, now time.Time) (models.Snapshot, bool) {
	if !m.Due(now) {
		return models.Snapshot{}, false
	}
	kind := m.pending
	m.deadline = time.Time{}
	m.pending = graph.MutationNone
	return m.CaptureIfChanged(nodes, premise, ActionLabel(kind))
}

// ActionLabel renders a mutation kind as the human-readable snapshot action.
func ActionLabel(kind graph.MutationKind) string {
	switch kind {
	case graph.MutationAdded:
		return "Added node"
	case graph.MutationRenamed:
		return "Renamed node"
	case graph.MutationUpdated:
		return "Edited node"
	case graph.MutationConnected:
		return "Connected nodes"
	case graph.MutationDisconnected:
		return "Disconnected nodes"
	case graph.MutationDeleted:
		return "Deleted node"
	case graph.MutationAIModified:
		return "Applied AI changes"
	case graph.MutationRestored:
		return "Restored version"
	case graph.MutationPremise:
		return "Edited premise"
	default:
		return "Edited story"
	}
}

// fingerprint hashes the canonical JSON of the captured content.
func fingerprint(nodes []models.Node, premise string) string {
	payload, err := json.Marshal(struct {
		Nodes   []models.Node `json:"nodes"`
		Premise string        `json:"premise"`
	}{Nodes: nodes, Premise: premise})
	if err != nil {
		// Node marshaling cannot fail: the model is plain data.
		panic(err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
