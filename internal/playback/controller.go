// Package playback walks a story graph as a sequence of node visits: on
// entry it strips node-scoped game state, runs the node's interaction script
// in the sandbox, and drives the visual-novel presentation sequencing.
package playback

import (
	"log/slog"
	"time"

	"github.com/storyloom/storyloom/internal/errors"
	"github.com/storyloom/storyloom/internal/graph"
	"github.com/storyloom/storyloom/internal/models"
	"github.com/storyloom/storyloom/internal/sandbox"
)

// Status is the controller's top-level state.
type Status string

const (
	// StatusIdle means no node is active yet.
	StatusIdle Status = "idle"
	// StatusActive means the current node is on screen and its script, if
	// any, has been invoked.
	StatusActive Status = "active"
	// StatusEnded means the active node has zero outgoing edges. This is a
	// distinct terminal condition, not an error, so the host can offer
	// restart affordances.
	StatusEnded Status = "ended"
)

var (
	// ErrStaleChoice signals a choice naming an edge that does not belong to
	// the currently active node, defending against stale UI state.
	ErrStaleChoice = errors.NewSentinel("choice does not belong to the active node")
	// ErrNotRevealed signals a choice made before the reveal completed.
	ErrNotRevealed = errors.NewSentinel("content is still revealing")
	// ErrNotActive signals a transition request while no node is active.
	ErrNotActive = errors.NewSentinel("playback is not active")
)

// Controller is the playback state machine for one session. It reads the
// graph, never mutates it.
type Controller struct {
	logger   *slog.Logger
	store    *graph.Store
	settings models.WorldSettings
	engine   *sandbox.Engine
	log      sandbox.LogSink
	surface  sandbox.Surface

	interval  time.Duration
	status    Status
	current   models.Node
	sequencer *Sequencer
	audio     *AudioMixer
}

// NewController builds a session over a fresh sandbox game state.
func NewController(
	logger *slog.Logger,
	store *graph.Store,
	settings models.WorldSettings,
	engine *sandbox.Engine,
	log sandbox.LogSink,
	surface sandbox.Surface,
) *Controller {
	return &Controller{
		logger:   logger.With("source", "playback.Controller"),
		store:    store,
		settings: settings,
		engine:   engine,
		log:      log,
		surface:  surface,
		interval: DefaultRevealInterval,
		status:   StatusIdle,
		audio:    NewAudioMixer(),
	}
}

// SetRevealInterval overrides the typed-text pacing.
func (c *Controller) SetRevealInterval(d time.Duration) {
	c.interval = d
}

// Status returns the controller state.
func (c *Controller) Status() Status {
	return c.status
}

// Current returns the active node, when there is one.
func (c *Controller) Current() (models.Node, bool) {
	if c.status == StatusIdle {
		return models.Node{}, false
	}
	return c.current.Clone(), true
}

// Sequencer exposes the per-activation reveal state machine.
func (c *Controller) Sequencer() *Sequencer {
	return c.sequencer
}

// Audio exposes the active audio channels.
func (c *Controller) Audio() *AudioMixer {
	return c.audio
}

// Start begins traversal at the given node.
func (c *Controller) Start(startID string, now time.Time) error {
	node, err := c.store.Node(startID)
	if err != nil {
		return err
	}
	c.enter(node, now)
	return nil
}

// Choices returns the active node's outgoing edges once the reveal has
// completed; before that, no choice is selectable.
func (c *Controller) Choices() []models.Edge {
	if c.status != StatusActive || c.sequencer.Phase() != Revealed {
		return nil
	}
	return append([]models.Edge(nil), c.current.Connections...)
}

// Choose follows the edge with the given id. The edge must belong to the
// currently active node and the node's content must be revealed.
func (c *Controller) Choose(edgeID string, now time.Time) error {
	if c.status != StatusActive {
		return errors.Wrap(ErrNotActive, "choose", slog.String("edge", edgeID))
	}
	if c.sequencer.Phase() != Revealed {
		return errors.Wrap(ErrNotRevealed, "choose", slog.String("edge", edgeID))
	}
	var edge *models.Edge
	for i := range c.current.Connections {
		if c.current.Connections[i].ID == edgeID {
			edge = &c.current.Connections[i]
			break
		}
	}
	if edge == nil {
		return errors.Wrap(ErrStaleChoice, "choose", slog.String("edge", edgeID))
	}
	target, err := c.store.Node(edge.TargetID)
	if err != nil {
		// Dangling edges are tolerated transiently during editing.
		return err
	}
	c.enter(target, now)
	return nil
}

// Tick advances the reveal pacing.
func (c *Controller) Tick(now time.Time) {
	if c.sequencer != nil {
		c.sequencer.Tick(now)
	}
}

// Skip is the player interrupt for the typed-text reveal.
func (c *Controller) Skip() {
	if c.sequencer != nil {
		c.sequencer.Skip()
	}
}

// DispatchInput forwards a surface input event to the active node's script
// listeners.
func (c *Controller) DispatchInput(event string, payload any) {
	c.engine.Dispatch(event, payload)
}

// Stop releases presentation resources. Lingering script callbacks are not
// killed; per the fire-and-forget rule they can only affect allow-listed
// keys going forward.
func (c *Controller) Stop() {
	c.audio.StopAll()
	c.status = StatusIdle
}

// enter activates a node: strip node-scoped state, run the script, then
// reveal content and start audio.
func (c *Controller) enter(node models.Node, now time.Time) {
	c.engine.StripNodeScoped(c.settings)
	if node.Script != "" {
		// Exceptions are contained inside the sandbox; a broken script
		// degrades interactivity but never halts playback.
		if err := c.engine.Activate(node.Script, c.log, c.surface); err != nil {
			c.logger.Error("sandbox unavailable", errors.SlogError(err))
		}
	}
	c.current = node
	c.sequencer = NewSequencer(node.Content, c.interval, now)
	c.audio.EnterNode(node.AudioCues)
	if len(node.Connections) == 0 {
		c.status = StatusEnded
		c.logger.Debug("traversal ended", "node", node.ID)
	} else {
		c.status = StatusActive
	}
	c.logger.Debug("node entered", "node", node.ID, "title", node.Title)
}
