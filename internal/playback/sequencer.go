package playback

import "time"

// RevealPhase is the per-activation presentation sub-state.
type RevealPhase string

const (
	// Revealing discloses content incrementally, one rune per interval.
	Revealing RevealPhase = "revealing"
	// Revealed means the interval completed naturally or the player
	// interrupted it. Choices become selectable only once Revealed.
	Revealed RevealPhase = "revealed"
)

// DefaultRevealInterval is the fixed delay between disclosed runes.
const DefaultRevealInterval = 40 * time.Millisecond

// Sequencer is the typed-text reveal state machine for one node activation.
// It is driven by an injected clock tick rather than its own timer, so the
// host event loop stays the single scheduler.
type Sequencer struct {
	content  []rune
	visible  int
	interval time.Duration
	next     time.Time
}

// NewSequencer starts revealing content at now.
func NewSequencer(content string, interval time.Duration, now time.Time) *Sequencer {
	if interval <= 0 {
		interval = DefaultRevealInterval
	}
	return &Sequencer{
		content:  []rune(content),
		interval: interval,
		next:     now.Add(interval),
	}
}

// Tick discloses every rune whose deadline has passed.
func (s *Sequencer) Tick(now time.Time) {
	for s.visible < len(s.content) && !now.Before(s.next) {
		s.visible++
		s.next = s.next.Add(s.interval)
	}
}

// Skip is the player interrupt: the remaining content is disclosed at once.
func (s *Sequencer) Skip() {
	s.visible = len(s.content)
}

// Phase reports whether the reveal has completed.
func (s *Sequencer) Phase() RevealPhase {
	if s.visible >= len(s.content) {
		return Revealed
	}
	return Revealing
}

// Visible returns the currently disclosed prefix of the content.
func (s *Sequencer) Visible() string {
	return string(s.content[:s.visible])
}
