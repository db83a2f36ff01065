// Package gamestate implements the small persistent key/value store carried
// across node transitions during playback, and the allow-list rule that
// clears node-scoped keys on every transition.
package gamestate

import "github.com/storyloom/storyloom/internal/models"

// Global keys survive every node transition. Which of them are active is
// gated by the story's world settings; an inactive tracking feature demotes
// its keys to node-scoped.
const (
	KeyHealth    = "health"
	KeyMaxHealth = "maxHealth"
	KeyCurrency  = "currency"
	KeyInventory = "inventory"
)

// State is the open string-keyed game state, created fresh at playback
// start. During playback a single State instance lives for the whole
// session so that lingering script callbacks keep writing into the same map.
type State map[string]any

// New returns an empty state.
func New() State {
	return State{}
}

// GlobalKeys returns the allow-list of keys exempt from per-node clearing
// under the given world settings.
func GlobalKeys(settings models.WorldSettings) map[string]bool {
	keys := make(map[string]bool, 4)
	if settings.Combat {
		keys[KeyHealth] = true
		keys[KeyMaxHealth] = true
	}
	if settings.Economy {
		keys[KeyCurrency] = true
	}
	if settings.Inventory {
		keys[KeyInventory] = true
	}
	return keys
}

// StripNodeScoped deletes, in place, every key outside the active
// allow-list. It runs on every node entry so that stale per-node variables
// cannot leak into unrelated nodes. Stale asynchronous writes to
// allow-listed keys persist by design.
func (s State) StripNodeScoped(settings models.WorldSettings) {
	global := GlobalKeys(settings)
	for key := range s {
		if !global[key] {
			delete(s, key)
		}
	}
}

// Clone returns a shallow copy of the state, enough for host-side
// inspection: values are the script's own data and are treated as opaque.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
