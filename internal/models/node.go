package models

// MaxSprites caps the number of sprite overlays a single node may declare.
const MaxSprites = 4

type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// MediaRef points at the image or video shown alongside a node's content.
type MediaRef struct {
	URI  string    `json:"uri"`
	Type MediaType `json:"type"`
}

// Position is the node's 2-D layout position in the editor canvas. It is an
// authoring concern only and never affects playback.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type SpriteSlot string

const (
	SpriteSlotLeft   SpriteSlot = "left"
	SpriteSlotCenter SpriteSlot = "center"
	SpriteSlotRight  SpriteSlot = "right"
)

// Sprite is a named character overlay for the visual-novel presentation.
// Pure presentation data with no lifecycle beyond the declaring node.
type Sprite struct {
	Name    string     `json:"name"`
	Image   string     `json:"image"`
	Slot    SpriteSlot `json:"slot"`
	Scale   float64    `json:"scale,omitempty"`
	OffsetY float64    `json:"offsetY,omitempty"`
}

type AudioChannel string

const (
	AudioChannelBackground AudioChannel = "background"
	AudioChannelEffect     AudioChannel = "effect"
)

// AudioCue starts playing when its node is entered. Background cues replace
// the current background track; effect cues play concurrently.
type AudioCue struct {
	URI     string       `json:"uri"`
	Channel AudioChannel `json:"channel"`
	Loop    bool         `json:"loop,omitempty"`
	Volume  float64      `json:"volume,omitempty"`
}

// Edge is a labeled, directed link to another node, presented to the player
// as a choice. The source is implicit: edges live in their source node's
// Connections list. The label denormalizes the target node's title.
type Edge struct {
	ID       string `json:"id"`
	TargetID string `json:"targetId"`
	Label    string `json:"label"`
}

// Node is a single narrative passage plus its optional interaction script,
// media, and visual-novel presentation fields. The id is immutable once
// created; title and content may be empty but are always present.
type Node struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Content    string        `json:"content"`
	Media      *MediaRef     `json:"media,omitempty"`
	Script     string        `json:"script,omitempty"`
	ScriptChat []ChatMessage `json:"scriptChat,omitempty"`
	Position   Position      `json:"position"`

	Background string     `json:"background,omitempty"`
	Speaker    string     `json:"speaker,omitempty"`
	Sprites    []Sprite   `json:"sprites,omitempty"`
	AudioCues  []AudioCue `json:"audioCues,omitempty"`

	Connections []Edge `json:"connections"`
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	out := n
	if n.Media != nil {
		media := *n.Media
		out.Media = &media
	}
	if n.ScriptChat != nil {
		out.ScriptChat = append([]ChatMessage(nil), n.ScriptChat...)
	}
	if n.Sprites != nil {
		out.Sprites = append([]Sprite(nil), n.Sprites...)
	}
	if n.AudioCues != nil {
		out.AudioCues = append([]AudioCue(nil), n.AudioCues...)
	}
	if n.Connections != nil {
		out.Connections = append([]Edge(nil), n.Connections...)
	}
	return out
}

// Equal reports structural equality. It is used to detect no-op updates so
// that they never arm the auto-save debounce.
func (n Node) Equal(other Node) bool {
	if n.ID != other.ID || n.Title != other.Title || n.Content != other.Content ||
		n.Script != other.Script || n.Position != other.Position ||
		n.Background != other.Background || n.Speaker != other.Speaker {
		return false
	}
	if (n.Media == nil) != (other.Media == nil) {
		return false
	}
	if n.Media != nil && *n.Media != *other.Media {
		return false
	}
	if len(n.ScriptChat) != len(other.ScriptChat) ||
		len(n.Sprites) != len(other.Sprites) ||
		len(n.AudioCues) != len(other.AudioCues) ||
		len(n.Connections) != len(other.Connections) {
		return false
	}
	for i := range n.ScriptChat {
		if n.ScriptChat[i] != other.ScriptChat[i] {
			return false
		}
	}
	for i := range n.Sprites {
		if n.Sprites[i] != other.Sprites[i] {
			return false
		}
	}
	for i := range n.AudioCues {
		if n.AudioCues[i] != other.AudioCues[i] {
			return false
		}
	}
	for i := range n.Connections {
		if n.Connections[i] != other.Connections[i] {
			return false
		}
	}
	return true
}

// CloneNodes deep-copies a node slice.
func CloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}
