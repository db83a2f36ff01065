package models

// Story is the document handed to the persistence collaborator. It must
// round-trip exactly, so every field carries a JSON tag matching the stored
// schema.
type Story struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	PremiseText   string         `json:"premiseText"`
	Nodes         []Node         `json:"nodes"`
	WorldSettings WorldSettings  `json:"worldSettings"`
	StyleMetadata map[string]any `json:"styleMetadata,omitempty"`
	Versions      []Snapshot     `json:"versions"`
	Characters    []Character    `json:"characters"`
}

// WorldSettings is the fixed set of feature flags that gate which game state
// keys are treated as global during playback.
type WorldSettings struct {
	Inventory bool `json:"inventory"`
	Economy   bool `json:"economy"`
	Combat    bool `json:"combat"`
}

// Character is a recurring cast member referenced by node speaker names and
// sprite overlays.
type Character struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Portrait    string `json:"portrait,omitempty"`
}

// ChatMessage is one entry of the transcript documenting how a node's
// interaction script was iteratively refined.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Clone returns a deep copy of the story.
func (s Story) Clone() Story {
	out := s
	out.Nodes = CloneNodes(s.Nodes)
	if s.StyleMetadata != nil {
		out.StyleMetadata = make(map[string]any, len(s.StyleMetadata))
		for k, v := range s.StyleMetadata {
			out.StyleMetadata[k] = v
		}
	}
	if s.Versions != nil {
		out.Versions = make([]Snapshot, len(s.Versions))
		for i, v := range s.Versions {
			out.Versions[i] = v.Clone()
		}
	}
	if s.Characters != nil {
		out.Characters = append([]Character(nil), s.Characters...)
	}
	return out
}
