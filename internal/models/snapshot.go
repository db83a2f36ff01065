package models

import "time"

// Snapshot is an immutable, timestamped copy of the entire graph plus the
// master premise text, used for undo/restore. Snapshots never share node
// data with the live graph.
type Snapshot struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	Action      string    `json:"action"`
	Nodes       []Node    `json:"nodes"`
	PremiseText string    `json:"premiseText"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Nodes = CloneNodes(s.Nodes)
	return out
}
