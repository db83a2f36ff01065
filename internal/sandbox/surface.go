package sandbox

import "sync"

// Surface is the host-provided area a script may draw interactive content
// into. The sandbox exposes it to scripts both through the render capability
// (wholesale content replacement) and as a handle for attaching input-event
// listeners.
type Surface interface {
	ReplaceContent(html string)
}

// MemorySurface is a Surface backed by a string, used by terminal playback
// and tests. Safe for concurrent use for the same reason as MemoryLog.
type MemorySurface struct {
	mu   sync.RWMutex
	html string
}

func NewMemorySurface() *MemorySurface {
	return &MemorySurface{}
}

func (s *MemorySurface) ReplaceContent(html string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.html = html
}

// HTML returns the current surface contents.
func (s *MemorySurface) HTML() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.html
}
