package cursor

import "sync"

// Synchronized serializes access to a Cursor shared between goroutines.
type Synchronized struct {
	mu sync.Mutex
	c  *Cursor
}

// NewSynchronized wraps c. The caller must stop using c directly.
func NewSynchronized(c *Cursor) *Synchronized {
	return &Synchronized{c: c}
}

func (s *Synchronized) List(fragment string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.List(fragment)
}

func (s *Synchronized) Resolve(fragment string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Resolve(fragment)
}

func (s *Synchronized) Position() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Position()
}

func (s *Synchronized) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.Reset()
}

// Root is immutable and needs no lock.
func (s *Synchronized) Root() string {
	return s.c.Root()
}
