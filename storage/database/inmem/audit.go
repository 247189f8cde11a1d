package inmem

import (
	"context"
	"sync"

	"github.com/trezcool/darasa/core/audit"
)

// Sink buffers flushed audit entries in memory. DEV/TEST only.
type Sink struct {
	mu      sync.Mutex
	flushes [][]audit.Entry
}

var _ audit.Sink = (*Sink)(nil)

func NewSink() *Sink {
	return &Sink{}
}

func (s *Sink) Write(_ context.Context, entries []audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes = append(s.flushes, entries)
	return nil
}

// Flushes returns a copy of every flush received so far.
func (s *Sink) Flushes() [][]audit.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	flushes := make([][]audit.Entry, len(s.flushes))
	copy(flushes, s.flushes)
	return flushes
}

// Reset drops all recorded flushes.
func (s *Sink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes = nil
}
