package collection

import (
	"sync"

	"github.com/jmhodges/clock"
)

// IDSource mints strictly increasing ids that stay close to the creation
// time in milliseconds. Two entities created within the same millisecond,
// or next to ids minted by another process with a faster clock, still get
// distinct ids.
type IDSource struct {
	mu    sync.Mutex
	clock clock.Clock
	last  int64
}

// NewIDSource creates an id source reading time from clk.
func NewIDSource(clk clock.Clock) *IDSource {
	if clk == nil {
		clk = clock.New()
	}
	return &IDSource{clock: clk}
}

// Next returns max(now, last issued + 1, maxExisting + 1).
func (s *IDSource) Next(maxExisting int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.clock.Now().UnixMilli()
	if id <= s.last {
		id = s.last + 1
	}
	if id <= maxExisting {
		id = maxExisting + 1
	}
	s.last = id
	return id
}
