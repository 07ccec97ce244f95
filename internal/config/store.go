package config

import "sync"

// Store holds the live parameters. The pipeline reads a snapshot once per
// frame; tuning surfaces write through Update or Apply.
type Store struct {
	mu     sync.RWMutex
	params Params
}

// NewStore creates a store holding p. p is not validated; callers that take
// values from outside should go through Apply.
func NewStore(p Params) *Store {
	return &Store{params: p}
}

// Get returns the current parameters.
func (s *Store) Get() Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params
}

// Update applies fn to a copy of the current parameters and stores the
// result if it validates. On error the stored parameters are unchanged.
func (s *Store) Update(fn func(*Params)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.params
	fn(&next)
	if err := next.Validate(); err != nil {
		return err
	}
	s.params = next
	return nil
}

// Apply merges a partial update and returns the resulting parameters.
func (s *Store) Apply(c *TuningConfig) (Params, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := c.ApplyTo(s.params)
	if err != nil {
		return s.params, err
	}
	s.params = next
	return next, nil
}
