package policy

import (
	"errors"
	"fmt"
	"io/fs"
	"sync/atomic"
)

// Store publishes the active policy snapshot. Classification reads only ever
// see a complete policy: Reload validates the candidate fully before the
// pointer swap, so a bad document can never leave the engine half-configured.
type Store struct {
	active atomic.Pointer[Policy]
	path   string
}

// NewStore creates a store seeded with the given policy. The policy must
// already be finalized and valid (Parse and Default both guarantee this).
func NewStore(p *Policy) *Store {
	s := &Store{}
	s.active.Store(p)
	return s
}

// Open loads the policy document at path into a new store. If the file does
// not exist the built-in default policy is used instead, so a missing
// document never blocks host startup.
func Open(path string) (*Store, error) {
	p, err := ParseFile(path)
	if err != nil {
		if isNotExist(err) {
			s := NewStore(Default())
			s.path = path
			return s, nil
		}
		return nil, err
	}
	s := NewStore(p)
	s.path = path
	return s, nil
}

// Active returns the current policy snapshot. The returned policy is
// immutable; callers must not modify it.
func (s *Store) Active() *Policy {
	return s.active.Load()
}

// Reload re-reads the backing document and atomically replaces the active
// snapshot. On any failure the previous snapshot stays in force.
func (s *Store) Reload() error {
	if s.path == "" {
		return fmt.Errorf("store has no backing policy file")
	}
	p, err := ParseFile(s.path)
	if err != nil {
		return fmt.Errorf("policy reload rejected: %w", err)
	}
	s.active.Store(p)
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// Replace swaps in an already-validated policy snapshot, for hosts that
// materialize policies from their own configuration source.
func (s *Store) Replace(p *Policy) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("policy replace rejected: %w", err)
	}
	s.active.Store(p)
	return nil
}
