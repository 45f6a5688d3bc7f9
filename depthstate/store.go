package depthstate

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

// A Source hands out exclusive read access to the current snapshot. The returned release func must
// be called exactly once, and nothing read from the snapshot may be kept after it is.
type Source interface {
	Acquire(ctx context.Context) (*Snapshot, func(), error)
}

// Store is an in-process Source. The estimator writes through Update and readers go through
// Acquire; both take the same exclusive slot.
type Store struct {
	sem      *semaphore.Weighted
	snapshot *Snapshot
}

// NewStore returns a Store holding initial, which may be nil until the first Update.
func NewStore(initial *Snapshot) *Store {
	return &Store{
		sem:      semaphore.NewWeighted(1),
		snapshot: initial,
	}
}

func (s *Store) lock(ctx context.Context) error {
	return errors.Wrap(s.sem.Acquire(ctx, 1), "waiting for depth snapshot")
}

func (s *Store) unlock() {
	s.sem.Release(1)
}

// Acquire waits for exclusive access or for ctx to end.
func (s *Store) Acquire(ctx context.Context) (*Snapshot, func(), error) {
	if err := s.lock(ctx); err != nil {
		return nil, nil, err
	}
	if s.snapshot == nil {
		s.unlock()
		return nil, nil, newIncompleteSnapshotError("snapshot")
	}
	released := false
	return s.snapshot, func() {
		if released {
			return
		}
		released = true
		s.unlock()
	}, nil
}

// Update runs fn against the held snapshot while no reader has access. A nil snapshot is replaced
// by an empty one before fn runs.
func (s *Store) Update(ctx context.Context, fn func(*Snapshot)) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.unlock()
	if s.snapshot == nil {
		s.snapshot = &Snapshot{}
	}
	fn(s.snapshot)
	return nil
}
