// Package lease serializes recommendation runs per user.
//
// Each user has a weighted semaphore with a single slot. A holder keeps
// the lease for the whole generation pipeline, so two runs for the same
// user can never interleave, while runs for different users proceed
// fully concurrently.
package lease

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// ErrBusy signals that another generation run already holds the lease.
var ErrBusy = errors.New("a recommendation run is already in progress for this user")

type userLease struct {
	sem  *semaphore.Weighted
	refs int
}

// Table is the per-user lease table. The zero value is not usable,
// construct it with NewTable.
type Table struct {
	mu     sync.Mutex
	leases map[uuid.UUID]*userLease
}

func NewTable() *Table {
	return &Table{
		leases: make(map[uuid.UUID]*userLease),
	}
}

// Acquire blocks until the user's lease is free or the context expires.
// The returned release function must be called exactly once.
func (t *Table) Acquire(ctx context.Context, userID uuid.UUID) (func(), error) {
	l := t.checkout(userID)

	if err := l.sem.Acquire(ctx, 1); err != nil {
		t.checkin(userID)
		return nil, err
	}

	return t.releaseFunc(userID, l), nil
}

// TryAcquire acquires the user's lease without waiting. It returns
// ErrBusy when another run holds it.
func (t *Table) TryAcquire(userID uuid.UUID) (func(), error) {
	l := t.checkout(userID)

	if !l.sem.TryAcquire(1) {
		t.checkin(userID)
		return nil, ErrBusy
	}

	return t.releaseFunc(userID, l), nil
}

// Held reports whether the user's lease is currently held. This is a
// snapshot for introspection, not a synchronization primitive.
func (t *Table) Held(userID uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.leases[userID]
	return ok && l.refs > 0
}

func (t *Table) releaseFunc(userID uuid.UUID, l *userLease) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			l.sem.Release(1)
			t.checkin(userID)
		})
	}
}

// checkout returns the user's lease entry, creating it on first use.
// The reference count keeps the map from growing without bound.
func (t *Table) checkout(userID uuid.UUID) *userLease {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.leases[userID]
	if !ok {
		l = &userLease{sem: semaphore.NewWeighted(1)}
		t.leases[userID] = l
	}
	l.refs++

	return l
}

func (t *Table) checkin(userID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.leases[userID]
	if !ok {
		return
	}

	l.refs--
	if l.refs <= 0 {
		delete(t.leases, userID)
	}
}
