package statex

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/comalice/statex/internal/identity"
)

var (
	// ErrUnhandledAction is returned by Dispatch when no handler is
	// registered for the action type.
	ErrUnhandledAction = errors.New("no handler registered for action type")

	// ErrNoPersister is returned by Checkpoint and Restore on a store
	// built without a persister.
	ErrNoPersister = errors.New("store has no persister configured")

	// ErrSnapshotNotFound is returned by Persister implementations when
	// the requested store or version does not exist.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// Action carries a dispatch through the store to its registered handler.
type Action struct {
	Type    string
	Payload any
}

// ActionHandler turns an action into the operator describing its state
// transition. Returning nil means the action changes nothing.
type ActionHandler[S any] func(ctx context.Context, act Action) Operator[S]

// Snapshot is one persisted version of a store's state.
type Snapshot[S any] struct {
	StoreID   string    `json:"store_id" yaml:"store_id"`
	Version   string    `json:"version" yaml:"version"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	State     S         `json:"state" yaml:"state"`
}

// Persister saves and restores versioned snapshots. Implementations live
// in the persist package; the store only depends on this contract.
type Persister[S any] interface {
	// Save stores the snapshot, assigning a version when it carries none,
	// and returns the version it was stored under.
	Save(ctx context.Context, snap Snapshot[S]) (version string, err error)

	// Latest returns the most recent snapshot for storeID.
	Latest(ctx context.Context, storeID string) (Snapshot[S], error)

	// Version returns the snapshot stored under a specific version.
	Version(ctx context.Context, storeID, version string) (Snapshot[S], error)

	// ListVersions returns the versions stored for storeID, newest first.
	ListVersions(ctx context.Context, storeID string) ([]string, error)
}

// Store holds one immutable state tree and applies operators to it.
//
// All mutation funnels through a single commit path that reads the
// current snapshot, invokes the operator, and installs the result while
// holding the write lock, so no operator ever observes a snapshot that is
// concurrently being replaced. Subscribers are notified after the commit,
// outside the lock, and only when the snapshot identity actually changed.
type Store[S any] struct {
	mu    sync.Mutex
	state S

	// Changed snapshots queue under mu in commit order; a single
	// delivering goroutine drains them so subscribers never observe
	// commits out of order.
	pending    []S
	delivering bool

	handlers map[string]ActionHandler[S]

	subMu   sync.Mutex
	subs    map[int]func(S)
	nextSub int

	persister Persister[S]
	storeID   string
}

// Option configures a Store at construction time.
type Option[S any] func(*Store[S])

// WithHandler registers an action handler for actionType. A later
// registration for the same type overwrites the earlier one; use
// StoreBuilder for duplicate detection.
func WithHandler[S any](actionType string, h ActionHandler[S]) Option[S] {
	return func(s *Store[S]) {
		s.handlers[actionType] = h
	}
}

// WithPersister configures snapshot persistence; storeID keys this
// store's snapshots within the persister.
func WithPersister[S any](p Persister[S], storeID string) Option[S] {
	return func(s *Store[S]) {
		s.persister = p
		s.storeID = storeID
	}
}

// NewStore creates a store holding initial.
func NewStore[S any](initial S, opts ...Option[S]) *Store[S] {
	s := &Store[S]{
		state:    initial,
		handlers: make(map[string]ActionHandler[S]),
		subs:     make(map[int]func(S)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current snapshot.
func (s *Store[S]) State() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetState commits the next snapshot and returns it. next is either a
// literal S or an Operator[S] (a bare func(S) S also works); an operator
// is invoked with the current snapshot inside the commit critical
// section. Anything else panics.
func (s *Store[S]) SetState(next any) S {
	return s.commit(next)
}

// Apply composes the given operators and commits the result.
func (s *Store[S]) Apply(ops ...Operator[S]) S {
	return s.commit(Compose(ops...))
}

// Dispatch routes the action to its handler and commits the operator the
// handler returns. The pre-dispatch snapshot is returned together with
// ErrUnhandledAction when no handler matches.
func (s *Store[S]) Dispatch(ctx context.Context, act Action) (S, error) {
	op, err := s.Reduce(ctx, act)
	if err != nil {
		return s.State(), err
	}
	if op == nil {
		return s.State(), nil
	}
	return s.commit(op), nil
}

// Reduce returns the operator a dispatch of act would commit, without
// committing it. Batching layers use this to coalesce several actions
// into a single commit.
func (s *Store[S]) Reduce(ctx context.Context, act Action) (Operator[S], error) {
	h, ok := s.handlers[act.Type]
	if !ok {
		return nil, fmt.Errorf("dispatch %q: %w", act.Type, ErrUnhandledAction)
	}
	return h(ctx, act), nil
}

// Subscribe registers fn to observe every commit that changes the
// snapshot identity. Reference-preserving no-ops do not notify. The
// returned func cancels the subscription.
func (s *Store[S]) Subscribe(fn func(S)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// Checkpoint saves the current snapshot through the configured persister
// and returns the version it was stored under.
func (s *Store[S]) Checkpoint(ctx context.Context) (string, error) {
	if s.persister == nil {
		return "", ErrNoPersister
	}
	snap := Snapshot[S]{
		StoreID:   s.storeID,
		Timestamp: time.Now().UTC(),
		State:     s.State(),
	}
	version, err := s.persister.Save(ctx, snap)
	if err != nil {
		return "", fmt.Errorf("checkpoint %q: %w", s.storeID, err)
	}
	return version, nil
}

// Restore loads the latest persisted snapshot and commits its state.
func (s *Store[S]) Restore(ctx context.Context) (S, error) {
	if s.persister == nil {
		var zero S
		return zero, ErrNoPersister
	}
	snap, err := s.persister.Latest(ctx, s.storeID)
	if err != nil {
		var zero S
		return zero, fmt.Errorf("restore %q: %w", s.storeID, err)
	}
	return s.commit(snap.State), nil
}

// RestoreVersion loads a specific persisted version and commits its state.
func (s *Store[S]) RestoreVersion(ctx context.Context, version string) (S, error) {
	if s.persister == nil {
		var zero S
		return zero, ErrNoPersister
	}
	snap, err := s.persister.Version(ctx, s.storeID, version)
	if err != nil {
		var zero S
		return zero, fmt.Errorf("restore %q version %q: %w", s.storeID, version, err)
	}
	return s.commit(snap.State), nil
}

// commit is the read-invoke-commit critical section. Changed
// snapshots are enqueued while mu is still held so the delivery
// order matches the commit order.
func (s *Store[S]) commit(next any) S {
	s.mu.Lock()
	prev := s.state
	var value S
	switch v := next.(type) {
	case Operator[S]:
		value = v(prev)
	case func(S) S:
		value = v(prev)
	default:
		value = asState[S](next, "SetState value")
	}
	s.state = value
	changed := !identity.Same(value, prev)
	if changed {
		s.pending = append(s.pending, value)
	}
	s.mu.Unlock()

	if changed {
		s.deliver()
	}
	return value
}

// deliver drains queued snapshots to subscribers. Only one goroutine
// delivers at a time; commits landing mid-drain are picked up on the
// next loop iteration, so a subscriber committing from its callback
// does not deadlock.
func (s *Store[S]) deliver() {
	for {
		s.mu.Lock()
		if s.delivering || len(s.pending) == 0 {
			s.mu.Unlock()
			return
		}
		s.delivering = true
		queued := s.pending
		s.pending = nil
		s.mu.Unlock()

		for _, snap := range queued {
			s.notify(snap)
		}

		s.mu.Lock()
		s.delivering = false
		s.mu.Unlock()
	}
}

func (s *Store[S]) notify(state S) {
	s.subMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids) // subscription order
	fns := make([]func(S), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}
