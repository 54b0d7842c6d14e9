// Package query provides memoized projections over store snapshots.
//
// Because operators return their input unchanged when nothing changed, a
// projection only needs to recompute when the snapshot identity changes.
// Memo caches on exactly that, making repeated selection from a large
// state tree cheap.
package query

import (
	"sync"

	"github.com/comalice/statex"
	"github.com/comalice/statex/internal/identity"
)

// Memo caches one projection of a state snapshot, keyed by snapshot
// identity. Safe for concurrent use.
type Memo[S, V any] struct {
	mu      sync.Mutex
	project func(S) V
	seen    bool
	lastIn  S
	lastOut V
}

// Cached wraps a projection in a Memo.
func Cached[S, V any](project func(S) V) *Memo[S, V] {
	return &Memo[S, V]{project: project}
}

// Get returns the projection of state, recomputing only when state is
// not identical to the previously projected snapshot.
func (m *Memo[S, V]) Get(state S) V {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.seen && identity.Same(m.lastIn, state) {
		return m.lastOut
	}
	m.lastOut = m.project(state)
	m.lastIn = state
	m.seen = true
	return m.lastOut
}

// Observe wires fn to store commits through memo: fn receives the
// projected value immediately on subscription and then once per commit
// that changes the projection's identity. The returned func cancels the
// subscription.
func Observe[S, V any](store *statex.Store[S], memo *Memo[S, V], fn func(V)) (cancel func()) {
	var mu sync.Mutex
	var last V
	seen := false

	deliver := func(state S) {
		v := memo.Get(state)

		mu.Lock()
		changed := !seen || !identity.Same(last, v)
		last, seen = v, true
		mu.Unlock()

		if changed {
			fn(v)
		}
	}

	// Subscribe before the initial delivery so a commit landing in
	// between is not lost; the identity check above deduplicates the
	// overlap.
	cancel = store.Subscribe(deliver)
	deliver(store.State())
	return cancel
}
