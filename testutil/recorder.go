// Package testutil provides shared helpers for tests across packages.
package testutil

import (
	"sync"

	"github.com/comalice/statex"
)

// Recorder captures every snapshot a store notifies, letting a test
// assert on how many commits actually changed state and in what order.
type Recorder[S any] struct {
	mu    sync.Mutex
	snaps []S
}

// NewRecorder creates an empty recorder.
func NewRecorder[S any]() *Recorder[S] {
	return &Recorder[S]{}
}

// Attach subscribes the recorder to the store and returns the cancel func.
func (r *Recorder[S]) Attach(store *statex.Store[S]) (cancel func()) {
	return store.Subscribe(r.Observe)
}

// Observe records one snapshot; usable directly as a subscriber.
func (r *Recorder[S]) Observe(state S) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, state)
}

// Snapshots returns a copy of everything recorded so far.
func (r *Recorder[S]) Snapshots() []S {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]S, len(r.snaps))
	copy(out, r.snaps)
	return out
}

// Len returns how many notifications were recorded.
func (r *Recorder[S]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

// Last returns the most recent snapshot, if any.
func (r *Recorder[S]) Last() (S, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snaps) == 0 {
		var zero S
		return zero, false
	}
	return r.snaps[len(r.snaps)-1], true
}
