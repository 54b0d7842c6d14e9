package batch_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/statex"
	"github.com/comalice/statex/batch"
	"github.com/comalice/statex/testutil"
)

func newListStore() *statex.Store[[]string] {
	return statex.NewStore[[]string](nil,
		statex.WithHandler("add", func(ctx context.Context, act statex.Action) statex.Operator[[]string] {
			return statex.Append(act.Payload.(string))
		}),
	)
}

func TestFlushCoalescesIntoOneCommit(t *testing.T) {
	store := newListStore()
	rec := testutil.NewRecorder[[]string]()
	defer rec.Attach(store)()

	rt := batch.NewRuntime(store, batch.Config{})

	rt.Enqueue(statex.Action{Type: "add", Payload: "a"})
	rt.EnqueueOp(statex.InsertItem("z", 0))
	rt.Enqueue(statex.Action{Type: "add", Payload: "b"})

	require.Zero(t, rec.Len(), "nothing should commit before the flush")
	require.NoError(t, rt.Flush(context.Background()))

	assert.Equal(t, []string{"z", "a", "b"}, store.State(), "entries apply in submission order")
	assert.Equal(t, 1, rec.Len(), "one tick, one notification")
}

func TestFlushReportsReduceErrors(t *testing.T) {
	store := newListStore()
	rt := batch.NewRuntime(store, batch.Config{})

	rt.Enqueue(statex.Action{Type: "add", Payload: "a"})
	rt.Enqueue(statex.Action{Type: "unknown"})

	err := rt.Flush(context.Background())
	assert.ErrorIs(t, err, statex.ErrUnhandledAction)
	assert.Equal(t, []string{"a"}, store.State(), "reducible entries still commit")
}

func TestFlushEmptyQueueIsNoOp(t *testing.T) {
	store := newListStore()
	rec := testutil.NewRecorder[[]string]()
	defer rec.Attach(store)()

	rt := batch.NewRuntime(store, batch.Config{})
	require.NoError(t, rt.Flush(context.Background()))
	assert.Zero(t, rec.Len())
}

func TestQueueOverflowDropsOldest(t *testing.T) {
	store := newListStore()
	rt := batch.NewRuntime(store, batch.Config{MaxQueuedPerTick: 2})

	rt.Enqueue(statex.Action{Type: "add", Payload: "a"})
	rt.Enqueue(statex.Action{Type: "add", Payload: "b"})
	rt.Enqueue(statex.Action{Type: "add", Payload: "c"})

	require.NoError(t, rt.Flush(context.Background()))
	assert.Equal(t, []string{"b", "c"}, store.State())
	assert.Equal(t, uint64(1), rt.DroppedCount())
}

func TestTickedExecution(t *testing.T) {
	store := newListStore()
	rt := batch.NewRuntime(store, batch.Config{TickRate: 2 * time.Millisecond})

	rt.Start(context.Background())
	rt.Enqueue(statex.Action{Type: "add", Payload: "a"})

	deadline := time.Now().Add(2 * time.Second)
	for len(store.State()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, []string{"a"}, store.State(), "tick loop should apply queued entries")
	assert.Positive(t, rt.TickNumber())

	// Entries queued after the last tick commit on Stop.
	rt.Enqueue(statex.Action{Type: "add", Payload: "b"})
	require.NoError(t, rt.Stop())
	assert.Contains(t, store.State(), "b")
}

// Stop on a runtime that was never started must not block; it still
// flushes whatever was queued.
func TestStopWithoutStart(t *testing.T) {
	store := newListStore()
	rt := batch.NewRuntime(store, batch.Config{})

	rt.Enqueue(statex.Action{Type: "add", Payload: "a"})

	done := make(chan error, 1)
	go func() { done <- rt.Stop() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked without a running tick loop")
	}
	assert.Equal(t, []string{"a"}, store.State())
}

func TestTickErrorsReachOnError(t *testing.T) {
	store := newListStore()

	errs := make(chan error, 1)
	rt := batch.NewRuntime(store, batch.Config{
		TickRate: 2 * time.Millisecond,
		OnError: func(err error) {
			select {
			case errs <- err:
			default:
			}
		},
	})

	rt.Start(context.Background())
	defer rt.Stop()

	rt.Enqueue(statex.Action{Type: "unknown"})

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, statex.ErrUnhandledAction)
	case <-time.After(2 * time.Second):
		t.Fatal("expected the tick loop to surface the error")
	}
}
