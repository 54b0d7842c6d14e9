package batch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/comalice/statex"
)

// Config configures the batch runtime.
type Config struct {
	TickRate         time.Duration // Fixed tick rate (e.g., 16.67ms for 60 FPS)
	MaxQueuedPerTick int           // Queue capacity (default: 1000)

	// OnError receives errors from ticked flushes (unhandled actions,
	// handler failures). Nil discards them.
	OnError func(error)
}

// Runtime applies queued actions and operators to a store once per tick,
// composed into a single commit.
type Runtime[S any] struct {
	store *statex.Store[S]

	tickRate time.Duration
	ticker   *time.Ticker
	onError  func(error)

	queueMu   sync.Mutex
	queue     []entry[S]
	maxQueued int
	dropped   uint64
	tickNum   uint64
	started   bool

	tickCtx    context.Context
	tickCancel context.CancelFunc
	stopped    chan struct{}
}

// entry is one queued mutation: either an action awaiting its handler or
// a ready operator. Queue order is submission order, so replaying the
// same Enqueue sequence commits the same state.
type entry[S any] struct {
	act *statex.Action
	op  statex.Operator[S]
}

// NewRuntime creates a batch runtime over store.
func NewRuntime[S any](store *statex.Store[S], cfg Config) *Runtime[S] {
	if cfg.MaxQueuedPerTick == 0 {
		cfg.MaxQueuedPerTick = 1000
	}
	if cfg.TickRate == 0 {
		cfg.TickRate = 16667 * time.Microsecond // Default 60 FPS
	}

	return &Runtime[S]{
		store:     store,
		tickRate:  cfg.TickRate,
		onError:   cfg.OnError,
		queue:     make([]entry[S], 0, cfg.MaxQueuedPerTick),
		maxQueued: cfg.MaxQueuedPerTick,
	}
}

// Start begins tick-based execution. Starting an already running
// runtime is a no-op.
func (rt *Runtime[S]) Start(ctx context.Context) {
	rt.queueMu.Lock()
	if rt.started {
		rt.queueMu.Unlock()
		return
	}
	rt.started = true
	rt.queueMu.Unlock()

	rt.tickCtx, rt.tickCancel = context.WithCancel(ctx)
	rt.ticker = time.NewTicker(rt.tickRate)
	rt.stopped = make(chan struct{})

	go rt.tickLoop()
}

// Stop flushes the remaining queue and, if the runtime was started,
// stops the tick loop.
func (rt *Runtime[S]) Stop() error {
	rt.queueMu.Lock()
	started := rt.started
	rt.started = false
	rt.queueMu.Unlock()

	if started {
		rt.tickCancel()
		rt.ticker.Stop()
		<-rt.stopped
	}
	return rt.Flush(context.Background())
}

// Enqueue queues an action for the next tick. When the queue is full the
// oldest entry is dropped to make room; DroppedCount reports how many.
func (rt *Runtime[S]) Enqueue(act statex.Action) {
	rt.enqueue(entry[S]{act: &act})
}

// EnqueueOp queues an operator for the next tick.
func (rt *Runtime[S]) EnqueueOp(op statex.Operator[S]) {
	if op == nil {
		return
	}
	rt.enqueue(entry[S]{op: op})
}

func (rt *Runtime[S]) enqueue(e entry[S]) {
	rt.queueMu.Lock()
	defer rt.queueMu.Unlock()

	if len(rt.queue) >= rt.maxQueued {
		rt.queue = rt.queue[1:]
		rt.dropped++
	}
	rt.queue = append(rt.queue, e)
}

// Flush drains the queue immediately and applies everything queued so
// far as one commit. Entries whose action cannot be reduced are skipped
// and their errors joined into the return value; the remaining entries
// still commit.
func (rt *Runtime[S]) Flush(ctx context.Context) error {
	rt.queueMu.Lock()
	pending := rt.queue
	rt.queue = make([]entry[S], 0, rt.maxQueued)
	rt.queueMu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	var errs []error
	ops := make([]statex.Operator[S], 0, len(pending))
	for _, e := range pending {
		if e.op != nil {
			ops = append(ops, e.op)
			continue
		}
		op, err := rt.store.Reduce(ctx, *e.act)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ops = append(ops, op) // nil ops are skipped by Compose
	}

	if len(ops) > 0 {
		rt.store.Apply(ops...)
	}
	return errors.Join(errs...)
}

// TickNumber returns the number of completed ticks.
func (rt *Runtime[S]) TickNumber() uint64 {
	rt.queueMu.Lock()
	defer rt.queueMu.Unlock()
	return rt.tickNum
}

// DroppedCount returns how many queued entries were evicted by overflow.
func (rt *Runtime[S]) DroppedCount() uint64 {
	rt.queueMu.Lock()
	defer rt.queueMu.Unlock()
	return rt.dropped
}

func (rt *Runtime[S]) tickLoop() {
	defer close(rt.stopped)

	for {
		select {
		case <-rt.tickCtx.Done():
			return
		case <-rt.ticker.C:
			if err := rt.Flush(rt.tickCtx); err != nil && rt.onError != nil {
				rt.onError(err)
			}

			rt.queueMu.Lock()
			rt.tickNum++
			rt.queueMu.Unlock()
		}
	}
}
