// Package batch provides a tick-based dispatch runtime for a statex store.
//
// The batch runtime differs from direct dispatch in when commits happen:
//   - Actions and operators are queued and applied at fixed tick boundaries
//   - All entries queued within a tick collapse into a single commit, so
//     subscribers see one notification per tick instead of one per mutation
//   - Deterministic ordering: entries apply in submission order (FIFO)
//
// # Example Usage
//
//	store := statex.NewStore(initial, statex.WithHandler("add", addHandler))
//	rt := batch.NewRuntime(store, batch.Config{
//		TickRate: 16667 * time.Microsecond, // 60 FPS
//	})
//	rt.Start(ctx)
//	rt.Enqueue(statex.Action{Type: "add", Payload: "Jimmy"})
//
// # Trade-offs vs Direct Dispatch
//
// Direct dispatch commits and notifies immediately; the batch runtime
// trades latency (up to one tick) for coalesced notifications and a fixed
// commit budget per tick. Typical use: UI frames, game loops, and any
// subscriber that is expensive to run per-mutation.
package batch
