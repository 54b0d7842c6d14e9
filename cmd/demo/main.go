package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/comalice/statex"
	"github.com/comalice/statex/batch"
	"github.com/comalice/statex/persist"
)

// Counter is the demo state tree: a ticking set of gauges.
type Counter struct {
	Ticks  int      `json:"ticks"`
	Labels []string `json:"labels"`
}

func main() {
	persister, err := persist.NewBoltPersister[Counter](filepath.Join(os.TempDir(), "statex-demo.db"))
	if err != nil {
		panic(err)
	}
	defer persister.Close()

	store := statex.NewStore(Counter{},
		statex.WithHandler("tick", func(ctx context.Context, act statex.Action) statex.Operator[Counter] {
			return statex.Patch[Counter](map[string]any{
				"Labels": statex.Append(fmt.Sprintf("tick@%s", time.Now().Format(time.TimeOnly))),
			})
		}),
		statex.WithPersister[Counter](persister, "demo"),
	)

	store.Subscribe(func(c Counter) {
		fmt.Printf("committed: %d labels\n", len(c.Labels))
	})

	ctx := context.Background()
	if restored, err := store.Restore(ctx); err == nil {
		fmt.Printf("restored previous run: %d labels\n", len(restored.Labels))
	}

	rt := batch.NewRuntime(store, batch.Config{TickRate: 500 * time.Millisecond})
	rt.Start(ctx)

	feeder := time.NewTicker(100 * time.Millisecond)
	defer feeder.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	fmt.Println("feeding 10 actions/sec, committing in 500ms batches; Ctrl-C to checkpoint and exit")
	for {
		select {
		case <-feeder.C:
			rt.Enqueue(statex.Action{Type: "tick"})
		case <-sig:
			if err := rt.Stop(); err != nil {
				fmt.Println("flush error:", err)
			}
			version, err := store.Checkpoint(ctx)
			if err != nil {
				fmt.Println("checkpoint error:", err)
				return
			}
			fmt.Printf("checkpointed %d labels as version %s\n", len(store.State().Labels), version)
			return
		}
	}
}
