// Package persist provides ready-made statex.Persister implementations:
// file-based JSON and YAML persisters that keep the latest snapshot per
// store, and a bbolt-backed persister that keeps full version history.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/comalice/statex"
)

// JSONPersister is a file-based persister using JSON serialization. It
// holds one file per store containing only the most recent snapshot, so
// Version succeeds only for the latest version and ListVersions has at
// most one entry.
type JSONPersister[S any] struct {
	dir string
}

// NewJSONPersister creates a JSONPersister, ensuring the directory exists.
func NewJSONPersister[S any](dir string) (*JSONPersister[S], error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &JSONPersister[S]{dir: dir}, nil
}

func (p *JSONPersister[S]) Save(ctx context.Context, snap statex.Snapshot[S]) (string, error) {
	stamp(&snap)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("json marshal: %w", err)
	}

	fn := filepath.Join(p.dir, snap.StoreID+".json")
	if err := os.WriteFile(fn, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", fn, err)
	}
	return snap.Version, nil
}

func (p *JSONPersister[S]) Latest(ctx context.Context, storeID string) (statex.Snapshot[S], error) {
	fn := filepath.Join(p.dir, storeID+".json")
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			var empty statex.Snapshot[S]
			return empty, fmt.Errorf("store %q: %w", storeID, statex.ErrSnapshotNotFound)
		}
		return statex.Snapshot[S]{}, fmt.Errorf("read %s: %w", fn, err)
	}

	var snap statex.Snapshot[S]
	if err := json.Unmarshal(data, &snap); err != nil {
		return statex.Snapshot[S]{}, fmt.Errorf("json unmarshal: %w", err)
	}
	snap.StoreID = storeID // Ensure ID
	return snap, nil
}

func (p *JSONPersister[S]) Version(ctx context.Context, storeID, version string) (statex.Snapshot[S], error) {
	return latestOnlyVersion(ctx, p, storeID, version)
}

func (p *JSONPersister[S]) ListVersions(ctx context.Context, storeID string) ([]string, error) {
	return latestOnlyList(ctx, p, storeID)
}

// YAMLPersister is a file-based persister using YAML serialization, with
// the same latest-only semantics as JSONPersister.
type YAMLPersister[S any] struct {
	dir string
}

// NewYAMLPersister creates a YAMLPersister, ensuring the directory exists.
func NewYAMLPersister[S any](dir string) (*YAMLPersister[S], error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &YAMLPersister[S]{dir: dir}, nil
}

func (p *YAMLPersister[S]) Save(ctx context.Context, snap statex.Snapshot[S]) (string, error) {
	stamp(&snap)

	data, err := yaml.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("yaml marshal: %w", err)
	}

	fn := filepath.Join(p.dir, snap.StoreID+".yaml")
	if err := os.WriteFile(fn, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", fn, err)
	}
	return snap.Version, nil
}

func (p *YAMLPersister[S]) Latest(ctx context.Context, storeID string) (statex.Snapshot[S], error) {
	fn := filepath.Join(p.dir, storeID+".yaml")
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			var empty statex.Snapshot[S]
			return empty, fmt.Errorf("store %q: %w", storeID, statex.ErrSnapshotNotFound)
		}
		return statex.Snapshot[S]{}, fmt.Errorf("read %s: %w", fn, err)
	}

	var snap statex.Snapshot[S]
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return statex.Snapshot[S]{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	snap.StoreID = storeID // Ensure ID
	return snap, nil
}

func (p *YAMLPersister[S]) Version(ctx context.Context, storeID, version string) (statex.Snapshot[S], error) {
	return latestOnlyVersion(ctx, p, storeID, version)
}

func (p *YAMLPersister[S]) ListVersions(ctx context.Context, storeID string) ([]string, error) {
	return latestOnlyList(ctx, p, storeID)
}

// stamp fills a snapshot's Version and Timestamp when the caller left
// them zero; all persisters share these defaults.
func stamp[S any](snap *statex.Snapshot[S]) {
	if snap.Version == "" {
		snap.Version = uuid.NewString()
	}
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now().UTC()
	}
}

func latestOnlyVersion[S any](ctx context.Context, p statex.Persister[S], storeID, version string) (statex.Snapshot[S], error) {
	snap, err := p.Latest(ctx, storeID)
	if err != nil {
		return statex.Snapshot[S]{}, err
	}
	if snap.Version != version {
		var empty statex.Snapshot[S]
		return empty, fmt.Errorf("store %q version %q: %w", storeID, version, statex.ErrSnapshotNotFound)
	}
	return snap, nil
}

func latestOnlyList[S any](ctx context.Context, p statex.Persister[S], storeID string) ([]string, error) {
	snap, err := p.Latest(ctx, storeID)
	if err != nil {
		if errors.Is(err, statex.ErrSnapshotNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return []string{snap.Version}, nil
}
