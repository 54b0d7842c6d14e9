package persist_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/statex"
	"github.com/comalice/statex/persist"
)

type zooState struct {
	Zebras []string `json:"zebras" yaml:"zebras"`
	Pandas []string `json:"pandas" yaml:"pandas"`
}

func sampleState() zooState {
	return zooState{
		Zebras: []string{"Jimmy"},
		Pandas: []string{"Michael", "John"},
	}
}

// filePersister lets the JSON and YAML implementations share one suite.
func filePersisters(t *testing.T) map[string]statex.Persister[zooState] {
	t.Helper()

	jsonP, err := persist.NewJSONPersister[zooState](t.TempDir())
	require.NoError(t, err)
	yamlP, err := persist.NewYAMLPersister[zooState](t.TempDir())
	require.NoError(t, err)

	return map[string]statex.Persister[zooState]{
		"json": jsonP,
		"yaml": yamlP,
	}
}

func TestFilePersisterRoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, p := range filePersisters(t) {
		t.Run(name, func(t *testing.T) {
			version, err := p.Save(ctx, statex.Snapshot[zooState]{
				StoreID: "zoo",
				State:   sampleState(),
			})
			require.NoError(t, err)
			assert.NotEmpty(t, version, "Save should assign a version")

			snap, err := p.Latest(ctx, "zoo")
			require.NoError(t, err)
			assert.Equal(t, "zoo", snap.StoreID)
			assert.Equal(t, version, snap.Version)
			assert.Empty(t, cmp.Diff(sampleState(), snap.State), "state should round-trip unchanged")
		})
	}
}

func TestFilePersisterVersionLookup(t *testing.T) {
	ctx := context.Background()

	for name, p := range filePersisters(t) {
		t.Run(name, func(t *testing.T) {
			version, err := p.Save(ctx, statex.Snapshot[zooState]{StoreID: "zoo", State: sampleState()})
			require.NoError(t, err)

			snap, err := p.Version(ctx, "zoo", version)
			require.NoError(t, err)
			assert.Equal(t, version, snap.Version)

			// File persisters only retain the latest snapshot.
			_, err = p.Version(ctx, "zoo", "no-such-version")
			assert.ErrorIs(t, err, statex.ErrSnapshotNotFound)

			versions, err := p.ListVersions(ctx, "zoo")
			require.NoError(t, err)
			assert.Equal(t, []string{version}, versions)
		})
	}
}

func TestFilePersisterMissingStore(t *testing.T) {
	ctx := context.Background()

	for name, p := range filePersisters(t) {
		t.Run(name, func(t *testing.T) {
			_, err := p.Latest(ctx, "ghost")
			assert.ErrorIs(t, err, statex.ErrSnapshotNotFound)

			versions, err := p.ListVersions(ctx, "ghost")
			require.NoError(t, err)
			assert.Empty(t, versions)
		})
	}
}

// Save must default a zero timestamp so direct callers get dated
// snapshots, while keeping one the caller set explicitly.
func TestFilePersisterStampsTimestamp(t *testing.T) {
	ctx := context.Background()

	for name, p := range filePersisters(t) {
		t.Run(name, func(t *testing.T) {
			_, err := p.Save(ctx, statex.Snapshot[zooState]{StoreID: "zoo", State: sampleState()})
			require.NoError(t, err)

			snap, err := p.Latest(ctx, "zoo")
			require.NoError(t, err)
			assert.False(t, snap.Timestamp.IsZero(), "Save should assign a timestamp")

			explicit := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
			_, err = p.Save(ctx, statex.Snapshot[zooState]{
				StoreID:   "zoo",
				Timestamp: explicit,
				State:     sampleState(),
			})
			require.NoError(t, err)

			snap, err = p.Latest(ctx, "zoo")
			require.NoError(t, err)
			assert.True(t, snap.Timestamp.Equal(explicit))
		})
	}
}

func TestFilePersisterKeepsExplicitVersion(t *testing.T) {
	ctx := context.Background()

	for name, p := range filePersisters(t) {
		t.Run(name, func(t *testing.T) {
			version, err := p.Save(ctx, statex.Snapshot[zooState]{
				StoreID: "zoo",
				Version: "v42",
				State:   sampleState(),
			})
			require.NoError(t, err)
			assert.Equal(t, "v42", version)

			snap, err := p.Latest(ctx, "zoo")
			require.NoError(t, err)
			assert.Equal(t, "v42", snap.Version)
		})
	}
}
