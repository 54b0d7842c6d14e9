package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/comalice/statex"
)

// BoltPersister keeps the full version history of every store in a bbolt
// database: one bucket per store ID, one key per snapshot, ordered
// chronologically so Latest is a cursor seek rather than a scan.
type BoltPersister[S any] struct {
	db *bbolt.DB
}

// NewBoltPersister opens (or creates) the database at path.
func NewBoltPersister[S any](path string) (*BoltPersister[S], error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &BoltPersister[S]{db: db}, nil
}

// Close releases the underlying database.
func (p *BoltPersister[S]) Close() error {
	return p.db.Close()
}

func (p *BoltPersister[S]) Save(ctx context.Context, snap statex.Snapshot[S]) (string, error) {
	stamp(&snap)

	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("json marshal: %w", err)
	}

	err = p.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(snap.StoreID))
		if err != nil {
			return fmt.Errorf("bucket %q: %w", snap.StoreID, err)
		}
		return b.Put(versionKey(snap.Timestamp, snap.Version), data)
	})
	if err != nil {
		return "", fmt.Errorf("save %q: %w", snap.StoreID, err)
	}
	return snap.Version, nil
}

func (p *BoltPersister[S]) Latest(ctx context.Context, storeID string) (statex.Snapshot[S], error) {
	var snap statex.Snapshot[S]
	err := p.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(storeID))
		if b == nil {
			return fmt.Errorf("store %q: %w", storeID, statex.ErrSnapshotNotFound)
		}
		_, v := b.Cursor().Last()
		if v == nil {
			return fmt.Errorf("store %q: %w", storeID, statex.ErrSnapshotNotFound)
		}
		return json.Unmarshal(v, &snap)
	})
	if err != nil {
		return statex.Snapshot[S]{}, err
	}
	return snap, nil
}

func (p *BoltPersister[S]) Version(ctx context.Context, storeID, version string) (statex.Snapshot[S], error) {
	var snap statex.Snapshot[S]
	found := false
	err := p.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(storeID))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if keyVersion(k) != version {
				continue
			}
			found = true
			return json.Unmarshal(v, &snap)
		}
		return nil
	})
	if err != nil {
		return statex.Snapshot[S]{}, err
	}
	if !found {
		var empty statex.Snapshot[S]
		return empty, fmt.Errorf("store %q version %q: %w", storeID, version, statex.ErrSnapshotNotFound)
	}
	return snap, nil
}

func (p *BoltPersister[S]) ListVersions(ctx context.Context, storeID string) ([]string, error) {
	var versions []string
	err := p.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(storeID))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		// Newest first.
		for k, _ := c.Last(); k != nil; k, _ = c.Prev() {
			versions = append(versions, keyVersion(k))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return versions, nil
}

// versionKey orders snapshots chronologically within a bucket; the
// version rides along after the separator for lookup without decoding.
func versionKey(ts time.Time, version string) []byte {
	return fmt.Appendf(nil, "%020d|%s", ts.UnixNano(), version)
}

func keyVersion(k []byte) string {
	if i := bytes.IndexByte(k, '|'); i >= 0 {
		return string(k[i+1:])
	}
	return string(k)
}
