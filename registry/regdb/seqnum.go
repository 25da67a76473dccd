package regdb

import (
	"context"

	"github.com/jrife/regdb/registry"
)

// CurrentSequence returns the store's sequence number. It changes
// every time a write is committed.
func (db *DB) CurrentSequence(ctx context.Context) (uint64, error) {
	if db == nil {
		return 0, registry.ErrClosed
	}

	sequence, err := db.store.Sequence()

	if err != nil {
		return 0, storeError("could not read sequence", err)
	}

	return sequence, nil
}

// NeedsUpdate reports whether anything was committed since
// sequence was observed
func (db *DB) NeedsUpdate(ctx context.Context, sequence uint64) (bool, error) {
	current, err := db.CurrentSequence(ctx)

	if err != nil {
		return false, err
	}

	return current != sequence, nil
}

// SubkeysNeedUpdate reports whether catalog may be stale
func (db *DB) SubkeysNeedUpdate(ctx context.Context, catalog *registry.SubkeyCatalog) (bool, error) {
	return db.NeedsUpdate(ctx, catalog.Seq)
}

// ValuesNeedUpdate reports whether catalog may be stale
func (db *DB) ValuesNeedUpdate(ctx context.Context, catalog *registry.ValueCatalog) (bool, error) {
	return db.NeedsUpdate(ctx, catalog.Seq)
}
