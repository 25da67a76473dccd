package regdb

import (
	"context"
	"fmt"

	"github.com/jrife/regdb/registry"
	"github.com/jrife/regdb/utils/log"
	"go.uber.org/zap"
)

// GetSecDesc returns the security descriptor of path. It returns
// registry.ErrNotFound if none is set.
func (db *DB) GetSecDesc(ctx context.Context, path string) (*registry.SecurityDescriptor, error) {
	key, err := registry.Canonicalize(path)

	if err != nil {
		return nil, err
	}

	raw, _, err := db.lockedGet(ctx, secDescKey(key))

	if err != nil {
		return nil, err
	}

	if raw == nil {
		return nil, fmt.Errorf("no security descriptor for %q: %w", path, registry.ErrNotFound)
	}

	var sd registry.SecurityDescriptor

	if err := sd.UnmarshalBinary(raw); err != nil {
		return nil, err
	}

	return &sd, nil
}

// SetSecDesc stores the security descriptor of path. A nil
// descriptor deletes it. Deleting a descriptor that is not set
// succeeds.
func (db *DB) SetSecDesc(ctx context.Context, path string, sd *registry.SecurityDescriptor) error {
	key, err := registry.Canonicalize(path)

	if err != nil {
		return err
	}

	ctx = log.WithFields(ctx, zap.String("operation", "SetSecDesc"), zap.String("path", path))

	if sd == nil {
		return db.update(ctx, func(txn *transaction) error {
			return txn.delete(secDescKey(key))
		})
	}

	raw, err := sd.MarshalBinary()

	if err != nil {
		return err
	}

	return db.update(ctx, func(txn *transaction) error {
		return txn.put(secDescKey(key), raw)
	})
}
