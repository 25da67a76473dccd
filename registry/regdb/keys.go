package regdb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jrife/regdb/registry"
	"github.com/jrife/regdb/storage/kv/keys"
	"github.com/jrife/regdb/utils/log"
	"go.uber.org/zap"
)

func childKey(key string, name string) string {
	return key + registry.KeySeparator + registry.Fold(name)
}

func valueKey(key string) string {
	return registry.ValuePrefix + registry.KeySeparator + key
}

func secDescKey(key string) string {
	return registry.SecDescPrefix + registry.KeySeparator + key
}

// FetchSubkeys returns the subkey list of path. It returns
// registry.ErrNotFound if the key does not exist.
func (db *DB) FetchSubkeys(ctx context.Context, path string) (*registry.SubkeyCatalog, error) {
	key, err := registry.Canonicalize(path)

	if err != nil {
		return nil, err
	}

	raw, sequence, err := db.lockedGet(ctx, key)

	if err != nil {
		return nil, err
	}

	if raw == nil {
		return nil, fmt.Errorf("key %q does not exist: %w", path, registry.ErrNotFound)
	}

	names, err := registry.UnpackSubkeys(raw)

	if err != nil {
		return nil, err
	}

	return &registry.SubkeyCatalog{Names: names, Seq: sequence}, nil
}

// StoreSubkeys replaces the subkey list of path with names. Children
// dropped from the list are deleted along with their whole subtree
// and children without a record get an empty one. Storing the list
// that is already there does not touch the store.
func (db *DB) StoreSubkeys(ctx context.Context, path string, names []string) error {
	key, err := registry.Canonicalize(path)

	if err != nil {
		return err
	}

	if err := registry.CheckSubkeys(names); err != nil {
		return err
	}

	ctx = log.WithFields(ctx, zap.String("operation", "StoreSubkeys"), zap.String("path", path))

	if current, err := db.FetchSubkeys(ctx, path); err == nil && current.Equal(names) {
		log.Logger(ctx, db.logger).Debug("subkeys unchanged")

		return nil
	}

	return db.update(ctx, func(txn *transaction) error {
		return storeSubkeys(txn, key, names)
	})
}

// readSubkeys reads a subkey list inside a transaction. A missing
// record returns a nil list.
func readSubkeys(txn *transaction, key string) ([]string, error) {
	raw, err := txn.get(key)

	if err != nil {
		return nil, err
	}

	if raw == nil {
		return nil, nil
	}

	return registry.UnpackSubkeys(raw)
}

func storeSubkeys(txn *transaction, key string, names []string) error {
	// Re-read inside the transaction so a concurrent writer's
	// update is diffed against instead of lost
	old, err := readSubkeys(txn, key)

	if err != nil {
		return err
	}

	packed, err := registry.PackSubkeys(names)

	if err != nil {
		return err
	}

	if err := txn.put(key, packed); err != nil {
		return err
	}

	kept := registry.SubkeyCatalog{Names: names}

	for _, name := range old {
		if kept.Contains(name) {
			continue
		}

		if err := purgeKey(txn, childKey(key, name)); err != nil {
			return err
		}
	}

	empty, _ := registry.PackSubkeys(nil)

	for _, name := range names {
		child := childKey(key, name)
		raw, err := txn.get(child)

		if err != nil {
			return err
		}

		if raw != nil {
			continue
		}

		if err := txn.put(child, empty); err != nil {
			return err
		}
	}

	return nil
}

// purgeKey deletes the subkey, value and security descriptor records
// of key and of everything below it
func purgeKey(txn *transaction, key string) error {
	for _, k := range []string{key, valueKey(key), secDescKey(key)} {
		if err := txn.delete(k); err != nil {
			return err
		}

		if err := txn.purge(keys.All().Prefix([]byte(k + registry.KeySeparator))); err != nil {
			return err
		}
	}

	return nil
}

// KeyExists reports whether path has a subkey record
func (db *DB) KeyExists(ctx context.Context, path string) (bool, error) {
	_, err := db.FetchSubkeys(ctx, path)

	if errors.Is(err, registry.ErrNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

// CreateKey adds name as a subkey of parent. It reports whether
// the key was created. The parent must exist.
func (db *DB) CreateKey(ctx context.Context, parent string, name string) (bool, error) {
	return db.createKey(ctx, parent, name, false)
}

// CreateKeyExclusive is like CreateKey but fails with
// registry.ErrAlreadyExists if the key exists
func (db *DB) CreateKeyExclusive(ctx context.Context, parent string, name string) error {
	_, err := db.createKey(ctx, parent, name, true)

	return err
}

func (db *DB) createKey(ctx context.Context, parent string, name string, exclusive bool) (bool, error) {
	key, err := registry.Canonicalize(parent)

	if err != nil {
		return false, err
	}

	if err := registry.ValidateName(name); err != nil {
		return false, err
	}

	ctx = log.WithFields(ctx, zap.String("operation", "CreateKey"), zap.String("path", registry.Join(parent, name)))
	created := false

	err = db.update(ctx, func(txn *transaction) error {
		names, err := readSubkeys(txn, key)

		if err != nil {
			return err
		}

		if names == nil {
			return fmt.Errorf("key %q does not exist: %w", parent, registry.ErrNotFound)
		}

		catalog := registry.SubkeyCatalog{Names: names}
		added, err := catalog.Add(name)

		if err != nil {
			return err
		}

		if !added {
			if exclusive {
				return fmt.Errorf("key %q already exists: %w", registry.Join(parent, name), registry.ErrAlreadyExists)
			}

			return nil
		}

		created = true

		return storeSubkeys(txn, key, catalog.Names)
	})

	if err != nil {
		return false, err
	}

	if created {
		log.Logger(ctx, db.logger).Debug("created key")
	}

	return created, nil
}

// DeleteKey removes name from the subkeys of parent and deletes its
// whole subtree. It returns registry.ErrNotFound if there is no
// such key.
func (db *DB) DeleteKey(ctx context.Context, parent string, name string) error {
	key, err := registry.Canonicalize(parent)

	if err != nil {
		return err
	}

	ctx = log.WithFields(ctx, zap.String("operation", "DeleteKey"), zap.String("path", registry.Join(parent, name)))

	return db.update(ctx, func(txn *transaction) error {
		names, err := readSubkeys(txn, key)

		if err != nil {
			return err
		}

		catalog := registry.SubkeyCatalog{Names: names}

		if !catalog.Remove(name) {
			return fmt.Errorf("key %q does not exist: %w", registry.Join(parent, name), registry.ErrNotFound)
		}

		return storeSubkeys(txn, key, catalog.Names)
	})
}

// createPath creates every key along path that does not exist yet
func createPath(txn *transaction, path string) error {
	components, err := registry.Split(path)

	if err != nil {
		return err
	}

	root, err := registry.Canonicalize(components[0])

	if err != nil {
		return err
	}

	names, err := readSubkeys(txn, root)

	if err != nil {
		return err
	}

	if names == nil {
		if err := storeSubkeys(txn, root, []string{}); err != nil {
			return err
		}
	}

	for i := 1; i < len(components); i++ {
		parent, err := registry.Canonicalize(strings.Join(components[:i], registry.Separator))

		if err != nil {
			return err
		}

		names, err := readSubkeys(txn, parent)

		if err != nil {
			return err
		}

		catalog := registry.SubkeyCatalog{Names: names}
		added, err := catalog.Add(components[i])

		if err != nil {
			return err
		}

		if !added {
			continue
		}

		if err := storeSubkeys(txn, parent, catalog.Names); err != nil {
			return err
		}
	}

	return nil
}
