package regdb

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jrife/regdb/registry"
	"github.com/jrife/regdb/utils/log"
	"go.uber.org/zap"
)

// FetchValues returns the values of path. A key without a value
// record has no values, which is not an error.
func (db *DB) FetchValues(ctx context.Context, path string) (*registry.ValueCatalog, error) {
	key, err := registry.Canonicalize(path)

	if err != nil {
		return nil, err
	}

	raw, sequence, err := db.lockedGet(ctx, valueKey(key))

	if err != nil {
		return nil, err
	}

	if raw == nil {
		return &registry.ValueCatalog{Values: []registry.Value{}, Seq: sequence}, nil
	}

	values, err := registry.UnpackValues(raw)

	if err != nil {
		return nil, err
	}

	return &registry.ValueCatalog{Values: values, Seq: sequence}, nil
}

// StoreValues replaces the values of path. Storing values whose
// encoding matches the stored record does not touch the store.
func (db *DB) StoreValues(ctx context.Context, path string, values []registry.Value) error {
	key, err := registry.Canonicalize(path)

	if err != nil {
		return err
	}

	if err := registry.CheckValues(values); err != nil {
		return err
	}

	packed, err := registry.PackValues(values)

	if err != nil {
		return err
	}

	ctx = log.WithFields(ctx, zap.String("operation", "StoreValues"), zap.String("path", path))

	if raw, _, err := db.lockedGet(ctx, valueKey(key)); err == nil && bytes.Equal(storedValues(raw), packed) {
		log.Logger(ctx, db.logger).Debug("values unchanged")

		return nil
	}

	return db.update(ctx, func(txn *transaction) error {
		return txn.put(valueKey(key), packed)
	})
}

// storedValues returns the encoding of a value record. A key
// without a record has no values.
func storedValues(raw []byte) []byte {
	if raw == nil {
		empty, _ := registry.PackValues(nil)

		return empty
	}

	return raw
}

// readValues reads a value list inside a transaction
func readValues(txn *transaction, key string) (*registry.ValueCatalog, error) {
	raw, err := txn.get(valueKey(key))

	if err != nil {
		return nil, err
	}

	if raw == nil {
		return &registry.ValueCatalog{}, nil
	}

	values, err := registry.UnpackValues(raw)

	if err != nil {
		return nil, err
	}

	return &registry.ValueCatalog{Values: values}, nil
}

func writeValues(txn *transaction, key string, catalog *registry.ValueCatalog) error {
	packed, err := registry.PackValues(catalog.Values)

	if err != nil {
		return err
	}

	return txn.put(valueKey(key), packed)
}

func requireKey(txn *transaction, key string, path string) error {
	raw, err := txn.get(key)

	if err != nil {
		return err
	}

	if raw == nil {
		return fmt.Errorf("key %q does not exist: %w", path, registry.ErrNotFound)
	}

	return nil
}

// GetValue returns the value called name at path
func (db *DB) GetValue(ctx context.Context, path string, name string) (registry.Value, error) {
	catalog, err := db.FetchValues(ctx, path)

	if err != nil {
		return registry.Value{}, err
	}

	value, ok := catalog.Get(name)

	if !ok {
		return registry.Value{}, fmt.Errorf("value %q of key %q does not exist: %w", name, path, registry.ErrNotFound)
	}

	return value, nil
}

// SetValue adds value to path or replaces the value with the same
// name. The key must exist.
func (db *DB) SetValue(ctx context.Context, path string, value registry.Value) error {
	key, err := registry.Canonicalize(path)

	if err != nil {
		return err
	}

	ctx = log.WithFields(ctx, zap.String("operation", "SetValue"), zap.String("path", path), zap.String("value", value.Name))

	return db.update(ctx, func(txn *transaction) error {
		if err := requireKey(txn, key, path); err != nil {
			return err
		}

		catalog, err := readValues(txn, key)

		if err != nil {
			return err
		}

		if err := catalog.Set(value); err != nil {
			return err
		}

		return writeValues(txn, key, catalog)
	})
}

// DeleteValue removes the value called name from path. It returns
// registry.ErrNotFound if there is no such value.
func (db *DB) DeleteValue(ctx context.Context, path string, name string) error {
	key, err := registry.Canonicalize(path)

	if err != nil {
		return err
	}

	ctx = log.WithFields(ctx, zap.String("operation", "DeleteValue"), zap.String("path", path), zap.String("value", name))

	return db.update(ctx, func(txn *transaction) error {
		catalog, err := readValues(txn, key)

		if err != nil {
			return err
		}

		if !catalog.Delete(name) {
			return fmt.Errorf("value %q of key %q does not exist: %w", name, path, registry.ErrNotFound)
		}

		return writeValues(txn, key, catalog)
	})
}
