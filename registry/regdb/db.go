package regdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/jrife/regdb/registry"
	"github.com/jrife/regdb/storage/kv"
	"github.com/jrife/regdb/storage/kv/keys"
	"github.com/jrife/regdb/storage/kv/locks"
	"github.com/jrife/regdb/utils/log"
	"go.uber.org/zap"
)

// DB is a registry namespace stored in a kv.Store. It is safe
// for concurrent use.
type DB struct {
	store  kv.Store
	locks  *locks.Table
	config Config
	logger *zap.Logger
}

// New wraps an open store. It does not bootstrap the store,
// call Bootstrap for that.
func New(store kv.Store, config Config) *DB {
	config = config.withDefaults()

	return &DB{
		store:  store,
		locks:  locks.NewTable(),
		config: config,
		logger: config.Logger,
	}
}

// Logger returns the logger the database was configured with
func (db *DB) Logger() *zap.Logger {
	if db == nil {
		return zap.NewNop()
	}

	return db.logger
}

// Close closes the underlying store
func (db *DB) Close() error {
	if db == nil {
		return registry.ErrClosed
	}

	if err := db.store.Close(); err != nil {
		return storeError("could not close store", err)
	}

	return nil
}

// lockedGet reads key under a shared record lock and returns its
// value along with the sequence number of the snapshot it was read
// from. A missing key returns a nil value.
func (db *DB) lockedGet(ctx context.Context, key string) ([]byte, uint64, error) {
	if db == nil {
		return nil, 0, registry.ErrClosed
	}

	release, err := db.locks.RLock(ctx, key, db.config.LockTimeout)

	if err != nil {
		return nil, 0, lockError(key, err)
	}

	defer release()

	transaction, err := db.store.Begin(false)

	if err != nil {
		return nil, 0, storeError("could not begin read transaction", err)
	}

	defer transaction.Rollback()

	value, err := transaction.Get([]byte(key))

	if err != nil {
		return nil, 0, storeError(fmt.Sprintf("could not read %s", key), err)
	}

	sequence, err := transaction.Sequence()

	if err != nil {
		return nil, 0, storeError("could not read sequence", err)
	}

	log.Logger(ctx, db.logger).Debug("read record", zap.String("key", key), zap.Bool("found", value != nil), zap.Uint64("sequence", sequence))

	return value, sequence, nil
}

// update runs fn inside one write transaction. If fn fails the
// transaction is rolled back and nothing it wrote is visible.
func (db *DB) update(ctx context.Context, fn func(txn *transaction) error) error {
	if db == nil {
		return registry.ErrClosed
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", registry.ErrIOFailure, err)
	}

	logger := log.Logger(ctx, db.logger)
	kvTransaction, err := db.store.Begin(true)

	if err != nil {
		return storeError("could not begin transaction", err)
	}

	txn := &transaction{Transaction: kvTransaction, ctx: ctx, db: db, held: map[string]locks.Release{}}

	defer txn.release()
	defer kvTransaction.Rollback()

	if err := fn(txn); err != nil {
		logger.Error("transaction cancelled", zap.Error(err))

		return cancelled(err)
	}

	if err := kvTransaction.Commit(); err != nil {
		logger.Error("could not commit transaction", zap.Error(err))

		return storeError("could not commit transaction", err)
	}

	return nil
}

// transaction is a write transaction that takes an exclusive record
// lock on every key before writing it. The locks are held until the
// transaction ends so locked readers never see a half applied update.
type transaction struct {
	kv.Transaction
	ctx  context.Context
	db   *DB
	held map[string]locks.Release
}

func (txn *transaction) lock(key string) error {
	if _, ok := txn.held[key]; ok {
		return nil
	}

	release, err := txn.db.locks.Lock(txn.ctx, key, txn.db.config.LockTimeout)

	if err != nil {
		return lockError(key, err)
	}

	txn.held[key] = release

	return nil
}

func (txn *transaction) release() {
	for _, release := range txn.held {
		release()
	}
}

func (txn *transaction) get(key string) ([]byte, error) {
	value, err := txn.Get([]byte(key))

	if err != nil {
		return nil, storeError(fmt.Sprintf("could not read %s", key), err)
	}

	return value, nil
}

func (txn *transaction) put(key string, value []byte) error {
	if err := txn.lock(key); err != nil {
		return err
	}

	if err := txn.Put([]byte(key), value); err != nil {
		return storeError(fmt.Sprintf("could not write %s", key), err)
	}

	return nil
}

func (txn *transaction) delete(key string) error {
	if err := txn.lock(key); err != nil {
		return err
	}

	if err := txn.Delete([]byte(key)); err != nil {
		return storeError(fmt.Sprintf("could not delete %s", key), err)
	}

	return nil
}

// purge deletes every key in r
func (txn *transaction) purge(r keys.Range) error {
	iter, err := txn.Keys(r)

	if err != nil {
		return storeError("could not list keys", err)
	}

	// Collect first. Deleting under an open cursor is not safe.
	kvs, err := kv.Keys(iter, -1)

	if err != nil {
		return storeError("could not list keys", err)
	}

	for _, pair := range kvs {
		if err := txn.delete(string(pair[0])); err != nil {
			return err
		}
	}

	return nil
}

func storeError(message string, err error) error {
	if errors.Is(err, kv.ErrClosed) {
		return fmt.Errorf("%s: %w", message, registry.ErrClosed)
	}

	return fmt.Errorf("%w: %s: %w", registry.ErrIOFailure, message, err)
}

func lockError(key string, err error) error {
	if errors.Is(err, locks.ErrTimeout) {
		return fmt.Errorf("could not lock %s: %w", key, registry.ErrTimeout)
	}

	return fmt.Errorf("%w: could not lock %s: %w", registry.ErrIOFailure, key, err)
}

// cancelled passes caller facing outcomes through unchanged and
// reports everything else as an i/o failure
func cancelled(err error) error {
	for _, outcome := range []error{
		registry.ErrIOFailure,
		registry.ErrInvalidArgument,
		registry.ErrNotFound,
		registry.ErrAlreadyExists,
		registry.ErrTimeout,
		registry.ErrClosed,
	} {
		if errors.Is(err, outcome) {
			return err
		}
	}

	return fmt.Errorf("%w: %w", registry.ErrIOFailure, err)
}
