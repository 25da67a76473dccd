package kv

import (
	"errors"

	"github.com/jrife/regdb/storage/kv/keys"
)

var (
	// ErrClosed indicates that the store was closed
	ErrClosed = errors.New("store was closed")
	// ErrReadOnly indicates that an update was attempted
	// inside a read-only transaction
	ErrReadOnly = errors.New("transaction is read-only")
	// ErrTxDone indicates that the transaction was already
	// committed or rolled back
	ErrTxDone = errors.New("transaction already committed or rolled back")
	// ErrEmptyKey indicates that a nil or empty key was used
	ErrEmptyKey = errors.New("key must not be empty")
)

// PluginOptions is a free-form set of options
// passed to a plugin when creating a store
type PluginOptions map[string]interface{}

// Plugin represents a kv storage plugin
type Plugin interface {
	// Name returns the name of the storage plugin
	Name() string
	// NewStore returns an instance of the plugin store
	NewStore(options PluginOptions) (Store, error)
	// NewTempStore returns an instance of the plugin store
	// initialized with some sane defaults. It is meant for
	// tests that need an initialized instance of the plugin's
	// store without knowing how to initialize it
	NewTempStore() (Store, error)
}

// Store is a handle to an open key-value store
type Store interface {
	// Begin starts a transaction. writable should be true for
	// read-write transactions and false for read-only transactions.
	// Begin(true) blocks while another writable transaction is open.
	// It must return ErrClosed if called after Close returns.
	Begin(writable bool) (Transaction, error)
	// Sequence returns the sequence number of the most recently
	// committed state.
	Sequence() (uint64, error)
	// Close closes the store. It must not return until all open
	// transactions have either committed or rolled back.
	Close() error
	// Delete closes then deletes this store and all its contents.
	Delete() error
}

// MapUpdater is an interface for updating a sorted
// key-value map
type MapUpdater interface {
	// Put puts a key. Put must return an error
	// if key is nil or empty.
	Put(key, value []byte) error
	// Delete deletes a key. It must return an error if the key
	// is nil or empty. If the key doesn't exist it has no effect,
	// does not count as a write and returns nil.
	Delete(key []byte) error
}

// MapReader is an interface for reading a sorted
// key-value map
type MapReader interface {
	// Get gets a key. It must observe updates to that key made
	// previously by this transation. Get must return an error
	// if the key is nil or empty. It must return nil if the
	// requested key does not exist.
	Get(key []byte) ([]byte, error)
	// Keys creates an iterator that iterates over the range
	// of keys in ascending order
	Keys(keys keys.Range) (Iterator, error)
}

// Map combines MapReader and MapUpdater
type Map interface {
	MapUpdater
	MapReader
}

// Transaction is a transaction for a store. It must only be
// used by one goroutine at a time.
type Transaction interface {
	Map
	// Writable reports whether this transaction may update the store
	Writable() bool
	// Sequence returns the sequence number of the state observed by
	// this transaction. Uncommitted updates made by this transaction
	// are not reflected until it commits.
	Sequence() (uint64, error)
	// Commit commits the transaction
	Commit() error
	// Rollback rolls back the transaction. Calling Rollback after
	// Commit has no effect and returns ErrTxDone.
	Rollback() error
}

// Iterator iterates over a set of keys. It must only be
// used by one goroutine at a time. Consumers should not
// attempt to use an iterator once its parent transaction
// has been rolled back. Behavior is undefined in this case.
// The transaction must not mutate the store when the iterator
// is in use. This may cause inconsistent behavior.
type Iterator interface {
	// Next advances the iterator to the next key
	// A fresh iterator must call Next once to
	// advance to the first key. Next returns false
	// if there is no next key or if it encounters an
	// error.
	Next() bool
	// Key returns the current key
	Key() []byte
	// Value returns the current value
	Value() []byte
	// Error returns the error, if any.
	Error() error
}

// KV is a key-value pair
type KV [2][]byte

// Keys drains up to limit pairs from iter. limit < 0
// indicates no limit.
func Keys(iter Iterator, limit int) ([]KV, error) {
	kvs := []KV{}

	for (limit < 0 || len(kvs) < limit) && iter.Next() {
		kvs = append(kvs, KV{iter.Key(), iter.Value()})
	}

	if iter.Error() != nil {
		return nil, iter.Error()
	}

	return kvs, nil
}
