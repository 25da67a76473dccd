package kv

import (
	"bytes"
	"sync"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/jrife/regdb/storage/kv/keys"
)

const (
	// MemoryDriverName is the plugin name of the in-memory store
	MemoryDriverName = "memory"
)

// MemoryPlugins returns the plugins implemented in this package
func MemoryPlugins() []Plugin {
	return []Plugin{
		&MemoryPlugin{},
	}
}

var _ Plugin = (*MemoryPlugin)(nil)

// MemoryPlugin creates in-memory stores. Its stores do not
// survive Close and are meant for tests and ephemeral use.
type MemoryPlugin struct {
}

// Name implements Plugin.Name
func (plugin *MemoryPlugin) Name() string {
	return MemoryDriverName
}

// NewStore implements Plugin.NewStore
func (plugin *MemoryPlugin) NewStore(options PluginOptions) (Store, error) {
	return NewMemoryStore(), nil
}

// NewTempStore implements Plugin.NewTempStore
func (plugin *MemoryPlugin) NewTempStore() (Store, error) {
	return NewMemoryStore(), nil
}

func newSortedMap() *treemap.Map {
	return treemap.NewWith(func(a, b interface{}) int {
		return bytes.Compare(a.([]byte), b.([]byte))
	})
}

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory implementation of
// the Store interface. Committed states are immutable:
// a writable transaction works on a private copy which
// replaces the committed state when it commits.
type MemoryStore struct {
	// writer is held for the lifetime of the writable transaction
	writer   sync.Mutex
	mu       sync.RWMutex
	data     *treemap.Map
	sequence uint64
	closed   bool
	txns     sync.WaitGroup
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: newSortedMap()}
}

// Begin implements Store.Begin
func (store *MemoryStore) Begin(writable bool) (Transaction, error) {
	if writable {
		store.writer.Lock()
	}

	store.mu.RLock()

	if store.closed {
		store.mu.RUnlock()

		if writable {
			store.writer.Unlock()
		}

		return nil, ErrClosed
	}

	store.txns.Add(1)
	data := store.data
	sequence := store.sequence
	store.mu.RUnlock()

	if writable {
		data = copySortedMap(data)
	}

	return &memoryTransaction{
		store:    store,
		data:     data,
		sequence: sequence,
		writable: writable,
	}, nil
}

// Sequence implements Store.Sequence
func (store *MemoryStore) Sequence() (uint64, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	if store.closed {
		return 0, ErrClosed
	}

	return store.sequence, nil
}

// Close implements Store.Close
func (store *MemoryStore) Close() error {
	store.mu.Lock()
	store.closed = true
	store.mu.Unlock()

	store.txns.Wait()

	return nil
}

// Delete implements Store.Delete
func (store *MemoryStore) Delete() error {
	if err := store.Close(); err != nil {
		return err
	}

	store.mu.Lock()
	store.data = newSortedMap()
	store.mu.Unlock()

	return nil
}

func copySortedMap(m *treemap.Map) *treemap.Map {
	c := newSortedMap()
	iter := m.Iterator()

	for iter.Next() {
		c.Put(iter.Key(), iter.Value())
	}

	return c
}

var _ Transaction = (*memoryTransaction)(nil)

type memoryTransaction struct {
	store    *MemoryStore
	data     *treemap.Map
	sequence uint64
	writable bool
	dirty    bool
	done     bool
}

// Put implements Transaction.Put
func (txn *memoryTransaction) Put(key, value []byte) error {
	if err := txn.checkUpdate(key); err != nil {
		return err
	}

	k := append([]byte{}, key...)
	v := append([]byte{}, value...)
	txn.data.Put(k, v)
	txn.dirty = true

	return nil
}

// Delete implements Transaction.Delete
func (txn *memoryTransaction) Delete(key []byte) error {
	if err := txn.checkUpdate(key); err != nil {
		return err
	}

	if _, ok := txn.data.Get(key); !ok {
		return nil
	}

	txn.data.Remove(key)
	txn.dirty = true

	return nil
}

// Get implements Transaction.Get
func (txn *memoryTransaction) Get(key []byte) ([]byte, error) {
	if txn.done {
		return nil, ErrTxDone
	}

	if len(key) == 0 {
		return nil, ErrEmptyKey
	}

	v, ok := txn.data.Get(key)

	if !ok {
		return nil, nil
	}

	return v.([]byte), nil
}

// Keys implements Transaction.Keys
func (txn *memoryTransaction) Keys(keys keys.Range) (Iterator, error) {
	if txn.done {
		return nil, ErrTxDone
	}

	return &memoryIterator{iter: txn.data.Iterator(), keys: keys}, nil
}

// Writable implements Transaction.Writable
func (txn *memoryTransaction) Writable() bool {
	return txn.writable
}

// Sequence implements Transaction.Sequence
func (txn *memoryTransaction) Sequence() (uint64, error) {
	if txn.done {
		return 0, ErrTxDone
	}

	return txn.sequence, nil
}

// Commit implements Transaction.Commit
func (txn *memoryTransaction) Commit() error {
	if txn.done {
		return ErrTxDone
	}

	if txn.writable && txn.dirty {
		txn.store.mu.Lock()
		txn.store.data = txn.data
		txn.store.sequence++
		txn.store.mu.Unlock()
	}

	txn.finish()

	return nil
}

// Rollback implements Transaction.Rollback
func (txn *memoryTransaction) Rollback() error {
	if txn.done {
		return ErrTxDone
	}

	txn.finish()

	return nil
}

func (txn *memoryTransaction) finish() {
	txn.done = true

	if txn.writable {
		txn.store.writer.Unlock()
	}

	txn.store.txns.Done()
}

func (txn *memoryTransaction) checkUpdate(key []byte) error {
	if txn.done {
		return ErrTxDone
	}

	if !txn.writable {
		return ErrReadOnly
	}

	if len(key) == 0 {
		return ErrEmptyKey
	}

	return nil
}

var _ Iterator = (*memoryIterator)(nil)

// memoryIterator is the iterator implementation for MemoryStore
type memoryIterator struct {
	iter treemap.Iterator
	keys keys.Range
}

// Next implements Iterator.Next
func (iter *memoryIterator) Next() bool {
	hasMore := iter.iter.Next()

	for ; hasMore && iter.keys.Min != nil && keys.Compare(iter.iter.Key().([]byte), iter.keys.Min) < 0; hasMore = iter.iter.Next() {
	}

	if !hasMore || iter.keys.Max != nil && keys.Compare(iter.iter.Key().([]byte), iter.keys.Max) >= 0 {
		return false
	}

	return true
}

// Key implements Iterator.Key
func (iter *memoryIterator) Key() []byte {
	return iter.iter.Key().([]byte)
}

// Value implements Iterator.Value
func (iter *memoryIterator) Value() []byte {
	return iter.iter.Value().([]byte)
}

// Error implements Iterator.Error
func (iter *memoryIterator) Error() error {
	return nil
}
