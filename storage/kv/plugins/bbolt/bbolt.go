package bbolt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jrife/regdb/storage/kv"
	"github.com/jrife/regdb/storage/kv/keys"
	"github.com/jrife/regdb/utils/uuid"
	bolt "go.etcd.io/bbolt"
)

const (
	DriverName = "bbolt"
)

var (
	dataBucket = []byte("regdb")
)

func Plugins() []kv.Plugin {
	return []kv.Plugin{
		&BBoltPlugin{},
	}
}

type BBoltPlugin struct {
}

func (plugin *BBoltPlugin) Name() string {
	return DriverName
}

// NewStore creates a store from options. "path" is required.
// "mode" (os.FileMode), "no_sync" (bool) and "timeout" (time.Duration)
// are optional.
func (plugin *BBoltPlugin) NewStore(options kv.PluginOptions) (kv.Store, error) {
	var config BBoltStoreConfig

	if path, ok := options["path"]; !ok {
		return nil, fmt.Errorf("\"path\" is required")
	} else if pathString, ok := path.(string); !ok {
		return nil, fmt.Errorf("\"path\" must be a string")
	} else {
		config.Path = pathString
	}

	if mode, ok := options["mode"]; ok {
		if config.Mode, ok = mode.(os.FileMode); !ok {
			return nil, fmt.Errorf("\"mode\" must be an os.FileMode")
		}
	}

	if noSync, ok := options["no_sync"]; ok {
		if config.NoSync, ok = noSync.(bool); !ok {
			return nil, fmt.Errorf("\"no_sync\" must be a bool")
		}
	}

	if timeout, ok := options["timeout"]; ok {
		if config.Timeout, ok = timeout.(time.Duration); !ok {
			return nil, fmt.Errorf("\"timeout\" must be a time.Duration")
		}
	}

	store, err := New(config)

	if err != nil {
		return nil, err
	}

	return store, nil
}

func (plugin *BBoltPlugin) NewTempStore() (kv.Store, error) {
	return plugin.NewStore(kv.PluginOptions{
		"path":    filepath.Join(os.TempDir(), uuid.TempName("regdb-bbolt")),
		"no_sync": true,
	})
}

type BBoltStoreConfig struct {
	Path string
	// Mode defaults to 0600
	Mode os.FileMode
	// NoSync skips fsync after each commit
	NoSync bool
	// Timeout bounds the wait for the file lock held by
	// another process. Zero waits forever.
	Timeout time.Duration
}

var _ kv.Store = (*BBoltStore)(nil)

func New(config BBoltStoreConfig) (*BBoltStore, error) {
	mode := config.Mode

	if mode == 0 {
		mode = 0600
	}

	db, err := bolt.Open(config.Path, mode, &bolt.Options{Timeout: config.Timeout})

	if err != nil {
		return nil, fmt.Errorf("could not open bbolt store at %s: %s", config.Path, err)
	}

	db.NoSync = config.NoSync

	if err := db.Update(func(txn *bolt.Tx) error {
		_, err := txn.CreateBucketIfNotExists(dataBucket)

		return err
	}); err != nil {
		db.Close()

		return nil, fmt.Errorf("could not ensure data bucket exists: %s", err)
	}

	return &BBoltStore{db: db}, nil
}

type BBoltStore struct {
	db *bolt.DB
}

func (store *BBoltStore) Begin(writable bool) (kv.Transaction, error) {
	transaction, err := store.db.Begin(writable)

	if err != nil {
		return nil, wrapError("could not begin transaction", err)
	}

	return &BBoltTransaction{transaction: transaction, bucket: transaction.Bucket(dataBucket)}, nil
}

func (store *BBoltStore) Sequence() (uint64, error) {
	var sequence uint64

	if err := store.db.View(func(txn *bolt.Tx) error {
		sequence = txn.Bucket(dataBucket).Sequence()

		return nil
	}); err != nil {
		return 0, wrapError("could not read sequence", err)
	}

	return sequence, nil
}

func (store *BBoltStore) Close() error {
	return store.db.Close()
}

func (store *BBoltStore) Delete() error {
	path := store.db.Path()

	if err := store.Close(); err != nil {
		return fmt.Errorf("could not close store: %s", err)
	}

	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("could not remove path %s: %s", path, err)
	}

	return nil
}

var _ kv.Transaction = (*BBoltTransaction)(nil)

type BBoltTransaction struct {
	transaction *bolt.Tx
	bucket      *bolt.Bucket
	dirty       bool
	done        bool
}

func (transaction *BBoltTransaction) Put(key []byte, value []byte) error {
	if err := transaction.checkUpdate(key); err != nil {
		return err
	}

	if value == nil {
		value = []byte{}
	}

	if err := transaction.bucket.Put(key, value); err != nil {
		return err
	}

	transaction.dirty = true

	return nil
}

func (transaction *BBoltTransaction) Delete(key []byte) error {
	if err := transaction.checkUpdate(key); err != nil {
		return err
	}

	if transaction.bucket.Get(key) == nil {
		return nil
	}

	if err := transaction.bucket.Delete(key); err != nil {
		return err
	}

	transaction.dirty = true

	return nil
}

// Get copies the value out since memory returned by bbolt
// is only valid for the life of the transaction
func (transaction *BBoltTransaction) Get(key []byte) ([]byte, error) {
	if transaction.done {
		return nil, kv.ErrTxDone
	}

	if len(key) == 0 {
		return nil, kv.ErrEmptyKey
	}

	value := transaction.bucket.Get(key)

	if value == nil {
		return nil, nil
	}

	return append([]byte{}, value...), nil
}

func (transaction *BBoltTransaction) Keys(keys keys.Range) (kv.Iterator, error) {
	if transaction.done {
		return nil, kv.ErrTxDone
	}

	return &BBoltIterator{cursor: transaction.bucket.Cursor(), keys: keys}, nil
}

func (transaction *BBoltTransaction) Writable() bool {
	return transaction.transaction.Writable()
}

func (transaction *BBoltTransaction) Sequence() (uint64, error) {
	if transaction.done {
		return 0, kv.ErrTxDone
	}

	return transaction.bucket.Sequence(), nil
}

// Commit bumps the bucket sequence once if anything
// was written during this transaction
func (transaction *BBoltTransaction) Commit() error {
	if transaction.done {
		return kv.ErrTxDone
	}

	transaction.done = true

	if !transaction.transaction.Writable() {
		return transaction.transaction.Rollback()
	}

	if transaction.dirty {
		if _, err := transaction.bucket.NextSequence(); err != nil {
			transaction.transaction.Rollback()

			return fmt.Errorf("could not increment sequence: %s", err)
		}
	}

	return transaction.transaction.Commit()
}

func (transaction *BBoltTransaction) Rollback() error {
	if transaction.done {
		return kv.ErrTxDone
	}

	transaction.done = true

	return transaction.transaction.Rollback()
}

func (transaction *BBoltTransaction) checkUpdate(key []byte) error {
	if transaction.done {
		return kv.ErrTxDone
	}

	if !transaction.transaction.Writable() {
		return kv.ErrReadOnly
	}

	if len(key) == 0 {
		return kv.ErrEmptyKey
	}

	return nil
}

var _ kv.Iterator = (*BBoltIterator)(nil)

type BBoltIterator struct {
	cursor  *bolt.Cursor
	keys    keys.Range
	started bool
	key     []byte
	value   []byte
}

func (iterator *BBoltIterator) Next() bool {
	var k, v []byte

	if !iterator.started {
		iterator.started = true

		if iterator.keys.Min == nil {
			k, v = iterator.cursor.First()
		} else {
			k, v = iterator.cursor.Seek(iterator.keys.Min)
		}
	} else {
		k, v = iterator.cursor.Next()
	}

	if k == nil || !iterator.keys.Contains(k) {
		iterator.key = nil
		iterator.value = nil

		return false
	}

	iterator.key = append([]byte{}, k...)
	iterator.value = append([]byte{}, v...)

	return true
}

func (iterator *BBoltIterator) Key() []byte {
	return iterator.key
}

func (iterator *BBoltIterator) Value() []byte {
	return iterator.value
}

func (iterator *BBoltIterator) Error() error {
	return nil
}

func wrapError(wrap string, err error) error {
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return kv.ErrClosed
	}

	return fmt.Errorf("%s: %s", wrap, err)
}
