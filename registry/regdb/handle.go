package regdb

import (
	"context"
	"sync/atomic"

	"github.com/jrife/regdb/registry"
	"go.uber.org/zap"
)

// Handle is one owner's reference to a shared DB. It is safe for
// concurrent use, including a Close that races with other calls:
// once closed every operation returns registry.ErrClosed.
type Handle struct {
	db     *DB
	opener *Opener
	key    connectionKey
	closed atomic.Bool
}

func newHandle(db *DB, opener *Opener, key connectionKey) *Handle {
	return &Handle{db: db, opener: opener, key: key}
}

// DB returns the shared database, or nil once the handle is closed.
// A nil *DB returns registry.ErrClosed from every operation.
func (handle *Handle) DB() *DB {
	if handle == nil || handle.closed.Load() {
		return nil
	}

	return handle.db
}

// Close releases this handle's reference. Closing a handle twice
// has no effect.
func (handle *Handle) Close() error {
	if !handle.closed.CompareAndSwap(false, true) {
		return nil
	}

	return handle.opener.release(handle.key)
}

// Logger returns the database logger. A closed handle returns a
// no-op logger.
func (handle *Handle) Logger() *zap.Logger {
	return handle.DB().Logger()
}

func (handle *Handle) FetchSubkeys(ctx context.Context, path string) (*registry.SubkeyCatalog, error) {
	return handle.DB().FetchSubkeys(ctx, path)
}

func (handle *Handle) StoreSubkeys(ctx context.Context, path string, names []string) error {
	return handle.DB().StoreSubkeys(ctx, path, names)
}

func (handle *Handle) FetchValues(ctx context.Context, path string) (*registry.ValueCatalog, error) {
	return handle.DB().FetchValues(ctx, path)
}

func (handle *Handle) StoreValues(ctx context.Context, path string, values []registry.Value) error {
	return handle.DB().StoreValues(ctx, path, values)
}

func (handle *Handle) KeyExists(ctx context.Context, path string) (bool, error) {
	return handle.DB().KeyExists(ctx, path)
}

func (handle *Handle) CreateKey(ctx context.Context, parent string, name string) (bool, error) {
	return handle.DB().CreateKey(ctx, parent, name)
}

func (handle *Handle) CreateKeyExclusive(ctx context.Context, parent string, name string) error {
	return handle.DB().CreateKeyExclusive(ctx, parent, name)
}

func (handle *Handle) DeleteKey(ctx context.Context, parent string, name string) error {
	return handle.DB().DeleteKey(ctx, parent, name)
}

func (handle *Handle) GetValue(ctx context.Context, path string, name string) (registry.Value, error) {
	return handle.DB().GetValue(ctx, path, name)
}

func (handle *Handle) SetValue(ctx context.Context, path string, value registry.Value) error {
	return handle.DB().SetValue(ctx, path, value)
}

func (handle *Handle) DeleteValue(ctx context.Context, path string, name string) error {
	return handle.DB().DeleteValue(ctx, path, name)
}

func (handle *Handle) GetSecDesc(ctx context.Context, path string) (*registry.SecurityDescriptor, error) {
	return handle.DB().GetSecDesc(ctx, path)
}

func (handle *Handle) SetSecDesc(ctx context.Context, path string, sd *registry.SecurityDescriptor) error {
	return handle.DB().SetSecDesc(ctx, path, sd)
}

func (handle *Handle) CurrentSequence(ctx context.Context) (uint64, error) {
	return handle.DB().CurrentSequence(ctx)
}

func (handle *Handle) NeedsUpdate(ctx context.Context, sequence uint64) (bool, error) {
	return handle.DB().NeedsUpdate(ctx, sequence)
}

func (handle *Handle) SubkeysNeedUpdate(ctx context.Context, catalog *registry.SubkeyCatalog) (bool, error) {
	return handle.DB().SubkeysNeedUpdate(ctx, catalog)
}

func (handle *Handle) ValuesNeedUpdate(ctx context.Context, catalog *registry.ValueCatalog) (bool, error) {
	return handle.DB().ValuesNeedUpdate(ctx, catalog)
}

func (handle *Handle) Bootstrap(ctx context.Context) error {
	return handle.DB().Bootstrap(ctx)
}
