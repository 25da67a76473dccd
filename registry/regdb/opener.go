package regdb

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jrife/regdb/registry"
	"github.com/jrife/regdb/storage/kv/plugins"
	"github.com/jrife/regdb/utils/log"
	"go.uber.org/zap"
)

type connectionKey struct {
	driver string
	path   string
}

type connection struct {
	db   *DB
	refs int
}

// Opener shares one DB between every handle opened for the same
// driver and path. The store is closed when the last handle is.
type Opener struct {
	mu          sync.Mutex
	plugins     *plugins.Manager
	connections map[connectionKey]*connection
}

// NewOpener creates an Opener with no open connections
func NewOpener() *Opener {
	return &Opener{
		plugins:     plugins.NewManager(),
		connections: map[connectionKey]*connection{},
	}
}

// Open returns a handle to the database described by config. The
// first open of a store creates it if needed and runs Bootstrap.
func (opener *Opener) Open(ctx context.Context, config Config) (*Handle, error) {
	config = config.withDefaults()
	key := connectionKey{driver: config.Driver, path: config.Path}

	if key.path != "" {
		key.path = filepath.Clean(key.path)
	}

	ctx = log.WithFields(ctx, zap.String("driver", key.driver), zap.String("path", key.path))
	logger := log.Logger(ctx, config.Logger)

	opener.mu.Lock()
	defer opener.mu.Unlock()

	if conn, ok := opener.connections[key]; ok {
		conn.refs++
		logger.Info("reusing registry connection", zap.Int("refs", conn.refs))

		return newHandle(conn.db, opener, key), nil
	}

	plugin := opener.plugins.Plugin(config.Driver)

	if plugin == nil {
		return nil, fmt.Errorf("no such storage driver %q (available: %s): %w", config.Driver, strings.Join(opener.plugins.Names(), ", "), registry.ErrInvalidArgument)
	}

	store, err := plugin.NewStore(config.pluginOptions())

	if err != nil {
		return nil, fmt.Errorf("%w: could not open %s store at %s: %w", registry.ErrIOFailure, config.Driver, config.Path, err)
	}

	db := New(store, config)

	if err := db.Bootstrap(ctx); err != nil {
		store.Close()

		return nil, err
	}

	opener.connections[key] = &connection{db: db, refs: 1}
	logger.Info("opened registry connection")

	return newHandle(db, opener, key), nil
}

// Refs returns the number of open handles for driver and path
func (opener *Opener) Refs(driver string, path string) int {
	opener.mu.Lock()
	defer opener.mu.Unlock()

	if path != "" {
		path = filepath.Clean(path)
	}

	if conn, ok := opener.connections[connectionKey{driver: driver, path: path}]; ok {
		return conn.refs
	}

	return 0
}

func (opener *Opener) release(key connectionKey) error {
	opener.mu.Lock()
	defer opener.mu.Unlock()

	conn, ok := opener.connections[key]

	if !ok {
		return nil
	}

	conn.refs--
	logger := conn.db.logger.With(zap.String("driver", key.driver), zap.String("path", key.path))

	if conn.refs > 0 {
		logger.Info("released registry connection", zap.Int("refs", conn.refs))

		return nil
	}

	delete(opener.connections, key)
	logger.Info("closing registry connection")

	return conn.db.Close()
}

// Open opens a database with its own Opener so the handle shares
// nothing with other handles
func Open(ctx context.Context, config Config) (*Handle, error) {
	return NewOpener().Open(ctx, config)
}
