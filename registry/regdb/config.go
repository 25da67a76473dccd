package regdb

import (
	"os"
	"time"

	"github.com/jrife/regdb/storage/kv"
	"github.com/jrife/regdb/storage/kv/plugins/bbolt"
	"go.uber.org/zap"
)

const (
	// DefaultLockTimeout bounds the wait for a record lock
	DefaultLockTimeout = 10 * time.Second
	// DefaultFileMode is used for newly created store files
	DefaultFileMode os.FileMode = 0600
)

// Config configures a registry database
type Config struct {
	// Driver names the kv plugin, "bbolt" or "memory"
	Driver string
	// Path is the location of the store. The memory driver
	// uses it only to tell shared connections apart.
	Path string
	// LockTimeout bounds the wait for a record lock. Zero means
	// DefaultLockTimeout.
	LockTimeout time.Duration
	Logger      *zap.Logger
	// NoSync skips fsync after each commit
	NoSync   bool
	FileMode os.FileMode
}

// DefaultConfig returns a config for a bbolt store with
// the default lock timeout. Path must still be set.
func DefaultConfig() Config {
	return Config{
		Driver:      bbolt.DriverName,
		LockTimeout: DefaultLockTimeout,
		Logger:      zap.NewNop(),
		FileMode:    DefaultFileMode,
	}
}

func (config Config) withDefaults() Config {
	defaults := DefaultConfig()

	if config.Driver == "" {
		config.Driver = defaults.Driver
	}

	if config.LockTimeout <= 0 {
		config.LockTimeout = defaults.LockTimeout
	}

	if config.Logger == nil {
		config.Logger = defaults.Logger
	}

	if config.FileMode == 0 {
		config.FileMode = defaults.FileMode
	}

	return config
}

func (config Config) pluginOptions() kv.PluginOptions {
	return kv.PluginOptions{
		"path":    config.Path,
		"mode":    config.FileMode,
		"no_sync": config.NoSync,
		"timeout": config.LockTimeout,
	}
}
