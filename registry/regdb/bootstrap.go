package regdb

import (
	"context"

	"github.com/jrife/regdb/registry"
	"github.com/jrife/regdb/utils/log"
	"go.uber.org/zap"
)

// SchemaVersion is the version of the record layout written by
// this package
const SchemaVersion = 1

const (
	keyPrintingNT      = `HKLM\SOFTWARE\Microsoft\Windows NT\CurrentVersion\Print`
	keyPrinting2K      = keyPrintingNT + `\Printers`
	keyPrintingPorts   = `HKLM\SOFTWARE\Microsoft\Windows NT\CurrentVersion\Ports`
	keyCurrentVersion  = `HKLM\SOFTWARE\Microsoft\Windows NT\CurrentVersion`
	keyControl         = `HKLM\SYSTEM\CurrentControlSet\Control`
	keyServices        = `HKLM\SYSTEM\CurrentControlSet\Services`
	keyEventlog        = keyServices + `\Eventlog`
	keySmbConf         = `HKLM\SOFTWARE\Samba\smbconf`
	defaultSpoolFolder = `C:\Windows\System32\Spool\Printers`
)

var builtinPaths = []string{
	keyPrinting2K,
	keyPrintingPorts,
	keyControl + `\Print\Environments`,
	keyServices + `\LanmanServer\Shares`,
	keyEventlog,
	keySmbConf,
	keyCurrentVersion + `\Perflib`,
	keyCurrentVersion + `\Perflib\009`,
	keyControl + `\Print\Monitors`,
	keyControl + `\ProductOptions`,
	keyControl + `\Terminal Server\DefaultUserConfiguration`,
	keyServices + `\Tcpip\Parameters`,
	keyServices + `\Netlogon\Parameters`,
	`HKU`,
	`HKCR`,
	`HKPD`,
	`HKPT`,
}

type builtinValue struct {
	path  string
	value func() (registry.Value, error)
}

func stringDefault(name string, s string) func() (registry.Value, error) {
	return func() (registry.Value, error) {
		return registry.StringValue(name, s)
	}
}

func dwordDefault(name string, n uint32) func() (registry.Value, error) {
	return func() (registry.Value, error) {
		return registry.DwordValue(name, n), nil
	}
}

var builtinValues = []builtinValue{
	{path: keyPrintingPorts, value: stringDefault("Samba Printer Port", "")},
	{path: keyPrinting2K, value: stringDefault("DefaultSpoolDirectory", defaultSpoolFolder)},
	{path: keyEventlog, value: stringDefault("DisplayName", "Event Log")},
	{path: keyEventlog, value: dwordDefault("ErrorControl", 1)},
}

// Bootstrap creates the built-in keys and default values in one
// transaction. It never replaces a value that is already set, so
// it is safe to run on every open.
func (db *DB) Bootstrap(ctx context.Context) error {
	if db == nil {
		return registry.ErrClosed
	}

	ctx = log.WithFields(ctx, zap.String("operation", "Bootstrap"))
	logger := log.Logger(ctx, db.logger)

	err := db.update(ctx, func(txn *transaction) error {
		if err := checkVersion(txn, logger); err != nil {
			return err
		}

		for _, path := range builtinPaths {
			if err := createPath(txn, path); err != nil {
				return err
			}
		}

		for _, builtin := range builtinValues {
			if err := addDefault(txn, builtin); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		logger.Error("could not bootstrap registry", zap.Error(err))

		return err
	}

	logger.Info("registry bootstrapped", zap.Int("keys", len(builtinPaths)), zap.Int("values", len(builtinValues)))

	return nil
}

func checkVersion(txn *transaction, logger *zap.Logger) error {
	raw, err := txn.get(registry.VersionKey)

	if err != nil {
		return err
	}

	if raw == nil {
		return txn.put(registry.VersionKey, registry.PackVersion(SchemaVersion))
	}

	version, err := registry.UnpackVersion(raw)

	if err != nil {
		return err
	}

	if version != SchemaVersion {
		logger.Warn("unexpected schema version", zap.Uint32("version", version), zap.Uint32("expected", SchemaVersion))
	}

	return nil
}

func addDefault(txn *transaction, builtin builtinValue) error {
	key, err := registry.Canonicalize(builtin.path)

	if err != nil {
		return err
	}

	value, err := builtin.value()

	if err != nil {
		return err
	}

	catalog, err := readValues(txn, key)

	if err != nil {
		return err
	}

	if catalog.Contains(value.Name) {
		return nil
	}

	if err := catalog.Set(value); err != nil {
		return err
	}

	return writeValues(txn, key, catalog)
}
