package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jrife/regdb/registry/regdb"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const defaultDBPath = "registry.db"

// fileConfig is the layout of the --config YAML file
type fileConfig struct {
	Driver      string        `yaml:"driver"`
	Path        string        `yaml:"path"`
	LockTimeout time.Duration `yaml:"lock_timeout"`
	NoSync      bool          `yaml:"no_sync"`
}

func readConfigFile(path string) (fileConfig, error) {
	var config fileConfig

	data, err := os.ReadFile(path)

	if err != nil {
		return config, fmt.Errorf("could not read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("could not parse config file %s: %w", path, err)
	}

	return config, nil
}

// buildConfig merges the defaults, the config file and the
// flags. Flags that were set explicitly win.
func buildConfig(opts *options, flags *pflag.FlagSet) (regdb.Config, error) {
	config := regdb.DefaultConfig()
	config.Path = defaultDBPath

	if opts.configFile != "" {
		file, err := readConfigFile(opts.configFile)

		if err != nil {
			return config, err
		}

		if file.Driver != "" {
			config.Driver = file.Driver
		}

		if file.Path != "" {
			config.Path = file.Path
		}

		if file.LockTimeout > 0 {
			config.LockTimeout = file.LockTimeout
		}

		config.NoSync = file.NoSync
	}

	if flags.Changed("driver") {
		config.Driver = opts.driver
	}

	if flags.Changed("db") {
		config.Path = opts.dbPath
	}

	if opts.verbose {
		logger, err := zap.NewDevelopment()

		if err != nil {
			return config, fmt.Errorf("could not build logger: %w", err)
		}

		config.Logger = logger
	}

	return config, nil
}
