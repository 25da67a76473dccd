package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jrife/regdb/registry/regdb"
	"github.com/jrife/regdb/registry/smbconf"
	"github.com/jrife/regdb/storage/kv/plugins"
	"github.com/jrife/regdb/storage/kv/plugins/bbolt"
	"github.com/spf13/cobra"
)

type options struct {
	dbPath     string
	driver     string
	configFile string
	verbose    bool
	jsonOut    bool
}

type app struct {
	opts options
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "regconf",
		Short: "Manage a share configuration stored in a registry database",
		Long: `regconf reads and edits an smb.conf style configuration kept in a
registry database under HKLM\SOFTWARE\Samba\smbconf. It can also list
raw registry keys and values.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.opts.dbPath, "db", defaultDBPath, "Path of the registry database")
	flags.StringVar(&a.opts.driver, "driver", bbolt.DriverName, "Storage driver ("+strings.Join(plugins.NewManager().Names(), ", ")+")")
	flags.StringVar(&a.opts.configFile, "config", "", "YAML config file")
	flags.BoolVarP(&a.opts.verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVar(&a.opts.jsonOut, "json", false, "Output in JSON format")

	rootCmd.AddCommand(
		a.newListCmd(),
		a.newListSharesCmd(),
		a.newShowShareCmd(),
		a.newAddShareCmd(),
		a.newDelShareCmd(),
		a.newSetParmCmd(),
		a.newGetParmCmd(),
		a.newDelParmCmd(),
		a.newDropCmd(),
		a.newImportCmd(),
		a.newKeysCmd(),
		a.newValuesCmd(),
		a.newSeqNumCmd(),
	)

	return rootCmd
}

// withDB opens the database for the duration of fn
func (a *app) withDB(cmd *cobra.Command, fn func(ctx context.Context, db *regdb.Handle) error) error {
	config, err := buildConfig(&a.opts, cmd.Flags())

	if err != nil {
		return err
	}

	defer config.Logger.Sync()

	ctx := cmd.Context()

	if ctx == nil {
		ctx = context.Background()
	}

	handle, err := regdb.Open(ctx, config)

	if err != nil {
		return fmt.Errorf("could not open registry: %w", err)
	}

	defer handle.Close()

	return fn(ctx, handle)
}

// withConf is withDB for commands working on the share configuration
func (a *app) withConf(cmd *cobra.Command, fn func(ctx context.Context, conf *smbconf.Conf) error) error {
	return a.withDB(cmd, func(ctx context.Context, db *regdb.Handle) error {
		return fn(ctx, smbconf.New(db, db.Logger()))
	})
}

func printJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(v)
}

func printShare(w io.Writer, share smbconf.Share) {
	fmt.Fprintf(w, "[%s]\n", share.Name)

	for _, param := range share.Parameters {
		fmt.Fprintf(w, "\t%s = %s\n", param.Name, param.Value)
	}

	fmt.Fprintln(w)
}
