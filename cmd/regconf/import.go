package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/jrife/regdb/registry/smbconf"
	"github.com/spf13/cobra"
	"gopkg.in/ini.v1"
)

// explicitDefault matches a section header that the ini parser
// would merge into the keys outside any section
var explicitDefault = regexp.MustCompile(`(?m)^[ \t]*\[[ \t]*` + ini.DefaultSection + `[ \t]*\]`)

// readShares parses an smb.conf file. Keys outside any section
// belong to [global]. [global] comes first in the result.
func readShares(filename string) ([]smbconf.Share, error) {
	data, err := os.ReadFile(filename)

	if err != nil {
		return nil, fmt.Errorf("could not read configuration file: %w", err)
	}

	if explicitDefault.Match(data) {
		return nil, fmt.Errorf("error parsing configuration file %s: section [%s] is reserved", filename, ini.DefaultSection)
	}

	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:     true,
		SkipUnrecognizableLines: true,
		KeyValueDelimiters:      "=",
	}, data)

	if err != nil {
		return nil, fmt.Errorf("error parsing configuration file: %w", err)
	}

	global := smbconf.Share{Name: smbconf.GlobalName}
	hasGlobal := false
	shares := []smbconf.Share{}

	for _, section := range file.Sections() {
		name := strings.ToLower(strings.TrimSpace(section.Name()))

		if section.Name() == ini.DefaultSection {
			if len(section.Keys()) == 0 {
				continue
			}

			name = smbconf.GlobalName
		}

		params := make([]smbconf.Parameter, 0, len(section.Keys()))

		for _, key := range section.Keys() {
			params = append(params, smbconf.Parameter{Name: smbconf.CanonicalParameter(key.Name()), Value: key.Value()})
		}

		if name == smbconf.GlobalName {
			hasGlobal = true
			global.Parameters = append(global.Parameters, params...)

			continue
		}

		shares = append(shares, smbconf.Share{Name: name, Parameters: params})
	}

	if hasGlobal {
		shares = append([]smbconf.Share{global}, shares...)
	}

	return shares, nil
}

// importShare replaces the section in the registry with share
func importShare(ctx context.Context, conf *smbconf.Conf, share smbconf.Share) error {
	exists, err := conf.ShareExists(ctx, share.Name)

	if err != nil {
		return err
	}

	if exists {
		if err := conf.DeleteShare(ctx, share.Name); err != nil {
			return err
		}
	}

	if err := conf.CreateShare(ctx, share.Name); err != nil {
		return err
	}

	for _, param := range share.Parameters {
		if err := conf.SetParameter(ctx, share.Name, param.Name, param.Value); err != nil {
			return fmt.Errorf("error setting parameter '%s': %w", param.Name, err)
		}
	}

	return nil
}

func (a *app) newImportCmd() *cobra.Command {
	var testMode bool

	cmd := &cobra.Command{
		Use:   "import [--test] <filename> [<servicename>]",
		Short: "Import configuration from an smb.conf file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]
			servicename := ""

			if len(args) > 1 {
				servicename = strings.ToLower(args[1])
			}

			shares, err := readShares(filename)

			if err != nil {
				return err
			}

			selected := []smbconf.Share{}

			for _, share := range shares {
				if servicename == "" || share.Name == servicename {
					selected = append(selected, share)
				}
			}

			if servicename != "" && len(selected) == 0 {
				return fmt.Errorf("share %s not found in file %s", servicename, filename)
			}

			if testMode {
				return a.printImport(cmd.OutOrStdout(), selected)
			}

			return a.withConf(cmd, func(ctx context.Context, conf *smbconf.Conf) error {
				for _, share := range selected {
					if err := importShare(ctx, conf, share); err != nil {
						return fmt.Errorf("error importing share %s: %w", share.Name, err)
					}
				}

				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&testMode, "test", "T", false, "Print what would be imported without changing the registry")

	return cmd
}

func (a *app) printImport(w io.Writer, shares []smbconf.Share) error {
	if a.opts.jsonOut {
		return printJSON(w, shares)
	}

	fmt.Fprint(w, "\nTEST MODE - would import the following configuration:\n\n")

	for _, share := range shares {
		printShare(w, share)
	}

	return nil
}
