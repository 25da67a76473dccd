package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jrife/regdb/registry/smbconf"
	"github.com/spf13/cobra"
)

func (a *app) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Dump the complete configuration in smb.conf format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConf(cmd, func(ctx context.Context, conf *smbconf.Conf) error {
				shares, err := conf.GetConfig(ctx)

				if err != nil {
					return err
				}

				if a.opts.jsonOut {
					return printJSON(cmd.OutOrStdout(), shares)
				}

				for _, share := range shares {
					printShare(cmd.OutOrStdout(), share)
				}

				return nil
			})
		},
	}
}

func (a *app) newListSharesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listshares",
		Short: "List the share names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConf(cmd, func(ctx context.Context, conf *smbconf.Conf) error {
				names, err := conf.ShareNames(ctx)

				if err != nil {
					return err
				}

				if a.opts.jsonOut {
					return printJSON(cmd.OutOrStdout(), names)
				}

				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}

				return nil
			})
		},
	}
}

func (a *app) newShowShareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "showshare <sharename>",
		Short: "Show the definition of a share",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConf(cmd, func(ctx context.Context, conf *smbconf.Conf) error {
				share, err := conf.GetShare(ctx, strings.ToLower(args[0]))

				if err != nil {
					return fmt.Errorf("error getting share parameters: %w", err)
				}

				if a.opts.jsonOut {
					return printJSON(cmd.OutOrStdout(), share)
				}

				printShare(cmd.OutOrStdout(), share)

				return nil
			})
		},
	}
}

// addShareArgs are the parsed arguments of addshare
type addShareArgs struct {
	name      string
	path      string
	writeable string
	guestOK   string
	comment   string
}

// yesNo parses the y|N suffix of a "prefix=" argument
func yesNo(arg string, prefix string) (string, error) {
	if len(arg) <= len(prefix) || !strings.EqualFold(arg[:len(prefix)], prefix) {
		return "", fmt.Errorf("expected %s<y|N>, got %q", prefix, arg)
	}

	switch arg[len(prefix)] {
	case 'y', 'Y':
		return "yes", nil
	case 'n', 'N':
		return "no", nil
	}

	return "", fmt.Errorf("expected %s<y|N>, got %q", prefix, arg)
}

func parseAddShareArgs(args []string) (addShareArgs, error) {
	parsed := addShareArgs{
		name:      strings.ToLower(args[0]),
		path:      args[1],
		writeable: "no",
		guestOK:   "no",
	}

	var err error

	if len(args) > 2 {
		if parsed.writeable, err = yesNo(args[2], "writeable="); err != nil {
			return parsed, err
		}
	}

	if len(args) > 3 {
		if parsed.guestOK, err = yesNo(args[3], "guest_ok="); err != nil {
			return parsed, err
		}
	}

	if len(args) > 4 {
		parsed.comment = args[4]
	}

	return parsed, nil
}

func (a *app) newAddShareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "addshare <sharename> <path> [writeable={y|N} [guest_ok={y|N} [<comment>]]]",
		Short: "Add a new share",
		Args:  cobra.RangeArgs(2, 5),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseAddShareArgs(args)

			if err != nil {
				return err
			}

			if err := smbconf.ValidateShareName(parsed.name); err != nil {
				return err
			}

			if strings.EqualFold(parsed.name, smbconf.GlobalName) {
				return fmt.Errorf("'%s' is not a valid share name", smbconf.GlobalName)
			}

			if !filepath.IsAbs(parsed.path) {
				return fmt.Errorf("path '%s' is not an absolute path", parsed.path)
			}

			info, err := os.Stat(parsed.path)

			if err != nil {
				return fmt.Errorf("cannot stat path '%s' to ensure this is a directory: %w", parsed.path, err)
			}

			if !info.IsDir() {
				return fmt.Errorf("path '%s' is not a directory", parsed.path)
			}

			return a.withConf(cmd, func(ctx context.Context, conf *smbconf.Conf) error {
				if err := conf.CreateShare(ctx, parsed.name); err != nil {
					return fmt.Errorf("error creating share %s: %w", parsed.name, err)
				}

				params := [][2]string{{"path", parsed.path}}

				if parsed.comment != "" {
					params = append(params, [2]string{"comment", parsed.comment})
				}

				params = append(params, [2]string{"guest ok", parsed.guestOK}, [2]string{"writeable", parsed.writeable})

				for _, param := range params {
					if err := conf.SetParameter(ctx, parsed.name, param[0], param[1]); err != nil {
						return fmt.Errorf("error setting parameter %s: %w", param[0], err)
					}
				}

				return nil
			})
		},
	}
}

func (a *app) newDelShareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delshare <sharename>",
		Short: "Delete a share",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConf(cmd, func(ctx context.Context, conf *smbconf.Conf) error {
				if err := conf.DeleteShare(ctx, strings.ToLower(args[0])); err != nil {
					return fmt.Errorf("error deleting share %s: %w", args[0], err)
				}

				return nil
			})
		},
	}
}

func (a *app) newSetParmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setparm <section> <param> <value>",
		Short: "Store a parameter, creating the section if needed",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			service := strings.ToLower(args[0])

			return a.withConf(cmd, func(ctx context.Context, conf *smbconf.Conf) error {
				exists, err := conf.ShareExists(ctx, service)

				if err != nil {
					return err
				}

				if !exists {
					if err := conf.CreateShare(ctx, service); err != nil {
						return fmt.Errorf("error creating share '%s': %w", service, err)
					}
				}

				if err := conf.SetParameter(ctx, service, args[1], args[2]); err != nil {
					return fmt.Errorf("error setting value '%s': %w", args[1], err)
				}

				return nil
			})
		},
	}
}

func (a *app) newGetParmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "getparm <section> <param>",
		Short: "Retrieve the value of a parameter",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConf(cmd, func(ctx context.Context, conf *smbconf.Conf) error {
				value, err := conf.GetParameter(ctx, strings.ToLower(args[0]), args[1])

				if err != nil {
					return fmt.Errorf("error getting value '%s': %w", args[1], err)
				}

				if a.opts.jsonOut {
					return printJSON(cmd.OutOrStdout(), smbconf.Parameter{Name: smbconf.CanonicalParameter(args[1]), Value: value})
				}

				fmt.Fprintln(cmd.OutOrStdout(), value)

				return nil
			})
		},
	}
}

func (a *app) newDelParmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delparm <section> <param>",
		Short: "Delete a parameter",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConf(cmd, func(ctx context.Context, conf *smbconf.Conf) error {
				if err := conf.DeleteParameter(ctx, strings.ToLower(args[0]), args[1]); err != nil {
					return fmt.Errorf("error deleting value '%s': %w", args[1], err)
				}

				return nil
			})
		},
	}
}

func (a *app) newDropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop",
		Short: "Delete the complete configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConf(cmd, func(ctx context.Context, conf *smbconf.Conf) error {
				if err := conf.Drop(ctx); err != nil {
					return fmt.Errorf("error deleting configuration: %w", err)
				}

				return nil
			})
		},
	}
}
