package main

import (
	"context"
	"fmt"

	"github.com/jrife/regdb/registry/regdb"
	"github.com/spf13/cobra"
)

type valueOutput struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

func (a *app) newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys <path>",
		Short: "List the subkeys of a registry key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(cmd, func(ctx context.Context, db *regdb.Handle) error {
				catalog, err := db.FetchSubkeys(ctx, args[0])

				if err != nil {
					return err
				}

				if a.opts.jsonOut {
					return printJSON(cmd.OutOrStdout(), catalog.Names)
				}

				for _, name := range catalog.Names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}

				return nil
			})
		},
	}
}

func (a *app) newValuesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "values <path>",
		Short: "List the values of a registry key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(cmd, func(ctx context.Context, db *regdb.Handle) error {
				exists, err := db.KeyExists(ctx, args[0])

				if err != nil {
					return err
				}

				if !exists {
					return fmt.Errorf("key %s does not exist", args[0])
				}

				catalog, err := db.FetchValues(ctx, args[0])

				if err != nil {
					return err
				}

				values := make([]valueOutput, 0, catalog.Len())

				for _, value := range catalog.Values {
					values = append(values, valueOutput{Name: value.Name, Type: value.Type.String(), Value: value.Display()})
				}

				if a.opts.jsonOut {
					return printJSON(cmd.OutOrStdout(), values)
				}

				for _, value := range values {
					fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) = %s\n", value.Name, value.Type, value.Value)
				}

				return nil
			})
		},
	}
}

func (a *app) newSeqNumCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seqnum",
		Short: "Print the current change sequence number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(cmd, func(ctx context.Context, db *regdb.Handle) error {
				seq, err := db.CurrentSequence(ctx)

				if err != nil {
					return err
				}

				if a.opts.jsonOut {
					return printJSON(cmd.OutOrStdout(), map[string]uint64{"sequence": seq})
				}

				fmt.Fprintln(cmd.OutOrStdout(), seq)

				return nil
			})
		},
	}
}
