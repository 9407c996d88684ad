package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/levelup-project/levelup/internal/ticket"
	"github.com/levelup-project/levelup/internal/tools"
	"github.com/spf13/cobra"
)

func newToolsCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List and call the user functions exposed to models",
	}
	cmd.PersistentFlags().StringVar(&dir, "tickets-dir", "", "Directory ticket files are written to")

	registry := func(cmd *cobra.Command) (*tools.Registry, error) {
		proj, err := loadProject()
		if err != nil {
			return nil, err
		}
		return tools.UserFunctions(ticket.NewWriter(flagOr(cmd, "tickets-dir", dir, proj.Tickets.Dir)))
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Print the function-calling definitions as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry(cmd)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(reg.Definitions())
		},
	}

	call := &cobra.Command{
		Use:   "call <name> [arguments-json]",
		Short: "Call a function with JSON arguments",
		Long: `Call a function with JSON arguments.

Arguments are validated against the function's JSON Schema before it runs.
When no arguments are given they are read from standard input.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry(cmd)
			if err != nil {
				return err
			}
			var raw []byte
			if len(args) == 2 {
				raw = []byte(args[1])
			} else if raw, err = io.ReadAll(cmd.InOrStdin()); err != nil {
				return fmt.Errorf("reading arguments: %w", err)
			}

			out, err := reg.Call(args[0], raw)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out) //nolint:errcheck
			return nil
		},
	}

	cmd.AddCommand(list, call)
	return cmd
}
