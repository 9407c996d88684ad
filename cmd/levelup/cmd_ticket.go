package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/levelup-project/levelup/internal/ticket"
	"github.com/spf13/cobra"
)

func newTicketCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ticket",
		Short: "Work with support tickets",
	}
	cmd.AddCommand(newTicketSubmitCommand())
	return cmd
}

func newTicketSubmitCommand() *cobra.Command {
	var (
		email       string
		description string
		dir         string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Write a support ticket file",
		Long: `Write a support ticket file.

The ticket is saved as ticket-<id>.txt in the tickets directory and a JSON
confirmation message is printed. Use --description - to read the description
from standard input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := loadProject()
			if err != nil {
				return err
			}

			if description == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading description: %w", err)
				}
				description = strings.TrimRight(string(data), "\r\n")
			}
			if strings.TrimSpace(description) == "" {
				return errors.New("a description is required")
			}

			w := ticket.NewWriter(flagOr(cmd, "dir", dir, proj.Tickets.Dir))
			_, msg, err := w.Submit(email, description)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg) //nolint:errcheck
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address of the reporter (required)")
	cmd.Flags().StringVar(&description, "description", "", "Description of the problem, or - for stdin")
	cmd.Flags().StringVar(&dir, "dir", "", "Directory ticket files are written to")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
