package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/levelup-project/levelup/internal/config"
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "levelup",
		Short: "LevelUp - generative AI demos on Azure model deployments",
		Long: `LevelUp runs small generative AI demos against Azure OpenAI and
Azure AI Foundry model deployments.

Each subcommand is an independent demo: a text chatbot, a vision
question-and-answer loop and web page, an image generator, and a support
ticket tool. Endpoints and deployments are read from the environment or
from a .env file; UI defaults come from .levelup.yaml.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	envFile := cmd.PersistentFlags().String("env-file", ".env", "Dotenv file to load before reading settings")
	cmd.PersistentFlags().String("tenant-id", "", "Microsoft Entra tenant to request tokens from")
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
		return config.LoadDotEnv(*envFile)
	}

	// Add subcommands
	cmd.AddCommand(newChatCommand())
	cmd.AddCommand(newVisionCommand())
	cmd.AddCommand(newImagineCommand())
	cmd.AddCommand(newTicketCommand())
	cmd.AddCommand(newToolsCommand())

	return cmd
}

func execute(ctx context.Context) error {
	return runCommand(ctx, newRootCommand())
}

// runCommand executes cmd. A run cut short by cancelling ctx reports the
// cancellation cause, also when the command shut down cleanly.
func runCommand(ctx context.Context, cmd *cobra.Command) error {
	err := cmd.ExecuteContext(ctx)
	if ctx.Err() == nil || errors.Is(err, context.Canceled) {
		return err
	}
	if err == nil {
		return context.Cause(ctx)
	}
	return fmt.Errorf("%w: %w", context.Cause(ctx), err)
}
