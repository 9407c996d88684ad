package main

import (
	"os"

	"github.com/levelup-project/levelup/internal/console"
	"github.com/levelup-project/levelup/internal/metrics"
	"github.com/levelup-project/levelup/internal/webapi"
	"github.com/levelup-project/levelup/internal/webserver"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newVisionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vision",
		Short: "Ask questions about an image",
	}
	cmd.AddCommand(newVisionAskCommand())
	cmd.AddCommand(newVisionServeCommand())
	return cmd
}

func newVisionAskCommand() *cobra.Command {
	var (
		system         string
		defaultImage   string
		noDefaultImage bool
	)

	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Ask questions about one image in the terminal",
		Long: `Ask questions about one image in the terminal.

You are asked once for a local image path or an image URL; leave it blank to
use the default image. Then ask as many questions as you like. Each question
is sent on its own together with the image. Type 'quit' to exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := loadProject()
			if err != nil {
				return err
			}
			client, err := newChatClient(cmd)
			if err != nil {
				return err
			}

			cfg := console.VisionConfig{
				System:          flagOr(cmd, "system", system, proj.Vision.ConsoleSystem),
				DefaultImageURL: flagOr(cmd, "default-image", defaultImage, proj.Vision.DefaultImageURL),
				HTTPClient:      newDownloadClient(),
			}
			if noDefaultImage {
				cfg.DefaultImageURL = ""
			}

			out := cmd.OutOrStdout()
			if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
				cfg.Animate = true
				if w, _, err := term.GetSize(int(f.Fd())); err == nil {
					cfg.Width = w
				}
			}

			prompter := console.NewPrompter(cmd.InOrStdin(), out)
			return console.NewVisionLoop(client, prompter, out, cfg).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&system, "system", "", "System message")
	cmd.Flags().StringVar(&defaultImage, "default-image", "", "Image URL used when the image prompt is left blank")
	cmd.Flags().BoolVar(&noDefaultImage, "no-default-image", false, "Require an image instead of falling back to the default")
	return cmd
}

func newVisionServeCommand() *cobra.Command {
	var (
		sf     serveFlags
		system string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the vision chatbot in the browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := loadProject()
			if err != nil {
				return err
			}
			client, err := newChatClient(cmd)
			if err != nil {
				return err
			}
			system = flagOr(cmd, "system", system, proj.Vision.WebSystem)

			cfg := webserver.Config{
				Page:     webserver.PageVision,
				Title:    "Develop a Vision-Enabled Chat App (LevelUp Project)",
				Subtitle: "Upload an image and ask a question. Uses your configured model deployment.",
				System:   system,
				API: webapi.Deps{
					Vision:       client,
					VisionSystem: system,
					Metrics:      metrics.New(),
				},
			}
			sf.apply(cmd, proj, &cfg)

			return serve(cmd.Context(), cfg, nil, 0)
		},
	}

	sf.register(cmd)
	cmd.Flags().StringVar(&system, "system", "", "Default system message")
	return cmd
}
