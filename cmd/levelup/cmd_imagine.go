package main

import (
	"errors"
	"fmt"

	"github.com/levelup-project/levelup/internal/azopenai"
	"github.com/levelup-project/levelup/internal/config"
	"github.com/levelup-project/levelup/internal/imagegen"
	"github.com/levelup-project/levelup/internal/metrics"
	"github.com/levelup-project/levelup/internal/webapi"
	"github.com/levelup-project/levelup/internal/webserver"
	"github.com/spf13/cobra"
)

func newImagineCommand() *cobra.Command {
	var (
		sf     serveFlags
		outDir string
		prompt string
	)

	cmd := &cobra.Command{
		Use:   "imagine",
		Short: "Generate images from a text prompt",
		Long: `Generate images from a text prompt.

By default a browser page is served where you enter a prompt, preview the
result and download the file. With --prompt a single image is generated and
the command exits; failures are reported on standard error. Images are saved
under the output directory as image_<timestamp>.png. When
IMAGE_BLOB_CONTAINER_URL is set every saved image is also uploaded to that
blob container.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := loadProject()
			if err != nil {
				return err
			}
			settings, err := config.LoadImage(nil)
			if err != nil {
				return err
			}
			cred, err := credential(cmd)
			if err != nil {
				return err
			}
			images, err := azopenai.NewImageClient(settings.Endpoint, settings.Deployment, settings.APIVersion, cred, nil)
			if err != nil {
				return err
			}

			opts := []imagegen.Option{imagegen.WithHTTPClient(newDownloadClient())}
			if settings.BlobContainerURL != "" {
				pub, err := imagegen.NewBlobPublisher(settings.BlobContainerURL, cred, nil)
				if err != nil {
					return err
				}
				opts = append(opts, imagegen.WithPublisher(pub))
			}
			gen := imagegen.New(images, flagOr(cmd, "out-dir", outDir, proj.Images.Dir), opts...)

			if cmd.Flags().Changed("prompt") {
				res, err := gen.Generate(cmd.Context(), prompt)
				if errors.Is(err, imagegen.ErrEmptyPrompt) {
					return errors.New(imagegen.EmptyPromptMessage)
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.Status) //nolint:errcheck
				if res.PublishedURL != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Published: %s\n", res.PublishedURL) //nolint:errcheck
				}
				return nil
			}

			cfg := webserver.Config{
				Page:     webserver.PageImagine,
				Title:    "Generate Images with AI (LevelUP Program)",
				Subtitle: "Enter a text prompt. The app generates an image using your Azure deployment, previews it, and lets you download the file.",
				API: webapi.Deps{
					Images:  gen,
					Metrics: metrics.New(),
				},
			}
			sf.apply(cmd, proj, &cfg)

			return serve(cmd.Context(), cfg, nil, 0)
		},
	}

	sf.register(cmd)
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Directory generated images are saved in")
	cmd.Flags().StringVar(&prompt, "prompt", "", "Generate one image for this prompt and exit")
	return cmd
}
