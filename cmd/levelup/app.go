package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/levelup-project/levelup/internal/azopenai"
	"github.com/levelup-project/levelup/internal/config"
	"github.com/levelup-project/levelup/internal/projectconfig"
	"github.com/levelup-project/levelup/internal/webapi"
	"github.com/levelup-project/levelup/internal/webserver"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// newCredential builds the token credential; tests replace it.
var newCredential = azopenai.NewDeveloperCredential

// downloadTimeout bounds fetching images from remote URLs.
const downloadTimeout = 60 * time.Second

func newDownloadClient() *http.Client {
	return &http.Client{Timeout: downloadTimeout}
}

func loadProject() (*projectconfig.ProjectConfig, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	cfg, err := projectconfig.Load(wd)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", projectconfig.FileName, err)
	}
	return cfg, nil
}

func credential(cmd *cobra.Command) (azcore.TokenCredential, error) {
	tenant, _ := cmd.Flags().GetString("tenant-id")
	return newCredential(tenant)
}

// newChatClient reads the chat settings and builds the client behind the
// chat and vision demos.
func newChatClient(cmd *cobra.Command) (*azopenai.ChatClient, error) {
	settings, err := config.LoadChat(nil)
	if err != nil {
		return nil, err
	}
	cred, err := credential(cmd)
	if err != nil {
		return nil, err
	}
	return azopenai.NewChatClient(settings.Endpoint, settings.Deployment, settings.APIVersion, cred, nil)
}

// serveFlags are shared by every browser demo.
type serveFlags struct {
	port      int
	noBrowser bool
}

func (f *serveFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.port, "port", projectconfig.DefaultServerPort, "Port to serve the demo on (loopback only)")
	cmd.Flags().BoolVar(&f.noBrowser, "no-browser", false, "Do not open a browser")
}

// apply fills cfg from the project file, with explicit flags taking
// precedence.
func (f *serveFlags) apply(cmd *cobra.Command, proj *projectconfig.ProjectConfig, cfg *webserver.Config) {
	cfg.Port = proj.Server.Port
	if cmd.Flags().Changed("port") || cfg.Port == 0 {
		cfg.Port = f.port
	}
	cfg.NoBrowser = proj.Server.NoBrowser != nil && *proj.Server.NoBrowser
	if cmd.Flags().Changed("no-browser") {
		cfg.NoBrowser = f.noBrowser
	}
}

// serve runs the server and, when sessions is set, the idle-session sweeper
// until ctx is cancelled.
func serve(ctx context.Context, cfg webserver.Config, sessions *webapi.SessionStore, ttl time.Duration) error {
	srv, err := webserver.New(cfg)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(ctx) })
	if sessions != nil && ttl > 0 {
		g.Go(func() error { return sessions.Run(ctx, sweepInterval(ttl)) })
	}
	return g.Wait()
}

func sweepInterval(ttl time.Duration) time.Duration {
	if d := ttl / 4; d > time.Second {
		return d
	}
	return time.Second
}

// flagOr returns the flag value when set on the command line and fallback
// otherwise.
func flagOr(cmd *cobra.Command, name, value, fallback string) string {
	if cmd.Flags().Changed(name) {
		return value
	}
	return fallback
}
