package main

import (
	"fmt"

	"github.com/levelup-project/levelup/internal/chat"
	"github.com/levelup-project/levelup/internal/metrics"
	"github.com/levelup-project/levelup/internal/ticket"
	"github.com/levelup-project/levelup/internal/tools"
	"github.com/levelup-project/levelup/internal/webapi"
	"github.com/levelup-project/levelup/internal/webserver"
	"github.com/spf13/cobra"
)

// Chat page themes.
const (
	ThemePlain = "plain"
	ThemeCard  = "card"
)

func newChatCommand() *cobra.Command {
	var (
		sf     serveFlags
		theme  string
		system string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Run the text chatbot in the browser",
		Long: `Run the text chatbot in the browser.

Every browser gets its own conversation, kept in memory until Clear is
pressed or the session has been idle for the configured TTL. The card theme
restyles the page and applies the system message box on every send rather
than only on Clear.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := loadProject()
			if err != nil {
				return err
			}
			theme = flagOr(cmd, "theme", theme, proj.Chat.Theme)
			if theme == "" {
				theme = ThemePlain
			}
			if theme != ThemePlain && theme != ThemeCard {
				return fmt.Errorf("unknown theme %q (want %s or %s)", theme, ThemePlain, ThemeCard)
			}
			system = flagOr(cmd, "system", system, proj.Chat.System)

			client, err := newChatClient(cmd)
			if err != nil {
				return err
			}

			opts := chat.Options{System: system, SyncSystem: theme == ThemeCard}
			sessions := webapi.NewSessionStore(proj.Server.SessionTTL, func() *chat.Session {
				return chat.NewSession(client, opts)
			})
			rec := metrics.New()
			sessions.OnChange(rec.SetSessions)

			registry, err := tools.UserFunctions(ticket.NewWriter(proj.Tickets.Dir))
			if err != nil {
				return err
			}

			cfg := webserver.Config{
				Page:     webserver.PageChat,
				Title:    "Project LevelUP – Generative AI Chat",
				Subtitle: "Type a question and get an answer using your configured Azure model deployment.",
				System:   system,
				API: webapi.Deps{
					Sessions: sessions,
					Tools:    registry,
					Metrics:  rec,
				},
			}
			if theme == ThemeCard {
				cfg.Theme = ThemeCard
			}
			sf.apply(cmd, proj, &cfg)

			return serve(cmd.Context(), cfg, sessions, proj.Server.SessionTTL)
		},
	}

	sf.register(cmd)
	cmd.Flags().StringVar(&theme, "theme", ThemePlain, "Page theme: plain or card")
	cmd.Flags().StringVar(&system, "system", "", "Initial system message")
	return cmd
}
