package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BouchraBenGhazala/PlanIQ/internal/config"
	"github.com/BouchraBenGhazala/PlanIQ/internal/tui"
)

type App struct {
	ConfigPath string
	APIBaseURL string

	cfg *config.Config
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "planiq",
		Short:        "PlanIQ agentic calendar assistant (chat TUI + local brain)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive chat
  planiq

  # Run the local assistant backend
  planiq serve

  # Scriptable access to the calendar
  planiq events list
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive chat.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runChat(app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(app.ConfigPath)
		if err != nil {
			return err
		}
		if strings.TrimSpace(app.APIBaseURL) != "" {
			cfg.APIBaseURL = app.APIBaseURL
		}
		app.cfg = cfg
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", envOr("PLANIQ_CONFIG", ""), "Path to config file (default: ~/.planiq/config.yaml)")
	cmd.PersistentFlags().StringVar(&app.APIBaseURL, "api", "", "Assistant backend base URL (overrides config/env)")

	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newEventsCmd(app))

	return cmd
}

func runChat(app *App) error {
	return tui.Run(app.cfg)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
