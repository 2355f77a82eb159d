package cli

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/BouchraBenGhazala/PlanIQ/internal/server"
	"github.com/BouchraBenGhazala/PlanIQ/internal/store"
)

func newServeCmd(app *App) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the PlanIQ brain (chat endpoint + calendar feed)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				app.cfg.Listen = listen
			}

			log := slog.New(slog.NewJSONHandler(os.Stderr, nil))

			st, err := store.Open(cmd.Context(), app.cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			loc, err := time.LoadLocation(app.cfg.Timezone)
			if err != nil {
				log.Warn("bad timezone, using local", "timezone", app.cfg.Timezone, "err", err)
				loc = time.Local
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(server.NewAgent(st, loc), st, log)
			return srv.ListenAndServe(ctx, app.cfg.Listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (overrides config, e.g. :8080)")
	return cmd
}
