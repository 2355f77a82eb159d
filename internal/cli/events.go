package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/BouchraBenGhazala/PlanIQ/internal/store"
)

func newEventsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect and edit the calendar event store directly",
	}
	cmd.AddCommand(newEventsListCmd(app))
	cmd.AddCommand(newEventsAddCmd(app))
	cmd.AddCommand(newEventsRemoveCmd(app))
	return cmd
}

type eventJSON struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Location string    `json:"location,omitempty"`
	Notes    string    `json:"notes,omitempty"`
}

func newEventsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored events as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(cmd.Context(), app.cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			events, err := st.All(cmd.Context())
			if err != nil {
				return err
			}

			out := make([]eventJSON, 0, len(events))
			for _, ev := range events {
				out = append(out, eventJSON{
					ID: ev.ID, Title: ev.Title,
					Start: ev.Start, End: ev.End,
					Location: ev.Location, Notes: ev.Notes,
				})
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}

func newEventsAddCmd(app *App) *cobra.Command {
	var (
		startStr string
		duration time.Duration
		location string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := time.Parse(time.RFC3339, startStr)
			if err != nil {
				return fmt.Errorf("parse --start (RFC3339): %w", err)
			}

			st, err := store.Open(cmd.Context(), app.cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			ev, err := st.Create(cmd.Context(), store.Event{
				Title:    args[0],
				Start:    start,
				End:      start.Add(duration),
				Location: location,
			})
			if err != nil {
				return err
			}
			fmt.Println(ev.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&startStr, "start", "", "Start time, RFC3339 (required)")
	cmd.Flags().DurationVar(&duration, "for", time.Hour, "Duration")
	cmd.Flags().StringVar(&location, "location", "", "Location")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func newEventsRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <event-id>",
		Short: "Remove an event by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(cmd.Context(), app.cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()
			return st.Delete(cmd.Context(), args[0])
		},
	}
}
