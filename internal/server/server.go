// Package server implements the PlanIQ backend: the /chat endpoint the
// client speaks to, plus the calendar feed it serves.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/BouchraBenGhazala/PlanIQ/internal/chat"
	"github.com/BouchraBenGhazala/PlanIQ/internal/ics"
	"github.com/BouchraBenGhazala/PlanIQ/internal/store"
)

// CalendarName labels the served ICS feed.
const CalendarName = "PlanIQ Demo Calendar"

type Server struct {
	agent *Agent
	store *store.EventStore
	log   *slog.Logger
}

func New(agent *Agent, st *store.EventStore, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Server{agent: agent, store: st, log: log}
}

// Handler builds the route table. CORS stays wide open: the only intended
// callers are local clients.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /", s.handleHealth)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /calendar.ics", s.handleFeed)

	return withCORS(s.withLogging(mux))
}

type chatRequest struct {
	Messages []chat.Message `json:"messages"`
}

type chatResponse struct {
	Response string `json:"response"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	reply, err := s.agent.Reply(ctx, req.Messages)
	if err != nil {
		s.log.Error("agent reply failed", "err", err)
		writeError(w, http.StatusInternalServerError, "agent error")
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Response: reply})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "PlanIQ Brain is online 🧠"})
}

// handleFeed serves the stored events as an ICS calendar. Cache-busting
// query parameters from clients are ignored on purpose; every response is
// built fresh anyway.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.All(r.Context())
	if err != nil {
		s.log.Error("load events for feed failed", "err", err)
		writeError(w, http.StatusInternalServerError, "feed error")
		return
	}

	entries := make([]ics.Entry, 0, len(events))
	for _, ev := range events {
		entries = append(entries, ics.Entry{
			UID:      ev.ID,
			Summary:  ev.Title,
			Start:    ev.Start,
			End:      ev.End,
			Location: ev.Location,
			Notes:    ev.Notes,
		})
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	_, _ = w.Write([]byte(ics.Build(CalendarName, entries)))
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	s.log.Info("planiq brain listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start).String())
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": strings.TrimSpace(msg)})
}
