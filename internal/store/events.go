// Package store is the backend's SQLite event store. One table, flat rows;
// the calendar itself is the source of truth the agent reads and writes.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when an event id does not exist.
var ErrNotFound = errors.New("event not found")

// Event is one calendar entry.
type Event struct {
	ID       string
	Title    string
	Start    time.Time
	End      time.Time
	Location string
	Notes    string
}

// EventStore wraps the SQLite database holding calendar events.
type EventStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the event store at path and applies the
// schema migration.
func Open(ctx context.Context, path string) (*EventStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Pragmas for multi-process local usage.
	// WAL enables one writer + many readers; busy_timeout helps avoid "database is locked" flakiness.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &EventStore{db: db}, nil
}

func (s *EventStore) Close() error { return s.db.Close() }

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			start_unixms INTEGER NOT NULL,
			end_unixms INTEGER NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			created_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_start ON events(start_unixms);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate events schema: %w", err)
		}
	}
	return nil
}

// Create inserts ev, assigning an id when empty, and returns the stored event.
func (s *EventStore) Create(ctx context.Context, ev Event) (Event, error) {
	if strings.TrimSpace(ev.Title) == "" {
		return Event{}, errors.New("event title required")
	}
	if ev.End.Before(ev.Start) || ev.End.Equal(ev.Start) {
		return Event{}, errors.New("event end must be after start")
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events(id, title, start_unixms, end_unixms, location, notes, created_at_unixms)
		 VALUES(?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Title, ev.Start.UnixMilli(), ev.End.UnixMilli(), ev.Location, ev.Notes, time.Now().UnixMilli())
	if err != nil {
		return Event{}, fmt.Errorf("insert event: %w", err)
	}
	return ev, nil
}

// Upcoming returns up to limit events ending at or after now, ordered by
// start time.
func (s *EventStore) Upcoming(ctx context.Context, now time.Time, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, start_unixms, end_unixms, location, notes
		 FROM events WHERE end_unixms >= ? ORDER BY start_unixms ASC LIMIT ?`,
		now.UnixMilli(), limit)
	if err != nil {
		return nil, fmt.Errorf("query upcoming events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// All returns every stored event ordered by start time.
func (s *EventStore) All(ctx context.Context) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, start_unixms, end_unixms, location, notes
		 FROM events ORDER BY start_unixms ASC`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// Overlapping returns events intersecting the [start, end) window.
func (s *EventStore) Overlapping(ctx context.Context, start, end time.Time) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, start_unixms, end_unixms, location, notes
		 FROM events WHERE start_unixms < ? AND end_unixms > ? ORDER BY start_unixms ASC`,
		end.UnixMilli(), start.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query overlapping events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// Update rewrites the stored event under ev.ID.
func (s *EventStore) Update(ctx context.Context, ev Event) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE events SET title = ?, start_unixms = ?, end_unixms = ?, location = ?, notes = ? WHERE id = ?`,
		ev.Title, ev.Start.UnixMilli(), ev.End.UnixMilli(), ev.Location, ev.Notes, ev.ID)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return requireRow(res)
}

// Delete removes the event with the given id.
func (s *EventStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return requireRow(res)
}

// DeleteByTitle removes at most one event whose title matches needle
// case-insensitively (exact title first, then substring). It returns the
// removed event.
func (s *EventStore) DeleteByTitle(ctx context.Context, needle string, now time.Time) (Event, error) {
	events, err := s.Upcoming(ctx, now, 100)
	if err != nil {
		return Event{}, err
	}
	lower := strings.ToLower(strings.TrimSpace(needle))
	var match *Event
	for i := range events {
		if strings.ToLower(events[i].Title) == lower {
			match = &events[i]
			break
		}
	}
	if match == nil {
		for i := range events {
			if strings.Contains(strings.ToLower(events[i].Title), lower) {
				match = &events[i]
				break
			}
		}
	}
	if match == nil {
		return Event{}, ErrNotFound
	}
	if err := s.Delete(ctx, match.ID); err != nil {
		return Event{}, err
	}
	return *match, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var out []Event
	for rows.Next() {
		var ev Event
		var startMS, endMS int64
		if err := rows.Scan(&ev.ID, &ev.Title, &startMS, &endMS, &ev.Location, &ev.Notes); err != nil {
			return nil, err
		}
		ev.Start = time.UnixMilli(startMS).UTC()
		ev.End = time.UnixMilli(endMS).UTC()
		out = append(out, ev)
	}
	return out, rows.Err()
}
