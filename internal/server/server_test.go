package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BouchraBenGhazala/PlanIQ/internal/chat"
	"github.com/BouchraBenGhazala/PlanIQ/internal/ics"
	"github.com/BouchraBenGhazala/PlanIQ/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.EventStore) {
	t.Helper()
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "events.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	agent := NewAgent(st, time.UTC)
	srv := httptest.NewServer(New(agent, st, slog.New(slog.NewTextHandler(io.Discard, nil))).Handler())
	t.Cleanup(srv.Close)
	return srv, st
}

func postChat(t *testing.T, url string, messages []chat.Message) (*http.Response, string) {
	t.Helper()
	body, err := json.Marshal(map[string]any{"messages": messages})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url+"/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(b)
}

func TestChatEndpoint_RoundTrip(t *testing.T) {
	srv, st := newTestServer(t)

	resp, body := postChat(t, srv.URL, []chat.Message{
		{Role: chat.RoleAssistant, Content: chat.Greeting},
		{Role: chat.RoleUser, Content: "Schedule lunch with Dana tomorrow at noon"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d; body = %s", resp.StatusCode, body)
	}

	var out struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(out.Response, "Done, scheduled") {
		t.Fatalf("response = %q", out.Response)
	}

	events, err := st.All(context.Background())
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("stored %d events; want 1", len(events))
	}
}

func TestChatEndpoint_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/chat", "application/json", strings.NewReader("not json"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed body status = %d; want 400", resp.StatusCode)
	}

	resp2, _ := postChat(t, srv.URL, nil)
	if resp2.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty messages status = %d; want 400", resp2.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(out["status"], "online") {
		t.Fatalf("status body = %v", out)
	}
}

func TestCalendarFeed(t *testing.T) {
	srv, st := newTestServer(t)

	if _, err := st.Create(context.Background(), store.Event{
		Title:    "Lunch with Dana",
		Start:    time.Date(2026, 9, 2, 12, 0, 0, 0, time.UTC),
		End:      time.Date(2026, 9, 2, 13, 0, 0, 0, time.UTC),
		Location: "Bistro",
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// The nocache token clients append must not bother the feed.
	resp, err := http.Get(srv.URL + "/calendar.ics?nocache=123456")
	if err != nil {
		t.Fatalf("get feed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Fatalf("content type = %q", ct)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	entries, err := ics.Parse(body)
	if err != nil {
		t.Fatalf("parse feed: %v", err)
	}
	if len(entries) != 1 || entries[0].Summary != "Lunch with Dana" {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].Location != "Bistro" {
		t.Fatalf("location = %q", entries[0].Location)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/chat", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("preflight status = %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS allow-origin header")
	}
}
