package tui

import (
	"context"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/BouchraBenGhazala/PlanIQ/internal/assistant"
	"github.com/BouchraBenGhazala/PlanIQ/internal/calendar"
	"github.com/BouchraBenGhazala/PlanIQ/internal/chat"
	"github.com/BouchraBenGhazala/PlanIQ/internal/config"
	"github.com/BouchraBenGhazala/PlanIQ/internal/ics"
)

// assistantReplyMsg carries a successful /chat round-trip.
type assistantReplyMsg struct{ reply string }

// assistantErrMsg carries a failed round-trip. The error is not shown to the
// user (the fixed fallback reply is); it is kept for the status line.
type assistantErrMsg struct{ err error }

// refreshDueMsg fires when a scheduled calendar refresh's delay elapses. The
// panel applies it only if seq is still the outstanding schedule.
type refreshDueMsg struct{ seq uint64 }

// agendaMsg carries a fetched agenda. Stale fetches (older seq) are dropped.
type agendaMsg struct {
	seq     uint64
	entries []ics.Entry
	err     error
}

type appModel struct {
	cfg *config.Config

	conv   *chat.Conversation
	panel  *calendar.Panel
	orch   *chat.Orchestrator
	client *assistant.Client

	fetcher  *ics.Fetcher
	agenda   []ics.Entry
	agendaOK bool
	fetchSeq uint64
	loc      *time.Location

	vp    viewport.Model
	input textinput.Model
	spin  spinner.Model

	width  int
	height int
	ready  bool

	lastErr string
}

func newAppModel(cfg *config.Config) appModel {
	conv := chat.NewConversation()
	panel := calendar.NewPanel(cfg.CalendarEmbedURL)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.Local
	}

	m := appModel{
		cfg:     cfg,
		conv:    conv,
		panel:   panel,
		orch:    chat.NewOrchestrator(conv, panel),
		client:  assistant.NewClient(cfg.APIBaseURL),
		fetcher: ics.NewFetcher(),
		loc:     loc,
	}

	m.input = textinput.New()
	m.input.Placeholder = "Ex: Schedule a meeting with Bob tomorrow at 2 PM..."
	m.input.CharLimit = 0
	m.input.Focus()

	m.spin = spinner.New(spinner.WithSpinner(spinner.Dot))

	m.vp = viewport.New(0, 0)
	return m
}

func (m appModel) Init() tea.Cmd { return textinput.Blink }

// sendCmd issues the single outbound /chat call for one submission.
func sendCmd(client *assistant.Client, payload []chat.Message) tea.Cmd {
	return func() tea.Msg {
		reply, err := client.Chat(context.Background(), payload)
		if err != nil {
			return assistantErrMsg{err: err}
		}
		return assistantReplyMsg{reply: reply}
	}
}

// scheduleRefreshCmd delivers the deferred refresh for seq after delay.
func scheduleRefreshCmd(seq uint64, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg { return refreshDueMsg{seq: seq} })
}

// fetchAgendaCmd downloads the agenda feed with a cache-busting token so the
// panel reload really bypasses any intermediary cache.
func fetchAgendaCmd(fetcher *ics.Fetcher, feedURL string, seq uint64) tea.Cmd {
	return func() tea.Msg {
		entries, err := fetcher.Fetch(context.Background(), bustCache(feedURL))
		return agendaMsg{seq: seq, entries: entries, err: err}
	}
}

func bustCache(url string) string {
	sep := "?"
	for _, r := range url {
		if r == '?' {
			sep = "&"
			break
		}
	}
	return url + sep + "nocache=" + strconv.FormatInt(time.Now().UnixMilli(), 10)
}

func (m appModel) chatWidth() int {
	if m.panel.IsOpen() {
		return m.width * 6 / 10
	}
	return m.width
}

func (m appModel) panelWidth() int {
	if !m.panel.IsOpen() {
		return 0
	}
	return m.width - m.chatWidth()
}

func (m *appModel) resize() {
	const chromeLines = 4 // header + status + input + spacing
	m.vp.Width = maxInt(0, m.chatWidth()-1)
	m.vp.Height = maxInt(1, m.height-chromeLines)
	m.input.Width = maxInt(10, m.chatWidth()-6)
	m.ready = m.width > 0 && m.height > 0
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

