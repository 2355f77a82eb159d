package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"github.com/BouchraBenGhazala/PlanIQ/internal/chat"
	"github.com/BouchraBenGhazala/PlanIQ/internal/ics"
)

func (m appModel) View() string {
	if !m.ready {
		return "Loading…"
	}

	chatPane := m.renderChatPane()
	if !m.panel.IsOpen() {
		return chatPane
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, chatPane, m.renderPanel())
}

func (m appModel) renderChatPane() string {
	width := m.chatWidth()

	header := styleHeader().Render("PlanIQ") + styleMuted().Render("  Agentic Calendar Assistant")
	header = fitLine(header, width)

	status := m.renderStatus(width)

	input := "> " + m.input.View()

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.vp.View(),
		status,
		fitLine(input, width),
	)
}

func (m appModel) renderStatus(width int) string {
	var line string
	switch {
	case m.orch.Pending():
		line = m.spin.View() + styleMuted().Render(" Thinking…")
	case m.lastErr != "":
		line = styleError().Render("offline: ") + styleMuted().Render(m.lastErr)
	default:
		hint := "enter send · ctrl+o calendar · ctrl+r refresh · esc quit"
		line = styleMuted().Render(hint)
	}
	return fitLine(line, width)
}

// refreshTranscript re-renders the conversation into the viewport. Called on
// every transcript change and resize; the revision counter on the
// conversation is what signals "changed" to this layer.
func (m *appModel) refreshTranscript() {
	width := maxInt(10, m.chatWidth()-2)

	var b strings.Builder
	for i, msg := range m.conv.Snapshot() {
		if i > 0 {
			b.WriteString("\n")
		}
		switch msg.Role {
		case chat.RoleUser:
			b.WriteString(styleUserLabel().Render("You"))
			b.WriteString("\n")
			b.WriteString(lipgloss.NewStyle().Width(width).Render(msg.Content))
		default:
			b.WriteString(styleAssistantLabel().Render("PlanIQ"))
			b.WriteString("\n")
			b.WriteString(renderMarkdown(msg.Content, width))
		}
		b.WriteString("\n")
	}
	m.vp.SetContent(b.String())
}

func (m appModel) renderPanel() string {
	width := maxInt(0, m.panelWidth()-2)
	if width == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(styleHeader().Render("Live Calendar"))
	b.WriteString("\n")
	b.WriteString(fitLine(styleMuted().Render(m.panel.DisplayURL()), width))
	b.WriteString("\n\n")

	switch {
	case !m.agendaOK:
		b.WriteString(styleMuted().Render("No agenda feed available."))
	case len(m.agenda) == 0:
		b.WriteString(styleMuted().Render("No upcoming events."))
	default:
		lastDay := ""
		for _, e := range m.agenda {
			day := e.Start.In(m.loc).Format("Mon Jan 2")
			if day != lastDay {
				if lastDay != "" {
					b.WriteString("\n")
				}
				b.WriteString(styleAssistantLabel().Render(day))
				b.WriteString("\n")
				lastDay = day
			}
			b.WriteString(fitLine(m.renderEntry(e), width))
			b.WriteString("\n")
		}
	}

	return stylePanelBorder().Height(maxInt(1, m.height-1)).Render(
		lipgloss.NewStyle().Width(width).Render(b.String()))
}

func (m appModel) renderEntry(e ics.Entry) string {
	when := "all day"
	if !e.AllDay {
		when = fmt.Sprintf("%s–%s",
			e.Start.In(m.loc).Format("15:04"),
			e.End.In(m.loc).Format("15:04"))
	}
	line := fmt.Sprintf("  %s  %s", when, e.Summary)
	if e.Location != "" {
		line += styleMuted().Render(" @ " + e.Location)
	}
	return line
}

// fitLine truncates styled text to width without breaking escape sequences.
func fitLine(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if xansi.StringWidth(s) > width {
		return xansi.Cut(s, 0, width)
	}
	return s
}

