package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.refreshTranscript()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			// Teardown: a due timer must never refresh a gone panel.
			m.panel.CancelScheduledRefresh()
			return m, tea.Quit

		case "ctrl+o":
			m.panel.Toggle()
			m.resize()
			m.refreshTranscript()
			if m.panel.IsOpen() && !m.agendaOK {
				m.fetchSeq++
				return m, fetchAgendaCmd(m.fetcher, m.cfg.FeedURL(), m.fetchSeq)
			}
			return m, nil

		case "ctrl+r":
			// Manual force-refresh, mirroring the refresh button overlay.
			m.panel.Refresh()
			m.fetchSeq++
			return m, fetchAgendaCmd(m.fetcher, m.cfg.FeedURL(), m.fetchSeq)

		case "enter":
			payload, ok := m.orch.Submit(m.input.Value())
			if !ok {
				// Busy or blank input: ignored on purpose.
				return m, nil
			}
			m.input.SetValue("")
			m.lastErr = ""
			m.refreshTranscript()
			m.vp.GotoBottom()
			return m, tea.Batch(sendCmd(m.client, payload), m.spin.Tick)
		}

	case assistantReplyMsg:
		done := m.orch.CompleteSuccess(msg.reply)
		m.refreshTranscript()
		m.vp.GotoBottom()
		if done.RefreshScheduled {
			m.resize()
			return m, scheduleRefreshCmd(done.RefreshSeq, done.RefreshDelay)
		}
		return m, nil

	case assistantErrMsg:
		m.orch.CompleteFailure()
		m.lastErr = msg.err.Error()
		m.refreshTranscript()
		m.vp.GotoBottom()
		return m, nil

	case refreshDueMsg:
		if !m.panel.CompleteScheduledRefresh(msg.seq) {
			// Superseded or cancelled while the delay ran.
			return m, nil
		}
		m.fetchSeq++
		return m, fetchAgendaCmd(m.fetcher, m.cfg.FeedURL(), m.fetchSeq)

	case agendaMsg:
		if msg.seq != m.fetchSeq {
			return m, nil
		}
		if msg.err != nil {
			m.agendaOK = false
			m.agenda = nil
			return m, nil
		}
		m.agendaOK = true
		m.agenda = msg.entries
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	if m.orch.Pending() {
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.vp, cmd = m.vp.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}
