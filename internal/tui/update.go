package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case runsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.loaded = true
		m.screen = ScreenRuns
		m.setRuns(msg.runs)
		return m, nil

	case decisionsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.screen = ScreenDecisions
		m.filter = ""
		m.filterActive = false
		m.outcome = ShowAll
		m.setDecisions(msg.run, msg.decisions)
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filterActive {
		switch msg.String() {
		case "enter":
			m.filterActive = false
			return m, nil

		case "esc":
			m.filterActive = false
			m.filter = ""
			m.applyFilter()
			return m, nil

		case "backspace":
			if len(m.filter) > 0 {
				runes := []rune(m.filter)
				m.filter = string(runes[:len(runes)-1])
				m.applyFilter()
			}
			return m, nil

		case "ctrl+c":
			return m, tea.Quit
		}

		if msg.Type == tea.KeyRunes {
			m.filter += msg.String()
			m.applyFilter()
		}
		return m, nil
	}

	cursor, n := &m.runCursor, len(m.shownRuns)
	if m.screen == ScreenDecisions {
		cursor, n = &m.cursor, len(m.primary)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up":
		if *cursor > 0 {
			*cursor--
		}
	case "down", "j":
		if *cursor < n-1 {
			*cursor++
		}
	case "home", "g":
		*cursor = 0
	case "end", "G":
		*cursor = max(n-1, 0)
	case "pgup":
		*cursor = max(*cursor-10, 0)
	case "pgdown":
		*cursor = max(min(*cursor+10, n-1), 0)

	case "enter", "right", "l":
		if m.screen == ScreenRuns && m.runCursor < len(m.shownRuns) {
			return m, m.loadDecisions(m.shownRuns[m.runCursor])
		}

	case "backspace", "left", "h", "esc":
		if m.screen == ScreenDecisions {
			prev := m.runCursor
			m.screen = ScreenRuns
			m.filter = ""
			m.applyFilter()
			m.runCursor = max(min(prev, len(m.shownRuns)-1), 0)
		}

	case "k":
		if m.screen == ScreenDecisions {
			m.toggleOutcome(ShowKeep)
		}
	case "p":
		if m.screen == ScreenDecisions {
			m.toggleOutcome(ShowPrune)
		}

	case "/":
		m.filterActive = true
	}

	return m, nil
}

func (m *Model) toggleOutcome(f OutcomeFilter) {
	if m.outcome == f {
		m.outcome = ShowAll
	} else {
		m.outcome = f
	}
	m.applyFilter()
}
