package tui

import (
	"database/sql"
	"strings"

	"github.com/michaelscutari/retentions/internal/db"

	tea "github.com/charmbracelet/bubbletea"
)

// Screen is the current view.
type Screen int

const (
	ScreenRuns Screen = iota
	ScreenDecisions
)

// OutcomeFilter restricts the decisions view to one side of the partition.
type OutcomeFilter int

const (
	ShowAll OutcomeFilter = iota
	ShowKeep
	ShowPrune
)

func (f OutcomeFilter) String() string {
	switch f {
	case ShowKeep:
		return "keep"
	case ShowPrune:
		return "prune"
	default:
		return "all"
	}
}

// Model holds the TUI state.
type Model struct {
	db    *sql.DB
	job   string
	limit int

	screen    Screen
	runs      []*db.RunRecord
	shownRuns []*db.RunRecord
	runCursor int

	run          *db.RunRecord
	allDecisions []db.DecisionRecord // every decision of run
	primary      []db.DecisionRecord // one per entry, after filters
	cursor       int
	outcome      OutcomeFilter

	width        int
	height       int
	filter       string
	filterActive bool
	loaded       bool
	err          error
}

// NewModel creates a model browsing the journal. job restricts the runs
// list to one job when set.
func NewModel(database *sql.DB, job string, limit int) *Model {
	return &Model{
		db:    database,
		job:   job,
		limit: limit,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.loadRuns
}

type runsLoadedMsg struct {
	runs []*db.RunRecord
	err  error
}

func (m *Model) loadRuns() tea.Msg {
	runs, err := db.ListRuns(m.db, m.job, m.limit)
	return runsLoadedMsg{runs: runs, err: err}
}

type decisionsLoadedMsg struct {
	run       *db.RunRecord
	decisions []db.DecisionRecord
	err       error
}

func (m *Model) loadDecisions(run *db.RunRecord) tea.Cmd {
	return func() tea.Msg {
		decisions, err := db.LoadDecisions(m.db, run.ID, false)
		return decisionsLoadedMsg{run: run, decisions: decisions, err: err}
	}
}

func (m *Model) helpLine() string {
	if m.filterActive {
		return "Type to filter | Enter: apply | Esc: clear | q: quit"
	}
	if m.screen == ScreenDecisions {
		return "↑/↓ move | Backspace: runs | k: keep only | p: prune only | /: filter | q: quit"
	}
	return "↑/↓ move | Enter: decisions | /: filter | q: quit"
}

func (m *Model) setRuns(runs []*db.RunRecord) {
	m.runs = runs
	m.applyFilter()
}

func (m *Model) setDecisions(run *db.RunRecord, decisions []db.DecisionRecord) {
	m.run = run
	m.allDecisions = decisions
	m.applyFilter()
}

// history returns every decision about path, oldest first.
func (m *Model) history(path string) []db.DecisionRecord {
	var out []db.DecisionRecord
	for _, d := range m.allDecisions {
		if d.Path == path {
			out = append(out, d)
		}
	}
	return out
}

func (m *Model) applyFilter() {
	needle := strings.ToLower(m.filter)
	switch m.screen {
	case ScreenRuns:
		m.shownRuns = m.shownRuns[:0]
		for _, r := range m.runs {
			if needle == "" || strings.Contains(strings.ToLower(r.Job), needle) {
				m.shownRuns = append(m.shownRuns, r)
			}
		}
		m.runCursor = 0

	case ScreenDecisions:
		m.primary = m.primary[:0]
		for _, d := range m.allDecisions {
			if !d.Primary {
				continue
			}
			if m.outcome == ShowKeep && !d.Keep || m.outcome == ShowPrune && d.Keep {
				continue
			}
			if needle != "" && !strings.Contains(strings.ToLower(d.Name), needle) {
				continue
			}
			m.primary = append(m.primary, d)
		}
		m.cursor = 0
	}
}
