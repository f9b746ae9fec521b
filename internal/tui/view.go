package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/michaelscutari/retentions/internal/db"
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err)
	}
	if !m.loaded {
		return "Loading..."
	}

	var b strings.Builder
	headerLines := 0
	writeLine := func(line string) {
		b.WriteString(line)
		b.WriteString("\n")
		headerLines++
	}

	writeLine(titleStyle.Render("retentions - Run Journal"))

	var (
		rows   []string
		cursor int
		footer []string
	)
	switch m.screen {
	case ScreenDecisions:
		r := m.run
		writeLine(statsStyle.Render(fmt.Sprintf("Run %s | %s | %s | %s",
			shortID(r.ID), r.Job, r.Mode, FormatWhen(r.Start))))
		writeLine(breadcrumbStyle.Render(fmt.Sprintf("Path: %s/%s",
			truncateMiddle(r.Base, max(10, m.width-len(r.Pattern)-8)), r.Pattern)))

		status := fmt.Sprintf("Show: %s | Entries: %s", m.outcome, FormatCount(int64(len(m.primary))))
		if len(m.primary) > 0 && m.cursor < len(m.primary) {
			sel := m.primary[m.cursor]
			status += " | " + sel.Reason
			for _, h := range m.history(sel.Path) {
				if !h.Primary {
					footer = append(footer, historyStyle.Render("  - "+h.Reason))
				}
			}
		}
		writeLine(statusStyle.Render(truncateRight(status, max(10, m.width))))
		m.writeFilter(writeLine)

		nameWidth := max(minNameWidth, m.width-decisionFixedWidth)
		writeLine(headerStyle.Render(fmt.Sprintf("%-6s%s%*s%s%-19s%s%-*s%s%s",
			"ACTION", gap, sizeWidth, "SIZE", gap, "TIME", gap, nameWidth, "NAME", gap, "SIZE%")))
		total := r.BytesKept + r.BytesPruned
		for i, d := range m.primary {
			rows = append(rows, m.formatDecision(d, i == m.cursor, nameWidth, total))
		}
		cursor = m.cursor

	default:
		writeLine(statsStyle.Render(fmt.Sprintf("Runs: %s", FormatCount(int64(len(m.shownRuns))))))
		m.writeFilter(writeLine)
		writeLine(headerStyle.Render(fmt.Sprintf("%-8s%s%-16s%s%-*s%s%-9s%s%-6s%s%6s%s%6s%s%*s",
			"ID", gap, "STARTED", gap, jobWidth, "JOB", gap, "MODE", gap, "STATUS", gap,
			"KEEP", gap, "PRUNE", gap, sizeWidth, "FREED")))
		for i, r := range m.shownRuns {
			rows = append(rows, formatRun(r, i == m.runCursor))
		}
		cursor = m.runCursor
	}

	visibleRows := max(m.height-headerLines-2-len(footer), 5)
	startIdx := 0
	if cursor >= visibleRows {
		startIdx = cursor - visibleRows + 1
	}
	endIdx := min(len(rows), startIdx+visibleRows)
	for i := startIdx; i < endIdx; i++ {
		b.WriteString(rows[i])
		b.WriteString("\n")
	}
	for i := endIdx - startIdx; i < visibleRows; i++ {
		b.WriteString("\n")
	}

	for _, line := range footer {
		b.WriteString(line)
		b.WriteString("\n")
	}
	help := m.helpLine()
	if len(rows) > 0 {
		help = fmt.Sprintf("%s [%d/%d]", help, cursor+1, len(rows))
	}
	b.WriteString(helpStyle.Render(help))
	return b.String()
}

func (m *Model) writeFilter(writeLine func(string)) {
	if m.filterActive {
		writeLine(filterStyle.Render(fmt.Sprintf("Filter: %s_", m.filter)))
	} else if m.filter != "" {
		writeLine(filterStyle.Render(fmt.Sprintf("Filter: %s", m.filter)))
	}
}

const (
	gap           = "  "
	sizeWidth     = 10
	jobWidth      = 16
	minNameWidth  = 10
	barBlockWidth = 10
	barColWidth   = barBlockWidth + 6
	// ACTION, SIZE, TIME and bar columns plus four gaps.
	decisionFixedWidth = 6 + sizeWidth + 19 + barColWidth + 4*len(gap)
)

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatRun(r *db.RunRecord, selected bool) string {
	status := fmt.Sprintf("%-6s", r.Status)
	if r.Status == db.StatusFailed && !selected {
		status = failedStyle.Render(status)
	}
	line := fmt.Sprintf("%-8s%s%-16s%s%-*s%s%-9s%s%s%s%6d%s%6d%s%*s",
		shortID(r.ID), gap,
		r.Start.Local().Format("2006-01-02 15:04"), gap,
		jobWidth, truncateRight(r.Job, jobWidth), gap,
		r.Mode, gap,
		status, gap,
		r.Kept, gap,
		r.Pruned, gap,
		sizeWidth, FormatSize(r.BytesFreed),
	)
	if selected {
		return selectedStyle.Render(line)
	}
	return line
}

func (m *Model) formatDecision(d db.DecisionRecord, selected bool, nameWidth int, total int64) string {
	action := "PRUNE "
	if d.Keep {
		action = "KEEP  "
	}
	if !selected {
		if d.Keep {
			action = keepStyle.Render(action)
		} else {
			action = pruneStyle.Render(action)
		}
	}

	name := truncateRight(d.Name, nameWidth)
	line := fmt.Sprintf("%s%s%*s%s%-19s%s%s%s%s",
		action, gap,
		sizeWidth, FormatSize(d.Size), gap,
		time.Unix(d.Time, 0).Local().Format("2006-01-02 15:04:05"), gap,
		name+strings.Repeat(" ", max(nameWidth-len(name), 0)), gap,
		formatBar(d.Size, total),
	)
	if selected {
		return selectedStyle.Render(line)
	}
	return line
}

func formatBar(entryVal, total int64) string {
	if total <= 0 || entryVal <= 0 {
		return barEmptyStyle.Render(strings.Repeat("░", barBlockWidth)) + fmt.Sprintf("  %3d%%", 0)
	}

	pct := min(float64(entryVal)/float64(total)*100, 100)
	filled := int(math.Round(pct / 100 * float64(barBlockWidth)))
	filled = min(max(filled, 1), barBlockWidth)

	return barFilledStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", barBlockWidth-filled)) +
		fmt.Sprintf("  %3d%%", int(math.Round(pct)))
}

func truncateRight(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

func truncateMiddle(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	head := (maxLen - 3) / 2
	tail := maxLen - 3 - head
	return s[:head] + "..." + s[len(s)-tail:]
}
