// Package tui provides a Bubble Tea TUI for browsing a processed timesheet.
package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/timetxt/internal/timesheet"
)

// ── Styles ────────────

var (
	// Title bar at the very top
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	tabSepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")).
			Background(lipgloss.Color("235"))

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	totalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178")).
			Bold(true)

	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	commentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	dateStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("237"))
)

// ── Tab definitions ─────────────────

type tabID int

const (
	tabSummary tabID = iota
	tabDays
	tabWeeks
	tabIssues
	tabOutput
	tabCount
)

var tabNames = [tabCount]string{
	"Summary", "Days", "Weeks", "Issues", "Output",
}

// ── Model ────────────────────

// Model is the root Bubble Tea model for the TUI.
type Model struct {
	result     *timesheet.Result
	filename   string
	dateLayout string
	activeTab  tabID
	viewports  [tabCount]viewport.Model
	width      int
	height     int
	ready      bool
	newestTop  bool

	// Days tab: cursor position and expanded set
	dayCursor    int
	expandedDays map[int]bool
}

// New creates a new TUI model for a processed timesheet and its source filename.
func New(res *timesheet.Result, filename string) Model {
	return Model{
		result:       res,
		filename:     filepath.Base(filename),
		dateLayout:   "Mon Jan 02 2006",
		expandedDays: make(map[int]bool),
	}
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "l", "right":
			m.activeTab = (m.activeTab + 1) % tabCount
		case "shift+tab", "h", "left":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
		case "1", "2", "3", "4", "5":
			m.activeTab = tabID(msg.String()[0] - '1')
		case "s":
			if m.activeTab == tabDays {
				m.newestTop = !m.newestTop
				m.dayCursor = 0
				m.expandedDays = make(map[int]bool)
				m.rebuild(tabDays)
				m.viewports[tabDays].GotoTop()
			}
		case "up", "k":
			if m.activeTab == tabDays && m.dayCursor > 0 {
				m.dayCursor--
				m.rebuild(tabDays)
				return m, nil
			}
		case "down", "j":
			if m.activeTab == tabDays && m.dayCursor < len(m.result.Days)-1 {
				m.dayCursor++
				m.rebuild(tabDays)
				return m, nil
			}
		case "enter", " ":
			if m.activeTab == tabDays && len(m.result.Days) > 0 {
				if m.expandedDays[m.dayCursor] {
					delete(m.expandedDays, m.dayCursor)
				} else {
					m.expandedDays[m.dayCursor] = true
				}
				m.rebuild(tabDays)
				return m, nil
			}
		}
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.initViewports()
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render("  timetxt  " + m.filename)

	var tabParts []string
	for i := tabID(0); i < tabCount; i++ {
		label := fmt.Sprintf(" %d %s ", i+1, tabNames[i])
		if i == tabIssues && m.issueCount() > 0 {
			label = fmt.Sprintf(" %d %s (%d) ", i+1, tabNames[i], m.issueCount())
		}
		if i == m.activeTab {
			tabParts = append(tabParts, activeTabStyle.Render(label))
		} else {
			tabParts = append(tabParts, inactiveTabStyle.Render(label))
		}
		if i < tabCount-1 {
			tabParts = append(tabParts, tabSepStyle.Render("│"))
		}
	}
	tabRow := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Width(m.width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, tabParts...))

	content := m.viewports[m.activeTab].View()

	hint := "  ←/→ tab  ↑/↓ scroll  1-5 jump  q quit"
	if m.activeTab == tabDays {
		dir := "oldest first"
		if m.newestTop {
			dir = "newest first"
		}
		hint += "  ↑/↓ select  enter expand  s sort (" + dir + ")"
	}
	pct := fmt.Sprintf("%3.0f%%", m.viewports[m.activeTab].ScrollPercent()*100)
	pad := m.width - lipgloss.Width(hint) - len(pct) - 2
	if pad < 1 {
		pad = 1
	}
	statusBar := statusBarStyle.Width(m.width).Render(
		hint + strings.Repeat(" ", pad) + pct,
	)

	return lipgloss.JoinVertical(lipgloss.Left, title, tabRow, content, statusBar)
}

// ── Viewport management ───────────────────────────────────────────────────────

func (m *Model) initViewports() {
	// title(1) + tabRow(1) + statusBar(1) = 3 fixed rows
	vpHeight := m.height - 3
	if vpHeight < 1 {
		vpHeight = 1
	}
	for i := tabID(0); i < tabCount; i++ {
		vp := viewport.New(m.width, vpHeight)
		vp.SetContent(m.renderTab(i))
		m.viewports[i] = vp
	}
}

func (m *Model) rebuild(t tabID) {
	m.viewports[t].SetContent(m.renderTab(t))
}

// ── Tab renderers ─────────────────────────────────────────────────────────────

func (m *Model) renderTab(t tabID) string {
	switch t {
	case tabSummary:
		return m.renderSummary()
	case tabDays:
		return m.renderDays()
	case tabWeeks:
		return m.renderWeeks()
	case tabIssues:
		return m.renderIssues()
	case tabOutput:
		return m.renderOutput()
	}
	return ""
}

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n\n"
}

func span(d time.Duration) string {
	return timesheet.FormatDuration(d, timesheet.FormatTimeSpan)
}

func (m *Model) issueCount() int {
	return len(m.result.Issues) + len(m.result.Warnings)
}

func (m *Model) renderSummary() string {
	r := m.result
	var sb strings.Builder
	sb.WriteString(heading("Timesheet Summary"))

	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-14s", label)) + "  " + value + "\n")
	}
	row("File:", m.filename)
	if len(r.Days) > 0 {
		row("First day:", r.Days[0].Date.Format(m.dateLayout))
		row("Last day:", r.Days[len(r.Days)-1].Date.Format(m.dateLayout))
	}
	row("Total:", totalStyle.Render(span(r.Total())))
	status := "complete"
	if !r.Success {
		status = errorStyle.Render("stopped at an unrecognized line")
	}
	row("Status:", status)

	sb.WriteString(heading("Counts"))
	entries := 0
	for _, d := range r.Days {
		entries += len(d.Entries)
	}
	row("Days:", fmt.Sprintf("%d", len(r.Days)))
	row("Weeks:", fmt.Sprintf("%d", len(r.Weeks)))
	row("Entries:", fmt.Sprintf("%d", entries))
	row("Issues:", fmt.Sprintf("%d", m.issueCount()))
	return sb.String()
}

// dayOrder returns indexes into Result.Days in display order.
func (m *Model) dayOrder() []int {
	order := make([]int, len(m.result.Days))
	for i := range order {
		if m.newestTop {
			order[i] = len(order) - 1 - i
		} else {
			order[i] = i
		}
	}
	return order
}

func (m *Model) renderDays() string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Days (%d)", len(m.result.Days))))
	if len(m.result.Days) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	for row, idx := range m.dayOrder() {
		day := m.result.Days[idx]
		expanded := m.expandedDays[row]

		toggle := dimStyle.Render("  ▶ ")
		if expanded {
			toggle = dimStyle.Render("  ▼ ")
		}
		line := fmt.Sprintf("%s%s  %s  %s",
			toggle,
			dateStyle.Render(day.Date.Format(m.dateLayout)),
			totalStyle.Render(fmt.Sprintf("%6s", span(day.Total))),
			dimStyle.Render(fmt.Sprintf("%d entries", len(day.Entries))))
		if row == m.dayCursor {
			line = selectedRowStyle.Width(m.width - 2).Render(line)
		}
		sb.WriteString(line + "\n")

		if expanded {
			sb.WriteString(renderEntries(day.Entries))
		}
	}
	return sb.String()
}

func renderEntries(entries []timesheet.EntrySummary) string {
	var sb strings.Builder
	for _, es := range entries {
		text := es.Entry.String()
		switch {
		case !es.Counted:
			sb.WriteString("        " + dimStyle.Render(fmt.Sprintf("%6s  %s", "-", text)) + "\n")
		case es.Excluded > 0:
			sb.WriteString(fmt.Sprintf("        %6s  %s  %s\n",
				span(es.Duration), text, commentStyle.Render("(-"+span(es.Excluded)+")")))
		default:
			sb.WriteString(fmt.Sprintf("        %6s  %s\n", span(es.Duration), text))
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

func (m *Model) renderWeeks() string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Weeks (%d)", len(m.result.Weeks))))
	if len(m.result.Weeks) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	for _, w := range m.result.Weeks {
		sb.WriteString(fmt.Sprintf("  %s  %s  %s\n",
			dateStyle.Render("week of "+w.Start.Format(m.dateLayout)),
			totalStyle.Render(fmt.Sprintf("%7s", span(w.Total))),
			dimStyle.Render(fmt.Sprintf("%d days", w.Days))))
	}
	return sb.String()
}

func (m *Model) renderIssues() string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Issues (%d)", m.issueCount())))
	if m.issueCount() == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	for _, le := range m.result.Issues {
		badge := errorStyle.Render("[ERROR]")
		sb.WriteString(fmt.Sprintf("  %s  line %d  %v\n", badge, le.Number, le.Err))
		sb.WriteString("           " + dimStyle.Render(le.Line) + "\n\n")
	}
	for _, w := range m.result.Warnings {
		badge := warningStyle.Render("[WARN]")
		sb.WriteString(fmt.Sprintf("  %s   line %d  %s\n\n", badge, w.Number, w.Message))
	}
	if !m.result.Success {
		badge := errorStyle.Render("[STOP]")
		sb.WriteString(fmt.Sprintf("  %s   unrecognized line, %d more lines left unprocessed\n", badge, len(m.result.Remainder)))
		sb.WriteString("           " + dimStyle.Render(m.result.Unrecognized) + "\n")
	}
	return sb.String()
}

func (m *Model) renderOutput() string {
	var sb strings.Builder
	sb.WriteString(heading("Normalized Output"))
	for _, line := range m.result.Lines {
		sb.WriteString("  " + highlight(line) + "\n")
	}
	for _, line := range m.result.Remainder {
		sb.WriteString("  " + dimStyle.Render(line) + "\n")
	}
	return sb.String()
}

// highlight colors one normalized output line by its kind.
func highlight(line string) string {
	switch {
	case strings.HasPrefix(line, "#ERROR: "):
		return errorStyle.Render(line)
	case strings.HasPrefix(line, "#WARNING: "):
		return warningStyle.Render(line)
	case strings.HasPrefix(line, "Day:"), strings.HasPrefix(line, "Week:"):
		return totalStyle.Render(line)
	case strings.HasPrefix(line, "#"):
		return commentStyle.Render(line)
	}
	return line
}

// Run starts the TUI for a processed timesheet.
func Run(res *timesheet.Result, filename string) error {
	p := tea.NewProgram(New(res, filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
