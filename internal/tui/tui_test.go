package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fakeyudi/timetxt/internal/timesheet"
)

func sampleResult(t *testing.T) *timesheet.Result {
	t.Helper()
	h := 7
	p, err := timesheet.NewProcessor(timesheet.Options{
		EarliestStart: &h,
		Graceful:      true,
		Now:           func() time.Time { return time.Date(2012, time.March, 3, 0, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatal(err)
	}
	res, err := p.Process(strings.NewReader("5/1\n9, 12, coding\n1, 5, meetings\n#!bogus=1\n5/2\n9, 10\n3, 2\n"))
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestView_NotReadyUntilSized(t *testing.T) {
	m := New(sampleResult(t), "/tmp/time.txt")
	if got := m.View(); got != "Loading…" {
		t.Errorf("View before resize = %q", got)
	}
	m = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	if !strings.Contains(m.View(), "time.txt") {
		t.Error("title does not contain filename")
	}
}

func TestTabs_Navigation(t *testing.T) {
	m := send(t, New(sampleResult(t), "time.txt"), tea.WindowSizeMsg{Width: 100, Height: 40})
	m = send(t, m, key("l"))
	if m.activeTab != tabDays {
		t.Fatalf("tab = %d, want Days", m.activeTab)
	}
	m = send(t, m, key("h"), key("h"))
	if m.activeTab != tabOutput {
		t.Fatalf("tab = %d, want wrap to Output", m.activeTab)
	}
	m = send(t, m, key("4"))
	if m.activeTab != tabIssues {
		t.Fatalf("tab = %d, want Issues", m.activeTab)
	}
}

func TestDays_ExpandAndSort(t *testing.T) {
	m := send(t, New(sampleResult(t), "time.txt"), tea.WindowSizeMsg{Width: 120, Height: 40}, key("2"))

	if strings.Contains(m.renderDays(), "coding") {
		t.Fatal("entries shown before expanding")
	}
	m = send(t, m, key("enter"))
	days := m.renderDays()
	if !strings.Contains(days, "coding") || !strings.Contains(days, "7:00") {
		t.Errorf("expanded day missing entries or total:\n%s", days)
	}

	m = send(t, m, key("s"))
	if !m.newestTop || len(m.expandedDays) != 0 {
		t.Fatal("sort toggle did not reset selection")
	}
	days = m.renderDays()
	first := strings.Index(days, "May 02")
	second := strings.Index(days, "May 01")
	if first < 0 || second < 0 || first > second {
		t.Errorf("days not newest first:\n%s", days)
	}

	m = send(t, m, key("down"), key("down"))
	if m.dayCursor != 1 {
		t.Errorf("cursor = %d, want clamp at 1", m.dayCursor)
	}
}

func TestIssues_ListsErrorsAndWarnings(t *testing.T) {
	m := New(sampleResult(t), "time.txt")
	issues := m.renderIssues()
	if !strings.Contains(issues, "[ERROR]") || !strings.Contains(issues, "3, 2") {
		t.Errorf("missing error:\n%s", issues)
	}
	if !strings.Contains(issues, "[WARN]") || !strings.Contains(issues, "bogus") {
		t.Errorf("missing warning:\n%s", issues)
	}
}

func TestQuit(t *testing.T) {
	m := New(sampleResult(t), "time.txt")
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}
