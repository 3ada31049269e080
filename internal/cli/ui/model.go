// Package ui renders migration progress as an interactive terminal view.
package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/test-moodle/moodle-tiny-translations/internal/cli/hooks"
	"github.com/test-moodle/moodle-tiny-translations/pkg/migrate"
)

const (
	listHeightMargin = 4
	refreshInterval  = 50 * time.Millisecond
)

const (
	phaseStarting    = "Starting..."
	phaseScanning    = "Scanning..."
	phaseMigrating   = "Migrating..."
	phaseComplete    = "Complete"
	phaseInterrupted = "Interrupted"
)

// refreshListMsg asks the model to copy its file items into the list component.
type refreshListMsg struct{}

// Model is the bubbletea model of a migration run.
type Model struct {
	version     string
	list        list.Model
	spinner     spinner.Model
	width       int
	height      int
	initialized bool

	files   []fileItem
	index   map[string]int
	summary Summary
	phase   string
	fatal   string

	refreshPending bool
	quitting       bool
	done           bool
}

// Summary holds the counters shown in the footer.
type Summary struct {
	Discovered int
	Processed  int
	Cached     int
	Skipped    int
	Failed     int
	Outcomes   migrate.Tally
	StartTime  time.Time
}

type fileItem struct {
	path     string
	status   migrate.Status
	message  string
	duration time.Duration
}

// NewModel creates the view for a run of the given tool version.
func NewModel(version string) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorStatusProcessing)

	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(ColorSelectedFg).
		Background(ColorSelectedBg).
		Bold(true).
		Padding(0, 0, 0, 1)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(ColorSelectedDescFg).
		Background(ColorSelectedBg).
		Padding(0, 0, 0, 1)
	delegate.Styles.NormalTitle = delegate.Styles.NormalTitle.Foreground(ColorNormalFg).Padding(0, 0, 0, 1)
	delegate.Styles.NormalDesc = delegate.Styles.NormalDesc.Foreground(ColorNormalDescFg).Padding(0, 0, 0, 1)

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowTitle(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return &Model{
		version: version,
		list:    l,
		spinner: s,
		index:   map[string]int{},
		summary: Summary{Outcomes: migrate.Tally{}, StartTime: time.Now()},
		phase:   phaseStarting,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Quitting reports whether the user asked to leave before the run completed.
func (m *Model) Quitting() bool { return m.quitting && !m.done }

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(m.width, max(1, m.height-listHeightMargin))
		m.initialized = true
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			if !m.done {
				m.phase = phaseInterrupted
			}
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		if m.done || m.quitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case hooks.FileDiscoveredMsg:
		if _, ok := m.index[msg.Path]; !ok {
			m.track(fileItem{path: msg.Path, status: migrate.StatusPending})
		}
		if m.phase == phaseStarting {
			m.phase = phaseScanning
		}
		return m, m.scheduleRefresh()

	case hooks.FileStatusUpdateMsg:
		idx, ok := m.index[msg.Path]
		if !ok {
			idx = m.track(fileItem{path: msg.Path, status: migrate.StatusPending})
		}
		item := &m.files[idx]
		if !isFinal(item.status) && isFinal(msg.Status) {
			m.count(msg.Status, msg.Message)
		}
		item.status = msg.Status
		item.message = msg.Message
		item.duration = msg.Duration
		if msg.Status == migrate.StatusProcessing {
			m.phase = phaseMigrating
		}
		return m, m.scheduleRefresh()

	case hooks.RunCompleteMsg:
		s := msg.Report.Summary
		m.summary.Processed = s.ProcessedCount
		m.summary.Cached = s.CachedCount
		m.summary.Skipped = s.SkippedCount
		m.summary.Failed = s.ErrorCount
		if s.Outcomes != nil {
			m.summary.Outcomes = s.Outcomes
		}
		m.phase = phaseComplete
		m.done = true
		if s.FatalError {
			m.fatal = "Migration stopped early"
			if len(msg.Report.Errors) > 0 {
				e := msg.Report.Errors[0]
				m.fatal = fmt.Sprintf("Migration stopped: %s (%s)", e.Error, e.Path)
			}
		}
		return m, tea.Sequence(m.refresh(), tea.Quit)

	case refreshListMsg:
		m.refreshPending = false
		return m, m.refresh()
	}
	return m, nil
}

func (m *Model) track(item fileItem) int {
	m.files = append(m.files, item)
	m.index[item.path] = len(m.files) - 1
	m.summary.Discovered++
	return len(m.files) - 1
}

func (m *Model) count(status migrate.Status, message string) {
	switch status {
	case migrate.StatusSuccess:
		m.summary.Processed++
		if message != "" {
			m.summary.Outcomes[migrate.Outcome(message)]++
		}
	case migrate.StatusCached:
		m.summary.Cached++
	case migrate.StatusSkipped:
		m.summary.Skipped++
	case migrate.StatusFailed:
		m.summary.Failed++
	}
}

// scheduleRefresh coalesces list updates so a burst of events redraws the list once.
func (m *Model) scheduleRefresh() tea.Cmd {
	if m.refreshPending {
		return nil
	}
	m.refreshPending = true
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return refreshListMsg{} })
}

func (m *Model) refresh() tea.Cmd {
	items := make([]list.Item, len(m.files))
	for i, f := range m.files {
		items[i] = f
	}
	return m.list.SetItems(items)
}

// View implements tea.Model.
func (m *Model) View() string {
	if !m.initialized {
		return m.phase + "\n"
	}

	left := "translationhash " + m.version
	right := m.phase
	if !m.done && !m.quitting {
		right = m.spinner.View() + " " + m.phase
	}
	header := HeaderStyle.Width(m.width).Render(spread(m.width, left, right))

	footerText := fmt.Sprintf("Processed: %d | Cached: %d | Skipped: %d | Failed: %d | Found: %d | %s",
		m.summary.Processed, m.summary.Cached, m.summary.Skipped, m.summary.Failed,
		m.summary.Discovered, time.Since(m.summary.StartTime).Round(time.Millisecond))
	if t := formatTally(m.summary.Outcomes); t != "" {
		footerText += " | " + t
	}
	footer := FooterStyle.Width(m.width).Render(spread(m.width, footerText, "q: quit"))

	parts := []string{header, m.list.View()}
	if m.fatal != "" {
		parts = append(parts, StatusStyleFailed.Render(m.fatal))
	}
	parts = append(parts, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// spread places left and right at the edges of a line of the given width.
func spread(width int, left, right string) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		return left + " " + right
	}
	return left + strings.Repeat(" ", gap) + right
}

func formatTally(t migrate.Tally) string {
	keys := make([]string, 0, len(t))
	for k, v := range t {
		if v > 0 {
			keys = append(keys, string(k))
		}
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s %d", k, t[migrate.Outcome(k)])
	}
	return strings.Join(parts, ", ")
}

func isFinal(s migrate.Status) bool {
	switch s {
	case migrate.StatusSuccess, migrate.StatusFailed, migrate.StatusSkipped, migrate.StatusCached:
		return true
	}
	return false
}

// FilterValue implements list.Item.
func (f fileItem) FilterValue() string { return f.path }

// Title implements list.DefaultItem.
func (f fileItem) Title() string { return f.path }

// Description implements list.DefaultItem.
func (f fileItem) Description() string {
	style, icon := StatusStylePending, " "
	details := ""
	switch f.status {
	case migrate.StatusSuccess:
		style, icon = StatusStyleSuccess, "✓"
		details = f.message
	case migrate.StatusFailed:
		style, icon = StatusStyleFailed, "✗"
		details = f.message
	case migrate.StatusSkipped:
		style, icon = StatusStyleSkipped, "S"
		details = f.message
	case migrate.StatusCached:
		style, icon = StatusStyleCached, "C"
	case migrate.StatusProcessing:
		style, icon = StatusStyleProcessing, "…"
	}
	if d := formatDuration(f.duration); d != "" && f.status != migrate.StatusFailed {
		details = strings.TrimSpace(details + " " + d)
	}
	return style.Render("["+icon+"]") + " " + details
}

func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return ""
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}
