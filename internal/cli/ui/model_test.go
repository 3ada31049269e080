package ui

import (
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/test-moodle/moodle-tiny-translations/internal/cli/hooks"
	"github.com/test-moodle/moodle-tiny-translations/pkg/migrate"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	m := NewModel("v1.2.3")
	_, cmd := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	require.Nil(t, cmd)
	return m
}

func TestModel_Init(t *testing.T) {
	m := newTestModel(t)
	cmd := m.Init()
	require.NotNil(t, cmd)
	_, ok := cmd().(spinner.TickMsg)
	assert.True(t, ok, "Init starts the spinner")
}

func TestModel_Quit(t *testing.T) {
	for _, key := range []string{"q", "ctrl+c"} {
		t.Run(key, func(t *testing.T) {
			m := newTestModel(t)
			_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
			require.NotNil(t, cmd)
			assert.Equal(t, tea.Quit(), cmd())
			assert.True(t, m.Quitting())
			assert.Equal(t, phaseInterrupted, m.phase)
		})
	}
}

func TestModel_TracksFileProgress(t *testing.T) {
	m := newTestModel(t)

	_, cmd := m.Update(hooks.FileDiscoveredMsg{Path: "a.html"})
	assert.NotNil(t, cmd, "first change schedules a list refresh")
	_, cmd = m.Update(hooks.FileDiscoveredMsg{Path: "a.html"})
	assert.Nil(t, cmd, "refresh already pending")
	assert.Equal(t, 1, m.summary.Discovered)
	assert.Equal(t, phaseScanning, m.phase)

	m.Update(hooks.FileStatusUpdateMsg{Path: "a.html", Status: migrate.StatusProcessing})
	assert.Equal(t, phaseMigrating, m.phase)
	m.Update(hooks.FileStatusUpdateMsg{Path: "a.html", Status: migrate.StatusSuccess, Message: "inserted", Duration: 3 * time.Millisecond})
	m.Update(hooks.FileStatusUpdateMsg{Path: "b.html", Status: migrate.StatusSkipped, Message: "binary_file"})
	m.Update(hooks.FileStatusUpdateMsg{Path: "c.html", Status: migrate.StatusFailed, Message: "boom"})

	assert.Equal(t, 3, m.summary.Discovered, "status for an unseen file adds it")
	assert.Equal(t, 1, m.summary.Processed)
	assert.Equal(t, 1, m.summary.Skipped)
	assert.Equal(t, 1, m.summary.Failed)
	assert.Equal(t, 1, m.summary.Outcomes[migrate.OutcomeInserted])

	m.Update(refreshListMsg{})
	assert.False(t, m.refreshPending)
	assert.Len(t, m.list.Items(), 3)

	view := m.View()
	assert.Contains(t, view, "translationhash v1.2.3")
	assert.Contains(t, view, "a.html")
	assert.Contains(t, view, "inserted 1")
}

func TestModel_RunComplete(t *testing.T) {
	m := newTestModel(t)
	report := migrate.Report{
		Summary: migrate.Summary{
			ProcessedCount: 4,
			CachedCount:    2,
			FatalError:     true,
			Outcomes:       migrate.Tally{migrate.OutcomeNormalized: 4},
		},
		Errors: []migrate.ErrorInfo{{Path: "x.html", Error: "write failed"}},
	}
	_, cmd := m.Update(hooks.RunCompleteMsg{Report: report})
	require.NotNil(t, cmd)

	assert.Equal(t, phaseComplete, m.phase)
	assert.False(t, m.Quitting(), "completion is not an interruption")
	assert.Equal(t, 4, m.summary.Processed)
	assert.Equal(t, 2, m.summary.Cached)
	view := m.View()
	assert.Contains(t, view, "Migration stopped: write failed (x.html)")
	assert.Contains(t, view, "normalized 4")
}

func TestFileItem_Description(t *testing.T) {
	ok := fileItem{path: "a.html", status: migrate.StatusSuccess, message: "normalized", duration: 2 * time.Millisecond}
	assert.Contains(t, ok.Description(), "✓")
	assert.Contains(t, ok.Description(), "normalized 2ms")

	failed := fileItem{path: "b.html", status: migrate.StatusFailed, message: "denied", duration: time.Second}
	assert.Contains(t, failed.Description(), "denied")
	assert.NotContains(t, failed.Description(), "1.00s")

	assert.Equal(t, "a.html", ok.Title())
	assert.Equal(t, "a.html", ok.FilterValue())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "", formatDuration(0))
	assert.Equal(t, "500µs", formatDuration(500*time.Microsecond))
	assert.Equal(t, "12ms", formatDuration(12*time.Millisecond))
	assert.Equal(t, "1.50s", formatDuration(1500*time.Millisecond))
}
