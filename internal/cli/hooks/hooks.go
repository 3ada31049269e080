// Package hooks bridges migration progress events to the command line: either to the
// interactive progress view or to the structured log.
package hooks

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/test-moodle/moodle-tiny-translations/pkg/migrate"
)

// FileDiscoveredMsg signals that the walker queued a field file.
type FileDiscoveredMsg struct{ Path string }

// FileStatusUpdateMsg signals a change in a file's processing status.
type FileStatusUpdateMsg struct {
	Path     string
	Status   migrate.Status
	Message  string
	Duration time.Duration
}

// RunCompleteMsg carries the final report.
type RunCompleteMsg struct{ Report migrate.Report }

// TUIProgram is the part of *tea.Program used by the hooks.
type TUIProgram interface {
	Send(msg tea.Msg)
}

// NoOpTUIProgram discards messages.
type NoOpTUIProgram struct{}

// Send implements TUIProgram.
func (NoOpTUIProgram) Send(tea.Msg) {}

// CLIHooks implements migrate.Hooks. With a TUI every event becomes a message for the
// program; otherwise events are logged, per file only when verbose.
type CLIHooks struct {
	logger     *slog.Logger
	tuiEnabled bool
	verbose    bool
	program    TUIProgram
}

// NewCLIHooks creates CLIHooks. A nil program disables the TUI.
func NewCLIHooks(logger *slog.Logger, verbose bool, program TUIProgram) *CLIHooks {
	h := &CLIHooks{
		logger:     logger.With(slog.String("component", "hooks")),
		verbose:    verbose,
		tuiEnabled: program != nil,
		program:    program,
	}
	if program == nil {
		h.program = NoOpTUIProgram{}
	}
	return h
}

// OnFileDiscovered implements migrate.Hooks.
func (h *CLIHooks) OnFileDiscovered(path string) error {
	if h.tuiEnabled {
		h.program.Send(FileDiscoveredMsg{Path: path})
	} else if h.verbose {
		h.logger.Debug("File discovered", slog.String("path", path))
	}
	return nil
}

// OnFileStatusUpdate implements migrate.Hooks. It is called concurrently by workers.
func (h *CLIHooks) OnFileStatusUpdate(path string, status migrate.Status, message string, duration time.Duration) error {
	if h.tuiEnabled {
		h.program.Send(FileStatusUpdateMsg{Path: path, Status: status, Message: message, Duration: duration})
		return nil
	}

	if status == migrate.StatusFailed {
		h.logger.Error("File migration failed", slog.String("path", path), slog.String("error", message))
		return nil
	}
	if !h.verbose || status == migrate.StatusProcessing {
		return nil
	}
	attrs := []any{slog.String("path", path), slog.String("status", string(status))}
	if message != "" {
		attrs = append(attrs, slog.String("message", message))
	}
	if duration > 0 {
		attrs = append(attrs, slog.Duration("duration", duration))
	}
	h.logger.Info("File migrated", attrs...)
	return nil
}

// OnRunComplete implements migrate.Hooks.
func (h *CLIHooks) OnRunComplete(report migrate.Report) error {
	if h.tuiEnabled {
		h.program.Send(RunCompleteMsg{Report: report})
	}
	return nil
}

var _ migrate.Hooks = (*CLIHooks)(nil)
