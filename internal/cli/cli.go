// Package cli implements the translationhash commands on top of the marker lifecycle and
// the migration runner.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/test-moodle/moodle-tiny-translations/internal/cli/config"
	"github.com/test-moodle/moodle-tiny-translations/internal/cli/hooks"
	"github.com/test-moodle/moodle-tiny-translations/internal/cli/ui"
	"github.com/test-moodle/moodle-tiny-translations/pkg/content"
	"github.com/test-moodle/moodle-tiny-translations/pkg/editor"
	"github.com/test-moodle/moodle-tiny-translations/pkg/lifecycle"
	"github.com/test-moodle/moodle-tiny-translations/pkg/marker"
	"github.com/test-moodle/moodle-tiny-translations/pkg/migrate"
)

// ErrMigrationFailed is returned by Migrate when at least one file failed.
var ErrMigrationFailed = errors.New("migration finished with errors")

// App runs commands against one loaded configuration.
type App struct {
	cfg         config.Config
	logger      *slog.Logger
	version     string
	out         io.Writer
	interactive bool
}

// New creates an App writing results to out. Styled output and the progress view are
// only used when out is a terminal.
func New(cfg config.Config, logger *slog.Logger, version string, out io.Writer) *App {
	return &App{
		cfg:         cfg,
		logger:      logger,
		version:     version,
		out:         out,
		interactive: isTerminal(out),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ReadInput returns the content of the file named by args[0], or of stdin when there is
// no argument or the argument is "-".
func ReadInput(args []string, stdin io.Reader) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(data), nil
}

// session loads content into an in-memory editor, binds the marker lifecycle and raises
// init. A nil session means the editor is excluded from markers.
func (a *App) session(content string) (*editor.Document, *lifecycle.Session, error) {
	src, err := a.cfg.Source()
	if err != nil {
		return nil, nil, err
	}
	doc, err := editor.NewDocument(a.cfg.EditorID, content, editor.WithLogger(a.cfg.Logger))
	if err != nil {
		return nil, nil, err
	}
	s, err := lifecycle.Bind(doc, a.cfg.SessionOptions(src))
	if errors.Is(err, lifecycle.ErrEditorSkipped) {
		a.logger.Info("Editor excluded from translation markers", slog.String("editor", a.cfg.EditorID))
		return doc, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if err := doc.Init(); err != nil {
		return nil, nil, err
	}
	return doc, s, nil
}

func (a *App) print(s string) error {
	_, err := io.WriteString(a.out, s)
	return err
}

// Ensure prints content as the editor holds it after initialization.
func (a *App) Ensure(content string) error {
	doc, s, err := a.session(content)
	if err != nil {
		return err
	}
	if s != nil {
		a.logger.Debug("Content initialized", slog.String("hash", s.Hash()))
	}
	return a.print(doc.GetContent())
}

// Submit initializes content and prints what the form would store on submit.
func (a *App) Submit(content string) error {
	doc, s, err := a.session(content)
	if err != nil {
		return err
	}
	if _, err := doc.Submit(); err != nil {
		return err
	}
	if s == nil || !a.cfg.SaveOnSubmit {
		return a.print(doc.GetContent())
	}
	return a.print(doc.Saved())
}

// Paste prints fragment as it would be inserted into a bound editor.
func (a *App) Paste(fragment string) error {
	doc, _, err := a.session("")
	if err != nil {
		return err
	}
	ev, err := doc.Fire(editor.EventPaste, fragment)
	if err != nil {
		return err
	}
	return a.print(ev.Content)
}

// Replace initializes content, gives it a fresh hash and prints the result.
func (a *App) Replace(content string) error {
	doc, s, err := a.session(content)
	if err != nil {
		return err
	}
	if s != nil {
		if _, err := s.Replace(); err != nil {
			return err
		}
	}
	return a.print(doc.GetContent())
}

// Strip prints content with every marker removed.
func (a *App) Strip(content string) error {
	return a.print(marker.Strip(content))
}

// Inspect prints the markers found in content.
func (a *App) Inspect(markup string) error {
	r := content.New(a.cfg.Logger).Inspect(markup)
	if a.cfg.ReportFormat != config.ReportFormatText {
		return encode(a.out, r, a.cfg.ReportFormat)
	}
	return writeInspect(a.out, r, styler{enabled: a.interactive})
}

// Migrate runs a bulk migration and prints its summary. The full report is written to
// cfg.ReportFile when set.
func (a *App) Migrate(ctx context.Context) error {
	if err := a.cfg.ValidateMigrate(); err != nil {
		return err
	}
	opts := a.cfg.Migrate
	src, err := a.cfg.Source()
	if err != nil {
		return err
	}
	opts.Source = src

	var (
		report migrate.Report
		runErr error
	)
	if a.interactive && !a.cfg.Verbose && !a.cfg.NoTUI {
		report, runErr = a.migrateWithTUI(ctx, opts)
	} else {
		opts.EventHooks = hooks.NewCLIHooks(a.logger, a.cfg.Verbose, nil)
		report, runErr = migrate.Run(ctx, opts)
	}
	if errors.Is(runErr, migrate.ErrConfigValidation) {
		return runErr
	}

	if err := a.writeReport(report); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	if report.Summary.ErrorCount > 0 {
		return fmt.Errorf("%w: %d file(s) failed", ErrMigrationFailed, report.Summary.ErrorCount)
	}
	return nil
}

func (a *App) migrateWithTUI(ctx context.Context, opts migrate.Options) (migrate.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewModel(a.version)
	prog := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(os.Stderr))
	opts.EventHooks = hooks.NewCLIHooks(a.logger, false, prog)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			a.logger.Warn("Progress view failed", slog.String("error", err.Error()))
		}
		if model.Quitting() {
			cancel()
		}
	}()

	report, err := migrate.Run(ctx, opts)
	if err != nil {
		prog.Quit()
	}
	<-done
	return report, err
}

func (a *App) writeReport(r migrate.Report) error {
	if a.cfg.ReportFile == "" {
		if a.cfg.ReportFormat == config.ReportFormatText {
			return writeSummary(a.out, r, styler{enabled: a.interactive})
		}
		return encode(a.out, r, a.cfg.ReportFormat)
	}

	if err := writeSummary(a.out, r, styler{enabled: a.interactive}); err != nil {
		return err
	}
	format := a.cfg.ReportFormat
	if format == config.ReportFormatText {
		format = config.ReportFormatJSON
	}
	f, err := os.Create(a.cfg.ReportFile)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := encode(f, r, format); err != nil {
		f.Close()
		return fmt.Errorf("failed to write report file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	a.logger.Info("Report written", slog.String("path", a.cfg.ReportFile), slog.String("format", format))
	return nil
}
