package migrate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/test-moodle/moodle-tiny-translations/pkg/migrate/cache"
	"github.com/test-moodle/moodle-tiny-translations/pkg/util"
)

// walker traverses InputPath and dispatches eligible field files to the workers.
type walker struct {
	root       string
	outputRoot string
	extensions map[string]bool
	ignore     []string
	hooks      Hooks
	logger     *slog.Logger
}

func newWalker(opts *Options, logger *slog.Logger) *walker {
	exts := map[string]bool{}
	for _, e := range opts.Extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = true
	}
	return &walker{
		root:       opts.InputPath,
		outputRoot: opts.OutputPath,
		extensions: exts,
		ignore:     opts.IgnorePatterns,
		hooks:      opts.EventHooks,
		logger:     logger.With(slog.String("component", "walker")),
	}
}

func (w *walker) ignored(rel string, isDir bool) (string, bool) {
	for _, p := range w.ignore {
		if util.MatchesIgnore(p, rel, isDir) {
			return p, true
		}
	}
	return "", false
}

// walk sends relative paths on jobs and closes it when done. Ignored files are reported
// through skip.
func (w *walker) walk(ctx context.Context, jobs chan<- string, skip func(SkippedInfo)) error {
	defer close(jobs)
	w.logger.Info("Starting directory walk", slog.String("path", w.root))

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == w.root {
				return err
			}
			w.logger.Warn("Error accessing path during walk", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		rel, err := filepath.Rel(w.root, path)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path != w.root && path == w.outputRoot {
				w.logger.Debug("Skipping output directory nested in input", slog.String("path", rel))
				return filepath.SkipDir
			}
			if pattern, ok := w.ignored(rel, true); ok {
				w.logger.Debug("Skipping ignored directory", slog.String("path", rel), slog.String("pattern", pattern))
				return filepath.SkipDir
			}
			return nil
		}

		if d.Name() == cache.FileName || !w.extensions[strings.ToLower(filepath.Ext(rel))] {
			return nil
		}
		if pattern, ok := w.ignored(rel, false); ok {
			skip(SkippedInfo{Path: rel, Reason: SkipReasonIgnored, Details: "matched pattern: " + pattern})
			return nil
		}

		if hookErr := w.hooks.OnFileDiscovered(rel); hookErr != nil {
			w.logger.Warn("OnFileDiscovered hook failed", slog.String("path", rel), slog.String("error", hookErr.Error()))
		}
		select {
		case jobs <- rel:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			w.logger.Info("Directory walk cancelled", slog.String("reason", err.Error()))
			return err
		}
		if os.IsPermission(err) {
			return fmt.Errorf("permission denied reading input directory %q: %w", w.root, err)
		}
		return fmt.Errorf("directory walk failed: %w", err)
	}
	w.logger.Info("Directory walk completed")
	return nil
}
