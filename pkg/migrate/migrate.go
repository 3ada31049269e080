// Package migrate rewrites stored rich-text fields in bulk: it walks a directory of
// exported field files, applies one marker operation to each and writes the results
// to an output tree, reporting per-file outcomes.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/test-moodle/moodle-tiny-translations/pkg/content"
	"github.com/test-moodle/moodle-tiny-translations/pkg/encoding"
	"github.com/test-moodle/moodle-tiny-translations/pkg/hashsource"
	"github.com/test-moodle/moodle-tiny-translations/pkg/migrate/cache"
)

type outcome struct {
	path   string
	file   *FileResult
	skip   *SkippedInfo
	err    error
	status Status
}

// Run migrates every field under opts.InputPath. Per-file failures are collected in the
// report; the returned error is reserved for invalid options, walk failures,
// cancellation and OnErrorStop.
func Run(ctx context.Context, opts Options) (Report, error) {
	if err := prepare(&opts); err != nil {
		return Report{}, err
	}
	logger := slog.New(opts.Logger).With(slog.String("component", "migrate"))
	start := time.Now()

	cacheMgr, cachePath := setupCache(&opts, logger)
	proc := &processor{
		opts:        &opts,
		transformer: content.New(opts.Logger),
		encoding:    opts.EncodingHandler,
		cache:       cacheMgr,
		configHash:  configHash(&opts),
		logger:      logger.With(slog.String("component", "processor")),
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan string, opts.Concurrency)
	results := make(chan outcome, opts.Concurrency)

	var walkErr error
	var producers sync.WaitGroup
	producers.Add(1)
	go func() {
		defer producers.Done()
		walkErr = newWalker(&opts, logger).walk(runCtx, jobs, func(s SkippedInfo) {
			results <- outcome{path: s.Path, skip: &s, status: StatusSkipped}
		})
	}()
	for range opts.Concurrency {
		producers.Add(1)
		go func() {
			defer producers.Done()
			for rel := range jobs {
				results <- runOne(proc, opts.EventHooks, logger, rel)
			}
		}()
	}
	go func() {
		producers.Wait()
		close(results)
	}()

	report := Report{Files: []FileResult{}, Skipped: []SkippedInfo{}, Errors: []ErrorInfo{}}
	report.Summary.Outcomes = Tally{}
	var stopErr error
	for o := range results {
		report.Summary.TotalFiles++
		switch {
		case o.err != nil:
			report.Errors = append(report.Errors, ErrorInfo{Path: o.path, Error: o.err.Error()})
			report.Summary.ErrorCount++
			if opts.OnErrorMode == OnErrorStop && stopErr == nil {
				stopErr = fmt.Errorf("%w: %w", ErrStopped, o.err)
				logger.Error("Stopping migration after file error", slog.String("path", o.path))
				cancel()
			}
		case o.skip != nil:
			report.Skipped = append(report.Skipped, *o.skip)
			report.Summary.SkippedCount++
		default:
			report.Files = append(report.Files, *o.file)
			report.Summary.Outcomes[o.file.Outcome]++
			if o.file.Outcome == OutcomeCached {
				report.Summary.CachedCount++
			} else {
				report.Summary.ProcessedCount++
			}
		}
	}

	sort.Slice(report.Files, func(i, j int) bool { return report.Files[i].Path < report.Files[j].Path })
	sort.Slice(report.Skipped, func(i, j int) bool { return report.Skipped[i].Path < report.Skipped[j].Path })
	sort.Slice(report.Errors, func(i, j int) bool { return report.Errors[i].Path < report.Errors[j].Path })

	if opts.CacheEnabled && stopErr == nil {
		if err := cacheMgr.Persist(cachePath); err != nil {
			logger.Error("Failed to persist cache", slog.String("path", cachePath), slog.String("error", err.Error()))
		}
	}

	report.Summary.InputPath = opts.InputPath
	report.Summary.OutputPath = opts.OutputPath
	report.Summary.Mode = opts.Mode
	report.Summary.CacheEnabled = opts.CacheEnabled
	report.Summary.Concurrency = opts.Concurrency
	report.Summary.Timestamp = time.Now()
	report.Summary.DurationSeconds = time.Since(start).Seconds()
	report.Summary.SchemaVersion = ReportSchemaVersion

	fatal := stopErr
	if fatal == nil && walkErr != nil {
		fatal = walkErr
		if errors.Is(walkErr, context.Canceled) && ctx.Err() != nil {
			fatal = ctx.Err()
		}
	}
	report.Summary.FatalError = fatal != nil

	if hookErr := opts.EventHooks.OnRunComplete(report); hookErr != nil {
		logger.Warn("OnRunComplete hook failed", slog.String("error", hookErr.Error()))
	}
	logger.Info("Migration finished",
		slog.Int("processed", report.Summary.ProcessedCount),
		slog.Int("cached", report.Summary.CachedCount),
		slog.Int("skipped", report.Summary.SkippedCount),
		slog.Int("errors", report.Summary.ErrorCount))
	return report, fatal
}

func runOne(proc *processor, hooks Hooks, logger *slog.Logger, rel string) outcome {
	notify := func(status Status, msg string, d time.Duration) {
		if err := hooks.OnFileStatusUpdate(rel, status, msg, d); err != nil {
			logger.Warn("OnFileStatusUpdate hook failed", slog.String("path", rel), slog.String("error", err.Error()))
		}
	}
	start := time.Now()
	notify(StatusProcessing, "", 0)

	file, skip, err := proc.process(rel)
	switch {
	case err != nil:
		notify(StatusFailed, err.Error(), time.Since(start))
		return outcome{path: rel, err: err, status: StatusFailed}
	case skip != nil:
		notify(StatusSkipped, skip.Reason, time.Since(start))
		return outcome{path: rel, skip: skip, status: StatusSkipped}
	case file.Outcome == OutcomeCached:
		notify(StatusCached, "", time.Since(start))
		return outcome{path: rel, file: file, status: StatusCached}
	default:
		notify(StatusSuccess, string(file.Outcome), time.Since(start))
		return outcome{path: rel, file: file, status: StatusSuccess}
	}
}

// prepare validates opts and fills defaults.
func prepare(opts *Options) error {
	if opts.Logger == nil {
		return fmt.Errorf("%w: Logger cannot be nil", ErrConfigValidation)
	}
	if opts.InputPath == "" {
		return fmt.Errorf("%w: input path cannot be empty", ErrConfigValidation)
	}
	if opts.OutputPath == "" {
		return fmt.Errorf("%w: output path cannot be empty", ErrConfigValidation)
	}
	if opts.Concurrency < 0 {
		return fmt.Errorf("%w: concurrency cannot be negative", ErrConfigValidation)
	}

	var err error
	if opts.InputPath, err = filepath.Abs(opts.InputPath); err != nil {
		return fmt.Errorf("%w: cannot resolve input path: %w", ErrConfigValidation, err)
	}
	if opts.OutputPath, err = filepath.Abs(opts.OutputPath); err != nil {
		return fmt.Errorf("%w: cannot resolve output path: %w", ErrConfigValidation, err)
	}
	info, err := os.Stat(opts.InputPath)
	if err != nil {
		return fmt.Errorf("%w: cannot access input path '%s': %w", ErrConfigValidation, opts.InputPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: input path '%s' is not a directory", ErrConfigValidation, opts.InputPath)
	}

	switch opts.Mode {
	case "":
		opts.Mode = DefaultMode
	case ModeNormalize, ModeStrip, ModeReplace:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrConfigValidation, opts.Mode)
	}
	switch opts.OnErrorMode {
	case "":
		opts.OnErrorMode = DefaultOnErrorMode
	case OnErrorContinue, OnErrorStop:
	default:
		return fmt.Errorf("%w: unknown onError mode %q", ErrConfigValidation, opts.OnErrorMode)
	}

	if opts.Concurrency == 0 {
		opts.Concurrency = runtime.NumCPU()
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	if opts.Source == nil {
		opts.Source = hashsource.None()
	}
	if opts.EventHooks == nil {
		opts.EventHooks = NoOpHooks{}
	}
	if opts.EncodingHandler == nil {
		opts.EncodingHandler = encoding.NewHandler(opts.DefaultEncoding)
	}
	if opts.AppVersion == "" {
		opts.AppVersion = "dev"
	}
	return nil
}

func setupCache(opts *Options, logger *slog.Logger) (cache.Manager, string) {
	path := opts.CacheFilePath
	if path == "" {
		path = filepath.Join(opts.OutputPath, cache.FileName)
	}
	if !opts.CacheEnabled {
		return cache.NoOp{}, path
	}

	mgr := opts.CacheManager
	if mgr == nil {
		fm, err := cache.NewFileManager(opts.Logger, opts.AppVersion, opts.CacheFormat)
		if err != nil {
			logger.Warn("Cache disabled", slog.String("error", err.Error()))
			opts.CacheEnabled = false
			return cache.NoOp{}, path
		}
		mgr = fm
	}
	if err := mgr.Load(path); err != nil {
		logger.Error("Cannot read cache, proceeding without it", slog.String("path", path), slog.String("error", err.Error()))
		opts.CacheEnabled = false
		return cache.NoOp{}, path
	}
	return mgr, path
}
