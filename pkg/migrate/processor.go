package migrate

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/test-moodle/moodle-tiny-translations/pkg/content"
	"github.com/test-moodle/moodle-tiny-translations/pkg/encoding"
	"github.com/test-moodle/moodle-tiny-translations/pkg/marker"
	"github.com/test-moodle/moodle-tiny-translations/pkg/migrate/cache"
)

// processor migrates a single field file.
type processor struct {
	opts        *Options
	transformer *content.Transformer
	encoding    encoding.Handler
	cache       cache.Manager
	configHash  string
	logger      *slog.Logger
}

// configHash fingerprints every option that changes the output for a given input.
func configHash(opts *Options) string {
	return cache.Hash([]byte(strings.Join([]string{
		string(opts.Mode),
		opts.SourceFingerprint,
		strings.ToLower(opts.DefaultEncoding),
	}, "\x00")))
}

// process returns the result for rel, or a SkippedInfo when the file is not a field.
func (p *processor) process(rel string) (*FileResult, *SkippedInfo, error) {
	start := time.Now()
	src := filepath.Join(p.opts.InputPath, filepath.FromSlash(rel))
	dst := filepath.Join(p.opts.OutputPath, filepath.FromSlash(rel))

	raw, err := os.ReadFile(src)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrReadFailed, rel, err)
	}
	if p.encoding.IsBinary(raw) {
		return nil, &SkippedInfo{Path: rel, Reason: SkipReasonBinary, Details: ErrBinaryFile.Error()}, nil
	}

	result := &FileResult{Path: rel, OutputPath: dst, CacheStatus: CacheStatusDisabled}
	sourceHash := cache.Hash(raw)
	if p.opts.CacheEnabled {
		result.CacheStatus = CacheStatusMiss
		if hit, outHash := p.cache.Check(rel, sourceHash, p.configHash); hit && outputMatches(dst, outHash) {
			result.CacheStatus = CacheStatusHit
			result.Outcome = OutcomeCached
			result.DurationMs = time.Since(start).Milliseconds()
			return result, nil, nil
		}
	}

	decoded, encName, _, err := p.encoding.DetectAndDecode(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrDecodeFailed, rel, err)
	}
	result.Encoding = encName

	out := p.apply(string(decoded), result)

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrMkdirFailed, filepath.Dir(dst), err)
	}
	if err := os.WriteFile(dst, []byte(out), 0o644); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrWriteFailed, dst, err)
	}

	if p.opts.CacheEnabled {
		if err := p.cache.Update(rel, sourceHash, p.configHash, cache.Hash([]byte(out))); err != nil {
			p.logger.Warn("Failed to update cache entry", slog.String("path", rel), slog.String("error", err.Error()))
		}
	}
	result.DurationMs = time.Since(start).Milliseconds()
	return result, nil, nil
}

// apply runs the configured marker operation and records its outcome on result.
func (p *processor) apply(in string, result *FileResult) string {
	switch p.opts.Mode {
	case ModeStrip:
		out := p.transformer.StripOnPaste(in)
		result.Outcome = OutcomeUnchanged
		if out != in {
			result.Outcome = OutcomeStripped
		}
		return out
	case ModeReplace:
		out, hash := p.transformer.ReplaceMarker(in, p.opts.Source)
		result.Hash = hash
		result.Outcome = OutcomeReplaced
		if hash == "" {
			result.Outcome = OutcomeUnmarked
		}
		return out
	default:
		out, hash := p.transformer.EnsureMarker(in, p.opts.Source)
		result.Hash = hash
		switch {
		case hash == "":
			result.Outcome = OutcomeUnmarked
		case out == in:
			result.Outcome = OutcomeUnchanged
		case marker.Matches(in):
			result.Outcome = OutcomeNormalized
		default:
			result.Outcome = OutcomeInserted
		}
		return out
	}
}

func outputMatches(path, want string) bool {
	data, err := os.ReadFile(path)
	return err == nil && cache.Hash(data) == want
}
