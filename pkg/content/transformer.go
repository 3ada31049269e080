// Package content applies the translation-hash marker lifecycle to whole editor
// documents. Every operation is a pure function of its arguments: the Transformer keeps
// no content or hash between calls, and callers that need the hash later (for example
// at submit time) must retain the value returned by EnsureMarker themselves.
//
// None of the operations fail. A missing hash source leaves content unmarked,
// unrecognized marker-like markup is left alone, and duplicate markers are removed.
package content

import (
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/test-moodle/moodle-tiny-translations/pkg/marker"
)

// HashSource supplies a freshly generated hash, or reports that the field needs no
// marker by returning false.
type HashSource interface {
	Hash() (string, bool)
}

// emptyParagraphRe matches the placeholder rich-text editors emit for a field nobody has
// typed into.
var emptyParagraphRe = regexp.MustCompile(`(?i)^<p(?:\s[^>]*)?>(?:\s|\x{00A0}|&nbsp;|&#160;|<br(?:\s[^>]*)?/?>)*</p\s*>$`)

// Transformer implements the marker operations. The zero value is not usable; call New.
type Transformer struct {
	logger *slog.Logger
}

// New creates a Transformer that logs through handler. A nil handler discards logs.
func New(handler slog.Handler) *Transformer {
	if handler == nil {
		handler = slog.NewTextHandler(io.Discard, nil)
	}
	return &Transformer{logger: slog.New(handler).With(slog.String("component", "content"))}
}

// EnsureMarker runs when an editor initializes its content. It returns the content to
// load into the editor and the hash now marking it.
//
// When src has no usable hash the field is not translatable: content is returned as is
// and the hash is empty. When content already carries a marker its hash is kept and the
// marker is rewritten to the canonical shape; any further markers are dropped. Otherwise
// a canonical marker for the new hash is prepended.
func (t *Transformer) EnsureMarker(content string, src HashSource) (string, string) {
	fresh, ok := usableHash(src)
	if !ok {
		t.logger.Debug("No hash available, leaving content unmarked")
		return content, ""
	}

	first, found := marker.First(content)
	if !found {
		enc, _ := marker.Encode(fresh)
		t.logger.Debug("Inserted translation marker", slog.String("hash", fresh))
		return enc + content, fresh
	}

	enc, _ := marker.Encode(first.Hash)
	rest := marker.Strip(content[first.End:])
	if first.Canonical && rest == content[first.End:] {
		return content, first.Hash
	}
	if len(rest) != len(content)-first.End {
		t.logger.Debug("Removed duplicate translation markers", slog.String("hash", first.Hash))
	}

	if first.Wrapped {
		t.logger.Debug("Normalized translation marker in place", slog.String("hash", first.Hash), slog.Bool("legacy", !first.Canonical))
		return content[:first.Start] + enc + rest, first.Hash
	}
	// A bare span is inline content of a user paragraph; a block cannot go there.
	t.logger.Debug("Moved inline translation marker to document start", slog.String("hash", first.Hash))
	return enc + marker.Strip(content), first.Hash
}

// ReinsertIfMissing runs before submit. If the user deleted the marker, a canonical
// marker for hash is prepended; otherwise content is returned unchanged.
func (t *Transformer) ReinsertIfMissing(content, hash string) string {
	if marker.Matches(content) {
		return content
	}
	enc, err := marker.Encode(hash)
	if err != nil {
		t.logger.Debug("Cannot reinsert translation marker", slog.String("error", err.Error()))
		return content
	}
	t.logger.Debug("Reinserted missing translation marker", slog.String("hash", hash))
	return enc + content
}

// CollapseIfMarkerOnly returns the empty string when content is exactly markerMarkup,
// so a field holding nothing but its marker is stored as empty.
func (t *Transformer) CollapseIfMarkerOnly(content, markerMarkup string) string {
	if content == markerMarkup {
		return ""
	}
	return content
}

// StripOnPaste removes all markers from a pasted fragment so a paste cannot introduce a
// second or foreign marker.
func (t *Transformer) StripOnPaste(content string) string {
	out := marker.Strip(content)
	if out != content {
		t.logger.Debug("Stripped translation markers from pasted content")
	}
	return out
}

// ReplaceMarker drops every marker from content and prepends one for a fresh hash from
// src. If src has no usable hash, content is returned unchanged with an empty hash so
// an existing marker is never removed without a replacement.
func (t *Transformer) ReplaceMarker(content string, src HashSource) (string, string) {
	fresh, ok := usableHash(src)
	if !ok {
		t.logger.Warn("Replace requested but no hash is available")
		return content, ""
	}
	enc, _ := marker.Encode(fresh)
	t.logger.Debug("Replaced translation marker", slog.String("hash", fresh))
	return enc + marker.Strip(content), fresh
}

// IsMarkerOnly reports whether content holds a marker and, once that marker is removed,
// nothing but whitespace or a single empty paragraph placeholder.
func (t *Transformer) IsMarkerOnly(content string) bool {
	first, found := marker.First(content)
	if !found {
		return false
	}
	rest := strings.TrimSpace(content[:first.Start] + content[first.End:])
	return rest == "" || emptyParagraphRe.MatchString(rest)
}

func usableHash(src HashSource) (string, bool) {
	if src == nil {
		return "", false
	}
	h, ok := src.Hash()
	if !ok || !marker.Valid(h) {
		return "", false
	}
	return h, true
}
