// Package lifecycle wires the content transformer to an editor's events. A Session is
// the one place where the marker hash survives between events: it captures the hash
// produced at init and supplies it again at submit.
package lifecycle

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/test-moodle/moodle-tiny-translations/pkg/content"
	"github.com/test-moodle/moodle-tiny-translations/pkg/editor"
	"github.com/test-moodle/moodle-tiny-translations/pkg/hashsource"
	"github.com/test-moodle/moodle-tiny-translations/pkg/marker"
)

// DefaultSkipEditorID is the editor used to type translations themselves; its content
// must never carry a marker.
const DefaultSkipEditorID = "id_substitutetext_editor"

// ErrEditorSkipped is returned by Bind for editors excluded by Options.SkipEditorIDs.
var ErrEditorSkipped = errors.New("editor excluded from translation markers")

// Options configures a Session.
type Options struct {
	// Source supplies hashes for new markers. Nil reads the editor's unused hash option.
	Source hashsource.Source
	// SkipEditorIDs lists editor ids that are not bound.
	SkipEditorIDs []string
	// CollapseEmptyParagraph also stores as empty a field holding the marker plus an
	// empty paragraph placeholder, not just the bare marker.
	CollapseEmptyParagraph bool
	// SaveOnSubmit writes content back to the form field after submit processing.
	SaveOnSubmit bool
	// Logger receives session logs. Nil discards them.
	Logger slog.Handler
}

// DefaultOptions returns the options used by the editor plugin.
func DefaultOptions() Options {
	return Options{
		SkipEditorIDs: []string{DefaultSkipEditorID},
		SaveOnSubmit:  true,
	}
}

// Session tracks the marker of one editor instance.
type Session struct {
	editor      editor.Editor
	source      hashsource.Source
	transformer *content.Transformer
	opts        Options
	logger      *slog.Logger
	hash        string
}

// Bind registers init, submit and paste handlers on ed and returns the Session that
// owns its hash.
func Bind(ed editor.Editor, opts Options) (*Session, error) {
	if slices.Contains(opts.SkipEditorIDs, ed.ID()) {
		return nil, fmt.Errorf("%w: %s", ErrEditorSkipped, ed.ID())
	}
	handler := opts.Logger
	if handler == nil {
		handler = slog.NewTextHandler(io.Discard, nil)
	}
	src := opts.Source
	if src == nil {
		src = hashsource.FromOption(ed, hashsource.DefaultOptionName)
	}
	s := &Session{
		editor:      ed,
		source:      src,
		transformer: content.New(handler),
		opts:        opts,
		logger:      slog.New(handler).With(slog.String("component", "lifecycle"), slog.String("editor", ed.ID())),
	}
	ed.On(editor.EventInit, s.onInit)
	ed.On(editor.EventSubmit, s.onSubmit)
	ed.On(editor.EventPaste, s.onPaste)
	return s, nil
}

// Hash returns the hash marking the editor content, or "" if the field is unmarked.
func (s *Session) Hash() string { return s.hash }

// Marker returns the canonical markup for the current hash, or "" if unmarked.
func (s *Session) Marker() string {
	enc, err := marker.Encode(s.hash)
	if err != nil {
		return ""
	}
	return enc
}

func (s *Session) onInit(_ *editor.Event) error {
	current := s.editor.GetContent()
	out, hash := s.transformer.EnsureMarker(current, s.source)
	s.hash = hash
	if hash == "" {
		s.logger.Debug("Field has no translation hash")
		return nil
	}
	s.logger.Debug("Translation marker ready", slog.String("hash", hash))
	return s.setIfChanged(current, out)
}

func (s *Session) onSubmit(_ *editor.Event) error {
	if s.hash != "" {
		current := s.editor.GetContent()
		out := s.transformer.ReinsertIfMissing(current, s.hash)
		out = s.transformer.CollapseIfMarkerOnly(out, s.Marker())
		if out != "" && s.opts.CollapseEmptyParagraph && s.transformer.IsMarkerOnly(out) {
			out = ""
		}
		if err := s.setIfChanged(current, out); err != nil {
			return err
		}
	}
	if !s.opts.SaveOnSubmit {
		return nil
	}
	return s.editor.Save()
}

func (s *Session) onPaste(e *editor.Event) error {
	e.Content = s.transformer.StripOnPaste(e.Content)
	return nil
}

// Replace is the user action that discards the current marker and marks the content
// with a fresh hash. It returns the hash now in use; when no fresh hash is available
// content and hash are left as they were.
func (s *Session) Replace() (string, error) {
	current := s.editor.GetContent()
	out, hash := s.transformer.ReplaceMarker(current, s.source)
	if hash == "" {
		return s.hash, nil
	}
	if err := s.setIfChanged(current, out); err != nil {
		return s.hash, err
	}
	s.logger.Info("Translation hash replaced", slog.String("old", s.hash), slog.String("new", hash))
	s.hash = hash
	return hash, nil
}

func (s *Session) setIfChanged(current, out string) error {
	if out == current {
		return nil
	}
	if err := s.editor.SetContent(out); err != nil {
		return fmt.Errorf("failed to update editor content: %w", err)
	}
	return nil
}
