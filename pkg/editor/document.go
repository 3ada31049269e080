package editor

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is an in-memory Editor. Content lives in a parse tree rooted at a <body>
// element, so GetContent always returns serializer-normalized markup. Events are
// dispatched synchronously in registration order. A Document is not safe for concurrent
// use; like a browser editor it processes one event at a time.
type Document struct {
	id       string
	body     *html.Node
	options  map[string]string
	handlers map[EventName][]Handler
	saved    string
	sink     func(string) error
	logger   *slog.Logger
}

// Option configures a Document.
type Option func(*Document)

// WithOption sets an editor option, such as the field's unused hash.
func WithOption(name, value string) Option {
	return func(d *Document) { d.options[name] = value }
}

// WithSaveSink registers a function receiving the content on every Save, standing in
// for the form field the editor writes back to.
func WithSaveSink(fn func(string) error) Option {
	return func(d *Document) { d.sink = fn }
}

// WithLogger sets the log handler.
func WithLogger(h slog.Handler) Option {
	return func(d *Document) {
		if h != nil {
			d.logger = slog.New(h)
		}
	}
}

// NewDocument creates a Document with the given element id and initial content.
func NewDocument(id, content string, opts ...Option) (*Document, error) {
	d := &Document{
		id:       id,
		options:  map[string]string{},
		handlers: map[EventName][]Handler{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With(slog.String("component", "editor"), slog.String("editor", id))
	if err := d.SetContent(content); err != nil {
		return nil, err
	}
	return d, nil
}

// ID returns the element id of the editor.
func (d *Document) ID() string { return d.id }

// Option returns the named editor option.
func (d *Document) Option(name string) (string, bool) {
	v, ok := d.options[name]
	return v, ok
}

// GetContent serializes the body children.
func (d *Document) GetContent() string {
	var buf bytes.Buffer
	for c := d.body.FirstChild; c != nil; c = c.NextSibling {
		// Rendering to a bytes.Buffer only fails on malformed trees, which the parser never builds.
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// SetContent replaces the body with the parsed fragment.
func (d *Document) SetContent(content string) error {
	body, err := parseBody(content)
	if err != nil {
		return err
	}
	d.body = body
	return nil
}

func parseBody(content string) (*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(content), body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return body, nil
}

// Body returns the root of the content tree for direct manipulation.
func (d *Document) Body() *html.Node { return d.body }

// QueryAttr returns the first element in document order carrying the attribute key,
// or nil.
func (d *Document) QueryAttr(key string) *html.Node {
	var found *html.Node
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				for _, a := range c.Attr {
					if a.Namespace == "" && a.Key == key {
						found = c
						return true
					}
				}
			}
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(d.body)
	return found
}

// On registers a handler for an event.
func (d *Document) On(name EventName, h Handler) {
	d.handlers[name] = append(d.handlers[name], h)
}

// Fire dispatches an event to its handlers and returns the event as they left it.
// Dispatch stops at the first handler error.
func (d *Document) Fire(name EventName, content string) (*Event, error) {
	ev := &Event{Name: name, Content: content}
	for i, h := range d.handlers[name] {
		if err := h(ev); err != nil {
			d.logger.Error("Event handler failed", slog.String("event", string(name)), slog.Int("handler", i), slog.String("error", err.Error()))
			return ev, fmt.Errorf("%s handler %d: %w", name, i, err)
		}
	}
	return ev, nil
}

// Init raises EventInit.
func (d *Document) Init() error {
	_, err := d.Fire(EventInit, "")
	return err
}

// Submit raises EventSubmit and returns the last saved content.
func (d *Document) Submit() (string, error) {
	if _, err := d.Fire(EventSubmit, ""); err != nil {
		return "", err
	}
	return d.saved, nil
}

// Paste raises EventPaste for fragment and appends the fragment, as rewritten by the
// handlers, to the end of the body. The caret position is not modelled, so there is no
// insert-at-cursor.
func (d *Document) Paste(fragment string) error {
	ev, err := d.Fire(EventPaste, fragment)
	if err != nil {
		return err
	}
	if ev.Content == "" {
		return nil
	}
	return d.SetContent(d.GetContent() + ev.Content)
}

// Save writes the current content back to the form field.
func (d *Document) Save() error {
	d.saved = d.GetContent()
	d.logger.Debug("Content saved", slog.Int("bytes", len(d.saved)))
	if d.sink != nil {
		return d.sink(d.saved)
	}
	return nil
}

// Saved returns the content written by the last Save.
func (d *Document) Saved() string { return d.saved }

var _ Editor = (*Document)(nil)
