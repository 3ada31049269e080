// Package editor models the rich-text host editor that owns field content. The marker
// lifecycle only consumes the Editor interface; Document is an in-memory implementation
// backed by an HTML parse tree, used by the command line tools and in tests.
package editor

import "errors"

// EventName identifies a lifecycle event raised by an editor.
type EventName string

// Lifecycle events.
const (
	EventInit   EventName = "init"
	EventSubmit EventName = "submit"
	EventPaste  EventName = "paste"
)

// ErrParse indicates that content could not be parsed as an HTML fragment.
var ErrParse = errors.New("failed to parse editor content")

// Event is passed to handlers. Content is only meaningful for EventPaste, where it holds
// the pasted fragment and may be rewritten by handlers before insertion.
type Event struct {
	Name    EventName
	Content string
}

// Handler reacts to an editor event.
type Handler func(e *Event) error

// Editor is the host editor surface used by the marker lifecycle. It has no notion of a
// selection or caret: content is only read and replaced as a whole, and implementations
// decide where pasted content lands (Document appends it to the end of the body).
type Editor interface {
	ID() string
	GetContent() string
	SetContent(html string) error
	On(name EventName, h Handler)
	Save() error
	Option(name string) (string, bool)
}
