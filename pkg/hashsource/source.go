// Package hashsource provides the hash providers consulted when a field needs a new
// translation marker.
package hashsource

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Kinds accepted by New.
const (
	KindStatic   = "static"
	KindGenerate = "generate"
	KindOption   = "option"
	KindNone     = "none"
)

// DefaultOptionName is the editor option holding the unused hash for a field.
const DefaultOptionName = "unusedHash"

// ErrUnknownKind is returned by New for an unsupported source kind.
var ErrUnknownKind = errors.New("unknown hash source kind")

// Source supplies a hash for a new marker. A false result means the field needs no
// marker.
type Source interface {
	Hash() (string, bool)
}

// OptionReader exposes editor options by name.
type OptionReader interface {
	Option(name string) (string, bool)
}

// Func adapts a function to Source.
type Func func() (string, bool)

// Hash implements Source.
func (f Func) Hash() (string, bool) { return f() }

type static string

func (s static) Hash() (string, bool) { return string(s), s != "" }

// Static returns a Source that always yields h. An empty h yields nothing.
func Static(h string) Source { return static(h) }

// None returns a Source that never yields a hash.
func None() Source { return static("") }

type generator struct {
	newUUID func() uuid.UUID
}

func (g generator) Hash() (string, bool) {
	return strings.ReplaceAll(g.newUUID().String(), "-", ""), true
}

// Generator returns a Source yielding a fresh 32-character hexadecimal hash on every call.
func Generator() Source { return generator{newUUID: uuid.New} }

type option struct {
	reader OptionReader
	name   string
}

func (o option) Hash() (string, bool) {
	v, ok := o.reader.Option(o.name)
	return v, ok && v != ""
}

// FromOption returns a Source reading the named option from r at call time. An empty
// name selects DefaultOptionName.
func FromOption(r OptionReader, name string) Source {
	if name == "" {
		name = DefaultOptionName
	}
	return option{reader: r, name: name}
}

// New builds a Source from configuration. value is the hash for KindStatic and the
// option name for KindOption; r is only consulted for KindOption.
func New(kind, value string, r OptionReader) (Source, error) {
	switch strings.ToLower(kind) {
	case KindStatic:
		return Static(value), nil
	case KindGenerate:
		return Generator(), nil
	case KindOption:
		if r == nil {
			return nil, fmt.Errorf("%w: %q requires an option reader", ErrUnknownKind, kind)
		}
		return FromOption(r, value), nil
	case KindNone, "":
		return None(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
