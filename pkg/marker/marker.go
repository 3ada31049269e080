// Package marker builds and parses the hidden translation-hash marker embedded in
// rich-text editor content.
//
// The canonical serialization is
//
//	<p class="translationhash"><span data-translationhash="HASH"></span></p>
//
// where HASH matches [a-zA-Z0-9]+. Older editor revisions produced other shapes (a bare
// span, a span with name="translationhash", a wrapping <p> without the class). These are
// recognized by Decode, Find and Strip but never produced by Encode.
package marker

import (
	"errors"
	"fmt"
	"iter"
)

const (
	// ClassName is the class carried by the canonical wrapper paragraph.
	ClassName = "translationhash"
	// DataAttribute carries the hash on the inline element.
	DataAttribute = "data-translationhash"
	// NameAttribute is the identifying attribute used by legacy markers.
	NameAttribute = "name"
)

// ErrInvalidHash is returned by Encode when the hash is empty or not alphanumeric.
var ErrInvalidHash = errors.New("invalid translation hash")

// Match describes one recognized marker occurrence inside a markup string.
type Match struct {
	// Start and End are byte offsets into the scanned markup; markup[Start:End] is the
	// full occurrence, including a wrapping paragraph when Wrapped is true.
	Start int
	End   int
	// Hash is the identifier carried by the marker.
	Hash string
	// Wrapped reports whether the span sat alone inside a paragraph that was consumed
	// with it. A bare span is inline content of some surrounding element.
	Wrapped bool
	// Canonical reports whether the occurrence is byte-identical to Encode(Hash).
	Canonical bool
}

// Valid reports whether hash satisfies the Encode precondition.
func Valid(hash string) bool {
	return hashRe.MatchString(hash)
}

// Encode returns the canonical markup block for hash.
func Encode(hash string) (string, error) {
	if !Valid(hash) {
		return "", fmt.Errorf("%w: %q", ErrInvalidHash, hash)
	}
	return canonical(hash), nil
}

func canonical(hash string) string {
	return `<p class="` + ClassName + `"><span ` + DataAttribute + `="` + hash + `"></span></p>`
}

// Find scans markup for marker occurrences, canonical and legacy, in document order.
// The sequence is lazy and can be ranged over any number of times.
func Find(markup string) iter.Seq[Match] {
	return func(yield func(Match) bool) {
		offset := 0
		for offset < len(markup) {
			loc := markerRe.FindStringSubmatchIndex(markup[offset:])
			if loc == nil {
				return
			}
			if !yield(newMatch(markup, offset, loc)) {
				return
			}
			offset += loc[1]
		}
	}
}

func newMatch(markup string, offset int, loc []int) Match {
	m := Match{Start: offset + loc[0], End: offset + loc[1]}
	for _, g := range hashGroups {
		if loc[2*g] < 0 {
			continue
		}
		m.Hash = markup[offset+loc[2*g] : offset+loc[2*g+1]]
		m.Wrapped = g <= 2
		break
	}
	m.Canonical = markup[m.Start:m.End] == canonical(m.Hash)
	return m
}

// First returns the first marker occurrence in markup.
func First(markup string) (Match, bool) {
	for m := range Find(markup) {
		return m, true
	}
	return Match{}, false
}

// Decode yields the hash of every marker occurrence in markup, in document order.
func Decode(markup string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for m := range Find(markup) {
			if !yield(m.Hash) {
				return
			}
		}
	}
}

// Matches reports whether markup contains at least one marker.
func Matches(markup string) bool {
	return markerRe.MatchString(markup)
}

// Strip removes every recognized marker from markup together with any translationhash
// paragraph left holding only whitespace. Removal repeats until nothing changes, so
// markers that only become recognizable once an inner marker is gone are removed too,
// and Strip(Strip(s)) == Strip(s).
func Strip(markup string) string {
	for {
		out := emptyWrapperRe.ReplaceAllLiteralString(markerRe.ReplaceAllLiteralString(markup, ""), "")
		if out == markup {
			return out
		}
		markup = out
	}
}
