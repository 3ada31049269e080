package marker

import "regexp"

// All regular expressions describing marker markup live in this file. Callers outside
// the package work with Match values and never see the patterns, so the matcher can be
// replaced by a structured fragment parser without touching them.

// attrsExpr consumes whole attributes, quoted values included, so an attribute name is
// only recognized outside another attribute's value.
const attrsExpr = `(?:\s+[\w:.-]+(?:\s*=\s*(?:"[^"]*"|'[^']*'|[^\s"'=<>]+))?)*?`

// spanExpr matches the inline marker element: an empty <span> carrying the hash in a
// data-translationhash attribute. Other attributes (legacy name="translationhash") may
// appear before or after it. The two alternations capture double- and single-quoted values.
const spanExpr = `<span` + attrsExpr + `\s+data-translationhash\s*=\s*(?:"([a-zA-Z0-9]+)"|'([a-zA-Z0-9]+)')[^>]*>\s*</span\s*>`

var (
	// markerRe matches one marker occurrence. The first alternative is a paragraph holding
	// nothing but the span (canonical shape, or legacy <p> without the class); the second
	// is a bare span anywhere in the markup. Go's leftmost-first alternation means a
	// wrapping paragraph is consumed together with its span whenever it qualifies.
	markerRe = regexp.MustCompile(`(?i)<p(?:\s[^>]*)?>\s*` + spanExpr + `\s*</p\s*>|` + spanExpr)

	// emptyWrapperRe matches a translationhash paragraph that has been emptied, e.g. after
	// its span was removed by an earlier pass or by a user edit.
	emptyWrapperRe = regexp.MustCompile(`(?i)<p` + attrsExpr + `\s+class\s*=\s*(?:"[^"]*\btranslationhash\b[^"]*"|'[^']*\btranslationhash\b[^']*')[^>]*>(?:\s|\x{00A0}|&nbsp;|&#160;)*</p\s*>`)

	hashRe = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
)

// Submatch indexes of the hash inside markerRe, in preference order. The first two
// belong to the wrapped alternative.
var hashGroups = [...]int{1, 2, 3, 4}
