// Package encoding detects the character set of stored HTML fields and converts them to
// UTF-8 before marker processing.
package encoding

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

const (
	// sniffLen is the number of bytes inspected by http.DetectContentType.
	sniffLen = 512
	// checkLen is the prefix scanned for null bytes.
	checkLen = 1024
	// nullThreshold is the share of null bytes above which content is binary.
	nullThreshold = 0.15
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// metaCharsetRe matches the charset named by a <meta charset> or <meta http-equiv> tag.
var metaCharsetRe = regexp.MustCompile(`(?i)(<meta\b[^>]*?\bcharset\s*=\s*["']?)([a-z0-9_.:-]+)`)

var textMIMETypes = map[string]bool{
	"application/json":         true,
	"application/xml":          true,
	"application/xhtml+xml":    true,
	"application/octet-stream": true, // undecided; the null byte check settles it
	"image/svg+xml":            true,
}

// Handler converts stored field content to UTF-8 and recognizes binary files.
type Handler interface {
	// DetectAndDecode determines the encoding of content (BOM, <meta charset>, then
	// heuristics) and returns it converted to UTF-8, together with the IANA name of the
	// encoding used and whether detection was certain. Charset declarations in converted
	// content are rewritten to utf-8 so the output is not decoded twice later.
	DetectAndDecode(content []byte) (utf8Content []byte, detectedEncoding string, certain bool, err error)

	// IsBinary reports whether content is likely not text.
	IsBinary(content []byte) bool
}

type charsetHandler struct {
	defaultEncoding string
}

// NewHandler returns a Handler using golang.org/x/net/html/charset. defaultEncoding is
// applied when detection is uncertain; empty keeps the detector's guess.
func NewHandler(defaultEncoding string) Handler {
	return &charsetHandler{defaultEncoding: defaultEncoding}
}

// DetectAndDecode implements Handler.
func (h *charsetHandler) DetectAndDecode(content []byte) ([]byte, string, bool, error) {
	enc, name, certain := charset.DetermineEncoding(content, "text/html")

	if !certain && h.defaultEncoding != "" {
		if fallback, fallbackName := charset.Lookup(h.defaultEncoding); fallback != nil {
			enc, name, certain = fallback, fallbackName, true
		}
	}
	if name == "" {
		name = "utf-8"
	}
	if enc == nil || name == "utf-8" {
		return bytes.TrimPrefix(content, utf8BOM), name, certain, nil
	}

	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(content), enc.NewDecoder()))
	if err != nil {
		return content, name, certain, fmt.Errorf("failed to convert from '%s': %w", name, err)
	}
	// Some decoders pass the byte order mark through as U+FEFF.
	return declareUTF8(bytes.TrimPrefix(out, utf8BOM)), name, certain, nil
}

func declareUTF8(content []byte) []byte {
	return metaCharsetRe.ReplaceAll(content, []byte("${1}utf-8"))
}

func isTextMIME(contentType string) bool {
	mimeType := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	if strings.HasPrefix(mimeType, "text/") || textMIMETypes[mimeType] {
		return true
	}
	return strings.HasSuffix(mimeType, "+xml") || strings.HasSuffix(mimeType, "+json")
}

// IsBinary implements Handler.
func (h *charsetHandler) IsBinary(content []byte) bool {
	if len(content) == 0 {
		return false
	}
	if !isTextMIME(http.DetectContentType(content[:min(len(content), sniffLen)])) {
		return true
	}
	prefix := content[:min(len(content), checkLen)]
	return float64(bytes.Count(prefix, []byte{0x00}))/float64(len(prefix)) > nullThreshold
}
