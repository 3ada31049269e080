// Package util holds helpers shared by the migration walker.
package util

import (
	"path"
	"path/filepath"
	"strings"
)

// MatchesIgnore reports whether relPath, relative to the walk root, matches a
// gitignore-style pattern. A leading "/" or an inner "/" anchors the pattern to the
// root, a leading "**/" un-anchors it, and a trailing "/" restricts it to directories.
// Unanchored patterns match any trailing run of path components. Negation ("!") and
// "**" in the middle of a pattern are not supported.
func MatchesIgnore(pattern, relPath string, isDir bool) bool {
	pattern = filepath.ToSlash(strings.TrimSpace(pattern))
	relPath = filepath.ToSlash(relPath)
	if pattern == "" || strings.HasPrefix(pattern, "#") || relPath == "" || relPath == "." {
		return false
	}

	if strings.HasSuffix(pattern, "/") {
		if !isDir {
			return false
		}
		pattern = strings.TrimSuffix(pattern, "/")
	}

	anchored := false
	switch {
	case strings.HasPrefix(pattern, "**/"):
		pattern = strings.TrimPrefix(pattern, "**/")
	case strings.HasPrefix(pattern, "/"):
		pattern = strings.TrimPrefix(pattern, "/")
		anchored = true
	case strings.Contains(pattern, "/"):
		anchored = true
	}

	if anchored {
		ok, _ := path.Match(pattern, relPath)
		return ok
	}
	parts := strings.Split(relPath, "/")
	for i := range parts {
		if ok, _ := path.Match(pattern, strings.Join(parts[i:], "/")); ok {
			return true
		}
	}
	return false
}
