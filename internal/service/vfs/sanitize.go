package vfs

import (
	"strings"
)

// sanitize.go - Path segment construction.
//
// Display names are free-form; materialized paths use sanitized
// segments: lowercased, spaces to hyphens, filesystem-unsafe
// characters stripped. Files contribute their base name (no extension)
// to the path.

// SanitizeSegment converts a display name into a path segment.
//
// Examples:
//   - SanitizeSegment("My Docs") → "my-docs"
//   - SanitizeSegment("Q3 <report>") → "q3-report"
func SanitizeSegment(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	lower = strings.ReplaceAll(lower, " ", "-")

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z',
			r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			b.WriteRune(r)
		}
	}

	// A name made entirely of stripped characters still needs a segment
	if b.Len() == 0 {
		return "untitled"
	}
	return b.String()
}

// BuildPath joins a parent's materialized path and a sanitized segment.
// Root-level nodes get "/" + segment.
func BuildPath(parentPath, segment string) string {
	if parentPath == "" {
		return "/" + segment
	}
	return parentPath + "/" + segment
}

// SplitFileName splits a file name into base name and extension.
// The extension is returned without the dot. Names without a dot, or
// dotfiles like ".env", have no extension.
//
// Examples:
//   - SplitFileName("report.pdf") → ("report", "pdf")
//   - SplitFileName("archive.tar.gz") → ("archive.tar", "gz")
//   - SplitFileName(".env") → (".env", "")
func SplitFileName(name string) (base, ext string) {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 {
		return name, ""
	}
	return name[:idx], name[idx+1:]
}
