package diagfmt

import (
	"fmt"
	"path/filepath"

	"propweave/internal/source"
)

func displayPath(id source.DocID, docs *source.DocumentSet, mode PathMode) string {
	doc, ok := docs.Get(id)
	if !ok {
		return ""
	}
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(doc.Path); err == nil {
			return filepath.ToSlash(abs)
		}
		return doc.Path
	case PathModeBasename:
		return filepath.Base(doc.Path)
	case PathModeRelative, PathModeAuto:
		return docs.RelPath(id)
	}
	return doc.Path
}

// location renders span as path:line:col, or "" when it carries no location.
func location(span source.Span, docs *source.DocumentSet, mode PathMode) string {
	if span.IsZero() {
		return ""
	}
	path := displayPath(span.Doc, docs, mode)
	if path == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", path, span.Start.Line, span.Start.Col)
}
