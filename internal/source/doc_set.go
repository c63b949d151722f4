package source

import (
	"fmt"
	"path/filepath"
	"strings"

	"fortio.org/safecast"
)

// DocumentSet interns document paths and hands out stable DocIDs.
type DocumentSet struct {
	docs    []Document
	index   map[string]DocID
	baseDir string
}

// NewDocumentSet creates an empty set. DocID 0 stays reserved.
func NewDocumentSet() *DocumentSet {
	return &DocumentSet{
		docs:  []Document{{ID: NoDoc}},
		index: make(map[string]DocID),
	}
}

// SetBaseDir sets the directory used to render relative paths.
func (ds *DocumentSet) SetBaseDir(dir string) {
	ds.baseDir = dir
}

// Add returns the id of path, registering it on first use.
func (ds *DocumentSet) Add(path string) DocID {
	norm := normalizePath(path)
	if id, ok := ds.index[norm]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(ds.docs))
	if err != nil {
		panic(fmt.Errorf("document count overflow: %w", err))
	}
	id := DocID(n)
	ds.docs = append(ds.docs, Document{ID: id, Path: norm})
	ds.index[norm] = id
	return id
}

// Get returns the document for id.
func (ds *DocumentSet) Get(id DocID) (Document, bool) {
	if ds == nil || id == NoDoc || int(id) >= len(ds.docs) {
		return Document{}, false
	}
	return ds.docs[id], true
}

// Len returns the number of registered documents.
func (ds *DocumentSet) Len() int {
	return len(ds.docs) - 1
}

// Format renders span as path:line:col, relative to the base dir when possible.
func (ds *DocumentSet) Format(s Span) string {
	path := ds.RelPath(s.Doc)
	if path == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", path, s.Start.Line, s.Start.Col)
}

// RelPath returns the path of id relative to the base dir, or the stored
// path when it lies outside it. Unknown ids give "".
func (ds *DocumentSet) RelPath(id DocID) string {
	doc, ok := ds.Get(id)
	if !ok {
		return ""
	}
	if ds.baseDir != "" {
		if rel, err := filepath.Rel(ds.baseDir, doc.Path); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return doc.Path
}

func normalizePath(path string) string {
	p := filepath.ToSlash(filepath.Clean(path))
	for strings.HasPrefix(p, "./") {
		p = strings.TrimPrefix(p, "./")
	}
	return p
}
