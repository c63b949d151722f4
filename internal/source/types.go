package source

// DocID identifies a source document inside a DocumentSet.
// Zero is reserved for "no document" so the zero Span carries no location.
type DocID uint32

// NoDoc marks a span without a backing document.
const NoDoc DocID = 0

// Document is a source file a compiled member was produced from.
type Document struct {
	ID   DocID
	Path string
}

// LineCol represents a human-readable position in a document.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}
