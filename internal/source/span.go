package source

import "fmt"

// Span is a debug sequence point: a line/column range inside a document.
// Members carry the span of their declaration so warnings can point at it.
type Span struct {
	Doc   DocID
	Start LineCol
	End   LineCol
}

// At builds a single-position span.
func At(doc DocID, line, col uint32) Span {
	pos := LineCol{Line: line, Col: col}
	return Span{Doc: doc, Start: pos, End: pos}
}

// IsZero reports whether the span carries no location at all.
func (s Span) IsZero() bool {
	return s.Doc == NoDoc && s.Start == (LineCol{}) && s.End == (LineCol{})
}

// Before orders spans by document, then start line and column.
func (s Span) Before(other Span) bool {
	if s.Doc != other.Doc {
		return s.Doc < other.Doc
	}
	if s.Start.Line != other.Start.Line {
		return s.Start.Line < other.Start.Line
	}
	return s.Start.Col < other.Start.Col
}

// Cover extends s to include other when both live in the same document.
func (s Span) Cover(other Span) Span {
	if s.Doc != other.Doc {
		return s
	}
	if other.Before(s) {
		s.Start = other.Start
	}
	if s.End.Line < other.End.Line || (s.End.Line == other.End.Line && s.End.Col < other.End.Col) {
		s.End = other.End
	}
	return s
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d:%d-%d:%d", s.Doc, s.Start.Line, s.Start.Col, s.End.Line, s.End.Col)
}
