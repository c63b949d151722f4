package diagfmt

// PathMode specifies how document paths are displayed.
type PathMode uint8

const (
	// PathModeAuto renders paths relative to the document set's base dir when possible.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color    bool
	PathMode PathMode
	Width    int // wrap messages at this many columns, 0 - no wrapping
	// Verbose also prints info diagnostics.
	Verbose   bool
	ShowNotes bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	PathMode     PathMode
	Max          int // truncate output, not the Bag
	IncludeNotes bool
}
