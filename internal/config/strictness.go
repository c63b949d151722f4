package config

import "fmt"

// Strictness controls what happens when a validation call has no exact
// overload for the checked type.
type Strictness string

const (
	// Lenient binds the default overload and reports an info.
	Lenient Strictness = "lenient"
	// Warn binds the default overload and reports a warning.
	Warn Strictness = "warn"
	// Strict reports an error and leaves the call as written.
	Strict Strictness = "strict"
)

func (s Strictness) valid() bool {
	switch s {
	case Lenient, Warn, Strict:
		return true
	}
	return false
}

// ParseStrictness parses a flag or config value.
func ParseStrictness(v string) (Strictness, error) {
	s := Strictness(v)
	if v == "" {
		return Lenient, nil
	}
	if !s.valid() {
		return "", fmt.Errorf("unknown overload fallback %q (want lenient, warn or strict)", v)
	}
	return s, nil
}

func (s Strictness) String() string {
	return string(s)
}
