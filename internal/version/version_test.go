package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestString(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	defer func() { Version, GitCommit, BuildDate = origVersion, origCommit, origDate }()

	tests := []struct {
		version, commit, date string
		want                  string
	}{
		{"1.2.3", "", "", "propweave 1.2.3"},
		{"1.2.3", "abc123def456789", "", "propweave 1.2.3 (abc123def456)"},
		{"1.2.3", "abc", "2026-01-15T10:30:00Z", "propweave 1.2.3 (abc) built 2026-01-15T10:30:00Z"},
	}
	for _, tt := range tests {
		Version, GitCommit, BuildDate = tt.version, tt.commit, tt.date
		if got := String(); got != tt.want {
			t.Fatalf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestColoredKeepsText(t *testing.T) {
	origVersion, origNoColor := Version, color.NoColor
	defer func() { Version, color.NoColor = origVersion, origNoColor }()
	color.NoColor = true

	for _, v := range []string{"0.1.0-dev", "2.10.7", "dev"} {
		Version = v
		if got := Colored(); got != v {
			t.Fatalf("Colored() = %q, want %q", got, v)
		}
	}
}
