package fixture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"propweave/internal/diag"
	"propweave/internal/meta"
	"propweave/internal/resolve"
	"propweave/internal/source"
)

// Error is a fixture problem at a file line.
type Error struct {
	Path string
	Line int
	Code diag.Code
	Msg  string
	Span source.Span
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

// Options control how fixture text is interpreted.
type Options struct {
	// CoreScope is the module the type keywords (string, int32, ...) live in.
	CoreScope string
}

// Set is a loaded fixture: the module to weave followed by its references.
type Set struct {
	Path    string
	Docs    *source.DocumentSet
	Modules []*meta.Module
}

// Target is the module to weave.
func (s *Set) Target() *meta.Module {
	return s.Modules[0]
}

// References serves every module but the target.
func (s *Set) References() *resolve.ModuleSet {
	return resolve.NewModuleSet(s.Modules[1:]...)
}

// Load reads and builds the fixture at path. The format follows the file
// extension: .toml, .yaml or .yml.
func Load(path string, opts Options) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, data, opts)
}

// Parse builds a fixture from data; path picks the format and names the
// document spans point at.
func Parse(path string, data []byte, opts Options) (*Set, error) {
	var file File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.Decode(string(data), &file)
		if err != nil {
			return nil, decodeError(path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			sort.Strings(keys)
			return nil, &Error{Path: path, Code: diag.FixSyntax, Msg: "unknown keys: " + strings.Join(keys, ", ")}
		}
		newLocator(data).locate(&file)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(strings.NewReader(string(data)))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil {
			return nil, decodeError(path, err)
		}
	default:
		return nil, fmt.Errorf("%s: unsupported fixture format %q", path, ext)
	}
	if len(file.Modules) == 0 {
		return nil, &Error{Path: path, Code: diag.FixSyntax, Msg: "fixture declares no modules"}
	}
	if opts.CoreScope == "" {
		opts.CoreScope = "System.Runtime"
	}

	docs := source.NewDocumentSet()
	b := &builder{path: path, docs: docs, doc: docs.Add(path), opts: opts}
	set := &Set{Path: path, Docs: docs}
	seen := make(map[string]bool)
	for i := range file.Modules {
		spec := &file.Modules[i]
		if seen[spec.Name] {
			return nil, b.errorf(spec.Line, diag.FixSyntax, "module %q declared twice", spec.Name)
		}
		seen[spec.Name] = true
		mod, err := b.module(spec)
		if err != nil {
			return nil, err
		}
		set.Modules = append(set.Modules, mod)
	}
	return set, nil
}

func decodeError(path string, err error) error {
	var pe toml.ParseError
	if errors.As(err, &pe) {
		return &Error{Path: path, Line: pe.Position.Line, Code: diag.FixSyntax, Msg: pe.Message}
	}
	return &Error{Path: path, Code: diag.FixSyntax, Msg: err.Error()}
}
