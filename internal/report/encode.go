package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
)

// Format selects the report encoding.
type Format uint8

const (
	FormatJSON Format = iota
	FormatMsgpack
)

// FormatFor picks msgpack for ".mp" paths and JSON otherwise.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".mp") {
		return FormatMsgpack
	}
	return FormatJSON
}

// Encode writes r to w.
func Encode(w io.Writer, r *Report, format Format) error {
	switch format {
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(r)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	return fmt.Errorf("unknown report format %d", format)
}

// Decode reads a report written by Encode and checks its schema.
func Decode(rd io.Reader, format Format) (*Report, error) {
	var r Report
	var err error
	switch format {
	case FormatMsgpack:
		err = msgpack.NewDecoder(rd).Decode(&r)
	case FormatJSON:
		err = json.NewDecoder(rd).Decode(&r)
	default:
		return nil, fmt.Errorf("unknown report format %d", format)
	}
	if err != nil {
		return nil, err
	}
	if r.Schema != SchemaVersion {
		return nil, fmt.Errorf("report schema %d, want %d", r.Schema, SchemaVersion)
	}
	return &r, nil
}

// WriteFile encodes r by the extension of path. The file is replaced
// atomically so a reader never sees a partial report.
func WriteFile(path string, r *Report) (err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".report-*")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()
	if err = Encode(f, r, FormatFor(path)); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode report: %w", err)
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// ReadFile decodes a report written by WriteFile.
func ReadFile(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f, FormatFor(path))
}
