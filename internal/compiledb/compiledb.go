// Package compiledb reads clang compilation databases (compile_commands.json) and
// turns their entries into translation unit records.
package compiledb

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"hsplit/internal/paths"
)

// Entry is one object of a compilation database.
type Entry struct {
	File      string   `json:"file"`
	Directory string   `json:"directory"`
	Command   string   `json:"command,omitempty"`
	Arguments []string `json:"arguments,omitempty"`
	Output    string   `json:"output,omitempty"`
}

// Record is a translation unit ready for extraction.
type Record struct {
	// Index is the entry's position in the database.
	Index            int
	SourceFile       string
	WorkingDirectory string
	Flags            []string
}

// EntryError describes a malformed database entry.
type EntryError struct {
	Index  int    `json:"index" yaml:"index"`
	File   string `json:"file,omitempty" yaml:"file,omitempty"`
	Reason string `json:"reason" yaml:"reason"`
}

func (e *EntryError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("entry %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("entry %d (%s): %s", e.Index, e.File, e.Reason)
}

// Load reads and decodes the database at path.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a compilation database.
func Parse(data []byte) ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode compilation database: %w", err)
	}
	return entries, nil
}

// Validate checks the fields every entry needs.
func (e Entry) Validate() error {
	switch {
	case strings.TrimSpace(e.File) == "":
		return fmt.Errorf("missing file")
	case strings.TrimSpace(e.Directory) == "":
		return fmt.Errorf("missing directory")
	case strings.TrimSpace(e.Command) == "" && len(e.Arguments) == 0:
		return fmt.Errorf("missing command and arguments")
	}
	return nil
}

// SourcePath returns the entry's file made absolute against its directory.
func (e Entry) SourcePath() string {
	return paths.Resolve(e.Directory, e.File)
}

// Records converts entries into records. Malformed entries are reported and skipped.
func Records(entries []Entry, mode FlagMode) ([]Record, []EntryError) {
	records := make([]Record, 0, len(entries))
	var invalid []EntryError
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			invalid = append(invalid, EntryError{Index: i, File: e.File, Reason: err.Error()})
			continue
		}
		flags, err := DeriveFlags(e, mode)
		if err != nil {
			invalid = append(invalid, EntryError{Index: i, File: e.File, Reason: err.Error()})
			continue
		}
		records = append(records, Record{
			Index:            i,
			SourceFile:       e.SourcePath(),
			WorkingDirectory: e.Directory,
			Flags:            flags,
		})
	}
	return records, invalid
}
