package usage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"hsplit/internal/version"
)

// Meta describes how an index was built.
type Meta struct {
	BuildID     string    `json:"buildId,omitempty" yaml:"buildId,omitempty"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`
	CompileDB   string    `json:"compileDb,omitempty" yaml:"compileDb,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	Marker      string    `json:"marker,omitempty" yaml:"marker,omitempty"`
	FlagMode    string    `json:"flagMode,omitempty" yaml:"flagMode,omitempty"`
	Units       int       `json:"units" yaml:"units"`
	Symbols     int       `json:"symbols" yaml:"symbols"`
	Failed      int       `json:"failed" yaml:"failed"`
}

// document is the on-disk JSON form. Data has the same shape as the index dumps
// of the earlier Python tooling, so those files load unchanged. Units, when
// present, fixes unit numbering.
type document struct {
	Version int                 `json:"version"`
	Meta    *Meta               `json:"meta,omitempty"`
	Units   []string            `json:"units,omitempty"`
	Data    map[string][]string `json:"data"`
}

// Encode writes ix and meta as JSON.
func Encode(w io.Writer, ix *Index, meta Meta) error {
	meta.Units = ix.UnitCount()
	meta.Symbols = ix.SymbolCount()
	doc := document{
		Version: version.IndexFormatVersion,
		Meta:    &meta,
		Units:   ix.UnitIDs(),
		Data:    make(map[string][]string, ix.SymbolCount()),
	}
	for sym := range ix.postings {
		doc.Data[sym] = ix.Units(sym)
	}
	enc := json.NewEncoder(w)
	return enc.Encode(doc)
}

// Decode reads an index written by Encode or by the earlier tooling.
func Decode(r io.Reader) (*Index, Meta, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, Meta{}, fmt.Errorf("decode index: %w", err)
	}
	if doc.Version > version.IndexFormatVersion {
		return nil, Meta{}, fmt.Errorf("index format version %d is newer than supported version %d", doc.Version, version.IndexFormatVersion)
	}
	if doc.Data == nil {
		return nil, Meta{}, fmt.Errorf("decode index: missing data")
	}

	ix := NewIndex()
	for _, u := range doc.Units {
		ix.unit(u)
	}
	symbols := make([]string, 0, len(doc.Data))
	for sym := range doc.Data {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	for _, sym := range symbols {
		for _, u := range doc.Data[sym] {
			ix.Add(u, []string{sym})
		}
	}

	var meta Meta
	if doc.Meta != nil {
		meta = *doc.Meta
	}
	meta.Units = ix.UnitCount()
	meta.Symbols = ix.SymbolCount()
	return ix, meta, nil
}

// IsCompressed reports whether path names a zstd-compressed index.
func IsCompressed(path string) bool {
	return strings.HasSuffix(path, ".zst")
}

// WriteFile writes the index to path, zstd-compressed when path ends in ".zst".
// The file is replaced atomically.
func WriteFile(path string, ix *Index, meta Meta) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".index-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	bw := bufio.NewWriter(tmp)
	var w io.Writer = bw
	var zw *zstd.Encoder
	if IsCompressed(path) {
		zw, err = zstd.NewWriter(bw)
		if err != nil {
			_ = tmp.Close()
			return fmt.Errorf("create zstd writer: %w", err)
		}
		w = zw
	}

	if err := Encode(w, ix, meta); err != nil {
		_ = tmp.Close()
		return err
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("close zstd writer: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ReadFile loads an index written by WriteFile.
func ReadFile(path string) (*Index, Meta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Meta{}, err
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = bufio.NewReader(f)
	if IsCompressed(path) {
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, Meta{}, fmt.Errorf("create zstd reader: %w", err)
		}
		defer zr.Close()
		r = zr
	}
	return Decode(r)
}
