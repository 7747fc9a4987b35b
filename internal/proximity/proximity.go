// Package proximity counts, for the symbols declared by one header, how many
// translation units reference each pair of them together.
package proximity

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// Pair is an unordered pair of distinct symbols, stored with A < B.
type Pair struct {
	A string
	B string
}

// NewPair returns the canonical pair for a and b.
func NewPair(a, b string) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// Map holds co-occurrence counts. Only positive counts are stored; a missing
// pair means the symbols never appear in the same translation unit.
type Map map[Pair]int

// Get returns the count for {a, b}. It is symmetric and zero for a == b.
func (m Map) Get(a, b string) int {
	if a == b {
		return 0
	}
	return m[NewPair(a, b)]
}

// Set records count for {a, b}. Non-positive counts and self pairs are not stored.
func (m Map) Set(a, b string, count int) {
	if a == b {
		return
	}
	p := NewPair(a, b)
	if count <= 0 {
		delete(m, p)
		return
	}
	m[p] = count
}

// Entry is one row of the proximity listing.
type Entry struct {
	A     string `json:"a" yaml:"a"`
	B     string `json:"b" yaml:"b"`
	Count int    `json:"count" yaml:"count"`
}

// Entries lists the map by count descending, then by symbol names.
func (m Map) Entries() []Entry {
	out := make([]Entry, 0, len(m))
	for p, c := range m {
		out = append(out, Entry{A: p.A, B: p.B, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// Lookup is the view of the usage index the computation needs.
type Lookup interface {
	Has(symbol string) bool
	CoOccurrence(a, b string) int
}

// Compute counts shared translation units for every pair drawn from symbols.
// Symbols the index has never seen take part in no pair.
func Compute(symbols []string, ix Lookup) Map {
	present := make([]string, 0, len(symbols))
	seen := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		if seen[s] || !ix.Has(s) {
			continue
		}
		seen[s] = true
		present = append(present, s)
	}

	m := make(Map)
	for i := 0; i < len(present); i++ {
		for j := i + 1; j < len(present); j++ {
			if c := ix.CoOccurrence(present[i], present[j]); c > 0 {
				m[NewPair(present[i], present[j])] = c
			}
		}
	}
	return m
}

// HeaderExtractor returns the symbols declared locally by a header, in a stable order.
type HeaderExtractor interface {
	ExtractHeader(ctx context.Context, path string) ([]string, error)
}

// Result is the header's symbol list together with its proximity map.
type Result struct {
	Header  string
	Symbols []string
	Map     Map
	// Unused lists header symbols that no translation unit references.
	Unused []string
}

// Computer ties header extraction to the proximity computation.
type Computer struct {
	extractor HeaderExtractor
	logger    *slog.Logger
}

// NewComputer creates a Computer.
func NewComputer(extractor HeaderExtractor, logger *slog.Logger) *Computer {
	return &Computer{extractor: extractor, logger: logger}
}

// Compute extracts header's own symbols and counts their pairwise co-occurrence in ix.
func (c *Computer) Compute(ctx context.Context, header string, ix Lookup) (*Result, error) {
	symbols, err := c.extractor.ExtractHeader(ctx, header)
	if err != nil {
		return nil, fmt.Errorf("extract header symbols: %w", err)
	}

	res := &Result{
		Header:  header,
		Symbols: symbols,
		Map:     Compute(symbols, ix),
	}
	for _, s := range symbols {
		if !ix.Has(s) {
			res.Unused = append(res.Unused, s)
		}
	}

	c.logger.Debug("Computed proximity",
		"header", header,
		"symbols", len(symbols),
		"pairs", len(res.Map),
		"unused", len(res.Unused),
	)
	return res, nil
}
