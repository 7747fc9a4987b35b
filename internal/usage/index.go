// Package usage builds and stores the symbol usage index: for every symbol, the
// set of translation units that mention it.
package usage

import (
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// Index maps symbols to the translation units that mention them. Units are
// numbered in the order they were first added and each symbol's units are kept
// as a roaring bitmap over those numbers. The zero value is not usable; call
// NewIndex.
type Index struct {
	units    []string
	ordinal  map[string]uint32
	postings map[string]*roaring.Bitmap
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		ordinal:  make(map[string]uint32),
		postings: make(map[string]*roaring.Bitmap),
	}
}

func (ix *Index) unit(id string) uint32 {
	if ord, ok := ix.ordinal[id]; ok {
		return ord
	}
	ord := uint32(len(ix.units))
	ix.units = append(ix.units, id)
	ix.ordinal[id] = ord
	return ord
}

// Add records that unit mentions each of symbols. Adding the same pair again has
// no effect, so units that appear twice merge into one.
func (ix *Index) Add(unit string, symbols []string) {
	ord := ix.unit(unit)
	for _, sym := range symbols {
		if sym == "" {
			continue
		}
		bm, ok := ix.postings[sym]
		if !ok {
			bm = roaring.New()
			ix.postings[sym] = bm
		}
		bm.Add(ord)
	}
}

// Has reports whether symbol is mentioned by at least one unit.
func (ix *Index) Has(symbol string) bool {
	_, ok := ix.postings[symbol]
	return ok
}

// Units returns the units that mention symbol, in the order the units were added.
func (ix *Index) Units(symbol string) []string {
	bm, ok := ix.postings[symbol]
	if !ok {
		return nil
	}
	out := make([]string, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, ix.units[it.Next()])
	}
	return out
}

// UnitFrequency returns how many units mention symbol.
func (ix *Index) UnitFrequency(symbol string) int {
	bm, ok := ix.postings[symbol]
	if !ok {
		return 0
	}
	return int(bm.GetCardinality())
}

// CoOccurrence returns the number of units that mention both a and b.
func (ix *Index) CoOccurrence(a, b string) int {
	ba, ok := ix.postings[a]
	if !ok {
		return 0
	}
	bb, ok := ix.postings[b]
	if !ok {
		return 0
	}
	return int(ba.AndCardinality(bb))
}

// Symbols returns every indexed symbol, sorted.
func (ix *Index) Symbols() []string {
	out := make([]string, 0, len(ix.postings))
	for sym := range ix.postings {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// UnitIDs returns every unit in the order it was added.
func (ix *Index) UnitIDs() []string {
	return append([]string(nil), ix.units...)
}

// SymbolCount returns the number of indexed symbols.
func (ix *Index) SymbolCount() int {
	return len(ix.postings)
}

// UnitCount returns the number of units.
func (ix *Index) UnitCount() int {
	return len(ix.units)
}

// Postings returns the number of (symbol, unit) pairs.
func (ix *Index) Postings() int {
	total := uint64(0)
	for _, bm := range ix.postings {
		total += bm.GetCardinality()
	}
	return int(total)
}

// Equal reports whether both indexes map every symbol to the same set of units.
// Unit numbering is not compared.
func (ix *Index) Equal(other *Index) bool {
	if len(ix.postings) != len(other.postings) {
		return false
	}
	for sym, bm := range ix.postings {
		obm, ok := other.postings[sym]
		if !ok || bm.GetCardinality() != obm.GetCardinality() {
			return false
		}
		it := bm.Iterator()
		for it.HasNext() {
			ord, ok := other.ordinal[ix.units[it.Next()]]
			if !ok || !obm.Contains(ord) {
				return false
			}
		}
	}
	return true
}

// Bitmap returns a copy of symbol's posting list over unit numbers, or nil.
func (ix *Index) Bitmap(symbol string) *roaring.Bitmap {
	bm, ok := ix.postings[symbol]
	if !ok {
		return nil
	}
	return bm.Clone()
}

// Restore rebuilds an index from its unit ids, in numbering order, and one
// posting bitmap per symbol over those numbers. The bitmaps are owned by the
// returned index.
func Restore(units []string, postings map[string]*roaring.Bitmap) (*Index, error) {
	ix := NewIndex()
	for _, u := range units {
		if _, dup := ix.ordinal[u]; dup {
			return nil, fmt.Errorf("duplicate unit %q", u)
		}
		ix.unit(u)
	}
	for sym, bm := range postings {
		if sym == "" || bm == nil || bm.IsEmpty() {
			continue
		}
		if top := bm.Maximum(); int(top) >= len(units) {
			return nil, fmt.Errorf("symbol %q refers to unit %d of %d", sym, top, len(units))
		}
		ix.postings[sym] = bm
	}
	return ix, nil
}
