// Package cluster implements agglomerative hierarchical clustering over a
// distance.Matrix and flat cuts of the resulting dendrogram.
package cluster

import (
	"fmt"
	"math"
	"strings"
)

// Linkage selects how the distance between two clusters is derived from
// the distances between their members.
type Linkage string

const (
	Single   Linkage = "single"
	Complete Linkage = "complete"
	Average  Linkage = "average"
	Weighted Linkage = "weighted"
	Centroid Linkage = "centroid"
	Median   Linkage = "median"
	Ward     Linkage = "ward"
)

// AllLinkages lists every supported method.
var AllLinkages = []Linkage{Single, Complete, Average, Weighted, Centroid, Median, Ward}

// ParseLinkage validates a method name (case-insensitive).
func ParseLinkage(s string) (Linkage, error) {
	l := Linkage(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("unknown linkage method %q (want one of %s)", s, joinLinkages())
	}
	return l, nil
}

// Valid reports whether l is one of AllLinkages.
func (l Linkage) Valid() bool {
	for _, known := range AllLinkages {
		if l == known {
			return true
		}
	}
	return false
}

// Monotonic reports whether merge distances never decrease for this method.
// Centroid and median linkage can produce inversions.
func (l Linkage) Monotonic() bool {
	return l != Centroid && l != Median
}

func (l Linkage) String() string {
	return string(l)
}

// update returns the distance from the cluster formed by merging s and t to
// another cluster v (Lance–Williams form).
//
//	dsv, dtv: distances of s and t to v
//	dst:      distance between s and t
//	ns, nt, nv: cluster sizes
func (l Linkage) update(dsv, dtv, dst float64, ns, nt, nv int) float64 {
	fs, ft, fv := float64(ns), float64(nt), float64(nv)
	switch l {
	case Single:
		return math.Min(dsv, dtv)
	case Complete:
		return math.Max(dsv, dtv)
	case Average:
		return (fs*dsv + ft*dtv) / (fs + ft)
	case Weighted:
		return (dsv + dtv) / 2
	case Centroid:
		n := fs + ft
		return sqrtClamped((fs*dsv*dsv+ft*dtv*dtv)/n - fs*ft*dst*dst/(n*n))
	case Median:
		return sqrtClamped(dsv*dsv/2 + dtv*dtv/2 - dst*dst/4)
	case Ward:
		total := fs + ft + fv
		return sqrtClamped(((fv+fs)*dsv*dsv + (fv+ft)*dtv*dtv - fv*dst*dst) / total)
	default:
		panic("cluster: unhandled linkage " + string(l))
	}
}

func sqrtClamped(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return math.Sqrt(x)
}

func joinLinkages() string {
	names := make([]string, len(AllLinkages))
	for i, l := range AllLinkages {
		names[i] = string(l)
	}
	return strings.Join(names, ", ")
}
