package cluster

import (
	"errors"
	"fmt"

	"hsplit/internal/distance"
)

var (
	// ErrNothingToPartition is returned for fewer than two symbols.
	ErrNothingToPartition = errors.New("nothing to partition")
	// ErrInvalidClusterCount is returned when k is outside [1, n].
	ErrInvalidClusterCount = errors.New("invalid cluster count")
)

// Build agglomerates the leaves of m bottom-up and returns the complete dendrogram.
// m is not modified.
//
// At each step the closest pair of active clusters merges. Ties go to the pair
// with the lowest (smaller, larger) representative, where a cluster's
// representative is its smallest leaf index.
func Build(m *distance.Matrix, method Linkage) (*Dendrogram, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("unknown linkage method %q", method)
	}
	n := m.Len()
	dg := &Dendrogram{
		Labels: append([]string(nil), m.Labels...),
		Method: method,
		Merges: make([]Merge, 0, max(n-1, 0)),
	}
	if n < 2 {
		return dg, nil
	}

	// Slot i holds the cluster whose representative is leaf i, so scanning
	// slots in ascending order yields the tie-break order directly.
	d := m.Rows()
	active := make([]bool, n)
	size := make([]int, n)
	id := make([]int, n)
	for i := 0; i < n; i++ {
		active[i] = true
		size[i] = 1
		id[i] = i
	}

	for step := 0; step < n-1; step++ {
		a, b := -1, -1
		best := 0.0
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if !active[j] {
					continue
				}
				if a < 0 || d[i][j] < best {
					a, b, best = i, j, d[i][j]
				}
			}
		}

		dg.Merges = append(dg.Merges, Merge{
			Left:     id[a],
			Right:    id[b],
			Distance: best,
			Size:     size[a] + size[b],
			ID:       n + step,
		})

		for k := 0; k < n; k++ {
			if !active[k] || k == a || k == b {
				continue
			}
			nd := method.update(d[a][k], d[b][k], best, size[a], size[b], size[k])
			d[a][k] = nd
			d[k][a] = nd
		}
		active[b] = false
		size[a] += size[b]
		id[a] = n + step
	}
	return dg, nil
}

// Result is a dendrogram together with its flat cut.
type Result struct {
	Dendrogram *Dendrogram
	K          int
	// Labels[i] is the cluster number of Dendrogram.Labels[i].
	Labels     []int
	Assignment map[string]int
	// Groups[c-1] lists the symbols of cluster c in matrix order.
	Groups [][]string
}

// Run clusters m with method and cuts the tree into exactly k clusters.
func Run(m *distance.Matrix, method Linkage, k int) (*Result, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("unknown linkage method %q", method)
	}
	n := m.Len()
	if n < 2 {
		return nil, fmt.Errorf("%w: %d symbol(s)", ErrNothingToPartition, n)
	}
	if k < 1 || k > n {
		return nil, fmt.Errorf("%w: k=%d with %d symbols", ErrInvalidClusterCount, k, n)
	}
	if err := m.CheckDissimilarity(); err != nil {
		return nil, fmt.Errorf("distance matrix: %w", err)
	}

	dg, err := Build(m, method)
	if err != nil {
		return nil, err
	}
	labels, err := dg.Cut(k)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Dendrogram: dg,
		K:          k,
		Labels:     labels,
		Assignment: make(map[string]int, n),
		Groups:     make([][]string, k),
	}
	for i, c := range labels {
		sym := dg.Labels[i]
		res.Assignment[sym] = c
		res.Groups[c-1] = append(res.Groups[c-1], sym)
	}
	return res, nil
}
