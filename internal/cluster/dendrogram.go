package cluster

import (
	"fmt"
	"sort"
)

// Merge is one agglomeration step. Leaves have ids 0..n-1; the merge at step s
// creates cluster id n+s.
type Merge struct {
	Left     int     `json:"left" yaml:"left"`
	Right    int     `json:"right" yaml:"right"`
	Distance float64 `json:"distance" yaml:"distance"`
	Size     int     `json:"size" yaml:"size"`
	ID       int     `json:"id" yaml:"id"`
}

// Dendrogram is the full merge tree over Labels, n-1 merges in the order they happened.
type Dendrogram struct {
	Labels []string `json:"labels" yaml:"labels"`
	Method Linkage  `json:"method" yaml:"method"`
	Merges []Merge  `json:"merges" yaml:"merges"`
}

// Len returns the number of leaves.
func (d *Dendrogram) Len() int {
	return len(d.Labels)
}

// Cut undoes the top k-1 merges and returns, for each leaf, a cluster number in [1, k].
// Clusters are numbered in order of their smallest leaf.
func (d *Dendrogram) Cut(k int) ([]int, error) {
	n := d.Len()
	if k < 1 || k > n {
		return nil, fmt.Errorf("%w: k=%d with %d symbols", ErrInvalidClusterCount, k, n)
	}
	if len(d.Merges) != n-1 {
		return nil, fmt.Errorf("dendrogram has %d merges for %d leaves", len(d.Merges), n)
	}

	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}

	// leafOf maps any cluster id to one of its leaves.
	leafOf := make([]int, 2*n-1)
	for i := 0; i < n; i++ {
		leafOf[i] = i
	}
	for s := 0; s < n-1; s++ {
		m := d.Merges[s]
		leafOf[n+s] = leafOf[m.Left]
		if s >= n-k {
			continue
		}
		a, b := find(leafOf[m.Left]), find(leafOf[m.Right])
		if a != b {
			if b < a {
				a, b = b, a
			}
			parent[b] = a
		}
	}

	labels := make([]int, n)
	number := make(map[int]int, k)
	for i := 0; i < n; i++ {
		root := find(i)
		id, ok := number[root]
		if !ok {
			id = len(number) + 1
			number[root] = id
		}
		labels[i] = id
	}
	return labels, nil
}

// Members returns the leaf indices under cluster id, ascending.
func (d *Dendrogram) Members(id int) []int {
	n := d.Len()
	if id < n {
		return []int{id}
	}
	var out []int
	stack := []int{id}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if c < n {
			out = append(out, c)
			continue
		}
		m := d.Merges[c-n]
		stack = append(stack, m.Right, m.Left)
	}
	sort.Ints(out)
	return out
}

// LinkageMatrix returns SciPy's Z matrix: one row [idx1, idx2, distance, size]
// per merge with idx1 < idx2, so the merge list can be plotted by scipy's dendrogram.
func (d *Dendrogram) LinkageMatrix() [][4]float64 {
	z := make([][4]float64, len(d.Merges))
	for i, m := range d.Merges {
		a, b := m.Left, m.Right
		if b < a {
			a, b = b, a
		}
		z[i] = [4]float64{float64(a), float64(b), m.Distance, float64(m.Size)}
	}
	return z
}
