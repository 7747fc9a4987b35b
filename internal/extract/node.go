// Package extract reads C sources into declaration trees and collects the symbol
// names a translation unit mentions or a header declares.
package extract

// Kind classifies a declaration tree node.
type Kind string

const (
	KindTranslationUnit Kind = "translation_unit"
	KindInclusion       Kind = "inclusion"
	KindStruct          Kind = "struct"
	KindUnion           Kind = "union"
	KindEnum            Kind = "enum"
	KindEnumConstant    Kind = "enum_constant"
	KindTypedef         Kind = "typedef"
	KindFunction        Kind = "function"
	KindMacro           Kind = "macro"
	KindField           Kind = "field"
	KindVariable        Kind = "variable"
	KindParameter       Kind = "parameter"
	KindReference       Kind = "reference"
	KindOther           Kind = "other"
)

// Node is one element of a declaration tree. File is the absolute path of the
// file the node was read from. Trees are shared between goroutines once built
// and must not be modified.
type Node struct {
	Kind     Kind
	Name     string
	File     string
	Children []*Node
}

// Walk calls fn for n and its descendants in document order, passing the depth
// (0 for n). Children are skipped when fn returns false.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// Count returns the number of nodes in the tree rooted at n.
func (n *Node) Count() int {
	total := 0
	n.Walk(func(*Node, int) bool {
		total++
		return true
	})
	return total
}
