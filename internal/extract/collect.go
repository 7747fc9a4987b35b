package extract

import "path/filepath"

// headerKinds are the declarations a header contributes to its symbol set.
var headerKinds = map[Kind]bool{
	KindStruct:   true,
	KindEnum:     true,
	KindTypedef:  true,
	KindFunction: true,
	KindMacro:    true,
	KindField:    true,
}

// opaqueKinds are not descended into when collecting header symbols.
var opaqueKinds = map[Kind]bool{
	KindStruct:   true,
	KindUnion:    true,
	KindFunction: true,
}

// symbolSet keeps names in order of first insertion.
type symbolSet struct {
	seen  map[string]struct{}
	names []string
}

func newSymbolSet() *symbolSet {
	return &symbolSet{seen: make(map[string]struct{})}
}

func (s *symbolSet) add(name string) {
	if name == "" {
		return
	}
	if _, ok := s.seen[name]; ok {
		return
	}
	s.seen[name] = struct{}{}
	s.names = append(s.names, name)
}

// sameFile reports whether a node read from nodeFile belongs to target. Files are
// matched by base name.
func sameFile(nodeFile, target string) bool {
	return nodeFile != "" && filepath.Base(nodeFile) == filepath.Base(target)
}

// CollectUnit returns every name mentioned in the translation unit rooted at root
// whose node was read from file, plus the root's own name. Nodes read from other
// files are not kept, but their children are still visited. Include directives
// are not symbols.
func CollectUnit(root *Node, file string) []string {
	set := newSymbolSet()
	root.Walk(func(n *Node, depth int) bool {
		if n.Kind == KindInclusion {
			return true
		}
		if depth == 0 || sameFile(n.File, file) {
			set.add(n.Name)
		}
		return true
	})
	return set.names
}

// CollectHeader returns the names of the structs, enums, typedefs, functions,
// macros and fields declared in header. Struct, union and function bodies are
// not descended into.
func CollectHeader(root *Node, header string) []string {
	set := newSymbolSet()
	root.Walk(func(n *Node, depth int) bool {
		if headerKinds[n.Kind] && sameFile(n.File, header) {
			set.add(n.Name)
		}
		return !opaqueKinds[n.Kind]
	})
	return set.names
}
