//go:build cgo

package extract

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
)

// IsAvailable reports whether C extraction is compiled in.
func IsAvailable() bool {
	return true
}

func newParser() (parseFunc, error) {
	lang := c.GetLanguage()
	return func(ctx context.Context, path string, src []byte) (*Node, error) {
		// sitter.Parser is not safe for concurrent use; one per file.
		parser := sitter.NewParser()
		parser.SetLanguage(lang)
		tree, err := parser.ParseCtx(ctx, nil, src)
		if err != nil {
			return nil, fmt.Errorf("parse error: %w", err)
		}
		conv := &converter{src: src, file: path}
		return &Node{
			Kind:     KindTranslationUnit,
			Name:     path,
			File:     path,
			Children: conv.children(tree.RootNode()),
		}, nil
	}, nil
}

// standaloneParents are the node types under which a body-less struct, union or
// enum specifier is a forward declaration rather than a use of the tag.
var standaloneParents = map[string]bool{
	"translation_unit":      true,
	"declaration_list":      true,
	"compound_statement":    true,
	"linkage_specification": true,
	"preproc_ifdef":         true,
	"preproc_if":            true,
	"preproc_else":          true,
	"preproc_elif":          true,
}

var tagKinds = map[string]Kind{
	"struct_specifier": KindStruct,
	"union_specifier":  KindUnion,
	"enum_specifier":   KindEnum,
}

// converter turns one tree-sitter C syntax tree into a declaration tree.
type converter struct {
	src  []byte
	file string
	// guard is the macro tested by the enclosing #ifndef, if any.
	guard string
}

func (c *converter) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(c.src)
}

func (c *converter) children(n *sitter.Node) []*Node {
	var out []*Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		out = append(out, c.convert(n.NamedChild(i), n)...)
	}
	return out
}

func (c *converter) node(kind Kind, name string, n *sitter.Node) *Node {
	out := &Node{Kind: kind, Name: name, File: c.file}
	if n != nil {
		out.Children = c.children(n)
	}
	return out
}

// convert returns the declaration nodes for n. Syntax without a declaration
// meaning is flattened into its converted children.
func (c *converter) convert(n *sitter.Node, parent *sitter.Node) []*Node {
	switch n.Type() {
	case "comment":
		return nil

	case "function_definition":
		return []*Node{c.node(KindFunction, declaratorName(n.ChildByFieldName("declarator"), c.src), n)}

	case "declaration":
		return c.declaration(n)

	case "struct_specifier", "union_specifier", "enum_specifier":
		return []*Node{c.tag(n, parent)}

	case "type_definition":
		return []*Node{c.node(KindTypedef, declaratorName(n.ChildByFieldName("declarator"), c.src), n)}

	case "preproc_def", "preproc_function_def":
		name := c.text(n.ChildByFieldName("name"))
		if name == c.guard && n.ChildByFieldName("value") == nil && n.Type() == "preproc_def" {
			c.guard = ""
			return nil
		}
		return []*Node{c.node(KindMacro, name, nil)}

	case "preproc_ifdef":
		saved := c.guard
		c.guard = ""
		if n.ChildCount() > 0 && n.Child(0).Type() == "#ifndef" {
			c.guard = c.text(n.ChildByFieldName("name"))
		}
		out := c.children(n)
		c.guard = saved
		return out

	case "preproc_include":
		return []*Node{{Kind: KindInclusion, Name: c.text(n.ChildByFieldName("path")), File: c.file}}

	case "field_declaration":
		return []*Node{c.node(KindField, declaratorName(n.ChildByFieldName("declarator"), c.src), n)}

	case "enumerator":
		return []*Node{c.node(KindEnumConstant, c.text(n.ChildByFieldName("name")), n)}

	case "parameter_declaration":
		return []*Node{c.node(KindParameter, declaratorName(n.ChildByFieldName("declarator"), c.src), n)}

	case "identifier", "type_identifier", "field_identifier":
		return []*Node{{Kind: KindReference, Name: c.text(n), File: c.file}}
	}
	return c.children(n)
}

// declaration emits one Function or Variable node per declarator. The type
// specifiers are converted once, under the first node.
func (c *converter) declaration(n *sitter.Node) []*Node {
	var shared, out []*Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if !isDeclarator(child) {
			shared = append(shared, c.convert(child, n)...)
			continue
		}
		kind := KindVariable
		if isFunctionDeclarator(child) {
			kind = KindFunction
		}
		out = append(out, &Node{
			Kind:     kind,
			Name:     declaratorName(child, c.src),
			File:     c.file,
			Children: c.convert(child, n),
		})
	}
	if len(out) == 0 {
		return shared
	}
	out[0].Children = append(shared, out[0].Children...)
	return out
}

// tag converts a struct, union or enum specifier. Specifiers with a body and
// standalone forward declarations declare the tag; any other specifier refers to it.
func (c *converter) tag(n *sitter.Node, parent *sitter.Node) *Node {
	nameNode := n.ChildByFieldName("name")
	name := c.text(nameNode)
	body := n.ChildByFieldName("body")
	if body == nil && (parent == nil || !standaloneParents[parent.Type()]) {
		return &Node{Kind: KindReference, Name: name, File: c.file}
	}

	out := &Node{Kind: tagKinds[n.Type()], Name: name, File: c.file}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if nameNode != nil && child.StartByte() == nameNode.StartByte() && child.Type() == nameNode.Type() {
			continue
		}
		out.Children = append(out.Children, c.convert(child, n)...)
	}
	return out
}

func isDeclarator(n *sitter.Node) bool {
	t := n.Type()
	return t == "identifier" || strings.HasSuffix(t, "_declarator")
}

// isFunctionDeclarator reports whether d declares a function, as opposed to a
// variable of function pointer type.
func isFunctionDeclarator(d *sitter.Node) bool {
	for d != nil {
		switch d.Type() {
		case "function_declarator":
			inner := d.ChildByFieldName("declarator")
			return inner != nil && inner.Type() == "identifier"
		case "pointer_declarator":
			d = d.ChildByFieldName("declarator")
		case "attributed_declarator":
			d = d.NamedChild(0)
		default:
			return false
		}
	}
	return false
}

// declaratorName follows a declarator chain down to the declared name.
func declaratorName(n *sitter.Node, src []byte) string {
	for n != nil {
		switch n.Type() {
		case "identifier", "type_identifier", "field_identifier", "primitive_type":
			return n.Content(src)
		}
		if d := n.ChildByFieldName("declarator"); d != nil {
			n = d
			continue
		}
		if n.NamedChildCount() == 0 {
			return ""
		}
		n = n.NamedChild(0)
	}
	return ""
}
