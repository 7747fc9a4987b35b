package extract

import (
	"reflect"
	"testing"
)

func n(kind Kind, name, file string, children ...*Node) *Node {
	return &Node{Kind: kind, Name: name, File: file, Children: children}
}

func TestCollectUnit(t *testing.T) {
	const unit = "/src/net/socket.c"
	const header = "/src/include/socket.h"

	root := n(KindTranslationUnit, "net/socket.c", unit,
		n(KindInclusion, `"socket.h"`, unit,
			n(KindStruct, "sock", header,
				n(KindField, "fd", header),
			),
			n(KindFunction, "sock_open", header,
				// read from the unit under a node that is not: still visited
				n(KindReference, "inline_use", unit),
			),
		),
		n(KindFunction, "main", unit,
			n(KindReference, "sock_open", unit),
			n(KindReference, "sock", unit),
			n(KindReference, "sock_open", unit),
			n(KindOther, "", unit),
		),
		n(KindVariable, "counter", "/elsewhere/net/socket.c"),
	)

	got := CollectUnit(root, unit)
	want := []string{"net/socket.c", "inline_use", "main", "sock_open", "sock", "counter"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CollectUnit = %v, want %v", got, want)
	}
}

func TestCollectUnit_RootOnly(t *testing.T) {
	root := n(KindTranslationUnit, "empty.c", "/p/empty.c")
	got := CollectUnit(root, "/p/empty.c")
	if !reflect.DeepEqual(got, []string{"empty.c"}) {
		t.Errorf("CollectUnit = %v, want [empty.c]", got)
	}
}

func TestCollectHeader(t *testing.T) {
	const header = "/src/include/list.h"
	const other = "/src/include/types.h"

	root := n(KindTranslationUnit, header, header,
		n(KindMacro, "LIST_MAX", header),
		n(KindStruct, "list_node", header,
			n(KindField, "next", header),
		),
		n(KindTypedef, "list_t", header,
			n(KindStruct, "list", header,
				n(KindField, "head", header),
			),
		),
		n(KindFunction, "list_push", header,
			n(KindParameter, "l", header),
			n(KindReference, "list_t", header),
		),
		n(KindEnum, "list_flags", header,
			n(KindEnumConstant, "LIST_SORTED", header),
		),
		n(KindUnion, "list_value", header,
			n(KindField, "as_int", header),
		),
		n(KindVariable, "list_default", header,
			n(KindField, "embedded", header),
		),
		n(KindFunction, "helper", other),
		n(KindMacro, "LIST_MAX", header),
	)

	got := CollectHeader(root, header)
	want := []string{"LIST_MAX", "list_node", "list_t", "list", "list_push", "list_flags", "embedded"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CollectHeader = %v, want %v", got, want)
	}
}

func TestCollectHeader_NoDeclarations(t *testing.T) {
	root := n(KindTranslationUnit, "/p/empty.h", "/p/empty.h",
		n(KindVariable, "x", "/p/empty.h"),
		n(KindReference, "y", "/p/empty.h"),
	)
	if got := CollectHeader(root, "/p/empty.h"); len(got) != 0 {
		t.Errorf("CollectHeader = %v, want empty", got)
	}
}

func TestCollect_Deterministic(t *testing.T) {
	root := n(KindTranslationUnit, "a.c", "/p/a.c",
		n(KindReference, "z", "/p/a.c"),
		n(KindReference, "a", "/p/a.c"),
		n(KindReference, "m", "/p/a.c"),
	)
	first := CollectUnit(root, "/p/a.c")
	for i := 0; i < 5; i++ {
		if got := CollectUnit(root, "/p/a.c"); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d gave %v, first run gave %v", i, got, first)
		}
	}
}

func TestNode_WalkAndCount(t *testing.T) {
	root := n(KindTranslationUnit, "r", "f",
		n(KindStruct, "s", "f", n(KindField, "x", "f")),
		n(KindMacro, "M", "f"),
	)
	if root.Count() != 4 {
		t.Errorf("Count() = %d, want 4", root.Count())
	}

	var depths []int
	root.Walk(func(node *Node, depth int) bool {
		depths = append(depths, depth)
		return node.Kind != KindStruct
	})
	if !reflect.DeepEqual(depths, []int{0, 1, 1}) {
		t.Errorf("depths = %v, want [0 1 1]", depths)
	}
}
