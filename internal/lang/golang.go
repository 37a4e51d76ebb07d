package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/phobologic/declscan/internal/syntax"
)

func init() {
	Languages["go"] = &Language{
		Name:       "go",
		Aliases:    []string{"golang"},
		Extensions: []string{".go"},
		lang:       golang.GetLanguage(),
		visit:      goVisit,
	}
}

// goVisit treats named struct and interface types as class records and
// attaches methods to their receiver type.
func goVisit(w *walker, n *sitter.Node, parent *syntax.Node) {
	switch n.Type() {
	case "function_declaration":
		w.add(parent, syntax.Function, w.field(n, "name"), 0, n, n.ChildByFieldName("body"))
	case "method_declaration":
		recv := goReceiverType(w, n)
		if recv == "" {
			w.anonymous(parent, n)
			return
		}
		cls := parent.Add(&syntax.Node{Kind: syntax.Class, Name: recv, Line: line(n)})
		w.add(cls, syntax.Function, w.field(n, "name"), 0, n, n.ChildByFieldName("body"))
	case "type_spec":
		switch t := n.ChildByFieldName("type"); {
		case t == nil:
		case t.Type() == "struct_type", t.Type() == "interface_type":
			w.add(parent, syntax.Class, w.field(n, "name"), 0, n, nil)
		}
	case "var_spec", "const_spec":
		value := n.ChildByFieldName("value")
		name := n.ChildByFieldName("name")
		if value != nil && value.NamedChildCount() == 1 && value.NamedChild(0).Type() == "func_literal" && name != nil {
			w.add(parent, syntax.Lambda, w.text(name), 0, n, value.NamedChild(0))
			return
		}
		w.children(n, parent)
	case "func_literal":
		w.anonymous(parent, n)
	default:
		w.children(n, parent)
	}
}

// goReceiverType extracts the receiver type name from a method_declaration,
// unwrapping pointer and generic receivers.
func goReceiverType(w *walker, n *sitter.Node) string {
	recv := n.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	for i := 0; i < int(recv.NamedChildCount()); i++ {
		param := recv.NamedChild(i)
		if param.Type() != "parameter_declaration" {
			continue
		}
		t := param.ChildByFieldName("type")
		for t != nil && t.Type() == "pointer_type" {
			t = t.NamedChild(0)
		}
		if t == nil {
			return ""
		}
		if t.Type() == "generic_type" {
			return w.field(t, "type")
		}
		return stripGenerics(w.text(t))
	}
	return ""
}
