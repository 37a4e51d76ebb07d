package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/phobologic/declscan/internal/syntax"
)

func init() {
	Languages["rust"] = &Language{
		Name:       "rust",
		Aliases:    []string{"rs"},
		Extensions: []string{".rs"},
		Rules:      syntax.Rules{ConstructorNames: []string{"new"}},
		lang:       rust.GetLanguage(),
		visit:      rustVisit,
	}
}

// rustVisit maps structs, enums and unions to class records and inherent impl
// blocks to their members. Trait definitions and trait impls are not
// declarations of the type. Macros are not expanded.
func rustVisit(w *walker, n *sitter.Node, parent *syntax.Node) {
	switch n.Type() {
	case "function_item":
		rustFunction(w, n, parent, false)
	case "struct_item", "enum_item", "union_item":
		w.add(parent, syntax.Class, w.field(n, "name"), 0, n, nil)
	case "impl_item":
		if n.ChildByFieldName("trait") != nil {
			return
		}
		name := rustTypeName(w, n.ChildByFieldName("type"))
		if name == "" {
			return
		}
		cls := w.add(parent, syntax.Class, name, 0, n, nil)
		body := n.ChildByFieldName("body")
		if body == nil {
			return
		}
		for i := 0; i < int(body.NamedChildCount()); i++ {
			item := body.NamedChild(i)
			if item.Type() == "function_item" {
				rustFunction(w, item, cls, true)
			} else {
				rustVisit(w, item, cls)
			}
		}
	case "trait_item", "macro_definition", "macro_invocation":
	case "const_item", "static_item":
		value := n.ChildByFieldName("value")
		if value != nil && value.Type() == "closure_expression" {
			w.add(parent, syntax.Lambda, w.field(n, "name"), rustAsync(value), n, value)
			return
		}
		w.children(n, parent)
	case "closure_expression":
		w.anonymous(parent, n)
	default:
		w.children(n, parent)
	}
}

func rustFunction(w *walker, n *sitter.Node, parent *syntax.Node, member bool) {
	mods := rustAsync(n)
	if fm := childOfType(n, "function_modifiers"); fm != nil && hasToken(fm, "async") {
		mods |= syntax.Async
	}
	if member {
		params := n.ChildByFieldName("parameters")
		if params == nil || childOfType(params, "self_parameter") == nil {
			mods |= syntax.Static
		}
	}
	w.add(parent, syntax.Function, w.field(n, "name"), mods, n, n.ChildByFieldName("body"))
}

func rustAsync(n *sitter.Node) syntax.Modifiers {
	if hasToken(n, "async") {
		return syntax.Async
	}
	return 0
}

// rustTypeName returns the bare type name of an impl target:
// "Wrapper<T>" and "crate::model::Wrapper" both give "Wrapper".
func rustTypeName(w *walker, t *sitter.Node) string {
	if t == nil {
		return ""
	}
	switch t.Type() {
	case "generic_type":
		return rustTypeName(w, t.ChildByFieldName("type"))
	case "scoped_type_identifier":
		return w.field(t, "name")
	case "reference_type":
		return rustTypeName(w, t.ChildByFieldName("type"))
	}
	return stripGenerics(w.text(t))
}
