package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/phobologic/declscan/internal/syntax"
)

func init() {
	Languages["java"] = &Language{
		Name:       "java",
		Extensions: []string{".java"},
		Rules:      syntax.Rules{ConstructorIsClassName: true},
		lang:       java.GetLanguage(),
		visit:      javaVisit,
	}
}

func javaVisit(w *walker, n *sitter.Node, parent *syntax.Node) {
	switch n.Type() {
	case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
		w.add(parent, syntax.Class, w.field(n, "name"), 0, n, n.ChildByFieldName("body"))
	case "method_declaration", "constructor_declaration", "compact_constructor_declaration":
		w.add(parent, syntax.Function, w.field(n, "name"), javaModifiers(n), n, n.ChildByFieldName("body"))
	case "lambda_expression":
		w.anonymous(parent, n)
	case "object_creation_expression", "enum_constant":
		// Anonymous class bodies, including constant-specific enum bodies,
		// belong to the expression, not to a named class.
		if childOfType(n, "class_body") != nil {
			w.anonymous(parent, n)
			return
		}
		w.children(n, parent)
	case "annotation_type_declaration":
	default:
		w.children(n, parent)
	}
}

func javaModifiers(n *sitter.Node) syntax.Modifiers {
	mods := childOfType(n, "modifiers")
	if mods != nil && hasToken(mods, "static") {
		return syntax.Static
	}
	return 0
}
