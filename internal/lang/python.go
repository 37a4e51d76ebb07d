package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/phobologic/declscan/internal/syntax"
)

func init() {
	Languages["python"] = &Language{
		Name:       "python",
		Aliases:    []string{"py"},
		Extensions: []string{".py"},
		Rules:      syntax.Rules{ConstructorNames: []string{"__init__"}},
		lang:       python.GetLanguage(),
		visit:      pythonVisit,
	}
}

func pythonVisit(w *walker, n *sitter.Node, parent *syntax.Node) {
	switch n.Type() {
	case "function_definition":
		pythonFunction(w, n, parent, 0)
	case "class_definition":
		w.add(parent, syntax.Class, w.field(n, "name"), 0, n, n.ChildByFieldName("body"))
	case "decorated_definition":
		def := n.ChildByFieldName("definition")
		if def == nil {
			w.children(n, parent)
			return
		}
		mods := pythonDecoratorModifiers(w, n)
		switch def.Type() {
		case "function_definition":
			pythonFunction(w, def, parent, mods)
		default:
			pythonVisit(w, def, parent)
		}
	case "assignment":
		right := n.ChildByFieldName("right")
		left := n.ChildByFieldName("left")
		if right != nil && right.Type() == "lambda" && left != nil && left.Type() == "identifier" {
			w.add(parent, syntax.Lambda, w.text(left), 0, n, right)
			return
		}
		w.children(n, parent)
	case "lambda":
		w.anonymous(parent, n)
	default:
		w.children(n, parent)
	}
}

func pythonFunction(w *walker, n *sitter.Node, parent *syntax.Node, mods syntax.Modifiers) {
	if hasToken(n, "async") {
		mods |= syntax.Async
	}
	w.add(parent, syntax.Function, w.field(n, "name"), mods, n, n.ChildByFieldName("body"))
}

// pythonDecoratorModifiers maps the decorators of a decorated_definition to
// modifiers. Unknown decorators are ignored.
func pythonDecoratorModifiers(w *walker, n *sitter.Node) syntax.Modifiers {
	var mods syntax.Modifiers
	for i := 0; i < int(n.NamedChildCount()); i++ {
		dec := n.NamedChild(i)
		if dec.Type() != "decorator" || dec.NamedChildCount() == 0 {
			continue
		}
		expr := dec.NamedChild(0)
		if expr.Type() == "call" {
			expr = expr.ChildByFieldName("function")
		}
		mods |= pythonDecoratorModifier(w.text(expr))
	}
	return mods
}

func pythonDecoratorModifier(name string) syntax.Modifiers {
	name = CollapseWhitespace(name)
	last := name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		last = name[i+1:]
		switch last {
		case "setter":
			return syntax.Setter
		case "getter", "deleter":
			return syntax.Property
		}
	}
	switch last {
	case "staticmethod":
		return syntax.Static
	case "classmethod":
		return syntax.ClassLevel
	case "property", "cached_property", "abstractproperty":
		return syntax.Property
	}
	return 0
}
