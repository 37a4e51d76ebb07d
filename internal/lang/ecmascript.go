package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/phobologic/declscan/internal/syntax"
)

var ecmaRules = syntax.Rules{ConstructorNames: []string{"constructor"}}

func init() {
	Languages["javascript"] = &Language{
		Name:       "javascript",
		Aliases:    []string{"js", "jsx", "node"},
		Extensions: []string{".js", ".jsx", ".mjs", ".cjs"},
		Rules:      ecmaRules,
		lang:       javascript.GetLanguage(),
		visit:      ecmaVisit,
	}
	Languages["typescript"] = &Language{
		Name:       "typescript",
		Aliases:    []string{"ts", "tsx"},
		Extensions: []string{".ts", ".tsx", ".mts", ".cts"},
		Rules:      ecmaRules,
		lang:       typescript.GetLanguage(),
		grammars:   map[string]*sitter.Language{".tsx": tsx.GetLanguage()},
		visit:      ecmaVisit,
	}
}

// ecmaVisit serves both the JavaScript and TypeScript grammars, which share
// node names for every construct recognized here.
func ecmaVisit(w *walker, n *sitter.Node, parent *syntax.Node) {
	switch n.Type() {
	case "function_declaration", "generator_function_declaration":
		ecmaFunction(w, n, parent, syntax.Function, w.field(n, "name"))
	case "class_declaration", "abstract_class_declaration":
		w.add(parent, syntax.Class, w.field(n, "name"), 0, n, n.ChildByFieldName("body"))
	case "class":
		// Class expressions are reported only when bound to a name.
		if name := w.field(n, "name"); name != "" {
			w.add(parent, syntax.Class, name, 0, n, n.ChildByFieldName("body"))
		}
	case "method_definition":
		// Object literal methods are not declarations of the enclosing scope.
		if p := n.Parent(); p == nil || p.Type() != "class_body" {
			w.anonymous(parent, n)
			return
		}
		ecmaMethod(w, n, parent)
	case "variable_declarator":
		ecmaBinding(w, n, parent, n.ChildByFieldName("name"), n.ChildByFieldName("value"))
	case "assignment_expression":
		ecmaBinding(w, n, parent, n.ChildByFieldName("left"), n.ChildByFieldName("right"))
	case "arrow_function", "function", "function_expression", "generator_function":
		w.anonymous(parent, n)
	case "interface_declaration", "type_alias_declaration", "function_signature",
		"method_signature", "abstract_method_signature", "ambient_declaration",
		"field_definition", "public_field_definition":
		// Type-level constructs and class fields declare no functions.
	default:
		w.children(n, parent)
	}
}

func ecmaFunction(w *walker, n *sitter.Node, parent *syntax.Node, kind syntax.Kind, name string) {
	var mods syntax.Modifiers
	if hasToken(n, "async") {
		mods |= syntax.Async
	}
	w.add(parent, kind, name, mods, n, n.ChildByFieldName("body"))
}

// ecmaBinding handles `const f = () => {}`, `var g = function () {}`,
// `h = async () => {}` and `const K = class {}`.
func ecmaBinding(w *walker, n *sitter.Node, parent *syntax.Node, target, value *sitter.Node) {
	if value == nil || target == nil || target.Type() != "identifier" {
		w.children(n, parent)
		return
	}
	name := w.text(target)
	switch value.Type() {
	case "arrow_function":
		ecmaFunction(w, value, parent, syntax.Lambda, name)
	case "function", "function_expression", "generator_function":
		ecmaFunction(w, value, parent, syntax.Function, name)
	case "class":
		w.add(parent, syntax.Class, name, 0, value, value.ChildByFieldName("body"))
	default:
		w.children(n, parent)
	}
}

func ecmaMethod(w *walker, n *sitter.Node, parent *syntax.Node) {
	var mods syntax.Modifiers
	for i := 0; i < int(n.ChildCount()); i++ {
		switch n.Child(i).Type() {
		case "static":
			mods |= syntax.Static
		case "async":
			mods |= syntax.Async
		case "get":
			mods |= syntax.Getter
		case "set":
			mods |= syntax.Setter
		}
	}
	w.add(parent, syntax.Function, w.field(n, "name"), mods, n, n.ChildByFieldName("body"))
}
