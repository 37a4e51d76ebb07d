package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"

	"github.com/phobologic/declscan/internal/syntax"
)

func init() {
	Languages["c"] = &Language{
		Name:       "c",
		Extensions: []string{".c", ".h"},
		lang:       c.GetLanguage(),
		visit:      cfamilyVisit,
	}
	Languages["cpp"] = &Language{
		Name:       "cpp",
		Aliases:    []string{"c++", "cxx"},
		Extensions: []string{".cpp", ".cc", ".cxx", ".c++", ".hpp", ".hh", ".hxx", ".h"},
		Rules:      syntax.Rules{ConstructorIsClassName: true},
		lang:       cpp.GetLanguage(),
		visit:      cfamilyVisit,
	}
}

// cfamilyVisit serves C and C++. Only definitions with a body count;
// prototypes and forward declarations are skipped.
func cfamilyVisit(w *walker, n *sitter.Node, parent *syntax.Node) {
	switch n.Type() {
	case "function_definition":
		cfamilyFunction(w, n, parent)
	case "class_specifier", "struct_specifier", "union_specifier":
		body := n.ChildByFieldName("body")
		name := cfamilyTypeName(w, n.ChildByFieldName("name"))
		if body == nil || name == "" {
			return
		}
		w.add(parent, syntax.Class, name, 0, n, body)
	case "type_definition":
		t := n.ChildByFieldName("type")
		if t == nil || t.ChildByFieldName("body") == nil {
			return
		}
		name := cfamilyTypeName(w, t.ChildByFieldName("name"))
		if name == "" {
			name = w.field(n, "declarator")
		}
		switch t.Type() {
		case "class_specifier", "struct_specifier", "union_specifier":
			if name != "" {
				w.add(parent, syntax.Class, name, 0, t, t.ChildByFieldName("body"))
			}
		}
	case "namespace_definition":
		if w.namespaces == nil {
			w.namespaces = make(map[string]struct{})
		}
		for _, seg := range strings.Split(w.field(n, "name"), "::") {
			if seg = strings.TrimSpace(seg); seg != "" {
				w.namespaces[seg] = struct{}{}
			}
		}
		if body := n.ChildByFieldName("body"); body != nil {
			w.children(body, parent)
		}
	case "init_declarator":
		value := n.ChildByFieldName("value")
		decl := n.ChildByFieldName("declarator")
		if value != nil && value.Type() == "lambda_expression" && decl != nil && decl.Type() == "identifier" {
			w.add(parent, syntax.Lambda, w.text(decl), 0, n, value)
			return
		}
		w.children(n, parent)
	case "lambda_expression":
		w.anonymous(parent, n)
	case "friend_declaration", "enum_specifier", "preproc_function_def", "preproc_def":
	default:
		w.children(n, parent)
	}
}

func cfamilyFunction(w *walker, n *sitter.Node, parent *syntax.Node) {
	nameNode := functionDeclaratorName(n.ChildByFieldName("declarator"))
	if nameNode == nil {
		w.anonymous(parent, n)
		return
	}

	var mods syntax.Modifiers
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "storage_class_specifier" && w.text(child) == "static" {
			mods |= syntax.Static
		}
	}

	segs := splitQualified(w.text(nameNode))
	name := segs[len(segs)-1]

	// Out-of-class definitions (Foo::bar) are attached to their class.
	target := parent
	for _, seg := range segs[:len(segs)-1] {
		if seg == "" {
			continue
		}
		if _, ns := w.namespaces[seg]; ns {
			continue
		}
		target = target.Add(&syntax.Node{Kind: syntax.Class, Name: seg, Line: line(n)})
	}
	w.add(target, syntax.Function, name, mods, n, n.ChildByFieldName("body"))
}

// functionDeclaratorName unwraps pointer, reference and parenthesized
// declarators down to the function declarator and returns its name node.
func functionDeclaratorName(d *sitter.Node) *sitter.Node {
	for d != nil {
		switch d.Type() {
		case "function_declarator":
			return d.ChildByFieldName("declarator")
		case "pointer_declarator", "reference_declarator", "parenthesized_declarator", "attributed_declarator":
			next := d.ChildByFieldName("declarator")
			if next == nil && d.NamedChildCount() > 0 {
				next = d.NamedChild(int(d.NamedChildCount()) - 1)
			}
			d = next
		default:
			return nil
		}
	}
	return nil
}

func cfamilyTypeName(w *walker, n *sitter.Node) string {
	if n == nil {
		return ""
	}
	segs := splitQualified(w.text(n))
	return segs[len(segs)-1]
}

// splitQualified splits "ns::Foo<T>::bar" into ["ns", "Foo", "bar"], dropping
// template arguments. Operator names are kept whole.
func splitQualified(name string) []string {
	name = CollapseWhitespace(name)
	var (
		segs  []string
		cur   strings.Builder
		depth int
	)
	for i := 0; i < len(name); i++ {
		ch := name[i]
		if strings.HasPrefix(cur.String(), "operator") {
			cur.WriteByte(ch)
			continue
		}
		switch {
		case ch == '<':
			depth++
		case ch == '>' && depth > 0:
			depth--
		case depth > 0:
		case ch == ':' && i+1 < len(name) && name[i+1] == ':':
			segs = append(segs, strings.TrimSpace(cur.String()))
			cur.Reset()
			i++
		default:
			cur.WriteByte(ch)
		}
	}
	return append(segs, strings.TrimSpace(cur.String()))
}
