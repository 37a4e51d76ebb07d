package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/ruby"

	"github.com/phobologic/declscan/internal/syntax"
)

func init() {
	Languages["ruby"] = &Language{
		Name:       "ruby",
		Aliases:    []string{"rb"},
		Extensions: []string{".rb"},
		Rules:      syntax.Rules{ConstructorNames: []string{"initialize"}},
		lang:       ruby.GetLanguage(),
		visit:      rubyVisit,
	}
}

func rubyVisit(w *walker, n *sitter.Node, parent *syntax.Node) {
	switch n.Type() {
	case "class", "module":
		name := rubyClassName(w, n)
		if name == "" {
			w.children(n, parent)
			return
		}
		w.add(parent, syntax.Class, name, 0, n, n)
	case "singleton_class":
		// class << self: every method inside is class-level.
		inner := &walker{src: w.src}
		inner.visit = func(iw *walker, c *sitter.Node, p *syntax.Node) {
			if c.Type() == "method" {
				w.add(p, syntax.Function, w.field(c, "name"), syntax.Static, c, c)
				return
			}
			rubyVisit(iw, c, p)
		}
		inner.children(n, parent)
	case "method":
		w.add(parent, syntax.Function, w.field(n, "name"), 0, n, n)
	case "singleton_method":
		w.add(parent, syntax.Function, w.field(n, "name"), syntax.Static, n, n)
	case "assignment":
		left := n.ChildByFieldName("left")
		right := n.ChildByFieldName("right")
		if left != nil && right != nil && right.Type() == "lambda" &&
			(left.Type() == "identifier" || left.Type() == "constant") {
			w.add(parent, syntax.Lambda, w.text(left), 0, n, right)
			return
		}
		w.children(n, parent)
	case "lambda", "block", "do_block":
		w.anonymous(parent, n)
	default:
		w.children(n, parent)
	}
}

// rubyClassName extracts the last segment of a class or module name:
// "Admin::User" gives "User".
func rubyClassName(w *walker, node *sitter.Node) string {
	name := node.ChildByFieldName("name")
	if name == nil {
		return ""
	}
	if name.Type() == "scope_resolution" {
		return w.field(name, "name")
	}
	return w.text(name)
}
