// Package classify turns a normalized syntax tree into declaration records.
package classify

import (
	"github.com/phobologic/declscan/internal/errs"
	"github.com/phobologic/declscan/internal/model"
	"github.com/phobologic/declscan/internal/syntax"
)

// Options tunes classification choices that differ between consumers.
type Options struct {
	// ClassLevelIsStatic reports class-level methods (Python classmethods)
	// as static.
	ClassLevelIsStatic bool
}

// Result is the classified content of one tree.
type Result struct {
	// Classes lists class ids in the order their declarations were first
	// entered. A class with no reported members still appears.
	Classes      []string            `json:"classes"`
	Declarations []model.Declaration `json:"declarations"`
}

type step struct {
	node *syntax.Node
	exit bool
}

// Classify walks tree depth-first and emits its top-level functions and
// class members in source order. Anything declared inside a function body is
// dropped.
func Classify(tree *syntax.Tree, opts Options) (*Result, error) {
	if err := tree.Validate(); err != nil {
		return nil, errs.Wrap(err, errs.ParseError, "malformed %s tree", treeLanguage(tree))
	}

	res := &Result{}
	seen := make(map[string]struct{})

	var st Stack
	st.Begin()

	work := make([]step, 0, 64)
	pushChildren := func(n *syntax.Node) {
		for i := len(n.Children) - 1; i >= 0; i-- {
			work = append(work, step{node: n.Children[i]})
		}
	}
	pushChildren(tree.Root)

	for len(work) > 0 {
		s := work[len(work)-1]
		work = work[:len(work)-1]

		if s.exit {
			st.Pop()
			continue
		}

		n := s.node
		switch n.Kind {
		case syntax.Class:
			if st.InFunctionBody() {
				continue
			}
			st.PushClass(n.Name)
			if id := st.Class(); !contains(seen, id) {
				seen[id] = struct{}{}
				res.Classes = append(res.Classes, id)
			}
		case syntax.Function, syntax.Lambda:
			if st.InFunctionBody() {
				continue
			}
			if d, ok := classifyNode(n, &st, tree.Rules, opts); ok {
				res.Declarations = append(res.Declarations, d)
			}
			st.PushFunction()
		}

		// Everything below a function body is discarded, so its children are
		// never scheduled.
		work = append(work, step{node: n, exit: true})
		if n.Kind == syntax.Class {
			pushChildren(n)
		}
	}

	st.End()
	return res, nil
}

func classifyNode(n *syntax.Node, st *Stack, rules syntax.Rules, opts Options) (model.Declaration, bool) {
	class := st.Class()
	if n.Kind == syntax.Lambda && (class != "" || n.Name == "") {
		return model.Declaration{}, false
	}

	d := model.Declaration{
		Name:    n.Name,
		IsAsync: n.Modifiers.Has(syntax.Async),
		Class:   class,
		Line:    n.Line,
	}

	switch {
	case class != "" && rules.IsConstructor(n.Name, st.ClassName()):
		d.Kind = model.Constructor
	case class != "" && n.Modifiers.Has(syntax.Getter):
		d.Kind = model.Getter
	case class != "" && (n.Modifiers.Has(syntax.Property) || n.Modifiers.Has(syntax.Setter)):
		d.Kind = model.Property
	case class != "":
		d.Kind = model.Method
	case n.Kind == syntax.Lambda:
		d.Kind = model.Arrow
	default:
		d.Kind = model.Function
	}

	if class != "" {
		d.IsStatic = n.Modifiers.Has(syntax.Static) ||
			(opts.ClassLevelIsStatic && n.Modifiers.Has(syntax.ClassLevel))
	}
	return d, true
}

func contains(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}

func treeLanguage(t *syntax.Tree) string {
	if t == nil || t.Language == "" {
		return "syntax"
	}
	return t.Language
}
