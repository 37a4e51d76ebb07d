package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/declscan/internal/errs"
	"github.com/phobologic/declscan/internal/model"
	"github.com/phobologic/declscan/internal/syntax"
)

var pythonRules = syntax.Rules{ConstructorNames: []string{"__init__"}}

func fn(name string, mods syntax.Modifiers, children ...*syntax.Node) *syntax.Node {
	return &syntax.Node{Kind: syntax.Function, Name: name, Modifiers: mods, Children: children}
}

func lambda(name string) *syntax.Node {
	return &syntax.Node{Kind: syntax.Lambda, Name: name}
}

func class(name string, children ...*syntax.Node) *syntax.Node {
	return &syntax.Node{Kind: syntax.Class, Name: name, Children: children}
}

func module(children ...*syntax.Node) *syntax.Tree {
	return &syntax.Tree{
		Language: "python",
		Rules:    pythonRules,
		Root:     &syntax.Node{Kind: syntax.Module, Children: children},
	}
}

func decl(name string, kind model.Kind, static, async bool, cls string) model.Declaration {
	return model.Declaration{Name: name, Kind: kind, IsStatic: static, IsAsync: async, Class: cls}
}

func stripLines(ds []model.Declaration) []model.Declaration {
	out := make([]model.Declaration, len(ds))
	for i, d := range ds {
		d.Line = 0
		out[i] = d
	}
	return out
}

func TestTopLevelFunctions(t *testing.T) {
	t.Parallel()

	tree := module(
		fn("f", 0),
		fn("g", syntax.Async),
		lambda("h"),
	)

	res, err := Classify(tree, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Classes)
	assert.Equal(t, []model.Declaration{
		decl("f", model.Function, false, false, ""),
		decl("g", model.Function, false, true, ""),
		decl("h", model.Arrow, false, false, ""),
	}, stripLines(res.Declarations))
}

func TestClassMembers(t *testing.T) {
	t.Parallel()

	tree := module(class("Widget",
		fn("__init__", 0),
		fn("instance", 0),
		fn("static_one", syntax.Static),
		fn("name", syntax.Getter),
		fn("size", syntax.Property),
		fn("size", syntax.Setter),
		fn("fetch", syntax.Async),
	))

	res, err := Classify(tree, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Widget"}, res.Classes)
	assert.Equal(t, []model.Declaration{
		decl("__init__", model.Constructor, false, false, "Widget"),
		decl("instance", model.Method, false, false, "Widget"),
		decl("static_one", model.Method, true, false, "Widget"),
		decl("name", model.Getter, false, false, "Widget"),
		decl("size", model.Property, false, false, "Widget"),
		decl("size", model.Property, false, false, "Widget"),
		decl("fetch", model.Method, false, true, "Widget"),
	}, stripLines(res.Declarations))
}

func TestClassLevelOption(t *testing.T) {
	t.Parallel()

	tree := module(class("Factory", fn("create", syntax.ClassLevel)))

	res, err := Classify(tree, Options{})
	require.NoError(t, err)
	require.Len(t, res.Declarations, 1)
	assert.False(t, res.Declarations[0].IsStatic)

	res, err = Classify(tree, Options{ClassLevelIsStatic: true})
	require.NoError(t, err)
	require.Len(t, res.Declarations, 1)
	assert.True(t, res.Declarations[0].IsStatic)
}

func TestNestedFunctionsExcluded(t *testing.T) {
	t.Parallel()

	tree := module(
		fn("outer", 0,
			fn("wrapper", 0),
			lambda("inner_lambda"),
			class("Local", fn("m", 0)),
		),
		class("C", fn("method", 0, fn("helper", 0))),
	)

	res, err := Classify(tree, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, res.Classes)
	assert.Equal(t, []model.Declaration{
		decl("outer", model.Function, false, false, ""),
		decl("method", model.Method, false, false, "C"),
	}, stripLines(res.Declarations))
}

func TestNestedClassesQualified(t *testing.T) {
	t.Parallel()

	tree := module(class("Outer",
		fn("a", 0),
		class("Inner", fn("b", 0)),
		fn("c", 0),
	))

	res, err := Classify(tree, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Outer", "Outer.Inner"}, res.Classes)
	assert.Equal(t, []model.Declaration{
		decl("a", model.Method, false, false, "Outer"),
		decl("b", model.Method, false, false, "Outer.Inner"),
		decl("c", model.Method, false, false, "Outer"),
	}, stripLines(res.Declarations))
}

func TestRepeatedClassMergesIds(t *testing.T) {
	t.Parallel()

	tree := &syntax.Tree{
		Language: "rust",
		Rules:    syntax.Rules{ConstructorNames: []string{"new"}},
		Root: &syntax.Node{Kind: syntax.Module, Children: []*syntax.Node{
			class("Data"),
			class("Data", fn("new", syntax.Static), fn("show", 0)),
		}},
	}

	res, err := Classify(tree, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Data"}, res.Classes)
	assert.Equal(t, []model.Declaration{
		decl("new", model.Constructor, true, false, "Data"),
		decl("show", model.Method, false, false, "Data"),
	}, stripLines(res.Declarations))
}

func TestConstructorByClassName(t *testing.T) {
	t.Parallel()

	tree := &syntax.Tree{
		Language: "java",
		Rules:    syntax.Rules{ConstructorIsClassName: true},
		Root: &syntax.Node{Kind: syntax.Module, Children: []*syntax.Node{
			class("Point", fn("Point", 0), fn("norm", 0)),
			fn("Point", 0),
		}},
	}

	res, err := Classify(tree, Options{})
	require.NoError(t, err)
	assert.Equal(t, []model.Declaration{
		decl("Point", model.Constructor, false, false, "Point"),
		decl("norm", model.Method, false, false, "Point"),
		decl("Point", model.Function, false, false, ""),
	}, stripLines(res.Declarations))
}

func TestLambdaInsideClassNotReported(t *testing.T) {
	t.Parallel()

	tree := module(class("K", lambda("field")), lambda(""))

	res, err := Classify(tree, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"K"}, res.Classes)
	assert.Empty(t, res.Declarations)
}

func TestAccessorModifiersIgnoredOutsideClasses(t *testing.T) {
	t.Parallel()

	tree := module(fn("cached", syntax.Property), fn("helper", syntax.Static))

	res, err := Classify(tree, Options{})
	require.NoError(t, err)
	assert.Equal(t, []model.Declaration{
		decl("cached", model.Function, false, false, ""),
		decl("helper", model.Function, false, false, ""),
	}, stripLines(res.Declarations))
}

func TestMalformedTree(t *testing.T) {
	t.Parallel()

	_, err := Classify(&syntax.Tree{Language: "python"}, Options{})
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.ParseError))

	_, err = Classify(module(fn("", 0)), Options{})
	assert.True(t, errs.IsKind(err, errs.ParseError))
}

func TestLinesCarried(t *testing.T) {
	t.Parallel()

	f := fn("f", 0)
	f.Line = 7
	res, err := Classify(module(f), Options{})
	require.NoError(t, err)
	assert.Equal(t, 7, res.Declarations[0].Line)
}
