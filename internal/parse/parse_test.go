package parse

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/declscan/internal/config"
	"github.com/phobologic/declscan/internal/errs"
	"github.com/phobologic/declscan/internal/lang"
	"github.com/phobologic/declscan/internal/syntax"
)

func resolve(t *testing.T, name string) FrontEnd {
	t.Helper()
	fe, err := Resolve(name, config.Default())
	require.NoError(t, err)
	return fe
}

func TestResolveBuiltin(t *testing.T) {
	t.Parallel()

	fe := resolve(t, "py")
	assert.Equal(t, "python", fe.Language())
	assert.Equal(t, []string{".py"}, fe.Extensions())
}

func TestResolveUnsupported(t *testing.T) {
	t.Parallel()

	_, err := Resolve("cobol", config.Default())
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.UnsupportedLanguage))
}

func TestResolveMissingExternal(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.FrontEnds = map[string]config.FrontEnd{
		"kotlin": {Command: []string{"declscan-no-such-frontend"}, Extensions: []string{".kt"}},
	}
	_, err := Resolve("kotlin", cfg)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.FrontEndUnavailable))
}

func TestTreeSitterParse(t *testing.T) {
	t.Parallel()

	fe := resolve(t, "python")
	tree, err := fe.Parse(context.Background(), "m.py", []byte("class A:\n    def f(self):\n        pass\n"))
	require.NoError(t, err)

	assert.Equal(t, "python", tree.Language)
	assert.Equal(t, []string{"__init__"}, tree.Rules.ConstructorNames)
	require.Len(t, tree.Root.Children, 1)
	cls := tree.Root.Children[0]
	assert.Equal(t, syntax.Class, cls.Kind)
	assert.Equal(t, "A", cls.Name)
	require.Len(t, cls.Children, 1)
	assert.Equal(t, "f", cls.Children[0].Name)
	assert.Equal(t, 2, cls.Children[0].Line)
}

func TestTreeSitterSyntaxError(t *testing.T) {
	t.Parallel()

	fe := resolve(t, "python")
	_, err := fe.Parse(context.Background(), "bad.py", []byte("def ok():\n    pass\n\ndef broken(:\n    pass\n"))
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.ParseError))
	assert.Contains(t, err.Error(), "line 4")
}

func TestTreeSitterEmptyFile(t *testing.T) {
	t.Parallel()

	fe := resolve(t, "javascript")
	tree, err := fe.Parse(context.Background(), "empty.js", nil)
	require.NoError(t, err)
	assert.Empty(t, tree.Root.Children)
}

func TestTreeSitterConcurrent(t *testing.T) {
	t.Parallel()

	fe := resolve(t, "rust")
	src := []byte("struct S;\nimpl S { fn new() -> Self { S } }\n")

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tree, err := fe.Parse(context.Background(), "s.rs", src)
			if assert.NoError(t, err) {
				assert.Len(t, tree.Root.Children, 2)
			}
		}()
	}
	wg.Wait()
}

func TestTreeSitterParserReuse(t *testing.T) {
	t.Parallel()

	fe := NewTreeSitter(mustLookup(t, "python"), 10*time.Second)
	src := []byte(strings.Repeat("def f(a, b):\n    return a + b * 2\n\n", 50))

	for i := range 500 {
		tree, err := fe.Parse(context.Background(), "m.py", src)
		require.NoError(t, err, "iteration %d", i)
		require.Len(t, tree.Root.Children, 50)
	}
}

func TestTreeSitterReuseAfterCanceledRun(t *testing.T) {
	t.Parallel()

	fe := NewTreeSitter(mustLookup(t, "python"), time.Second)
	src := []byte("def f():\n    pass\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := fe.Parse(ctx, "m.py", src)
	assert.ErrorIs(t, err, context.Canceled)

	for range 50 {
		_, err := fe.Parse(context.Background(), "m.py", src)
		require.NoError(t, err)
	}
}

func TestTreeSitterTimeout(t *testing.T) {
	t.Parallel()

	fe := NewTreeSitter(mustLookup(t, "python"), time.Microsecond)
	src := []byte(strings.Repeat("def f(a, b):\n    return [x * y for x in a for y in b]\n\n", 20000))

	_, err := fe.Parse(context.Background(), "big.py", src)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.ParseError))
	assert.Contains(t, err.Error(), "timed out")
}

func mustLookup(t *testing.T, name string) *lang.Language {
	t.Helper()
	l, ok := lang.Lookup(name)
	require.True(t, ok, name)
	return l
}

func external(t *testing.T, script string, timeout time.Duration) FrontEnd {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("external front end tests use sh")
	}
	cfg := config.Default()
	cfg.Parse.Timeout = timeout
	cfg.FrontEnds = map[string]config.FrontEnd{
		"toy": {
			Command:                []string{"sh", "-c", script},
			Extensions:             []string{".toy"},
			ConstructorIsClassName: true,
		},
	}
	fe, err := Resolve("toy", cfg)
	require.NoError(t, err)
	return fe
}

func TestExternalParse(t *testing.T) {
	t.Parallel()

	fe := external(t, `cat >/dev/null; echo '{"root":{"kind":"module","children":[{"kind":"class","name":"Box","children":[{"kind":"function","name":"Box"}]}]}}'`, time.Second)
	tree, err := fe.Parse(context.Background(), "a.toy", []byte("anything"))
	require.NoError(t, err)
	assert.Equal(t, "toy", tree.Language)
	assert.True(t, tree.Rules.ConstructorIsClassName)
	require.Len(t, tree.Root.Children, 1)
	assert.Equal(t, "Box", tree.Root.Children[0].Name)
}

func TestExternalReportsError(t *testing.T) {
	t.Parallel()

	fe := external(t, `cat >/dev/null; echo '{"error":"unexpected token at line 3"}'`, time.Second)
	_, err := fe.Parse(context.Background(), "a.toy", nil)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.ParseError))
	assert.Contains(t, err.Error(), "line 3")
}

func TestExternalFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		script string
	}{
		{"non-zero exit", `echo boom >&2; exit 2`},
		{"malformed json", `echo 'not json'`},
		{"malformed tree", `echo '{"root":{"kind":"class","name":"X"}}'`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fe := external(t, tt.script, time.Second)
			_, err := fe.Parse(context.Background(), "a.toy", nil)
			require.Error(t, err)
			assert.True(t, errs.IsKind(err, errs.ParseError), "got %v", err)
		})
	}
}

func TestExternalTimeout(t *testing.T) {
	t.Parallel()

	fe := external(t, `sleep 5`, 50*time.Millisecond)
	_, err := fe.Parse(context.Background(), "a.toy", nil)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.ParseError))
	assert.Contains(t, err.Error(), "timed out")
}
