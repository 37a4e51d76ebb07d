// Package parse turns source files into normalized syntax trees, either
// in-process with tree-sitter or through an external front-end command.
package parse

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/declscan/internal/config"
	"github.com/phobologic/declscan/internal/errs"
	"github.com/phobologic/declscan/internal/lang"
	"github.com/phobologic/declscan/internal/syntax"
)

// FrontEnd produces a normalized tree for one file. Implementations are safe
// for concurrent use.
type FrontEnd interface {
	Language() string
	Extensions() []string
	Parse(ctx context.Context, path string, source []byte) (*syntax.Tree, error)
}

// Resolve returns the front end for a language name or alias. Configured
// external front ends take precedence over built-in grammars.
func Resolve(name string, cfg *config.Config) (FrontEnd, error) {
	timeout := config.DefaultTimeout
	if cfg != nil {
		timeout = cfg.Parse.Timeout
		if fe, ok := cfg.FrontEnds[name]; ok {
			return NewExternal(name, fe, timeout)
		}
	}
	l, ok := lang.Lookup(name)
	if !ok {
		return nil, errs.New(errs.UnsupportedLanguage, "unsupported language %q (supported: %v)", name, supported(cfg))
	}
	return NewTreeSitter(l, timeout), nil
}

func supported(cfg *config.Config) []string {
	names := lang.Names()
	if cfg != nil {
		for name := range cfg.FrontEnds {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// TreeSitter is the in-process front end for a built-in language.
type TreeSitter struct {
	lang    *lang.Language
	timeout time.Duration

	mu    sync.Mutex
	pools map[*sitter.Language]*sync.Pool
}

// NewTreeSitter creates a front end for l. A zero timeout disables the limit.
func NewTreeSitter(l *lang.Language, timeout time.Duration) *TreeSitter {
	return &TreeSitter{
		lang:    l,
		timeout: timeout,
		pools:   make(map[*sitter.Language]*sync.Pool),
	}
}

func (ts *TreeSitter) Language() string     { return ts.lang.Name }
func (ts *TreeSitter) Extensions() []string { return ts.lang.Extensions }

// pool returns the parser pool for files with extension ext. Parsers are not
// thread-safe, so each goroutine leases its own.
func (ts *TreeSitter) pool(ext string) *sync.Pool {
	grammar := ts.lang.Grammar(ext)
	ts.mu.Lock()
	defer ts.mu.Unlock()
	p, ok := ts.pools[grammar]
	if !ok {
		p = &sync.Pool{New: func() any {
			sp := ts.lang.NewParser(ext)
			if ts.timeout > 0 {
				sp.SetOperationLimit(int(ts.timeout.Microseconds()))
			}
			return sp
		}}
		ts.pools[grammar] = p
	}
	return p
}

// Parse parses source and converts it. A tree containing syntax errors is
// rejected with a ParseError naming the first offending line. ctx is checked
// before parsing starts; a running parse is bounded by the timeout only.
func (ts *TreeSitter) Parse(ctx context.Context, path string, source []byte) (*syntax.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pool := ts.pool(strings.ToLower(filepath.Ext(path)))
	parser := pool.Get().(*sitter.Parser)
	defer pool.Put(parser)

	// Pooled parsers must never see a cancelable context: smacker leaves the
	// cancel flag set once it fires. The operation limit bounds the parse.
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		parser.Reset()
		if errors.Is(err, sitter.ErrOperationLimit) {
			return nil, errs.New(errs.ParseError, "parse timed out after %s", ts.timeout)
		}
		return nil, errs.Wrap(err, errs.ParseError, "parsing")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, errs.New(errs.ParseError, "syntax error at line %d", firstErrorLine(root))
	}
	return ts.lang.Convert(root, source), nil
}

// firstErrorLine returns the 1-based line of the first ERROR or missing node
// in document order.
func firstErrorLine(root *sitter.Node) int {
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.Type() == "ERROR" || n.IsMissing() {
			return int(n.StartPoint().Row) + 1
		}
		if !n.HasError() {
			continue
		}
		for i := int(n.ChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, n.Child(i))
		}
	}
	return int(root.StartPoint().Row) + 1
}
