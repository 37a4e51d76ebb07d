// Package lang provides the language registry and the adapters that turn
// tree-sitter concrete syntax trees into normalized syntax trees.
package lang

import (
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/declscan/internal/syntax"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Language holds tree-sitter configuration for a supported language.
type Language struct {
	Name       string
	Aliases    []string
	Extensions []string
	Rules      syntax.Rules

	lang *sitter.Language
	// grammars overrides lang for specific extensions (TSX).
	grammars map[string]*sitter.Language
	visit    visitFunc
}

// Grammar returns the tree-sitter grammar used for files with extension ext.
func (l *Language) Grammar(ext string) *sitter.Language {
	if g, ok := l.grammars[ext]; ok {
		return g
	}
	return l.lang
}

// NewParser creates a fresh tree-sitter parser for files with extension ext.
// Each goroutine must use its own parser (not thread-safe).
func (l *Language) NewParser(ext string) *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.Grammar(ext))
	return p
}

// Convert builds the normalized tree for a parsed file.
func (l *Language) Convert(root *sitter.Node, source []byte) *syntax.Tree {
	mod := &syntax.Node{Kind: syntax.Module, Line: 1}
	w := &walker{src: source, visit: l.visit}
	w.children(root, mod)
	return &syntax.Tree{Language: l.Name, Rules: l.Rules, Root: mod}
}

// Languages maps language names to their configuration.
// Populated by init() functions in per-language files.
var Languages = map[string]*Language{}

// extensionMap is built lazily after all init() functions have run.
var extensionMap map[string]string
var extensionOnce sync.Once

func getExtensionMap() map[string]string {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]string)
		for _, name := range Names() {
			for _, ext := range Languages[name].Extensions {
				// .h is claimed by both C and C++; the first name in sorted
				// order (c) keeps it.
				if _, taken := extensionMap[ext]; !taken {
					extensionMap[ext] = name
				}
			}
		}
	})
	return extensionMap
}

// ForExtension returns the language name for a file extension, or "" if unsupported.
func ForExtension(ext string) string {
	return getExtensionMap()[ext]
}

// Lookup resolves a language name, alias or file extension (".rs"),
// case-insensitively.
func Lookup(name string) (*Language, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if strings.HasPrefix(name, ".") {
		name = ForExtension(name)
	}
	if l, ok := Languages[name]; ok {
		return l, true
	}
	for _, l := range Languages {
		if slices.Contains(l.Aliases, name) {
			return l, true
		}
	}
	return nil, false
}

// Names returns the registered language names in sorted order.
func Names() []string {
	names := make([]string, 0, len(Languages))
	for name := range Languages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// CollapseWhitespace replaces runs of whitespace with a single space and trims.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// visitFunc converts one concrete node, attaching whatever it declares to
// parent. Nodes it does not recognize are passed to w.children so that
// declarations inside wrappers (exports, namespaces, conditionals) are kept.
type visitFunc func(w *walker, n *sitter.Node, parent *syntax.Node)

type walker struct {
	src   []byte
	visit visitFunc

	// namespaces collects C++ namespace names seen so far, so qualified
	// definitions can tell namespaces from classes.
	namespaces map[string]struct{}
}

func (w *walker) children(n *sitter.Node, parent *syntax.Node) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		w.visit(w, n.NamedChild(i), parent)
	}
}

func (w *walker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return NodeText(n, w.src)
}

func (w *walker) field(n *sitter.Node, name string) string {
	return w.text(n.ChildByFieldName(name))
}

// add attaches a new node built from n and descends into body, if any.
func (w *walker) add(parent *syntax.Node, kind syntax.Kind, name string, mods syntax.Modifiers, n, body *sitter.Node) *syntax.Node {
	child := parent.Add(&syntax.Node{
		Kind:      kind,
		Name:      name,
		Modifiers: mods,
		Line:      line(n),
	})
	if body != nil {
		w.children(body, child)
	}
	return child
}

// anonymous records an unnamed function-like node so that declarations in its
// body stay nested.
func (w *walker) anonymous(parent *syntax.Node, n *sitter.Node) {
	w.add(parent, syntax.Lambda, "", 0, n, n)
}

func line(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// hasToken reports whether n has a direct child (named or not) of type tok.
func hasToken(n *sitter.Node, tok string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == tok {
			return true
		}
	}
	return false
}

// childOfType returns the first direct child of type typ, or nil.
func childOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c.Type() == typ {
			return c
		}
	}
	return nil
}

// stripGenerics drops a trailing type argument list: "Foo<T>" -> "Foo".
func stripGenerics(name string) string {
	if i := strings.IndexAny(name, "<["); i > 0 {
		return strings.TrimSpace(name[:i])
	}
	return strings.TrimSpace(name)
}
