// Package syntax defines the language-neutral tree every front end produces
// and the classifier consumes.
package syntax

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind is the category of a normalized node.
type Kind int

const (
	Module Kind = iota
	Class
	Function
	Lambda
)

var kindNames = [...]string{
	Module:   "module",
	Class:    "class",
	Function: "function",
	Lambda:   "lambda",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	if int(k) >= len(kindNames) {
		return nil, fmt.Errorf("unknown node kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for i, name := range kindNames {
		if name == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown node kind %q", b)
}

// Modifiers is the set of declaration modifiers a front end recognized.
type Modifiers uint8

const (
	Static Modifiers = 1 << iota
	Async
	Getter
	Setter
	Property
	// ClassLevel marks methods bound to the class object rather than an
	// instance, such as Python classmethods.
	ClassLevel
)

var modifierNames = []struct {
	bit  Modifiers
	name string
}{
	{Static, "static"},
	{Async, "async"},
	{Getter, "getter"},
	{Setter, "setter"},
	{Property, "property"},
	{ClassLevel, "classlevel"},
}

// Has reports whether every bit in m2 is set in m.
func (m Modifiers) Has(m2 Modifiers) bool {
	return m&m2 == m2
}

func (m Modifiers) String() string {
	var names []string
	for _, mn := range modifierNames {
		if m.Has(mn.bit) {
			names = append(names, mn.name)
		}
	}
	return strings.Join(names, "|")
}

// MarshalJSON encodes m as a list of modifier names.
func (m Modifiers) MarshalJSON() ([]byte, error) {
	names := []string{}
	for _, mn := range modifierNames {
		if m.Has(mn.bit) {
			names = append(names, mn.name)
		}
	}
	return json.Marshal(names)
}

// UnmarshalJSON decodes a list of modifier names.
func (m *Modifiers) UnmarshalJSON(b []byte) error {
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return err
	}
	*m = 0
outer:
	for _, n := range names {
		for _, mn := range modifierNames {
			if mn.name == n {
				*m |= mn.bit
				continue outer
			}
		}
		return fmt.Errorf("unknown modifier %q", n)
	}
	return nil
}

// Node is one declaration in a normalized tree. Children of a Class node are
// its body; children of a Function or Lambda node are declarations nested in
// its body.
type Node struct {
	Kind      Kind      `json:"kind"`
	Name      string    `json:"name,omitempty"`
	Modifiers Modifiers `json:"modifiers"`
	Line      int       `json:"line,omitempty"` // 1-based
	Children  []*Node   `json:"children,omitempty"`
}

// Add appends child and returns it.
func (n *Node) Add(child *Node) *Node {
	n.Children = append(n.Children, child)
	return child
}

// Rules carries the per-language facts the classifier needs.
type Rules struct {
	// ConstructorNames are method names that always denote an initializer.
	ConstructorNames []string
	// ConstructorIsClassName treats a method named like its class as an
	// initializer.
	ConstructorIsClassName bool
}

// IsConstructor reports whether name designates an initializer of class
// (the simple class name, not a dotted id).
func (r Rules) IsConstructor(name, class string) bool {
	for _, c := range r.ConstructorNames {
		if c == name {
			return true
		}
	}
	return r.ConstructorIsClassName && name == class
}

// Tree is a normalized syntax tree for one file.
type Tree struct {
	Language string
	Rules    Rules
	Root     *Node
}

// Validate checks the structural guarantees the classifier relies on.
func (t *Tree) Validate() error {
	if t == nil || t.Root == nil {
		return fmt.Errorf("empty tree")
	}
	if t.Root.Kind != Module {
		return fmt.Errorf("root is %s, want module", t.Root.Kind)
	}
	return validateChildren(t.Root)
}

func validateChildren(n *Node) error {
	for _, c := range n.Children {
		if c == nil {
			return fmt.Errorf("nil child under %s %q", n.Kind, n.Name)
		}
		switch c.Kind {
		case Module:
			return fmt.Errorf("line %d: nested module", c.Line)
		case Class, Function:
			if c.Name == "" {
				return fmt.Errorf("line %d: %s without a name", c.Line, c.Kind)
			}
		case Lambda:
		default:
			return fmt.Errorf("line %d: unknown node kind %s", c.Line, c.Kind)
		}
		if err := validateChildren(c); err != nil {
			return err
		}
	}
	return nil
}
