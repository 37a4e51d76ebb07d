// Package model defines core data structures for declscan.
package model

// Kind is the normalized category of a declaration.
type Kind string

const (
	Function    Kind = "function"
	Arrow       Kind = "arrow"
	Constructor Kind = "constructor"
	Method      Kind = "method"
	Getter      Kind = "getter"
	Property    Kind = "property"
)

// IsMember reports whether k is only ever produced inside a class scope.
func (k Kind) IsMember() bool {
	switch k {
	case Constructor, Method, Getter, Property:
		return true
	}
	return false
}

// Declaration is one classified function, method or accessor.
type Declaration struct {
	Name     string `json:"name"`
	Kind     Kind   `json:"type"`
	IsStatic bool   `json:"static"`
	IsAsync  bool   `json:"async"`
	Class    string `json:"class,omitempty"` // Empty at module level
	Line     int    `json:"line,omitempty"`
}

// QualifiedName returns "Class.name" for members and the bare name otherwise.
func (d Declaration) QualifiedName() string {
	if d.Class == "" {
		return d.Name
	}
	return d.Class + "." + d.Name
}

// ClassRecord groups the members of one class id within a file.
type ClassRecord struct {
	Name    string
	Methods []Declaration
}

// FileReport is the classified content of a single source file.
type FileReport struct {
	Path      string // Relative to the scan root, slash separated
	Language  string
	Functions []Declaration
	Classes   []ClassRecord
	Error     string

	// Symbols lists qualified names in source order.
	Symbols []string
}

// Failed reports whether the file could not be classified.
func (r *FileReport) Failed() bool {
	return r.Error != ""
}

// Failure records a file that produced an empty report.
type Failure struct {
	Path    string
	Kind    string
	Message string
}

// Warning records a recoverable problem that did not produce a report.
type Warning struct {
	Path    string
	Message string
}

// Diagnostics accumulates per-file problems across a run.
type Diagnostics struct {
	Failed   []Failure
	Warnings []Warning
}

// Empty reports whether nothing went wrong.
func (d *Diagnostics) Empty() bool {
	return len(d.Failed) == 0 && len(d.Warnings) == 0
}

// DirectoryReport is the complete result of one scan, ready for serialization.
type DirectoryReport struct {
	Root        string
	Language    string
	Files       []FileReport
	Diagnostics Diagnostics
}

// DeclarationCount returns the number of functions and methods across all files.
func (r *DirectoryReport) DeclarationCount() int {
	n := 0
	for i := range r.Files {
		n += len(r.Files[i].Functions)
		for _, c := range r.Files[i].Classes {
			n += len(c.Methods)
		}
	}
	return n
}
