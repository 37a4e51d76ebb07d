// Package errs defines the error taxonomy shared by every declscan stage.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error by how the pipeline reacts to it.
type Kind string

const (
	ConfigError         Kind = "config_error"
	UnsupportedLanguage Kind = "unsupported_language"
	FrontEndUnavailable Kind = "frontend_unavailable"
	ParseError          Kind = "parse_error"
	IOError             Kind = "io_error"
)

// Fatal reports whether an error of this kind aborts the whole run.
// Parse and I/O errors are scoped to one file and recovered.
func (k Kind) Fatal() bool {
	switch k {
	case ConfigError, UnsupportedLanguage, FrontEndUnavailable:
		return true
	}
	return false
}

// Error is a classified error, optionally tied to a file.
type Error struct {
	Kind    Kind
	Message string
	Path    string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. It returns nil when err is nil.
func Wrap(err error, kind Kind, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// WithPath returns a copy of e attributed to path.
func (e *Error) WithPath(path string) *Error {
	cp := *e
	cp.Path = path
	return &cp
}

// KindOf returns the kind of the first classified error in err's chain,
// or "" when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err's chain holds an error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsFatal reports whether err should abort the run. Unclassified errors are
// treated as fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	k := KindOf(err)
	return k == "" || k.Fatal()
}
