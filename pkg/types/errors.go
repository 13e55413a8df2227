package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies loader failures.
type ErrorKind string

// Error kinds reported by the loader.
const (
	KindScriptNotFound ErrorKind = "ScriptNotFound"
	KindSyntax         ErrorKind = "SyntaxError"
	KindBinding        ErrorKind = "BindingError"
	KindFile           ErrorKind = "FileError"
	KindData           ErrorKind = "DataError"
)

// LoadError is the single error type produced while interpreting a script.
// Every error is fatal for the pass that produced it.
type LoadError struct {
	Kind    ErrorKind
	Message string
	// Name is the offending variable, expression, or file when one applies.
	Name string
	// Pos is the byte offset in the script, or -1 when unknown.
	Pos int
	Err error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	msg := e.Message
	if e.Pos >= 0 {
		msg = fmt.Sprintf("%s at position %d", msg, e.Pos)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Unwrap returns the underlying cause, if any.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first LoadError in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// Common error constructors.

// NewScriptNotFoundError reports a missing .plf file.
func NewScriptNotFoundError(path string, err error) *LoadError {
	return &LoadError{
		Kind:    KindScriptNotFound,
		Message: fmt.Sprintf("population loader file %q does not exist", path),
		Name:    path,
		Pos:     -1,
		Err:     err,
	}
}

// NewSyntaxError reports malformed script text at pos.
func NewSyntaxError(pos int, format string, args ...interface{}) *LoadError {
	return &LoadError{Kind: KindSyntax, Message: fmt.Sprintf(format, args...), Pos: pos}
}

// NewBindingError reports an unbound or misused name.
func NewBindingError(name, format string, args ...interface{}) *LoadError {
	return &LoadError{Kind: KindBinding, Message: fmt.Sprintf(format, args...), Name: name, Pos: -1}
}

// NewFileError reports a file that could not be resolved or read.
func NewFileError(file string, err error, format string, args ...interface{}) *LoadError {
	return &LoadError{Kind: KindFile, Message: fmt.Sprintf(format, args...), Name: file, Pos: -1, Err: err}
}

// NewDataError reports data that cannot satisfy a keyword operation.
func NewDataError(name, format string, args ...interface{}) *LoadError {
	return &LoadError{Kind: KindData, Message: fmt.Sprintf(format, args...), Name: name, Pos: -1}
}
