package render

import (
	"errors"
	"fmt"
)

// SyntaxError reports malformed template or expression syntax. File is
// empty when the engine is used directly; callers that know the source file
// attach it with WithFile.
type SyntaxError struct {
	File   string
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Msg)
}

// UndefinedVariableError reports a reference to a name that is bound neither
// in the context nor in an enclosing loop.
type UndefinedVariableError struct {
	File     string
	Variable string
}

func (e *UndefinedVariableError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("undefined variable %q", e.Variable)
	}
	return fmt.Sprintf("%s: undefined variable %q", e.File, e.Variable)
}

// TypeError reports an operation applied to a value of the wrong type, for
// example iterating over a string or ordering a bool.
type TypeError struct {
	File   string
	Line   int
	Column int
	Msg    string
}

func (e *TypeError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Msg)
}

// WithFile returns err with file attached when err is one of the engine's
// error types. Other errors are returned unchanged.
func WithFile(err error, file string) error {
	var (
		syn *SyntaxError
		und *UndefinedVariableError
		typ *TypeError
	)
	switch {
	case errors.As(err, &syn):
		c := *syn
		c.File = file
		return &c
	case errors.As(err, &und):
		c := *und
		c.File = file
		return &c
	case errors.As(err, &typ):
		c := *typ
		c.File = file
		return &c
	}
	return err
}

// position converts a byte offset in src to a 1-based line and column.
func position(src string, offset int) (int, int) {
	if offset > len(src) {
		offset = len(src)
	}
	line, col := 1, 1
	for _, r := range src[:offset] {
		if r == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

func syntaxErrorf(src string, offset int, format string, args ...interface{}) *SyntaxError {
	line, col := position(src, offset)
	return &SyntaxError{Line: line, Column: col, Msg: fmt.Sprintf(format, args...)}
}

func typeErrorf(src string, offset int, format string, args ...interface{}) *TypeError {
	line, col := position(src, offset)
	return &TypeError{Line: line, Column: col, Msg: fmt.Sprintf(format, args...)}
}
