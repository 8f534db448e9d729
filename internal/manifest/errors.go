package manifest

import "fmt"

// ErrorKind classifies a manifest failure.
type ErrorKind int

const (
	MissingFile ErrorKind = iota
	ParseError
	DuplicateQuestionName
	InvalidDefaultType
	InvalidConditionReference
)

func (k ErrorKind) String() string {
	switch k {
	case MissingFile:
		return "missing file"
	case ParseError:
		return "parse error"
	case DuplicateQuestionName:
		return "duplicate question name"
	case InvalidDefaultType:
		return "invalid default type"
	case InvalidConditionReference:
		return "invalid condition reference"
	}
	return "unknown"
}

// Error reports a manifest that cannot be used. Question is set when the
// failure belongs to one question.
type Error struct {
	Kind     ErrorKind
	File     string
	Question string
	Err      error
}

func (e *Error) Error() string {
	if e.Question != "" {
		return fmt.Sprintf("%s: %s in question %q: %v", e.File, e.Kind, e.Question, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.File, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
