package questions

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AidanDelaney/cpr/internal/manifest"
)

// ValidationError rejects one raw input. It never leaves the engine: the
// question is asked again.
type ValidationError struct {
	Question string
	Input    string
	Msg      string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid answer %q for %s: %s", e.Input, e.Question, e.Msg)
}

func invalid(q manifest.Question, input, format string, args ...interface{}) error {
	return &ValidationError{Question: q.Name, Input: input, Msg: fmt.Sprintf(format, args...)}
}

// Coerce converts raw input to the question's kind. Empty input selects the
// default, is rejected for a required question without one, and otherwise
// yields the kind's zero value.
func Coerce(q manifest.Question, raw string) (interface{}, error) {
	input := strings.TrimSpace(raw)
	if input == "" {
		switch {
		case q.HasDefault():
			return q.Default, nil
		case q.Required:
			return nil, invalid(q, raw, "a value is required")
		case q.Kind == manifest.Choice:
			return nil, invalid(q, raw, "choose one of %s", strings.Join(q.Choices, ", "))
		}
		return zero(q.Kind), nil
	}

	switch q.Kind {
	case manifest.Bool:
		switch strings.ToLower(input) {
		case "y", "yes", "on":
			return true, nil
		case "n", "no", "off":
			return false, nil
		}
		b, err := strconv.ParseBool(input)
		if err != nil {
			return nil, invalid(q, raw, "expected yes or no")
		}
		return b, nil
	case manifest.Int:
		n, err := strconv.Atoi(input)
		if err != nil {
			return nil, invalid(q, raw, "expected an integer")
		}
		return n, nil
	case manifest.Choice:
		for _, c := range q.Choices {
			if c == input {
				return c, nil
			}
		}
		return nil, invalid(q, raw, "choose one of %s", strings.Join(q.Choices, ", "))
	}
	return input, nil
}

func zero(k manifest.Kind) interface{} {
	switch k {
	case manifest.Bool:
		return false
	case manifest.Int:
		return 0
	}
	return ""
}
