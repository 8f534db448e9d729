// Package render is the template engine used for path names, file content
// and skip-if conditions.
//
// Supported syntax:
//
//	{{ expr }}                         interpolation
//	{% if expr %}...{% elif expr %}...{% else %}...{% endif %}
//	{% for name in expr %}...{% endfor %}
//	{# comment #}
//
// A "-" just inside a tag delimiter ({{- or -%}) trims the whitespace on
// that side of the tag. Expressions support dotted paths, string, int, bool
// and list literals, comparisons, in / not in, and / or / not, parentheses
// and the filters snake, kebab, pascal, camel, upper, lower and title.
//
// Referencing an unbound name is an error; nothing renders as an empty
// string by accident.
package render

import (
	"strings"
)

// Template is a parsed template that can be executed against any number of
// contexts.
type Template struct {
	src   string
	nodes []node
}

// Parse parses text into a Template.
func Parse(text string) (*Template, error) {
	nodes, err := parseTemplate(text)
	if err != nil {
		return nil, err
	}
	return &Template{src: text, nodes: nodes}, nil
}

// Execute renders the template against ctx.
func (t *Template) Execute(ctx Context) (string, error) {
	var out strings.Builder
	x := &executor{src: t.src, ctx: ctx}
	if err := x.run(t.nodes, nil, &out); err != nil {
		return "", err
	}
	return out.String(), nil
}

// Render parses and executes text in one step.
func Render(text string, ctx Context) (string, error) {
	t, err := Parse(text)
	if err != nil {
		return "", err
	}
	return t.Execute(ctx)
}

// HasMarkup reports whether text contains any tag delimiter, letting callers
// skip the engine for plain names.
func HasMarkup(text string) bool {
	return nextTag(text, 0) >= 0
}

// Condition is a parsed boolean expression, as used by skip-if directives.
type Condition struct {
	src string
	x   expr
}

// ParseCondition parses a standalone expression.
func ParseCondition(text string) (*Condition, error) {
	x, err := parseExpr(text, 0, text)
	if err != nil {
		return nil, err
	}
	return &Condition{src: text, x: x}, nil
}

// References returns the top-level names the condition reads, in order of
// first use.
func (c *Condition) References() []string {
	return references(c.x, map[string]bool{}, nil)
}

// Evaluate reports whether the condition holds in ctx.
func (c *Condition) Evaluate(ctx Context) (bool, error) {
	x := &executor{src: c.src, ctx: ctx}
	v, err := x.eval(c.x, nil)
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}

func (c *Condition) String() string {
	return c.src
}

// EvaluateCondition parses and evaluates text in one step.
func EvaluateCondition(text string, ctx Context) (bool, error) {
	c, err := ParseCondition(text)
	if err != nil {
		return false, err
	}
	return c.Evaluate(ctx)
}
