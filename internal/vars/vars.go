// Package vars builds the render context for one generation run from the
// collected answers and the builtin variables.
package vars

import (
	"fmt"
	"time"

	"github.com/AidanDelaney/cpr/internal/manifest"
	"github.com/AidanDelaney/cpr/internal/questions"
	"github.com/AidanDelaney/cpr/internal/render"
	"github.com/AidanDelaney/cpr/internal/util"
)

// BuiltinNames are the top-level variables every context carries.
var BuiltinNames = []string{"now", "project"}

// Builtins are computed once per run.
type Builtins struct {
	Now         time.Time
	ProjectName string
	Template    string
}

// CollisionError reports a question whose name is taken by a builtin.
type CollisionError struct {
	Name string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("question %q collides with the builtin variable of the same name", e.Name)
}

// Build merges answers and builtins into one context. Name-like answers
// carry their case variants as attributes (project_name.snake) and choice
// answers carry their options (license.choices).
func Build(answers questions.Answers, qs []manifest.Question, b Builtins) (render.Context, error) {
	values := b.values()

	for _, q := range qs {
		if _, taken := values[q.Name]; taken {
			return render.Context{}, &CollisionError{Name: q.Name}
		}
		v, ok := answers.Get(q.Name)
		if !ok {
			continue
		}
		values[q.Name] = derive(q, v)
	}
	return render.NewContext(values)
}

func derive(q manifest.Question, v interface{}) interface{} {
	switch {
	case q.NameLike:
		s, ok := v.(string)
		if !ok {
			return v
		}
		attrs := map[string]interface{}{}
		for _, c := range util.Cases {
			attrs[c], _ = util.Convert(c, s)
		}
		return render.Scalar{Value: s, Attrs: attrs}
	case q.Kind == manifest.Choice:
		options := make([]interface{}, 0, len(q.Choices))
		for _, c := range q.Choices {
			options = append(options, c)
		}
		return render.Scalar{Value: v, Attrs: map[string]interface{}{"choices": options}}
	}
	return v
}

func (b Builtins) values() map[string]interface{} {
	now := b.Now
	if now.IsZero() {
		now = time.Now()
	}
	return map[string]interface{}{
		"now": render.Scalar{
			Value: now.Format(time.RFC3339),
			Attrs: map[string]interface{}{
				"year":  now.Year(),
				"month": int(now.Month()),
				"day":   now.Day(),
				"date":  now.Format("2006-01-02"),
				"time":  now.Format("15:04:05"),
			},
		},
		"project": map[string]interface{}{
			"name":     b.ProjectName,
			"template": b.Template,
		},
	}
}
