package render

import (
	"fmt"
)

// Scalar is a value that also carries named attributes. A name-like string
// answer is a Scalar whose attributes are its case variants, so both
// `project_name` and `project_name.snake` resolve.
type Scalar struct {
	Value interface{}
	Attrs map[string]interface{}
}

// Context is an immutable set of variable bindings. Values are strings,
// bools, ints, lists ([]interface{}), nested maps (map[string]interface{})
// or Scalars.
type Context struct {
	vars map[string]interface{}
}

// NewContext normalizes and deep-copies vars so later changes by the caller
// are never observed during rendering.
func NewContext(vars map[string]interface{}) (Context, error) {
	out := make(map[string]interface{}, len(vars))
	for k, v := range vars {
		nv, err := normalize(v)
		if err != nil {
			return Context{}, fmt.Errorf("variable %q: %w", k, err)
		}
		out[k] = nv
	}
	return Context{vars: out}, nil
}

// Lookup returns the top-level binding for name.
func (c Context) Lookup(name string) (interface{}, bool) {
	v, ok := c.vars[name]
	return v, ok
}

// Resolve follows a dotted path such as "project_name.snake".
func (c Context) Resolve(path ...string) (interface{}, bool) {
	if len(path) == 0 {
		return nil, false
	}
	v, ok := c.vars[path[0]]
	if !ok {
		return nil, false
	}
	return attr(v, path[1:])
}

func attr(v interface{}, path []string) (interface{}, bool) {
	for _, p := range path {
		switch t := v.(type) {
		case Scalar:
			next, ok := t.Attrs[p]
			if !ok {
				return nil, false
			}
			v = next
		case map[string]interface{}:
			next, ok := t[p]
			if !ok {
				return nil, false
			}
			v = next
		default:
			return nil, false
		}
	}
	return v, true
}

func normalize(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case string, bool, int:
		return t, nil
	case int64:
		return int(t), nil
	case int32:
		return int(t), nil
	case []string:
		out := make([]interface{}, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			ne, err := normalize(e)
			if err != nil {
				return nil, err
			}
			out[i] = ne
		}
		return out, nil
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			ne, err := normalize(e)
			if err != nil {
				return nil, err
			}
			out[k] = ne
		}
		return out, nil
	case map[string]string:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = e
		}
		return out, nil
	case Scalar:
		val, err := normalize(t.Value)
		if err != nil {
			return nil, err
		}
		attrs := make(map[string]interface{}, len(t.Attrs))
		for k, e := range t.Attrs {
			ne, err := normalize(e)
			if err != nil {
				return nil, err
			}
			attrs[k] = ne
		}
		return Scalar{Value: val, Attrs: attrs}, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

// unwrap strips Scalar wrappers so operators see the plain value.
func unwrap(v interface{}) interface{} {
	for {
		s, ok := v.(Scalar)
		if !ok {
			return v
		}
		v = s.Value
	}
}
