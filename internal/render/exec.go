package render

import (
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/AidanDelaney/cpr/internal/util"
)

// scope is one lexical binding introduced by a for loop. Lookups walk the
// chain before falling back to the context, so loop variables shadow outer
// names only inside the loop body.
type scope struct {
	name   string
	value  interface{}
	parent *scope
}

func (s *scope) lookup(name string) (interface{}, bool) {
	for ; s != nil; s = s.parent {
		if s.name == name {
			return s.value, true
		}
	}
	return nil, false
}

type executor struct {
	src string
	ctx Context
}

func (x *executor) run(nodes []node, sc *scope, out *strings.Builder) error {
	for _, n := range nodes {
		switch t := n.(type) {
		case *textNode:
			out.WriteString(t.text)
		case *outputNode:
			v, err := x.eval(t.x, sc)
			if err != nil {
				return err
			}
			s, err := x.stringify(t.x, v)
			if err != nil {
				return err
			}
			out.WriteString(s)
		case *ifNode:
			matched := false
			for _, b := range t.branches {
				v, err := x.eval(b.cond, sc)
				if err != nil {
					return err
				}
				if truthy(v) {
					if err := x.run(b.body, sc, out); err != nil {
						return err
					}
					matched = true
					break
				}
			}
			if !matched {
				if err := x.run(t.orElse, sc, out); err != nil {
					return err
				}
			}
		case *forNode:
			if err := x.loop(t, sc, out); err != nil {
				return err
			}
		}
	}
	return nil
}

func (x *executor) loop(n *forNode, sc *scope, out *strings.Builder) error {
	v, err := x.eval(n.seq, sc)
	if err != nil {
		return err
	}
	var items []interface{}
	switch t := unwrap(v).(type) {
	case []interface{}:
		items = t
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			items = append(items, k)
		}
	default:
		return typeErrorf(x.src, n.seq.offset(), "cannot iterate over %s", typeName(v))
	}
	for i, item := range items {
		meta := map[string]interface{}{
			"index":  i + 1,
			"index0": i,
			"first":  i == 0,
			"last":   i == len(items)-1,
			"length": len(items),
		}
		inner := &scope{name: n.name, value: item, parent: &scope{name: "loop", value: meta, parent: sc}}
		if err := x.run(n.body, inner, out); err != nil {
			return err
		}
	}
	return nil
}

func (x *executor) eval(e expr, sc *scope) (interface{}, error) {
	switch t := e.(type) {
	case *literal:
		return t.val, nil
	case *pathExpr:
		return x.resolve(t, sc)
	case *definedExpr:
		_, err := x.resolve(t.x, sc)
		return (err == nil) != t.negate, nil
	case *listExpr:
		items := make([]interface{}, 0, len(t.items))
		for _, item := range t.items {
			v, err := x.eval(item, sc)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	case *unaryExpr:
		v, err := x.eval(t.x, sc)
		if err != nil {
			return nil, err
		}
		return !truthy(v), nil
	case *filterExpr:
		v, err := x.eval(t.x, sc)
		if err != nil {
			return nil, err
		}
		s, ok := unwrap(v).(string)
		if !ok {
			return nil, typeErrorf(x.src, t.pos, "filter %q expects a string, got %s", t.name, typeName(v))
		}
		converted, _ := util.Convert(t.name, s)
		return converted, nil
	case *binaryExpr:
		return x.binary(t, sc)
	}
	return nil, typeErrorf(x.src, e.offset(), "unsupported expression")
}

func (x *executor) resolve(t *pathExpr, sc *scope) (interface{}, error) {
	root, ok := sc.lookup(t.parts[0])
	if !ok {
		root, ok = x.ctx.Lookup(t.parts[0])
	}
	if !ok {
		return nil, &UndefinedVariableError{Variable: t.parts[0]}
	}
	v, ok := attr(root, t.parts[1:])
	if !ok {
		return nil, &UndefinedVariableError{Variable: t.String()}
	}
	return v, nil
}

func (x *executor) binary(b *binaryExpr, sc *scope) (interface{}, error) {
	l, err := x.eval(b.l, sc)
	if err != nil {
		return nil, err
	}
	switch b.op {
	case "and":
		if !truthy(l) {
			return false, nil
		}
		r, err := x.eval(b.r, sc)
		if err != nil {
			return nil, err
		}
		return truthy(r), nil
	case "or":
		if truthy(l) {
			return true, nil
		}
		r, err := x.eval(b.r, sc)
		if err != nil {
			return nil, err
		}
		return truthy(r), nil
	}

	r, err := x.eval(b.r, sc)
	if err != nil {
		return nil, err
	}
	lv, rv := unwrap(l), unwrap(r)
	switch b.op {
	case "==":
		return equal(lv, rv), nil
	case "!=":
		return !equal(lv, rv), nil
	case "in", "not in":
		found, err := x.contains(b, lv, rv)
		if err != nil {
			return nil, err
		}
		return found == (b.op == "in"), nil
	}

	switch lt := lv.(type) {
	case int:
		if rt, ok := rv.(int); ok {
			return order(b.op, compareInts(lt, rt)), nil
		}
	case string:
		if rt, ok := rv.(string); ok {
			return order(b.op, strings.Compare(lt, rt)), nil
		}
	}
	return nil, typeErrorf(x.src, b.pos, "cannot compare %s %s %s", typeName(lv), b.op, typeName(rv))
}

func (x *executor) contains(b *binaryExpr, needle, haystack interface{}) (bool, error) {
	switch h := haystack.(type) {
	case []interface{}:
		for _, item := range h {
			if equal(needle, unwrap(item)) {
				return true, nil
			}
		}
		return false, nil
	case map[string]interface{}:
		k, ok := needle.(string)
		if !ok {
			return false, typeErrorf(x.src, b.pos, "map keys are strings, got %s", typeName(needle))
		}
		_, found := h[k]
		return found, nil
	case string:
		s, ok := needle.(string)
		if !ok {
			return false, typeErrorf(x.src, b.pos, "cannot search a string for %s", typeName(needle))
		}
		return strings.Contains(h, s), nil
	}
	return false, typeErrorf(x.src, b.pos, "cannot search in %s", typeName(haystack))
}

func (x *executor) stringify(at expr, v interface{}) (string, error) {
	switch t := unwrap(v).(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	}
	return "", typeErrorf(x.src, at.offset(), "cannot interpolate %s", typeName(v))
}

func equal(a, b interface{}) bool {
	return reflect.DeepEqual(a, b)
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func order(op string, cmp int) bool {
	switch op {
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	}
	return cmp >= 0
}

func truthy(v interface{}) bool {
	switch t := unwrap(v).(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case []interface{}:
		return len(t) > 0
	case map[string]interface{}:
		return len(t) > 0
	}
	return true
}

func typeName(v interface{}) string {
	switch unwrap(v).(type) {
	case string:
		return "string"
	case bool:
		return "bool"
	case int:
		return "int"
	case []interface{}:
		return "list"
	case map[string]interface{}:
		return "map"
	case nil:
		return "nothing"
	}
	return "value"
}
