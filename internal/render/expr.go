package render

import (
	"strconv"
	"strings"
	"unicode"
)

type exprTok struct {
	kind string // "ident", "string", "int", "op", "eof"
	val  string
	pos  int // absolute offset in the template source
}

// lexExpr tokenizes an expression that starts at offset base of src.
func lexExpr(src string, base int, text string) ([]exprTok, error) {
	var toks []exprTok
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case strings.IndexByte(whitespace, c) >= 0:
			i++
		case c == '"' || c == '\'':
			var b strings.Builder
			j := i + 1
			closed := false
			for j < len(text) {
				if text[j] == '\\' && j+1 < len(text) {
					switch text[j+1] {
					case 'n':
						b.WriteByte('\n')
					case 't':
						b.WriteByte('\t')
					default:
						b.WriteByte(text[j+1])
					}
					j += 2
					continue
				}
				if text[j] == c {
					closed = true
					break
				}
				b.WriteByte(text[j])
				j++
			}
			if !closed {
				return nil, syntaxErrorf(src, base+i, "unterminated string literal")
			}
			toks = append(toks, exprTok{kind: "string", val: b.String(), pos: base + i})
			i = j + 1
		case c >= '0' && c <= '9':
			j := i
			for j < len(text) && text[j] >= '0' && text[j] <= '9' {
				j++
			}
			toks = append(toks, exprTok{kind: "int", val: text[i:j], pos: base + i})
			i = j
		case c == '_' || unicode.IsLetter(rune(c)):
			j := i
			for j < len(text) && (text[j] == '_' || unicode.IsLetter(rune(text[j])) || unicode.IsDigit(rune(text[j]))) {
				j++
			}
			toks = append(toks, exprTok{kind: "ident", val: text[i:j], pos: base + i})
			i = j
		default:
			op := ""
			for _, candidate := range []string{"==", "!=", "<=", ">=", "&&", "||", "<", ">", "(", ")", "[", "]", ",", ".", "|", "!"} {
				if strings.HasPrefix(text[i:], candidate) {
					op = candidate
					break
				}
			}
			if op == "" {
				return nil, syntaxErrorf(src, base+i, "unexpected character %q", c)
			}
			toks = append(toks, exprTok{kind: "op", val: op, pos: base + i})
			i += len(op)
		}
	}
	toks = append(toks, exprTok{kind: "eof", pos: base + len(text)})
	return toks, nil
}

type expr interface {
	offset() int
}

type literal struct {
	val interface{}
	pos int
}

type pathExpr struct {
	parts []string
	pos   int
}

type listExpr struct {
	items []expr
	pos   int
}

type unaryExpr struct {
	x   expr
	pos int
}

type binaryExpr struct {
	op   string
	l, r expr
	pos  int
}

type filterExpr struct {
	x    expr
	name string
	pos  int
}

// definedExpr is the `x is defined` / `x is not defined` test. It never
// fails on an unbound name.
type definedExpr struct {
	x      *pathExpr
	negate bool
	pos    int
}

func (e *literal) offset() int    { return e.pos }
func (e *pathExpr) offset() int   { return e.pos }
func (e *listExpr) offset() int   { return e.pos }
func (e *unaryExpr) offset() int  { return e.pos }
func (e *binaryExpr) offset() int { return e.pos }
func (e *filterExpr) offset() int { return e.pos }
func (e *definedExpr) offset() int { return e.pos }

func (e *pathExpr) String() string { return strings.Join(e.parts, ".") }

var filters = map[string]bool{
	"snake": true, "kebab": true, "pascal": true, "camel": true,
	"upper": true, "lower": true, "title": true,
}

var keywords = map[string]bool{
	"and": true, "or": true, "not": true, "in": true, "is": true,
	"true": true, "false": true, "if": true, "elif": true, "else": true,
	"endif": true, "for": true, "endfor": true,
}

type exprParser struct {
	src  string
	toks []exprTok
	i    int
}

// parseExpr parses a complete expression located at offset base of src.
func parseExpr(src string, base int, text string) (expr, error) {
	toks, err := lexExpr(src, base, text)
	if err != nil {
		return nil, err
	}
	p := &exprParser{src: src, toks: toks}
	if p.peek().kind == "eof" {
		return nil, syntaxErrorf(src, base, "empty expression")
	}
	e, err := p.or()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != "eof" {
		return nil, syntaxErrorf(src, t.pos, "unexpected %q", t.val)
	}
	return e, nil
}

func (p *exprParser) peek() exprTok { return p.toks[p.i] }

func (p *exprParser) next() exprTok {
	t := p.toks[p.i]
	if t.kind != "eof" {
		p.i++
	}
	return t
}

func (p *exprParser) isOp(vals ...string) bool {
	t := p.peek()
	if t.kind != "op" && t.kind != "ident" {
		return false
	}
	for _, v := range vals {
		if t.val == v {
			return true
		}
	}
	return false
}

func (p *exprParser) or() (expr, error) {
	l, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.isOp("or", "||") {
		t := p.next()
		r, err := p.and()
		if err != nil {
			return nil, err
		}
		l = &binaryExpr{op: "or", l: l, r: r, pos: t.pos}
	}
	return l, nil
}

func (p *exprParser) and() (expr, error) {
	l, err := p.not()
	if err != nil {
		return nil, err
	}
	for p.isOp("and", "&&") {
		t := p.next()
		r, err := p.not()
		if err != nil {
			return nil, err
		}
		l = &binaryExpr{op: "and", l: l, r: r, pos: t.pos}
	}
	return l, nil
}

func (p *exprParser) not() (expr, error) {
	if p.isOp("not", "!") {
		t := p.next()
		x, err := p.not()
		if err != nil {
			return nil, err
		}
		return &unaryExpr{x: x, pos: t.pos}, nil
	}
	return p.compare()
}

func (p *exprParser) compare() (expr, error) {
	l, err := p.filtered()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if p.isOp("is") {
		return p.test(l)
	}
	op := ""
	switch {
	case p.isOp("==", "!=", "<", "<=", ">", ">="):
		op = t.val
		p.next()
	case p.isOp("in"):
		op = "in"
		p.next()
	case p.isOp("not") && p.toks[p.i+1].kind == "ident" && p.toks[p.i+1].val == "in":
		op = "not in"
		p.next()
		p.next()
	default:
		return l, nil
	}
	r, err := p.filtered()
	if err != nil {
		return nil, err
	}
	return &binaryExpr{op: op, l: l, r: r, pos: t.pos}, nil
}

// test parses the `is [not] defined` suffix of l.
func (p *exprParser) test(l expr) (expr, error) {
	t := p.next()
	negate := false
	if p.isOp("not") {
		p.next()
		negate = true
	}
	name := p.next()
	if name.kind != "ident" || name.val != "defined" {
		return nil, syntaxErrorf(p.src, name.pos, "expected \"defined\" after \"is\"")
	}
	path, ok := l.(*pathExpr)
	if !ok {
		return nil, syntaxErrorf(p.src, l.offset(), "only a variable can be tested with \"is defined\"")
	}
	return &definedExpr{x: path, negate: negate, pos: t.pos}, nil
}

func (p *exprParser) filtered() (expr, error) {
	x, err := p.primary()
	if err != nil {
		return nil, err
	}
	for p.isOp("|") {
		p.next()
		t := p.next()
		if t.kind != "ident" {
			return nil, syntaxErrorf(p.src, t.pos, "expected filter name after '|'")
		}
		if !filters[t.val] {
			return nil, syntaxErrorf(p.src, t.pos, "unknown filter %q", t.val)
		}
		x = &filterExpr{x: x, name: t.val, pos: t.pos}
	}
	return x, nil
}

func (p *exprParser) primary() (expr, error) {
	t := p.next()
	switch t.kind {
	case "string":
		return &literal{val: t.val, pos: t.pos}, nil
	case "int":
		n, err := strconv.Atoi(t.val)
		if err != nil {
			return nil, syntaxErrorf(p.src, t.pos, "invalid integer %q", t.val)
		}
		return &literal{val: n, pos: t.pos}, nil
	case "ident":
		switch t.val {
		case "true", "True":
			return &literal{val: true, pos: t.pos}, nil
		case "false", "False":
			return &literal{val: false, pos: t.pos}, nil
		}
		if keywords[t.val] {
			return nil, syntaxErrorf(p.src, t.pos, "unexpected keyword %q", t.val)
		}
		path := &pathExpr{parts: []string{t.val}, pos: t.pos}
		for p.isOp(".") {
			p.next()
			a := p.next()
			if a.kind != "ident" {
				return nil, syntaxErrorf(p.src, a.pos, "expected attribute name after '.'")
			}
			path.parts = append(path.parts, a.val)
		}
		return path, nil
	case "op":
		switch t.val {
		case "(":
			e, err := p.or()
			if err != nil {
				return nil, err
			}
			if c := p.next(); c.val != ")" || c.kind != "op" {
				return nil, syntaxErrorf(p.src, c.pos, "expected ')'")
			}
			return e, nil
		case "[":
			list := &listExpr{pos: t.pos}
			if p.isOp("]") {
				p.next()
				return list, nil
			}
			for {
				item, err := p.or()
				if err != nil {
					return nil, err
				}
				list.items = append(list.items, item)
				c := p.next()
				if c.kind == "op" && c.val == "]" {
					return list, nil
				}
				if c.kind != "op" || c.val != "," {
					return nil, syntaxErrorf(p.src, c.pos, "expected ',' or ']'")
				}
			}
		}
	case "eof":
		return nil, syntaxErrorf(p.src, t.pos, "unexpected end of expression")
	}
	return nil, syntaxErrorf(p.src, t.pos, "unexpected %q", t.val)
}

// references returns the root names an expression reads, in first-use order.
func references(e expr, seen map[string]bool, out []string) []string {
	switch t := e.(type) {
	case *pathExpr:
		if !seen[t.parts[0]] {
			seen[t.parts[0]] = true
			out = append(out, t.parts[0])
		}
	case *listExpr:
		for _, item := range t.items {
			out = references(item, seen, out)
		}
	case *unaryExpr:
		out = references(t.x, seen, out)
	case *binaryExpr:
		out = references(t.l, seen, out)
		out = references(t.r, seen, out)
	case *filterExpr:
		out = references(t.x, seen, out)
	case *definedExpr:
		out = references(t.x, seen, out)
	}
	return out
}
