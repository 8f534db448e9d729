package render

import (
	"strings"
)

type node interface{}

type textNode struct {
	text string
}

type outputNode struct {
	x expr
}

type branch struct {
	cond expr
	body []node
}

type ifNode struct {
	branches []branch
	orElse   []node
}

type forNode struct {
	name string
	seq  expr
	body []node
	pos  int
}

type templateParser struct {
	src  string
	segs []segment
	i    int
}

// stmt splits a statement tag into its keyword and the remaining text,
// returning the offset of the remainder within the source.
func stmt(s segment) (string, string, int) {
	trimmed := strings.TrimLeft(s.val, whitespace)
	lead := len(s.val) - len(trimmed)
	kw := trimmed
	if n := strings.IndexAny(trimmed, whitespace); n >= 0 {
		kw = trimmed[:n]
	}
	rest := trimmed[len(kw):]
	return kw, rest, s.pos + lead + len(kw)
}

func parseTemplate(src string) ([]node, error) {
	segs, err := split(src)
	if err != nil {
		return nil, err
	}
	p := &templateParser{src: src, segs: segs}
	body, end, err := p.body()
	if err != nil {
		return nil, err
	}
	if end != nil {
		kw, _, _ := stmt(*end)
		return nil, syntaxErrorf(src, end.pos, "unexpected {%% %s %%}", kw)
	}
	return body, nil
}

// body parses nodes until a block-closing statement (elif, else, endif,
// endfor) or the end of input. The closing statement is returned unconsumed
// for the caller to check.
func (p *templateParser) body() ([]node, *segment, error) {
	var nodes []node
	for p.i < len(p.segs) {
		s := p.segs[p.i]
		switch s.kind {
		case tagText:
			p.i++
			nodes = append(nodes, &textNode{text: s.val})
		case tagExpr:
			p.i++
			x, err := parseExpr(p.src, s.pos, s.val)
			if err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, &outputNode{x: x})
		case tagStmt:
			kw, rest, restPos := stmt(s)
			switch kw {
			case "if":
				p.i++
				n, err := p.ifBlock(s, rest, restPos)
				if err != nil {
					return nil, nil, err
				}
				nodes = append(nodes, n)
			case "for":
				p.i++
				n, err := p.forBlock(s, rest, restPos)
				if err != nil {
					return nil, nil, err
				}
				nodes = append(nodes, n)
			case "elif", "else", "endif", "endfor":
				return nodes, &p.segs[p.i], nil
			case "":
				return nil, nil, syntaxErrorf(p.src, s.pos, "empty statement")
			default:
				return nil, nil, syntaxErrorf(p.src, s.pos, "unknown statement %q", kw)
			}
		}
	}
	return nodes, nil, nil
}

func (p *templateParser) ifBlock(open segment, cond string, condPos int) (*ifNode, error) {
	n := &ifNode{}
	for {
		x, err := parseExpr(p.src, condPos, cond)
		if err != nil {
			return nil, err
		}
		body, end, err := p.body()
		if err != nil {
			return nil, err
		}
		n.branches = append(n.branches, branch{cond: x, body: body})
		if end == nil {
			return nil, syntaxErrorf(p.src, open.pos, "unclosed {%% if %%}, expected {%% endif %%}")
		}
		kw, rest, restPos := stmt(*end)
		p.i++
		switch kw {
		case "elif":
			cond, condPos = rest, restPos
			continue
		case "else":
			if strings.TrimSpace(rest) != "" {
				return nil, syntaxErrorf(p.src, restPos, "unexpected text after else")
			}
			orElse, end, err := p.body()
			if err != nil {
				return nil, err
			}
			if end == nil {
				return nil, syntaxErrorf(p.src, open.pos, "unclosed {%% if %%}, expected {%% endif %%}")
			}
			if ekw, _, _ := stmt(*end); ekw != "endif" {
				return nil, syntaxErrorf(p.src, end.pos, "unexpected {%% %s %%} in else block", ekw)
			}
			p.i++
			n.orElse = orElse
			return n, nil
		case "endif":
			return n, nil
		default:
			return nil, syntaxErrorf(p.src, end.pos, "unexpected {%% %s %%} in if block", kw)
		}
	}
}

func (p *templateParser) forBlock(open segment, header string, headerPos int) (*forNode, error) {
	trimmed := strings.TrimLeft(header, whitespace)
	headerPos += len(header) - len(trimmed)
	fields := strings.Fields(trimmed)
	if len(fields) < 3 || fields[1] != "in" {
		return nil, syntaxErrorf(p.src, open.pos, "expected {%% for <name> in <expression> %%}")
	}
	name := fields[0]
	if !isIdent(name) || keywords[name] {
		return nil, syntaxErrorf(p.src, headerPos, "invalid loop variable %q", name)
	}
	inAt := strings.Index(trimmed[len(name):], "in") + len(name) + len("in")
	seq, err := parseExpr(p.src, headerPos+inAt, trimmed[inAt:])
	if err != nil {
		return nil, err
	}
	body, end, err := p.body()
	if err != nil {
		return nil, err
	}
	if end == nil {
		return nil, syntaxErrorf(p.src, open.pos, "unclosed {%% for %%}, expected {%% endfor %%}")
	}
	if kw, _, _ := stmt(*end); kw != "endfor" {
		return nil, syntaxErrorf(p.src, end.pos, "unexpected {%% %s %%} in for block", kw)
	}
	p.i++
	return &forNode{name: name, seq: seq, body: body, pos: open.pos}, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
