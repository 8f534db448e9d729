package render

import "strings"

type tagKind int

const (
	tagText tagKind = iota
	tagExpr
	tagStmt
)

// segment is a run of literal text or the inside of a {{ }} / {% %} tag.
// pos is the byte offset of val within the template source.
type segment struct {
	kind tagKind
	val  string
	pos  int
}

const whitespace = " \t\r\n"

func closer(open byte) string {
	switch open {
	case '{':
		return "}}"
	case '%':
		return "%}"
	}
	return "#}"
}

// nextTag finds the next "{{", "{%" or "{#" at or after i.
func nextTag(src string, i int) int {
	for {
		j := strings.IndexByte(src[i:], '{')
		if j < 0 || i+j+1 >= len(src) {
			return -1
		}
		j += i
		switch src[j+1] {
		case '{', '%', '#':
			return j
		}
		i = j + 1
	}
}

// findClose returns the offset of the tag closer at or after start. Inside
// {{ }} and {% %} a closer within a quoted string does not count.
func findClose(src string, start int, open byte) int {
	end := closer(open)
	if open == '#' {
		if k := strings.Index(src[start:], end); k >= 0 {
			return start + k
		}
		return -1
	}
	var quote byte
	for k := start; k < len(src); k++ {
		c := src[k]
		switch {
		case quote != 0:
			if c == '\\' {
				k++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case strings.HasPrefix(src[k:], end):
			return k
		}
	}
	return -1
}

// stmtName is the statement keyword with any "-" trim markers removed.
func stmtName(inner string) string {
	inner = strings.TrimSuffix(strings.TrimPrefix(inner, "-"), "-")
	return strings.TrimSpace(inner)
}

// endRaw finds the {% endraw %} closing a raw block whose body starts at i.
// It returns where the tag opens, where its inner text starts and ends, and
// whether it was found.
func endRaw(src string, i int) (open, start, end int, ok bool) {
	for {
		j := strings.Index(src[i:], "{%")
		if j < 0 {
			return 0, 0, 0, false
		}
		j += i
		k := strings.Index(src[j+2:], "%}")
		if k < 0 {
			return 0, 0, 0, false
		}
		if stmtName(src[j+2:j+2+k]) == "endraw" {
			return j, j + 2, j + 2 + k, true
		}
		i = j + 2
	}
}

// split breaks src into text and tag segments, applying "-" whitespace
// trimming and dropping comments. The body of {% raw %} ... {% endraw %} is
// emitted as literal text.
func split(src string) ([]segment, error) {
	var segs []segment
	trimNext := false
	i := 0
	for i < len(src) {
		j := nextTag(src, i)
		if j < 0 {
			text := src[i:]
			if trimNext {
				text = strings.TrimLeft(text, whitespace)
			}
			if text != "" {
				segs = append(segs, segment{kind: tagText, val: text, pos: len(src) - len(text)})
			}
			break
		}

		text := src[i:j]
		textPos := i
		if trimNext {
			trimmed := strings.TrimLeft(text, whitespace)
			textPos += len(text) - len(trimmed)
			text = trimmed
		}

		open := src[j+1]
		start := j + 2
		if start < len(src) && src[start] == '-' {
			text = strings.TrimRight(text, whitespace)
			start++
		}
		if text != "" {
			segs = append(segs, segment{kind: tagText, val: text, pos: textPos})
		}

		end := findClose(src, start, open)
		if end < 0 {
			return nil, syntaxErrorf(src, j, "unclosed tag %q", src[j:j+2])
		}
		inner := src[start:end]
		trimNext = strings.HasSuffix(inner, "-")
		if trimNext {
			inner = inner[:len(inner)-1]
		}
		i = end + 2

		switch open {
		case '{':
			segs = append(segs, segment{kind: tagExpr, val: inner, pos: start})
		case '%':
			if stmtName(inner) != "raw" {
				segs = append(segs, segment{kind: tagStmt, val: inner, pos: start})
				continue
			}
			rawOpen, rawStart, rawEnd, ok := endRaw(src, i)
			if !ok {
				return nil, syntaxErrorf(src, j, "raw block is never closed with endraw")
			}
			body, bodyPos := src[i:rawOpen], i
			if trimNext {
				trimmed := strings.TrimLeft(body, whitespace)
				bodyPos += len(body) - len(trimmed)
				body = trimmed
			}
			if strings.HasPrefix(src[rawStart:], "-") {
				body = strings.TrimRight(body, whitespace)
			}
			if body != "" {
				segs = append(segs, segment{kind: tagText, val: body, pos: bodyPos})
			}
			trimNext = strings.HasSuffix(src[rawStart:rawEnd], "-")
			i = rawEnd + 2
		}
	}
	return segs, nil
}
