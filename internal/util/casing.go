// Package util holds small string helpers shared by the context builder and
// the template filters.
package util

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Masterminds/sprig/v3"
)

var (
	funcs     = sprig.GenericFuncMap()
	snakecase = funcs["snakecase"].(func(string) string)
	kebabcase = funcs["kebabcase"].(func(string) string)
)

// Cases lists the case variants exposed for name-like answers, in the order
// they are attached to the context.
var Cases = []string{"snake", "pascal", "kebab", "camel"}

// Snake converts s to snake_case.
func Snake(s string) string {
	return snakecase(strings.TrimSpace(s))
}

// Kebab converts s to kebab-case.
func Kebab(s string) string {
	return kebabcase(strings.TrimSpace(s))
}

// Pascal converts s to PascalCase.
func Pascal(s string) string {
	var b strings.Builder
	for _, w := range words(s) {
		b.WriteString(capitalize(w))
	}
	return b.String()
}

// Camel converts s to camelCase.
func Camel(s string) string {
	var b strings.Builder
	for i, w := range words(s) {
		if i == 0 {
			b.WriteString(w)
			continue
		}
		b.WriteString(capitalize(w))
	}
	return b.String()
}

// Title converts s to "Title Case" words.
func Title(s string) string {
	ws := words(s)
	for i, w := range ws {
		ws[i] = capitalize(w)
	}
	return strings.Join(ws, " ")
}

// Convert applies the named case transform. The boolean is false for an
// unknown case name.
func Convert(name, s string) (string, bool) {
	switch name {
	case "snake":
		return Snake(s), true
	case "kebab":
		return Kebab(s), true
	case "pascal":
		return Pascal(s), true
	case "camel":
		return Camel(s), true
	case "title":
		return Title(s), true
	case "upper":
		return strings.ToUpper(s), true
	case "lower":
		return strings.ToLower(s), true
	}
	return "", false
}

func words(s string) []string {
	out := []string{}
	for _, w := range strings.Split(Snake(s), "_") {
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

func capitalize(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError {
		return w
	}
	return string(unicode.ToUpper(r)) + w[size:]
}
