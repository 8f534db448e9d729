package util_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AidanDelaney/cpr/internal/util"
)

func TestCasing(t *testing.T) {
	cases := []struct {
		in, snake, kebab, pascal, camel, title string
	}{
		{"demo", "demo", "demo", "Demo", "demo", "Demo"},
		{"HelloWorld", "hello_world", "hello-world", "HelloWorld", "helloWorld", "Hello World"},
		{"hello_world", "hello_world", "hello-world", "HelloWorld", "helloWorld", "Hello World"},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			assert.Equal(t, c.snake, util.Snake(c.in))
			assert.Equal(t, c.kebab, util.Kebab(c.in))
			assert.Equal(t, c.pascal, util.Pascal(c.in))
			assert.Equal(t, c.camel, util.Camel(c.in))
			assert.Equal(t, c.title, util.Title(c.in))
		})
	}
}

func TestConvertUnknown(t *testing.T) {
	_, ok := util.Convert("shouty", "x")
	assert.False(t, ok)

	out, ok := util.Convert("upper", "abc")
	assert.True(t, ok)
	assert.Equal(t, "ABC", out)
}
