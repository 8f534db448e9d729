package manifest

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

var schema = gojsonschema.NewStringLoader(schemaJSON)

type rawManifest struct {
	Template struct {
		Root string `toml:"root" yaml:"root"`
	} `toml:"template" yaml:"template"`
	Questions []rawQuestion `toml:"question" yaml:"question"`
	Entries   []rawEntry    `toml:"entry" yaml:"entry"`
}

type rawQuestion struct {
	Name     string      `toml:"name" yaml:"name"`
	Prompt   string      `toml:"prompt" yaml:"prompt"`
	Help     string      `toml:"help" yaml:"help"`
	Kind     string      `toml:"kind" yaml:"kind"`
	Default  interface{} `toml:"default" yaml:"default"`
	Required bool        `toml:"required" yaml:"required"`
	NameLike bool        `toml:"name_like" yaml:"name_like"`
	Choices  []string    `toml:"choices" yaml:"choices"`
	SkipIf   string      `toml:"skip_if" yaml:"skip_if"`
}

type rawEntry struct {
	Path string `toml:"path" yaml:"path"`
	If   string `toml:"if" yaml:"if"`
}

// decode parses data twice: once generically for schema validation and
// once into the typed raw structures.
func decode(file string, data []byte) (*rawManifest, error) {
	var (
		doc map[string]interface{}
		raw rawManifest
	)
	switch {
	case strings.HasSuffix(file, ".toml"):
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, &Error{Kind: ParseError, File: file, Err: err}
		}
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return nil, &Error{Kind: ParseError, File: file, Err: err}
		}
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, &Error{Kind: ParseError, File: file, Err: err}
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&raw); err != nil && len(bytes.TrimSpace(data)) > 0 {
			return nil, &Error{Kind: ParseError, File: file, Err: err}
		}
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}

	result, err := gojsonschema.Validate(schema, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, &Error{Kind: ParseError, File: file, Err: err}
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, &Error{Kind: ParseError, File: file, Err: fmt.Errorf("%s", strings.Join(msgs, "; "))}
	}
	return &raw, nil
}

// question converts a schema-valid raw question, checking its default
// against its kind.
func (rq rawQuestion) question() (Question, error) {
	kind, err := ParseKind(rq.Kind)
	if err != nil {
		return Question{}, err
	}
	q := Question{
		Name:     rq.Name,
		Prompt:   rq.Prompt,
		Help:     rq.Help,
		Kind:     kind,
		Choices:  rq.Choices,
		Required: rq.Required,
		NameLike: rq.NameLike,
	}
	if q.Prompt == "" {
		q.Prompt = rq.Name
	}
	if kind != Choice && len(rq.Choices) > 0 {
		return Question{}, fmt.Errorf("choices are only valid for kind choice, not %s", kind)
	}
	if rq.NameLike && kind != String {
		return Question{}, fmt.Errorf("name_like is only valid for kind string, not %s", kind)
	}
	if rq.Default == nil {
		return q, nil
	}

	switch kind {
	case String:
		s, ok := rq.Default.(string)
		if !ok {
			return Question{}, fmt.Errorf("default %v is not a string", rq.Default)
		}
		q.Default = s
	case Bool:
		b, ok := rq.Default.(bool)
		if !ok {
			return Question{}, fmt.Errorf("default %v is not a bool", rq.Default)
		}
		q.Default = b
	case Int:
		switch n := rq.Default.(type) {
		case int64:
			q.Default = int(n)
		case int:
			q.Default = n
		default:
			return Question{}, fmt.Errorf("default %v is not an integer", rq.Default)
		}
	case Choice:
		s, ok := rq.Default.(string)
		if !ok || !contains(rq.Choices, s) {
			return Question{}, fmt.Errorf("default %v is not one of %v", rq.Default, rq.Choices)
		}
		q.Default = s
	}
	return q, nil
}

func contains(strings []string, element string) bool {
	for _, s := range strings {
		if s == element {
			return true
		}
	}
	return false
}
