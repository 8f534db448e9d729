// Package manifest reads a template's question manifest: the ordered list
// of questions asked at generation time and the per-entry skip-if
// directives applied while materializing the tree.
package manifest

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/AidanDelaney/cpr/internal/render"
)

const (
	TOMLFile     string = "cpr.toml"
	YAMLFile     string = "cpr.yaml"
	OverrideFile string = ".override.toml"
)

// ReservedNames are control files at the template root that are never
// copied into the generated project.
var ReservedNames = []string{TOMLFile, YAMLFile, OverrideFile, ".git"}

// Kind is the declared type of a question's answer.
type Kind int

const (
	String Kind = iota
	Bool
	Choice
	Int
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Choice:
		return "choice"
	case Int:
		return "int"
	}
	return "string"
}

// ParseKind maps the manifest spelling of a kind to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "string":
		return String, nil
	case "bool":
		return Bool, nil
	case "choice":
		return Choice, nil
	case "int":
		return Int, nil
	}
	return String, fmt.Errorf("unknown question kind %q", s)
}

// Question is one entry of the manifest.
type Question struct {
	Name     string
	Prompt   string
	Help     string
	Kind     Kind
	Choices  []string
	Default  interface{} // string, bool or int matching Kind; nil when absent
	Required bool
	NameLike bool
	SkipIf   *render.Condition
}

// HasDefault reports whether the question declares a default.
func (q Question) HasDefault() bool {
	return q.Default != nil
}

// Entry is a skip-if directive for one path of the template tree. The entry
// and everything beneath it are kept only while If holds.
type Entry struct {
	Path string
	If   *render.Condition
}

// Manifest is a loaded question manifest.
type Manifest struct {
	// File is the manifest file name relative to the template root, empty
	// when the template has none.
	File      string
	Questions []Question
	Entries   []Entry
	// Root is the absolute directory holding the files to materialize.
	Root string
}

// Entry returns the directive for a slash-separated path relative to Root.
func (m *Manifest) Entry(p string) (Entry, bool) {
	for _, e := range m.Entries {
		if e.Path == p {
			return e, true
		}
	}
	return Entry{}, false
}

// IsReserved reports whether a slash-separated path relative to the
// template root is a control file.
func IsReserved(p string) bool {
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	first := strings.SplitN(p, "/", 2)[0]
	for _, r := range ReservedNames {
		if r == ".git" && first == r {
			return true
		}
		if p == r {
			return true
		}
	}
	return false
}

// Load reads the manifest under root. A template without a manifest file
// has no questions. builtins names the context variables conditions may
// reference in addition to questions.
func Load(root string, builtins []string) (*Manifest, error) {
	file := ""
	for _, name := range []string{TOMLFile, YAMLFile} {
		if info, err := os.Stat(filepath.Join(root, name)); err == nil && !info.IsDir() {
			file = name
			break
		}
	}
	if file == "" {
		return &Manifest{Root: root}, nil
	}

	data, err := os.ReadFile(filepath.Join(root, file))
	if err != nil {
		return nil, &Error{Kind: ParseError, File: file, Err: err}
	}
	raw, err := decode(file, data)
	if err != nil {
		return nil, err
	}
	return build(root, file, raw, builtins)
}

func build(root, file string, raw *rawManifest, builtins []string) (*Manifest, error) {
	m := &Manifest{File: file, Root: root}

	if raw.Template.Root != "" && path.Clean(filepath.ToSlash(raw.Template.Root)) != "." {
		rel, err := cleanRel(raw.Template.Root)
		if err != nil {
			return nil, &Error{Kind: ParseError, File: file, Err: fmt.Errorf("template root: %w", err)}
		}
		m.Root = filepath.Join(root, filepath.FromSlash(rel))
		if info, err := os.Stat(m.Root); err != nil || !info.IsDir() {
			return nil, &Error{Kind: MissingFile, File: file, Err: fmt.Errorf("template root %q is not a directory", raw.Template.Root)}
		}
	}

	builtin := map[string]bool{}
	for _, b := range builtins {
		builtin[b] = true
	}
	asked := map[string]bool{}
	known := func(name string) bool { return asked[name] || builtin[name] }

	for _, rq := range raw.Questions {
		if asked[rq.Name] {
			return nil, &Error{Kind: DuplicateQuestionName, File: file, Question: rq.Name, Err: fmt.Errorf("question %q declared twice", rq.Name)}
		}

		q, err := rq.question()
		if err != nil {
			return nil, &Error{Kind: InvalidDefaultType, File: file, Question: rq.Name, Err: err}
		}
		if rq.SkipIf != "" {
			cond, err := render.ParseCondition(rq.SkipIf)
			if err != nil {
				return nil, &Error{Kind: ParseError, File: file, Question: rq.Name, Err: fmt.Errorf("skip_if: %w", err)}
			}
			for _, ref := range cond.References() {
				if !known(ref) {
					return nil, &Error{Kind: InvalidConditionReference, File: file, Question: rq.Name, Err: fmt.Errorf("skip_if references %q, which is not an earlier question", ref)}
				}
			}
			q.SkipIf = cond
		}
		asked[rq.Name] = true
		m.Questions = append(m.Questions, q)
	}

	for _, re := range raw.Entries {
		rel, err := cleanRel(re.Path)
		if err != nil {
			return nil, &Error{Kind: ParseError, File: file, Err: fmt.Errorf("entry %q: %w", re.Path, err)}
		}
		if _, err := os.Lstat(filepath.Join(m.Root, filepath.FromSlash(rel))); err != nil {
			return nil, &Error{Kind: MissingFile, File: file, Err: fmt.Errorf("entry %q does not exist in the template", re.Path)}
		}
		cond, err := render.ParseCondition(re.If)
		if err != nil {
			return nil, &Error{Kind: ParseError, File: file, Err: fmt.Errorf("entry %q: %w", re.Path, err)}
		}
		for _, ref := range cond.References() {
			if !known(ref) {
				return nil, &Error{Kind: InvalidConditionReference, File: file, Err: fmt.Errorf("entry %q references unknown variable %q", re.Path, ref)}
			}
		}
		if _, dup := m.Entry(rel); dup {
			return nil, &Error{Kind: ParseError, File: file, Err: fmt.Errorf("entry %q declared twice", re.Path)}
		}
		m.Entries = append(m.Entries, Entry{Path: rel, If: cond})
	}

	return m, nil
}

// cleanRel normalizes a manifest path and refuses paths leaving the tree.
func cleanRel(p string) (string, error) {
	c := path.Clean(filepath.ToSlash(p))
	if path.IsAbs(c) || c == "." || c == ".." || strings.HasPrefix(c, "../") {
		return "", fmt.Errorf("path %q leaves the template", p)
	}
	return c, nil
}
