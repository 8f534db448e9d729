package walker_test

import (
	"errors"
	"io"
	"os"
	"path"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/sclevine/spec"
	"github.com/sclevine/spec/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/AidanDelaney/cpr/internal/manifest"
	"github.com/AidanDelaney/cpr/internal/render"
	"github.com/AidanDelaney/cpr/internal/walker"
)

func TestWalker(t *testing.T) {
	spec.Run(t, "Walker", testWalker, spec.Report(report.Terminal{}))
}

// tree returns every regular file under bfs with its content.
func tree(t *testing.T, bfs billy.Filesystem) map[string]string {
	files := map[string]string{}
	err := util.Walk(bfs, "/", func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		f, err := bfs.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return err
		}
		files[path.Clean("/"+p)[1:]] = string(data)
		return nil
	})
	require.NoError(t, err)
	return files
}

func testWalker(t *testing.T, when spec.G, it spec.S) {
	var (
		in, out billy.Filesystem
		ctx     render.Context
		w       *walker.Walker
	)

	write := func(bfs billy.Filesystem, name, content string) {
		require.NoError(t, util.WriteFile(bfs, name, []byte(content), 0644))
	}

	condition := func(text string) *render.Condition {
		c, err := render.ParseCondition(text)
		require.NoError(t, err)
		return c
	}

	it.Before(func() {
		in = memfs.New()
		out = memfs.New()
		var err error
		ctx, err = render.NewContext(map[string]interface{}{
			"project_name": render.Scalar{Value: "My App", Attrs: map[string]interface{}{"snake": "my_app"}},
			"license":      "MIT",
			"with_docs":    false,
			"with_ci":      true,
			"nested":       "a/b",
		})
		require.NoError(t, err)
		w = walker.New(nil, zaptest.NewLogger(t))
	})

	when("the tree is rendered", func() {
		it.Before(func() {
			write(in, "cpr.toml", "[[question]]\n")
			write(in, ".override.toml", "license = \"MIT\"\n")
			write(in, "README.md", "# {{ project_name }}\n")
			write(in, "LICENSE", `{% if license == "MIT" %}MIT License{% else %}Proprietary{% endif %}`)
			write(in, "{{ project_name.snake }}/main.txt", "package {{ project_name.snake }}")
			write(in, "logo.png", "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR{{ not a tag")
		})

		it("renders names and content and skips control files", func() {
			res, err := w.Materialize(in, out, ctx)
			require.NoError(t, err)
			files := tree(t, out)
			assert.Equal(t, "# My App\n", files["README.md"])
			assert.Equal(t, "MIT License", files["LICENSE"])
			assert.Equal(t, "package my_app", files["my_app/main.txt"])
			assert.Equal(t, "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR{{ not a tag", files["logo.png"])
			assert.NotContains(t, files, "cpr.toml")
			assert.NotContains(t, files, ".override.toml")

			assert.Equal(t, []string{"LICENSE", "README.md", "logo.png", "my_app", "my_app/main.txt"}, res.Written)
		})

		it("is deterministic", func() {
			_, err := w.Materialize(in, out, ctx)
			require.NoError(t, err)
			other := memfs.New()
			_, err = w.Materialize(in, other, ctx)
			require.NoError(t, err)
			assert.Equal(t, tree(t, out), tree(t, other))
		})
	})

	when("a directory name is a prefix of a sibling", func() {
		it.Before(func() {
			write(in, "a/b.txt", "b")
			write(in, "a-c.txt", "c")
		})

		it("writes in lexicographic order of the full path", func() {
			res, err := w.Materialize(in, out, ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "a-c.txt", "a/b.txt"}, res.Written)
		})
	})

	when("an entry has a skip-if directive", func() {
		it.Before(func() {
			write(in, "docs/index.md", "docs")
			write(in, "docs/ci/pipeline.yml", "ci")
			write(in, "src/main.txt", "main")
			w = walker.New([]manifest.Entry{
				{Path: "docs", If: condition("with_docs")},
				{Path: "docs/ci", If: condition("with_ci")},
			}, zaptest.NewLogger(t))
		})

		it("prunes the whole subtree when false", func() {
			res, err := w.Materialize(in, out, ctx)
			require.NoError(t, err)
			files := tree(t, out)
			assert.Equal(t, map[string]string{"src/main.txt": "main"}, files)
			assert.Equal(t, []string{"src", "src/main.txt"}, res.Written)
		})
	})

	when("a name renders empty", func() {
		it("prunes the entry", func() {
			write(in, "{% if with_docs %}docs{% endif %}/index.md", "docs")
			write(in, "keep.txt", "keep")
			_, err := w.Materialize(in, out, ctx)
			require.NoError(t, err)
			assert.Equal(t, map[string]string{"keep.txt": "keep"}, tree(t, out))
		})
	})

	when("two siblings render to the same name", func() {
		it("fails before writing either", func() {
			write(in, "a/{{ license }}.txt", "one")
			write(in, "a/MIT.txt", "two")
			write(in, "0first.txt", "first")
			res, err := w.Materialize(in, out, ctx)

			var perr *walker.PathCollisionError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, "a/MIT.txt", perr.Path)

			var werr *walker.Error
			require.True(t, errors.As(err, &werr))
			assert.Equal(t, []string{"0first.txt", "a"}, werr.Completed)
			assert.Equal(t, werr.Completed, res.Written)

			_, statErr := out.Stat("a/MIT.txt")
			assert.True(t, os.IsNotExist(statErr))
		})
	})

	when("the output already has a file", func() {
		it.Before(func() {
			write(in, "README.md", "new")
			write(out, "README.md", "old")
		})

		it("refuses to clobber it", func() {
			_, err := w.Materialize(in, out, ctx)
			var perr *walker.PathCollisionError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, "old", tree(t, out)["README.md"])
		})

		it("replaces it when overwriting", func() {
			w.Overwrite = true
			_, err := w.Materialize(in, out, ctx)
			require.NoError(t, err)
			assert.Equal(t, "new", tree(t, out)["README.md"])
		})
	})

	when("rendering fails", func() {
		it("reports the file and what was already written", func() {
			write(in, "a.txt", "fine")
			write(in, "b.txt", "{{ missing }}")
			write(in, "c.txt", "never")
			_, err := w.Materialize(in, out, ctx)

			var uerr *render.UndefinedVariableError
			require.True(t, errors.As(err, &uerr))
			assert.Equal(t, "b.txt", uerr.File)
			assert.Equal(t, "missing", uerr.Variable)

			var werr *walker.Error
			require.True(t, errors.As(err, &werr))
			assert.Equal(t, []string{"a.txt"}, werr.Completed)
			assert.NotContains(t, tree(t, out), "c.txt")
		})

		it("rejects names that render to a path", func() {
			write(in, "{{ nested }}.txt", "x")
			_, err := w.Materialize(in, out, ctx)
			var serr *render.SyntaxError
			require.True(t, errors.As(err, &serr))
			assert.Equal(t, "{{ nested }}.txt", serr.File)
		})
	})
}
