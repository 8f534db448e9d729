package vars_test

import (
	"errors"
	"testing"
	"time"

	"github.com/sclevine/spec"
	"github.com/sclevine/spec/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AidanDelaney/cpr/internal/manifest"
	"github.com/AidanDelaney/cpr/internal/questions"
	"github.com/AidanDelaney/cpr/internal/render"
	"github.com/AidanDelaney/cpr/internal/vars"
)

func TestVars(t *testing.T) {
	spec.Run(t, "Vars", testVars, spec.Report(report.Terminal{}))
}

func testVars(t *testing.T, when spec.G, it spec.S) {
	var builtins vars.Builtins

	render1 := func(ctx render.Context, text string) string {
		out, err := render.Render(text, ctx)
		require.NoError(t, err)
		return out
	}

	it.Before(func() {
		builtins = vars.Builtins{
			Now:         time.Date(2024, time.March, 5, 13, 4, 5, 0, time.UTC),
			ProjectName: "acme",
			Template:    "gh:cpr-rs/cpp",
		}
	})

	when("an answer is name-like", func() {
		it("exposes its case variants", func() {
			qs := []manifest.Question{{Name: "project_name", Kind: manifest.String, NameLike: true}}
			ctx, err := vars.Build(questions.NewAnswers("project_name", "HelloWorld"), qs, builtins)
			require.NoError(t, err)
			assert.Equal(t, "HelloWorld|hello_world|HelloWorld|hello-world|helloWorld", render1(ctx,
				"{{ project_name }}|{{ project_name.snake }}|{{ project_name.pascal }}|{{ project_name.kebab }}|{{ project_name.camel }}"))
		})

		it("exposes demo as demo", func() {
			qs := []manifest.Question{{Name: "project_name", Kind: manifest.String, NameLike: true, Default: "demo"}}
			ctx, err := vars.Build(questions.NewAnswers("project_name", "demo"), qs, builtins)
			require.NoError(t, err)
			v, ok := ctx.Resolve("project_name", "snake")
			require.True(t, ok)
			assert.Equal(t, "demo", v)
		})
	})

	when("an answer is a choice", func() {
		it("exposes the options for iteration", func() {
			qs := []manifest.Question{{Name: "license", Kind: manifest.Choice, Choices: []string{"MIT", "BSD"}}}
			ctx, err := vars.Build(questions.NewAnswers("license", "BSD"), qs, builtins)
			require.NoError(t, err)
			assert.Equal(t, "BSD:MIT,BSD,", render1(ctx, `{{ license }}:{% for l in license.choices %}{{ l }},{% endfor %}`))
		})
	})

	when("builtins are present", func() {
		it("exposes now and project", func() {
			ctx, err := vars.Build(questions.Answers{}, nil, builtins)
			require.NoError(t, err)
			assert.Equal(t, "2024 2024-03-05 13:04:05 acme gh:cpr-rs/cpp",
				render1(ctx, "{{ now.year }} {{ now.date }} {{ now.time }} {{ project.name }} {{ project.template }}"))
			assert.Equal(t, "2024-03-05T13:04:05Z", render1(ctx, "{{ now }}"))
		})
	})

	when("a question is named like a builtin", func() {
		it("fails with a collision", func() {
			qs := []manifest.Question{{Name: "now", Kind: manifest.String}}
			_, err := vars.Build(questions.NewAnswers("now", "later"), qs, builtins)
			var cerr *vars.CollisionError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, "now", cerr.Name)
		})
	})

	when("a question was skipped", func() {
		it("is left undefined", func() {
			qs := []manifest.Question{{Name: "holder", Kind: manifest.String}}
			ctx, err := vars.Build(questions.Answers{}, qs, builtins)
			require.NoError(t, err)
			_, ok := ctx.Lookup("holder")
			assert.False(t, ok)
		})
	})
}
