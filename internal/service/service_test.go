package service_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sclevine/spec"
	"github.com/sclevine/spec/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AidanDelaney/cpr/internal/service"
)

func TestService(t *testing.T) {
	spec.Run(t, "Service", testService, spec.Report(report.Terminal{}))
}

func testService(t *testing.T, when spec.G, it spec.S) {
	var cfg service.Config

	it.Before(func() {
		cfg = service.DefaultConfig()
		require.NoError(t, cfg.Add("gl", "https://gitlab.com/{{repo}}.git"))
	})

	when("#ParseRef", func() {
		it("splits prefix and path", func() {
			ref, err := service.ParseRef("gh:cpr-rs/cpp")
			require.NoError(t, err)
			assert.Equal(t, service.Ref{Prefix: "gh", RepoPath: "cpr-rs/cpp"}, ref)
			assert.Equal(t, "cpp", ref.Name())
			assert.Equal(t, "gh:cpr-rs/cpp", ref.String())
		})

		it("leaves the prefix empty when omitted", func() {
			ref, err := service.ParseRef("cpr-rs/cpp")
			require.NoError(t, err)
			assert.Equal(t, "", ref.Prefix)
		})

		it("keeps full URLs verbatim", func() {
			ref, err := service.ParseRef("https://example.com/a/b.git")
			require.NoError(t, err)
			assert.Equal(t, "https://example.com/a/b.git", ref.URL)
			assert.Equal(t, "b", ref.Name())
		})

		it("rejects empty paths", func() {
			_, err := service.ParseRef("gh:")
			assert.Error(t, err)
		})
	})

	when("#Resolve", func() {
		it("substitutes the repository path", func() {
			for _, in := range []string{"gh:owner/name", "gl:group/sub/name", "owner/name"} {
				ref, err := service.ParseRef(in)
				require.NoError(t, err)
				url, err := service.Resolve(ref, cfg)
				require.NoError(t, err)
				assert.NotContains(t, url, "{{")
				assert.NotContains(t, url, "}}")
				assert.True(t, strings.Contains(url, ref.RepoPath), url)
			}
		})

		it("uses the default service for unprefixed references", func() {
			url, err := service.Resolve(service.Ref{RepoPath: "cpr-rs/cpp"}, cfg)
			require.NoError(t, err)
			assert.Equal(t, "https://github.com/cpr-rs/cpp.git", url)
		})

		it("fails on an unknown prefix", func() {
			_, err := service.Resolve(service.Ref{Prefix: "bb", RepoPath: "a/b"}, cfg)
			var unknown *service.UnknownServiceError
			require.True(t, errors.As(err, &unknown))
			assert.Equal(t, "bb", unknown.Prefix)
		})
	})

	when("editing services", func() {
		it("rejects patterns without exactly one placeholder", func() {
			assert.ErrorIs(t, cfg.Add("x", "https://example.com/repo.git"), service.ErrInvalidPattern)
			assert.ErrorIs(t, cfg.Add("x", "https://{{ repo }}/{{ repo }}"), service.ErrInvalidPattern)
		})

		it("removes services and clears a removed default", func() {
			require.NoError(t, cfg.Remove("gh"))
			assert.Equal(t, "", cfg.DefaultService)
			var unknown *service.UnknownServiceError
			assert.True(t, errors.As(cfg.Remove("gh"), &unknown))
		})

		it("folds prefixes to lower case", func() {
			require.NoError(t, cfg.Add("BB", "https://bitbucket.org/{{ repo }}.git"))
			assert.Contains(t, cfg.Services, "bb")
			assert.NotContains(t, cfg.Services, "BB")
			require.NoError(t, cfg.SetDefault("Bb"))
			assert.Equal(t, "bb", cfg.DefaultService)
		})

		it("only accepts known defaults", func() {
			require.NoError(t, cfg.SetDefault("gl"))
			assert.Equal(t, "gl", cfg.DefaultService)
			var unknown *service.UnknownServiceError
			assert.True(t, errors.As(cfg.SetDefault("nope"), &unknown))
		})
	})

	when("persisting", func() {
		var path string

		it.Before(func() {
			path = filepath.Join(t.TempDir(), "nested", "config.toml")
		})

		it("creates a default file on first load", func() {
			loaded, created, err := service.LoadOrInit(path)
			require.NoError(t, err)
			assert.True(t, created)
			assert.Equal(t, service.DefaultConfig(), loaded)

			_, created, err = service.LoadOrInit(path)
			require.NoError(t, err)
			assert.False(t, created)
		})

		it("round trips added services", func() {
			require.NoError(t, service.Save(path, cfg))
			loaded, err := service.Load(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})

		it("resolves a service added in upper case after a reload", func() {
			require.NoError(t, cfg.Add("GL", "https://gitlab.example.com/{{ repo }}.git"))
			require.NoError(t, service.Save(path, cfg))
			loaded, err := service.Load(path)
			require.NoError(t, err)

			ref, err := service.ParseRef("GL:owner/name")
			require.NoError(t, err)
			url, err := service.Resolve(ref, loaded)
			require.NoError(t, err)
			assert.Equal(t, "https://gitlab.example.com/owner/name.git", url)
		})

		it("lets the environment override the default service", func() {
			require.NoError(t, service.Save(path, cfg))
			t.Setenv("CPR_DEFAULT_SERVICE", "gl")
			loaded, err := service.Load(path)
			require.NoError(t, err)
			assert.Equal(t, "gl", loaded.DefaultService)
		})

		it("rejects a config with a broken pattern", func() {
			require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
			require.NoError(t, os.WriteFile(path, []byte("default_service = \"gh\"\n[services.gh]\nurl = \"https://github.com\"\n"), 0644))
			_, err := service.Load(path)
			assert.ErrorIs(t, err, service.ErrInvalidPattern)
		})
	})
}
