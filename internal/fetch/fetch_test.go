package fetch_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/sclevine/spec"
	"github.com/sclevine/spec/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/AidanDelaney/cpr/internal/fetch"
)

func TestFetch(t *testing.T) {
	spec.Run(t, "Fetch", testFetch, spec.Report(report.Terminal{}))
}

func testFetch(t *testing.T, when spec.G, it spec.S) {
	var (
		fetcher *fetch.Fetcher
		scratch string
		calls   int
	)

	scratchEntries := func() []os.DirEntry {
		entries, err := os.ReadDir(scratch)
		require.NoError(t, err)
		return entries
	}

	it.Before(func() {
		scratch = t.TempDir()
		calls = 0
		fetcher = fetch.New(zaptest.NewLogger(t))
		fetcher.TempDir = scratch
	})

	when("the source is a local directory", func() {
		var src string

		it.Before(func() {
			src = t.TempDir()
			require.NoError(t, os.MkdirAll(filepath.Join(src, ".git"), 0755))
			require.NoError(t, os.WriteFile(filepath.Join(src, ".git", "HEAD"), []byte("ref"), 0644))
			require.NoError(t, os.WriteFile(filepath.Join(src, "README.md"), []byte("{{ name }}"), 0644))
		})

		it("copies the tree without the git metadata", func() {
			tpl, err := fetcher.Fetch(context.Background(), src)
			require.NoError(t, err)
			defer tpl.Close()

			data, err := os.ReadFile(filepath.Join(tpl.Root, "README.md"))
			require.NoError(t, err)
			assert.Equal(t, "{{ name }}", string(data))
			assert.NoDirExists(t, filepath.Join(tpl.Root, ".git"))
		})

		it("leaves the source untouched and cleans up on close", func() {
			tpl, err := fetcher.Fetch(context.Background(), src)
			require.NoError(t, err)
			require.NoError(t, os.WriteFile(filepath.Join(tpl.Root, "README.md"), []byte("changed"), 0644))

			require.NoError(t, tpl.Close())
			require.NoError(t, tpl.Close())
			assert.Empty(t, scratchEntries())

			data, err := os.ReadFile(filepath.Join(src, "README.md"))
			require.NoError(t, err)
			assert.Equal(t, "{{ name }}", string(data))
		})
	})

	when("the repository does not exist", func() {
		it.Before(func() {
			fetcher.Clone = func(ctx context.Context, dir, url string) error {
				calls++
				return transport.ErrRepositoryNotFound
			}
		})

		it("fails with NotFound, does not retry, and removes the scratch directory", func() {
			_, err := fetcher.Fetch(context.Background(), "https://github.com/doesnotexist/doesnotexist.git")
			var ferr *fetch.Error
			require.True(t, errors.As(err, &ferr))
			assert.Equal(t, fetch.NotFound, ferr.Kind)
			assert.Equal(t, 1, calls)
			assert.Empty(t, scratchEntries())
		})
	})

	when("the host asks for credentials", func() {
		it("reports the repository as missing or private without retrying", func() {
			fetcher.Clone = func(ctx context.Context, dir, url string) error {
				calls++
				return transport.ErrAuthenticationRequired
			}
			_, err := fetcher.Fetch(context.Background(), "https://github.com/doesnotexist/doesnotexist.git")
			var ferr *fetch.Error
			require.True(t, errors.As(err, &ferr))
			assert.Equal(t, fetch.NotFound, ferr.Kind)
			assert.Contains(t, ferr.Error(), "repository not found (or private)")
			assert.ErrorIs(t, err, transport.ErrAuthenticationRequired)
			assert.Equal(t, 1, calls)
			assert.Empty(t, scratchEntries())
		})
	})

	when("the network fails", func() {
		it("retries exactly once", func() {
			fetcher.Clone = func(ctx context.Context, dir, url string) error {
				calls++
				return &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
			}
			_, err := fetcher.Fetch(context.Background(), "https://example.com/a/b.git")
			var ferr *fetch.Error
			require.True(t, errors.As(err, &ferr))
			assert.Equal(t, fetch.NetworkFailure, ferr.Kind)
			assert.Equal(t, 2, calls)
			assert.Empty(t, scratchEntries())
		})

		it("succeeds when the retry succeeds", func() {
			fetcher.Clone = func(ctx context.Context, dir, url string) error {
				calls++
				if calls == 1 {
					return fmt.Errorf("dial: %w", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("i/o timeout")})
				}
				return os.MkdirAll(dir, 0755)
			}
			tpl, err := fetcher.Fetch(context.Background(), "https://example.com/a/b.git")
			require.NoError(t, err)
			assert.Equal(t, 2, calls)
			require.NoError(t, tpl.Close())
		})
	})

	when("#Classify", func() {
		it("maps an anonymous credentials challenge to NotFound", func() {
			assert.Equal(t, fetch.NotFound, fetch.Classify(transport.ErrAuthenticationRequired))
			assert.Equal(t, fetch.NotFound, fetch.Classify(fmt.Errorf("clone: %w", transport.ErrAuthenticationRequired)))
		})

		it("maps rejected credentials to AuthRequired", func() {
			assert.Equal(t, fetch.AuthRequired, fetch.Classify(fmt.Errorf("clone: %w", transport.ErrAuthorizationFailed)))
			assert.Equal(t, fetch.AuthRequired, fetch.Classify(transport.ErrInvalidAuthMethod))
		})

		it("maps everything else to Other", func() {
			assert.Equal(t, fetch.Other, fetch.Classify(errors.New("object not found")))
		})
	})
}
