// Package fetch obtains a private, disposable copy of a template's source
// tree: a shallow git clone for remote templates or a plain copy for local
// directories.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	cp "github.com/otiai10/copy"
	"go.uber.org/zap"
)

// Kind classifies a fetch failure.
type Kind int

const (
	Other Kind = iota
	NotFound
	AuthRequired
	NetworkFailure
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "repository not found (or private)"
	case AuthRequired:
		return "authentication required"
	case NetworkFailure:
		return "network failure"
	}
	return "other"
}

// Error is returned for any problem obtaining the template.
type Error struct {
	Kind   Kind
	Source string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.Source, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Cloner clones the repository at url into dir.
type Cloner func(ctx context.Context, dir, url string) error

// GitClone is the default Cloner: a depth-1 clone with go-git.
func GitClone(ctx context.Context, dir, url string) error {
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:   url,
		Depth: 1,
	})
	return err
}

// Template is a fetched template tree in a scratch directory owned by the
// caller. Close removes the scratch directory; it is safe to call more than
// once.
type Template struct {
	Root    string
	Source  string
	scratch string
}

// Close releases the scratch directory.
func (t *Template) Close() error {
	if t == nil || t.scratch == "" {
		return nil
	}
	err := os.RemoveAll(t.scratch)
	t.scratch = ""
	return err
}

// Fetcher obtains templates.
type Fetcher struct {
	Clone   Cloner
	TempDir string
	Logger  *zap.Logger
}

// New returns a Fetcher using go-git and the system temporary directory.
func New(logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{Clone: GitClone, Logger: logger}
}

// IsLocal reports whether source names an existing local directory.
func IsLocal(source string) bool {
	info, err := os.Stat(source)
	return err == nil && info.IsDir()
}

// Fetch copies or clones source into a fresh scratch directory. On error
// the scratch directory has already been removed.
func (f *Fetcher) Fetch(ctx context.Context, source string) (*Template, error) {
	scratch, err := os.MkdirTemp(f.TempDir, "cpr")
	if err != nil {
		return nil, &Error{Kind: Other, Source: source, Err: fmt.Errorf("create scratch directory: %w", err)}
	}
	t := &Template{Root: filepath.Join(scratch, "template"), Source: source, scratch: scratch}

	if IsLocal(source) {
		err = copyLocal(source, t.Root)
	} else {
		err = f.clone(ctx, t.Root, source)
	}
	if err != nil {
		_ = t.Close()
		return nil, err
	}
	f.Logger.Debug("fetched template", zap.String("source", source), zap.String("root", t.Root))
	return t, nil
}

// clone runs the Cloner, retrying exactly once after a network failure.
func (f *Fetcher) clone(ctx context.Context, dir, source string) error {
	var ferr *Error
	for attempt := 1; attempt <= 2; attempt++ {
		err := f.Clone(ctx, dir, source)
		if err == nil {
			return nil
		}
		ferr = &Error{Kind: Classify(err), Source: source, Err: err}
		if ferr.Kind != NetworkFailure || attempt == 2 || ctx.Err() != nil {
			break
		}
		f.Logger.Warn("clone failed, retrying", zap.String("source", source), zap.Error(err))
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			return &Error{Kind: Other, Source: source, Err: rmErr}
		}
	}
	return ferr
}

func copyLocal(src, dst string) error {
	err := cp.Copy(src, dst, cp.Options{
		Skip: func(info os.FileInfo, path, _ string) (bool, error) {
			return info.IsDir() && info.Name() == ".git", nil
		},
	})
	if err != nil {
		return &Error{Kind: Other, Source: src, Err: err}
	}
	return nil
}

// Classify maps a clone error to a Kind.
func Classify(err error) Kind {
	switch {
	case errors.Is(err, transport.ErrRepositoryNotFound),
		errors.Is(err, transport.ErrAuthenticationRequired):
		// Clones are anonymous, so a credentials challenge means the
		// repository is missing or private. Hosts such as GitHub answer
		// both the same way.
		return NotFound
	case errors.Is(err, transport.ErrAuthorizationFailed),
		errors.Is(err, transport.ErrInvalidAuthMethod):
		return AuthRequired
	case errors.Is(err, context.DeadlineExceeded):
		return NetworkFailure
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return NetworkFailure
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return NetworkFailure
	}
	msg := err.Error()
	for _, s := range []string{"connection refused", "connection reset", "no such host", "i/o timeout", "unexpected EOF"} {
		if strings.Contains(msg, s) {
			return NetworkFailure
		}
	}
	return Other
}
