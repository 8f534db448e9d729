// Cpr creates new source projects from project templates. Project templates
// are stored in git repositories, or local directories, and new source
// projects are created on your local filesystem.
package cpr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AidanDelaney/cpr/internal/fetch"
	"github.com/AidanDelaney/cpr/internal/logging"
	"github.com/AidanDelaney/cpr/internal/manifest"
	"github.com/AidanDelaney/cpr/internal/prompt"
	"github.com/AidanDelaney/cpr/internal/questions"
	"github.com/AidanDelaney/cpr/internal/render"
	"github.com/AidanDelaney/cpr/internal/service"
	"github.com/AidanDelaney/cpr/internal/vars"
	"github.com/AidanDelaney/cpr/internal/walker"
)

// ErrProjectExists is returned by New when the project directory is already
// present.
var ErrProjectExists = errors.New("project directory already exists")

// Config maps service prefixes to repository URL patterns.
type Config = service.Config

// Asker presents one question and reads one raw answer.
type Asker = questions.Asker

// Answers are the typed answers collected during a run.
type Answers = questions.Answers

// Fetcher obtains a scratch copy of a template.
type Fetcher = fetch.Fetcher

// Generator drives one template through fetch, questions and
// materialization.
type Generator struct {
	Config    Config
	Asker     Asker
	Logger    *zap.Logger
	Overrides map[string]string
	Fetcher   *Fetcher
	Overwrite bool
	Now       func() time.Time
}

type Option func(*Generator)

// WithConfig sets the service table used to resolve template references.
func WithConfig(cfg Config) Option {
	return func(g *Generator) {
		g.Config = cfg
	}
}

func WithAsker(asker Asker) Option {
	return func(g *Generator) {
		g.Asker = asker
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(g *Generator) {
		g.Logger = logger
	}
}

// WithOverrides pre-answers questions. They win over the template's own
// .override.toml.
func WithOverrides(overrides map[string]string) Option {
	return func(g *Generator) {
		g.Overrides = overrides
	}
}

func WithFetcher(f *Fetcher) Option {
	return func(g *Generator) {
		g.Fetcher = f
	}
}

// WithOverwrite allows replacing files that already exist in the target.
func WithOverwrite(overwrite bool) Option {
	return func(g *Generator) {
		g.Overwrite = overwrite
	}
}

// WithClock fixes the time exposed as the `now` variable.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.Now = now
	}
}

// NewGenerator creates a Generator with the given options.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		Config:    service.DefaultConfig(),
		Logger:    logging.Nop(),
		Overrides: map[string]string{},
		Now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.Asker == nil {
		g.Asker = prompt.Default()
	}
	if g.Fetcher == nil {
		g.Fetcher = fetch.New(g.Logger)
	}
	return g
}

// Result describes a finished generation.
type Result struct {
	RunID   string
	Target  string
	Written []string
	Answers Answers
}

// ProjectName is the directory name New uses when none is given: the last
// segment of the template reference.
func ProjectName(source string) string {
	if fetch.IsLocal(source) {
		abs, err := filepath.Abs(source)
		if err == nil {
			return filepath.Base(abs)
		}
		return filepath.Base(source)
	}
	ref, err := service.ParseRef(source)
	if err != nil {
		return ""
	}
	return ref.Name()
}

// New generates into a directory that must not exist yet.
func (g *Generator) New(ctx context.Context, source, targetDir string) (*Result, error) {
	if _, err := os.Stat(targetDir); err == nil {
		return nil, fmt.Errorf("%s: %w", targetDir, ErrProjectExists)
	}
	return g.Generate(ctx, source, targetDir)
}

// Generate fetches source, asks the template's questions and renders the
// template into targetDir, which is created when missing. The scratch copy
// of the template is removed on every return path.
func (g *Generator) Generate(ctx context.Context, source, targetDir string) (*Result, error) {
	runID := uuid.New().String()
	logger := g.Logger.With(zap.String("run", runID))

	url, err := g.resolve(source)
	if err != nil {
		return nil, err
	}
	logger.Debug("resolved template", zap.String("source", source), zap.String("url", url))

	tpl, err := g.Fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := tpl.Close(); err != nil {
			logger.Warn("could not remove scratch directory", zap.Error(err))
		}
	}()

	m, err := manifest.Load(tpl.Root, vars.BuiltinNames)
	if err != nil {
		return nil, err
	}
	overrides, err := manifest.ReadOverrides(tpl.Root)
	if err != nil {
		return nil, err
	}
	for k, v := range g.Overrides {
		overrides[k] = v
	}

	target, err := filepath.Abs(targetDir)
	if err != nil {
		return nil, err
	}
	builtins := vars.Builtins{Now: g.Now(), ProjectName: filepath.Base(target), Template: source}
	if _, err := vars.Build(questions.Answers{}, m.Questions, builtins); err != nil {
		return nil, err
	}

	engine := &questions.Engine{
		Asker:     g.Asker,
		Overrides: overrides,
		Logger:    logger,
		Scope: func(a questions.Answers) (render.Context, error) {
			return vars.Build(a, m.Questions, builtins)
		},
	}
	answers, err := engine.Run(m.Questions)
	if err != nil {
		return nil, err
	}
	rctx, err := vars.Build(answers, m.Questions, builtins)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(target, 0755); err != nil {
		return nil, &walker.IOError{Path: target, Err: err}
	}
	w := walker.New(m.Entries, logger)
	w.Overwrite = g.Overwrite
	res, err := w.Materialize(osfs.New(m.Root), osfs.New(target), rctx)
	result := &Result{RunID: runID, Target: target, Answers: answers}
	if res != nil {
		result.Written = res.Written
	}
	if err != nil {
		return result, err
	}
	logger.Info("project generated", zap.String("target", target), zap.Int("paths", len(result.Written)))
	return result, nil
}

// resolve maps a local directory to itself and a template reference to its
// fetch URL.
func (g *Generator) resolve(source string) (string, error) {
	if fetch.IsLocal(source) {
		return source, nil
	}
	ref, err := service.ParseRef(source)
	if err != nil {
		return "", err
	}
	return service.Resolve(ref, g.Config)
}
