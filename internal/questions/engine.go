// Package questions asks a manifest's questions in order and collects typed
// answers. Terminal I/O is delegated to an Asker.
package questions

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/AidanDelaney/cpr/internal/manifest"
	"github.com/AidanDelaney/cpr/internal/render"
)

// ErrCancelled is returned by an Asker when the user interrupts prompting.
var ErrCancelled = errors.New("cancelled by user")

// Asker presents one question and reads one raw answer.
type Asker interface {
	Ask(q manifest.Question) (string, error)
	// Reject tells the user why the last answer was not accepted.
	Reject(q manifest.Question, err error)
}

// Engine runs the question state machine.
type Engine struct {
	Asker Asker
	// Overrides pre-answer questions by name. An override that fails
	// coercion is ignored and the question is asked.
	Overrides map[string]string
	// Scope builds the context skip_if conditions are evaluated against
	// from the answers collected so far. When nil the bare answers are used.
	Scope  func(Answers) (render.Context, error)
	Logger *zap.Logger
}

// Run asks every question in order and returns the collected answers.
// Skipped questions have no answer.
func (e *Engine) Run(questions []manifest.Question) (Answers, error) {
	logger := e.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	answers := Answers{}
	for _, q := range questions {
		skip, err := e.skipped(q, answers)
		if err != nil {
			return Answers{}, err
		}
		if skip {
			logger.Debug("question skipped", zap.String("question", q.Name), zap.Stringer("skip_if", q.SkipIf))
			continue
		}

		if raw, ok := e.Overrides[q.Name]; ok {
			v, err := Coerce(q, raw)
			if err == nil {
				logger.Debug("question overridden", zap.String("question", q.Name), zap.String("value", raw))
				answers = answers.with(q.Name, v)
				continue
			}
			logger.Warn("ignoring invalid override", zap.String("question", q.Name), zap.Error(err))
		}

		v, err := e.ask(q)
		if err != nil {
			return Answers{}, err
		}
		answers = answers.with(q.Name, v)
	}
	return answers, nil
}

// ask prompts until the input coerces.
func (e *Engine) ask(q manifest.Question) (interface{}, error) {
	for {
		raw, err := e.Asker.Ask(q)
		if err != nil {
			if errors.Is(err, ErrCancelled) {
				return nil, err
			}
			return nil, fmt.Errorf("question %s: %w", q.Name, err)
		}
		v, err := Coerce(q, raw)
		if err == nil {
			return v, nil
		}
		e.Asker.Reject(q, err)
	}
}

func (e *Engine) skipped(q manifest.Question, answers Answers) (bool, error) {
	if q.SkipIf == nil {
		return false, nil
	}
	var (
		ctx render.Context
		err error
	)
	if e.Scope != nil {
		ctx, err = e.Scope(answers)
	} else {
		ctx, err = render.NewContext(answers.Map())
	}
	if err != nil {
		return false, err
	}
	skip, err := q.SkipIf.Evaluate(ctx)
	var uerr *render.UndefinedVariableError
	if errors.As(err, &uerr) {
		return false, fmt.Errorf("skip_if of question %s: an earlier question was skipped, guard it with `%s is defined`: %w", q.Name, uerr.Variable, err)
	}
	if err != nil {
		return false, fmt.Errorf("skip_if of question %s: %w", q.Name, err)
	}
	return skip, nil
}
