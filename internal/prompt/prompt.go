// Package prompt asks questions on a terminal with survey.
package prompt

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/AidanDelaney/cpr/internal/manifest"
	"github.com/AidanDelaney/cpr/internal/questions"
)

// Asker is a questions.Asker backed by survey prompts.
type Asker struct {
	stdio terminal.Stdio
}

var _ questions.Asker = (*Asker)(nil)

// New returns an Asker reading and writing stdio.
func New(stdio terminal.Stdio) *Asker {
	return &Asker{stdio: stdio}
}

// Default returns an Asker on the process's standard streams.
func Default() *Asker {
	return New(terminal.Stdio{In: os.Stdin, Out: os.Stdout, Err: os.Stderr})
}

func (a *Asker) Ask(q manifest.Question) (string, error) {
	var (
		answer string
		err    error
	)
	opts := []survey.AskOpt{survey.WithStdio(a.stdio.In, a.stdio.Out, a.stdio.Err)}

	switch q.Kind {
	case manifest.Bool:
		p := &survey.Confirm{Message: q.Prompt, Help: q.Help}
		if b, ok := q.Default.(bool); ok {
			p.Default = b
		}
		var yes bool
		err = survey.AskOne(p, &yes, opts...)
		answer = strconv.FormatBool(yes)
	case manifest.Choice:
		p := &survey.Select{Message: q.Prompt, Help: q.Help, Options: q.Choices}
		if q.HasDefault() {
			p.Default = q.Default
		}
		err = survey.AskOne(p, &answer, opts...)
	default:
		p := &survey.Input{Message: q.Prompt, Help: q.Help}
		if q.HasDefault() {
			p.Default = fmt.Sprint(q.Default)
		}
		err = survey.AskOne(p, &answer, opts...)
	}

	if errors.Is(err, terminal.InterruptErr) {
		return "", questions.ErrCancelled
	}
	return answer, err
}

func (a *Asker) Reject(q manifest.Question, err error) {
	var verr *questions.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintf(a.stdio.Err, "X %s\n", verr.Msg)
		return
	}
	fmt.Fprintf(a.stdio.Err, "X %v\n", err)
}

// Select asks the user to pick one of options.
func (a *Asker) Select(message string, options []string, def string) (string, error) {
	var answer string
	p := &survey.Select{Message: message, Options: options}
	if def != "" {
		p.Default = def
	}
	err := survey.AskOne(p, &answer, survey.WithStdio(a.stdio.In, a.stdio.Out, a.stdio.Err))
	if errors.Is(err, terminal.InterruptErr) {
		return "", questions.ErrCancelled
	}
	return answer, err
}
