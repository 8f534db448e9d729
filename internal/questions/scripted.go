package questions

import (
	"errors"

	"github.com/AidanDelaney/cpr/internal/manifest"
)

// ErrScriptExhausted is returned when a ScriptedAsker runs out of input.
var ErrScriptExhausted = errors.New("no scripted answers left")

// ScriptedAsker answers questions from a fixed list of raw inputs. It
// records what was asked and rejected.
type ScriptedAsker struct {
	Inputs   []string
	Asked    []string
	Rejected []error
}

func (s *ScriptedAsker) Ask(q manifest.Question) (string, error) {
	s.Asked = append(s.Asked, q.Name)
	if len(s.Inputs) == 0 {
		return "", ErrScriptExhausted
	}
	in := s.Inputs[0]
	s.Inputs = s.Inputs[1:]
	return in, nil
}

func (s *ScriptedAsker) Reject(q manifest.Question, err error) {
	s.Rejected = append(s.Rejected, err)
}
