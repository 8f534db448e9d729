package walker

import (
	"fmt"
	"strings"
)

// PathCollisionError reports an output path claimed twice, either by two
// template entries or by an entry and a file already in the output.
type PathCollisionError struct {
	Path    string
	Sources []string
}

func (e *PathCollisionError) Error() string {
	if len(e.Sources) > 1 {
		return fmt.Sprintf("%s: rendered from both %s", e.Path, strings.Join(e.Sources, " and "))
	}
	return fmt.Sprintf("%s: already exists in the output", e.Path)
}

// IOError is a filesystem failure on one path.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Error wraps the failure that aborted a walk with the output paths written
// before it, so the caller can decide whether to remove them.
type Error struct {
	Completed []string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("materialize: %v (%d paths written before the failure)", e.Err, len(e.Completed))
}

func (e *Error) Unwrap() error {
	return e.Err
}
