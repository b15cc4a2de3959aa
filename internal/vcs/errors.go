package vcs

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedURL is returned for URLs the git transports cannot parse.
	ErrMalformedURL = errors.New("malformed repository URL")
	// ErrRemoteNotFound is returned when a working copy has no upstream
	// remote for its current branch.
	ErrRemoteNotFound = errors.New("no upstream remote configured")
	// ErrInvalidRemote is returned when the upstream remote has no usable URL.
	ErrInvalidRemote = errors.New("upstream remote has no usable URL")
	// ErrHeadNotFound is returned when a remote does not advertise HEAD.
	ErrHeadNotFound = errors.New("remote does not advertise HEAD")
)

// Error is a failed git operation against Target, a URL or working copy path.
type Error struct {
	Op     string
	Target string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("git %s %s: %v", e.Op, e.Target, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(op, target string, err error) error {
	if err == nil {
		return nil
	}
	var vErr *Error
	if errors.As(err, &vErr) {
		return err
	}
	return &Error{Op: op, Target: target, Err: err}
}
