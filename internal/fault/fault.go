// Package fault holds the error types shared by packages that read and write
// files on behalf of the user. Both carry the offending path so a failure can
// be diagnosed without re-running the command.
package fault

import "fmt"

// IOError is a filesystem read or write failure on Path.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }

func (e *IOError) Unwrap() error { return e.Err }

// DecodeError reports that the file at Path is not well-formed.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("%s: malformed: %v", e.Path, e.Err) }

func (e *DecodeError) Unwrap() error { return e.Err }
