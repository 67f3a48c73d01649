package rewrite

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrAbort marks errors that stopped the migration of a single file.
var ErrAbort = errors.New("migration aborted")

// AbortError reports a hard abort within one file.
type AbortError struct {
	File   string
	Reason string
	cause  error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Reason)
}

func (e *AbortError) Unwrap() error { return e.cause }

func newAbortError(file string, cause error) error {
	return errors.Mark(&AbortError{File: file, Reason: cause.Error(), cause: cause}, ErrAbort)
}

// ExtraArgumentError is returned when an annotation carries keys that its
// constructor does not accept.
type ExtraArgumentError struct {
	Type string
	Keys []string
}

func (e *ExtraArgumentError) Error() string {
	return fmt.Sprintf("annotation %s has extra arguments: %s", e.Type, strings.Join(e.Keys, ", "))
}
