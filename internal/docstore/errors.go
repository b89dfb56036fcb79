package docstore

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is matched by every precondition failure.
var ErrInvalidArgument = errors.New("invalid argument")

// Narrower precondition sentinels; each also matches ErrInvalidArgument.
var (
	ErrInvalidHandle   = fmt.Errorf("%w: database handle", ErrInvalidArgument)
	ErrInvalidKey      = fmt.Errorf("%w: collection key", ErrInvalidArgument)
	ErrInvalidDocument = fmt.Errorf("%w: document", ErrInvalidArgument)
	ErrInvalidFilter   = fmt.Errorf("%w: filter", ErrInvalidArgument)
	ErrInvalidUpdate   = fmt.Errorf("%w: update expression", ErrInvalidArgument)
	ErrInvalidID       = fmt.Errorf("%w: identifier", ErrInvalidArgument)
)

// ArgumentError reports a precondition violation detected before any driver
// call was made.
type ArgumentError struct {
	Op     string // operation name, e.g. "UpdateOne"
	Arg    string // offending argument, e.g. "update"
	Reason string
	Err    error // one of the ErrInvalid* sentinels
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("docstore.%s: invalid %s: %s", e.Op, e.Arg, e.Reason)
}

func (e *ArgumentError) Unwrap() error { return e.Err }

func argErr(op, arg string, sentinel error, format string, args ...any) error {
	return &ArgumentError{
		Op:     op,
		Arg:    arg,
		Reason: fmt.Sprintf(format, args...),
		Err:    sentinel,
	}
}
