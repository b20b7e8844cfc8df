package layout

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a Connection matches exactly one of
// these with errors.Is.
var (
	ErrConnectFailed     = errors.New("connect failed")
	ErrBindFailed        = errors.New("bind failed")
	ErrNamespaceInUse    = errors.New("namespace in use")
	ErrGenerator         = errors.New("generator error")
	ErrContractViolation = errors.New("generator contract violation")
	ErrTransportFault    = errors.New("transport fault")
)

// Error carries the kind of failure plus the operation and output it
// happened on.
type Error struct {
	Kind   error  // one of the Err* kinds above
	Op     string // "connect", "bind", "get_layout", "layout_demand", "user_command", "dispatch", ...
	Output string // output name, empty when not output-scoped
	Err    error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Output != "" {
		msg += fmt.Sprintf(" (output %s)", e.Output)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause so errors.Is works for either.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, op, output string, err error) *Error {
	return &Error{Kind: kind, Op: op, Output: output, Err: err}
}

// Exit statuses returned by ExitCode.
const (
	ExitOK                = 0
	ExitFailure           = 1
	ExitUsage             = 2
	ExitConnectFailed     = 3
	ExitBindFailed        = 4
	ExitNamespaceInUse    = 5
	ExitContractViolation = 6
	ExitGenerator         = 7
	ExitTransportFault    = 8
)

// ExitCode maps a run result to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrConnectFailed):
		return ExitConnectFailed
	case errors.Is(err, ErrBindFailed):
		return ExitBindFailed
	case errors.Is(err, ErrNamespaceInUse):
		return ExitNamespaceInUse
	case errors.Is(err, ErrContractViolation):
		return ExitContractViolation
	case errors.Is(err, ErrGenerator):
		return ExitGenerator
	case errors.Is(err, ErrTransportFault):
		return ExitTransportFault
	default:
		return ExitFailure
	}
}
