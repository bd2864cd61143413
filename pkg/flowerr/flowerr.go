// Package flowerr defines the error taxonomy shared by the syntax, eval,
// stage, rbac, and runtime packages.
package flowerr

import "fmt"

// Kind categorizes a failure so callers and tests can assert on error class
// without parsing message text.
type Kind string

const (
	ParseError         Kind = "ParseError"
	UnknownName        Kind = "UnknownName"
	ArgumentError      Kind = "ArgumentError"
	TypeError          Kind = "TypeError"
	InvalidParameter   Kind = "InvalidParameter"
	MissingFixture     Kind = "MissingFixture"
	StageNotReversible Kind = "StageNotReversible"
	NoDirectionMatch   Kind = "NoDirectionMatch"
	RbacSchema         Kind = "RbacSchema"
	KvSchema           Kind = "KvSchema"
)

// Error is the single diagnostic type produced by every component. Every
// run() either completes or fails with exactly one of these.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	fe, ok := err.(*Error)
	if !ok {
		return false
	}
	return fe.Kind == kind
}
