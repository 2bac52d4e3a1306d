// Package errs defines the failure kinds reported by the mutation pipeline.
//
// Every fatal error carries a Kind and the path or parameter it concerns, so
// callers can print "what went wrong where" without string matching:
//
//	if errors.Is(err, errs.NotFound) {
//	    output.Error("registry file is missing")
//	}
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindMalformedTarget
	KindTemplate
	KindSchemaMismatch
	KindCollision
)

// String returns the kind name as shown to users.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindNotFound:
		return "NotFound"
	case KindMalformedTarget:
		return "MalformedTarget"
	case KindTemplate:
		return "TemplateError"
	case KindSchemaMismatch:
		return "SchemaMismatch"
	case KindCollision:
		return "Collision"
	default:
		return "Unknown"
	}
}

// Sentinels for errors.Is matching.
var (
	Validation      = &Error{Kind: KindValidation}
	NotFound        = &Error{Kind: KindNotFound}
	MalformedTarget = &Error{Kind: KindMalformedTarget}
	Template        = &Error{Kind: KindTemplate}
	SchemaMismatch  = &Error{Kind: KindSchemaMismatch}
	Collision       = &Error{Kind: KindCollision}
)

// Error is a classified failure concerning one path or parameter.
type Error struct {
	Kind    Kind
	Subject string // offending path or parameter name
	Msg     string
	Err     error
}

// Error formats as "Kind: subject: message".
func (e *Error) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Subject == "" {
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Subject, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// New creates a classified error with a formatted message.
func New(kind Kind, subject, format string, args ...any) error {
	return &Error{Kind: kind, Subject: subject, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, subject string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Subject: subject, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
