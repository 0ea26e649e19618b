package program

import "errors"

// Kind classifies operation failures so callers can map them to user-facing
// behavior without string matching.
type Kind int

const (
	KindAuthorization Kind = iota
	KindValidation
	KindConflict
	KindNotFound
)

type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func Unauthorized(msg string) error { return &Error{Kind: KindAuthorization, Msg: msg} }
func Invalid(msg string) error      { return &Error{Kind: KindValidation, Msg: msg} }
func Conflict(msg string) error     { return &Error{Kind: KindConflict, Msg: msg} }
func NotFound(msg string) error     { return &Error{Kind: KindNotFound, Msg: msg} }

func kindOf(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

func IsAuthorization(err error) bool { return kindOf(err, KindAuthorization) }
func IsValidation(err error) bool    { return kindOf(err, KindValidation) }

// IsConflict reports an optimistic-concurrency loss. Transition callers
// treat it as a benign no-op, not a hard failure.
func IsConflict(err error) bool { return kindOf(err, KindConflict) }
func IsNotFound(err error) bool { return kindOf(err, KindNotFound) }
