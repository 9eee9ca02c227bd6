package vcs

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrNotARepository = errors.New("not a repository")
	ErrInvalidRef     = errors.New("invalid reference")
	ErrFileNotFound   = errors.New("file not found")
	ErrOther          = errors.New("vcs error")
)

// Error carries one of the kind sentinels plus the offending ref or path and
// the underlying cause when there is one.
type Error struct {
	Kind    error
	Subject string
	Msg     string
	Err     error
}

func (e *Error) Error() string {
	var msg string
	switch {
	case e.Msg != "":
		msg = e.Msg
	case e.Subject != "":
		msg = fmt.Sprintf("%v: %s", e.Kind, e.Subject)
	default:
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotARepository reports that discovery found no repository from path.
func NotARepository(path string, cause error) error {
	return &Error{Kind: ErrNotARepository, Subject: path, Err: cause}
}

// InvalidRef reports a reference that failed validation or resolution.
func InvalidRef(ref string) error {
	return &Error{Kind: ErrInvalidRef, Subject: ref}
}

// RejectedRef reports a reference refused before resolution.
func RejectedRef(ref, reason string) error {
	return &Error{Kind: ErrInvalidRef, Subject: ref, Msg: reason}
}

// FileNotFound reports a path absent from the requested revision.
func FileNotFound(path string) error {
	return &Error{Kind: ErrFileNotFound, Subject: path}
}

// Other wraps a lower-level failure with context, e.g.
// Other(err, "failed to get commit tree").
func Other(cause error, context string) error {
	return &Error{Kind: ErrOther, Msg: context, Err: cause}
}

// Otherf builds an ErrOther without an underlying cause.
func Otherf(format string, args ...any) error {
	return &Error{Kind: ErrOther, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind sentinel of err, or nil when err is not a vcs error.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}
