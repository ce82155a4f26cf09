package ccodetypes

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel error kinds. Every error returned by the engine matches exactly one
// of these through errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrNoDefaultSet      = errors.New("no default set")
	ErrInvalidConfig     = errors.New("invalid config")
	ErrNothingToBackup   = errors.New("nothing to backup")
	ErrIO                = errors.New("io failure")
	ErrMalformedDocument = errors.New("malformed document")
)

// Error is the typed error carried across the engine boundary.
type Error struct {
	// Kind is one of the sentinel errors above
	Kind error

	// Subject names the entity family involved (e.g. "provider", "router profile", "backup")
	Subject string

	// Name identifies the offending entry, when there is one
	Name string

	// Field identifies the offending field for validation failures (e.g. "api_base_url", "Router.think")
	Field string

	// Reason is a human-readable explanation
	Reason string

	// Err is the low-level cause, if any
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	switch {
	case e.Subject != "" && e.Name != "":
		fmt.Fprintf(&b, "%s '%s' %s", e.Subject, e.Name, e.Kind)
	case e.Subject != "":
		fmt.Fprintf(&b, "%s: %s", e.Subject, e.Kind)
	default:
		b.WriteString(e.Kind.Error())
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": %s", e.Field)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NotFound reports a lookup, removal or default change targeting an absent entry.
func NotFound(subject, name string) error {
	return &Error{Kind: ErrNotFound, Subject: subject, Name: name}
}

// AlreadyExists reports an add targeting an existing entry.
func AlreadyExists(subject, name string) error {
	return &Error{Kind: ErrAlreadyExists, Subject: subject, Name: name}
}

// NoDefaultSet reports that a collection has no default configured.
func NoDefaultSet(subject string) error {
	return &Error{Kind: ErrNoDefaultSet, Subject: subject}
}

// InvalidConfig reports a validation failure on a specific field.
func InvalidConfig(field, reason string) error {
	return &Error{Kind: ErrInvalidConfig, Field: field, Reason: reason}
}

// NothingToBackup reports that the file to snapshot does not exist.
func NothingToBackup(path string) error {
	return &Error{Kind: ErrNothingToBackup, Reason: path}
}

// IOFailure wraps a read, write, copy or rename failure.
func IOFailure(op, path string, err error) error {
	return &Error{Kind: ErrIO, Reason: fmt.Sprintf("%s %s", op, path), Err: err}
}

// MalformedDocument wraps a parse failure or an unsupported document shape.
func MalformedDocument(path string, err error) error {
	return &Error{Kind: ErrMalformedDocument, Reason: path, Err: err}
}

// WithSubject returns a copy of err annotated with a subject and name when err is an *Error.
// Other errors are returned unchanged.
func WithSubject(err error, subject, name string) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	annotated := *e
	annotated.Subject = subject
	annotated.Name = name
	return &annotated
}
