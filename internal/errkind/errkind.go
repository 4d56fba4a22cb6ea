// Package errkind defines the closed set of error kinds the gateway
// distinguishes between, and a typed wrapper that carries one.
package errkind

import (
	"errors"
	"fmt"
)

// Kind is one of the error kinds enumerated in the gateway design.
type Kind string

const (
	ConfigInvalid          Kind = "ConfigInvalid"
	UpstreamConnectFailed  Kind = "UpstreamConnectFailed"
	UpstreamDropped        Kind = "UpstreamDropped"
	ClientDropped          Kind = "ClientDropped"
	ToolBadArguments       Kind = "ToolBadArguments"
	ToolUnauthenticated    Kind = "ToolUnauthenticated"
	BackendTimeout         Kind = "BackendTimeout"
	BackendHTTPError       Kind = "BackendHttpError"
	EmbeddingFailure       Kind = "EmbeddingFailure"
	RetrievalUnavailable   Kind = "RetrievalUnavailable"
	MalformedUpstreamEvent Kind = "MalformedUpstreamEvent"
)

// Error wraps an underlying error with one of the Kind values above.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with kind. If err is nil, kind alone is the message.
func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Newf builds an Error from a format string, matching fmt.Errorf ergonomics.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// As reports whether err (or one it wraps) carries the given kind.
func As(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf returns the Kind carried by err, if any, and whether one was found.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}
