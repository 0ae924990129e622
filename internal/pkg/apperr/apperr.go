package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"ethics-review-be/pkg/assistant"
)

// Kind groups errors by how callers should react to them.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindBusy       Kind = "busy"
	KindLocalFile  Kind = "local_file"
	KindDecode     Kind = "decode"
	KindRemote     Kind = "remote"
	KindConnection Kind = "connection"
	KindRunFailed  Kind = "run_failed"
	KindTimeout    Kind = "timeout"
	KindInternal   Kind = "internal"
)

// Error is a classified error. Op names the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a classified error from a message.
func New(kind Kind, op, message string) error {
	return &Error{Kind: kind, Op: op, Err: errors.New(message)}
}

// Wrap attaches kind and op to err. A nil err stays nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the outermost classified error in the chain,
// or KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Classify wraps an error returned by the assistant API with the matching kind.
// Already classified errors are returned unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: remoteKind(err), Op: op, Err: err}
}

func remoteKind(err error) Kind {
	switch {
	case errors.Is(err, assistant.ErrNotFound):
		return KindNotFound
	case errors.Is(err, assistant.ErrRunFailed):
		return KindRunFailed
	case errors.Is(err, assistant.ErrRunTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}

	var apiErr *assistant.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return KindValidation
		case http.StatusNotFound:
			return KindNotFound
		case http.StatusConflict:
			return KindConflict
		}
		return KindRemote
	}

	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return KindConnection
	}
	return KindRemote
}

// HTTPStatus maps a kind to the status code the API answers with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindLocalFile:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindBusy:
		return http.StatusConflict
	case KindRunFailed, KindRemote, KindConnection, KindDecode:
		return http.StatusBadGateway
	case KindTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
