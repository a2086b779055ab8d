// Package apperrors holds the error taxonomy shared by the record store,
// the token store, the verifier and the services on top of them.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAuthRequired means the caller must re-authenticate; never retried.
	ErrAuthRequired = errors.New("authentication required")
	ErrConflict     = errors.New("validation already running")
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	// ErrMalformedRow is only logged; rows carrying it are dropped from listings.
	ErrMalformedRow = errors.New("malformed row")
)

// RemoteError is a non-2xx answer from an external API.
type RemoteError struct {
	Service string
	Status  int
	Body    string
}

func (e *RemoteError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	if body == "" {
		return fmt.Sprintf("%s request failed: status=%d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s request failed: status=%d body=%s", e.Service, e.Status, body)
}

type Kind int

const (
	KindInternal Kind = iota
	KindAuthRequired
	KindConflict
	KindNotFound
	KindRemote
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindAuthRequired:
		return "auth_required"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindRemote:
		return "remote_error"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "internal"
	}
}

// KindOf classifies err. Auth wins over remote so a rejected refresh grant
// carrying the authorization server body still reads as AuthRequired.
func KindOf(err error) Kind {
	var remote *RemoteError
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrAuthRequired):
		return KindAuthRequired
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.As(err, &remote):
		return KindRemote
	default:
		return KindInternal
	}
}

// Summary is the user-facing message for err; provider bodies are never included.
func Summary(err error) string {
	switch KindOf(err) {
	case KindAuthRequired:
		return "re-authentication required"
	case KindConflict:
		return "validation already running, please wait"
	case KindNotFound:
		return "not found"
	case KindInvalidInput:
		return "invalid request"
	case KindRemote:
		var remote *RemoteError
		if errors.As(err, &remote) {
			return fmt.Sprintf("%s service returned status %d", remote.Service, remote.Status)
		}
		return "upstream service error"
	default:
		return "internal error"
	}
}

// AuthRequired wraps cause so that it matches ErrAuthRequired while keeping
// the original error reachable through errors.As.
func AuthRequired(cause error) error {
	if cause == nil {
		return ErrAuthRequired
	}
	return &authError{cause: cause}
}

type authError struct {
	cause error
}

func (e *authError) Error() string {
	return ErrAuthRequired.Error() + ": " + e.cause.Error()
}

func (e *authError) Unwrap() []error {
	return []error{ErrAuthRequired, e.cause}
}
