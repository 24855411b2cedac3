package api

import (
	"errors"
	"fmt"
)

const genericFailureMessage = "Request failed"

var (
	// ErrRequestFailed matches every *RequestFailedError.
	ErrRequestFailed = errors.New("request failed")

	// ErrSessionExpired means the credential pair could not be renewed and the
	// stored session has been cleared. Callers should force a new sign-in.
	ErrSessionExpired = errors.New("session expired, please sign in again")

	// ErrNotSignedIn is returned by operations that need a stored session.
	ErrNotSignedIn = errors.New("not signed in")
)

// RequestFailedError carries a non-2xx outcome or a transport failure.
// StatusCode is zero when no response was received.
type RequestFailedError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestFailedError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

func (e *RequestFailedError) Unwrap() error {
	return e.Err
}

func (e *RequestFailedError) Is(target error) bool {
	return target == ErrRequestFailed
}

func failed(status int, message string, cause error) *RequestFailedError {
	if message == "" {
		message = genericFailureMessage
	}
	return &RequestFailedError{StatusCode: status, Message: message, Err: cause}
}
