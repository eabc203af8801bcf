// Package connector provides a client for the z/VM cloud connector REST
// service: a fixed catalog of named operations, per-call token exchange,
// response classification, checksum-verified image streaming, and a uniform
// result envelope for every outcome.
package connector

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the failure taxonomy. Use errors.Is(err, connector.ErrX)
// to check. Call and Do never return these; they map them onto a Result.
var (
	ErrUnknownOperation   = errors.New("connector: unknown operation")
	ErrArgumentCount      = errors.New("connector: wrong number of arguments")
	ErrArgumentType       = errors.New("connector: argument has the wrong type")
	ErrCredentialNotFound = errors.New("connector: admin credential not found")
	ErrCredentialRead     = errors.New("connector: admin credential read failed")
	ErrServiceUnavailable = errors.New("connector: service unavailable")
	ErrUnexpectedResponse = errors.New("connector: unexpected response")
	ErrIntegrity          = errors.New("connector: checksum mismatch")
	ErrFileAccess         = errors.New("connector: local file access failed")
	ErrCACertNotFound     = errors.New("connector: CA certificate not found")
)

// UnknownOperationError reports an operation name missing from the registry.
type UnknownOperationError struct {
	Name string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("%v: %q", ErrUnknownOperation, e.Name)
}

func (e *UnknownOperationError) Unwrap() error {
	return ErrUnknownOperation
}

// ResponseError carries the details of an HTTP response that could not be
// turned into a result: the URL, status, reason phrase, and a bounded excerpt
// of the body text. Err is ErrServiceUnavailable or ErrUnexpectedResponse.
type ResponseError struct {
	URL        string
	StatusCode int
	Reason     string
	Text       string
	Err        error // sentinel, for errors.Is()
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%v: %s: HTTP %d %s: %s", e.Err, e.URL, e.StatusCode, e.Reason, e.Text)
}

func (e *ResponseError) Unwrap() error {
	return e.Err
}

// IntegrityError reports a streamed payload whose accumulated checksum does
// not match the checksum the service declared for it.
type IntegrityError struct {
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("connector: corrupt image download: checksum was %s, expected %s", e.Actual, e.Expected)
}

func (e *IntegrityError) Unwrap() error {
	return ErrIntegrity
}

// maxErrorText bounds how much of an error response body is kept for the
// envelope message.
const maxErrorText = 1024

// reasonPhrase returns the reason phrase for status, falling back to the
// standard text when the transport did not preserve one.
func reasonPhrase(resp *http.Response) string {
	if len(resp.Status) > 4 && resp.Status[3] == ' ' {
		return resp.Status[4:]
	}

	return http.StatusText(resp.StatusCode)
}
