package connector

import (
	"errors"
	"fmt"
)

// Module id stamped on every envelope produced by this client.
const modID = 110

// Return-code groups. OverallRC and RC are equal within a group; RS selects
// the specific reason.
const (
	rcRequestError       = 101
	rcServiceUnavailable = 503
	rcInvalidAPI         = 400
)

// Reason codes within rcRequestError.
const (
	RSTransport        = 1
	RSCredentialMiss   = 2
	RSUnexpected       = 3
	RSCredentialRead   = 4
	RSIntegrity        = 5
	RSFileAccess       = 6
	RSUnavailable      = 2 // within rcServiceUnavailable
	RSUnknownOperation = 1 // within rcInvalidAPI
	RSArgumentCount    = 2 // within rcInvalidAPI
	RSArgumentType     = 3 // within rcInvalidAPI
)

// Result is the uniform envelope returned by every public call, on success
// and on failure. Output holds the decoded JSON payload, or "" on failure.
type Result struct {
	OverallRC int    `json:"overallRC"`
	ModID     int    `json:"modID"`
	RC        int    `json:"rc"`
	RS        int    `json:"rs"`
	ErrMsg    string `json:"errmsg"`
	Output    any    `json:"output"`
}

// OK reports whether the call succeeded.
func (r Result) OK() bool {
	return r.OverallRC == 0 && r.RC == 0
}

// Err returns nil for a successful result and an error carrying the envelope
// codes and message otherwise. Convenient for callers that prefer Go errors.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}

	return fmt.Errorf("connector: overallRC=%d rc=%d rs=%d: %s", r.OverallRC, r.RC, r.RS, r.ErrMsg)
}

// Local reports whether a failed result was produced by this client rather
// than returned by the service.
func (r Result) Local() bool {
	return !r.OK() && r.ModID == modID
}

// success wraps a decoded payload in a zero-code envelope.
func success(output any) Result {
	return Result{Output: output}
}

func failure(group, rs int, msg string) Result {
	return Result{
		OverallRC: group,
		ModID:     modID,
		RC:        group,
		RS:        rs,
		ErrMsg:    msg,
		Output:    "",
	}
}

// ResultFromError maps an error from the request pipeline onto an envelope.
// Every category of the taxonomy has its own branch; anything unrecognized
// is reported as a generic transport failure. A nil error yields an empty
// success envelope.
func ResultFromError(err error) Result {
	if err == nil {
		return success("")
	}

	var (
		respErr *ResponseError
		opErr   *UnknownOperationError
	)

	switch {
	case errors.As(err, &opErr):
		return failure(rcInvalidAPI, RSUnknownOperation,
			fmt.Sprintf("Invalid API name, '%s'", opErr.Name))
	case errors.Is(err, ErrUnknownOperation):
		return failure(rcInvalidAPI, RSUnknownOperation,
			fmt.Sprintf("Invalid API name, '%s'", err))
	case errors.Is(err, ErrArgumentCount):
		return failure(rcInvalidAPI, RSArgumentCount,
			fmt.Sprintf("Invalid API arguments: %s", err))
	case errors.Is(err, ErrArgumentType):
		return failure(rcInvalidAPI, RSArgumentType,
			fmt.Sprintf("Invalid API arguments: %s", err))
	case errors.Is(err, ErrCredentialNotFound):
		return failure(rcRequestError, RSCredentialMiss,
			fmt.Sprintf("Token file not found: %s", err))
	case errors.Is(err, ErrCredentialRead):
		return failure(rcRequestError, RSCredentialRead,
			fmt.Sprintf("Get Token failed: %s", err))
	case errors.Is(err, ErrServiceUnavailable):
		reason, text := "", err.Error()
		if errors.As(err, &respErr) {
			reason, text = respErr.Reason, respErr.Text
		}

		return failure(rcServiceUnavailable, RSUnavailable,
			fmt.Sprintf("Service is unavailable. reason: %s, text: %s", reason, text))
	case errors.Is(err, ErrUnexpectedResponse):
		if errors.As(err, &respErr) {
			return failure(rcRequestError, RSUnexpected,
				fmt.Sprintf("Request to url: %s got unexpected response: status_code: %d, reason: %s, text: %s",
					respErr.URL, respErr.StatusCode, respErr.Reason, respErr.Text))
		}

		return failure(rcRequestError, RSUnexpected,
			fmt.Sprintf("Request got unexpected response: %s", err))
	case errors.Is(err, ErrIntegrity):
		return failure(rcRequestError, RSIntegrity,
			fmt.Sprintf("Image integrity check failed: %s", err))
	case errors.Is(err, ErrFileAccess):
		return failure(rcRequestError, RSFileAccess,
			fmt.Sprintf("Local file access failed: %s", err))
	default:
		return failure(rcRequestError, RSTransport,
			fmt.Sprintf("Request to zVM Cloud Connector failed: %s", err))
	}
}
