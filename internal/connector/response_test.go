package connector

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCall_OperationUnavailableRegardlessOfContentType(t *testing.T) {
	for _, ct := range []string{contentTypeJSON, contentTypeBinary, "text/html", ""} {
		t.Run(ct, func(t *testing.T) {
			fs := newFakeService(t, func(w http.ResponseWriter, _ *http.Request) {
				if ct != "" {
					w.Header().Set("Content-Type", ct)
				}

				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = io.WriteString(w, `{"overallRC":0}`)
			})
			c := newTestClient(t, fs)

			res := c.Do(bg(), GuestGetInfo{UserID: "TESTID"})

			assert.Equal(t, rcServiceUnavailable, res.OverallRC)
			assert.Equal(t, RSUnavailable, res.RS)
			assert.Equal(t, "", res.Output)
			assert.Contains(t, res.ErrMsg, "Service Unavailable")
		})
	}
}

func TestCall_UnexpectedContentTypeNotParsed(t *testing.T) {
	fs := newFakeService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, `{"overallRC":0,"output":"looks like json"}`)
	})
	c := newTestClient(t, fs)

	res := c.Do(bg(), GuestList{})

	assert.Equal(t, rcRequestError, res.OverallRC)
	assert.Equal(t, RSUnexpected, res.RS)
	assert.Equal(t, "", res.Output)
	assert.Contains(t, res.ErrMsg, "status_code: 200")
	assert.Contains(t, res.ErrMsg, fs.srv.URL+"/guests")
}

func TestCall_JSONWithParameters(t *testing.T) {
	fs := newFakeService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=UTF-8")
		_, _ = io.WriteString(w, `["TESTID"]`)
	})
	c := newTestClient(t, fs)

	res := c.Do(bg(), GuestList{})

	assert.True(t, res.OK(), res.String())
	assert.Equal(t, []any{"TESTID"}, res.Output)
}

func TestCall_ErrorStatusWithoutEnvelope(t *testing.T) {
	fs := newFakeService(t, jsonHandler(http.StatusInternalServerError, `{"message":"boom"}`))
	c := newTestClient(t, fs)

	res := c.Do(bg(), HostGetInfo{})

	assert.Equal(t, rcRequestError, res.OverallRC)
	assert.Equal(t, RSUnexpected, res.RS)
	assert.Contains(t, res.ErrMsg, "status_code: 500")
	assert.Contains(t, res.ErrMsg, "boom")
}

func TestCall_MalformedJSON(t *testing.T) {
	fs := newFakeService(t, jsonHandler(http.StatusOK, `{"unterminated":`))
	c := newTestClient(t, fs)

	res := c.Do(bg(), HostGetInfo{})

	assert.Equal(t, RSUnexpected, res.RS)
}

func TestCall_BinaryErrorStatus(t *testing.T) {
	fs := newFakeService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentTypeBinary)
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "no such image")
	})
	c := newTestClient(t, fs)

	res := c.Do(bg(), ImageDownload{ImageName: "img"})

	assert.Equal(t, RSUnexpected, res.RS)
	assert.Contains(t, res.ErrMsg, "no such image")
}

func TestCall_ErrorTextBounded(t *testing.T) {
	fs := newFakeService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, strings.Repeat("x", 10*maxErrorText))
	})
	c := newTestClient(t, fs)

	res := c.Do(bg(), GuestList{})

	assert.Equal(t, RSUnexpected, res.RS)
	assert.Less(t, len(res.ErrMsg), 2*maxErrorText)
}

func TestReasonPhrase(t *testing.T) {
	assert.Equal(t, "Service Unavailable", reasonPhrase(&http.Response{Status: "503 Service Unavailable", StatusCode: 503}))
	assert.Equal(t, "Not Found", reasonPhrase(&http.Response{StatusCode: 404}))
}
