package connector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
)

// outcome is what a classified response turned into: either a finished
// result or an open binary stream. Exactly one is set.
type outcome struct {
	result Result
	stream *ChunkStream
}

// serviceEnvelope is the result document the service itself returns.
// OverallRC is a pointer so a document without it is recognizable.
type serviceEnvelope struct {
	OverallRC *int   `json:"overallRC"`
	ModID     int    `json:"modID"`
	RC        int    `json:"rc"`
	RS        int    `json:"rs"`
	ErrMsg    string `json:"errmsg"`
	Output    any    `json:"output"`
}

// classify decides what a response is, in priority order: 503 is
// ErrServiceUnavailable whatever the content type; a content type other
// than JSON or octet-stream is ErrUnexpectedResponse and the body is never
// parsed; octet-stream becomes a lazy ChunkStream that owns the body; JSON
// is decoded eagerly. For every outcome except the stream the body is
// closed before returning.
func (c *Client) classify(url string, resp *http.Response) (outcome, error) {
	if resp.StatusCode == http.StatusServiceUnavailable {
		defer resp.Body.Close()
		return outcome{}, newResponseError(ErrServiceUnavailable, url, resp)
	}

	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		mediaType = ""
	}

	switch mediaType {
	case contentTypeBinary:
		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			defer resp.Body.Close()
			return outcome{}, newResponseError(ErrUnexpectedResponse, url, resp)
		}

		return outcome{stream: newChunkStream(resp.Body, resp.Header.Get(checksumHeader))}, nil
	case contentTypeJSON:
		defer resp.Body.Close()
		return c.decodeJSON(url, resp)
	default:
		defer resp.Body.Close()

		c.logger.Error("request returned unexpected content type",
			slog.String("url", url),
			slog.Int("status", resp.StatusCode),
			slog.String("content_type", resp.Header.Get("Content-Type")),
		)

		return outcome{}, newResponseError(ErrUnexpectedResponse, url, resp)
	}
}

// decodeJSON parses a JSON body. A document carrying overallRC is the
// service's own envelope and is passed through with its codes. Any other
// document is the payload of a successful call, provided the status is 2xx.
func (c *Client) decodeJSON(url string, resp *http.Response) (outcome, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return outcome{}, fmt.Errorf("connector: reading response from %s: %w", url, err)
	}

	var env serviceEnvelope
	if err := json.Unmarshal(data, &env); err == nil && env.OverallRC != nil {
		if env.Output == nil {
			env.Output = ""
		}

		return outcome{result: Result{
			OverallRC: *env.OverallRC,
			ModID:     env.ModID,
			RC:        env.RC,
			RS:        env.RS,
			ErrMsg:    env.ErrMsg,
			Output:    env.Output,
		}}, nil
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return outcome{}, responseErrorFromBody(ErrUnexpectedResponse, url, resp, data)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return outcome{result: success("")}, nil
	}

	var output any
	if err := json.Unmarshal(data, &output); err != nil {
		c.logger.Error("malformed JSON response",
			slog.String("url", url),
			slog.String("error", err.Error()),
		)

		return outcome{}, responseErrorFromBody(ErrUnexpectedResponse, url, resp, data)
	}

	return outcome{result: success(output)}, nil
}

func responseErrorFromBody(sentinel error, url string, resp *http.Response, body []byte) *ResponseError {
	if len(body) > maxErrorText {
		body = body[:maxErrorText]
	}

	return &ResponseError{
		URL:        url,
		StatusCode: resp.StatusCode,
		Reason:     reasonPhrase(resp),
		Text:       string(body),
		Err:        sentinel,
	}
}
