package connector

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// CallOption adjusts a single call.
type CallOption func(*callConfig)

type callConfig struct {
	sink io.Writer
}

// WithSink sends a binary response body to w. Without a sink, binary
// bodies are drained and discarded, still verifying their checksum.
func WithSink(w io.Writer) CallOption {
	return func(cfg *callConfig) {
		cfg.sink = w
	}
}

// Call runs the named operation with positional args and keyword args and
// always returns a Result: failures of every kind are reported through its
// codes and message, never as a panic or a separate error.
func (c *Client) Call(ctx context.Context, name string, args []any, kw Kwargs, opts ...CallOption) Result {
	var cfg callConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	out, err := c.send(ctx, name, args, kw)
	if err != nil {
		return c.failed(name, err)
	}

	if out.stream == nil {
		return out.result
	}

	res, err := c.drain(out.stream, cfg.sink)
	if err != nil {
		return c.failed(name, err)
	}

	return res
}

// Do runs a typed operation. It is equivalent to Call with the operation's
// name and arguments.
func (c *Client) Do(ctx context.Context, op Operation, opts ...CallOption) Result {
	args, kw := op.arguments()

	return c.Call(ctx, op.Name(), args, kw, opts...)
}

// Stream runs a typed operation whose response is binary and hands back the
// open chunk sequence instead of draining it. The caller must Close the
// stream. When the response is not binary, or the call fails, the stream is
// nil and the Result describes the outcome.
func (c *Client) Stream(ctx context.Context, op Operation) (*ChunkStream, Result) {
	args, kw := op.arguments()

	out, err := c.send(ctx, op.Name(), args, kw)
	if err != nil {
		return nil, c.failed(op.Name(), err)
	}

	if out.stream == nil {
		return nil, out.result
	}

	return out.stream, success("")
}

// send validates, builds, authenticates, transmits, and classifies. It is the
// typed half of the boundary: every failure comes back as an error from the
// taxonomy and Call turns it into a Result.
func (c *Client) send(ctx context.Context, name string, args []any, kw Kwargs) (outcome, error) {
	d, err := validateArgs(name, args)
	if err != nil {
		return outcome{}, err
	}

	b, err := d.build(args[d.pathArgs:], kw)
	if err != nil {
		return outcome{}, err
	}

	if closer, ok := b.body.(io.Closer); ok {
		defer closer.Close()
	}

	url := c.baseURL + substitutePath(b.path, args[:d.pathArgs])

	header := make(map[string]string, len(b.header)+1)
	for k, v := range b.header {
		if strings.EqualFold(k, "Content-Type") {
			continue
		}

		header[k] = v
	}

	header["Content-Type"] = contentTypeJSON
	if d.binary {
		header["Content-Type"] = contentTypeBinary
	}

	resp, err := c.execute(ctx, d.method, url, b.body, header)
	if err != nil {
		return outcome{}, err
	}

	return c.classify(url, resp)
}

// drain copies a binary stream into sink (or discards it) and reports the
// transfer in the result output.
func (c *Client) drain(stream *ChunkStream, sink io.Writer) (Result, error) {
	defer stream.Close()

	if sink == nil {
		sink = io.Discard
	}

	n, err := stream.WriteTo(sink)
	if err != nil {
		return Result{}, err
	}

	if stream.Expected() == "" {
		c.logger.Warn("binary response carried no checksum; integrity not verified",
			slog.Int64("bytes", n),
		)
	}

	return success(map[string]any{
		"bytes":    n,
		"checksum": stream.Checksum(),
		"verified": stream.Verified(),
	}), nil
}

func (c *Client) failed(name string, err error) Result {
	res := ResultFromError(err)

	c.logger.Warn("call failed",
		slog.String("operation", name),
		slog.Int("rc", res.RC),
		slog.Int("rs", res.RS),
		slog.String("error", err.Error()),
	)

	return res
}

// String renders a result for log lines and CLI output.
func (r Result) String() string {
	if r.OK() {
		return fmt.Sprintf("ok: %v", r.Output)
	}

	return fmt.Sprintf("overallRC=%d modID=%d rc=%d rs=%d: %s", r.OverallRC, r.ModID, r.RC, r.RS, r.ErrMsg)
}
