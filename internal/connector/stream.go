package connector

import (
	"bytes"
	"crypto/md5" //nolint:gosec // the service declares MD5 checksums for images
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"strings"
)

// ChunkSize is the block size a ChunkStream delivers.
const ChunkSize = 4096

// checksumHeader carries the service-declared checksum of a binary body.
const checksumHeader = "Content-MD5"

// ChunkStream is a single-pass sequence of fixed-size blocks read from a
// binary response body. A rolling checksum is computed over every byte
// delivered and compared with the service-declared checksum once the body is
// exhausted; a mismatch surfaces from Err only after the final chunk has been
// handed out. Close releases the connection and must be called when a
// stream is abandoned early. Not safe for concurrent use.
//
//	for s.Next() {
//		consume(s.Chunk())
//	}
//	if err := s.Err(); err != nil { ... }
type ChunkStream struct {
	body     io.ReadCloser
	buf      []byte
	chunk    []byte
	sum      hash.Hash
	expected string
	read     int64
	err      error
	atEOF    bool
	done     bool
	closed   bool
}

// newChunkStream wraps body. expected may be empty, in which case integrity
// cannot be verified and is not treated as an error.
func newChunkStream(body io.ReadCloser, expected string) *ChunkStream {
	return &ChunkStream{
		body:     body,
		buf:      make([]byte, ChunkSize),
		sum:      md5.New(), //nolint:gosec // see import
		expected: strings.TrimSpace(expected),
	}
}

// Next advances to the next chunk. It returns false when the stream is
// exhausted, failed, or closed; Err reports which.
func (s *ChunkStream) Next() bool {
	s.chunk = nil

	if s.done || s.closed {
		return false
	}

	if s.atEOF {
		s.finish()
		return false
	}

	n, err := io.ReadFull(s.body, s.buf)
	if n > 0 {
		s.chunk = s.buf[:n]
		s.sum.Write(s.chunk)
		s.read += int64(n)
	}

	switch {
	case err == nil:
		return true
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		if n > 0 {
			// Deliver the short final chunk; verification happens on the
			// following call.
			s.atEOF = true
			return true
		}

		s.finish()

		return false
	default:
		s.chunk = nil
		s.done = true
		s.err = fmt.Errorf("connector: reading stream after %d bytes: %w", s.read, err)
		s.Close()

		return false
	}
}

// Chunk returns the current block. The slice is only valid until the next
// call to Next.
func (s *ChunkStream) Chunk() []byte {
	return s.chunk
}

// Err returns the first error encountered, including an *IntegrityError when
// the checksum did not match. It is nil after a clean, fully consumed stream.
func (s *ChunkStream) Err() error {
	return s.err
}

// BytesRead reports how many bytes have been delivered so far.
func (s *ChunkStream) BytesRead() int64 {
	return s.read
}

// Expected returns the service-declared checksum, or "" if none was sent.
func (s *ChunkStream) Expected() string {
	return s.expected
}

// Checksum returns the hex checksum of the bytes delivered so far.
func (s *ChunkStream) Checksum() string {
	return hex.EncodeToString(s.sum.Sum(nil))
}

// Verified reports whether the stream completed and matched a declared
// checksum.
func (s *ChunkStream) Verified() bool {
	return s.done && s.err == nil && s.expected != ""
}

// Close releases the underlying connection. It is safe to call more than
// once and after the stream has been exhausted.
func (s *ChunkStream) Close() error {
	if s.closed {
		return nil
	}

	s.closed = true

	return s.body.Close()
}

// WriteTo drains the stream into w chunk by chunk and returns the number of
// bytes written. Partial data already written is not rolled back on an
// integrity failure.
func (s *ChunkStream) WriteTo(w io.Writer) (int64, error) {
	var written int64

	for s.Next() {
		n, err := w.Write(s.Chunk())
		written += int64(n)

		if err != nil {
			s.Close()
			return written, fmt.Errorf("connector: writing stream: %w", err)
		}
	}

	return written, s.Err()
}

func (s *ChunkStream) finish() {
	s.done = true
	s.Close()

	if s.expected == "" {
		return
	}

	digest := s.sum.Sum(nil)
	if !checksumMatches(s.expected, digest) {
		s.err = &IntegrityError{Expected: s.expected, Actual: hex.EncodeToString(digest)}
	}
}

// checksumMatches accepts the declared checksum as hex (what the service
// sends) or base64 (the RFC 1864 form of Content-MD5).
func checksumMatches(expected string, digest []byte) bool {
	if decoded, err := hex.DecodeString(expected); err == nil && len(decoded) == len(digest) {
		return bytes.Equal(decoded, digest)
	}

	if decoded, err := base64.StdEncoding.DecodeString(expected); err == nil && len(decoded) == len(digest) {
		return bytes.Equal(decoded, digest)
	}

	return false
}
