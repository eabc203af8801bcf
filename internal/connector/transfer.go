package connector

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// SizeUnknown marks an upload source whose length could not be determined.
const SizeUnknown = -1

// UploadSource is a raw byte body handed to the transport without being
// buffered in memory.
type UploadSource struct {
	r    io.Reader
	size int64
	name string
}

// OpenUploadSource opens the local file at path. Failure to open it is an
// ErrFileAccess.
func OpenUploadSource(path string) (*UploadSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrFileAccess, path, err)
	}

	src := NewUploadSource(f)
	src.name = path

	return src, nil
}

// NewUploadSource wraps r. The size is measured by seeking when r supports
// it and left as SizeUnknown otherwise (pipes, sockets).
func NewUploadSource(r io.Reader) *UploadSource {
	return &UploadSource{r: r, size: remainingSize(r)}
}

// Size returns the number of bytes that will be sent, or SizeUnknown.
func (u *UploadSource) Size() int64 {
	return u.size
}

func (u *UploadSource) Read(p []byte) (int, error) {
	return u.r.Read(p)
}

// Close closes the wrapped reader when it is closable.
func (u *UploadSource) Close() error {
	if c, ok := u.r.(io.Closer); ok {
		return c.Close()
	}

	return nil
}

// remainingSize reports the bytes between the current offset and the end of
// r, restoring the offset afterwards.
func remainingSize(r io.Reader) int64 {
	s, ok := r.(io.Seeker)
	if !ok {
		return SizeUnknown
	}

	cur, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return SizeUnknown
	}

	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return SizeUnknown
	}

	if _, err := s.Seek(cur, io.SeekStart); err != nil {
		return SizeUnknown
	}

	return end - cur
}

// downloadTempPattern names partial downloads next to their destination.
const downloadTempPattern = ".zvmimage-*.partial"

// DownloadImage streams the named image into destPath. Bytes go to a
// temporary file in the destination directory which is renamed into place
// only after the stream completed and its checksum verified; a failed or
// corrupt download leaves destPath untouched.
func (c *Client) DownloadImage(ctx context.Context, imageName, destPath string) Result {
	dir := filepath.Dir(destPath)

	tmp, err := os.CreateTemp(dir, downloadTempPattern)
	if err != nil {
		return ResultFromError(fmt.Errorf("%w: creating temp file in %s: %w", ErrFileAccess, dir, err))
	}

	tmpPath := tmp.Name()

	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmpPath)
		}
	}()

	res := c.Do(ctx, ImageDownload{ImageName: imageName}, WithSink(tmp))

	if closeErr := tmp.Close(); closeErr != nil && res.OK() {
		return ResultFromError(fmt.Errorf("%w: closing %s: %w", ErrFileAccess, tmpPath, closeErr))
	}

	if !res.OK() {
		return res
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return ResultFromError(fmt.Errorf("%w: renaming into %s: %w", ErrFileAccess, destPath, err))
	}

	renamed = true

	c.logger.Info("image downloaded",
		slog.String("image", imageName),
		slog.String("path", destPath),
	)

	return res
}

// UploadImage sends the local file at sourcePath as the content of the named
// image. meta entries are sent as request headers.
func (c *Client) UploadImage(ctx context.Context, imageName, sourcePath string, meta map[string]string) Result {
	return c.Do(ctx, ImageUpload{ImageName: imageName, Source: sourcePath, Meta: meta})
}
