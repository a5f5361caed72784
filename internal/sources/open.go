package sources

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/medline/core/errors"
)

// Reader is an opened input. It decompresses transparently and reports the
// wrapper it found.
type Reader struct {
	io.Reader
	Compression Compression
	closers     []io.Closer
}

// Close releases the decompressor and the underlying file. Later calls
// do nothing.
func (r *Reader) Close() error {
	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	return first
}

// Open opens path for reading; StdioPath reads stdin. Compression is
// detected from the content signature, so a misnamed file still decodes.
func Open(path string) (*Reader, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}

	var f io.ReadCloser
	if path == StdioPath {
		f = io.NopCloser(os.Stdin)
	} else {
		file, err := os.Open(path)
		if err != nil {
			return nil, errors.NewIO("open", path, err)
		}
		f = file
	}

	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, errors.NewIO("open", path, err)
	}
	r.closers = append([]io.Closer{f}, r.closers...)
	return r, nil
}

// NewReader wraps an already open stream. Closing the Reader does not close rc.
func NewReader(rc io.Reader) (*Reader, error) {
	br := bufio.NewReader(rc)
	header, err := br.Peek(sniffHeaderSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("read header: %w", err)
	}

	out := &Reader{Compression: SniffCompression(header)}
	var body io.Reader = br
	switch out.Compression {
	case CompressionGzip:
		gzr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		body = gzr
		out.closers = append(out.closers, gzr)
	case CompressionXZ:
		xzr, err := xz.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		body = xzr // xz reader doesn't need closing
	case CompressionZstd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		body = zr
		out.closers = append(out.closers, closerFunc(func() error {
			zr.Close()
			return nil
		}))
	}

	out.Reader = &limitReader{r: body, remaining: MaxInputSize}
	return out, nil
}

// Writer is an opened output. Close flushes the compressor before closing
// the file.
type Writer struct {
	io.Writer
	Compression Compression
	closers     []io.Closer
}

// Close flushes and closes every layer, innermost first. Later calls do
// nothing.
func (w *Writer) Close() error {
	var first error
	for _, c := range w.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	w.closers = nil
	return first
}

// Create opens path for writing, truncating it; StdioPath writes stdout and
// leaves it open on Close. The compression wrapper follows the suffix.
func Create(path string) (*Writer, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}

	if path == StdioPath {
		return &Writer{Writer: os.Stdout, Compression: CompressionNone}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, errors.NewIO("create", path, err)
	}

	w, err := NewWriter(f, CompressionForPath(path))
	if err != nil {
		f.Close()
		return nil, errors.NewIO("create", path, err)
	}
	w.closers = append(w.closers, f)
	return w, nil
}

// NewWriter wraps w in the given compression. Closing the Writer flushes the
// compressor but does not close w.
func NewWriter(w io.Writer, c Compression) (*Writer, error) {
	out := &Writer{Writer: w, Compression: c}
	switch c {
	case CompressionNone, "":
		out.Compression = CompressionNone
	case CompressionGzip:
		gzw, err := gzip.NewWriterLevel(w, gzip.DefaultCompression)
		if err != nil {
			return nil, fmt.Errorf("gzip writer: %w", err)
		}
		out.Writer = gzw
		out.closers = append(out.closers, gzw)
	case CompressionXZ:
		xzw, err := xz.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("xz writer: %w", err)
		}
		out.Writer = xzw
		out.closers = append(out.closers, xzw)
	case CompressionZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		out.Writer = zw
		out.closers = append(out.closers, zw)
	default:
		return nil, errors.NewUnsupported("compression", string(c))
	}
	return out, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// limitReader fails once more than remaining bytes have been read.
type limitReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitReader) Read(p []byte) (int, error) {
	if l.remaining <= 0 {
		// Probe for one more byte to tell an exact fit from an overflow.
		var one [1]byte
		n, err := l.r.Read(one[:])
		if n > 0 {
			return 0, ErrInputTooLarge
		}
		return 0, err
	}
	if int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	return n, err
}
