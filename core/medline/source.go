package medline

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/FocuswithJustin/medline/core/errors"
)

type sourceKind int

const (
	sourceString sourceKind = iota + 1
	sourceBytes
	sourceReader
)

// Source is parser input: a string, a byte buffer or a byte stream. Stream
// chunks are concatenated before any line is split, so a "\r\n" spanning two
// chunks is still normalized.
type Source struct {
	kind sourceKind
	text string
	data []byte
	r    io.Reader
	name string
}

// StringSource wraps text.
func StringSource(text string) Source {
	return Source{kind: sourceString, text: text}
}

// BytesSource wraps a UTF-8 byte buffer.
func BytesSource(data []byte) Source {
	return Source{kind: sourceBytes, data: data}
}

// ReaderSource wraps a byte stream. The stream is read to the end before
// parsing starts.
func ReaderSource(r io.Reader) Source {
	return Source{kind: sourceReader, r: r}
}

// NewSource accepts a string, a []byte, an io.Reader or an existing Source.
// Any other value is rejected with an UnsupportedError.
func NewSource(v any) (Source, error) {
	switch s := v.(type) {
	case Source:
		if s.kind == 0 {
			return Source{}, errors.NewUnsupported("parse source", "zero Source")
		}
		return s, nil
	case *Source:
		if s == nil || s.kind == 0 {
			return Source{}, errors.NewUnsupported("parse source", "nil Source")
		}
		return *s, nil
	case string:
		return StringSource(s), nil
	case []byte:
		return BytesSource(s), nil
	case io.Reader:
		return ReaderSource(s), nil
	case nil:
		return Source{}, errors.NewUnsupported("parse source", "nil")
	default:
		return Source{}, errors.NewUnsupported("parse source", fmt.Sprintf("%T", v))
	}
}

// Named returns a copy of s labelled with name for logs and errors.
func (s Source) Named(name string) Source {
	s.name = name
	return s
}

// Name returns the label set by Named.
func (s Source) Name() string {
	return s.name
}

// Text returns the complete, newline-normalized source text. Reader sources
// are consumed; calling Text twice on one yields the remainder only.
func (s Source) Text(ctx context.Context) (string, error) {
	var raw string
	switch s.kind {
	case sourceString:
		raw = s.text
	case sourceBytes:
		raw = string(s.data)
	case sourceReader:
		data, err := io.ReadAll(&ctxReader{ctx: ctx, r: s.r})
		if err != nil {
			return "", errors.NewIO("read", s.name, err)
		}
		raw = string(data)
	default:
		return "", errors.NewUnsupported("parse source", "zero Source")
	}

	text, err := decodeUTF8(raw)
	if err != nil {
		return "", errors.NewIO("decode", s.name, err)
	}
	return normalizeNewlines(text), nil
}

// decodeUTF8 strips a leading byte order mark and replaces invalid byte
// sequences with U+FFFD.
func decodeUTF8(raw string) (string, error) {
	return unicode.UTF8BOM.NewDecoder().String(raw)
}

func normalizeNewlines(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}

// ctxReader stops a stream read at the next chunk once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
