package sources

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Compression identifies a stream compression wrapper.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionXZ   Compression = "xz"
	CompressionZstd Compression = "zstd"
)

// String returns the compression name.
func (c Compression) String() string {
	return string(c)
}

var magicBytes = []struct {
	compression Compression
	magic       []byte
}{
	{CompressionGzip, []byte{0x1f, 0x8b}},
	{CompressionXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	{CompressionZstd, []byte{0x28, 0xb5, 0x2f, 0xfd}},
}

// sniffHeaderSize is enough bytes to match every signature.
const sniffHeaderSize = 6

// SniffCompression detects compression from the first bytes of a stream.
func SniffCompression(header []byte) Compression {
	for _, sig := range magicBytes {
		if bytes.HasPrefix(header, sig.magic) {
			return sig.compression
		}
	}
	return CompressionNone
}

// CompressionForPath infers compression from a file suffix.
func CompressionForPath(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".tgz":
		return CompressionGzip
	case ".xz":
		return CompressionXZ
	case ".zst", ".zstd":
		return CompressionZstd
	default:
		return CompressionNone
	}
}

// trimCompressionExt strips one compression suffix, so "refs.nbib.xz"
// reports its ".nbib" format extension.
func trimCompressionExt(path string) string {
	if CompressionForPath(path) == CompressionNone {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path))
}
