// Package codec reads and writes canonical records as documents: JSON
// lines, a JSON array, a YAML document stream, or a CBOR sequence.
//
// JSON and YAML keep field order. CBOR uses Core Deterministic Encoding,
// so keys are sorted and the same record always produces the same bytes.
package codec

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
	"slices"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/FocuswithJustin/medline/core/errors"
	"github.com/FocuswithJustin/medline/core/medline"
)

// Format names a document format.
type Format string

const (
	// FormatAuto sniffs the input; it is only valid for reading.
	FormatAuto      Format = "auto"
	FormatJSON      Format = "json"
	FormatJSONArray Format = "json-array"
	FormatYAML      Format = "yaml"
	FormatCBOR      Format = "cbor"
)

// Formats lists the formats accepted for writing.
var Formats = []Format{FormatJSON, FormatJSONArray, FormatYAML, FormatCBOR}

// ParseFormat converts a string to a Format.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case "":
		return FormatAuto, nil
	case "jsonl", "ndjson":
		return FormatJSON, nil
	case "yml":
		return FormatYAML, nil
	case FormatAuto, FormatJSONArray:
		return f, nil
	}
	if slices.Contains(Formats, f) {
		return f, nil
	}
	return "", errors.NewUnsupported("document format", s)
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

const leadingSpace = " \t\r\n\ufeff"

// Sniff guesses the format of a document from its first bytes.
func Sniff(data []byte) Format {
	trimmed := bytes.TrimLeft(data, leadingSpace)
	if len(trimmed) == 0 {
		return FormatJSON
	}
	switch b := trimmed[0]; {
	case b == '[':
		return FormatJSONArray
	case b == '{':
		return FormatJSON
	case b >= 0xa0 && b <= 0xbf:
		// CBOR major type 5: a map.
		return FormatCBOR
	}
	return FormatYAML
}

// ReadAll decodes every record in r.
func ReadAll(r io.Reader, f Format, name string) ([]*medline.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewIO("read", name, err)
	}
	if f == FormatAuto || f == "" {
		f = Sniff(data)
	}

	var recs []*medline.Record
	switch f {
	case FormatJSON, FormatJSONArray:
		recs, err = readJSON(data)
	case FormatYAML:
		recs, err = readYAML(data)
	case FormatCBOR:
		recs, err = readCBOR(data)
	default:
		return nil, errors.NewUnsupported("document format", string(f))
	}
	if err != nil {
		return nil, errors.NewParse(string(f), name, err.Error())
	}
	if recs == nil {
		recs = []*medline.Record{}
	}
	return recs, nil
}

// Writer encodes records one at a time. Close finishes the document; it
// does not close the underlying stream.
type Writer interface {
	Write(rec *medline.Record) error
	Close() error
}

// NewWriter returns a Writer for f.
func NewWriter(w io.Writer, f Format) (Writer, error) {
	switch f {
	case FormatJSON:
		return &jsonWriter{w: w}, nil
	case FormatJSONArray:
		return &jsonWriter{w: w, array: true}, nil
	case FormatYAML:
		return newYAMLWriter(w), nil
	case FormatCBOR:
		return &cborWriter{enc: encMode.NewEncoder(w)}, nil
	}
	return nil, errors.NewUnsupported("document format", string(f))
}

// fromValue converts a decoded scalar to record text.
func fromValue(name string, v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case bool, int64, uint64, float64, float32, int, uint:
		return fmt.Sprint(x), nil
	}
	return "", fmt.Errorf("field %s: unsupported value %T", name, v)
}
