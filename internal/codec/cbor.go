package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/fxamacker/cbor/v2"

	"github.com/FocuswithJustin/medline/core/medline"
)

// readCBOR decodes a CBOR sequence of maps. Keys come back sorted.
func readCBOR(data []byte) ([]*medline.Record, error) {
	dec := decMode.NewDecoder(bytes.NewReader(data))
	var recs []*medline.Record
	for {
		var m map[string]any
		err := dec.Decode(&m)
		if errors.Is(err, io.EOF) {
			return recs, nil
		}
		if err != nil {
			return nil, err
		}
		rec, err := recordFromMap(m)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
}

func recordFromMap(m map[string]any) (*medline.Record, error) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)

	rec := medline.NewRecord()
	for _, name := range names {
		switch v := m[name].(type) {
		case nil:
		case []any:
			items := make([]string, 0, len(v))
			for _, item := range v {
				s, err := fromValue(name, item)
				if err != nil {
					return nil, err
				}
				items = append(items, s)
			}
			rec.Append(name, items...)
		default:
			s, err := fromValue(name, v)
			if err != nil {
				return nil, err
			}
			rec.Set(name, s)
		}
	}
	return rec, nil
}

// cborWriter writes a CBOR sequence, one map per record.
type cborWriter struct {
	enc *cbor.Encoder
}

func (c *cborWriter) Write(rec *medline.Record) error {
	m := make(map[string]any, rec.Len())
	for _, name := range rec.Names() {
		v, _ := rec.Value(name)
		if v.Array {
			items := v.Items
			if items == nil {
				items = []string{}
			}
			m[name] = items
		} else {
			m[name] = v.Text
		}
	}
	if err := c.enc.Encode(m); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return nil
}

func (c *cborWriter) Close() error {
	return nil
}
