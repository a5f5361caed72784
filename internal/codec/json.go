package codec

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/FocuswithJustin/medline/core/medline"
)

// readJSON accepts a single array of objects or a stream of objects.
func readJSON(data []byte) ([]*medline.Record, error) {
	data = bytes.TrimLeft(data, leadingSpace)
	var recs []*medline.Record
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &recs); err != nil {
			return nil, err
		}
		return recs, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		rec := medline.NewRecord()
		if err := dec.Decode(rec); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// jsonWriter writes one object per line, or a single indented array.
type jsonWriter struct {
	w     io.Writer
	array bool
	n     int
}

func (j *jsonWriter) Write(rec *medline.Record) error {
	data, err := rec.MarshalJSON()
	if err != nil {
		return err
	}
	if j.array {
		sep := ",\n  "
		if j.n == 0 {
			sep = "[\n  "
		}
		if _, err := io.WriteString(j.w, sep); err != nil {
			return err
		}
	} else {
		data = append(data, '\n')
	}
	j.n++
	_, err = j.w.Write(data)
	return err
}

func (j *jsonWriter) Close() error {
	if !j.array {
		return nil
	}
	closing := "\n]\n"
	if j.n == 0 {
		closing = "[]\n"
	}
	_, err := io.WriteString(j.w, closing)
	return err
}
