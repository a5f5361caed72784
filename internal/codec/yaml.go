package codec

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/medline/core/medline"
)

// readYAML accepts a stream of mapping documents, or a document holding a
// sequence of mappings.
func readYAML(data []byte) ([]*medline.Record, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var recs []*medline.Record
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if err == io.EOF {
			return recs, nil
		}
		if err != nil {
			return nil, err
		}
		if len(doc.Content) == 0 {
			continue
		}

		root := doc.Content[0]
		switch root.Kind {
		case yaml.MappingNode:
			rec, err := recordFromNode(root)
			if err != nil {
				return nil, err
			}
			recs = append(recs, rec)
		case yaml.SequenceNode:
			for _, item := range root.Content {
				rec, err := recordFromNode(item)
				if err != nil {
					return nil, err
				}
				recs = append(recs, rec)
			}
		case yaml.ScalarNode:
			if root.Tag == "!!null" {
				continue
			}
			return nil, fmt.Errorf("line %d: record must be a mapping", root.Line)
		default:
			return nil, fmt.Errorf("line %d: record must be a mapping", root.Line)
		}
	}
}

func recordFromNode(n *yaml.Node) (*medline.Record, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: record must be a mapping", n.Line)
	}
	rec := medline.NewRecord()
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		name := key.Value
		switch val.Kind {
		case yaml.ScalarNode:
			if val.Tag == "!!null" {
				continue
			}
			rec.Set(name, val.Value)
		case yaml.SequenceNode:
			items := make([]string, 0, len(val.Content))
			for _, item := range val.Content {
				if item.Kind != yaml.ScalarNode {
					return nil, fmt.Errorf("line %d: field %s: nested values are not supported", item.Line, name)
				}
				items = append(items, item.Value)
			}
			rec.Append(name, items...)
		default:
			return nil, fmt.Errorf("line %d: field %s: nested values are not supported", val.Line, name)
		}
	}
	return rec, nil
}

func nodeFromRecord(rec *medline.Record) *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range rec.Names() {
		v, _ := rec.Value(name)
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}
		var val *yaml.Node
		if v.Array {
			val = &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
			for _, item := range v.Items {
				val.Content = append(val.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: item})
			}
		} else {
			val = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Text}
		}
		m.Content = append(m.Content, key, val)
	}
	return m
}

// yamlWriter writes one document per record.
type yamlWriter struct {
	enc *yaml.Encoder
}

func newYAMLWriter(w io.Writer) *yamlWriter {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return &yamlWriter{enc: enc}
}

func (y *yamlWriter) Write(rec *medline.Record) error {
	return y.enc.Encode(nodeFromRecord(rec))
}

func (y *yamlWriter) Close() error {
	return y.enc.Close()
}
