package medline

import "strings"

// Format renders one record as MEDLINE lines in field order. The type field
// is translated to its MEDLINE label (see SourceType); fields without a tag
// are skipped. Values are written unwrapped, one line per array element.
func Format(rec *Record, defaultType string) string {
	if defaultType == "" {
		defaultType = DefaultType
	}

	var b strings.Builder
	for _, f := range rec.fieldsOrNil() {
		entry, ok := LookupField(f.name)
		if !ok {
			continue
		}
		if f.name == TypeField {
			writeLine(&b, entry.Tag, SourceType(f.value.Text, defaultType))
			continue
		}
		for _, v := range f.value.Strings() {
			writeLine(&b, entry.Tag, v)
		}
	}
	return b.String()
}

func writeLine(b *strings.Builder, tag, value string) {
	b.WriteString(tag)
	b.WriteString("- ")
	b.WriteString(value)
	b.WriteByte('\n')
}
