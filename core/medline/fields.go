package medline

// FieldEntry maps a MEDLINE tag to a canonical field name.
type FieldEntry struct {
	Tag     string // four character tag, padded with spaces (e.g. "TI  ")
	Name    string // canonical field name (e.g. "title")
	IsArray bool   // repeated tags append rather than overwrite
}

// TypeField is the canonical name of the publication type field.
const TypeField = "type"

// fieldTable is the single source for both lookup directions.
// Tags and names are each unique.
var fieldTable = []FieldEntry{
	{Tag: "PMID", Name: "recNo"},
	{Tag: "AB  ", Name: "abstract"},
	{Tag: "AID ", Name: "doi"},
	{Tag: "FAU ", Name: "authors", IsArray: true},
	{Tag: "DP  ", Name: "date"},
	{Tag: "ISBN", Name: "isbn"},
	{Tag: "JT  ", Name: "journal"},
	{Tag: "LA  ", Name: "language"},
	{Tag: "PG  ", Name: "pages"},
	{Tag: "PT  ", Name: TypeField},
	{Tag: "PL  ", Name: "address"},
	{Tag: "TI  ", Name: "title"},
	{Tag: "VI  ", Name: "volume"},
	{Tag: "OT  ", Name: "tags", IsArray: true},
}

var (
	fieldsByTag  map[string]FieldEntry
	fieldsByName map[string]FieldEntry
)

func init() {
	fieldsByTag = make(map[string]FieldEntry, len(fieldTable))
	fieldsByName = make(map[string]FieldEntry, len(fieldTable))
	for _, e := range fieldTable {
		if _, dup := fieldsByTag[e.Tag]; dup {
			panic("medline: duplicate field tag " + e.Tag)
		}
		if _, dup := fieldsByName[e.Name]; dup {
			panic("medline: duplicate field name " + e.Name)
		}
		fieldsByTag[e.Tag] = e
		fieldsByName[e.Name] = e
	}
}

// LookupTag returns the field entry for a four character tag.
func LookupTag(tag string) (FieldEntry, bool) {
	e, ok := fieldsByTag[tag]
	return e, ok
}

// LookupField returns the field entry for a canonical field name.
func LookupField(name string) (FieldEntry, bool) {
	e, ok := fieldsByName[name]
	return e, ok
}

// Fields returns a copy of the field table in registration order.
func Fields() []FieldEntry {
	out := make([]FieldEntry, len(fieldTable))
	copy(out, fieldTable)
	return out
}
