package medline

// TypeEntry maps a MEDLINE publication type label to a canonical type tag.
type TypeEntry struct {
	Label string // MEDLINE label (e.g. "JOURNAL ARTICLE")
	Tag   string // canonical type tag (e.g. "journalArticle")
}

// Canonical type tags with special meaning.
const (
	// UnknownType is assigned to parsed records whose type is absent or unmapped.
	UnknownType = "unknown"
	// DefaultType is written for records whose type has no MEDLINE label.
	DefaultType = "journalArticle"
)

// typeTable is many-to-one: several labels may share a tag. The reverse
// direction keeps the first label registered for each tag, so
// legalRuleOrRegulation is written as "LEGAL CASES".
var typeTable = []TypeEntry{
	{Label: "CASE REPORTS", Tag: "case"},
	{Label: "CLASSICAL ARTICLE", Tag: "classicalWork"},
	{Label: "DICTIONARY", Tag: "dictionary"},
	{Label: "JOURNAL ARTICLE", Tag: "journalArticle"},
	{Label: "LEGAL CASES", Tag: "legalRuleOrRegulation"},
	{Label: "LEGISLATION", Tag: "legalRuleOrRegulation"},
	{Label: "LETTER", Tag: "personalCommunication"},
	{Label: "NEWSPAPER ARTICLE", Tag: "newspaperArticle"},
	{Label: "TECHNICAL REPORT", Tag: "report"},
	{Label: "VIDEO-AUDIO MEDIA", Tag: "filmOrBroadcast"},
	{Label: "WEBCASTS", Tag: "web"},
}

var (
	typesByLabel map[string]string
	labelsByTag  map[string]string
)

func init() {
	typesByLabel = make(map[string]string, len(typeTable))
	labelsByTag = make(map[string]string, len(typeTable))
	for _, e := range typeTable {
		typesByLabel[e.Label] = e.Tag
		if _, seen := labelsByTag[e.Tag]; !seen {
			labelsByTag[e.Tag] = e.Label
		}
	}
}

// CanonicalType translates a MEDLINE label into a canonical type tag,
// returning UnknownType when the label has no mapping.
func CanonicalType(label string) string {
	if tag, ok := typesByLabel[label]; ok {
		return tag
	}
	return UnknownType
}

// SourceType translates a canonical type tag into a MEDLINE label. An
// unmapped tag falls back to defaultType.
//
// defaultType is itself passed through the reverse table: a known canonical
// tag such as "report" is written as its label ("TECHNICAL REPORT"), never
// as the raw tag, so the PT line always reads back to a canonical type. A
// defaultType with no mapping is written verbatim.
func SourceType(tag, defaultType string) string {
	if label, ok := labelsByTag[tag]; ok {
		return label
	}
	if label, ok := labelsByTag[defaultType]; ok {
		return label
	}
	return defaultType
}

// IsKnownType reports whether tag is the target of at least one label.
func IsKnownType(tag string) bool {
	_, ok := labelsByTag[tag]
	return ok
}

// Types returns a copy of the type table in registration order.
func Types() []TypeEntry {
	out := make([]TypeEntry, len(typeTable))
	copy(out, typeTable)
	return out
}
