package medline

import "testing"

func TestFormat(t *testing.T) {
	tests := []struct {
		name        string
		rec         *Record
		defaultType string
		want        string
	}{
		{
			name: "field order follows insertion",
			rec:  NewRecord().Set("recNo", "7").Set("title", "Sample Title").SetType("journalArticle"),
			want: "PMID- 7\nTI  - Sample Title\nPT  - JOURNAL ARTICLE\n",
		},
		{
			name: "type first",
			rec:  NewRecord().SetType("report").Set("title", "T"),
			want: "PT  - TECHNICAL REPORT\nTI  - T\n",
		},
		{
			name: "array fields one line per element",
			rec:  NewRecord().Append("authors", "Smith, A", "Jones, B").Append("tags", "x"),
			want: "FAU - Smith, A\nFAU - Jones, B\nOT  - x\n",
		},
		{
			name: "unknown fields dropped",
			rec:  NewRecord().Set("notes", "n").Set("title", "T").Append("keywords", "k"),
			want: "TI  - T\n",
		},
		{
			name:        "unmapped type uses default",
			rec:         NewRecord().SetType(UnknownType),
			defaultType: "newspaperArticle",
			want:        "PT  - NEWSPAPER ARTICLE\n",
		},
		{
			name: "empty default falls back to journal article",
			rec:  NewRecord().SetType("thesis"),
			want: "PT  - JOURNAL ARTICLE\n",
		},
		{
			name: "no type field writes no type line",
			rec:  NewRecord().Set("title", "T"),
			want: "TI  - T\n",
		},
		{
			name: "long values are not wrapped",
			rec:  NewRecord().Set("abstract", "Part one part two part three part four part five part six part seven part eight."),
			want: "AB  - Part one part two part three part four part five part six part seven part eight.\n",
		},
		{
			name: "scalar stored under array field",
			rec:  NewRecord().Set("authors", "Solo, A"),
			want: "FAU - Solo, A\n",
		},
		{
			name: "empty record",
			rec:  NewRecord(),
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.rec, tt.defaultType); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatDoesNotMutateRecord(t *testing.T) {
	rec := NewRecord().SetType("web")
	Format(rec, DefaultType)
	if got := rec.Type(); got != "web" {
		t.Errorf("Type() after Format = %q, want web", got)
	}
}
