// Package medline converts between the MEDLINE/PubMed tagged citation format
// and canonical reference records.
//
// # Wire Format
//
// A MEDLINE file is a sequence of records separated by blank lines. Each
// field opens with a four character tag followed by "- " and the value:
//
//	PMID- 7
//	TI  - Sample Title
//	AB  - Part one
//	      part two.
//	FAU - Smith, A
//	FAU - Jones, B
//
// Lines indented by six spaces continue the most recently opened field and
// are joined to it with a single space. Tags outside the field table are
// dropped together with their continuation lines.
//
// # Records
//
// A Record keeps its fields in insertion order. Array fields (authors, tags)
// hold one element per tag line; every other field is a scalar that a repeated
// tag overwrites. The type field holds a canonical type tag such as
// "journalArticle", or "unknown" when the source label has no mapping.
//
// # Parsing
//
// Records, Parse and ParseAll all drive the same line parser:
//
//	src, err := medline.NewSource(data)
//	if err != nil {
//	    return err
//	}
//	for rec, err := range medline.Records(ctx, src) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(rec.Get("title"))
//	}
//
// # Emitting
//
// Emit writes a slice of records, a single record, or the output of a
// Producer that hands out batches on demand. A blank line separates records;
// none follows the last one, and the destination is closed when input runs out.
//
//	stats, err := medline.Emit(ctx, w, medline.Options{Content: records})
package medline
