package medline

import (
	"context"
	"fmt"
	"io"

	"github.com/FocuswithJustin/medline/core/errors"
)

// BatchKind tags the variant held by a Batch.
type BatchKind int

const (
	// BatchDone ends the pull loop.
	BatchDone BatchKind = iota
	// BatchRecords carries an ordered slice of records.
	BatchRecords
	// BatchSingle carries one record.
	BatchSingle
)

// Batch is one response from a Producer. Build it with RecordsBatch,
// SingleBatch or DoneBatch.
type Batch struct {
	Kind    BatchKind
	Records []*Record
	Record  *Record
	// Last marks the final batch; its last record is written without a
	// trailing separator.
	Last bool
}

// RecordsBatch returns a batch of records. An empty slice ends the loop.
func RecordsBatch(recs []*Record, last bool) Batch {
	return Batch{Kind: BatchRecords, Records: recs, Last: last}
}

// SingleBatch returns a batch holding exactly one record.
func SingleBatch(rec *Record, last bool) Batch {
	return Batch{Kind: BatchSingle, Record: rec, Last: last}
}

// DoneBatch returns the batch that ends the loop.
func DoneBatch() Batch {
	return Batch{Kind: BatchDone}
}

// done reports whether the batch carries nothing to write.
func (b Batch) done() bool {
	switch b.Kind {
	case BatchRecords:
		return len(b.Records) == 0
	case BatchSingle:
		return b.Record == nil
	default:
		return true
	}
}

// Producer hands out records in batches. Next is called with batch indexes
// 0, 1, 2... and never before every record of the previous batch has been
// written.
type Producer interface {
	Next(ctx context.Context, batch int) (Batch, error)
}

// ProducerFunc adapts a function to Producer.
type ProducerFunc func(ctx context.Context, batch int) (Batch, error)

// Next calls f.
func (f ProducerFunc) Next(ctx context.Context, batch int) (Batch, error) {
	return f(ctx, batch)
}

// Options configures Emit.
type Options struct {
	// Content is a Producer (or ProducerFunc), a []*Record or []Record, or a
	// single *Record or Record. Producers take priority.
	Content any
	// DefaultType is used for records whose type tag has no MEDLINE label.
	// Empty means DefaultType ("journalArticle").
	DefaultType string
	// Name labels the destination in errors.
	Name string
}

// Stats summarizes an Emit run.
type Stats struct {
	Records int
	Batches int
	Bytes   int64
}

// Encoder writes formatted records to a stream. Every record not marked last
// is followed by a blank separator line.
type Encoder struct {
	w           io.Writer
	defaultType string
	name        string
	stats       Stats
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer, defaultType string) *Encoder {
	if defaultType == "" {
		defaultType = DefaultType
	}
	return &Encoder{w: w, defaultType: defaultType}
}

// Encode writes one record. last suppresses the trailing separator.
func (e *Encoder) Encode(rec *Record, last bool) error {
	block := Format(rec, e.defaultType)
	if !last {
		block += "\n"
	}
	n, err := io.WriteString(e.w, block)
	e.stats.Bytes += int64(n)
	if err != nil {
		return errors.NewIO("write", e.name, err)
	}
	e.stats.Records++
	return nil
}

// Stats returns the totals written so far.
func (e *Encoder) Stats() Stats {
	return e.stats
}

// Emit writes opts.Content to dst and closes dst once input is exhausted.
//
// Missing content fails with a ValidationError before anything is written.
// A producer error stops the run with a ProducerError; records already
// written stay written and dst is left open for the caller.
func Emit(ctx context.Context, dst io.WriteCloser, opts Options) (Stats, error) {
	if isMissing(opts.Content) {
		return Stats{}, errors.NewMissingContent()
	}
	if dst == nil {
		return Stats{}, errors.NewValidation("stream", "no destination has been provided")
	}

	enc := NewEncoder(dst, opts.DefaultType)
	enc.name = opts.Name

	var err error
	switch c := opts.Content.(type) {
	case Producer:
		err = enc.pull(ctx, c)
	case func(context.Context, int) (Batch, error):
		err = enc.pull(ctx, ProducerFunc(c))
	case []*Record:
		err = enc.encodeAll(c)
		enc.stats.Batches = 1
	case []Record:
		recs := make([]*Record, len(c))
		for i := range c {
			recs[i] = &c[i]
		}
		err = enc.encodeAll(recs)
		enc.stats.Batches = 1
	case *Record:
		err = enc.Encode(c, true)
		enc.stats.Batches = 1
	case Record:
		err = enc.Encode(&c, true)
		enc.stats.Batches = 1
	default:
		return Stats{}, errors.NewUnsupported("content", fmt.Sprintf("%T", opts.Content))
	}
	if err != nil {
		return enc.stats, err
	}

	if err := dst.Close(); err != nil {
		return enc.stats, errors.NewIO("close", opts.Name, err)
	}
	return enc.stats, nil
}

func isMissing(content any) bool {
	switch c := content.(type) {
	case nil:
		return true
	case *Record:
		return c == nil
	case ProducerFunc:
		return c == nil
	case func(context.Context, int) (Batch, error):
		return c == nil
	}
	return false
}

func (e *Encoder) encodeAll(recs []*Record) error {
	for i, rec := range recs {
		if err := e.Encode(rec, i == len(recs)-1); err != nil {
			return err
		}
	}
	return nil
}

// pull drives p until it returns an empty batch.
func (e *Encoder) pull(ctx context.Context, p Producer) error {
	for batch := 0; ; batch++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		b, err := p.Next(ctx, batch)
		if err != nil {
			return errors.NewProducer(batch, err)
		}
		if b.done() {
			return nil
		}
		e.stats.Batches++

		if b.Kind == BatchSingle {
			if err := e.Encode(b.Record, b.Last); err != nil {
				return err
			}
			continue
		}
		for i, rec := range b.Records {
			if err := e.Encode(rec, b.Last && i == len(b.Records)-1); err != nil {
				return err
			}
		}
	}
}
