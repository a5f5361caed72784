package medline

import (
	"context"
	"iter"
	"regexp"
	"strings"
	"sync"

	"github.com/FocuswithJustin/medline/core/errors"
)

// tagLine matches a field-open line: four characters, "- ", then the value.
var tagLine = regexp.MustCompile(`^(.{4})- (.*)$`)

// continuationIndent prefixes a line that extends the current field.
const continuationIndent = "      "

type parserState int

const (
	// stateNoRecord: the accumulator is empty.
	stateNoRecord parserState = iota
	// stateInField: the last field-open line had a known tag.
	stateInField
	// stateInUnknownField: the last field-open line had an unknown tag;
	// its continuation lines are dropped.
	stateInUnknownField
)

// lineParser assembles records one line at a time.
type lineParser struct {
	state   parserState
	rec     *Record
	current FieldEntry
}

func newLineParser() *lineParser {
	return &lineParser{rec: NewRecord()}
}

// feed consumes one line and returns the record it completed, if any.
func (p *lineParser) feed(line string) *Record {
	if m := tagLine.FindStringSubmatch(line); m != nil {
		entry, ok := LookupTag(m[1])
		if !ok {
			p.state = stateInUnknownField
			p.current = FieldEntry{}
			return nil
		}
		p.current = entry
		if entry.IsArray {
			p.rec.Append(entry.Name, m[2])
		} else {
			p.rec.Set(entry.Name, m[2])
		}
		p.state = stateInField
		return nil
	}

	if strings.HasPrefix(line, continuationIndent) {
		if p.state == stateInField {
			p.rec.AppendContinuation(p.current.Name, line[len(continuationIndent):])
		}
		return nil
	}

	if line == "" {
		return p.flush()
	}

	return nil
}

// flush closes the accumulator. A non-empty record gets its type resolved
// and is returned; the accumulator resets either way.
func (p *lineParser) flush() *Record {
	rec := p.rec
	p.rec = NewRecord()
	p.state = stateNoRecord
	p.current = FieldEntry{}

	if rec.IsEmpty() {
		return nil
	}
	label, _ := rec.Get(TypeField)
	rec.SetType(CanonicalType(label))
	return rec
}

// scan runs the parser over normalized text, calling yield per record until
// yield returns false. A synthetic blank line flushes the final record.
func scan(text string, yield func(*Record) bool) bool {
	p := newLineParser()
	for line := range strings.SplitSeq(text, "\n") {
		if rec := p.feed(line); rec != nil {
			if !yield(rec) {
				return false
			}
		}
	}
	if rec := p.feed(""); rec != nil {
		return yield(rec)
	}
	return true
}

// Records returns the records of src as a lazy, single-use sequence. Nothing
// is read until the sequence is ranged over. A read error is yielded once
// with a nil record and ends the sequence.
func Records(ctx context.Context, src Source) iter.Seq2[*Record, error] {
	return func(yield func(*Record, error) bool) {
		text, err := src.Text(ctx)
		if err != nil {
			yield(nil, err)
			return
		}
		scan(text, func(rec *Record) bool {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return false
			}
			return yield(rec, nil)
		})
	}
}

// ParseAll parses v (see NewSource) and collects every record.
func ParseAll(ctx context.Context, v any) ([]*Record, error) {
	src, err := NewSource(v)
	if err != nil {
		return nil, err
	}
	var out []*Record
	for rec, err := range Records(ctx, src) {
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// ParseString parses MEDLINE text and collects every record.
func ParseString(text string) []*Record {
	var out []*Record
	scan(normalizeNewlines(text), func(rec *Record) bool {
		out = append(out, rec)
		return true
	})
	return out
}

// Parse is a handle for one parse run. Subscribe with OnRecord, OnEnd and
// OnError, then call Run or Start; no record is produced before that. A run
// ends with exactly one end or error notification.
type Parse struct {
	src Source

	mu       sync.Mutex
	started  bool
	onRecord []func(*Record)
	onEnd    []func()
	onError  []func(error)
}

// NewParse validates v (see NewSource) and returns an unstarted handle.
// Unsupported input fails here, before any handle exists.
func NewParse(v any) (*Parse, error) {
	src, err := NewSource(v)
	if err != nil {
		return nil, err
	}
	return &Parse{src: src}, nil
}

// OnRecord subscribes fn to every completed record, in source order.
func (p *Parse) OnRecord(fn func(*Record)) *Parse {
	p.mu.Lock()
	p.onRecord = append(p.onRecord, fn)
	p.mu.Unlock()
	return p
}

// OnEnd subscribes fn to the end of input.
func (p *Parse) OnEnd(fn func()) *Parse {
	p.mu.Lock()
	p.onEnd = append(p.onEnd, fn)
	p.mu.Unlock()
	return p
}

// OnError subscribes fn to a read or cancellation error.
func (p *Parse) OnError(fn func(error)) *Parse {
	p.mu.Lock()
	p.onError = append(p.onError, fn)
	p.mu.Unlock()
	return p
}

// Run parses the whole source, notifying subscribers synchronously. It can
// be called once; later calls fail without notifying anyone.
func (p *Parse) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return errors.NewValidation("parse", "already started")
	}
	p.started = true
	onRecord := p.onRecord
	onEnd := p.onEnd
	onError := p.onError
	p.mu.Unlock()

	for rec, err := range Records(ctx, p.src) {
		if err != nil {
			for _, fn := range onError {
				fn(err)
			}
			return err
		}
		for _, fn := range onRecord {
			fn(rec)
		}
	}
	for _, fn := range onEnd {
		fn()
	}
	return nil
}

// Start runs the parse on a new goroutine. The channel receives Run's result
// and is then closed.
func (p *Parse) Start(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- p.Run(ctx)
	}()
	return done
}
