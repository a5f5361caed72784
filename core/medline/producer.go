package medline

import (
	"context"
	"iter"
)

// SeqProducer adapts a record sequence (such as Records) to a Producer that
// hands out one record per batch. It reads one record ahead so the final
// record is marked last. An error from seq is returned by the Next call that
// would have produced it.
//
// Call stop to release seq when the producer is abandoned before it is
// drained; calling stop after the sequence is exhausted is harmless.
func SeqProducer(seq iter.Seq2[*Record, error]) (Producer, func()) {
	next, stop := iter.Pull2(seq)

	var (
		rec    *Record
		err    error
		ok     bool
		primed bool
	)
	p := ProducerFunc(func(ctx context.Context, batch int) (Batch, error) {
		if !primed {
			rec, err, ok = next()
			primed = true
		}
		if !ok {
			return DoneBatch(), nil
		}
		if err != nil {
			ok = false
			return Batch{}, err
		}

		cur := rec
		rec, err, ok = next()
		return SingleBatch(cur, !ok), nil
	})
	return p, stop
}
