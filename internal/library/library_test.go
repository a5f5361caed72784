package library

import (
	"context"
	"fmt"
	"iter"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FocuswithJustin/medline/core/errors"
	"github.com/FocuswithJustin/medline/core/medline"
)

const sample = "PMID- 1\nTI  - First\nFAU - A, One\nFAU - B, Two\nPT  - JOURNAL ARTICLE\n\n" +
	"PMID- 2\nTI  - Second\nPT  - LETTER\n\n" +
	"PMID- 3\nTI  - Third\nPT  - CASE REPORTS\n"

func openTemp(t *testing.T) *Library {
	t.Helper()
	lib, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open library: %v", err)
	}
	t.Cleanup(func() { lib.Close() })
	return lib
}

func seqOf(recs []*medline.Record) iter.Seq2[*medline.Record, error] {
	return func(yield func(*medline.Record, error) bool) {
		for _, r := range recs {
			if !yield(r, nil) {
				return
			}
		}
	}
}

func TestDriverInfo(t *testing.T) {
	info := GetInfo()
	if info.DriverName == "" || info.DriverType == "" || info.Package == "" {
		t.Errorf("incomplete driver info: %+v", info)
	}
	if info.DriverName != driverName {
		t.Errorf("DriverName = %s, want %s", info.DriverName, driverName)
	}
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	lib := openTemp(t)

	rec := medline.ParseString(sample)[0]
	id, inserted, err := lib.Put(ctx, rec)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if !inserted {
		t.Error("first Put should insert")
	}

	got, err := lib.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.Equal(rec) {
		t.Errorf("Get = %s, want %s", got, rec)
	}
	if strings.Join(got.Names(), ",") != strings.Join(rec.Names(), ",") {
		t.Errorf("field order = %v, want %v", got.Names(), rec.Names())
	}
}

func TestGetReturnsCopies(t *testing.T) {
	ctx := context.Background()
	lib := openTemp(t)

	id, _, err := lib.Put(ctx, medline.NewRecord().Set("recNo", "1").Set("title", "Cached"))
	if err != nil {
		t.Fatal(err)
	}

	first, err := lib.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	first.Set("title", "Changed")

	second, err := lib.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := second.Get("title"); got != "Cached" {
		t.Errorf("cached title = %q, want %q", got, "Cached")
	}
}

func TestPutDeduplicates(t *testing.T) {
	ctx := context.Background()
	lib := openTemp(t)

	rec := medline.NewRecord().Set("recNo", "9").Set("title", "Same")
	id1, _, err := lib.Put(ctx, rec)
	if err != nil {
		t.Fatal(err)
	}

	// Same content in a different field order.
	again := medline.NewRecord().Set("title", "Same").Set("recNo", "9")
	id2, inserted, err := lib.Put(ctx, again)
	if err != nil {
		t.Fatal(err)
	}
	if inserted {
		t.Error("duplicate Put should not insert")
	}
	if id1 != id2 {
		t.Errorf("duplicate id = %s, want %s", id2, id1)
	}

	n, err := lib.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestFingerprint(t *testing.T) {
	a := medline.NewRecord().Set("a", "1").Append("b", "x", "y")
	b := medline.NewRecord().Append("b", "x", "y").Set("a", "1")
	c := medline.NewRecord().Set("a", "1").Append("b", "y", "x")

	fa, _ := Fingerprint(a)
	fb, _ := Fingerprint(b)
	fc, _ := Fingerprint(c)
	if fa != fb {
		t.Error("field order should not change the fingerprint")
	}
	if fa == fc {
		t.Error("element order should change the fingerprint")
	}
	if len(fa) != 64 {
		t.Errorf("fingerprint length = %d, want 64", len(fa))
	}
}

func TestGetNotFound(t *testing.T) {
	lib := openTemp(t)
	_, err := lib.Get(context.Background(), "missing")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	lib := openTemp(t)

	recs := medline.ParseString(sample)
	stats, err := lib.Import(ctx, seqOf(recs))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if stats.Inserted != 3 || stats.Skipped != 0 {
		t.Errorf("first import = %+v, want 3 inserted", stats)
	}

	stats, err = lib.Import(ctx, medline.Records(ctx, medline.StringSource(sample)))
	if err != nil {
		t.Fatalf("second Import failed: %v", err)
	}
	if stats.Inserted != 0 || stats.Skipped != 3 {
		t.Errorf("second import = %+v, want 3 skipped", stats)
	}

	found, err := lib.FindByRecNo(ctx, "2")
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || found[0].Type() != "personalCommunication" {
		t.Errorf("FindByRecNo(2) = %v", found)
	}
}

func TestImportRollsBack(t *testing.T) {
	ctx := context.Background()
	lib := openTemp(t)

	boom := fmt.Errorf("boom")
	seq := func(yield func(*medline.Record, error) bool) {
		if !yield(medline.NewRecord().Set("recNo", "1"), nil) {
			return
		}
		yield(nil, boom)
	}

	if _, err := lib.Import(ctx, seq); !errors.Is(err, boom) {
		t.Fatalf("Import error = %v, want boom", err)
	}
	n, err := lib.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("Count after failed import = %d, want 0", n)
	}
}

func TestProducerPages(t *testing.T) {
	ctx := context.Background()
	lib := openTemp(t)

	var recs []*medline.Record
	for i := range 5 {
		recs = append(recs, medline.NewRecord().Set("recNo", fmt.Sprint(i)))
	}
	if _, err := lib.Import(ctx, seqOf(recs)); err != nil {
		t.Fatal(err)
	}

	p := lib.Producer(2)
	wantSizes := []int{2, 2, 1}
	for batch, want := range wantSizes {
		b, err := p.Next(ctx, batch)
		if err != nil {
			t.Fatalf("Next(%d) failed: %v", batch, err)
		}
		if len(b.Records) != want {
			t.Errorf("batch %d size = %d, want %d", batch, len(b.Records), want)
		}
		if b.Last != (batch == len(wantSizes)-1) {
			t.Errorf("batch %d Last = %v", batch, b.Last)
		}
	}
	b, err := p.Next(ctx, len(wantSizes))
	if err != nil {
		t.Fatal(err)
	}
	if b.Kind != medline.BatchDone {
		t.Errorf("batch after last = %+v, want done", b)
	}
}

type sink struct {
	strings.Builder
	closes int
}

func (s *sink) Close() error {
	s.closes++
	return nil
}

func TestProducerEmitRoundTrip(t *testing.T) {
	ctx := context.Background()
	lib := openTemp(t)

	if _, err := lib.Import(ctx, medline.Records(ctx, medline.StringSource(sample))); err != nil {
		t.Fatal(err)
	}

	var out sink
	stats, err := medline.Emit(ctx, &out, medline.Options{Content: lib.Producer(2)})
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	if out.closes != 1 {
		t.Errorf("closes = %d, want 1", out.closes)
	}
	if stats.Records != 3 || stats.Batches != 2 {
		t.Errorf("stats = %+v, want 3 records in 2 batches", stats)
	}

	want := medline.ParseString(sample)
	got := medline.ParseString(out.String())
	if len(got) != len(want) {
		t.Fatalf("round trip = %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("record %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestProducerEmpty(t *testing.T) {
	ctx := context.Background()
	lib := openTemp(t)

	var out sink
	stats, err := medline.Emit(ctx, &out, medline.Options{Content: lib.Producer(10)})
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 || stats.Records != 0 {
		t.Errorf("empty library wrote %q", out.String())
	}
	if out.closes != 1 {
		t.Errorf("closes = %d, want 1", out.closes)
	}
}
