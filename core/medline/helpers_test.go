package medline

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
)

// assertRecord fails the test when got and want differ, dumping both.
func assertRecord(t *testing.T, got, want *Record) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("record mismatch\n got: %s\nwant: %s\n%s", got, want, spew.Sdump(got.Names(), want.Names()))
	}
}

// assertRecords compares two record slices element by element.
func assertRecords(t *testing.T, got, want []*Record) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d\n%s", len(got), len(want), spew.Sdump(got))
	}
	for i := range got {
		assertRecord(t, got[i], want[i])
	}
}
