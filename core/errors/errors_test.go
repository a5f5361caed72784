package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      *NotFoundError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with ID",
			err:      &NotFoundError{Resource: "record", ID: "b7a1"},
			wantMsg:  "record not found: b7a1",
			wantBase: ErrNotFound,
		},
		{
			name:     "without ID",
			err:      &NotFoundError{Resource: "record"},
			wantMsg:  "record not found",
			wantBase: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		underlyingErr := fmt.Errorf("no rows")
		err := &NotFoundError{Resource: "record", ID: "x", Err: underlyingErr}
		if got := err.Unwrap(); got != underlyingErr {
			t.Errorf("Unwrap() = %v, want %v", got, underlyingErr)
		}
	})
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ValidationError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with field",
			err:      NewValidation("defaultType", "unknown canonical type"),
			wantMsg:  "validation failed for defaultType: unknown canonical type",
			wantBase: ErrInvalidInput,
		},
		{
			name:     "without field",
			err:      &ValidationError{Message: "bad"},
			wantMsg:  "validation failed: bad",
			wantBase: ErrInvalidInput,
		},
		{
			name:     "missing content",
			err:      NewMissingContent(),
			wantMsg:  "validation failed for content: no content has been provided",
			wantBase: ErrMissingContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, tt.wantBase) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.wantBase)
			}
		})
	}
}

func TestIOError(t *testing.T) {
	base := fmt.Errorf("disk full")
	err := NewIO("write", "out.nbib", base)
	if got, want := err.Error(), "failed to write out.nbib: disk full"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, base) {
		t.Error("IOError should unwrap to its cause")
	}

	noPath := NewIO("close", "", base)
	if got, want := noPath.Error(), "failed to close: disk full"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestParseError(t *testing.T) {
	err := NewParse("JSON", "refs.json", "unexpected token")
	if got, want := err.Error(), "failed to parse JSON at refs.json: unexpected token"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ParseError should unwrap to ErrInvalidInput")
	}

	noPath := NewParse("config", "", "bad yaml")
	if got, want := noPath.Error(), "failed to parse config: bad yaml"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestUnsupportedError(t *testing.T) {
	err := NewUnsupported("parse source", "int")
	if got, want := err.Error(), "unsupported parse source: int"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrUnsupported) {
		t.Error("UnsupportedError should unwrap to ErrUnsupported")
	}
	if got, want := (&UnsupportedError{Feature: "content"}).Error(), "unsupported content"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestProducerError(t *testing.T) {
	base := fmt.Errorf("page fetch failed")
	err := NewProducer(3, base)
	if got, want := err.Error(), "producer failed at batch 3: page fetch failed"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, base) {
		t.Error("ProducerError should unwrap to the producer's error")
	}

	var pe *ProducerError
	wrapped := Wrap(err, "emit")
	if !As(wrapped, &pe) {
		t.Fatal("As should find ProducerError through Wrap")
	}
	if pe.Batch != 3 {
		t.Errorf("Batch = %d, want 3", pe.Batch)
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "ctx") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if Wrapf(nil, "ctx %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}
	err := Wrapf(ErrNotFound, "record %s", "abc")
	if got, want := err.Error(), "record abc: not found"; got != want {
		t.Errorf("Wrapf() = %q, want %q", got, want)
	}
	if !Is(err, ErrNotFound) {
		t.Error("Is should see through Wrapf")
	}
}
