package errs

import (
	"errors"
	"fmt"
	"testing"
)

type recordingSink struct {
	calls []string
}

func (s *recordingSink) AddError(message string, code, origin string, data map[string]interface{}) {
	s.calls = append(s.calls, fmt.Sprintf("%s|%s|%s", code, origin, message))
}

type panickingSink struct{}

func (panickingSink) AddError(message string, code, origin string, data map[string]interface{}) {
	panic("sink exploded")
}

func TestCodeKnownAndUnknown(t *testing.T) {
	if got := Code(ModerationItemNotFound); got != "MOD-009" {
		t.Errorf("Code(ModerationItemNotFound) = %q, want MOD-009", got)
	}
	if got := Code(Kind("totally-unknown")); got != "MOD-000" {
		t.Errorf("Code(unknown) = %q, want MOD-000", got)
	}
}

func TestNewReportsToSink(t *testing.T) {
	sink := &recordingSink{}
	err := New(sink, InvalidInput, "mutation.create", "bad input", nil, map[string]interface{}{"field": "userId"})
	if len(sink.calls) != 1 {
		t.Fatalf("expected exactly one AddError call, got %d", len(sink.calls))
	}
	want := "MOD-001|mutation.create|bad input"
	if sink.calls[0] != want {
		t.Errorf("sink recorded %q, want %q", sink.calls[0], want)
	}
	if err.Kind != InvalidInput || err.Origin != "mutation.create" {
		t.Errorf("unexpected error value: %+v", err)
	}
}

func TestNewToleratesNilSink(t *testing.T) {
	err := New(nil, InvalidInput, "origin", "msg", nil, nil)
	if err == nil {
		t.Fatal("expected a non-nil error even with a nil sink")
	}
}

func TestNewRecoversFromPanickingSink(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("New must not let a panicking sink escape, got panic: %v", r)
		}
	}()
	err := New(panickingSink{}, StorageTransient, "origin", "msg", nil, nil)
	if err.Kind != StorageTransient {
		t.Errorf("expected the error to still be constructed, got %+v", err)
	}
}

func TestErrorMessageWithAndWithoutCause(t *testing.T) {
	plain := &Error{Kind: InvalidInput, Origin: "o", Message: "m"}
	if plain.Error() != "o: m" {
		t.Errorf("plain Error() = %q", plain.Error())
	}
	cause := errors.New("underlying")
	wrapped := &Error{Kind: InvalidInput, Origin: "o", Message: "m", Cause: cause}
	if wrapped.Error() != "o: m: underlying" {
		t.Errorf("wrapped Error() = %q", wrapped.Error())
	}
	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is should see through to the wrapped cause via Unwrap")
	}
}

func TestIsMatchesByKindOnly(t *testing.T) {
	a := New(nil, ModerationItemNotFound, "origin-a", "message-a", nil, nil)
	b := New(nil, ModerationItemNotFound, "origin-b", "message-b", nil, nil)
	c := New(nil, AlreadyDeleted, "origin-a", "message-a", nil, nil)

	if !errors.Is(a, b) {
		t.Error("two *Error values with the same Kind should match via errors.Is")
	}
	if errors.Is(a, c) {
		t.Error("two *Error values with different Kinds must not match")
	}
}

func TestSentinel(t *testing.T) {
	s := Sentinel(ModerationItemNotFound)
	wrapped := New(nil, ModerationItemNotFound, "origin", "not found", nil, nil)
	if !errors.Is(wrapped, s) {
		t.Error("a constructed error should match its bare Sentinel via errors.Is")
	}
}
