package lnerr

import (
	"errors"
	"io"
	"testing"
)

func TestErrorIsMatchesByKind(t *testing.T) {
	a := New(KindIO, "connection reset")
	b := New(KindIO, "broken pipe")
	if !errors.Is(a, b) {
		t.Fatalf("expected errors of the same Kind to match via errors.Is")
	}

	c := New(KindDNS, "no such host")
	if errors.Is(a, c) {
		t.Fatalf("expected errors of different Kind not to match")
	}
}

func TestWrapPreservesUnderlyingError(t *testing.T) {
	wrapped := Wrap(KindIO, io.ErrUnexpectedEOF)
	if !errors.Is(wrapped, io.ErrUnexpectedEOF) {
		t.Fatalf("expected Wrap to preserve Unwrap chain to the original error")
	}
}

func TestCloneIsIndependentValue(t *testing.T) {
	original := New(KindRPC, "boom")
	original.Code = 42
	clone := original.Clone()
	clone.Code = 7
	if original.Code != 42 {
		t.Fatalf("mutating clone must not affect original, got %d", original.Code)
	}
}

func TestShortReadNamesField(t *testing.T) {
	err := ShortRead("globalfeatures")
	if err.Kind != KindDecode {
		t.Fatalf("expected KindDecode, got %v", err.Kind)
	}
	if err.Field != "globalfeatures" {
		t.Fatalf("expected field name in error, got %q", err.Field)
	}
}
