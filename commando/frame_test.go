package commando

import (
	"bytes"
	"testing"

	"github.com/gosuda/lnsocket/lnwire"
)

func TestEncodeCommandLayout(t *testing.T) {
	body := []byte(`{"id":2,"method":"getinfo","params":[],"rune":"R"}`)
	frame := EncodeCommand(2, body)

	wantPrefix := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x02}
	if !bytes.Equal(frame[:8], wantPrefix) {
		t.Fatalf("request id prefix = % x, want % x", frame[:8], wantPrefix)
	}
	if !bytes.Equal(frame[8:], body) {
		t.Fatalf("body mismatch: got %q", frame[8:])
	}
}

func TestDecoderRoundTripsChunkAndDone(t *testing.T) {
	record := lnwire.EncodeRaw(TypeChunk, EncodeCommand(7, []byte("partial")))
	msg, err := lnwire.Decode(record, Decoder{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	chunk, ok := msg.(Chunk)
	if !ok || chunk.RequestID != 7 || string(chunk.Bytes) != "partial" {
		t.Fatalf("got %#v", msg)
	}

	record = lnwire.EncodeRaw(TypeDone, EncodeCommand(7, []byte("tail")))
	msg, err = lnwire.Decode(record, Decoder{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	done, ok := msg.(Done)
	if !ok || done.RequestID != 7 || string(done.Bytes) != "tail" {
		t.Fatalf("got %#v", msg)
	}
}

func TestDecoderLeavesOtherTagsUnclaimed(t *testing.T) {
	record := lnwire.EncodeRaw(0x2a, []byte("x"))
	msg, err := lnwire.Decode(record, Decoder{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, ok := msg.(lnwire.Unknown); !ok {
		t.Fatalf("expected Unknown, got %#v", msg)
	}
}
