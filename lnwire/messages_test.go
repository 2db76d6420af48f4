package lnwire

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gosuda/lnsocket/lnerr"
)

func decodeOrFatal(t *testing.T, record []byte) Message {
	t.Helper()
	msg, err := Decode(record, nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return msg
}

func TestRoundTripPing(t *testing.T) {
	want := Ping{PongLen: 4, Ignored: []byte{0, 0, 0, 0, 0, 0, 0, 0}}
	got := decodeOrFatal(t, Encode(want))
	if p, ok := got.(Ping); !ok || p.PongLen != want.PongLen || !bytes.Equal(p.Ignored, want.Ignored) {
		t.Fatalf("round trip mismatch: got %#v", got)
	}
}

func TestRoundTripPong(t *testing.T) {
	want := Pong{Ignored: []byte("hi")}
	got := decodeOrFatal(t, Encode(want))
	if p, ok := got.(Pong); !ok || !bytes.Equal(p.Ignored, want.Ignored) {
		t.Fatalf("round trip mismatch: got %#v", got)
	}
}

func TestRoundTripWarningAndError(t *testing.T) {
	var chanID [32]byte
	chanID[0] = 0xab

	w := Warning{ChannelID: chanID, Data: []byte("uh oh")}
	got := decodeOrFatal(t, Encode(w))
	if g, ok := got.(Warning); !ok || g.ChannelID != w.ChannelID || !bytes.Equal(g.Data, w.Data) {
		t.Fatalf("warning round trip mismatch: got %#v", got)
	}

	e := LNError{ChannelID: chanID, Data: []byte("nope")}
	got = decodeOrFatal(t, Encode(e))
	if g, ok := got.(LNError); !ok || g.ChannelID != e.ChannelID || !bytes.Equal(g.Data, e.Data) {
		t.Fatalf("error round trip mismatch: got %#v", got)
	}
}

func TestRoundTripInit(t *testing.T) {
	want := DefaultInit()
	got := decodeOrFatal(t, Encode(want))
	init, ok := got.(Init)
	if !ok {
		t.Fatalf("expected Init, got %#v", got)
	}
	if !bytes.Equal(init.GlobalFeatures, want.GlobalFeatures) {
		t.Fatalf("globalfeatures mismatch")
	}
	if !bytes.Equal(init.Features, want.Features) {
		t.Fatalf("features mismatch")
	}
	if len(init.Networks) != 1 || init.Networks[0] != BitcoinMainnetChainHash {
		t.Fatalf("networks mismatch: %#v", init.Networks)
	}
}

// TestPingWireBytes checks spec §8 scenario 2: Ping{ponglen=4, byteslen=8}
// serializes (after the 2-byte type tag) to the literal 12-byte body.
func TestPingWireBytes(t *testing.T) {
	msg := Ping{PongLen: 4, Ignored: make([]byte, 8)}
	encoded := Encode(msg)
	if len(encoded) != 2+12 {
		t.Fatalf("expected 14 bytes total, got %d", len(encoded))
	}
	body := encoded[2:]
	want := []byte{0x00, 0x04, 0x00, 0x08, 0, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(body, want) {
		t.Fatalf("body mismatch: got % x want % x", body, want)
	}
}

func TestUnknownTagWithoutCustomDecoder(t *testing.T) {
	record := EncodeRaw(0x2a, []byte{1, 2, 3})
	msg, err := Decode(record, nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	u, ok := msg.(Unknown)
	if !ok || u.Type != 0x2a || !bytes.Equal(u.Payload, []byte{1, 2, 3}) {
		t.Fatalf("expected Unknown(0x2a), got %#v", msg)
	}
}

type stubCustomDecoder struct {
	claimType uint16
}

func (d stubCustomDecoder) TryDecode(typ uint16, r *LimitedReader) (Message, bool, error) {
	if typ != d.claimType {
		return nil, false, nil
	}
	return Unknown{Type: typ, Payload: r.ReadToEnd()}, true, nil
}

func TestCustomDecoderClaimsTag(t *testing.T) {
	record := EncodeRaw(0x4c4f, []byte("payload"))
	msg, err := Decode(record, stubCustomDecoder{claimType: 0x4c4f})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if u, ok := msg.(Unknown); !ok || string(u.Payload) != "payload" {
		t.Fatalf("expected custom decoder to claim the tag, got %#v", msg)
	}
}

func TestShortReadNamesOffendingField(t *testing.T) {
	// Ping requires at least 2 bytes for num_pong_bytes; give it none.
	record := EncodeRaw(TypePing, nil)
	_, err := Decode(record, nil)
	if err == nil {
		t.Fatalf("expected a short-read decode error")
	}
	var lnErr *lnerr.Error
	if !errors.As(err, &lnErr) || lnErr.Field != "num_pong_bytes" {
		t.Fatalf("expected error naming num_pong_bytes, got %v", err)
	}
}
