// Package lnwire implements BOLT 1 wire-message framing: big-endian
// serialization primitives (C1) and the typed message dispatch/encode
// layer (C4). It never touches the transport cipher; callers hand it
// exactly one decrypted record at a time.
package lnwire

import "github.com/gosuda/lnsocket/lnerr"

// Type tags, big-endian on the wire. Evenness carries BOLT 1's "it's OK to
// be odd" rule: peers must understand even-tagged messages.
const (
	TypeWarning uint16 = 1
	TypeInit    uint16 = 16
	TypeError   uint16 = 17
	TypePing    uint16 = 18
	TypePong    uint16 = 19
)

// Message is satisfied by every decoded wire message, known or not.
type Message interface {
	MessageType() uint16
}

// Warning carries an optional channel id plus a human-readable reason.
type Warning struct {
	ChannelID [32]byte
	Data      []byte
}

func (Warning) MessageType() uint16 { return TypeWarning }

// LNError mirrors BOLT 1's "error" message. Named LNError to avoid
// colliding with the builtin error interface.
type LNError struct {
	ChannelID [32]byte
	Data      []byte
}

func (LNError) MessageType() uint16 { return TypeError }

// Ping requests ponglen bytes of ignorable padding in reply.
type Ping struct {
	PongLen  uint16
	Ignored  []byte
}

func (Ping) MessageType() uint16 { return TypePing }

// Pong answers a Ping; len(Ignored) bytes of padding follow.
type Pong struct {
	Ignored []byte
}

func (Pong) MessageType() uint16 { return TypePong }

// Init is BOLT 1's feature-negotiation message, extended with SPEC_FULL
// §5.1's exposed-but-unused peer feature vector: every field here is
// populated from whatever the peer actually sent, not from what we intend
// to send back (DefaultInit in init.go owns that).
type Init struct {
	GlobalFeatures []byte
	Features       []byte
	Networks       [][ChainHashSize]byte
	HasRemoteAddr  bool
	RemoteAddr     []byte // opaque TLV-3 payload; unparsed, exposed for callers that care
}

func (Init) MessageType() uint16 { return TypeInit }

// Unknown represents a message type lnwire doesn't decode and the caller's
// CustomDecoder declined to claim.
type Unknown struct {
	Type    uint16
	Payload []byte
}

func (u Unknown) MessageType() uint16 { return u.Type }

// CustomDecoder lets a higher layer (commando) claim message types lnwire
// doesn't know about without lnwire knowing anything about Commando. It
// returns ok=false to mean "not mine", in which case the tag surfaces as
// Unknown.
type CustomDecoder interface {
	TryDecode(typ uint16, r *LimitedReader) (msg Message, ok bool, err error)
}

// requiredFeatureAllowList is the set of even (must-understand) feature
// bits this library tolerates without failing the decode. Empty by
// default: SPEC_FULL §5.2 deliberately flags every other even bit.
var requiredFeatureAllowList = map[int]bool{}

// checkRequiredFeatures scans a feature byte vector (as transmitted:
// big-endian bit order, bit 0 is the least significant bit of the last
// byte) for a set even bit outside the allow-list.
func checkRequiredFeatures(field string, features []byte) error {
	for byteIdx, b := range features {
		if b == 0 {
			continue
		}
		for bit := 0; bit < 8; bit++ {
			if b&(1<<bit) == 0 {
				continue
			}
			bitIdx := (len(features)-1-byteIdx)*8 + bit
			if bitIdx%2 != 0 {
				continue // odd bit, fine to not understand
			}
			if requiredFeatureAllowList[bitIdx] {
				continue
			}
			return lnerr.NewField(lnerr.KindUnknownRequiredFeature, field, "even feature bit not understood")
		}
	}
	return nil
}

// Decode reads one already-decrypted record (2-byte type tag + payload) and
// dispatches it to a known decoder, a caller-supplied custom decoder, or
// Unknown. The custom decoder, if present, is tried before Unknown is
// synthesized but only for tags this package itself doesn't own.
func Decode(record []byte, custom CustomDecoder) (Message, error) {
	r := NewLimitedReader(record)
	typ, err := r.ReadU16("type")
	if err != nil {
		return nil, err
	}

	switch typ {
	case TypeWarning:
		return decodeWarning(r)
	case TypeInit:
		return decodeInit(r)
	case TypeError:
		return decodeError(r)
	case TypePing:
		return decodePing(r)
	case TypePong:
		return decodePong(r)
	default:
		if custom != nil {
			msg, ok, err := custom.TryDecode(typ, r)
			if err != nil {
				return nil, err
			}
			if ok {
				return msg, nil
			}
		}
		return Unknown{Type: typ, Payload: r.ReadToEnd()}, nil
	}
}

func decodeWarning(r *LimitedReader) (Message, error) {
	chanID, err := r.ReadExact("channel_id", 32)
	if err != nil {
		return nil, err
	}
	data, err := r.ReadVec("data")
	if err != nil {
		return nil, err
	}
	var w Warning
	copy(w.ChannelID[:], chanID)
	w.Data = append([]byte(nil), data...)
	return w, nil
}

func decodeError(r *LimitedReader) (Message, error) {
	chanID, err := r.ReadExact("channel_id", 32)
	if err != nil {
		return nil, err
	}
	data, err := r.ReadVec("data")
	if err != nil {
		return nil, err
	}
	var e LNError
	copy(e.ChannelID[:], chanID)
	e.Data = append([]byte(nil), data...)
	return e, nil
}

func decodePing(r *LimitedReader) (Message, error) {
	pongLen, err := r.ReadU16("num_pong_bytes")
	if err != nil {
		return nil, err
	}
	ignored, err := r.ReadVec("ignored")
	if err != nil {
		return nil, err
	}
	return Ping{PongLen: pongLen, Ignored: append([]byte(nil), ignored...)}, nil
}

func decodePong(r *LimitedReader) (Message, error) {
	ignored, err := r.ReadVec("ignored")
	if err != nil {
		return nil, err
	}
	return Pong{Ignored: append([]byte(nil), ignored...)}, nil
}

func decodeInit(r *LimitedReader) (Message, error) {
	global, err := r.ReadVec("globalfeatures")
	if err != nil {
		return nil, err
	}
	if err := checkRequiredFeatures("globalfeatures", global); err != nil {
		return nil, err
	}
	features, err := r.ReadVec("features")
	if err != nil {
		return nil, err
	}
	if err := checkRequiredFeatures("features", features); err != nil {
		return nil, err
	}

	msg := Init{
		GlobalFeatures: append([]byte(nil), global...),
		Features:       append([]byte(nil), features...),
	}

	if r.RemainingBytes() > 0 {
		records, err := readTLVStream(r)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			if rec.Type%2 == 0 {
				return nil, lnerr.NewField(lnerr.KindUnknownRequiredFeature, "tlv_type", "even TLV type not understood")
			}
		}
		if v, ok := findTLV(records, TLVTypeNetworks); ok {
			hashes, err := decodeNetworksTLV(v)
			if err != nil {
				return nil, err
			}
			msg.Networks = hashes
		}
		if v, ok := findTLV(records, TLVTypeRemoteAddress); ok {
			msg.HasRemoteAddr = true
			msg.RemoteAddr = append([]byte(nil), v...)
		}
	}

	return msg, nil
}

// Encode re-serializes msg into a 2-byte type tag followed by its payload,
// ready for the transport cipher to encrypt as one record.
func Encode(msg Message) []byte {
	w := NewWriter()
	w.WriteU16(msg.MessageType())

	switch m := msg.(type) {
	case Warning:
		w.WriteBytes(m.ChannelID[:])
		w.WriteVec(m.Data)
	case LNError:
		w.WriteBytes(m.ChannelID[:])
		w.WriteVec(m.Data)
	case Ping:
		w.WriteU16(m.PongLen)
		w.WriteVec(m.Ignored)
	case Pong:
		w.WriteVec(m.Ignored)
	case Init:
		w.WriteVec(m.GlobalFeatures)
		w.WriteVec(m.Features)
		if len(m.Networks) > 0 {
			tlv := NewWriter()
			flat := make([]byte, 0, len(m.Networks)*ChainHashSize)
			for _, h := range m.Networks {
				flat = append(flat, h[:]...)
			}
			encodeTLVRecord(tlv, TLVTypeNetworks, flat)
			w.WriteBytes(tlv.Bytes())
		}
	case Unknown:
		w.WriteBytes(m.Payload)
	default:
		panic("lnwire: Encode called on an unregistered message type")
	}

	return w.Bytes()
}

// EncodeRaw is used by custom-message owners (commando) that build their
// own payload bytes and only need the type-tag prefix applied.
func EncodeRaw(typ uint16, payload []byte) []byte {
	w := NewWriter()
	w.WriteU16(typ)
	w.WriteBytes(payload)
	return w.Bytes()
}
