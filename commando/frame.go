// Package commando drives Core Lightning's "Commando" JSON-RPC transport:
// two custom BOLT-1 message types carrying request/response frames over an
// already-handshaken lnsocket connection, demultiplexed by request ID.
package commando

import (
	"encoding/binary"

	"github.com/gosuda/lnsocket/lnwire"
)

// Commando's custom message types, chosen by Core Lightning outside the
// BOLT-1 even/odd allocation ranges.
const (
	TypeCommand uint16 = 0x4c4f // client -> server: one JSON-RPC request
	TypeChunk   uint16 = 0x594b // server -> client: continuation chunk
	TypeDone    uint16 = 0x594d // server -> client: terminating chunk
)

// Chunk is one non-terminal reply fragment for a request ID.
type Chunk struct {
	RequestID uint64
	Bytes     []byte
}

func (Chunk) MessageType() uint16 { return TypeChunk }

// Done is the terminal reply fragment for a request ID; the pump appends
// its Bytes and then parses the full accumulator as JSON.
type Done struct {
	RequestID uint64
	Bytes     []byte
}

func (Done) MessageType() uint16 { return TypeDone }

// Command is an inbound TypeCommand frame. The client side of this package
// never receives one, but Decoder claims it anyway so a future server
// (or a test harness standing in for one) can decode requests with the
// same type switch it uses for chunks and dones.
type Command struct {
	RequestID uint64
	Body      []byte
}

func (Command) MessageType() uint16 { return TypeCommand }

// Decoder implements lnwire.CustomDecoder for all three Commando frame
// types.
type Decoder struct{}

func (Decoder) TryDecode(typ uint16, r *lnwire.LimitedReader) (lnwire.Message, bool, error) {
	switch typ {
	case TypeCommand:
		id, bytes, err := decodeFrameBody(r)
		if err != nil {
			return nil, true, err
		}
		return Command{RequestID: id, Body: bytes}, true, nil
	case TypeChunk:
		id, bytes, err := decodeFrameBody(r)
		if err != nil {
			return nil, true, err
		}
		return Chunk{RequestID: id, Bytes: bytes}, true, nil
	case TypeDone:
		id, bytes, err := decodeFrameBody(r)
		if err != nil {
			return nil, true, err
		}
		return Done{RequestID: id, Bytes: bytes}, true, nil
	default:
		return nil, false, nil
	}
}

func decodeFrameBody(r *lnwire.LimitedReader) (uint64, []byte, error) {
	id, err := r.ReadU64("commando_request_id")
	if err != nil {
		return 0, nil, err
	}
	return id, r.ReadToEnd(), nil
}

// EncodeCommand builds the payload for a TypeCommand frame: the 8-byte
// big-endian request ID followed by the raw JSON body.
func EncodeCommand(id uint64, jsonBody []byte) []byte {
	out := make([]byte, 8, 8+len(jsonBody))
	binary.BigEndian.PutUint64(out, id)
	return append(out, jsonBody...)
}
