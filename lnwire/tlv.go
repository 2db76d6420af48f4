package lnwire

import "github.com/gosuda/lnsocket/lnerr"

// TLV types carried in the Init message's extension stream (§6).
const (
	TLVTypeNetworks       uint64 = 1
	TLVTypeRemoteAddress  uint64 = 3
	ChainHashSize                = 32
)

// BitcoinMainnetChainHash is the genesis block hash of Bitcoin mainnet, byte
// for byte as it appears in a BOLT 1 "networks" TLV (double-SHA256 of the
// genesis block header, displayed little-endian here to match the wire).
var BitcoinMainnetChainHash = [ChainHashSize]byte{
	0x6f, 0xe2, 0x8c, 0x0a, 0xb6, 0xf1, 0xb3, 0x72,
	0xc1, 0xa6, 0xa2, 0x46, 0xae, 0x63, 0xf7, 0x4f,
	0x93, 0x1e, 0x83, 0x65, 0xe1, 0x5a, 0x08, 0x9c,
	0x68, 0xd6, 0x19, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// TLVRecord is one decoded (type, value) pair from an Init message's TLV
// stream. Unknown odd types are kept verbatim (BOLT-1 "ok to be odd");
// unknown even types fail the surrounding decode with
// KindUnknownRequiredFeature.
type TLVRecord struct {
	Type  uint64
	Value []byte
}

// readTLVVarInt implements BigSize, BOLT 1's variable-length integer: values
// below 0xfd encode as a single byte; 0xfd/0xfe/0xff prefix a 2/4/8-byte
// big-endian value.
func readTLVVarInt(r *LimitedReader, field string) (uint64, error) {
	prefix, err := r.ReadU8(field)
	if err != nil {
		return 0, err
	}
	switch prefix {
	case 0xfd:
		v, err := r.ReadU16(field)
		return uint64(v), err
	case 0xfe:
		v, err := r.ReadU32(field)
		return uint64(v), err
	case 0xff:
		return r.ReadU64(field)
	default:
		return uint64(prefix), nil
	}
}

// readTLVStream consumes every remaining byte in r as a sequence of
// (type, length, value) records.
func readTLVStream(r *LimitedReader) ([]TLVRecord, error) {
	var records []TLVRecord
	for r.RemainingBytes() > 0 {
		typ, err := readTLVVarInt(r, "tlv_type")
		if err != nil {
			return nil, err
		}
		length, err := readTLVVarInt(r, "tlv_length")
		if err != nil {
			return nil, err
		}
		value, err := r.ReadExact("tlv_value", int(length))
		if err != nil {
			return nil, err
		}
		records = append(records, TLVRecord{Type: typ, Value: value})
	}
	return records, nil
}

// findTLV returns the first record matching typ, if any.
func findTLV(records []TLVRecord, typ uint64) ([]byte, bool) {
	for _, rec := range records {
		if rec.Type == typ {
			return rec.Value, true
		}
	}
	return nil, false
}

// decodeNetworksTLV splits a concatenated list of 32-byte chain hashes.
func decodeNetworksTLV(value []byte) ([][ChainHashSize]byte, error) {
	if len(value)%ChainHashSize != 0 {
		return nil, lnerr.InvalidValue("networks", "length not a multiple of 32")
	}
	out := make([][ChainHashSize]byte, 0, len(value)/ChainHashSize)
	for i := 0; i < len(value); i += ChainHashSize {
		var h [ChainHashSize]byte
		copy(h[:], value[i:i+ChainHashSize])
		out = append(out, h)
	}
	return out, nil
}

// encodeTLVVarInt mirrors readTLVVarInt for the write path.
func encodeTLVVarInt(w *Writer, v uint64) {
	switch {
	case v < 0xfd:
		w.WriteU8(uint8(v))
	case v <= 0xffff:
		w.WriteU8(0xfd)
		w.WriteU16(uint16(v))
	case v <= 0xffffffff:
		w.WriteU8(0xfe)
		w.WriteU32(uint32(v))
	default:
		w.WriteU8(0xff)
		w.WriteU64(v)
	}
}

func encodeTLVRecord(w *Writer, typ uint64, value []byte) {
	encodeTLVVarInt(w, typ)
	encodeTLVVarInt(w, uint64(len(value)))
	w.WriteBytes(value)
}
