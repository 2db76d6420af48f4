package transport

import (
	"encoding/binary"
	"io"

	"github.com/gosuda/lnsocket/lnerr"
)

const (
	lengthHeaderSize = 2 + 16 // 2-byte length + its AEAD tag
	payloadTagSize   = 16
)

// Cipher is the post-handshake record layer: independent send and receive
// directions, each with its own key, chaining key, and rekey schedule.
// Encrypt/WriteRecord touch only the send direction and ReadRecord only the
// receive direction, so one writer and one reader may run concurrently;
// two concurrent calls on the same direction are not safe.
type Cipher struct {
	send *direction
	recv *direction
}

// NewCipher builds a Cipher from a handshake's derived keys and final
// chaining key. Both directions start from the same ck per BOLT 8; they
// diverge independently as each rekeys on its own message count.
func NewCipher(sendKey, recvKey, chainKey [32]byte) *Cipher {
	return &Cipher{
		send: newDirection(sendKey, chainKey),
		recv: newDirection(recvKey, chainKey),
	}
}

// Encrypt seals one message body into a wire record: an 18-byte encrypted
// length header followed by the encrypted, tagged payload.
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	aead, err := c.send.aead()
	if err != nil {
		return nil, lnerr.Wrap(lnerr.KindIO, err)
	}

	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(plaintext)))

	lenNonce := c.send.nonce()
	encLen := aead.Seal(nil, lenNonce[:], lenBuf[:], nil)
	c.send.advance()

	aead, err = c.send.aead()
	if err != nil {
		return nil, lnerr.Wrap(lnerr.KindIO, err)
	}
	payloadNonce := c.send.nonce()
	encPayload := aead.Seal(nil, payloadNonce[:], plaintext, nil)
	c.send.advance()

	out := make([]byte, 0, len(encLen)+len(encPayload))
	out = append(out, encLen...)
	out = append(out, encPayload...)
	return out, nil
}

// ReadRecord reads and decrypts exactly one record from r.
func (c *Cipher) ReadRecord(r io.Reader) ([]byte, error) {
	header := make([]byte, lengthHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, lnerr.Wrap(lnerr.KindIO, err)
	}

	aead, err := c.recv.aead()
	if err != nil {
		return nil, lnerr.Wrap(lnerr.KindIO, err)
	}
	nonce := c.recv.nonce()
	lenBuf, err := aead.Open(nil, nonce[:], header, nil)
	if err != nil {
		return nil, lnerr.New(lnerr.KindDecode, "transport: length header AEAD tag mismatch")
	}
	c.recv.advance()

	length := binary.BigEndian.Uint16(lenBuf)
	body := make([]byte, int(length)+payloadTagSize)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, lnerr.Wrap(lnerr.KindIO, err)
	}

	aead, err = c.recv.aead()
	if err != nil {
		return nil, lnerr.Wrap(lnerr.KindIO, err)
	}
	nonce = c.recv.nonce()
	plaintext, err := aead.Open(nil, nonce[:], body, nil)
	if err != nil {
		return nil, lnerr.New(lnerr.KindDecode, "transport: payload AEAD tag mismatch")
	}
	c.recv.advance()

	return plaintext, nil
}

// WriteRecord encrypts plaintext and writes the resulting record to w.
func (c *Cipher) WriteRecord(w io.Writer, plaintext []byte) error {
	record, err := c.Encrypt(plaintext)
	if err != nil {
		return err
	}
	_, err = w.Write(record)
	if err != nil {
		return lnerr.Wrap(lnerr.KindIO, err)
	}
	return nil
}
