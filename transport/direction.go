// Package transport implements BOLT 8's post-handshake record layer: a
// length-then-payload ChaCha20-Poly1305 framing with independent
// per-direction keys and a 1000-message rekey schedule.
package transport

import (
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"

	"golang.org/x/crypto/chacha20poly1305"
)

// rekeyInterval is the number of successful encrypt/decrypt operations a
// direction performs before it rotates its key, per BOLT 8.
const rekeyInterval = 1000

// direction holds one half (send or receive) of the post-handshake cipher
// state: the current symmetric key, the chaining key feeding its rekey
// schedule, and the message counter that doubles as the nonce.
type direction struct {
	k     [32]byte
	ck    [32]byte
	n     uint64
	count uint64
}

func newDirection(k, ck [32]byte) *direction {
	return &direction{k: k, ck: ck}
}

// nonce encodes BOLT 8's 96-bit layout: 4 zero bytes, then an 8-byte
// little-endian counter.
func (d *direction) nonce() [chacha20poly1305.NonceSize]byte {
	var out [chacha20poly1305.NonceSize]byte
	for i := 0; i < 8; i++ {
		out[4+i] = byte(d.n >> (8 * i))
	}
	return out
}

func (d *direction) aead() (cipher.AEAD, error) {
	return chacha20poly1305.New(d.k[:])
}

// advance runs after every successful encrypt/decrypt: bumps the nonce,
// and rekeys once the interval is hit.
func (d *direction) advance() {
	d.n++
	d.count++
	if d.count == rekeyInterval {
		d.rekey()
		d.count = 0
	}
}

// rekey applies BOLT 8's two-output HKDF to the chaining key and current
// key, replacing both and resetting the nonce to zero.
func (d *direction) rekey() {
	prk := hmacSum(d.ck[:], d.k[:])
	t1 := hmacSum(prk[:], []byte{0x01})
	t2 := hmacSum(prk[:], append(append([]byte{}, t1[:]...), 0x02))
	d.ck = t1
	d.k = t2
	d.n = 0
}

func hmacSum(key, data []byte) [32]byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	var out [32]byte
	copy(out[:], mac.Sum(nil))
	return out
}
