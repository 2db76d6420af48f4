// Package noise implements the initiator side of BOLT 8's Noise_XK
// handshake: three acts producing a pair of per-direction transport keys.
// It mirrors the transcript bookkeeping of a classic Noise implementation
// (mixHash/mixKey/encryptAndHash) but specialized to BOLT 8's exact curve,
// hash, and HKDF rather than a generic pattern engine.
package noise

import (
	"crypto/hmac"
	"crypto/sha256"
)

// hkdf2 is BOLT 8's two-output HKDF: a single extract step (HMAC with salt
// as key) followed by two chained expand steps, each one HMAC call. This is
// narrower than RFC 5869's general N-output Expand and is hand-rolled rather
// than pulled from golang.org/x/crypto/hkdf because that package's Reader
// always re-derives from the full info stream and doesn't expose the
// intermediate single-byte-counter chaining BOLT 8 specifies.
func hkdf2(salt, ikm []byte) (out1, out2 [32]byte) {
	prk := hmacSum(salt, ikm)
	t1 := hmacSum(prk[:], []byte{0x01})
	t2 := hmacSum(prk[:], append(append([]byte{}, t1[:]...), 0x02))
	return t1, t2
}

func hmacSum(key, data []byte) [32]byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	var out [32]byte
	copy(out[:], mac.Sum(nil))
	return out
}

func sha256Sum(data ...[]byte) [32]byte {
	h := sha256.New()
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
