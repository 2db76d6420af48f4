package lnsocket

import (
	"crypto/hmac"
	"crypto/sha256"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/gosuda/lnsocket/noise"
)

// testResponder plays the peer side of a Noise_XK handshake using the same
// BOLT 8 primitives the noise package's initiator uses, so socket_test.go
// can exercise Connect end to end without a second network stack.
type testResponder struct {
	static    *secp256k1.PrivateKey
	ephemeral *secp256k1.PrivateKey

	ck [32]byte
	h  [32]byte

	tempK2          [32]byte
	remoteEphemeral *secp256k1.PublicKey
	keys            noise.TransportKeys
}

var protocolName = []byte("Noise_XK_secp256k1_ChaChaPoly_SHA256")
var prologue = []byte("lightning")

func newTestResponder(static, ephemeral *secp256k1.PrivateKey) *testResponder {
	r := &testResponder{static: static, ephemeral: ephemeral}
	r.h = sha256Chain(protocolName)
	r.ck = r.h
	r.h = sha256Chain(r.h[:], prologue)
	r.h = sha256Chain(r.h[:], static.PubKey().SerializeCompressed())
	return r
}

func sha256Chain(parts ...[]byte) [32]byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// ecdhTest is BOLT 8's ECDH: SHA-256 of the compressed shared point.
func ecdhTest(priv *secp256k1.PrivateKey, pub *secp256k1.PublicKey) [32]byte {
	var point, result secp256k1.JacobianPoint
	pub.AsJacobian(&point)
	secp256k1.ScalarMultNonConst(&priv.Key, &point, &result)
	result.ToAffine()
	return sha256Chain(secp256k1.NewPublicKey(&result.X, &result.Y).SerializeCompressed())
}

func hkdf2Test(salt, ikm []byte) (t1, t2 [32]byte) {
	mac := hmac.New(sha256.New, salt)
	mac.Write(ikm)
	var prk [32]byte
	copy(prk[:], mac.Sum(nil))

	mac = hmac.New(sha256.New, prk[:])
	mac.Write([]byte{0x01})
	copy(t1[:], mac.Sum(nil))

	mac = hmac.New(sha256.New, prk[:])
	mac.Write(t1[:])
	mac.Write([]byte{0x02})
	copy(t2[:], mac.Sum(nil))
	return
}

func aeadNonce(counter uint64) [chacha20poly1305.NonceSize]byte {
	var out [chacha20poly1305.NonceSize]byte
	for i := 0; i < 8; i++ {
		out[4+i] = byte(counter >> (8 * i))
	}
	return out
}

func (r *testResponder) readActOne(msg []byte) error {
	rePub := msg[1:34]
	c := msg[34:50]

	re, err := secp256k1.ParsePubKey(rePub)
	if err != nil {
		return err
	}
	r.h = sha256Chain(r.h[:], rePub)

	es := ecdhTest(r.static, re)
	ck, tempK1 := hkdf2Test(r.ck[:], es[:])
	r.ck = ck

	aead, err := chacha20poly1305.New(tempK1[:])
	if err != nil {
		return err
	}
	nonce := aeadNonce(0)
	if _, err := aead.Open(nil, nonce[:], c, r.h[:]); err != nil {
		return err
	}
	r.h = sha256Chain(r.h[:], c)
	r.remoteEphemeral = re
	return nil
}

func (r *testResponder) writeActTwo() ([]byte, error) {
	epub := r.ephemeral.PubKey().SerializeCompressed()
	r.h = sha256Chain(r.h[:], epub)

	ee := ecdhTest(r.ephemeral, r.remoteEphemeral)
	ck, tempK2 := hkdf2Test(r.ck[:], ee[:])
	r.ck = ck
	r.tempK2 = tempK2

	aead, err := chacha20poly1305.New(tempK2[:])
	if err != nil {
		return nil, err
	}
	nonce := aeadNonce(0)
	c := aead.Seal(nil, nonce[:], nil, r.h[:])
	r.h = sha256Chain(r.h[:], c)

	out := make([]byte, 0, 50)
	out = append(out, 0x00)
	out = append(out, epub...)
	out = append(out, c...)
	return out, nil
}

func (r *testResponder) readActThree(msg []byte) (noise.TransportKeys, error) {
	c := msg[1:50]
	t := msg[50:66]

	aead, err := chacha20poly1305.New(r.tempK2[:])
	if err != nil {
		return noise.TransportKeys{}, err
	}
	nonce := aeadNonce(1)
	spub, err := aead.Open(nil, nonce[:], c, r.h[:])
	if err != nil {
		return noise.TransportKeys{}, err
	}
	r.h = sha256Chain(r.h[:], c)

	initiatorPub, err := secp256k1.ParsePubKey(spub)
	if err != nil {
		return noise.TransportKeys{}, err
	}

	se := ecdhTest(r.ephemeral, initiatorPub)
	ck, tempK3 := hkdf2Test(r.ck[:], se[:])
	r.ck = ck

	aead, err = chacha20poly1305.New(tempK3[:])
	if err != nil {
		return noise.TransportKeys{}, err
	}
	nonce = aeadNonce(0)
	if _, err := aead.Open(nil, nonce[:], t, r.h[:]); err != nil {
		return noise.TransportKeys{}, err
	}

	initiatorSend, initiatorRecv := hkdf2Test(r.ck[:], nil)
	return noise.TransportKeys{SendKey: initiatorRecv, RecvKey: initiatorSend, ChainKey: r.ck}, nil
}
