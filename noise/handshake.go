package noise

import (
	"crypto/rand"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/gosuda/lnsocket/lnerr"
)

// protocolName and prologue are fixed per BOLT 8.
var (
	protocolName = []byte("Noise_XK_secp256k1_ChaChaPoly_SHA256")
	prologue     = []byte("lightning")
)

const (
	ActOneSize   = 50
	ActTwoSize   = 50
	ActThreeSize = 66

	versionByte = 0x00
)

// Phase names the initiator's position in the three-act exchange.
type Phase int

const (
	PreAct1 Phase = iota
	AwaitingAct2
	AwaitingAct3Write
	Done
)

// TransportKeys is the pair of directional keys a completed handshake
// yields: SendKey feeds the initiator's outbound cipher direction, RecvKey
// the inbound one.
type TransportKeys struct {
	SendKey [32]byte
	RecvKey [32]byte
	ChainKey [32]byte
}

// HandshakeState drives the initiator side of Noise_XK to completion. It is
// not safe for concurrent use; C5 (the socket) owns it exclusively for the
// duration of Connect.
type HandshakeState struct {
	phase Phase

	localStatic    *secp256k1.PrivateKey
	localEphemeral *secp256k1.PrivateKey
	remoteStatic   *secp256k1.PublicKey
	remoteEphemeral *secp256k1.PublicKey

	ck     [32]byte
	h      [32]byte
	tempK2 [32]byte
}

// New builds a handshake state for connecting to remoteStatic using
// localStatic as our long-term identity. entropy supplies the ephemeral key's
// entropy; pass a deterministic io.Reader in tests to reproduce a known
// transcript, or nil for crypto/rand.
func New(localStatic *secp256k1.PrivateKey, remoteStatic *secp256k1.PublicKey, entropy io.Reader) (*HandshakeState, error) {
	if entropy == nil {
		entropy = rand.Reader
	}
	ephemeral, err := generateKey(entropy)
	if err != nil {
		return nil, lnerr.Wrap(lnerr.KindIO, err)
	}

	hs := &HandshakeState{
		phase:          PreAct1,
		localStatic:    localStatic,
		localEphemeral: ephemeral,
		remoteStatic:   remoteStatic,
	}

	// h = SHA-256(protocol_name); ck = h; mix in prologue and rs.
	hs.h = sha256Sum(protocolName)
	hs.ck = hs.h
	hs.mixHash(prologue)
	hs.mixHash(remoteStatic.SerializeCompressed())

	return hs, nil
}

func generateKey(entropy io.Reader) (*secp256k1.PrivateKey, error) {
	var buf [32]byte
	if _, err := io.ReadFull(entropy, buf[:]); err != nil {
		return nil, err
	}
	return secp256k1.PrivKeyFromBytes(buf[:]), nil
}

func (hs *HandshakeState) mixHash(data []byte) {
	hs.h = sha256Sum(hs.h[:], data)
}

func (hs *HandshakeState) mixKey(ikm []byte) [32]byte {
	ck, tempK := hkdf2(hs.ck[:], ikm)
	hs.ck = ck
	return tempK
}

// ecdh is BOLT 8's ECDH: SHA-256 of the compressed shared point.
func ecdh(priv *secp256k1.PrivateKey, pub *secp256k1.PublicKey) []byte {
	var point, result secp256k1.JacobianPoint
	pub.AsJacobian(&point)
	secp256k1.ScalarMultNonConst(&priv.Key, &point, &result)
	result.ToAffine()
	secret := sha256Sum(secp256k1.NewPublicKey(&result.X, &result.Y).SerializeCompressed())
	return secret[:]
}

func handshakeNonce(counter uint64) [chacha20poly1305.NonceSize]byte {
	var nonce [chacha20poly1305.NonceSize]byte
	// BOLT 8: low 4 bytes zero, next 8 bytes little-endian counter.
	for i := 0; i < 8; i++ {
		nonce[4+i] = byte(counter >> (8 * i))
	}
	return nonce
}

func encryptWithAD(key [32]byte, counter uint64, ad, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, err
	}
	nonce := handshakeNonce(counter)
	return aead.Seal(nil, nonce[:], plaintext, ad), nil
}

func decryptWithAD(key [32]byte, counter uint64, ad, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, err
	}
	nonce := handshakeNonce(counter)
	plaintext, err := aead.Open(nil, nonce[:], ciphertext, ad)
	if err != nil {
		return nil, lnerr.New(lnerr.KindDecode, "noise: act AEAD tag mismatch")
	}
	return plaintext, nil
}

// WriteActOne produces the 50-byte act-1 message. It is only valid in
// phase PreAct1 and advances to AwaitingAct2.
func (hs *HandshakeState) WriteActOne() ([]byte, error) {
	if hs.phase != PreAct1 {
		return nil, lnerr.New(lnerr.KindDecode, "noise: WriteActOne called out of order")
	}

	epub := hs.localEphemeral.PubKey().SerializeCompressed()
	hs.mixHash(epub)

	es := ecdh(hs.localEphemeral, hs.remoteStatic)
	tempK1 := hs.mixKey(es)

	c, err := encryptWithAD(tempK1, 0, hs.h[:], nil)
	if err != nil {
		return nil, lnerr.Wrap(lnerr.KindIO, err)
	}
	hs.mixHash(c)

	out := make([]byte, 0, ActOneSize)
	out = append(out, versionByte)
	out = append(out, epub...)
	out = append(out, c...)

	hs.phase = AwaitingAct2
	return out, nil
}

// ReadActTwo consumes the peer's 50-byte act-2 reply. Only valid in phase
// AwaitingAct2; advances to AwaitingAct3Write.
func (hs *HandshakeState) ReadActTwo(msg []byte) error {
	if hs.phase != AwaitingAct2 {
		return lnerr.New(lnerr.KindDecode, "noise: ReadActTwo called out of order")
	}
	if len(msg) != ActTwoSize {
		return lnerr.ShortRead("act2")
	}
	if msg[0] != versionByte {
		return lnerr.InvalidValue("act2_version", "unsupported handshake version")
	}

	rePub := msg[1:34]
	c := msg[34:50]

	re, err := secp256k1.ParsePubKey(rePub)
	if err != nil {
		return lnerr.Wrap(lnerr.KindDecode, err)
	}
	hs.remoteEphemeral = re
	hs.mixHash(rePub)

	ee := ecdh(hs.localEphemeral, re)
	tempK2 := hs.mixKey(ee)
	hs.tempK2 = tempK2

	if _, err := decryptWithAD(tempK2, 0, hs.h[:], c); err != nil {
		return err
	}
	hs.mixHash(c)

	hs.phase = AwaitingAct3Write
	return nil
}

// WriteActThree produces the 66-byte act-3 message and finalizes the
// handshake, returning the transport key pair. Only valid in phase
// AwaitingAct3Write; advances to Done.
func (hs *HandshakeState) WriteActThree() ([]byte, TransportKeys, error) {
	if hs.phase != AwaitingAct3Write {
		return nil, TransportKeys{}, lnerr.New(lnerr.KindDecode, "noise: WriteActThree called out of order")
	}

	spub := hs.localStatic.PubKey().SerializeCompressed()
	c, err := encryptWithAD(hs.tempK2, 1, hs.h[:], spub)
	if err != nil {
		return nil, TransportKeys{}, lnerr.Wrap(lnerr.KindIO, err)
	}
	hs.mixHash(c)

	se := ecdh(hs.localStatic, hs.remoteEphemeral)
	tempK3 := hs.mixKey(se)

	t, err := encryptWithAD(tempK3, 0, hs.h[:], nil)
	if err != nil {
		return nil, TransportKeys{}, lnerr.Wrap(lnerr.KindIO, err)
	}

	sendKey, recvKey := hkdf2(hs.ck[:], nil)

	out := make([]byte, 0, ActThreeSize)
	out = append(out, versionByte)
	out = append(out, c...)
	out = append(out, t...)

	hs.phase = Done
	return out, TransportKeys{SendKey: sendKey, RecvKey: recvKey, ChainKey: hs.ck}, nil
}

// Phase reports the current position in the exchange.
func (hs *HandshakeState) Phase() Phase { return hs.phase }
