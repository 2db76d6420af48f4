package lnsocket

import (
	"context"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/sync/errgroup"

	"github.com/gosuda/lnsocket/lnerr"
	"github.com/gosuda/lnsocket/lnwire"
	"github.com/gosuda/lnsocket/noise"
	"github.com/gosuda/lnsocket/transport"
)

// Socket owns one BOLT 8 session: the raw byte stream and the transport
// cipher derived from the handshake. It is not safe for concurrent readers
// or writers — at most one of each, matching the Commando pump's exclusive
// ownership discipline above it.
type Socket struct {
	stream io.ReadWriteCloser
	cipher *transport.Cipher
}

// NewSocket wraps an already-handshaken stream and cipher pair. Connect is
// the common path for an initiator; this constructor exists for a
// responder or test harness that derives the cipher out of band (e.g. a
// server accepting an inbound Noise_XK handshake).
func NewSocket(stream io.ReadWriteCloser, cipher *transport.Cipher) *Socket {
	return &Socket{stream: stream, cipher: cipher}
}

// Connect resolves addr via dialer, drives the Noise_XK handshake to
// completion, and returns a ready socket. The handshake races the acts
// against ctx's deadline using an errgroup so a wedged peer can't hang the
// caller past the context's timeout.
func Connect(ctx context.Context, dialer Dialer, addr string, localStatic *secp256k1.PrivateKey, remoteStatic *secp256k1.PublicKey) (*Socket, error) {
	stream, err := dialer.Dial(ctx, addr)
	if err != nil {
		return nil, err
	}

	hs, err := noise.New(localStatic, remoteStatic, nil)
	if err != nil {
		stream.Close()
		return nil, err
	}

	var keys noise.TransportKeys
	g, gctx := errgroup.WithContext(ctx)
	handshakeDone := make(chan struct{})
	g.Go(func() error {
		defer close(handshakeDone)
		return runHandshake(gctx, stream, hs, &keys)
	})
	g.Go(func() error {
		// Closing the stream unblocks an act Read/Write stuck on a wedged peer.
		select {
		case <-handshakeDone:
			return nil
		case <-gctx.Done():
			stream.Close()
			return lnerr.Wrap(lnerr.KindIO, gctx.Err())
		}
	})

	if err := g.Wait(); err != nil {
		stream.Close()
		return nil, err
	}

	cipher := transport.NewCipher(keys.SendKey, keys.RecvKey, keys.ChainKey)
	return &Socket{stream: stream, cipher: cipher}, nil
}

// runHandshake performs the three acts in order, bailing out the moment
// ctx is done between steps (the underlying stream's own deadline, if any,
// bounds the individual Read/Write calls).
func runHandshake(ctx context.Context, stream io.ReadWriteCloser, hs *noise.HandshakeState, out *noise.TransportKeys) error {
	if err := ctx.Err(); err != nil {
		return lnerr.Wrap(lnerr.KindIO, err)
	}

	act1, err := hs.WriteActOne()
	if err != nil {
		return err
	}
	if _, err := stream.Write(act1); err != nil {
		return lnerr.Wrap(lnerr.KindIO, err)
	}

	if err := ctx.Err(); err != nil {
		return lnerr.Wrap(lnerr.KindIO, err)
	}
	act2 := make([]byte, noise.ActTwoSize)
	if _, err := io.ReadFull(stream, act2); err != nil {
		return lnerr.Wrap(lnerr.KindIO, err)
	}
	if err := hs.ReadActTwo(act2); err != nil {
		return err
	}

	act3, keys, err := hs.WriteActThree()
	if err != nil {
		return err
	}
	if _, err := stream.Write(act3); err != nil {
		return lnerr.Wrap(lnerr.KindIO, err)
	}

	*out = keys
	return nil
}

// Write encrypts msg and writes it as one record.
func (s *Socket) Write(msg lnwire.Message) error {
	return s.cipher.WriteRecord(s.stream, lnwire.Encode(msg))
}

// WriteRaw is Write's escape hatch for callers (commando) that build their
// own typed payload outside lnwire's known message set.
func (s *Socket) WriteRaw(typ uint16, payload []byte) error {
	return s.cipher.WriteRecord(s.stream, lnwire.EncodeRaw(typ, payload))
}

// Read reads and decodes one record, delegating unknown tags to custom if
// it is non-nil.
func (s *Socket) Read(custom lnwire.CustomDecoder) (lnwire.Message, error) {
	record, err := s.cipher.ReadRecord(s.stream)
	if err != nil {
		return nil, err
	}
	return lnwire.Decode(record, custom)
}

// PerformInit reads exactly one message and requires it to be Init; any
// other first message abandons the connection. On success it replies with
// our own minimal Init and returns the peer's.
func (s *Socket) PerformInit() (lnwire.Init, error) {
	msg, err := s.Read(nil)
	if err != nil {
		return lnwire.Init{}, err
	}
	peerInit, ok := msg.(lnwire.Init)
	if !ok {
		s.Close()
		return lnwire.Init{}, lnerr.New(lnerr.KindFirstMessageNotInit, "first message from peer was not Init")
	}
	if err := s.Write(lnwire.DefaultInit()); err != nil {
		return lnwire.Init{}, err
	}
	return peerInit, nil
}

// Close releases the underlying stream.
func (s *Socket) Close() error {
	return s.stream.Close()
}
