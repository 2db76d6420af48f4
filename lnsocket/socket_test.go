package lnsocket

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/gosuda/lnsocket/lnwire"
	"github.com/gosuda/lnsocket/transport"
)

type pipeDialer struct {
	conn net.Conn
}

func (d pipeDialer) Dial(ctx context.Context, addr string) (io.ReadWriteCloser, error) {
	return d.conn, nil
}

func fixedPrivKey(b byte) *secp256k1.PrivateKey {
	buf := make([]byte, 32)
	for i := range buf {
		buf[i] = b
	}
	return secp256k1.PrivKeyFromBytes(buf)
}

// runFakeResponder plays the peer side of the handshake directly over a
// net.Conn, enough to let Connect's initiator flow complete. It mirrors
// the three-act exchange the noise package's own tests drive by hand.
func runFakeResponder(t *testing.T, conn net.Conn, static, ephemeral *secp256k1.PrivateKey) {
	t.Helper()

	act1 := make([]byte, 50)
	if _, err := io.ReadFull(conn, act1); err != nil {
		t.Errorf("responder: read act1: %v", err)
		return
	}

	sim := newTestResponder(static, ephemeral)
	if err := sim.readActOne(act1); err != nil {
		t.Errorf("responder: readActOne: %v", err)
		return
	}
	act2, err := sim.writeActTwo()
	if err != nil {
		t.Errorf("responder: writeActTwo: %v", err)
		return
	}
	if _, err := conn.Write(act2); err != nil {
		t.Errorf("responder: write act2: %v", err)
		return
	}

	act3 := make([]byte, 66)
	if _, err := io.ReadFull(conn, act3); err != nil {
		t.Errorf("responder: read act3: %v", err)
		return
	}
	keys, err := sim.readActThree(act3)
	if err != nil {
		t.Errorf("responder: readActThree: %v", err)
		return
	}
	sim.keys = keys
}

func TestConnectCompletesHandshake(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	respStatic := fixedPrivKey(0x21)
	respEphemeral := fixedPrivKey(0x22)

	done := make(chan struct{})
	go func() {
		defer close(done)
		runFakeResponder(t, serverConn, respStatic, respEphemeral)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sock, err := Connect(ctx, pipeDialer{conn: clientConn}, "ignored", fixedPrivKey(0x11), respStatic.PubKey())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer sock.Close()

	<-done
}

func TestPerformInitRejectsNonInitFirstMessage(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	sendKey, recvKey, chainKey := [32]byte{1}, [32]byte{2}, [32]byte{3}
	serverSock := &Socket{stream: b, cipher: transport.NewCipher(recvKey, sendKey, chainKey)}
	clientSock := &Socket{stream: a, cipher: transport.NewCipher(sendKey, recvKey, chainKey)}

	go func() {
		_ = clientSock.Write(lnwire.Pong{Ignored: nil})
	}()

	if _, err := serverSock.PerformInit(); err == nil {
		t.Fatalf("expected FirstMessageNotInit error")
	}
}
