package lnsocket

import (
	"context"
	"io"

	"github.com/coder/websocket"

	"github.com/gosuda/lnsocket/lnerr"
)

// WebSocketDialer reaches a node over a WebSocket tunnel instead of a raw
// TCP socket, for deployments that proxy Lightning's binary protocol
// through an HTTP(S) front door.
type WebSocketDialer struct {
	// URL is the full ws:// or wss:// endpoint; addr passed to Dial is
	// ignored in favor of this fixed URL since WebSocket addressing is
	// already a full URL, not a bare host:port.
	URL string
}

func (d WebSocketDialer) Dial(ctx context.Context, addr string) (io.ReadWriteCloser, error) {
	conn, _, err := websocket.Dial(ctx, d.URL, nil)
	if err != nil {
		return nil, lnerr.Wrap(lnerr.KindIO, err)
	}
	conn.SetReadLimit(-1)
	netConn := websocket.NetConn(context.Background(), conn, websocket.MessageBinary)
	return netConn, nil
}
