// Package lnsocket owns the byte stream and cipher for one BOLT 8 session:
// it drives the handshake to completion over an injected dialer, then
// exposes typed read/write on top of the transport and wire layers.
package lnsocket

import (
	"context"
	"fmt"
	"io"
	"net"

	"golang.org/x/net/proxy"

	"github.com/gosuda/lnsocket/lnerr"
)

// Dialer produces a full-duplex byte stream to a Lightning node's address.
// The core treats it as an injected factory; TCPDialer, SOCKS5Dialer, and
// WebSocketDialer are the collaborators SPEC_FULL names.
type Dialer interface {
	Dial(ctx context.Context, addr string) (io.ReadWriteCloser, error)
}

// TCPDialer dials addr directly.
type TCPDialer struct {
	Net net.Dialer
}

func (d TCPDialer) Dial(ctx context.Context, addr string) (io.ReadWriteCloser, error) {
	conn, err := d.Net.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, lnerr.Wrap(lnerr.KindIO, err)
	}
	return conn, nil
}

// TorConfig names a local SOCKS5 proxy. Its zero value has no defaults;
// DefaultTorConfig gives the standard Tor daemon address.
type TorConfig struct {
	Host string
	Port int
}

// DefaultTorConfig points at a Tor daemon's default SOCKS5 listener.
func DefaultTorConfig() TorConfig {
	return TorConfig{Host: "127.0.0.1", Port: 9050}
}

// SOCKS5Dialer routes the connection through a SOCKS5 proxy (typically Tor).
type SOCKS5Dialer struct {
	Proxy TorConfig
}

func (d SOCKS5Dialer) Dial(ctx context.Context, addr string) (io.ReadWriteCloser, error) {
	proxyAddr := fmt.Sprintf("%s:%d", d.Proxy.Host, d.Proxy.Port)
	dialer, err := proxy.SOCKS5("tcp", proxyAddr, nil, proxy.Direct)
	if err != nil {
		return nil, lnerr.Wrap(lnerr.KindProxyConnection, err)
	}
	contextDialer, ok := dialer.(proxy.ContextDialer)
	if !ok {
		// golang.org/x/net/proxy always returns a context-aware dialer for
		// SOCKS5; this branch only guards against a future API change.
		conn, err := dialer.Dial("tcp", addr)
		if err != nil {
			return nil, lnerr.Wrap(lnerr.KindProxyConnection, err)
		}
		return conn, nil
	}
	conn, err := contextDialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, lnerr.Wrap(lnerr.KindProxyConnection, err)
	}
	return conn, nil
}
