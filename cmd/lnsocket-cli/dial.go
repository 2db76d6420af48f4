package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/lnsocket/commando"
	"github.com/gosuda/lnsocket/lnsocket"
)

// session is the product of dial + handshake + init, handed to both
// subcommands so neither duplicates the setup sequence.
type session struct {
	sock   *lnsocket.Socket
	client *commando.Client
}

func openSession(ctx context.Context) (*session, error) {
	remoteStatic, err := parseRemoteKey(flagNodeKey)
	if err != nil {
		return nil, err
	}
	localStatic, err := parseOrGenerateLocalKey(flagLocalKey)
	if err != nil {
		return nil, err
	}

	dialer, addr, err := buildDialer()
	if err != nil {
		return nil, err
	}

	log.Debug().Str("addr", addr).Msg("dialing")
	sock, err := lnsocket.Connect(ctx, dialer, addr, localStatic, remoteStatic)
	if err != nil {
		return nil, fmt.Errorf("handshake: %w", err)
	}

	peerInit, err := sock.PerformInit()
	if err != nil {
		sock.Close()
		return nil, fmt.Errorf("init exchange: %w", err)
	}
	log.Debug().
		Int("peer_global_features_len", len(peerInit.GlobalFeatures)).
		Int("peer_features_len", len(peerInit.Features)).
		Int("peer_networks", len(peerInit.Networks)).
		Msg("init exchange complete")

	client := commando.New(sock, flagRune, commando.WithLogger(log.Logger))
	return &session{sock: sock, client: client}, nil
}

func buildDialer() (lnsocket.Dialer, string, error) {
	switch {
	case flagWSURL != "":
		return lnsocket.WebSocketDialer{URL: flagWSURL}, flagWSURL, nil
	case flagTor:
		if flagAddr == "" {
			return nil, "", fmt.Errorf("--addr is required with --tor")
		}
		return lnsocket.SOCKS5Dialer{Proxy: lnsocket.TorConfig{Host: flagTorHost, Port: flagTorPort}}, flagAddr, nil
	case flagAddr != "":
		return lnsocket.TCPDialer{}, flagAddr, nil
	default:
		return nil, "", fmt.Errorf("one of --addr or --ws is required")
	}
}

func parseRemoteKey(hexKey string) (*secp256k1.PublicKey, error) {
	if hexKey == "" {
		return nil, fmt.Errorf("--node-key is required")
	}
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("--node-key: %w", err)
	}
	pub, err := secp256k1.ParsePubKey(raw)
	if err != nil {
		return nil, fmt.Errorf("--node-key: %w", err)
	}
	return pub, nil
}

func parseOrGenerateLocalKey(hexKey string) (*secp256k1.PrivateKey, error) {
	if hexKey == "" {
		var buf [32]byte
		if _, err := rand.Read(buf[:]); err != nil {
			return nil, fmt.Errorf("generating ephemeral local key: %w", err)
		}
		return secp256k1.PrivKeyFromBytes(buf[:]), nil
	}
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("--local-key: %w", err)
	}
	return secp256k1.PrivKeyFromBytes(raw), nil
}
