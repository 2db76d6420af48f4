// Command lnsocket-cli dials a Core Lightning node's Commando listener,
// drives the BOLT 8 handshake, and either fires one JSON-RPC call or keeps
// the connection open behind a small status endpoint.
package main

import (
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lnsocket-cli",
	Short: "Dial a Lightning node's Commando RPC over a BOLT 8 Noise_XK connection",
}

var (
	flagAddr     string
	flagNodeKey  string
	flagLocalKey string
	flagRune     string
	flagTor      bool
	flagTorHost  string
	flagTorPort  int
	flagWSURL    string
	flagTimeout  time.Duration
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagAddr, "addr", "", "node address (host:port), required unless --ws is set")
	flags.StringVar(&flagNodeKey, "node-key", "", "hex-encoded compressed secp256k1 public key of the remote node (required)")
	flags.StringVar(&flagLocalKey, "local-key", "", "hex-encoded secp256k1 private key to handshake as; random if empty")
	flags.StringVar(&flagRune, "rune", "", "Commando rune authorizing this connection's calls")
	flags.BoolVar(&flagTor, "tor", false, "dial through a local SOCKS5/Tor proxy instead of TCP")
	flags.StringVar(&flagTorHost, "tor-host", "127.0.0.1", "SOCKS5 proxy host, used with --tor")
	flags.IntVar(&flagTorPort, "tor-port", 9050, "SOCKS5 proxy port, used with --tor")
	flags.StringVar(&flagWSURL, "ws", "", "dial over a WebSocket relay at this URL instead of TCP/SOCKS5")
	flags.DurationVar(&flagTimeout, "timeout", 10*time.Second, "handshake and per-call timeout")

	rootCmd.AddCommand(callCmd, serveCmd)
}

func main() {
	if isatty.IsTerminal(os.Stderr.Fd()) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("lnsocket-cli")
	}
}
