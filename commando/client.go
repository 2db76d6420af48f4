package commando

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/gosuda/lnsocket/lnerr"
	"github.com/gosuda/lnsocket/lnsocket"
	"github.com/gosuda/lnsocket/lnwire"
)

// request is the exact JSON shape Core Lightning expects inside a
// TypeCommand frame: field names and presence matter, not just types.
type request struct {
	ID     uint64          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	Rune   string          `json:"rune"`
}

// pendingCall is the pump's bookkeeping for one outstanding request:
// everything received so far for its ID, and the one-shot channel the
// waiting caller reads from.
type pendingCall struct {
	accumulator []byte
	completion  chan callResult
}

type callResult struct {
	body json.RawMessage
	err  error
}

// startCall is the sole control-channel message shape: insert a pending
// slot and write the command frame, in that order, before any reply can
// possibly race ahead of the registration.
type startCall struct {
	id         uint64
	frame      []byte
	completion chan callResult
}

// Client is the caller-facing handle to a running pump. It holds a
// control-channel sender, the default rune, the atomic ID counter, the
// pump's exit signal, its logger, and the Stats counters — the socket
// itself is owned exclusively by the pump goroutine.
type Client struct {
	ctrl   chan startCall
	nextID atomic.Uint64
	rune   string
	done   chan struct{}
	log    zerolog.Logger

	pending  atomic.Int64
	bytesIn  atomic.Uint64
	bytesOut atomic.Uint64
}

// Stats is a snapshot of pump activity, exposed read-only for the CLI's
// status endpoint.
type Stats struct {
	Pending  int64
	BytesIn  uint64
	BytesOut uint64
}

// Stats reads the current pump counters. Safe to call concurrently with
// an active connection.
func (c *Client) Stats() Stats {
	return Stats{
		Pending:  c.pending.Load(),
		BytesIn:  c.bytesIn.Load(),
		BytesOut: c.bytesOut.Load(),
	}
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithLogger attaches a sink for the pump's three-tier logging: Debug for
// Ping/Pong liveness, Trace for recoverable-and-silent events (orphaned
// chunks, stray tags). The default is zerolog.Nop() — library packages
// stay silent unless a caller opts in.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New spawns the pump goroutine, handing it exclusive ownership of sock,
// and returns the caller's handle. rune is sent with every call unless a
// caller builds its own request (not exposed; out of scope).
func New(sock *lnsocket.Socket, rune string, opts ...Option) *Client {
	c := &Client{
		ctrl: make(chan startCall),
		done: make(chan struct{}),
		rune: rune,
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.nextID.Store(1) // first Add(1) below yields 2; ID 1 is reserved
	go c.pump(sock)
	return c
}

// CallOptions carries per-call tuning; Timeout of zero means no deadline
// beyond whatever the caller's context already carries.
type CallOptions struct {
	Timeout time.Duration
}

// Call issues one JSON-RPC request and waits for its terminating chunk.
func (c *Client) Call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	return c.CallWithOptions(ctx, method, params, CallOptions{})
}

// CallWithOptions is Call plus an optional timeout layered onto ctx.
func (c *Client) CallWithOptions(ctx context.Context, method string, params []any, opts CallOptions) (json.RawMessage, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	rawParams, err := json.Marshal(params)
	if err != nil {
		return nil, lnerr.Wrap(lnerr.KindJSON, err)
	}

	id := c.nextID.Add(1)
	body, err := json.Marshal(request{ID: id, Method: method, Params: rawParams, Rune: c.rune})
	if err != nil {
		return nil, lnerr.Wrap(lnerr.KindJSON, err)
	}

	completion := make(chan callResult, 1)
	select {
	case c.ctrl <- startCall{id: id, frame: EncodeCommand(id, body), completion: completion}:
	case <-c.done:
		return nil, lnerr.New(lnerr.KindIO, "commando: pump has exited")
	case <-ctx.Done():
		return nil, lnerr.Wrap(lnerr.KindIO, ctx.Err())
	}

	select {
	case res := <-completion:
		return res.body, res.err
	case <-ctx.Done():
		return nil, lnerr.Wrap(lnerr.KindIO, ctx.Err())
	}
}

// inboundResult is what the read loop forwards to the pump: either a
// decoded message or a terminal read error.
type inboundResult struct {
	msg lnwire.Message
	err error
}

// pump is the sole owner of sock for the lifetime of the connection. It
// never blocks on a dead caller: every completion channel is buffered by
// one and written to at most once.
func (c *Client) pump(sock *lnsocket.Socket) {
	pending := make(map[uint64]*pendingCall)
	// Buffered by one so the read loop's final, post-close error never
	// blocks forever on a pump that has already stopped selecting on it.
	inbound := make(chan inboundResult, 1)
	go readLoop(sock, inbound, c.done)

	defer close(c.done)
	defer sock.Close()

	for {
		select {
		case sc := <-c.ctrl:
			pending[sc.id] = &pendingCall{completion: sc.completion}
			c.pending.Store(int64(len(pending)))
			if err := sock.WriteRaw(TypeCommand, sc.frame); err != nil {
				delete(pending, sc.id)
				c.pending.Store(int64(len(pending)))
				sc.completion <- callResult{err: err}
			} else {
				c.bytesOut.Add(uint64(len(sc.frame)))
			}

		case res := <-inbound:
			if res.err != nil {
				c.log.Error().Err(res.err).Msg("commando: stream read failed, failing all pending calls")
				failAll(pending, res.err)
				c.pending.Store(0)
				return
			}
			if done := c.handleInbound(sock, pending, res.msg); done {
				c.pending.Store(int64(len(pending)))
				return
			}
		}
	}
}

// handleInbound applies one decoded message to pump state. It returns true
// only when the connection must be torn down (a write failure answering a
// Ping is treated as fatal, same as any other stream I/O error).
func (c *Client) handleInbound(sock *lnsocket.Socket, pending map[uint64]*pendingCall, msg lnwire.Message) bool {
	switch m := msg.(type) {
	case lnwire.Ping:
		c.log.Debug().Uint16("pong_len", m.PongLen).Msg("commando: replying to ping")
		if err := sock.Write(lnwire.Pong{Ignored: make([]byte, m.PongLen)}); err != nil {
			failAll(pending, err)
			return true
		}
	case Chunk:
		c.bytesIn.Add(uint64(len(m.Bytes)))
		if pc, ok := pending[m.RequestID]; ok {
			pc.accumulator = append(pc.accumulator, m.Bytes...)
		} else {
			c.log.Trace().Uint64("request_id", m.RequestID).Msg("commando: chunk for unknown request id")
		}
	case Done:
		c.bytesIn.Add(uint64(len(m.Bytes)))
		pc, ok := pending[m.RequestID]
		if !ok {
			c.log.Trace().Uint64("request_id", m.RequestID).Msg("commando: done for unknown request id")
			return false
		}
		pc.accumulator = append(pc.accumulator, m.Bytes...)
		delete(pending, m.RequestID)
		c.pending.Store(int64(len(pending)))
		if !json.Valid(pc.accumulator) {
			pc.completion <- callResult{err: lnerr.New(lnerr.KindJSON, "commando: reply body is not valid JSON")}
			return false
		}
		pc.completion <- callResult{body: json.RawMessage(pc.accumulator)}
	default:
		// Init after handshake, stray Pong/Warning/Unknown: dropped per the
		// silent-recoverable tier.
		c.log.Trace().Uint16("type", msg.MessageType()).Msg("commando: dropping unexpected message")
	}
	return false
}

func readLoop(sock *lnsocket.Socket, out chan<- inboundResult, done <-chan struct{}) {
	for {
		msg, err := sock.Read(Decoder{})
		select {
		case out <- inboundResult{msg: msg, err: err}:
		case <-done:
			return
		}
		if err != nil {
			return
		}
	}
}

// failAll fans one stream error out to every pending waiter. Each gets its
// own clone: lnerr.Error is built cheaply cloneable for exactly this case.
func failAll(pending map[uint64]*pendingCall, err error) {
	for id, pc := range pending {
		if lnErr, ok := err.(*lnerr.Error); ok {
			pc.completion <- callResult{err: lnErr.Clone()}
		} else {
			pc.completion <- callResult{err: err}
		}
		delete(pending, id)
	}
}
