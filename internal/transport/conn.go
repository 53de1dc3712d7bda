// Package transport owns the TCP connection to a soundbar: dialing,
// serialized frame writes, the single background receive loop, and the
// correlation of responses to in-flight calls.
//
// The protocol carries no request IDs. A response is matched to a call by
// its message target (the "msg" field the device echoes back), so at most
// one call per target may be in flight; a second concurrent call for the
// same target fails fast with ErrCallInProgress. Inbound frames with no
// matching call are notifications — unsolicited state pushes from the
// device — and are handed to the notification handler, never treated as
// an error.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/tmholter/lgbar/internal/logging"
	"github.com/tmholter/lgbar/internal/protocol"
)

// DefaultDialTimeout bounds connection establishment when no option
// overrides it.
const DefaultDialTimeout = 5 * time.Second

var (
	// ErrConnectFailed indicates the TCP connection could not be opened.
	ErrConnectFailed = errors.New("connect failed")

	// ErrDisconnected indicates the connection was closed, or failed,
	// while a call was pending or before it could be sent.
	ErrDisconnected = errors.New("disconnected")

	// ErrTimeout indicates no matching response arrived within the
	// caller's deadline.
	ErrTimeout = errors.New("call timed out")

	// ErrCallInProgress indicates another call with the same response
	// target is already awaiting its reply.
	ErrCallInProgress = errors.New("call already in progress")
)

// pendingCall is the bookkeeping entry for one in-flight request. The
// channel is buffered so the receive loop never blocks delivering into an
// abandoned slot.
type pendingCall struct {
	seq uint64
	ch  chan protocol.Message
}

// Conn is a live connection to a soundbar. It is safe for concurrent use:
// writes are serialized internally and every caller gets its own pending
// slot. A Conn controls exactly one device and cannot be reused after it
// closes or fails; reconnection is the caller's concern.
type Conn struct {
	codec       *protocol.Codec
	dialTimeout time.Duration
	notify      func(protocol.Message)
	log         *zap.Logger

	conn net.Conn
	seq  atomic.Uint64

	sendMu sync.Mutex // serializes socket writes

	mu       sync.Mutex
	pending  map[string]*pendingCall
	closed   bool
	closeErr error
	done     chan struct{} // closed on teardown
}

// Option configures a Conn before dialing.
type Option func(*Conn)

// WithDialTimeout overrides the connect timeout.
func WithDialTimeout(d time.Duration) Option {
	return func(c *Conn) { c.dialTimeout = d }
}

// WithLogger overrides the package logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Conn) { c.log = log }
}

// WithNotifyHandler installs a handler for unsolicited device messages.
// The handler runs on the receive goroutine and must not block.
func WithNotifyHandler(fn func(protocol.Message)) Option {
	return func(c *Conn) { c.notify = fn }
}

// Dial opens a TCP connection to the device and starts the receive loop.
func Dial(addr string, opts ...Option) (*Conn, error) {
	c := &Conn{
		codec:       protocol.NewCodec(),
		dialTimeout: DefaultDialTimeout,
		log:         logging.GetLogger(),
		pending:     make(map[string]*pendingCall),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	conn, err := net.DialTimeout("tcp", addr, c.dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}
	c.conn = conn
	c.log.Debug("connected", zap.String("addr", addr))

	go c.readLoop()
	return c, nil
}

// Call sends msg and waits for the response bearing the same target.
// It fails with ErrTimeout when ctx expires, ErrDisconnected when the
// connection dies, and ErrCallInProgress when another call for the same
// target is outstanding. A response arriving after the caller gave up is
// delivered as a notification, not dropped.
func (c *Conn) Call(ctx context.Context, msg protocol.Message) (protocol.Message, error) {
	return c.CallTarget(ctx, msg, msg.Msg)
}

// CallTarget is Call with an explicit response discriminator, for the few
// requests the device answers under a different target than the request's.
func (c *Conn) CallTarget(ctx context.Context, msg protocol.Message, target string) (protocol.Message, error) {
	pc := &pendingCall{ch: make(chan protocol.Message, 1)}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return protocol.Message{}, c.closeErr
	}
	if _, exists := c.pending[target]; exists {
		c.mu.Unlock()
		return protocol.Message{}, fmt.Errorf("%w: %s", ErrCallInProgress, target)
	}
	c.pending[target] = pc
	c.mu.Unlock()

	if err := c.send(msg, pc); err != nil {
		c.unregister(target, pc)
		return protocol.Message{}, err
	}

	select {
	case resp := <-pc.ch:
		return resp, nil

	case <-ctx.Done():
		c.unregister(target, pc)
		// The response may have been delivered in the same instant the
		// deadline fired; prefer it over reporting a timeout.
		select {
		case resp := <-pc.ch:
			return resp, nil
		default:
		}
		return protocol.Message{}, fmt.Errorf("%w: no %s response: %v", ErrTimeout, target, ctx.Err())

	case <-c.done:
		select {
		case resp := <-pc.ch:
			return resp, nil
		default:
		}
		return protocol.Message{}, c.closeErr
	}
}

// Send transmits msg without waiting for a response. The reply, if any,
// reaches the notification handler.
func (c *Conn) Send(msg protocol.Message) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return c.closeErr
	}
	c.mu.Unlock()

	return c.send(msg, nil)
}

// send encodes and writes one frame. Writes are serialized so two
// concurrent calls never interleave their bytes on the socket.
func (c *Conn) send(msg protocol.Message, pc *pendingCall) error {
	frame, err := c.codec.EncodeMessage(msg)
	if err != nil {
		return err
	}

	seq := c.seq.Add(1)
	if pc != nil {
		pc.seq = seq
	}
	logging.LogFrame("send", seq, frame)

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	for written := 0; written < len(frame); {
		n, err := c.conn.Write(frame[written:])
		written += n
		if err != nil {
			return fmt.Errorf("%w: write: %v", ErrDisconnected, err)
		}
	}
	return nil
}

// readLoop is the only reader of the socket. It feeds raw bytes to the
// frame decoder and dispatches every decoded message until the stream
// ends or turns structurally invalid.
func (c *Conn) readLoop() {
	dec := protocol.NewDecoder()
	buf := make([]byte, 4096)

	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			payloads, ferr := dec.Feed(buf[:n])
			for _, payload := range payloads {
				msg, derr := c.codec.DecodeMessage(payload)
				if derr != nil {
					// The frame envelope was intact, so the stream is
					// still aligned; skip the frame and keep reading.
					c.log.Warn("dropping undecodable frame", zap.Error(derr), zap.Int("length", len(payload)))
					continue
				}
				c.dispatch(msg)
			}
			if ferr != nil {
				c.teardown(fmt.Errorf("%w: %v", ErrDisconnected, ferr))
				return
			}
		}
		if err != nil {
			c.teardown(fmt.Errorf("%w: %v", ErrDisconnected, err))
			return
		}
	}
}

// dispatch resolves the pending call awaiting this message's target, or
// delivers the message as a notification when no call matches.
func (c *Conn) dispatch(msg protocol.Message) {
	c.mu.Lock()
	pc, ok := c.pending[msg.Msg]
	if ok {
		delete(c.pending, msg.Msg)
	}
	c.mu.Unlock()

	if ok {
		logging.Debug("resolving call", zap.String("target", msg.Msg), zap.Uint64("seq", pc.seq))
		pc.ch <- msg
		return
	}

	logging.Debug("notification", zap.String("target", msg.Msg))
	if c.notify != nil {
		c.notify(msg)
	}
}

// Close shuts the connection down: it stops the receive loop, closes the
// socket, and fails every pending call with ErrDisconnected. Close is
// idempotent; further calls are no-ops.
func (c *Conn) Close() error {
	c.teardown(ErrDisconnected)
	return nil
}

// teardown transitions the Conn to its terminal state exactly once.
// Pending callers are released through the done channel so they all fail
// promptly instead of waiting out their individual deadlines.
func (c *Conn) teardown(cause error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.closeErr = cause
	c.pending = make(map[string]*pendingCall)
	close(c.done)
	c.mu.Unlock()

	_ = c.conn.Close()
	c.log.Debug("connection closed", zap.Error(cause))
}

// unregister removes a pending slot if it still belongs to pc. The guard
// matters when a response raced in and a later call reused the target.
func (c *Conn) unregister(target string, pc *pendingCall) {
	c.mu.Lock()
	if cur, ok := c.pending[target]; ok && cur == pc {
		delete(c.pending, target)
	}
	c.mu.Unlock()
}

// Done returns a channel closed when the connection reaches its terminal
// state, for watchers that stream notifications.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err returns the terminal error after Done is closed, nil before.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		return nil
	}
	return c.closeErr
}
