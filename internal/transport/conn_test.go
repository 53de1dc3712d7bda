package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/tmholter/lgbar/internal/protocol"
)

// fakeDevice emulates a soundbar on a loopback listener: it decodes real
// encrypted frames, passes each message to a handler, and writes back
// whatever the handler returns. It can also push unsolicited messages.
type fakeDevice struct {
	t       *testing.T
	ln      net.Listener
	codec   *protocol.Codec
	handler func(protocol.Message) []protocol.Message

	received chan protocol.Message

	mu   sync.Mutex
	conn net.Conn
}

func startFakeDevice(t *testing.T, handler func(protocol.Message) []protocol.Message) *fakeDevice {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	d := &fakeDevice{
		t:        t,
		ln:       ln,
		codec:    protocol.NewCodec(),
		handler:  handler,
		received: make(chan protocol.Message, 16),
	}
	go d.serve()
	t.Cleanup(func() { _ = ln.Close() })
	return d
}

func (d *fakeDevice) addr() string {
	return d.ln.Addr().String()
}

func (d *fakeDevice) serve() {
	conn, err := d.ln.Accept()
	if err != nil {
		return
	}
	d.mu.Lock()
	d.conn = conn
	d.mu.Unlock()

	dec := protocol.NewDecoder()
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		payloads, err := dec.Feed(buf[:n])
		if err != nil {
			d.t.Errorf("fake device: bad frame from client: %v", err)
			return
		}
		for _, p := range payloads {
			msg, err := d.codec.DecodeMessage(p)
			if err != nil {
				d.t.Errorf("fake device: undecodable payload from client: %v", err)
				continue
			}
			d.received <- msg
			if d.handler == nil {
				continue
			}
			for _, resp := range d.handler(msg) {
				d.push(resp)
			}
		}
	}
}

// push writes a message to the connected client, outside of any
// request/response exchange.
func (d *fakeDevice) push(msg protocol.Message) {
	d.mu.Lock()
	conn := d.conn
	d.mu.Unlock()
	if conn == nil {
		d.t.Error("fake device: push before client connected")
		return
	}
	frame, err := d.codec.EncodeMessage(msg)
	if err != nil {
		d.t.Errorf("fake device: encode push: %v", err)
		return
	}
	if _, err := conn.Write(frame); err != nil {
		d.t.Errorf("fake device: write push: %v", err)
	}
}

// dropClient severs the TCP connection from the device side.
func (d *fakeDevice) dropClient() {
	d.mu.Lock()
	conn := d.conn
	d.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

// echoHandler responds to every request under the same target, tagging
// the payload so tests can tell responses apart.
func echoHandler(msg protocol.Message) []protocol.Message {
	return []protocol.Message{{
		Msg:  msg.Msg,
		Data: map[string]any{"echo": msg.Msg},
	}}
}

func TestCallResolvesWithMatchingResponse(t *testing.T) {
	dev := startFakeDevice(t, echoHandler)

	conn, err := Dial(dev.addr())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := conn.Call(ctx, protocol.Get(protocol.TargetProductInfo))
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if resp.Msg != protocol.TargetProductInfo {
		t.Errorf("response target = %q, want %q", resp.Msg, protocol.TargetProductInfo)
	}
	if resp.Data["echo"] != protocol.TargetProductInfo {
		t.Errorf("response data = %v, want echo payload", resp.Data)
	}
}

func TestConcurrentCallsCorrelateByTarget(t *testing.T) {
	dev := startFakeDevice(t, echoHandler)

	conn, err := Dial(dev.addr())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	targets := []string{
		protocol.TargetProductInfo,
		protocol.TargetEQViewInfo,
		protocol.TargetSpkListViewInfo,
		protocol.TargetFuncViewInfo,
		protocol.TargetSettingViewInfo,
		protocol.TargetPlayInfo,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, len(targets))
	for _, target := range targets {
		wg.Add(1)
		go func(target string) {
			defer wg.Done()
			resp, err := conn.Call(ctx, protocol.Get(target))
			if err != nil {
				errs <- fmt.Errorf("%s: %w", target, err)
				return
			}
			if resp.Data["echo"] != target {
				errs <- fmt.Errorf("%s: resolved with %v", target, resp.Data["echo"])
			}
		}(target)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestCallTimeoutThenLateResponseBecomesNotification(t *testing.T) {
	// Device stays silent during the call.
	dev := startFakeDevice(t, nil)

	notifications := make(chan protocol.Message, 1)
	conn, err := Dial(dev.addr(), WithNotifyHandler(func(msg protocol.Message) {
		notifications <- msg
	}))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err = conn.Call(ctx, protocol.Get(protocol.TargetEQViewInfo))
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Call error = %v, want ErrTimeout", err)
	}

	// The response shows up after the caller has given up. The stale slot
	// is gone, so it must take the notification path.
	dev.push(protocol.Message{Msg: protocol.TargetEQViewInfo, Data: map[string]any{"i_curr_eq": float64(3)}})

	select {
	case msg := <-notifications:
		if msg.Msg != protocol.TargetEQViewInfo {
			t.Errorf("notification target = %q, want %q", msg.Msg, protocol.TargetEQViewInfo)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("late response was not delivered as a notification")
	}
}

func TestUnsolicitedPushIsANotification(t *testing.T) {
	dev := startFakeDevice(t, nil)

	notifications := make(chan protocol.Message, 1)
	conn, err := Dial(dev.addr(), WithNotifyHandler(func(msg protocol.Message) {
		notifications <- msg
	}))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	dev.push(protocol.Message{Msg: protocol.TargetSpkListViewInfo, Data: map[string]any{"i_vol": float64(12)}})

	select {
	case msg := <-notifications:
		if msg.Data["i_vol"] != float64(12) {
			t.Errorf("notification data = %v", msg.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("push was not delivered")
	}
}

func TestDisconnectFailsAllPendingCalls(t *testing.T) {
	dev := startFakeDevice(t, nil)

	conn, err := Dial(dev.addr())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	targets := []string{
		protocol.TargetProductInfo,
		protocol.TargetEQViewInfo,
		protocol.TargetSettingViewInfo,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results := make(chan error, len(targets))
	for _, target := range targets {
		go func(target string) {
			_, err := conn.Call(ctx, protocol.Get(target))
			results <- err
		}(target)
	}

	// Wait for the device to see all three requests so every call is
	// registered and blocked before the connection drops.
	for range targets {
		select {
		case <-dev.received:
		case <-time.After(2 * time.Second):
			t.Fatal("device did not receive all requests")
		}
	}

	dev.dropClient()

	for range targets {
		select {
		case err := <-results:
			if !errors.Is(err, ErrDisconnected) {
				t.Errorf("pending call error = %v, want ErrDisconnected", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("pending call did not fail after disconnect")
		}
	}
}

func TestCallInProgressFailsFast(t *testing.T) {
	dev := startFakeDevice(t, nil)

	conn, err := Dial(dev.addr())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	first := make(chan error, 1)
	go func() {
		_, err := conn.Call(ctx, protocol.Get(protocol.TargetProductInfo))
		first <- err
	}()

	// The device observing the request guarantees the first call has
	// registered its slot.
	select {
	case <-dev.received:
	case <-time.After(2 * time.Second):
		t.Fatal("device did not receive first request")
	}

	_, err = conn.Call(ctx, protocol.Get(protocol.TargetProductInfo))
	if !errors.Is(err, ErrCallInProgress) {
		t.Fatalf("second call error = %v, want ErrCallInProgress", err)
	}

	// Release the first caller; it must still answer once.
	dev.push(protocol.Message{Msg: protocol.TargetProductInfo})
	select {
	case err := <-first:
		if err != nil {
			t.Errorf("first call error = %v, want success", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first call never resolved")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	dev := startFakeDevice(t, nil)

	conn, err := Dial(dev.addr())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	if err := conn.Close(); err != nil {
		t.Errorf("first Close() = %v, want nil", err)
	}
	if err := conn.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}

	// Calls after close fail with ErrDisconnected instead of hanging.
	_, err = conn.Call(context.Background(), protocol.Get(protocol.TargetProductInfo))
	if !errors.Is(err, ErrDisconnected) {
		t.Errorf("Call after Close error = %v, want ErrDisconnected", err)
	}

	select {
	case <-conn.Done():
	default:
		t.Error("Done channel not closed after Close")
	}
}

func TestDialFailure(t *testing.T) {
	// Grab a port that nothing is listening on.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	_, err = Dial(addr, WithDialTimeout(time.Second))
	if !errors.Is(err, ErrConnectFailed) {
		t.Errorf("Dial error = %v, want ErrConnectFailed", err)
	}
}

func TestSetVolumeWireScenario(t *testing.T) {
	// The device side asserts on the decrypted request and answers with a
	// status payload, exercising the full send path byte for byte.
	requests := make(chan protocol.Message, 1)
	dev := startFakeDevice(t, func(msg protocol.Message) []protocol.Message {
		requests <- msg
		return []protocol.Message{{
			Msg:  protocol.TargetSpkListViewInfo,
			Data: map[string]any{"status": "ok"},
		}}
	})

	conn, err := Dial(dev.addr())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := conn.Call(ctx, protocol.SetValue(protocol.TargetSpkListViewInfo, "i_vol", 15))
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if resp.Data["status"] != "ok" {
		t.Errorf("response data = %v, want status ok", resp.Data)
	}

	req := <-requests
	if req.Cmd != protocol.CmdSet || req.Msg != protocol.TargetSpkListViewInfo {
		t.Errorf("device saw envelope (%q, %q)", req.Cmd, req.Msg)
	}
	if req.Data["i_vol"] != float64(15) {
		t.Errorf("device saw i_vol = %v, want 15", req.Data["i_vol"])
	}
}
