package bridge

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tmholter/lgbar/internal/protocol"
)

func dialTestBridge(t *testing.T, b *Bridge) (*websocket.Conn, func()) {
	t.Helper()

	srv := httptest.NewServer(b.Handler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial failed: %v", err)
	}
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func TestPublishReachesSubscriber(t *testing.T) {
	b := New(zap.NewNop())
	conn, cleanup := dialTestBridge(t, b)
	defer cleanup()

	// Registration happens in the handler goroutine; wait for it.
	deadline := time.Now().Add(time.Second)
	for {
		b.mu.Lock()
		n := len(b.subscribers)
		b.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	b.Publish(protocol.Message{
		Msg:  protocol.TargetSpkListViewInfo,
		Data: map[string]any{"i_vol": 12},
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		t.Fatalf("event is not valid JSON: %v", err)
	}
	if ev.Target != protocol.TargetSpkListViewInfo {
		t.Errorf("target = %q, want %q", ev.Target, protocol.TargetSpkListViewInfo)
	}
	if got := ev.Data["i_vol"]; got != float64(12) {
		t.Errorf("i_vol = %v, want 12", got)
	}
}

func TestShutdownDisconnectsSubscribers(t *testing.T) {
	b := New(zap.NewNop())
	conn, cleanup := dialTestBridge(t, b)
	defer cleanup()

	deadline := time.Now().Add(time.Second)
	for {
		b.mu.Lock()
		n := len(b.subscribers)
		b.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := b.Shutdown(t.Context()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected read to fail after shutdown")
	}

	b.mu.Lock()
	n := len(b.subscribers)
	b.mu.Unlock()
	if n != 0 {
		t.Errorf("subscribers remaining after shutdown: %d", n)
	}
}
