// Package bridge re-publishes soundbar notifications over WebSocket so
// local consumers (home-automation hubs, dashboards) can react to device
// state without speaking the encrypted vendor protocol themselves.
//
// The bridge is one-directional: subscribers receive JSON-encoded device
// messages; anything they send is ignored. Control stays with the CLI or
// whatever process owns the device connection.
package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tmholter/lgbar/internal/protocol"
)

const (
	// writeWait bounds a single write to a subscriber.
	writeWait = 10 * time.Second

	// pongWait is how long a subscriber may stay silent before it is
	// considered gone.
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBuffer is the per-subscriber queue; a subscriber that falls
	// this far behind is dropped rather than allowed to stall the rest.
	sendBuffer = 32
)

// Event is the JSON document subscribers receive.
type Event struct {
	Target string         `json:"target"`
	Data   map[string]any `json:"data,omitempty"`
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Bridge fans device notifications out to WebSocket subscribers.
type Bridge struct {
	log      *zap.Logger
	upgrader websocket.Upgrader
	server   *http.Server

	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
}

// New returns a Bridge ready to accept subscribers.
func New(log *zap.Logger) *Bridge {
	return &Bridge{
		log: log,
		upgrader: websocket.Upgrader{
			// Subscribers are local tooling; there is no origin to trust.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		subscribers: make(map[*subscriber]struct{}),
	}
}

// Handler returns the HTTP handler that upgrades subscribers. It is
// exposed separately so tests and embedders can mount it themselves.
func (b *Bridge) Handler() http.Handler {
	return http.HandlerFunc(b.handleSubscribe)
}

// ListenAndServe serves the subscriber endpoint at /events until
// Shutdown is called.
func (b *Bridge) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/events", b.Handler())
	b.server = &http.Server{Addr: addr, Handler: mux}
	b.log.Info("event bridge listening", zap.String("addr", addr))

	err := b.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the HTTP server and disconnects all subscribers.
func (b *Bridge) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	for sub := range b.subscribers {
		close(sub.send)
		delete(b.subscribers, sub)
	}
	b.mu.Unlock()

	if b.server == nil {
		return nil
	}
	return b.server.Shutdown(ctx)
}

// Publish fans a device message out to every subscriber. Suitable as a
// soundbar.WithEventHandler callback: it never blocks on slow peers.
func (b *Bridge) Publish(msg protocol.Message) {
	payload, err := json.Marshal(Event{Target: msg.Msg, Data: msg.Data})
	if err != nil {
		b.log.Error("failed to encode event", zap.Error(err))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subscribers {
		select {
		case sub.send <- payload:
		default:
			// Subscriber queue full; drop the peer, not the event flow.
			b.log.Warn("dropping slow subscriber", zap.String("remote_addr", sub.conn.RemoteAddr().String()))
			close(sub.send)
			delete(b.subscribers, sub)
		}
	}
}

func (b *Bridge) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sub := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
	b.mu.Lock()
	b.subscribers[sub] = struct{}{}
	b.mu.Unlock()
	b.log.Debug("subscriber connected", zap.String("remote_addr", conn.RemoteAddr().String()))

	go b.writePump(sub)
	b.readPump(sub)
}

// writePump drains the subscriber queue and keeps the peer alive with
// pings. It owns all writes to the connection.
func (b *Bridge) writePump(sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = sub.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-sub.send:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = sub.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound messages; its job is noticing the peer left.
func (b *Bridge) readPump(sub *subscriber) {
	defer b.unsubscribe(sub)

	sub.conn.SetReadLimit(512)
	_ = sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (b *Bridge) unsubscribe(sub *subscriber) {
	b.mu.Lock()
	if _, ok := b.subscribers[sub]; ok {
		close(sub.send)
		delete(b.subscribers, sub)
	}
	b.mu.Unlock()
	_ = sub.conn.Close()
	b.log.Debug("subscriber disconnected", zap.String("remote_addr", sub.conn.RemoteAddr().String()))
}
