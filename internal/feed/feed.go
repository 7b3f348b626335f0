// Package feed streams snapshot frames to websocket clients and lets
// clients subscribe to them.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"spritesync/internal/snapshot"
)

const (
	sendBuffer   = 16
	writeTimeout = 5 * time.Second
)

type client struct {
	id      uuid.UUID
	mapName string // empty receives every map
	send    chan []byte
}

// Hub fans encoded frames out to connected websocket clients. A client that
// falls behind drops frames rather than slowing the game loop.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*client
	log     *slog.Logger
}

// NewHub returns a hub with no clients.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{clients: make(map[uuid.UUID]*client), log: log}
}

// ServeHTTP upgrades the request and streams frames until the client goes
// away. The optional map query parameter limits the stream to one map.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.ErrorContext(ctx, "failed to accept", "err", err)
		return
	}
	defer conn.CloseNow()

	c := &client{
		id:      uuid.New(),
		mapName: r.URL.Query().Get("map"),
		send:    make(chan []byte, sendBuffer),
	}
	h.add(c)
	defer h.remove(c)
	h.log.DebugContext(ctx, "feed client connected", "client_id", c.id, "map", c.mapName)

	// Clients never send; CloseRead handles control frames and cancels ctx
	// once the peer closes.
	ctx = conn.CloseRead(ctx)
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case data := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				h.log.DebugContext(ctx, "feed client write failed", "client_id", c.id, "err", err)
				return
			}
		}
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish encodes a frame once and queues it for every client watching its
// map. It never blocks.
func (h *Hub) Publish(f snapshot.Frame) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.clients) == 0 {
		return nil
	}

	data, err := snapshot.EncodeFrame(f)
	if err != nil {
		return fmt.Errorf("encode frame %d: %w", f.Tick, err)
	}
	for _, c := range h.clients {
		if c.mapName != "" && c.mapName != f.Map {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.log.Debug("feed client lagging, frame dropped", "client_id", c.id, "tick", f.Tick)
		}
	}
	return nil
}

// Subscribe connects to a hub at url and calls fn for each frame until ctx
// is cancelled or the connection fails. Entities that fail to decode are
// dropped from the frame; input that is not a frame at all is skipped.
func Subscribe(ctx context.Context, url string, fn func(snapshot.Frame)) error {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial feed %s: %w", url, err)
	}
	defer conn.CloseNow()
	conn.SetReadLimit(1 << 22)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return fmt.Errorf("read feed: %w", err)
		}

		f, err := snapshot.DecodeFrame(data)
		if errors.Is(err, snapshot.ErrMalformedFrame) {
			slog.WarnContext(ctx, "skipping malformed frame", "err", err)
			continue
		}
		if err != nil {
			slog.WarnContext(ctx, "frame had invalid entities", "tick", f.Tick, "err", err)
		}
		fn(f)
	}
}
