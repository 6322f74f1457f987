// Package watch streams the public deck config to connected clients so the
// draw page sees remaining counts move without polling.
package watch

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type subscriber struct {
	out chan []byte
}

type Hub struct {
	log      *log.Logger
	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 4 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // same-host pages only in practice
		},
		subs: make(map[*subscriber]struct{}),
	}
}

// Publish fans v out to every subscriber. Slow clients drop updates rather
// than backpressure the caller; the next publish catches them up.
func (h *Hub) Publish(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		h.log.Printf("watch: marshal update: %v", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.out <- b:
		default:
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) add(sub *subscriber) {
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
}

// Handler upgrades the connection, optionally sends an initial payload, then
// pushes published updates until the client goes away.
func (h *Hub) Handler(initial func() (any, error)) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sub := &subscriber{out: make(chan []byte, 8)}
		h.add(sub)
		defer h.remove(sub)

		if initial != nil {
			if v, err := initial(); err == nil {
				if b, merr := json.Marshal(v); merr == nil {
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if werr := conn.WriteMessage(websocket.TextMessage, b); werr != nil {
						return
					}
				}
			}
		}

		done := make(chan struct{})

		// Reader loop: we never expect client messages, but reading is how
		// close frames and dead peers are noticed.
		go func() {
			defer close(done)
			for {
				_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-done:
				return
			case b := <-sub.out:
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					return
				}
			}
		}
	}
}
