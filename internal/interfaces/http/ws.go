package http

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// lifecycleFrame is one push event on the live-viewer channel.
type lifecycleFrame struct {
	Event string `json:"event"`          // qr | authenticated | ready | disconnected
	Data  string `json:"data,omitempty"` // QR challenge for "qr" frames
}

type viewer struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans session lifecycle events out to connected live viewers. It also
// remembers the most recent QR challenge so a viewer connecting between
// refreshes still gets something to scan.
type Hub struct {
	register   chan *viewer
	unregister chan *viewer
	broadcast  chan []byte
	viewers    map[*viewer]bool
	done       chan struct{}
	log        *zerolog.Logger

	mu     sync.RWMutex
	lastQR string
}

func NewHub(logger *zerolog.Logger) *Hub {
	hubLog := logger.With().Str("component", "Hub").Logger()
	return &Hub{
		register:   make(chan *viewer),
		unregister: make(chan *viewer),
		broadcast:  make(chan []byte, 64),
		viewers:    make(map[*viewer]bool),
		done:       make(chan struct{}),
		log:        &hubLog,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case v := <-h.register:
			h.viewers[v] = true
			h.log.Debug().Int("viewers", len(h.viewers)).Msg("viewer connected")
			if frame := h.lastQRFrame(); frame != nil {
				select {
				case v.send <- frame:
				default:
				}
			}

		case v := <-h.unregister:
			if _, ok := h.viewers[v]; ok {
				delete(h.viewers, v)
				close(v.send)
			}
			h.log.Debug().Int("viewers", len(h.viewers)).Msg("viewer disconnected")

		case frame := <-h.broadcast:
			for v := range h.viewers {
				select {
				case v.send <- frame:
				default:
					close(v.send)
					delete(h.viewers, v)
				}
			}

		case <-h.done:
			for v := range h.viewers {
				close(v.send)
				delete(h.viewers, v)
			}
			return
		}
	}
}

func (h *Hub) Shutdown() {
	close(h.done)
}

// PublishQR implements interfaces.LifecycleNotifier.
func (h *Hub) PublishQR(code string) {
	h.mu.Lock()
	h.lastQR = code
	h.mu.Unlock()
	h.publish(lifecycleFrame{Event: "qr", Data: code})
}

// PublishEvent implements interfaces.LifecycleNotifier.
func (h *Hub) PublishEvent(name string) {
	if name == "authenticated" || name == "ready" {
		h.mu.Lock()
		h.lastQR = ""
		h.mu.Unlock()
	}
	h.publish(lifecycleFrame{Event: name})
}

func (h *Hub) publish(frame lifecycleFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.log.Warn().Str("event", frame.Event).Msg("broadcast buffer full, frame dropped")
	}
}

func (h *Hub) lastQRFrame() []byte {
	h.mu.RLock()
	code := h.lastQR
	h.mu.RUnlock()
	if code == "" {
		return nil
	}
	data, _ := json.Marshal(lifecycleFrame{Event: "qr", Data: code})
	return data
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades an HTTP request into a live-viewer connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	v := &viewer{conn: conn, send: make(chan []byte, 16)}
	h.register <- v

	// Writer
	go func() {
		defer conn.Close()
		for frame := range v.send {
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		}
	}()

	// Reader: viewers never send anything meaningful; this only detects the
	// connection closing.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		h.unregister <- v
	}()
}
