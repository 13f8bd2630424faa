package app

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // status page is served on the local network only
	},
}

// StatusMessage is sent to websocket clients on every render.
type StatusMessage struct {
	Type string    `json:"type"` // always "state"
	Text string    `json:"text"`
	Time time.Time `json:"time"`
}

// StatusHub is a Sink that fans rendered state out to websocket clients.
// Render never waits on a client: slow clients lose messages.
type StatusHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan StatusMessage
	last    *StatusMessage
}

// NewStatusHub returns an empty hub.
func NewStatusHub() *StatusHub {
	return &StatusHub{clients: make(map[*websocket.Conn]chan StatusMessage)}
}

// Handler serves /ws (live updates) and /api/state (latest render).
func (h *StatusHub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.serveWS)
	mux.HandleFunc("/api/state", h.serveState)
	return mux
}

// Render implements Sink.
func (h *StatusHub) Render(text string) {
	msg := StatusMessage{Type: "state", Text: text, Time: time.Now()}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = &msg
	for _, ch := range h.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Clients returns the number of connected websocket clients.
func (h *StatusHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *StatusHub) serveState(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	last := h.last
	h.mu.Unlock()

	if last == nil {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(last); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

func (h *StatusHub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}

	ch := make(chan StatusMessage, 4)
	h.mu.Lock()
	h.clients[conn] = ch
	if h.last != nil {
		ch <- *h.last
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		// Reads only detect the client going away.
		defer close(done)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	for {
		select {
		case msg := <-ch:
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("web: websocket write error: %v", err)
				return
			}
		case <-done:
			return
		}
	}
}

// ServeStatus starts the status page on addr in the background.
func ServeStatus(addr string, hub *StatusHub) {
	go func() {
		log.Printf("web: status page listening on %s", addr)
		if err := http.ListenAndServe(addr, hub.Handler()); err != nil {
			log.Printf("web: server stopped: %v", err)
		}
	}()
}
