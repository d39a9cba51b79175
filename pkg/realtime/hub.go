package realtime

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/appboardguru/boardguru/pkg/config"
	"github.com/appboardguru/boardguru/pkg/logging"
	"github.com/appboardguru/boardguru/pkg/metrics"
)

const broadcastBuffer = 256

// Hub maintains the set of active clients and routes events to them
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
	log        zerolog.Logger
}

// NewHub creates a new Hub
func NewHub() *Hub {
	h := &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Event, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        logging.With("realtime"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin,
	}
	return h
}

// checkOrigin accepts same-origin requests, requests without an Origin
// header and origins listed in cors_allowed_origins.
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range config.Get().CORSAllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return strings.EqualFold(origin, "http://"+r.Host) || strings.EqualFold(origin, "https://"+r.Host)
}

// Run routes events until ctx is done, then closes every client
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		// lifecycle events first so a client registered before an event
		// is published receives it
		select {
		case c := <-h.register:
			h.add(c)
			continue
		case c := <-h.unregister:
			h.remove(c)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			n := h.ClientCount()
			h.closeAll()
			h.log.Info().Int("clients_closed", n).Msg("websocket hub stopped")
			return ctx.Err()
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		case ev := <-h.broadcast:
			h.deliver(ev)
		}
	}
}

// Publish queues ev for delivery to local clients. A full queue drops the
// event rather than blocking the caller.
func (h *Hub) Publish(ctx context.Context, ev Event) error {
	select {
	case h.broadcast <- ev:
		metrics.RealtimeEventsPublished.WithLabelValues(string(ev.Type)).Inc()
	default:
		h.log.Warn().Str("type", string(ev.Type)).Msg("realtime broadcast queue full, event dropped")
	}
	return nil
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and registers the connection for userID in
// the given organizations.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string, orgIDs []string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := newClient(h, conn, userID, orgIDs)
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return nil
	}
	c.start()
	return nil
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WebSocketConnections.Set(float64(n))
	h.log.Debug().Str("user_id", c.userID).Int("total_clients", n).Msg("websocket client connected")
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		h.dropLocked(c)
	}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WebSocketConnections.Set(float64(n))
	h.log.Debug().Str("user_id", c.userID).Int("total_clients", n).Msg("websocket client disconnected")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for c := range h.clients {
		h.dropLocked(c)
	}
	h.mu.Unlock()
	metrics.WebSocketConnections.Set(0)
}

// dropLocked forgets c and closes its send channel. h.mu must be held.
func (h *Hub) dropLocked(c *Client) {
	delete(h.clients, c)
	c.closed = true
	close(c.send)
}

// revokeLocked stops routing orgID's events to userID's clients. A client
// left without organizations is disconnected. h.mu must be held.
func (h *Hub) revokeLocked(userID, orgID string) {
	for c := range h.clients {
		if c.userID != userID {
			continue
		}
		delete(c.orgs, orgID)
		if len(c.orgs) == 0 {
			h.dropLocked(c)
			h.log.Debug().Str("user_id", userID).Msg("websocket client has no organizations left")
		}
	}
}

// wants reports whether ev is addressed to c
func (c *Client) wants(ev Event) bool {
	if ev.UserID != "" {
		return ev.UserID == c.userID
	}
	_, ok := c.orgs[ev.OrganizationID]
	return ok
}

func (h *Hub) deliver(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Error().Err(err).Str("type", string(ev.Type)).Msg("failed to encode realtime event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if !c.wants(ev) {
			continue
		}
		select {
		case c.send <- data:
			metrics.WebSocketMessagesSent.Inc()
		default:
			// slow client: drop it rather than stall every other delivery
			h.dropLocked(c)
			metrics.WebSocketDropped.Inc()
			h.log.Warn().Str("user_id", c.userID).Msg("dropping slow websocket client")
		}
	}
	// the removed member still hears about the removal itself
	if ev.Type == MemberRemoved && ev.UserID != "" {
		h.revokeLocked(ev.UserID, ev.OrganizationID)
	}
	metrics.WebSocketConnections.Set(float64(len(h.clients)))
}
