package realtime

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 64
)

// clientMessage is a message sent by the browser
type clientMessage struct {
	Type string `json:"type"`
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	orgs   map[string]struct{}
	send   chan []byte
	// closed is set with hub.mu held once the hub has closed send
	closed bool
}

func newClient(hub *Hub, conn *websocket.Conn, userID string, orgIDs []string) *Client {
	orgs := make(map[string]struct{}, len(orgIDs))
	for _, id := range orgIDs {
		orgs[id] = struct{}{}
	}
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		orgs:   orgs,
		send:   make(chan []byte, sendBuffer),
	}
}

// readPump consumes browser messages, answering application-level pings
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug().Err(err).Msg("unexpected websocket close")
			}
			return
		}

		var msg clientMessage
		if json.Unmarshal(data, &msg) == nil && msg.Type == "ping" {
			c.reply([]byte(`{"type":"pong"}`))
		}
	}
}

// reply sends data unless the client is gone or saturated. The read lock
// keeps the hub from closing send in between.
func (c *Client) reply(data []byte) {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) start() {
	go c.writePump()
	go c.readPump()
}
