package transport

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/akobyansamvel/curs/internal/config"
)

// frameHead is the part of every inbound frame the client routes on.
type frameHead struct {
	Type string `json:"type"`
}

// readPump consumes inbound frames until the connection drops, dispatching
// each to the handlers of its kind in arrival order. Runs on the dial
// goroutine, so a single room never delivers events concurrently.
func (c *Client) readPump(gen uint64, roomID int64, conn *websocket.Conn) {
	conn.SetReadLimit(config.MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(config.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(config.PongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Int64("room_id", roomID).Msg("websocket read failed")
			}
			break
		}

		var head frameHead
		if err := json.Unmarshal(data, &head); err != nil || head.Type == "" {
			c.log.Warn().Int64("room_id", roomID).Msg("malformed inbound frame, skipped")
			continue
		}

		c.emit(Event{Kind: head.Type, Data: data})
	}

	c.mu.Lock()
	if gen != c.gen {
		// Teardown already happened; this close is not an event.
		c.mu.Unlock()
		return
	}
	_ = conn.Close()
	c.conn = nil
	c.sendCh = nil
	c.scheduleReconnectLocked(roomID)
	c.mu.Unlock()

	c.emit(Event{Kind: EventClose})
}

// writePump serialises outbound frames and keepalive pings onto the socket.
// It exits when a write fails, which happens promptly after the connection
// is closed by either side.
func (c *Client) writePump(gen uint64, conn *websocket.Conn, sendCh <-chan []byte) {
	ticker := time.NewTicker(config.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-sendCh:
			_ = conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.mu.Lock()
			stale := gen != c.gen
			c.mu.Unlock()
			if stale {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
