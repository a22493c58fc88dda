package net

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"InkBoard/internal/logging"
	"InkBoard/internal/state"
)

// Client is a peer's connection to the host.
type Client struct {
	conn *websocket.Conn
	wmu  sync.Mutex
}

// Dial connects to the hub at addr (host:port).
func Dial(ctx context.Context, addr string) (*Client, error) {
	url := "ws://" + addr + Path
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Client{conn: conn}, nil
}

// LocalAddr returns the client's side of the connection.
func (c *Client) LocalAddr() string {
	return c.conn.LocalAddr().String()
}

// Send writes op to the host. It is safe for concurrent use.
func (c *Client) Send(op state.Op) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := c.conn.WriteJSON(op); err != nil {
		return fmt.Errorf("send %s op: %w", op.Type, err)
	}
	return nil
}

// Run reads ops from the host and passes them to onOp until the
// connection closes. A normal close returns nil.
func (c *Client) Run(onOp func(state.Op)) error {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read from host: %w", err)
		}
		var op state.Op
		if err := json.Unmarshal(data, &op); err != nil {
			logging.Logger().Warn("bad op from host", "err", err)
			continue
		}
		onOp(op)
	}
}

// Close sends a close frame and closes the connection.
func (c *Client) Close() error {
	c.wmu.Lock()
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.wmu.Unlock()
	return c.conn.Close()
}
