package adapter

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// busMessage mirrors the bus's wire envelope (internal/bus.Message)
// without importing that package, keeping the adapter a pure client of
// the bus protocol rather than coupled to the server's internal types.
type busMessage struct {
	Type      string                 `json:"type"`
	Topic     string                 `json:"topic,omitempty"`
	Data      interface{}            `json:"data,omitempty"`
	Error     interface{}            `json:"error,omitempty"`
	Auth      string                 `json:"auth,omitempty"`
	Tool      string                 `json:"tool,omitempty"`
	Params    map[string]interface{} `json:"params,omitempty"`
	RequestID string                 `json:"requestId,omitempty"`
	Result    interface{}            `json:"result,omitempty"`
}

// BusClient holds the one authenticated bus connection the stdio
// adapter maintains (§4.K).
type BusClient struct {
	conn *websocket.Conn

	mu      sync.Mutex
	pending map[string]chan busMessage

	events chan busMessage
	done   chan struct{}
}

// Dial opens a WebSocket connection to the bus and authenticates with
// token, blocking until the auth response arrives. It returns an error
// if the dial or the authentication fails.
func Dial(url, token string) (*BusClient, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial bus: %w", err)
	}

	c := &BusClient{
		conn:    conn,
		pending: make(map[string]chan busMessage),
		events:  make(chan busMessage, 64),
		done:    make(chan struct{}),
	}

	if err := conn.WriteJSON(busMessage{Type: "authenticate", Auth: token}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send authenticate: %w", err)
	}

	var authResp busMessage
	if err := conn.ReadJSON(&authResp); err != nil {
		conn.Close()
		return nil, fmt.Errorf("read auth response: %w", err)
	}
	data, _ := authResp.Data.(map[string]interface{})
	if authResp.Type != "auth" || data["authenticated"] != true {
		conn.Close()
		return nil, fmt.Errorf("bus authentication failed")
	}

	go c.readLoop()
	return c, nil
}

// Done reports when the bus connection has gone away.
func (c *BusClient) Done() <-chan struct{} { return c.done }

// Events yields every event frame the bus sends on this connection.
func (c *BusClient) Events() <-chan busMessage { return c.events }

// Execute dispatches a tool call through the bus and blocks for its
// matching result frame. It returns (result, errorPayload, transportErr):
// transportErr is non-nil only if the call itself could not be made or
// answered; errorPayload is the tool-level {code,message,...} object the
// dispatcher returned, if any.
func (c *BusClient) Execute(tool string, params map[string]interface{}) (interface{}, interface{}, error) {
	requestID := uuid.New().String()
	ch := make(chan busMessage, 1)

	c.mu.Lock()
	c.pending[requestID] = ch
	c.mu.Unlock()

	if err := c.conn.WriteJSON(busMessage{Type: "execute", Tool: tool, Params: params, RequestID: requestID}); err != nil {
		c.mu.Lock()
		delete(c.pending, requestID)
		c.mu.Unlock()
		return nil, nil, err
	}

	resp, ok := <-ch
	if !ok {
		return nil, nil, fmt.Errorf("bus connection closed while waiting for %s", tool)
	}
	return resp.Result, resp.Error, nil
}

func (c *BusClient) readLoop() {
	defer c.shutdown()

	for {
		var msg busMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "result":
			c.mu.Lock()
			ch, ok := c.pending[msg.RequestID]
			if ok {
				delete(c.pending, msg.RequestID)
			}
			c.mu.Unlock()
			if ok {
				ch <- msg
				close(ch)
			}
		case "event":
			select {
			case c.events <- msg:
			default:
			}
		}
	}
}

func (c *BusClient) shutdown() {
	c.mu.Lock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.mu.Unlock()
	close(c.events)
	close(c.done)
	c.conn.Close()
}
