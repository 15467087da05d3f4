package signaling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pingInterval = 25 * time.Second
	readTimeout  = 2 * pingInterval
)

var ErrNotConnected = errors.New("signaling: not connected")

// Handler callbacks for incoming signaling messages. Callbacks run on the
// client's read goroutine, one at a time.
type Handler struct {
	OnRegistered       func()
	OnOffer            func(from string, payload json.RawMessage)
	OnAnswer           func(from string, payload json.RawMessage)
	OnICECandidate     func(from string, payload json.RawMessage)
	OnHostsUpdated     func(hosts []HostInfo)
	OnHostDisconnected func(hostID string)
	OnError            func(msg string)
}

// Client is a WebSocket signaling client used by both the recording host
// and remote viewers.
type Client struct {
	url        string
	clientID   string
	clientType string
	handler    Handler

	mu     sync.Mutex
	conn   *websocket.Conn
	done   chan struct{}
	closed bool
}

// NewClient creates a signaling client.
func NewClient(url, clientID, clientType string, handler Handler) *Client {
	return &Client{
		url:        url,
		clientID:   clientID,
		clientType: clientType,
		handler:    handler,
		done:       make(chan struct{}),
	}
}

// Connect dials the server with a default timeout and registers.
func (c *Client) Connect() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return c.ConnectContext(ctx)
}

// ConnectContext dials the server, registers and starts reading messages.
func (c *Client) ConnectContext(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("signaling dial: %w", err)
	}
	conn.SetReadDeadline(time.Now().Add(readTimeout))

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	if err := c.send(Message{Type: TypeRegister, ID: c.clientID, ClientType: c.clientType}); err != nil {
		conn.Close()
		return fmt.Errorf("signaling register: %w", err)
	}

	go c.readLoop(conn)
	go c.pingLoop()
	return nil
}

// Close shuts down the connection. It is safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	if c.conn != nil {
		c.conn.Close()
	}
}

// Done is closed when the connection to the server is lost or closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// SendOffer sends an SDP offer to target.
func (c *Client) SendOffer(target string, payload json.RawMessage) error {
	return c.send(Message{Type: TypeOffer, Target: target, Payload: payload})
}

// SendAnswer sends an SDP answer to target.
func (c *Client) SendAnswer(target string, payload json.RawMessage) error {
	return c.send(Message{Type: TypeAnswer, Target: target, Payload: payload})
}

// SendICECandidate sends an ICE candidate to target.
func (c *Client) SendICECandidate(target string, payload json.RawMessage) error {
	return c.send(Message{Type: TypeICECandidate, Target: target, Payload: payload})
}

// RequestHostList asks the server for the registered hosts.
func (c *Client) RequestHostList() error {
	return c.send(Message{Type: TypeListHosts})
}

func (c *Client) send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.closed {
		return ErrNotConnected
	}
	return c.conn.WriteJSON(msg)
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer c.Close()
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			select {
			case <-c.done:
			default:
				log.Printf("signaling read error: %v", err)
			}
			return
		}
		// Any traffic, pongs included, proves the server is alive.
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg Message) {
	h := c.handler
	switch msg.Type {
	case TypeRegistered:
		if h.OnRegistered != nil {
			h.OnRegistered()
		}
	case TypeOffer:
		if h.OnOffer != nil {
			h.OnOffer(msg.From, msg.Payload)
		}
	case TypeAnswer:
		if h.OnAnswer != nil {
			h.OnAnswer(msg.From, msg.Payload)
		}
	case TypeICECandidate:
		if h.OnICECandidate != nil {
			h.OnICECandidate(msg.From, msg.Payload)
		}
	case TypeHosts, TypeHostsUpdated:
		if h.OnHostsUpdated != nil {
			h.OnHostsUpdated(msg.List)
		}
	case TypeHostDisconnected:
		if h.OnHostDisconnected != nil {
			h.OnHostDisconnected(msg.HostID)
		}
	case TypeError:
		if h.OnError != nil {
			h.OnError(msg.Msg)
		}
	case TypePong:
	default:
		log.Printf("signaling: unexpected message %q", msg.Type)
	}
}

func (c *Client) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.send(Message{Type: TypePing, Timestamp: time.Now().UnixMilli()}); err != nil {
				log.Printf("signaling ping: %v", err)
			}
		}
	}
}
