// Package broker owns the lifecycle of real-time hub connections. A Conn is
// built for exactly one room, joined at most once, and never reused after the
// room context changes.
package broker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"chat-client/internal/models"
	"chat-client/internal/observability"
)

const (
	// Time allowed to write a message to the hub
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the hub
	pongWait = 60 * time.Second

	// Send pings with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from the hub
	maxMessageSize = 64 * 1024

	maxReconnectWait = 8 * time.Second
)

// State is the connection lifecycle state.
type State int

const (
	StateBuilt State = iota
	StateStarting
	StateStarted
	StateJoining
	StateJoined
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateBuilt:
		return "built"
	case StateStarting:
		return "starting"
	case StateStarted:
		return "started"
	case StateJoining:
		return "joining"
	case StateJoined:
		return "joined"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Handler receives the positional arguments of a hub event.
type Handler func(args []string)

// Dialer builds connections against one hub URL.
type Dialer struct {
	url string
	ws  *websocket.Dialer
}

// NewDialer constructs a Dialer for the hub at url.
func NewDialer(url string) *Dialer {
	return &Dialer{url: url, ws: websocket.DefaultDialer}
}

// Open builds a fresh connection for the room. It does not start the
// transport; callers Start then Join.
func (d *Dialer) Open(room models.Room) *Conn {
	return &Conn{
		id:     uuid.NewString(),
		url:    d.url,
		room:   room,
		dialer: d.ws,
		state:  StateBuilt,
		subs:   make(map[string][]*Subscription),
		done:   make(chan struct{}),
	}
}

// Conn is one hub connection scoped to a single room. It reconnects
// automatically after transport drops and rejoins the room if it had joined.
type Conn struct {
	id     string
	url    string
	room   models.Room
	dialer *websocket.Dialer

	mu          sync.Mutex
	state       State
	ws          *websocket.Conn
	subs        map[string][]*Subscription
	joined      bool
	pendingJoin chan error
	done        chan struct{}

	writeMu sync.Mutex
}

// ID returns the connection id.
func (c *Conn) ID() string { return c.id }

// Room returns the room this connection was built for.
func (c *Conn) Room() models.Room { return c.room }

// State returns the current lifecycle state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start dials the hub transport. On failure the connection returns to the
// built state and may be started again.
func (c *Conn) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateBuilt {
		state := c.state
		c.mu.Unlock()
		return &ConnectError{URL: c.url, Err: fmt.Errorf("cannot start from state %s", state)}
	}
	c.state = StateStarting
	c.mu.Unlock()

	ctx, span := otel.Tracer("chat-client/broker").Start(ctx, "ws.handshake")
	defer span.End()

	ws, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		c.mu.Lock()
		c.state = StateBuilt
		c.mu.Unlock()
		return &ConnectError{URL: c.url, Err: err}
	}

	c.mu.Lock()
	c.ws = ws
	c.state = StateStarted
	c.mu.Unlock()

	kind := string(c.room.Kind)
	observability.IncWSActive(kind)
	observability.IncWSEvent(kind, "ws_connect")
	_ = observability.PublishEvent(ctx, eventRoutingKey(c.room.Kind), observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"kind":    kind,
				"room_id": c.room.ID,
				"conn_id": c.id,
			},
		},
	}, observability.BuildHeaders(uuid.NewString(), span.SpanContext().TraceID().String()))

	go c.readLoop(ws)
	return nil
}

// Join asks the hub to add this connection to its room and waits for the
// acknowledgement frame. A failed join leaves the connection started; the
// caller retries Join or surfaces the failure.
func (c *Conn) Join(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateJoined:
		c.mu.Unlock()
		return nil
	case StateStarted:
	default:
		state := c.state
		c.mu.Unlock()
		return &JoinError{Room: c.room.ID, Reason: fmt.Sprintf("connection %s, not started", state)}
	}
	c.state = StateJoining
	ack := make(chan error, 1)
	c.pendingJoin = ack
	c.mu.Unlock()

	if err := c.writeFrame(Frame{Event: EventJoinRoom, Args: []string{c.room.ID}}); err != nil {
		c.abandonJoin()
		return &JoinError{Room: c.room.ID, Reason: err.Error()}
	}

	select {
	case err := <-ack:
		if err != nil {
			return err
		}
		observability.IncWSEvent(string(c.room.Kind), "room_join")
		return nil
	case <-ctx.Done():
		c.abandonJoin()
		return &JoinError{Room: c.room.ID, Reason: "join timed out"}
	case <-c.done:
		return &JoinError{Room: c.room.ID, Reason: "connection stopped"}
	}
}

func (c *Conn) abandonJoin() {
	c.mu.Lock()
	if c.state == StateJoining {
		c.state = StateStarted
	}
	c.pendingJoin = nil
	c.mu.Unlock()
}

// Invoke sends a named event with positional arguments to the hub.
func (c *Conn) Invoke(ctx context.Context, event string, args ...string) error {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()

	switch state {
	case StateStarted, StateJoining, StateJoined:
	default:
		return &ConnectError{URL: c.url, Err: fmt.Errorf("invoke %s on %s connection", event, state)}
	}
	return c.writeFrame(Frame{Event: event, Args: args})
}

// Stop tears the connection down. It is idempotent: stopping an already
// stopped or never-started connection is a no-op and never returns an error.
func (c *Conn) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateStopping || c.state == StateStopped {
		c.mu.Unlock()
		return nil
	}
	c.state = StateStopping
	ws := c.ws
	close(c.done)
	c.mu.Unlock()

	if ws != nil {
		c.writeMu.Lock()
		_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
		_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		_ = ws.Close()
	}

	c.mu.Lock()
	c.state = StateStopped
	c.mu.Unlock()

	if ws != nil {
		kind := string(c.room.Kind)
		observability.DecWSActive(kind)
		observability.IncWSEvent(kind, "ws_disconnect")
	}
	return nil
}

func (c *Conn) writeFrame(frame Frame) error {
	data, err := frame.Encode()
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if ws == nil {
		return fmt.Errorf("connection not started")
	}

	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	return ws.WriteMessage(websocket.TextMessage, data)
}

func (c *Conn) stopped() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// readLoop consumes frames from the current transport and drives reconnects
// until the connection is stopped.
func (c *Conn) readLoop(ws *websocket.Conn) {
	for {
		wsDone := make(chan struct{})
		go c.pingLoop(ws, wsDone)
		c.consume(ws)
		close(wsDone)

		if c.stopped() {
			return
		}
		next, ok := c.reconnect()
		if !ok {
			return
		}
		ws = next
	}
}

func (c *Conn) consume(ws *websocket.Conn) {
	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if !c.stopped() {
				log.Printf("broker read error: %v", err)
			}
			return
		}
		frame, err := DecodeFrame(data)
		if err != nil {
			log.Printf("broker dropping malformed frame: %v", err)
			continue
		}
		c.handle(frame)
	}
}

// handle dispatches one frame. Handlers run on the reader goroutine, in
// transport delivery order.
func (c *Conn) handle(frame Frame) {
	switch frame.Event {
	case EventJoinedRoom:
		c.mu.Lock()
		c.state = StateJoined
		c.joined = true
		pending := c.pendingJoin
		c.pendingJoin = nil
		c.mu.Unlock()
		if pending != nil {
			pending <- nil
		}
	case EventJoinRejected:
		reason := "join rejected"
		if len(frame.Args) > 0 {
			reason = frame.Args[0]
		}
		c.mu.Lock()
		if c.state == StateJoining {
			c.state = StateStarted
		}
		pending := c.pendingJoin
		c.pendingJoin = nil
		c.mu.Unlock()
		if pending != nil {
			pending <- &JoinError{Room: c.room.ID, Reason: reason}
		}
	default:
		observability.IncWSEvent(string(c.room.Kind), frame.Event)
		for _, sub := range c.subscriptions(frame.Event) {
			sub.handler(frame.Args)
		}
	}
}

func (c *Conn) reconnect() (*websocket.Conn, bool) {
	wait := 500 * time.Millisecond
	for {
		select {
		case <-c.done:
			return nil, false
		case <-time.After(wait):
		}

		observability.IncReconnect()
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		ws, resp, err := c.dialer.DialContext(ctx, c.url, nil)
		cancel()
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			log.Printf("broker reconnect failed: %v", err)
			wait *= 2
			if wait > maxReconnectWait {
				wait = maxReconnectWait
			}
			continue
		}

		c.mu.Lock()
		if c.state == StateStopping || c.state == StateStopped {
			c.mu.Unlock()
			ws.Close()
			return nil, false
		}
		c.ws = ws
		c.state = StateStarted
		rejoin := c.joined
		c.mu.Unlock()

		observability.IncWSEvent(string(c.room.Kind), "ws_reconnect")
		if rejoin {
			// The hub answers with JoinedRoom, which restores the joined state.
			if err := c.writeFrame(Frame{Event: EventJoinRoom, Args: []string{c.room.ID}}); err != nil {
				log.Printf("broker rejoin failed: %v", err)
			}
		}
		return ws, true
	}
}

func (c *Conn) pingLoop(ws *websocket.Conn, wsDone chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.writeMu.Lock()
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			err := ws.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-wsDone:
			return
		case <-c.done:
			return
		}
	}
}

func eventRoutingKey(kind models.RoomKind) string {
	if kind == models.RoomDirectMessage {
		return "ws_events.dms"
	}
	return "ws_events.channels"
}
