package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"chat-client/internal/chat"
	"chat-client/internal/models"
)

type BackendMock struct {
	mock.Mock
}

func (m *BackendMock) RoomMessages(ctx context.Context, room models.Room) ([]models.Message, error) {
	args := m.Called(ctx, room)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *BackendMock) CreateRoomMessage(ctx context.Context, room models.Room, msg models.NewMessage) (models.Message, error) {
	args := m.Called(ctx, room, msg)
	var created models.Message
	if val := args.Get(0); val != nil {
		created = val.(models.Message)
	}
	return created, args.Error(1)
}

func (m *BackendMock) DeleteRoomMessage(ctx context.Context, room models.Room, messageID string) error {
	args := m.Called(ctx, room, messageID)
	return args.Error(0)
}

// Journal is a shared, ordered record of lifecycle calls across fakes.
type Journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *Journal) Record(entry string) {
	if j == nil {
		return
	}
	j.mu.Lock()
	j.entries = append(j.entries, entry)
	j.mu.Unlock()
}

func (j *Journal) Entries() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, len(j.entries))
	copy(out, j.entries)
	return out
}

// FakeConn is a stateful in-memory chat.Conn. Tests deliver broadcast frames
// to the registered handlers with Deliver. A testify mock cannot serve here:
// its expectation method collides with the connection's On.
type FakeConn struct {
	Name    string
	Journal *Journal

	StartErr  error
	JoinErr   error
	InvokeErr error

	mu          sync.Mutex
	stopCalls   int
	invocations [][]string
	handlers    map[string][]func(args []string)
}

func (c *FakeConn) Start(ctx context.Context) error {
	c.Journal.Record(c.Name + ".start")
	return c.StartErr
}

func (c *FakeConn) Join(ctx context.Context) error {
	if c.JoinErr != nil {
		return c.JoinErr
	}
	c.Journal.Record(c.Name + ".join")
	return nil
}

func (c *FakeConn) Invoke(ctx context.Context, event string, args ...string) error {
	if c.InvokeErr != nil {
		return c.InvokeErr
	}
	c.mu.Lock()
	c.invocations = append(c.invocations, append([]string{event}, args...))
	c.mu.Unlock()
	return nil
}

func (c *FakeConn) Stop(ctx context.Context) error {
	c.mu.Lock()
	c.stopCalls++
	c.mu.Unlock()
	c.Journal.Record(c.Name + ".stop")
	return nil
}

func (c *FakeConn) On(event string, handler func(args []string)) chat.Subscription {
	c.mu.Lock()
	if c.handlers == nil {
		c.handlers = make(map[string][]func(args []string))
	}
	c.handlers[event] = append(c.handlers[event], handler)
	c.mu.Unlock()
	return subscriptionStub{}
}

// Deliver invokes the registered handlers for event, simulating a broadcast
// arriving from the hub.
func (c *FakeConn) Deliver(event string, args ...string) {
	c.mu.Lock()
	handlers := append([]func(args []string){}, c.handlers[event]...)
	c.mu.Unlock()
	for _, handler := range handlers {
		handler(args)
	}
}

// Invocations returns the recorded invokes for one event.
func (c *FakeConn) Invocations(event string) [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out [][]string
	for _, inv := range c.invocations {
		if inv[0] == event {
			out = append(out, inv[1:])
		}
	}
	return out
}

// StopCalls reports how many times Stop ran.
func (c *FakeConn) StopCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopCalls
}

type subscriptionStub struct{}

func (subscriptionStub) Cancel() {}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

var _ chat.Backend = (*BackendMock)(nil)
var _ chat.Conn = (*FakeConn)(nil)
