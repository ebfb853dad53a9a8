package broker

import "github.com/google/uuid"

// Subscription ties one handler to one hub event on one connection. The room
// session owns its subscriptions and cancels them on teardown.
type Subscription struct {
	conn    *Conn
	event   string
	id      string
	handler Handler
}

// On registers a handler for a hub event and returns its subscription.
func (c *Conn) On(event string, handler Handler) *Subscription {
	sub := &Subscription{conn: c, event: event, id: uuid.NewString(), handler: handler}
	c.mu.Lock()
	c.subs[event] = append(c.subs[event], sub)
	c.mu.Unlock()
	return sub
}

// Cancel detaches the handler. Cancelling twice is a no-op.
func (s *Subscription) Cancel() {
	c := s.conn
	c.mu.Lock()
	defer c.mu.Unlock()

	subs := c.subs[s.event]
	for i, sub := range subs {
		if sub.id == s.id {
			c.subs[s.event] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(c.subs[s.event]) == 0 {
		delete(c.subs, s.event)
	}
}

func (c *Conn) subscriptions(event string) []*Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	subs := c.subs[event]
	out := make([]*Subscription, len(subs))
	copy(out, subs)
	return out
}
