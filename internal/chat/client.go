// Package chat implements room-scoped real-time message synchronization: one
// live broker connection per active room, a reconciled timeline of local
// sends, broadcast echoes and backend history, and deletion propagation.
//
// Sends are broadcast-first: the message reaches every room member over the
// hub before it is persisted, and the originator issues the backend write on
// seeing its own echo. If that echo is lost the message is never persisted;
// the trade-off buys send latency and is accepted here.
package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"chat-client/internal/broker"
	"chat-client/internal/models"
	"chat-client/internal/session"
	"chat-client/internal/telemetry"
)

var (
	// ErrEmptyContent rejects blank message bodies before they reach the hub.
	ErrEmptyContent = errors.New("message content is empty")

	// ErrNoActiveRoom is returned when no room session is live.
	ErrNoActiveRoom = errors.New("no active room")
)

// Backend is the REST surface the core consumes.
type Backend interface {
	RoomMessages(ctx context.Context, room models.Room) ([]models.Message, error)
	CreateRoomMessage(ctx context.Context, room models.Room, msg models.NewMessage) (models.Message, error)
	DeleteRoomMessage(ctx context.Context, room models.Room, messageID string) error
}

// Subscription is a cancellable event registration.
type Subscription interface {
	Cancel()
}

// Conn is the broker connection surface the core consumes. Connections are
// single-room and never reused across a room change.
type Conn interface {
	Start(ctx context.Context) error
	Join(ctx context.Context) error
	Invoke(ctx context.Context, event string, args ...string) error
	On(event string, handler func(args []string)) Subscription
	Stop(ctx context.Context) error
}

// DialFunc builds a fresh, unstarted connection for a room.
type DialFunc func(room models.Room) Conn

// DialBroker adapts a broker.Dialer into a DialFunc.
func DialBroker(d *broker.Dialer) DialFunc {
	return func(room models.Room) Conn {
		return brokerConn{d.Open(room)}
	}
}

type brokerConn struct {
	*broker.Conn
}

func (c brokerConn) On(event string, handler func(args []string)) Subscription {
	return c.Conn.On(event, broker.Handler(handler))
}

// Notifier surfaces transient failures to the user.
type Notifier interface {
	Notify(text string)
}

type logNotifier struct{}

func (logNotifier) Notify(text string) {
	log.Printf("notice: %s", text)
}

// roomSession pairs one room with exactly one live connection and its
// registered subscriptions. At most one session is active per client.
type roomSession struct {
	room     models.Room
	timeline *Timeline
	conn     Conn
	subs     []Subscription
}

// Client drives room switching, message reconciliation and deletion
// propagation for one identity.
type Client struct {
	identity session.Identity
	backend  Backend
	dial     DialFunc
	audit    *telemetry.AuditEmitter
	notifier Notifier

	mu     sync.Mutex
	active *roomSession
}

// NewClient constructs a Client. audit may be nil; a nil notifier logs.
func NewClient(identity session.Identity, backend Backend, dial DialFunc, audit *telemetry.AuditEmitter, notifier Notifier) *Client {
	if notifier == nil {
		notifier = logNotifier{}
	}
	return &Client{
		identity: identity,
		backend:  backend,
		dial:     dial,
		audit:    audit,
		notifier: notifier,
	}
}

// SwitchRoom makes room the active room context: the previous session is
// fully torn down, the new timeline is hydrated once from the backend, and a
// fresh connection is built, started, joined and wired to the broadcast
// handlers.
//
// Hydration failure is logged and leaves the timeline empty; the switch
// continues. Connection or join failure is returned and leaves the room
// readable (hydrated history) but not live; calling SwitchRoom again for the
// same room is the manual retry.
func (cl *Client) SwitchRoom(ctx context.Context, room models.Room) error {
	cl.mu.Lock()
	prev := cl.active
	sess := &roomSession{room: room, timeline: NewTimeline(room)}
	cl.active = sess
	cl.mu.Unlock()

	cl.teardown(ctx, prev)

	history, err := cl.backend.RoomMessages(ctx, room)
	if err != nil {
		// Passive background fetch: logged and audited, not surfaced.
		log.Printf("hydration failed for room %s: %v", room.ID, err)
		cl.emitAudit(ctx, "ERROR", "room history fetch failed")
	} else {
		cl.mu.Lock()
		if cl.active == sess {
			sess.timeline.Hydrate(history)
		}
		cl.mu.Unlock()
	}

	if !cl.stillActive(sess) {
		// The room changed while hydrating; this session is already torn down.
		return nil
	}

	conn := cl.dial(room)
	cl.mu.Lock()
	if cl.active != sess {
		cl.mu.Unlock()
		return nil
	}
	sess.conn = conn
	cl.mu.Unlock()

	if err := conn.Start(ctx); err != nil {
		cl.emitAudit(ctx, "ERROR", "broker connect failed")
		return err
	}
	if !cl.stillActive(sess) {
		_ = conn.Stop(ctx)
		return nil
	}
	if err := conn.Join(ctx); err != nil {
		cl.emitAudit(ctx, "ERROR", "room join failed")
		return err
	}

	messageSub := conn.On(broker.EventReceiveGroupMessage, func(args []string) {
		cl.onBroadcastReceived(sess, args)
	})
	deletionSub := conn.On(broker.EventReceiveGroupMessageDeleted, func(args []string) {
		cl.onDeletionBroadcastReceived(sess, args)
	})

	cl.mu.Lock()
	if cl.active != sess {
		cl.mu.Unlock()
		messageSub.Cancel()
		deletionSub.Cancel()
		_ = conn.Stop(ctx)
		return nil
	}
	sess.subs = append(sess.subs, messageSub, deletionSub)
	cl.mu.Unlock()

	cl.emitAudit(ctx, "INFO", "room joined")
	return nil
}

// Leave tears down the active room session, if any.
func (cl *Client) Leave(ctx context.Context) {
	cl.mu.Lock()
	prev := cl.active
	cl.active = nil
	cl.mu.Unlock()
	cl.teardown(ctx, prev)
}

// Close releases the client.
func (cl *Client) Close(ctx context.Context) {
	cl.Leave(ctx)
}

// ActiveRoom returns the current room context.
func (cl *Client) ActiveRoom() (models.Room, bool) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.active == nil {
		return models.Room{}, false
	}
	return cl.active.room, true
}

// Messages returns a snapshot of the active room's timeline.
func (cl *Client) Messages() []models.Message {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.active == nil {
		return nil
	}
	return cl.active.timeline.Messages()
}

// SendMessage broadcasts a message to the active room. It does not write to
// the backend: persistence happens when the sender's own echo arrives.
func (cl *Client) SendMessage(ctx context.Context, content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}

	cl.mu.Lock()
	sess := cl.active
	var conn Conn
	if sess != nil {
		conn = sess.conn
	}
	cl.mu.Unlock()
	if conn == nil {
		return ErrNoActiveRoom
	}

	err := conn.Invoke(ctx, broker.EventSendGroupMessage,
		cl.identity.Username, cl.identity.UserID, content, sess.room.ID)
	if err != nil {
		return err
	}
	cl.emitAudit(ctx, "INFO", "message sent")
	return nil
}

// DeleteMessage deletes a message everywhere: backend first, then the
// deletion broadcast, then the local timeline. A failed backend delete sends
// no broadcast and leaves the timeline unchanged, so peers never believe a
// message is gone while it persists.
func (cl *Client) DeleteMessage(ctx context.Context, messageID string) error {
	cl.mu.Lock()
	sess := cl.active
	var conn Conn
	if sess != nil {
		conn = sess.conn
	}
	cl.mu.Unlock()
	if sess == nil {
		return ErrNoActiveRoom
	}

	if err := cl.backend.DeleteRoomMessage(ctx, sess.room, messageID); err != nil {
		cl.emitAudit(ctx, "ERROR", "message delete failed")
		return err
	}

	if conn != nil {
		err := conn.Invoke(ctx, broker.EventSendGroupMessageDeleted,
			cl.identity.Username, cl.identity.UserID, messageID, sess.room.ID)
		if err != nil {
			log.Printf("deletion broadcast failed for message %s: %v", messageID, err)
		}
	}

	cl.mu.Lock()
	if cl.active == sess {
		sess.timeline.Remove(messageID)
	}
	cl.mu.Unlock()

	cl.emitAudit(ctx, "INFO", "message deleted")
	return nil
}

// onBroadcastReceived handles every ReceiveGroupMessage in the room,
// including the sender's own echo. Every broadcast appends exactly one entry
// with a provisional id and receipt-time timestamp; when the sender id
// matches the local identity, this handler additionally issues the backend
// persistence call, so exactly one room member performs the write.
func (cl *Client) onBroadcastReceived(sess *roomSession, args []string) {
	if len(args) != 4 {
		return
	}
	senderUsername, senderID, content, roomID := args[0], args[1], args[2], args[3]

	cl.mu.Lock()
	if cl.active != sess || sess.room.ID != roomID {
		cl.mu.Unlock()
		return
	}
	localID := models.LocalID(uuid.NewString())
	sess.timeline.Append(models.Message{
		ID:             localID,
		RoomID:         roomID,
		SenderID:       senderID,
		SenderUsername: senderUsername,
		Content:        content,
		CreatedAt:      time.Now(),
	})
	room := sess.room
	own := senderID == cl.identity.UserID
	cl.mu.Unlock()

	if own {
		go cl.persistEcho(sess, room, localID, content)
	}
}

// persistEcho issues the backend create for the sender's own echo and swaps
// in the authoritative id and timestamp once confirmed.
func (cl *Client) persistEcho(sess *roomSession, room models.Room, localID, content string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	created, err := cl.backend.CreateRoomMessage(ctx, room, models.NewMessage{
		SenderID: cl.identity.UserID,
		RoomID:   room.ID,
		Content:  content,
	})
	if err != nil {
		log.Printf("message persistence failed in room %s: %v", room.ID, err)
		cl.emitAudit(ctx, "ERROR", "message persistence failed")
		cl.notifier.Notify("message delivered but not saved")
		return
	}

	cl.mu.Lock()
	if cl.active == sess {
		sess.timeline.Confirm(localID, created)
	}
	cl.mu.Unlock()
}

// onDeletionBroadcastReceived handles ReceiveGroupMessageDeleted. The
// deleting client already removed the entry locally, so its own echo is a
// no-op; everyone else drops the entry by id.
func (cl *Client) onDeletionBroadcastReceived(sess *roomSession, args []string) {
	if len(args) != 4 {
		return
	}
	actorID, messageID, roomID := args[1], args[2], args[3]

	if actorID == cl.identity.UserID {
		return
	}

	cl.mu.Lock()
	if cl.active == sess && sess.room.ID == roomID {
		sess.timeline.Remove(messageID)
	}
	cl.mu.Unlock()
}

// teardown destroys a room session: subscriptions cancelled, connection
// stopped. Tolerates sessions that never started or joined.
func (cl *Client) teardown(ctx context.Context, sess *roomSession) {
	if sess == nil {
		return
	}
	for _, sub := range sess.subs {
		sub.Cancel()
	}
	if sess.conn != nil {
		_ = sess.conn.Stop(ctx)
	}
}

func (cl *Client) stillActive(sess *roomSession) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.active == sess
}

func (cl *Client) emitAudit(ctx context.Context, level, text string) {
	if cl.audit == nil {
		return
	}
	userID := cl.identity.UserID
	cl.audit.Emit(ctx, level, text, uuid.NewString(), &userID)
}
