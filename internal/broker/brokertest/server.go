package brokertest

import (
	"net"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"chat-client/internal/broker"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server is an in-process hub endpoint backed by httptest.
type Server struct {
	Hub *Hub

	srv    *httptest.Server
	router *gin.Engine
	addr   string

	mu       sync.Mutex
	rejected map[string]string
}

// NewServer starts a hub server. Callers must Close it.
func NewServer() *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{Hub: NewHub(), rejected: make(map[string]string)}

	s.router = gin.New()
	s.router.GET("/chatHub", s.handle)
	s.srv = httptest.NewServer(s.router)
	s.addr = s.srv.Listener.Addr().String()
	return s
}

// URL returns the websocket URL of the hub endpoint. It stays valid across
// Close/Restart.
func (s *Server) URL() string {
	return "ws://" + s.addr + "/chatHub"
}

// Restart brings the hub back up on the address it first started on,
// simulating an outage. Room membership does not survive; clients rejoin.
func (s *Server) Restart() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.Hub = NewHub()
	srv := httptest.NewUnstartedServer(s.router)
	srv.Listener.Close()
	srv.Listener = ln
	srv.Start()
	s.srv = srv
	return nil
}

// RejectJoin makes future joins of roomID fail with the given reason.
func (s *Server) RejectJoin(roomID, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected[roomID] = reason
}

// Close shuts the server down and drops all connections.
func (s *Server) Close() {
	s.srv.Close()
}

func (s *Server) handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	defer func() {
		s.Hub.RemoveFromAll(conn)
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		frame, err := broker.DecodeFrame(data)
		if err != nil {
			continue
		}
		s.dispatch(conn, frame)
	}
}

func (s *Server) dispatch(conn *websocket.Conn, frame broker.Frame) {
	switch frame.Event {
	case broker.EventJoinRoom:
		if len(frame.Args) != 1 {
			return
		}
		roomID := frame.Args[0]

		s.mu.Lock()
		reason, rejected := s.rejected[roomID]
		s.mu.Unlock()
		if rejected {
			s.write(conn, broker.Frame{Event: broker.EventJoinRejected, Args: []string{reason}})
			return
		}

		s.Hub.AddClient(roomID, conn)
		s.write(conn, broker.Frame{Event: broker.EventJoinedRoom, Args: []string{roomID}})

	case broker.EventSendGroupMessage:
		// args: senderUsername, senderID, content, roomID
		if len(frame.Args) != 4 {
			return
		}
		s.Hub.Broadcast(frame.Args[3], broker.Frame{Event: broker.EventReceiveGroupMessage, Args: frame.Args})

	case broker.EventSendGroupMessageDeleted:
		// args: actorUsername, actorID, messageID, roomID
		if len(frame.Args) != 4 {
			return
		}
		s.Hub.Broadcast(frame.Args[3], broker.Frame{Event: broker.EventReceiveGroupMessageDeleted, Args: frame.Args})
	}
}

func (s *Server) write(conn *websocket.Conn, frame broker.Frame) {
	payload, err := frame.Encode()
	if err != nil {
		return
	}
	mu := s.Hub.lockFor(conn)
	mu.Lock()
	defer mu.Unlock()
	_ = conn.WriteMessage(websocket.TextMessage, payload)
}
