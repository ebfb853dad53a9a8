package broker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chat-client/internal/broker"
	"chat-client/internal/broker/brokertest"
	"chat-client/internal/models"
)

var testRoom = models.Room{ID: "c1", Kind: models.RoomChannel}

func startedConn(t *testing.T, srv *brokertest.Server, room models.Room) *broker.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := broker.NewDialer(srv.URL()).Open(room)
	require.NoError(t, conn.Start(ctx))
	t.Cleanup(func() { _ = conn.Stop(context.Background()) })
	return conn
}

func TestConnLifecycle(t *testing.T) {
	srv := brokertest.NewServer()
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := broker.NewDialer(srv.URL()).Open(testRoom)
	require.Equal(t, broker.StateBuilt, conn.State())

	require.NoError(t, conn.Start(ctx))
	require.Equal(t, broker.StateStarted, conn.State())

	require.NoError(t, conn.Join(ctx))
	require.Equal(t, broker.StateJoined, conn.State())
	require.Equal(t, 1, srv.Hub.RoomSize("c1"))

	require.NoError(t, conn.Stop(ctx))
	require.Equal(t, broker.StateStopped, conn.State())
}

func TestConnStartFailure(t *testing.T) {
	conn := broker.NewDialer("ws://127.0.0.1:1/chatHub").Open(testRoom)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := conn.Start(ctx)
	var connectErr *broker.ConnectError
	require.ErrorAs(t, err, &connectErr)
	require.Equal(t, broker.StateBuilt, conn.State())
}

func TestConnJoinRejected(t *testing.T) {
	srv := brokertest.NewServer()
	defer srv.Close()
	srv.RejectJoin("c1", "not a member")

	conn := startedConn(t, srv, testRoom)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := conn.Join(ctx)
	var joinErr *broker.JoinError
	require.ErrorAs(t, err, &joinErr)
	require.Equal(t, "c1", joinErr.Room)

	// A failed join does not roll back the started transport.
	require.Equal(t, broker.StateStarted, conn.State())
}

func TestConnStopIdempotent(t *testing.T) {
	srv := brokertest.NewServer()
	defer srv.Close()

	conn := startedConn(t, srv, testRoom)
	ctx := context.Background()
	require.NoError(t, conn.Stop(ctx))
	require.NoError(t, conn.Stop(ctx))

	// Stopping a connection that never started is a no-op too.
	unstarted := broker.NewDialer(srv.URL()).Open(testRoom)
	require.NoError(t, unstarted.Stop(ctx))
}

func TestBroadcastReachesAllRoomMembersIncludingSender(t *testing.T) {
	srv := brokertest.NewServer()
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sender := startedConn(t, srv, testRoom)
	receiver := startedConn(t, srv, testRoom)
	require.NoError(t, sender.Join(ctx))
	require.NoError(t, receiver.Join(ctx))

	senderGot := make(chan []string, 1)
	receiverGot := make(chan []string, 1)
	sender.On(broker.EventReceiveGroupMessage, func(args []string) { senderGot <- args })
	receiver.On(broker.EventReceiveGroupMessage, func(args []string) { receiverGot <- args })

	require.NoError(t, sender.Invoke(ctx, broker.EventSendGroupMessage, "alice", "u1", "hello", "c1"))

	want := []string{"alice", "u1", "hello", "c1"}
	for name, ch := range map[string]chan []string{"sender": senderGot, "receiver": receiverGot} {
		select {
		case got := <-ch:
			require.Equal(t, want, got, name)
		case <-time.After(3 * time.Second):
			t.Fatalf("%s did not receive the broadcast", name)
		}
	}
}

func TestBroadcastScopedToRoom(t *testing.T) {
	srv := brokertest.NewServer()
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	member := startedConn(t, srv, testRoom)
	outsider := startedConn(t, srv, models.Room{ID: "c2", Kind: models.RoomChannel})
	require.NoError(t, member.Join(ctx))
	require.NoError(t, outsider.Join(ctx))

	memberGot := make(chan []string, 1)
	outsiderGot := make(chan []string, 1)
	member.On(broker.EventReceiveGroupMessage, func(args []string) { memberGot <- args })
	outsider.On(broker.EventReceiveGroupMessage, func(args []string) { outsiderGot <- args })

	require.NoError(t, member.Invoke(ctx, broker.EventSendGroupMessage, "alice", "u1", "hello", "c1"))

	select {
	case <-memberGot:
	case <-time.After(3 * time.Second):
		t.Fatal("room member did not receive the broadcast")
	}
	select {
	case args := <-outsiderGot:
		t.Fatalf("connection joined to another room received %v", args)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscriptionCancelStopsDelivery(t *testing.T) {
	srv := brokertest.NewServer()
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := startedConn(t, srv, testRoom)
	require.NoError(t, conn.Join(ctx))

	cancelled := make(chan []string, 1)
	kept := make(chan []string, 1)
	sub := conn.On(broker.EventReceiveGroupMessage, func(args []string) { cancelled <- args })
	conn.On(broker.EventReceiveGroupMessage, func(args []string) { kept <- args })
	sub.Cancel()

	require.NoError(t, conn.Invoke(ctx, broker.EventSendGroupMessage, "alice", "u1", "hello", "c1"))

	select {
	case <-kept:
	case <-time.After(3 * time.Second):
		t.Fatal("remaining subscription did not receive the broadcast")
	}
	select {
	case <-cancelled:
		t.Fatal("cancelled subscription received the broadcast")
	default:
	}
}

func TestReconnectRejoinsRoomAfterHubOutage(t *testing.T) {
	srv := brokertest.NewServer()
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn := broker.NewDialer(srv.URL()).Open(testRoom)
	require.NoError(t, conn.Start(ctx))
	t.Cleanup(func() { _ = conn.Stop(context.Background()) })
	require.NoError(t, conn.Join(ctx))

	got := make(chan []string, 8)
	conn.On(broker.EventReceiveGroupMessage, func(args []string) { got <- args })

	require.NoError(t, conn.Invoke(ctx, broker.EventSendGroupMessage, "alice", "u1", "before", "c1"))
	select {
	case <-got:
	case <-time.After(3 * time.Second):
		t.Fatal("echo before the outage never arrived")
	}

	srv.Close()
	require.NoError(t, srv.Restart())

	require.Eventually(t, func() bool {
		return conn.State() == broker.StateJoined
	}, 10*time.Second, 50*time.Millisecond)
	require.Equal(t, 1, srv.Hub.RoomSize("c1"))

	require.NoError(t, conn.Invoke(ctx, broker.EventSendGroupMessage, "alice", "u1", "after", "c1"))
	select {
	case args := <-got:
		require.Equal(t, "after", args[2])
	case <-time.After(5 * time.Second):
		t.Fatal("broadcast after reconnect never arrived")
	}
}

func TestConcurrentSendersDeliverEveryBroadcast(t *testing.T) {
	srv := brokertest.NewServer()
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	receiver := startedConn(t, srv, testRoom)
	sender1 := startedConn(t, srv, testRoom)
	sender2 := startedConn(t, srv, testRoom)
	require.NoError(t, receiver.Join(ctx))
	require.NoError(t, sender1.Join(ctx))
	require.NoError(t, sender2.Join(ctx))

	const perSender = 20
	got := make(chan struct{}, 2*perSender)
	receiver.On(broker.EventReceiveGroupMessage, func([]string) { got <- struct{}{} })

	var wg sync.WaitGroup
	for _, sender := range []*broker.Conn{sender1, sender2} {
		wg.Add(1)
		go func(c *broker.Conn) {
			defer wg.Done()
			for i := 0; i < perSender; i++ {
				if err := c.Invoke(ctx, broker.EventSendGroupMessage, "alice", "u1", "hello", "c1"); err != nil {
					t.Errorf("invoke failed: %v", err)
					return
				}
			}
		}(sender)
	}
	wg.Wait()

	for i := 0; i < 2*perSender; i++ {
		select {
		case <-got:
		case <-time.After(5 * time.Second):
			t.Fatalf("receiver saw %d of %d broadcasts", i, 2*perSender)
		}
	}
}

func TestInvokeOnStoppedConnFails(t *testing.T) {
	srv := brokertest.NewServer()
	defer srv.Close()

	conn := startedConn(t, srv, testRoom)
	ctx := context.Background()
	require.NoError(t, conn.Stop(ctx))

	err := conn.Invoke(ctx, broker.EventSendGroupMessage, "alice", "u1", "hello", "c1")
	var connectErr *broker.ConnectError
	require.ErrorAs(t, err, &connectErr)
}
