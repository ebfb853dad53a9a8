package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chat-client/internal/api"
	"chat-client/internal/broker"
	"chat-client/internal/chat"
	"chat-client/internal/config"
	"chat-client/internal/models"
	"chat-client/internal/observability"
	"chat-client/internal/session"
	"chat-client/internal/telemetry"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	store, err := session.Open(cfg.StatePath)
	if err != nil {
		log.Fatalf("failed to open state store: %v", err)
	}
	defer store.Close()

	sess, err := session.Restore(ctx, store)
	if err != nil {
		token := os.Getenv("CHAT_TOKEN")
		if token == "" {
			log.Fatalf("no usable credential: %v (set CHAT_TOKEN to log in)", err)
		}
		sess, err = session.Login(ctx, store, token)
		if err != nil {
			log.Fatalf("login failed: %v", err)
		}
	}
	identity := sess.Identity()
	log.Printf("signed in as %s (%s)", identity.Username, identity.UserID)

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("tracing shutdown error: %v", err)
		}
	}()

	var audit *telemetry.AuditEmitter
	if cfg.AMQPURL != "" {
		publisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Printf("amqp disabled: %v", err)
		} else {
			defer publisher.Close()
			observability.SetPublisher(publisher)
			audit = telemetry.NewAuditEmitter(publisher, "audit.chat_client", "chat-client", cfg.Environment)
		}
	}

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Printf("metrics listener error: %v", err)
			}
		}()
	}

	backend := api.NewClient(cfg.BackendURL, sess)
	dialer := broker.NewDialer(cfg.BrokerURL)
	client := chat.NewClient(identity, backend, chat.DialBroker(dialer), audit, nil)
	defer client.Close(ctx)

	runREPL(ctx, client, backend, sess)
}

func runREPL(ctx context.Context, client *chat.Client, backend *api.Client, sess *session.Session) {
	fmt.Println("commands: /servers /channels <server> /dms /friends /join <channel> /dm <thread> /messages /delete <message> /logout /quit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			if err := client.SendMessage(ctx, line); err != nil {
				fmt.Printf("send failed: %v\n", err)
			}
			continue
		}

		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]
		switch cmd {
		case "/servers":
			servers, err := backend.ListServers(ctx)
			if err != nil {
				fmt.Printf("list servers failed: %v\n", err)
				continue
			}
			for _, s := range servers {
				fmt.Printf("%s  %s\n", s.ID, s.Name)
			}
		case "/channels":
			if len(args) != 1 {
				fmt.Println("usage: /channels <server>")
				continue
			}
			channels, err := backend.ListChannels(ctx, args[0])
			if err != nil {
				fmt.Printf("list channels failed: %v\n", err)
				continue
			}
			for _, c := range channels {
				fmt.Printf("%s  #%s\n", c.ID, c.Name)
			}
		case "/dms":
			threads, err := backend.ListDirectMessageChannels(ctx)
			if err != nil {
				fmt.Printf("list dms failed: %v\n", err)
				continue
			}
			for _, t := range threads {
				fmt.Printf("%s  %s <-> %s\n", t.ID, t.UserOneID, t.UserTwoID)
			}
		case "/friends":
			friendships, err := backend.ListFriendships(ctx)
			if err != nil {
				fmt.Printf("list friends failed: %v\n", err)
				continue
			}
			for _, f := range friendships {
				fmt.Printf("%s  %s -> %s (%s)\n", f.ID, f.RequesterUsername, f.AddresseeUsername, f.Status)
			}
		case "/join":
			if len(args) != 1 {
				fmt.Println("usage: /join <channel>")
				continue
			}
			switchRoom(ctx, client, models.Room{ID: args[0], Kind: models.RoomChannel})
		case "/dm":
			if len(args) != 1 {
				fmt.Println("usage: /dm <thread>")
				continue
			}
			switchRoom(ctx, client, models.Room{ID: args[0], Kind: models.RoomDirectMessage})
		case "/messages":
			for _, m := range client.Messages() {
				fmt.Printf("[%s] %s: %s\n", m.CreatedAt.Format("15:04"), m.SenderUsername, m.Content)
			}
		case "/delete":
			if len(args) != 1 {
				fmt.Println("usage: /delete <message>")
				continue
			}
			if err := client.DeleteMessage(ctx, args[0]); err != nil {
				fmt.Printf("delete failed: %v\n", err)
			}
		case "/logout":
			client.Leave(ctx)
			if err := sess.Logout(ctx); err != nil {
				fmt.Printf("logout failed: %v\n", err)
			}
			return
		case "/quit":
			return
		default:
			fmt.Printf("unknown command %s\n", cmd)
		}
	}
}

func switchRoom(ctx context.Context, client *chat.Client, room models.Room) {
	if err := client.SwitchRoom(ctx, room); err != nil {
		// History stays readable; re-running the command retries the join.
		fmt.Printf("room %s is read-only: %v\n", room.ID, err)
		return
	}
	for _, m := range client.Messages() {
		fmt.Printf("[%s] %s: %s\n", m.CreatedAt.Format("15:04"), m.SenderUsername, m.Content)
	}
}
