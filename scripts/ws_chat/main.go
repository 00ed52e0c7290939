package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/recipechat-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws/chat", "WebSocket address")
	token := flag.String("token", os.Getenv("RECIPECHAT_TOKEN"), "access token (defaults to $RECIPECHAT_TOKEN)")
	messageType := flag.String("type", "", "message_type for outgoing messages")
	flag.Parse()

	u, err := url.Parse(*addr)
	if err != nil {
		return fmt.Errorf("parse addr: %w", err)
	}
	q := u.Query()
	q.Set("token", *token)
	u.RawQuery = q.Encode()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.CloseNow()

	fmt.Printf("Connected to %s\n", *addr)
	fmt.Println("Type messages and press Enter to send. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn, *messageType)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var msg proto.ChatMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			case websocket.StatusPolicyViolation:
				log.Printf("authentication rejected")
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		switch msg.MessageType {
		case "system":
			fmt.Printf("* %s\n", msg.Text)
		case "error":
			fmt.Printf("! [%s] %s\n", msg.Code, msg.Text)
		default:
			fmt.Printf("[%s #%d] %s: %s\n", msg.Timestamp, msg.ID, msg.SenderUsername, msg.Text)
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, messageType string) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			if err := wsjson.Write(ctx, conn, proto.Inbound{Text: text, MessageType: messageType}); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}
