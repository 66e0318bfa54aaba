package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zhouzirui/peoplemap/backend/internal/handler/relay"
	chatservice "github.com/zhouzirui/peoplemap/backend/internal/service/chat"
)

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	serverURL := flag.String("url", "ws://localhost:5002/ws", "relay websocket 地址")
	user := flag.String("user", "", "当前用户 ID")
	peer := flag.String("peer", "", "对方用户 ID")
	message := flag.String("message", "", "加入房间后发送的消息，留空则只监听")
	wait := flag.Duration("wait", 30*time.Second, "监听时长")

	flag.Parse()

	if *user == "" || *peer == "" {
		flag.Usage()
		log.Fatal("请通过 -user 和 -peer 指定会话双方")
	}
	if _, err := url.Parse(*serverURL); err != nil {
		log.Fatalf("无效的地址 %q: %v", *serverURL, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *wait)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, *serverURL, nil)
	if err != nil {
		log.Fatalf("连接失败: %v", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}()

	emit(conn, chatservice.EventJoinRoom, relay.RoomPayload{User1: *user, User2: *peer})

	sent := false
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			if ctx.Err() == nil {
				log.Printf("[WARN] 读取失败: %v", err)
			}
			return
		}
		log.Printf("<- %s %s", f.Event, f.Data)

		if f.Event == chatservice.EventJoinedRoom && *message != "" && !sent {
			sent = true
			emit(conn, chatservice.EventSendMessage, relay.SendPayload{
				SenderID:   *user,
				ReceiverID: *peer,
				Message:    *message,
			})
		}
	}
}

func emit(conn *websocket.Conn, event string, data any) {
	payload := map[string]any{"event": event, "data": data}
	if err := conn.WriteJSON(payload); err != nil {
		log.Fatalf("发送 %s 失败: %v", event, err)
	}
	log.Printf("-> %s", event)
}
