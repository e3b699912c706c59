package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	logger "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Logger"
)

func TestHubBroadcastAndDirect(t *testing.T) {
	hub := NewHub(logger.Nop())
	clients := make(chan *Client, 1)
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := hub.Register(conn)
		clients <- c
		go c.WritePump()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				hub.Unregister(c)
				return
			}
		}
	}))
	defer srv.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()
	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))

	var hello Message
	if err := ws.ReadJSON(&hello); err != nil {
		t.Fatal(err)
	}
	server := <-clients
	data, _ := hello.Data.(map[string]interface{})
	if hello.Type != TypeHello || data["session_id"] != server.ID {
		t.Fatalf("hello = %+v", hello)
	}

	hub.Publish("alerts", map[string]string{"level": "danger"})
	var msg Message
	if err := ws.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != TypeEvent || msg.Event != "alerts" || msg.TS == "" {
		t.Errorf("broadcast = %+v", msg)
	}

	server.Publish("control", map[string]string{"device_id": "1"})
	if err := ws.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Event != "control" {
		t.Errorf("direct message = %+v", msg)
	}

	ws.Close()
	deadline := time.Now().Add(5 * time.Second)
	for hub.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.Len() != 0 {
		t.Errorf("client not unregistered, Len = %d", hub.Len())
	}
}

func TestHubDropsSlowClients(t *testing.T) {
	hub := NewHub(logger.Nop())
	c := &Client{ID: "slow", hub: hub, send: make(chan []byte, 1)}
	hub.clients[c] = struct{}{}

	hub.Publish("feed", 1)
	if hub.Len() != 1 {
		t.Fatal("client dropped too early")
	}
	hub.Publish("feed", 2)
	if hub.Len() != 0 {
		t.Error("slow client kept")
	}

	// publishing to a closed client is a no-op
	c.Publish("control", 3)
	hub.Unregister(c)
}

func TestHubClose(t *testing.T) {
	hub := NewHub(logger.Nop())
	c := &Client{ID: "a", hub: hub, send: make(chan []byte, 4)}
	hub.clients[c] = struct{}{}

	hub.Close()
	if hub.Len() != 0 {
		t.Errorf("Len = %d", hub.Len())
	}
	if _, ok := <-c.send; ok {
		t.Error("send queue still open")
	}
}
