package telemetry

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHubBroadcastsToSubscriber(t *testing.T) {
	hub := NewHub()
	done := make(chan struct{})
	defer close(done)
	go hub.Run(done)

	srv := httptest.NewServer(hub.Router())
	defer srv.Close()

	wsURL := strings.Replace(srv.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The hub registers the client from the server goroutine; wait for
	// it before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Publish("game", GameEvent{GameID: "g-1", Plies: 42, Result: "draw", Played: 1, Total: 2})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Type != "game" {
		t.Errorf("event type = %q", ev.Type)
	}
	var game GameEvent
	if err := json.Unmarshal(ev.Payload, &game); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if game.GameID != "g-1" || game.Plies != 42 {
		t.Errorf("payload = %+v", game)
	}
}

func TestPublishWithoutClientsDoesNotBlock(t *testing.T) {
	hub := NewHub()
	// No Run pump, no clients: the queue fills and further events drop.
	for i := 0; i < 200; i++ {
		hub.Publish("search", SearchEvent{Cycles: i})
	}
}
