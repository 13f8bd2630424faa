package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestStatusHubStateBeforeFirstRender(t *testing.T) {
	srv := httptest.NewServer(NewStatusHub().Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/state")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func TestStatusHubServesLatestRender(t *testing.T) {
	hub := NewStatusHub()
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	hub.Render("first")
	hub.Render("second")

	resp, err := http.Get(srv.URL + "/api/state")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var msg StatusMessage
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != "state" || msg.Text != "second" {
		t.Errorf("unexpected message %+v", msg)
	}
}

func TestStatusHubStreamsRenders(t *testing.T) {
	hub := NewStatusHub()
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	hub.Render("before connect")

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var msg StatusMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read replay: %v", err)
	}
	if msg.Text != "before connect" {
		t.Errorf("expected the last render on connect, got %q", msg.Text)
	}

	hub.Render("live")
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read live: %v", err)
	}
	if msg.Text != "live" {
		t.Errorf("expected live render, got %q", msg.Text)
	}
	if n := hub.Clients(); n != 1 {
		t.Errorf("expected 1 client, got %d", n)
	}
}
