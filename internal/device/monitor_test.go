package device

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func TestParseScancodeEvent(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		wantOK bool
		want   ScancodeEvent
		err    bool
	}{
		{name: "make", in: `{"type":"make","code":"1C","proto":"XT"}`, wantOK: true, want: ScancodeEvent{Type: EventMake, Code: 0x1C, Proto: "XT"}},
		{name: "break with ts", in: `{"ts":123,"type":"break","code":"F0","proto":"AT"}`, wantOK: true, want: ScancodeEvent{Type: EventBreak, Code: 0xF0, Proto: "AT", TS: 123}},
		{name: "host echo", in: `{"type":"host->dev","code":"ED"}`, wantOK: true, want: ScancodeEvent{Type: EventHostEcho, Code: 0xED}},
		{name: "bit trace", in: `{"type":"bit","phase":"pre","ts":1,"clk":1,"data":0}`},
		{name: "bad code", in: `{"type":"make","code":"ZZ"}`, err: true},
		{name: "not json", in: `hello`, err: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok, err := ParseScancodeEvent([]byte(tt.in))
			if tt.err {
				if err == nil {
					t.Fatal("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("Expected ok=%v, got %v", tt.wantOK, ok)
			}
			if ok && ev != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, ev)
			}
		})
	}
}

func TestClient_MonitorURL(t *testing.T) {
	c := newTestClient(t, "https://kb.local/pfx", Options{})
	if got := c.MonitorURL(); got != "wss://kb.local/pfx/ws/scancodes" {
		t.Errorf("Unexpected monitor URL %s", got)
	}
	c = newTestClient(t, "192.168.4.1", Options{})
	if got := c.MonitorURL(); got != "ws://192.168.4.1/ws/scancodes" {
		t.Errorf("Unexpected monitor URL %s", got)
	}
}

func TestClient_Monitor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != PathMonitor {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		messages := []string{
			`{"type":"bit","phase":"pre","ts":1,"clk":1,"data":0}`,
			`{"type":"make","code":"1C","proto":"XT"}`,
			`garbage`,
			`{"type":"break","code":"9C","proto":"XT"}`,
		}
		for _, m := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		// Hold the connection open until the client goes away
		_, _, _ = conn.ReadMessage()
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, Options{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := make(chan ScancodeEvent, 4)
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Monitor(ctx, func(ev ScancodeEvent) { events <- ev })
	}()

	first := <-events
	second := <-events
	if first.Type != EventMake || first.Code != 0x1C {
		t.Errorf("Expected make 1C first, got %+v", first)
	}
	if second.Type != EventBreak || second.Code != 0x9C {
		t.Errorf("Expected break 9C second, got %+v", second)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Expected nil error after cancel, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Monitor did not return after cancel")
	}
}

func TestClient_MonitorDialFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	c := newTestClient(t, server.URL, Options{})
	err := c.Monitor(context.Background(), func(ScancodeEvent) {})
	if err == nil {
		t.Fatal("Expected dial failure against a non-websocket endpoint")
	}
}
