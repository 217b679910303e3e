package device

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/studiowebux/kexedit/internal/keymap"
)

// Scancode event types broadcast by the device
const (
	EventMake     = "make"
	EventBreak    = "break"
	EventHostEcho = "host->dev"
	EventBit      = "bit"
)

// ScancodeEvent is one output scancode observed on the monitor socket
type ScancodeEvent struct {
	Type  string
	Code  byte
	Proto string
	TS    uint64 // device microseconds, 0 when timestamps are disabled
}

type wireScancodeEvent struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Proto string `json:"proto"`
	TS    uint64 `json:"ts"`
}

// ParseScancodeEvent decodes one monitor message. Bit-level trace messages
// report ok=false.
func ParseScancodeEvent(data []byte) (ScancodeEvent, bool, error) {
	var w wireScancodeEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return ScancodeEvent{}, false, fmt.Errorf("invalid monitor message: %w", err)
	}
	if w.Type == EventBit || w.Code == "" {
		return ScancodeEvent{}, false, nil
	}
	code, err := keymap.ParseHexByte(w.Code)
	if err != nil {
		return ScancodeEvent{}, false, fmt.Errorf("invalid monitor message: %w", err)
	}
	return ScancodeEvent{Type: w.Type, Code: code, Proto: w.Proto, TS: w.TS}, true, nil
}

// MonitorURL returns the scancode websocket endpoint
func (c *Client) MonitorURL() string {
	u := *c.baseURL
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = c.baseURL.Path + PathMonitor
	return u.String()
}

// Monitor connects to the scancode socket and calls handler for every
// scancode event until ctx is cancelled or the connection fails. A cancelled
// context returns nil.
func (c *Client) Monitor(ctx context.Context, handler func(ScancodeEvent)) error {
	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 10 * time.Second,
	}

	conn, resp, err := dialer.DialContext(ctx, c.MonitorURL(), nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("monitor connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("monitor connection failed: %w", err)
	}
	defer conn.Close()

	log.Debug().Str("url", c.MonitorURL()).Msg("monitor connected")

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("monitor read failed: %w", err)
		}

		ev, ok, err := ParseScancodeEvent(data)
		if err != nil {
			log.Debug().Err(err).Msg("skipping monitor message")
			continue
		}
		if ok {
			handler(ev)
		}
	}
}
