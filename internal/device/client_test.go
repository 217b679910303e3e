package device

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/studiowebux/kexedit/internal/keymap"
)

func tableBody(entry func(i int) string) string {
	parts := make([]string, keymap.TableSize)
	for i := range parts {
		parts[i] = entry(i)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

// recordingServer records every request and answers with handler
func recordingServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var reqs []recordedRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: string(body)})
		mu.Unlock()
		r.Body = io.NopCloser(bytes.NewReader(body))
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	return server, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		out := make([]recordedRequest, len(reqs))
		copy(out, reqs)
		return out
	}
}

func newTestClient(t *testing.T, url string, opts Options) *Client {
	t.Helper()
	c, err := NewClient(url, opts)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return c
}

func TestParseDeviceURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "192.168.4.1", want: "http://192.168.4.1"},
		{in: "http://kb.local/", want: "http://kb.local"},
		{in: "https://kb.local/base/", want: "https://kb.local/base"},
		{in: "  http://kb.local?x=1 ", want: "http://kb.local"},
		{in: "", wantErr: true},
		{in: "ftp://kb.local", wantErr: true},
		{in: "http://", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			u, err := ParseDeviceURL(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error for %q, got %s", tt.in, u)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if u.String() != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, u)
			}
		})
	}
}

func TestClient_Load(t *testing.T) {
	server, requests := recordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, tableBody(func(i int) string {
			if i == 65 {
				return `{"usb":65,"base":97,"shift":65,"altgr":0,"ctrl":0,"dead":0}`
			}
			return fmt.Sprintf(`{"usb":%d,"base":0,"shift":0,"altgr":0,"ctrl":0,"dead":0}`, i)
		}))
	})

	c := newTestClient(t, server.URL, Options{})
	table, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := keymap.Entry{USB: 65, Base: 0x61, Shift: 0x41}
	if table[65] != want {
		t.Errorf("Expected %+v, got %+v", want, table[65])
	}

	reqs := requests()
	if len(reqs) != 1 || reqs[0].Method != http.MethodGet || reqs[0].Path != PathMap {
		t.Errorf("Expected one GET %s, got %+v", PathMap, reqs)
	}
}

func TestClient_LoadStatusError(t *testing.T) {
	server, _ := recordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	c := newTestClient(t, server.URL, Options{})
	_, err := c.Load(context.Background())

	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("Expected TransportError, got %v", err)
	}
	if terr.Op != OpLoad || terr.Status != http.StatusInternalServerError {
		t.Errorf("Expected load failure with status 500, got %+v", terr)
	}
	if !strings.Contains(terr.Error(), "boom") {
		t.Errorf("Expected body excerpt in error, got %q", terr.Error())
	}
}

func TestClient_LoadMalformedBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "short array", body: `[{"base":1}]`},
		{name: "not json", body: `<html>`},
		{name: "out of range", body: tableBody(func(i int) string { return `{"base":999}` })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := recordingServer(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			})
			c := newTestClient(t, server.URL, Options{})

			_, err := c.Load(context.Background())
			var terr *TransportError
			if !errors.As(err, &terr) {
				t.Fatalf("Expected TransportError, got %v", err)
			}
			if terr.Status != http.StatusOK || terr.Err == nil {
				t.Errorf("Expected decode failure on a 200 response, got %+v", terr)
			}
		})
	}
}

func TestClient_LoadConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := newTestClient(t, url, Options{})
	_, err := c.Load(context.Background())

	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("Expected TransportError, got %v", err)
	}
	if terr.Status != 0 || terr.Err == nil {
		t.Errorf("Expected network failure without status, got %+v", terr)
	}
}

func TestClient_SaveEntry(t *testing.T) {
	server, requests := recordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true}`)
	})

	var results []Result
	c := newTestClient(t, server.URL, Options{Observer: func(r Result) { results = append(results, r) }})

	err := c.SaveEntry(context.Background(), keymap.Entry{USB: 65, Base: 0x61, Shift: 0x41})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	reqs := requests()
	if len(reqs) != 1 || reqs[0].Method != http.MethodPost || reqs[0].Path != PathSet {
		t.Fatalf("Expected one POST %s, got %+v", PathSet, reqs)
	}
	want := `{"usb":65,"base":97,"shift":65,"altgr":0,"ctrl":0,"dead":0}`
	if reqs[0].Body != want {
		t.Errorf("Expected body %s, got %s", want, reqs[0].Body)
	}

	if len(results) != 1 || results[0].Op != OpSave || results[0].USB != 65 || results[0].Status != http.StatusOK {
		t.Errorf("Expected one save result for usb 65, got %+v", results)
	}
}

func TestClient_SaveEntryServerError(t *testing.T) {
	server, _ := recordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "usb out of range", http.StatusBadRequest)
	})
	c := newTestClient(t, server.URL, Options{})

	err := c.SaveEntry(context.Background(), keymap.Entry{USB: 4, Base: 0x1E})
	var terr *TransportError
	if !errors.As(err, &terr) || terr.Status != http.StatusBadRequest {
		t.Fatalf("Expected 400 TransportError, got %v", err)
	}
}

func TestClient_SaveEntryOutOfRange(t *testing.T) {
	server, requests := recordingServer(t, func(w http.ResponseWriter, r *http.Request) {})
	c := newTestClient(t, server.URL, Options{})

	err := c.SaveEntry(context.Background(), keymap.Entry{USB: 256})
	if !errors.Is(err, keymap.ErrInvalidEntry) {
		t.Errorf("Expected ErrInvalidEntry, got %v", err)
	}
	if n := len(requests()); n != 0 {
		t.Errorf("Expected no requests, got %d", n)
	}
}

func TestClient_UploadAll(t *testing.T) {
	server, requests := recordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true}`)
	})
	c := newTestClient(t, server.URL, Options{})

	raw := "// backup\n" + tableBody(func(i int) string { return `{ "base": 1 }` })
	if err := c.UploadAll(context.Background(), []byte(raw)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	reqs := requests()
	if len(reqs) != 1 || reqs[0].Path != PathUpload {
		t.Fatalf("Expected one POST %s, got %+v", PathUpload, reqs)
	}

	var sent []json.RawMessage
	if err := json.Unmarshal([]byte(reqs[0].Body), &sent); err != nil {
		t.Fatalf("Expected uploaded body to be plain JSON, got %v", err)
	}
	if len(sent) != keymap.TableSize {
		t.Errorf("Expected %d entries uploaded, got %d", keymap.TableSize, len(sent))
	}
}

func TestClient_UploadAllRejectsWrongShape(t *testing.T) {
	server, requests := recordingServer(t, func(w http.ResponseWriter, r *http.Request) {})
	c := newTestClient(t, server.URL, Options{})

	parts := make([]string, 300)
	for i := range parts {
		parts[i] = `{"base":1}`
	}
	raw := "[" + strings.Join(parts, ",") + "]"

	err := c.UploadAll(context.Background(), []byte(raw))
	var shape *keymap.ShapeError
	if !errors.As(err, &shape) {
		t.Fatalf("Expected ShapeError, got %v", err)
	}
	if shape.Got != 300 {
		t.Errorf("Expected Got=300, got %d", shape.Got)
	}
	if n := len(requests()); n != 0 {
		t.Errorf("Expected no requests for a malformed upload, got %d", n)
	}
}

func TestClient_Download(t *testing.T) {
	payload := tableBody(func(i int) string { return `{"base":2}` })
	server, _ := recordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != PathDownload {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Disposition", `attachment; filename="map_ex.json"`)
		fmt.Fprint(w, payload)
	})
	c := newTestClient(t, server.URL, Options{})

	if got := c.DownloadURL(); got != server.URL+PathDownload {
		t.Errorf("Expected download URL %s, got %s", server.URL+PathDownload, got)
	}

	var buf bytes.Buffer
	n, err := c.Download(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if n != int64(len(payload)) || buf.String() != payload {
		t.Errorf("Expected payload to be streamed verbatim, got %d bytes", n)
	}
}

func TestClient_DownloadNoFile(t *testing.T) {
	server, _ := recordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no file", http.StatusNotFound)
	})
	c := newTestClient(t, server.URL, Options{})

	var buf bytes.Buffer
	_, err := c.Download(context.Background(), &buf)
	var terr *TransportError
	if !errors.As(err, &terr) || terr.Status != http.StatusNotFound {
		t.Fatalf("Expected 404 TransportError, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected nothing written on failure, got %q", buf.String())
	}
}

func TestClient_ResetAndPing(t *testing.T) {
	server, requests := recordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PathReset:
			fmt.Fprint(w, `{"ok":true}`)
		case PathPing:
			fmt.Fprint(w, `{"pong":1}`)
		default:
			http.NotFound(w, r)
		}
	})
	c := newTestClient(t, server.URL, Options{})

	if err := c.Reset(context.Background()); err != nil {
		t.Fatalf("Unexpected reset error: %v", err)
	}
	if _, err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Unexpected ping error: %v", err)
	}

	reqs := requests()
	if len(reqs) != 2 {
		t.Fatalf("Expected 2 requests, got %d", len(reqs))
	}
	if reqs[0].Method != http.MethodPost || reqs[0].Path != PathReset || reqs[0].Body != "" {
		t.Errorf("Expected bodiless POST %s, got %+v", PathReset, reqs[0])
	}
	if reqs[1].Method != http.MethodGet || reqs[1].Path != PathPing {
		t.Errorf("Expected GET %s, got %+v", PathPing, reqs[1])
	}
}

func TestClient_ContextCancelled(t *testing.T) {
	server, _ := recordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "[]")
	})
	c := newTestClient(t, server.URL, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Load(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled to be wrapped, got %v", err)
	}
}

func TestTransportError_Message(t *testing.T) {
	withStatus := &TransportError{Op: OpSave, Status: 500}
	if got := withStatus.Error(); got != "save failed: HTTP 500 Internal Server Error" {
		t.Errorf("Unexpected message: %q", got)
	}

	inner := errors.New("connection refused")
	network := &TransportError{Op: OpLoad, Err: inner}
	if got := network.Error(); got != "load failed: connection refused" {
		t.Errorf("Unexpected message: %q", got)
	}
	if !errors.Is(network, inner) {
		t.Error("Expected TransportError to unwrap to its cause")
	}
}
