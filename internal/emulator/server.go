package emulator

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/studiowebux/kexedit/internal/device"
	"github.com/studiowebux/kexedit/internal/keymap"
)

// Server emulates a converter's keymap endpoints
type Server struct {
	config     *Config
	state      *State
	hub        *Hub
	router     *mux.Router
	httpServer *http.Server
	listener   net.Listener
	logs       []RequestLog
	logsMutex  sync.RWMutex
	notifyCh   chan struct{} // Channel to notify when new log arrives
}

// NewServer creates an emulator serving state
func NewServer(config *Config, state *State) *Server {
	if config.Port == 0 {
		config.Port = 8080
	}
	if config.Host == "" {
		config.Host = "localhost"
	}
	if config.Proto == "" {
		config.Proto = ProtoXT
	}

	s := &Server{
		config:   config,
		state:    state,
		hub:      NewHub(),
		logs:     make([]RequestLog, 0),
		notifyCh: make(chan struct{}, 100),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc(device.PathMap, s.handleGetMap).Methods(http.MethodGet)
	r.HandleFunc(device.PathSet, s.handleSet).Methods(http.MethodPost)
	r.HandleFunc(device.PathUpload, s.handleUpload).Methods(http.MethodPost)
	r.HandleFunc(device.PathDownload, s.handleDownload).Methods(http.MethodGet)
	r.HandleFunc(device.PathReset, s.handleReset).Methods(http.MethodPost)
	r.HandleFunc(device.PathPing, s.handlePing).Methods(http.MethodGet)
	r.HandleFunc(device.PathMonitor, s.hub.ServeHTTP)
	r.Use(s.logMiddleware)
	return r
}

// Handler returns the emulator's HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the emulator
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("emulator server error")
		}
	}()

	log.Info().Str("addr", s.GetAddress()).Str("proto", s.config.Proto).Msg("emulator listening")
	return nil
}

// Stop stops the emulator
func (s *Server) Stop() error {
	s.hub.Close()
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// GetAddress returns the server address
func (s *Server) GetAddress() string {
	if s.listener != nil {
		return "http://" + s.listener.Addr().String()
	}
	return fmt.Sprintf("http://%s:%d", s.config.Host, s.config.Port)
}

// MonitorClients returns the number of connected scancode subscribers
func (s *Server) MonitorClients() int {
	return s.hub.Clients()
}

// State returns the emulated table state
func (s *Server) State() *State {
	return s.state
}

// Press emulates a key press on usage code usb under the given modifiers and
// broadcasts the resulting make and break scancodes. It returns the output
// code, 0 when the key is unmapped on that layer.
func (s *Server) Press(usb int, shift, altgr, ctrl bool) (byte, error) {
	if !keymap.ValidUSB(usb) {
		return 0, fmt.Errorf("usb %d out of range", usb)
	}
	code := s.state.Table()[usb].Resolve(shift, altgr, ctrl)
	if code == 0 {
		return 0, nil
	}

	s.hub.Broadcast(scancodeMessage(device.EventMake, code, s.config.Proto))
	if s.config.Proto == ProtoAT {
		s.hub.Broadcast(scancodeMessage(device.EventBreak, 0xF0, s.config.Proto))
		s.hub.Broadcast(scancodeMessage(device.EventBreak, code, s.config.Proto))
	} else {
		s.hub.Broadcast(scancodeMessage(device.EventBreak, code|0x80, s.config.Proto))
	}
	return code, nil
}

func scancodeMessage(eventType string, code byte, proto string) []byte {
	return []byte(fmt.Sprintf(`{"type":"%s","code":"%s","proto":"%s"}`, eventType, keymap.FormatHexByte(code), proto))
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	data, err := keymap.EncodeTable(s.state.Table())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, `{"error":"encode failed"}`)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	var wire keymap.WireEntry
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		writeJSON(w, http.StatusBadRequest, `{"error":"bad json"}`)
		return
	}
	if wire.USB == nil || !keymap.ValidUSB(*wire.USB) {
		writeJSON(w, http.StatusBadRequest, `{"error":"usb out of range"}`)
		return
	}
	entry, err := wire.ToEntry(*wire.USB, true)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, `{"error":"value out of range"}`)
		return
	}
	if err := s.state.Set(entry); err != nil {
		log.Error().Err(err).Msg("failed to store entry")
		writeJSON(w, http.StatusInternalServerError, `{"error":"save failed"}`)
		return
	}
	writeJSON(w, http.StatusOK, `{"status":"saved"}`)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var elems []json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&elems); err != nil || len(elems) != keymap.TableSize {
		writeJSON(w, http.StatusBadRequest, `{"error":"invalid array"}`)
		return
	}

	var table keymap.Table
	for i, raw := range elems {
		var wire keymap.WireEntry
		// Non-object elements read as empty entries; the position is authoritative
		if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
			if err := json.Unmarshal(raw, &wire); err != nil {
				writeJSON(w, http.StatusBadRequest, `{"error":"invalid array"}`)
				return
			}
		}
		wire.USB = nil
		entry, err := wire.ToEntry(i, true)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, `{"error":"invalid array"}`)
			return
		}
		table[i] = entry
	}

	if err := s.state.Replace(table); err != nil {
		log.Error().Err(err).Msg("failed to store table")
		writeJSON(w, http.StatusInternalServerError, `{"error":"save failed"}`)
		return
	}
	writeJSON(w, http.StatusOK, `{"status":"saved"}`)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	data, ok := s.state.Saved()
	if !ok {
		writeJSON(w, http.StatusNotFound, `{"error":"no file"}`)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="keymap_ex.json"`)
	_, _ = w.Write(data)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.state.Reset(); err != nil {
		log.Error().Err(err).Msg("failed to reset table")
		writeJSON(w, http.StatusInternalServerError, `{"error":"reset failed"}`)
		return
	}
	writeJSON(w, http.StatusOK, `{"status":"reset"}`)
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, `{"pong":1}`)
}

// statusRecorder captures the status written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the websocket upgrader take over the connection
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body.Close()
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Int("status", rec.status).Msg("emulator request")

		if s.config.Logging {
			s.logRequest(RequestLog{
				Timestamp: start,
				Method:    r.Method,
				Path:      r.URL.Path,
				Body:      string(body),
				Status:    rec.status,
				Duration:  time.Since(start),
			})
		}
	})
}

// logRequest adds a request to the log
func (s *Server) logRequest(entry RequestLog) {
	s.logsMutex.Lock()
	defer s.logsMutex.Unlock()

	s.logs = append(s.logs, entry)

	// Keep only last maxLogs logs
	if len(s.logs) > maxLogs {
		s.logs = s.logs[len(s.logs)-maxLogs:]
	}

	// Notify listeners (non-blocking)
	select {
	case s.notifyCh <- struct{}{}:
	default:
	}
}

// NotifyChannel returns the notification channel
func (s *Server) NotifyChannel() <-chan struct{} {
	return s.notifyCh
}

// GetLogs returns all logged requests
func (s *Server) GetLogs() []RequestLog {
	s.logsMutex.RLock()
	defer s.logsMutex.RUnlock()

	logs := make([]RequestLog, len(s.logs))
	copy(logs, s.logs)
	return logs
}

// ClearLogs clears all logged requests
func (s *Server) ClearLogs() {
	s.logsMutex.Lock()
	defer s.logsMutex.Unlock()

	s.logs = make([]RequestLog, 0)
}
