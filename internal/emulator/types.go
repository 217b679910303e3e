package emulator

import "time"

// Output protocols the emulator reports in scancode events
const (
	ProtoXT  = "XT"
	ProtoAT  = "AT"
	ProtoPS2 = "PS2"
)

// maxLogs bounds the in-memory request log
const maxLogs = 1000

// Config represents the emulator configuration
type Config struct {
	Host      string `json:"host" yaml:"host"`           // Listen host (default: localhost)
	Port      int    `json:"port" yaml:"port"`           // Listen port (default: 8080)
	StatePath string `json:"statePath" yaml:"statePath"` // Persisted table file, empty keeps it in memory
	Proto     string `json:"proto" yaml:"proto"`         // XT, AT or PS2 (default: XT)
	Logging   bool   `json:"logging" yaml:"logging"`     // Keep a request log
}

// RequestLog represents a logged request
type RequestLog struct {
	Timestamp time.Time     `json:"timestamp" yaml:"timestamp"`
	Method    string        `json:"method" yaml:"method"`
	Path      string        `json:"path" yaml:"path"`
	Body      string        `json:"body" yaml:"body"`
	Status    int           `json:"status" yaml:"status"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}
