package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), FilePermissions); err != nil {
		t.Fatalf("Failed to write settings: %v", err)
	}
	return path
}

func TestInitializeAt(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".kexedit")
	if err := InitializeAt(dir); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if SettingsFile != filepath.Join(dir, "config.yaml") {
		t.Errorf("Unexpected settings path %s", SettingsFile)
	}
	if DatabasePath != filepath.Join(dir, "kexedit.db") {
		t.Errorf("Unexpected database path %s", DatabasePath)
	}

	s, err := LoadSettingsFile(SettingsFile)
	if err != nil {
		t.Fatalf("Expected default settings file to parse, got %v", err)
	}
	d, err := s.Resolve("", "")
	if err != nil {
		t.Fatalf("Unexpected resolve error: %v", err)
	}
	if d.URL != DefaultDeviceURL {
		t.Errorf("Expected default device at %s, got %s", DefaultDeviceURL, d.URL)
	}
	if !s.History || s.Timeout != 0 || s.Monitor {
		t.Errorf("Unexpected defaults %+v", s)
	}
}

func TestLoadSettingsFile(t *testing.T) {
	path := writeSettings(t, `
device: desk
devices:
  - name: desk
    url: http://10.0.0.5
  - name: lab
    url: http://10.0.0.6
timeout: 2s
history: false
log_level: debug
monitor: true
`)

	s, err := LoadSettingsFile(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if s.Device != "desk" || len(s.Devices) != 2 {
		t.Errorf("Unexpected devices %+v", s)
	}
	if s.Timeout != 2*time.Second {
		t.Errorf("Expected 2s timeout, got %s", s.Timeout)
	}
	if s.History || !s.Monitor || s.LogLevel != "debug" {
		t.Errorf("Unexpected flags %+v", s)
	}
}

func TestLoadSettingsFile_Missing(t *testing.T) {
	s, err := LoadSettingsFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !s.History || s.LogLevel != "info" {
		t.Errorf("Expected defaults, got %+v", s)
	}
}

func TestLoadSettingsFile_Invalid(t *testing.T) {
	path := writeSettings(t, "timeout: [not a duration\n")
	if _, err := LoadSettingsFile(path); err == nil {
		t.Error("Expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("KEXEDIT_URL", "http://10.1.1.1")
	t.Setenv("KEXEDIT_TIMEOUT", "750ms")
	t.Setenv("KEXEDIT_HISTORY", "false")

	s := DefaultSettings()
	s.Monitor = true
	if err := s.ApplyEnv(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if s.URL != "http://10.1.1.1" {
		t.Errorf("Expected URL from env, got %q", s.URL)
	}
	if s.Timeout != 750*time.Millisecond {
		t.Errorf("Expected 750ms, got %s", s.Timeout)
	}
	if s.History {
		t.Error("Expected history disabled by env")
	}
	if !s.Monitor {
		t.Error("Expected unset KEXEDIT_MONITOR to keep the file value")
	}
	if s.LogLevel != "info" {
		t.Errorf("Expected unset KEXEDIT_LOG_LEVEL to keep info, got %q", s.LogLevel)
	}
}

func TestApplyEnv_Invalid(t *testing.T) {
	t.Setenv("KEXEDIT_TIMEOUT", "soon")
	s := DefaultSettings()
	if err := s.ApplyEnv(); err == nil {
		t.Error("Expected error for invalid duration")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		s       Settings
		wantErr bool
	}{
		{name: "defaults", s: DefaultSettings()},
		{name: "negative timeout", s: Settings{Timeout: -time.Second, LogLevel: "info"}, wantErr: true},
		{name: "bad level", s: Settings{LogLevel: "loud"}, wantErr: true},
		{name: "unnamed device", s: Settings{LogLevel: "info", Devices: []Device{{URL: "x"}}}, wantErr: true},
		{name: "duplicate device", s: Settings{LogLevel: "info", Devices: []Device{{Name: "a", URL: "x"}, {Name: "a", URL: "y"}}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	s := Settings{
		Device: "desk",
		Devices: []Device{
			{Name: "desk", URL: "http://10.0.0.5"},
			{Name: "lab", URL: "http://10.0.0.6"},
		},
	}

	tests := []struct {
		name       string
		s          Settings
		deviceFlag string
		urlFlag    string
		want       string
		wantErr    string
	}{
		{name: "active device", s: s, want: "http://10.0.0.5"},
		{name: "device flag", s: s, deviceFlag: "lab", want: "http://10.0.0.6"},
		{name: "url flag wins", s: s, deviceFlag: "lab", urlFlag: "http://1.2.3.4", want: "http://1.2.3.4"},
		{name: "unknown device", s: s, deviceFlag: "attic", wantErr: "available: desk, lab"},
		{name: "env url over active device", s: Settings{Device: "desk", Devices: s.Devices, URL: "http://9.9.9.9"}, want: "http://9.9.9.9"},
		{name: "single device without active", s: Settings{Devices: s.Devices[:1]}, want: "http://10.0.0.5"},
		{name: "nothing configured", s: Settings{}, wantErr: "no device configured"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := tt.s.Resolve(tt.deviceFlag, tt.urlFlag)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if d.URL != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, d.URL)
			}
		})
	}
}
