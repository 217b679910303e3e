package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "KEXEDIT"

// Device is a named converter address
type Device struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Settings is the merged configuration
type Settings struct {
	Device   string        `yaml:"device"`
	Devices  []Device      `yaml:"devices"`
	Timeout  time.Duration `yaml:"timeout"`
	History  bool          `yaml:"history"`
	LogLevel string        `yaml:"log_level"`
	Monitor  bool          `yaml:"monitor"`

	// URL comes from the environment only and wins over Device
	URL string `yaml:"-"`
}

// envSettings holds environment overrides; unset variables leave fields alone
type envSettings struct {
	URL      string        `envconfig:"URL"`
	Timeout  time.Duration `envconfig:"TIMEOUT"`
	LogLevel string        `envconfig:"LOG_LEVEL"`
	History  bool          `envconfig:"HISTORY"`
	Monitor  bool          `envconfig:"MONITOR"`
}

// DefaultSettings returns the built-in configuration
func DefaultSettings() Settings {
	return Settings{
		History:  true,
		LogLevel: "info",
	}
}

// LoadSettings reads the settings file (local or global) and applies
// environment overrides. A missing file yields the defaults.
func LoadSettings() (Settings, error) {
	s, err := LoadSettingsFile(GetSettingsFilePath())
	if err != nil {
		return Settings{}, err
	}

	_ = godotenv.Load()
	if err := s.ApplyEnv(); err != nil {
		return Settings{}, err
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// LoadSettingsFile reads one YAML settings file over the defaults
func LoadSettingsFile(path string) (Settings, error) {
	s := DefaultSettings()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return Settings{}, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	return s, nil
}

// ApplyEnv overlays KEXEDIT_* environment variables
func (s *Settings) ApplyEnv() error {
	env := envSettings{
		URL:      s.URL,
		Timeout:  s.Timeout,
		LogLevel: s.LogLevel,
		History:  s.History,
		Monitor:  s.Monitor,
	}
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}
	s.URL = env.URL
	s.Timeout = env.Timeout
	s.LogLevel = env.LogLevel
	s.History = env.History
	s.Monitor = env.Monitor
	return nil
}

// Validate checks values that cannot be caught by decoding
func (s Settings) Validate() error {
	if s.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", s.Timeout)
	}
	if _, err := zerolog.ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", s.LogLevel, err)
	}
	seen := make(map[string]bool)
	for _, d := range s.Devices {
		if d.Name == "" {
			return fmt.Errorf("device entry with url %q has no name", d.URL)
		}
		if seen[d.Name] {
			return fmt.Errorf("device %q is defined more than once", d.Name)
		}
		seen[d.Name] = true
	}
	return nil
}

// FindDevice looks up a configured device by name
func (s Settings) FindDevice(name string) (Device, bool) {
	for _, d := range s.Devices {
		if d.Name == name {
			return d, true
		}
	}
	return Device{}, false
}

// DeviceNames lists the configured device names
func (s Settings) DeviceNames() []string {
	names := make([]string, len(s.Devices))
	for i, d := range s.Devices {
		names[i] = d.Name
	}
	return names
}

// Resolve picks the target device. An explicit URL wins, then an explicit
// device name, then KEXEDIT_URL, then the settings' active device.
func (s Settings) Resolve(deviceFlag, urlFlag string) (Device, error) {
	switch {
	case urlFlag != "":
		name := deviceFlag
		if name == "" {
			name = "adhoc"
		}
		return Device{Name: name, URL: urlFlag}, nil
	case deviceFlag != "":
		return s.lookup(deviceFlag)
	case s.URL != "":
		return Device{Name: "env", URL: s.URL}, nil
	case s.Device != "":
		return s.lookup(s.Device)
	case len(s.Devices) == 1:
		return s.Devices[0], nil
	}
	return Device{}, fmt.Errorf("no device configured: set device in %s, %s_URL, or pass --url", GetSettingsFilePath(), EnvPrefix)
}

func (s Settings) lookup(name string) (Device, error) {
	d, ok := s.FindDevice(name)
	if !ok {
		available := "none"
		if len(s.Devices) > 0 {
			available = strings.Join(s.DeviceNames(), ", ")
		}
		return Device{}, fmt.Errorf("unknown device %q (available: %s)", name, available)
	}
	if strings.TrimSpace(d.URL) == "" {
		return Device{}, fmt.Errorf("device %q has no url", name)
	}
	return d, nil
}
