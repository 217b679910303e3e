package keybinds

import (
	"strings"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      ValidationError
		expected string
	}{
		{
			name:     "conflict error",
			err:      ValidationError{Type: "conflict", Context: ContextGrid, Key: "g", Message: "unreachable"},
			expected: "[conflict] g in context 'grid': unreachable",
		},
		{
			name:     "warning",
			err:      ValidationError{Type: "warning", Context: ContextEdit, Key: "ctrl+c", Message: "reserved"},
			expected: "[warning] ctrl+c in context 'edit': reserved",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestValidationResult_String(t *testing.T) {
	empty := &ValidationResult{}
	if empty.String() != "No issues found" {
		t.Errorf("Expected no issues, got %q", empty.String())
	}

	result := &ValidationResult{
		Errors:   []ValidationError{{Type: "invalid", Context: ContextEdit, Message: "action save has no key"}},
		Warnings: []ValidationError{{Type: "warning", Context: ContextGrid, Key: "q", Message: "shadows"}},
	}
	s := result.String()
	if !strings.Contains(s, "Errors (1)") || !strings.Contains(s, "Warnings (1)") {
		t.Errorf("Unexpected summary %q", s)
	}
}

func TestValidateRegistry_Defaults(t *testing.T) {
	result := NewValidator().ValidateRegistry(NewDefaultRegistry())
	if result.HasErrors() || result.HasWarnings() {
		t.Errorf("Expected defaults to validate cleanly, got:\n%s", result.String())
	}
}

func TestCheckRequired(t *testing.T) {
	r := NewDefaultRegistry()
	r.Unbind(ContextEdit, ActionCancel)

	result := NewValidator().ValidateRegistry(r)
	if !result.HasErrors() {
		t.Fatal("Expected error for edit context without cancel")
	}
	if !strings.Contains(result.Errors[0].Message, "cancel") {
		t.Errorf("Expected message naming cancel, got %q", result.Errors[0].Message)
	}
}

func TestCheckSequences(t *testing.T) {
	r := NewDefaultRegistry()
	r.Register(ContextGrid, "g", ActionReload)

	result := NewValidator().ValidateRegistry(r)
	if !result.HasErrors() {
		t.Fatal("Expected conflict for g hidden behind gg")
	}
	if result.Errors[0].Type != "conflict" || result.Errors[0].Key != "g" {
		t.Errorf("Unexpected error %+v", result.Errors[0])
	}
}

func TestCheckReservedAndShadowing(t *testing.T) {
	r := NewDefaultRegistry()
	r.Register(ContextEdit, "ctrl+c", ActionCancel)

	result := NewValidator().ValidateRegistry(r)
	if result.HasErrors() {
		t.Fatalf("Expected warnings only, got:\n%s", result.String())
	}
	if len(result.Warnings) != 2 {
		t.Errorf("Expected reserved and shadowing warnings, got %d", len(result.Warnings))
	}
}

func TestCheckUnknownActions(t *testing.T) {
	r := NewDefaultRegistry()
	r.Register(ContextGrid, "x", Action("launch_rockets"))

	result := NewValidator().ValidateRegistry(r)
	if !result.HasErrors() || !strings.Contains(result.Errors[0].Message, "launch_rockets") {
		t.Errorf("Expected unknown action error, got:\n%s", result.String())
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{name: "empty", config: &Config{}},
		{name: "rebind", config: &Config{Grid: map[string]string{"reload": "ctrl+r"}}},
		{name: "unknown action", config: &Config{Grid: map[string]string{"fly": "f"}}, wantErr: true},
		{name: "bad key", config: &Config{Edit: map[string]string{"save": "ctrl+"}}, wantErr: true},
		{name: "unbinding cancel", config: &Config{Confirm: map[string]string{"cancel": ""}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewValidator().ValidateConfig(tt.config)
			if result.HasErrors() != tt.wantErr {
				t.Errorf("Expected errors=%v, got:\n%s", tt.wantErr, result.String())
			}
		})
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"q", false},
		{"?", false},
		{"enter", false},
		{"space", false},
		{"shift+tab", false},
		{"ctrl+r", false},
		{"gg", false},
		{"", true},
		{"ctrl+", true},
		{"ctrl+bogus", true},
		{"qwerty", true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}
}
