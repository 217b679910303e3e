package keybinds

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Config represents the user's keybinding configuration. Each section maps
// an action name to a comma separated key list, e.g. "move_up": "up,k".
type Config struct {
	Version string            `json:"version"`
	Global  map[string]string `json:"global,omitempty"`
	Grid    map[string]string `json:"grid,omitempty"`
	Edit    map[string]string `json:"edit,omitempty"`
	Confirm map[string]string `json:"confirm,omitempty"`
	Prompt  map[string]string `json:"prompt,omitempty"`
	History map[string]string `json:"history,omitempty"`
	Help    map[string]string `json:"help,omitempty"`
}

func (c *Config) sections() map[Context]map[string]string {
	return map[Context]map[string]string{
		ContextGlobal:  c.Global,
		ContextGrid:    c.Grid,
		ContextEdit:    c.Edit,
		ContextConfirm: c.Confirm,
		ContextPrompt:  c.Prompt,
		ContextHistory: c.History,
		ContextHelp:    c.Help,
	}
}

func (c *Config) section(context Context) map[string]string {
	ptrs := map[Context]*map[string]string{
		ContextGlobal:  &c.Global,
		ContextGrid:    &c.Grid,
		ContextEdit:    &c.Edit,
		ContextConfirm: &c.Confirm,
		ContextPrompt:  &c.Prompt,
		ContextHistory: &c.History,
		ContextHelp:    &c.Help,
	}
	p := ptrs[context]
	if *p == nil {
		*p = make(map[string]string)
	}
	return *p
}

// LoadConfig loads keybinding configuration from a JSON file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("invalid keybinds.json format: %w", err)
	}

	return &config, nil
}

// SaveConfig saves keybinding configuration to a JSON file
func SaveConfig(config *Config, path string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, append(data, '\n'), 0644)
}

// splitKeys turns "up, k" into ["up", "k"]
func splitKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// ApplyConfig applies user configuration to a registry. A configured action
// replaces all of its default keys in that context.
func ApplyConfig(registry *Registry, config *Config) error {
	sections := config.sections()
	for _, context := range Contexts {
		bindings := sections[context]

		actions := make([]string, 0, len(bindings))
		for name := range bindings {
			actions = append(actions, name)
		}
		sort.Strings(actions)

		for _, name := range actions {
			action := Action(name)
			if !KnownAction(action) {
				return fmt.Errorf("unknown action %q in %s", name, context)
			}
			keys := splitKeys(bindings[name])
			for _, key := range keys {
				if err := ValidateKey(key); err != nil {
					return fmt.Errorf("%s.%s: %w", context, name, err)
				}
			}
			registry.Unbind(context, action)
			registry.RegisterMultiple(context, keys, action)
		}
	}
	return nil
}

// LoadOrDefault loads user config if it exists, otherwise returns default registry
func LoadOrDefault(configPath string) (*Registry, error) {
	registry := NewDefaultRegistry()

	if _, err := os.Stat(configPath); err == nil {
		config, err := LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load keybinds.json: %w", err)
		}

		if err := ApplyConfig(registry, config); err != nil {
			return nil, fmt.Errorf("failed to apply keybinds config: %w", err)
		}
	}

	return registry, nil
}

// ExportDefaults returns the default bindings in config form
func ExportDefaults() *Config {
	return ExportRegistry(NewDefaultRegistry())
}

// ExportRegistry renders every binding of registry in config form
func ExportRegistry(registry *Registry) *Config {
	config := &Config{Version: "1.0"}
	for _, context := range Contexts {
		grouped := make(map[Action][]string)
		for _, b := range registry.ListBindings(context) {
			grouped[b.Action] = append(grouped[b.Action], b.Key)
		}
		if len(grouped) == 0 {
			continue
		}
		section := config.section(context)
		for action, keys := range grouped {
			section[string(action)] = strings.Join(keys, ",")
		}
	}
	return config
}

// CreateExampleConfig writes the defaults to path so users can edit them
func CreateExampleConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	return SaveConfig(ExportDefaults(), path)
}
