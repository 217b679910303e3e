/*
Package keybinds provides customizable keyboard binding management for the
keymap editor.

# Contexts

Bindings live in a context: grid (the 16x16 overview), edit (the entry
panel), confirm (the reset prompt), prompt (import path and goto inputs),
history and help. Lookups fall back to the global context, which holds
ctrl+c.

# Configuration File Format

Overrides are read from ~/.kexedit/keybinds.json. Each section maps an
action to a comma separated key list; a configured action loses all of its
default keys in that section:

	{
	  "version": "1.0",
	  "grid": {
	    "move_left": "left,a",
	    "reload": "ctrl+r"
	  },
	  "edit": {
	    "toggle_dead": "ctrl+d"
	  }
	}

`kexedit keybinds --init` writes the full default set as a starting point.

# Sequences

A key made of one repeated character (gg) is a sequence. Its first key is
held as pending until the next key arrives, so a single "g" binding in the
same context can never fire; the validator reports that as a conflict.

# Validation

The validator reports:
  - unknown actions
  - contexts left without a way out (no cancel, no close)
  - sequence prefixes that hide a single-key binding
  - reserved keys rebound (warning)
  - context keys shadowing a global key (warning)

	registry, err := keybinds.LoadOrDefault(config.KeybindsFile)
	if err != nil {
		return err
	}
	if result := keybinds.NewValidator().ValidateRegistry(registry); result.HasErrors() {
		fmt.Println(result.String())
	}
*/
package keybinds
