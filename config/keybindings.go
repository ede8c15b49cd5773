package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// KeyBindingsConfig holds modifier customization and optional per-action overrides
type KeyBindingsConfig struct {
	Modifiers ModifierConfig    `toml:"modifiers"`
	Actions   map[string]string `toml:"actions"` // Optional overrides for specific actions
}

type ModifierConfig struct {
	Primary   string `toml:"primary"`   // e.g., "alt", "ctrl", "meta", "super"
	Secondary string `toml:"secondary"` // e.g., "alt+shift", "ctrl+shift"
}

// actionDef defines the default modifier and key for an action
type actionDef struct {
	modifier string // "primary", "secondary", or "none"
	key      string // "j", "k", "enter", etc.
}

// actionRegistry maps action names to their default keybindings
// Users can override any of these in the [actions] section of keybindings.toml
var actionRegistry = map[string]actionDef{
	// Main view - Modal toggles
	"help":             {"primary", "h"},
	"attach_file":      {"primary", "o"},
	"recent_documents": {"primary", "d"},
	"conversations":    {"primary", "s"},
	"export":           {"primary", "e"},

	// Main view - Scrolling
	"scroll_down":      {"primary", "j"},
	"scroll_up":        {"primary", "k"},
	"half_page_down":   {"secondary", "j"},
	"half_page_up":     {"secondary", "k"},
	"page_down":        {"primary", "pgdown"},
	"page_up":          {"primary", "pgup"},
	"scroll_to_top":    {"primary", "g"},
	"scroll_to_bottom": {"secondary", "g"},

	// Main view - Actions
	"quit":              {"primary", "q"},
	"new_conversation":  {"primary", "n"},
	"remove_file":       {"primary", "x"},
	"yank_last_answer":  {"primary", "y"},
	"yank_conversation": {"primary", "c"},
	"toggle_reveal":     {"primary", "a"},

	// List modals (documents, conversations, attached files)
	"list_down":     {"none", "down"},
	"list_up":       {"none", "up"},
	"list_down_alt": {"primary", "j"},
	"list_up_alt":   {"primary", "k"},
	"list_delete":   {"primary", "x"},
	"list_rename":   {"primary", "r"},

	// Universal clear input action (works in all text input contexts)
	"clear_input": {"primary", "u"},
}

// Actions returns the names of every bindable action, sorted
func Actions() []string {
	names := make([]string, 0, len(actionRegistry))
	for name := range actionRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func DefaultKeybindings() *KeyBindingsConfig {
	return &KeyBindingsConfig{
		Modifiers: ModifierConfig{
			Primary:   "alt",
			Secondary: "alt+shift",
		},
	}
}

func keybindingsPath(dataDir string) string {
	return filepath.Join(dataDir, "keybindings.toml")
}

// LoadKeybindings reads <data>/keybindings.toml, writing the commented
// template on first run. Unknown actions and unusable modifiers are errors.
func LoadKeybindings(dataDir string) (*KeyBindingsConfig, error) {
	kb := DefaultKeybindings()
	path := keybindingsPath(dataDir)

	if !FileExists(path) {
		if err := CreateDefaultKeybindings(dataDir); err != nil {
			return nil, fmt.Errorf("failed to create keybindings: %w", err)
		}
		return kb, nil
	}

	if _, err := toml.DecodeFile(path, kb); err != nil {
		return nil, fmt.Errorf("failed to parse keybindings: %w", err)
	}
	if err := kb.validate(); err != nil {
		return nil, fmt.Errorf("invalid keybindings in %s: %w", path, err)
	}

	if DebugLog != nil && len(kb.Actions) > 0 {
		DebugLog.Printf("[config] keybindings: %d action overrides, modifiers %s / %s",
			len(kb.Actions), kb.Primary(), kb.Secondary())
	}
	return kb, nil
}

func (kb *KeyBindingsConfig) validate() error {
	for _, mod := range []string{kb.Primary(), kb.Secondary()} {
		if strings.EqualFold(mod, "shift") {
			return fmt.Errorf("modifier %q alone conflicts with typing", mod)
		}
	}
	for action := range kb.Actions {
		if _, ok := actionRegistry[action]; !ok {
			return fmt.Errorf("unknown action %q", action)
		}
	}
	return nil
}

func CreateDefaultKeybindings(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(keybindingsPath(dataDir), []byte(GenerateKeybindingsTemplate()), 0600); err != nil {
		return fmt.Errorf("failed to write keybindings: %w", err)
	}
	return nil
}

// GenerateKeybindingsTemplate returns the default TOML template
func GenerateKeybindingsTemplate() string {
	return `# docchat Keybindings Configuration
# Location: <data_directory>/keybindings.toml
# This file uses TOML format: https://toml.io

# ==============================================================================
# MODIFIER KEYS
# ==============================================================================
# Change these to avoid conflicts with your window manager/terminal multiplexor

[modifiers]
primary = "alt"          # Default: alt (Options: alt, ctrl, meta, super)
secondary = "alt+shift"  # Default: alt+shift

# For tmux users (Alt may conflict):
#   primary = "ctrl"
#   secondary = "ctrl+shift"

# ==============================================================================
# PER-ACTION OVERRIDES
# ==============================================================================
# Uncomment and customize any actions you want to change. Available actions:
#   help, attach_file, recent_documents, conversations, export,
#   new_conversation, remove_file, yank_last_answer, yank_conversation,
#   toggle_reveal, quit, scroll_down, scroll_up, half_page_down, half_page_up,
#   page_down, page_up, scroll_to_top, scroll_to_bottom, clear_input,
#   list_down, list_up, list_down_alt, list_up_alt, list_delete, list_rename

[actions]
#   attach_file = "ctrl+o"
#   quit = "ctrl+shift+q"
`
}

func (kb *KeyBindingsConfig) Primary() string {
	if kb.Modifiers.Primary == "" {
		return "alt"
	}
	return kb.Modifiers.Primary
}

func (kb *KeyBindingsConfig) Secondary() string {
	if kb.Modifiers.Secondary == "" {
		return "alt+shift"
	}
	return kb.Modifiers.Secondary
}

// GetActionKey returns the key string bubbletea reports for action, e.g.
// "alt+j". A secondary modifier with shift on a letter yields the uppercase
// letter ("alt+J"), which is what terminals send. Unknown actions give "".
func (kb *KeyBindingsConfig) GetActionKey(action string) string {
	if override := kb.Actions[action]; override != "" {
		return override
	}

	def, ok := actionRegistry[action]
	if !ok {
		return ""
	}

	switch def.modifier {
	case "primary":
		return kb.Primary() + "+" + def.key
	case "secondary":
		return withModifier(kb.Secondary(), def.key)
	default:
		return def.key
	}
}

func withModifier(modifier, key string) string {
	if len(key) != 1 || key[0] < 'a' || key[0] > 'z' {
		return modifier + "+" + key
	}

	var mods []string
	shifted := false
	for _, part := range strings.Split(modifier, "+") {
		if strings.EqualFold(part, "shift") {
			shifted = true
			continue
		}
		mods = append(mods, part)
	}
	if !shifted {
		return modifier + "+" + key
	}
	return strings.Join(append(mods, strings.ToUpper(key)), "+")
}

// DisplayActionKey formats an action's key for help text: "alt+J" becomes
// "Alt+Shift+J"
func (kb *KeyBindingsConfig) DisplayActionKey(action string) string {
	parts := strings.Split(kb.GetActionKey(action), "+")

	var out []string
	for i, part := range parts {
		if part == "" {
			continue
		}
		if len(part) == 1 && part[0] >= 'A' && part[0] <= 'Z' && i > 0 && !containsFold(parts, "shift") {
			out = append(out, "Shift")
		}
		out = append(out, strings.ToUpper(part[:1])+part[1:])
	}
	return strings.Join(out, "+")
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
