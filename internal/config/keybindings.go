package config

import (
	"fmt"
	"slices"
	"strings"
)

// Keybinding represents a single keybinding entry
type Keybinding struct {
	Key         string
	Description string
}

// KeybindingSection represents a section of related keybindings
type KeybindingSection struct {
	Title    string
	Bindings []Keybinding
}

// ActionDescriptions maps every bindable action to its help text.
var ActionDescriptions = map[string]string{
	"minimize_preview": "Minimize/unminimize preview",
	"minimize_editor":  "Minimize/unminimize editor",
	"detach_preview":   "Detach/reattach preview",
	"detach_editor":    "Detach/reattach editor",
	"restore_all":      "Restore both windows",
	"next_tab":         "Next editor tab",
	"prev_tab":         "Previous editor tab",
	"focus_console":    "Focus the console",
	"focus_editor":     "Focus the editor",
	"toggle_source":    "Show document source in the preview",
	"toggle_theme":     "Toggle dark mode",
	"toggle_help":      "Toggle help",
	"quit":             "Quit",
}

// actionOrder is the order actions appear in help and listings.
var actionOrder = []string{
	"minimize_preview",
	"minimize_editor",
	"detach_preview",
	"detach_editor",
	"restore_all",
	"next_tab",
	"prev_tab",
	"focus_console",
	"focus_editor",
	"toggle_source",
	"toggle_theme",
	"toggle_help",
	"quit",
}

// Actions returns every bindable action in display order.
func Actions() []string {
	return slices.Clone(actionOrder)
}

// DefaultKeybindings returns the built-in action -> keys table.
// Plain letters are avoided since the editor consumes typed text.
func DefaultKeybindings() map[string][]string {
	return map[string][]string{
		"minimize_preview": {"ctrl+p"},
		"minimize_editor":  {"ctrl+e"},
		"detach_preview":   {"alt+p"},
		"detach_editor":    {"alt+e"},
		"restore_all":      {"ctrl+r"},
		"next_tab":         {"tab"},
		"prev_tab":         {"shift+tab"},
		"focus_console":    {"ctrl+t"},
		"focus_editor":     {"esc"},
		"toggle_source":    {"ctrl+u"},
		"toggle_theme":     {"ctrl+d"},
		"toggle_help":      {"f1"},
		"quit":             {"ctrl+c", "ctrl+q"},
	}
}

// KeybindRegistry resolves keys to actions and back.
type KeybindRegistry struct {
	actionToKeys map[string][]string
	keyToAction  map[string]string
	normalizer   *KeyNormalizer
}

// NewKeybindRegistry builds a registry from cfg. Later actions in display
// order win when two actions claim the same key.
func NewKeybindRegistry(cfg *Config) *KeybindRegistry {
	r := &KeybindRegistry{
		actionToKeys: make(map[string][]string),
		keyToAction:  make(map[string]string),
		normalizer:   NewKeyNormalizer(),
	}

	bindings := DefaultKeybindings()
	if cfg != nil && cfg.Keybindings != nil {
		bindings = cfg.Keybindings
	}

	for _, action := range actionOrder {
		keys, ok := bindings[action]
		if !ok {
			continue
		}
		for _, key := range keys {
			if valid, _ := r.normalizer.ValidateKey(key); !valid {
				continue
			}
			for _, norm := range r.normalizer.NormalizeKey(key) {
				r.keyToAction[norm] = action
			}
			r.actionToKeys[action] = append(r.actionToKeys[action], key)
		}
	}
	return r
}

// GetKeys returns the keys bound to action.
func (r *KeybindRegistry) GetKeys(action string) []string {
	return r.actionToKeys[action]
}

// GetAction returns the action bound to key, or "".
func (r *KeybindRegistry) GetAction(key string) string {
	for _, norm := range r.normalizer.NormalizeKey(key) {
		if action, ok := r.keyToAction[norm]; ok {
			return action
		}
	}
	return ""
}

// GetKeysForDisplay returns the keys for action joined for help output.
func (r *KeybindRegistry) GetKeysForDisplay(action string) string {
	keys := r.GetKeys(action)
	if len(keys) == 0 {
		return ""
	}
	display := make([]string, len(keys))
	for i, k := range keys {
		display[i] = prettyKey(k)
	}
	return strings.Join(display, ", ")
}

// GetKeybindings returns the help sections. With a nil registry the defaults
// are shown.
func GetKeybindings(registry *KeybindRegistry) []KeybindingSection {
	if registry == nil {
		registry = NewKeybindRegistry(nil)
	}

	windows := KeybindingSection{Title: "WINDOWS"}
	for _, action := range []string{"minimize_preview", "minimize_editor", "detach_preview", "detach_editor", "restore_all"} {
		addBinding(&windows, registry, action)
	}

	editing := KeybindingSection{Title: "EDITING"}
	for _, action := range []string{"next_tab", "prev_tab", "focus_console", "focus_editor"} {
		addBinding(&editing, registry, action)
	}

	general := KeybindingSection{Title: "GENERAL"}
	for _, action := range []string{"toggle_source", "toggle_theme", "toggle_help", "quit"} {
		addBinding(&general, registry, action)
	}

	mouse := KeybindingSection{
		Title: "MOUSE",
		Bindings: []Keybinding{
			{"[-]", "Minimize"},
			{"[^] / [v]", "Detach / reattach"},
			{"[+]", "Restore to grid"},
			{"Drag title", "Move a detached window"},
		},
	}

	var sections []KeybindingSection
	for _, s := range []KeybindingSection{windows, editing, general, mouse} {
		if len(s.Bindings) > 0 {
			sections = append(sections, s)
		}
	}
	return sections
}

// addBinding adds a keybinding to a section if the action has keys configured
func addBinding(section *KeybindingSection, registry *KeybindRegistry, action string) {
	keys := registry.GetKeysForDisplay(action)
	if keys != "" {
		section.Bindings = append(section.Bindings, Keybinding{
			Key:         keys,
			Description: ActionDescriptions[action],
		})
	}
}

func prettyKey(key string) string {
	parts := strings.Split(key, "+")
	for i, p := range parts {
		switch p {
		case "ctrl":
			parts[i] = "Ctrl"
		case "alt":
			parts[i] = "Alt"
		case "shift":
			parts[i] = "Shift"
		case "esc":
			parts[i] = "Esc"
		case "tab":
			parts[i] = "Tab"
		default:
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "+")
}

// KeyNormalizer maps user-written key names onto the names bubbletea reports.
type KeyNormalizer struct {
	aliases map[string]string
}

// NewKeyNormalizer returns a normalizer with the common aliases.
func NewKeyNormalizer() *KeyNormalizer {
	return &KeyNormalizer{
		aliases: map[string]string{
			"return":    "enter",
			"escape":    "esc",
			"control":   "ctrl",
			"option":    "alt",
			"meta":      "alt",
			"space":     "space",
			"backspace": "backspace",
		},
	}
}

// NormalizeKey returns the candidate spellings of key, most specific first.
func (n *KeyNormalizer) NormalizeKey(key string) []string {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return nil
	}
	out := []string{key}

	parts := strings.Split(key, "+")
	changed := false
	for i, p := range parts {
		if alias, ok := n.aliases[p]; ok && alias != p {
			parts[i] = alias
			changed = true
		}
	}
	if changed {
		out = append(out, strings.Join(parts, "+"))
	}
	return out
}

// ValidateKey reports whether key can be bound.
func (n *KeyNormalizer) ValidateKey(key string) (bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return false, fmt.Errorf("empty key")
	}
	for _, p := range strings.Split(key, "+") {
		if p == "" {
			return false, fmt.Errorf("malformed key %q", key)
		}
	}
	return true, nil
}
