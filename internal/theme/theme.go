// Package theme provides the color palette for the livepane studio.
package theme

import (
	"fmt"
	"image/color"

	"charm.land/lipgloss/v2"
	tint "github.com/lrstanley/bubbletint/v2"
)

var (
	enabled bool
	dark    = true
)

// Initialize sets up the theme registry with the specified theme name.
// Call this once at application startup.
// If themeName is empty, theming is disabled and the built-in light/dark
// palettes are used.
func Initialize(themeName string, darkMode bool) error {
	dark = darkMode
	if themeName == "" {
		enabled = false
		return nil
	}

	enabled = true
	tint.NewDefaultRegistry()

	if !tint.SetTintID(themeName) {
		tint.SetTintID("default")
		return fmt.Errorf("unknown theme %q, using default", themeName)
	}
	return nil
}

// IsEnabled returns true if a bubbletint theme is active.
func IsEnabled() bool {
	return enabled
}

// IsDark reports whether the built-in dark palette is selected.
func IsDark() bool {
	return dark
}

// SetDark switches between the built-in palettes.
func SetDark(v bool) {
	dark = v
}

// ToggleDark flips the built-in palette and returns the new mode.
func ToggleDark() bool {
	dark = !dark
	return dark
}

// Current returns the currently active theme.
// Returns nil if theming is disabled.
func Current() *tint.Tint {
	if !enabled {
		return nil
	}
	return tint.Current()
}

func pick(light, darkHex string) color.Color {
	return lipgloss.LightDark(dark)(lipgloss.Color(light), lipgloss.Color(darkHex))
}

// Page colors
func Background() color.Color {
	if t := Current(); t != nil {
		return t.Bg
	}
	return pick("#f5f5f5", "#1e1e1e")
}

func Foreground() color.Color {
	if t := Current(); t != nil {
		return t.Fg
	}
	return pick("#1e1e1e", "#e5e5e5")
}

func Muted() color.Color {
	if t := Current(); t != nil {
		return t.BrightBlack
	}
	return pick("#8a8a8a", "#7f7f7f")
}

// Window chrome
func Border(focused bool) color.Color {
	t := Current()
	if focused {
		if t != nil {
			return t.BrightCyan
		}
		return pick("#0078d4", "#5fd7ff")
	}
	if t != nil {
		return t.BrightBlack
	}
	return pick("#c8c8c8", "#444444")
}

func HeaderBg() color.Color {
	if t := Current(); t != nil {
		return t.Black
	}
	return pick("#e0e0e0", "#2d2d2d")
}

func HeaderFg() color.Color {
	if t := Current(); t != nil {
		return t.BrightWhite
	}
	return pick("#333333", "#f0f0f0")
}

// Header buttons, traffic-light order: minimize, detach, restore.
func ButtonMinimize() color.Color {
	if t := Current(); t != nil {
		return t.Yellow
	}
	return lipgloss.Color("#febc2e")
}

func ButtonDetach() color.Color {
	if t := Current(); t != nil {
		return t.Green
	}
	return lipgloss.Color("#28c840")
}

func ButtonRestore() color.Color {
	if t := Current(); t != nil {
		return t.Red
	}
	return lipgloss.Color("#ff5f57")
}

// Editor tabs
func TabActive() color.Color {
	if t := Current(); t != nil {
		return t.BrightBlue
	}
	return pick("#0078d4", "#5c9cff")
}

func TabInactive() color.Color {
	return Muted()
}

// Console line colors
func ConsoleEcho() color.Color {
	if t := Current(); t != nil {
		return t.Cyan
	}
	return pick("#007acc", "#00cdcd")
}

func ConsoleSuccess() color.Color {
	if t := Current(); t != nil {
		return t.BrightGreen
	}
	return pick("#107c10", "#00ff00")
}

func ConsoleError() color.Color {
	if t := Current(); t != nil {
		return t.BrightRed
	}
	return pick("#c50f1f", "#ff6b6b")
}

// CLI table colors
func CLITableHeader() color.Color {
	return lipgloss.Color("12")
}

func CLITableBorder() color.Color {
	return lipgloss.Color("14")
}

func CLITableKey() color.Color {
	return lipgloss.Color("11")
}

func CLITableDim() color.Color {
	return lipgloss.Color("8")
}

// ColorToString converts a color.Color to a hex string.
// Used by the browser page so it matches the terminal palette.
func ColorToString(c color.Color) string {
	if c == nil {
		return "#000000"
	}
	r, g, b, _ := c.RGBA()
	r8, g8, b8 := uint8(r>>8), uint8(g>>8), uint8(b>>8)
	return fmt.Sprintf("#%02x%02x%02x", r8, g8, b8)
}
