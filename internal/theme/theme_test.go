package theme

import "testing"

func TestBuiltinPalettes(t *testing.T) {
	if err := Initialize("", true); err != nil {
		t.Fatal(err)
	}
	if IsEnabled() {
		t.Fatal("empty theme name should disable theming")
	}

	darkBg := ColorToString(Background())
	SetDark(false)
	lightBg := ColorToString(Background())
	if darkBg == lightBg {
		t.Errorf("light and dark backgrounds are both %s", darkBg)
	}
	if !ToggleDark() || !IsDark() {
		t.Error("ToggleDark from light should select dark")
	}
}

func TestColorToString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"red", "#ff0000", "#ff0000"},
		{"mixed", "#1e1e1e", "#1e1e1e"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetDark(true)
			if got := ColorToString(pick(tt.in, tt.in)); got != tt.want {
				t.Errorf("ColorToString = %s, want %s", got, tt.want)
			}
		})
	}
	if got := ColorToString(nil); got != "#000000" {
		t.Errorf("nil color = %s", got)
	}
}
