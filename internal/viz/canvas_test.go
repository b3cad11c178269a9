package viz

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCanvas_SetUnset(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)

	if got := c.Grid[0][0]; got != brailleBase|0x1 {
		t.Errorf("cell 0 = %U, want %U", got, brailleBase|0x1)
	}
	if got := c.Grid[0][1]; got != brailleBase|0x80 {
		t.Errorf("cell 1 = %U, want %U", got, brailleBase|0x80)
	}

	c.Unset(0, 0)
	if got := c.Grid[0][0]; got != brailleBase {
		t.Errorf("after Unset cell 0 = %U", got)
	}

	// Out of range writes are dropped.
	c.Set(-1, 0)
	c.Set(4, 0)
	c.Set(0, 4)
}

func TestCanvas_DrawLine(t *testing.T) {
	c := NewCanvas(4, 1)
	c.DrawLine(0, 0, 7, 0)
	for col, r := range c.Grid[0] {
		if r != brailleBase|0x1|0x8 {
			t.Errorf("col %d = %U, want full top row", col, r)
		}
	}
}

func TestCanvas_DrawCircle(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawCircle(10, 10, 6, "#ff0000")

	lit := func(x, y int) bool {
		return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
	}
	for _, p := range [][2]int{{16, 10}, {4, 10}, {10, 16}, {10, 4}} {
		if !lit(p[0], p[1]) {
			t.Errorf("circle misses %v", p)
		}
	}
	if lit(10, 10) {
		t.Error("circle outline fills its centre")
	}
	if c.Colors[10/4][16/2] != "#ff0000" {
		t.Errorf("color = %q", c.Colors[10/4][16/2])
	}

	c.Clear()
	c.DrawCircle(3, 3, 0, "#00ff00")
	if !lit(3, 3) {
		t.Error("zero radius circle not plotted")
	}
}

func TestCanvas_String(t *testing.T) {
	c := NewCanvas(3, 2)
	lines := strings.Split(strings.TrimRight(c.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	for _, l := range lines {
		if n := len([]rune(l)); n != 3 {
			t.Errorf("line has %d runes, want 3", n)
		}
	}
}

func TestRecorder(t *testing.T) {
	c := NewCanvas(4, 2)
	c.DrawCircle(4, 4, 2, "#ff4040")

	r := NewRecorder()
	r.Capture(c)
	r.Capture(c)
	if r.Frames() != 2 {
		t.Fatalf("Frames() = %d, want 2", r.Frames())
	}

	path := filepath.Join(t.TempDir(), "out.gif")
	if err := r.Save(path); err != nil {
		t.Fatal(err)
	}
	if r.Frames() != 0 {
		t.Error("Save did not clear frames")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("empty gif")
	}
}

func TestNextTheme(t *testing.T) {
	defer func() { CurrentTheme = ThemeCyberpunk }()

	CurrentTheme = ThemeCyberpunk
	seen := map[string]bool{}
	for range Themes {
		seen[NextTheme().Name] = true
	}
	if len(seen) != len(Themes) {
		t.Errorf("cycled through %d themes, want %d", len(seen), len(Themes))
	}
	if CurrentTheme.Name != ThemeCyberpunk.Name {
		t.Errorf("full cycle ended on %s", CurrentTheme.Name)
	}
}

func TestGradientText(t *testing.T) {
	if GradientText("", "#000000", "#ffffff") != "" {
		t.Error("empty text not empty")
	}
	if !strings.Contains(stripANSI(GradientText("ab", "#000000", "bad")), "ab") {
		t.Error("gradient lost its text")
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	esc := false
	for _, r := range s {
		switch {
		case r == 0x1b:
			esc = true
		case esc && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'):
			esc = false
		case !esc:
			b.WriteRune(r)
		}
	}
	return b.String()
}
