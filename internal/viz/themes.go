package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the color scheme of the live view. Wall and Peg color the world
// boundary and fixed particles; moving particles keep their own color.
type Theme struct {
	Name      string
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Wall      lipgloss.Color
	Peg       lipgloss.Color
}

func newTheme(name string, colors ...string) Theme {
	c := make([]lipgloss.Color, len(colors))
	for i, s := range colors {
		c[i] = lipgloss.Color(s)
	}
	return Theme{
		Name: name, Primary: c[0], Secondary: c[1], Accent: c[2],
		Text: c[3], Muted: c[4], Wall: c[5], Peg: c[6],
	}
}

// Columns: primary, secondary, accent, text, muted, wall, peg.
var (
	ThemeCyberpunk = newTheme("cyberpunk", "#ff00ff", "#00ffff", "#ffff00", "#ffffff", "#666666", "#444466", "#aaaaaa")
	ThemeRetro     = newTheme("retro", "#00ff00", "#00cc00", "#88ff88", "#00ff00", "#005500", "#005500", "#88ff88")
	ThemeMinimal   = newTheme("minimal", "#ffffff", "#cccccc", "#0088ff", "#ffffff", "#888888", "#444444", "#cccccc")
	ThemeOcean     = newTheme("ocean", "#0077be", "#00a8cc", "#ffd700", "#e0f0ff", "#4488aa", "#225577", "#e0f0ff")
	ThemeSunset    = newTheme("sunset", "#ff6b6b", "#feca57", "#ff9ff3", "#fff5f5", "#8b6b8c", "#5a3b5c", "#feca57")

	CurrentTheme = ThemeCyberpunk

	Themes = []Theme{ThemeCyberpunk, ThemeRetro, ThemeMinimal, ThemeOcean, ThemeSunset}
)

// GetTheme returns the named theme, or the default one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeCyberpunk
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

// NextTheme switches to the theme after the current one and returns it.
func NextTheme() Theme {
	for i, t := range Themes {
		if t.Name == CurrentTheme.Name {
			CurrentTheme = Themes[(i+1)%len(Themes)]
			return CurrentTheme
		}
	}
	CurrentTheme = ThemeCyberpunk
	return CurrentTheme
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
