package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines the explorer colors.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	// regime colors
	Accelerating lipgloss.Color
	SpaceCharge  lipgloss.Color
	Retarding    lipgloss.Color
}

var (
	ThemeThermal = Theme{
		Name:         "thermal",
		Primary:      lipgloss.Color("#ff8c42"),
		Accent:       lipgloss.Color("#ffd166"),
		Text:         lipgloss.Color("#fff5eb"),
		Muted:        lipgloss.Color("#8b6b5c"),
		Accelerating: lipgloss.Color("#06d6a0"),
		SpaceCharge:  lipgloss.Color("#ffd166"),
		Retarding:    lipgloss.Color("#ef476f"),
	}

	ThemeVacuum = Theme{
		Name:         "vacuum",
		Primary:      lipgloss.Color("#00cccc"),
		Accent:       lipgloss.Color("#ff88ff"),
		Text:         lipgloss.Color("#ffffff"),
		Muted:        lipgloss.Color("#666688"),
		Accelerating: lipgloss.Color("#00ff88"),
		SpaceCharge:  lipgloss.Color("#ffcc00"),
		Retarding:    lipgloss.Color("#ff4444"),
	}

	ThemeMinimal = Theme{
		Name:         "minimal",
		Primary:      lipgloss.Color("#ffffff"),
		Accent:       lipgloss.Color("#0088ff"),
		Text:         lipgloss.Color("#ffffff"),
		Muted:        lipgloss.Color("#888888"),
		Accelerating: lipgloss.Color("#cccccc"),
		SpaceCharge:  lipgloss.Color("#aaaaaa"),
		Retarding:    lipgloss.Color("#888888"),
	}

	CurrentTheme = ThemeVacuum

	Themes = []Theme{ThemeVacuum, ThemeThermal, ThemeMinimal}
)

// GetTheme returns a theme by name, falling back to the default.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeVacuum
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// NextTheme switches to the theme after the current one.
func NextTheme() {
	names := ThemeNames()
	for i, name := range names {
		if name == CurrentTheme.Name {
			SetTheme(names[(i+1)%len(names)])
			return
		}
	}
}
