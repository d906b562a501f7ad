package tmux

// Theme defines a color theme for tmux status bars. Spawned sessions get a
// per-tool theme so an attached user can tell which backend they are
// looking at without reading the pane.
type Theme struct {
	Name string // Human-readable name
	BG   string // Background color (hex or tmux color name)
	FG   string // Foreground color (hex or tmux color name)
}

// Style returns a human-readable representation of the theme colors.
func (t Theme) Style() string {
	return "bg:" + t.BG + " fg:" + t.FG
}

// themes keyed by backend tool name.
var toolThemes = map[string]Theme{
	"claude": {Name: "claude", BG: "#8b4513", FG: "#f5f5dc"},
	"codex":  {Name: "codex", BG: "#1e3a5f", FG: "#e0e0e0"},
}

// archangelTheme marks recurring background sessions; they share one look
// regardless of tool so watchers stand out from partner sessions.
var archangelTheme = Theme{Name: "archangel", BG: "#4a3050", FG: "#e0e0e0"}

// ThemeForTool returns the status bar theme for a backend tool.
func ThemeForTool(tool string) Theme {
	if th, ok := toolThemes[tool]; ok {
		return th
	}
	return Theme{Name: "default", BG: "#4a5568", FG: "#e0e0e0"}
}

// ArchangelTheme returns the theme for named recurring background sessions.
func ArchangelTheme() Theme {
	return archangelTheme
}
