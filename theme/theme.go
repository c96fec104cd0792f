package theme

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// Theme maps color roles onto a gradient. Roles are normalized
// positions 0-1; Lookup interpolates between the stops in Luv space so
// neighbouring roles stay perceptually even.
type Theme struct {
	stops   []colorful.Color
	Symbols Symbols
}

type Symbols struct {
	LoopEmpty     rune // · nothing recorded
	LoopRecording rune // ● take in progress
	LoopPlaying   rune // ▶ replaying
	LoopPaused    rune // ○ recorded, silent

	KeyUp   rune // □ pad key at rest
	KeyDown rune // ■ pad key held
}

// Color roles as gradient positions.
const (
	RoleMuted   = 0.2
	RoleFG      = 0.4
	RoleAccent  = 0.5
	RoleActive  = 0.7
	RoleWarning = 0.8
)

// Default is a plasma-like gradient: deep purple through magenta into
// yellow.
func Default() *Theme {
	hexes := []string{"#0d0887", "#6a00a8", "#b12a90", "#e16462", "#fca636", "#f0f921"}
	stops := make([]colorful.Color, 0, len(hexes))
	for _, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			continue
		}
		stops = append(stops, c)
	}
	return &Theme{
		stops: stops,
		Symbols: Symbols{
			LoopEmpty:     '·',
			LoopRecording: '●',
			LoopPlaying:   '▶',
			LoopPaused:    '○',
			KeyUp:         '□',
			KeyDown:       '■',
		},
	}
}

// Lookup returns the gradient color at a normalized position 0-1.
func (t *Theme) Lookup(norm float64) lipgloss.Color {
	if norm <= 0 {
		return lipgloss.Color(t.stops[0].Hex())
	}
	if norm >= 1 {
		return lipgloss.Color(t.stops[len(t.stops)-1].Hex())
	}
	pos := norm * float64(len(t.stops)-1)
	i := int(pos)
	frac := pos - float64(i)
	return lipgloss.Color(t.stops[i].BlendLuv(t.stops[i+1], frac).Clamped().Hex())
}

func (t *Theme) FG() lipgloss.Color      { return t.Lookup(RoleFG) }
func (t *Theme) Accent() lipgloss.Color  { return t.Lookup(RoleAccent) }
func (t *Theme) Muted() lipgloss.Color   { return t.Lookup(RoleMuted) }
func (t *Theme) Active() lipgloss.Color  { return t.Lookup(RoleActive) }
func (t *Theme) Warning() lipgloss.Color { return t.Lookup(RoleWarning) }
