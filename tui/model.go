package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"palette/control"
	"palette/engine"
	"palette/host"
	"palette/theme"
)

// hidLabels names the codes a pad usually carries; anything else is
// shown as its number.
var hidLabels = map[uint8]string{
	4: "a", 5: "b", 6: "c", 7: "d", 8: "e", 9: "f", 10: "g", 11: "h",
	12: "i", 13: "j", 14: "k", 15: "l", 16: "m", 17: "n", 18: "o", 19: "p",
	20: "q", 21: "r", 22: "s", 23: "t", 24: "u", 25: "v", 26: "w", 27: "x",
	28: "y", 29: "z",
	30: "1", 31: "2", 32: "3", 33: "4", 34: "5", 35: "6", 36: "7", 37: "8",
	38: "9", 39: "0",
	51: ";", 52: "'", 53: "`", 54: ",", 55: ".", 56: "/",
}

func hidLabel(code uint8) string {
	if l, ok := hidLabels[code]; ok {
		return l
	}
	return fmt.Sprintf("%d", code)
}

type Model struct {
	registry *engine.Registry
	plane    *control.Plane
	h        host.Host
	th       *theme.Theme
	onQuit   func()
	quitting bool
}

type UpdateMsg struct{}
type tickMsg time.Time

func NewModel(registry *engine.Registry, plane *control.Plane, h host.Host, th *theme.Theme, onQuit func()) Model {
	return Model{registry: registry, plane: plane, h: h, th: th, onQuit: onQuit}
}

func listenForUpdates(plane *control.Plane) tea.Cmd {
	return func() tea.Msg {
		<-plane.Updates
		return UpdateMsg{}
	}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(listenForUpdates(m.plane), tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key := msg.String(); key == "q" || key == "ctrl+c" {
			m.quitting = true
			if m.onQuit != nil {
				m.onQuit()
			}
			return m, tea.Quit
		}
	case UpdateMsg:
		return m, listenForUpdates(m.plane)
	case tickMsg:
		return m, tick()
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	accentStyle := lipgloss.NewStyle().Foreground(m.th.Accent())
	currentStyle := lipgloss.NewStyle().Foreground(m.th.Active()).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(m.th.Muted())
	litStyle := lipgloss.NewStyle().Foreground(m.th.Warning())

	currentIdx := m.plane.Current()
	inst := m.registry.ByIndex(currentIdx)

	// Headbar: instrument names, current one highlighted.
	var head strings.Builder
	for i, name := range m.registry.Names() {
		head.WriteString("|")
		label := fmt.Sprintf(" %s ", name)
		if i == currentIdx {
			head.WriteString(currentStyle.Render(label))
		} else {
			head.WriteString(dimStyle.Render(label))
		}
	}
	head.WriteString("|")

	// Transport line.
	state, pos := m.h.TransportQuery()
	playState := "STOP"
	if state == host.Rolling {
		playState = "PLAY"
	}
	transport := accentStyle.Render(fmt.Sprintf("palette  %s  %3dbpm  bar:%d beat:%d",
		playState, pos.BeatsPerMinute, pos.Bar, pos.Beat))

	// Pad: the current instrument's mapped keys, held ones lit.
	pressed := m.plane.PressedKeys()
	codes := make([]int, 0, 32)
	for code := range inst.MappedCodes() {
		codes = append(codes, int(code))
	}
	sort.Ints(codes)
	var pad strings.Builder
	for _, c := range codes {
		code := uint8(c)
		if pressed[code] {
			pad.WriteString(litStyle.Render(fmt.Sprintf("%c%s ", m.th.Symbols.KeyDown, hidLabel(code))))
		} else {
			pad.WriteString(dimStyle.Render(fmt.Sprintf("%c%s ", m.th.Symbols.KeyUp, hidLabel(code))))
		}
	}

	// Loop bank.
	var loops strings.Builder
	loops.WriteString(dimStyle.Render("loops "))
	for i, s := range inst.LoopStates() {
		var sym rune
		var style lipgloss.Style
		switch s {
		case engine.LoopRecording:
			sym, style = m.th.Symbols.LoopRecording, litStyle
		case engine.LoopPlaying:
			sym, style = m.th.Symbols.LoopPlaying, accentStyle
		case engine.LoopPaused:
			sym, style = m.th.Symbols.LoopPaused, dimStyle
		default:
			sym, style = m.th.Symbols.LoopEmpty, dimStyle
		}
		loops.WriteString(style.Render(fmt.Sprintf("%d%c ", i+1, sym)))
	}

	help := dimStyle.Render("F1-F12:instrument  1-9:loops  tab:rec bksp:del -:half =:double  space:transport  q:quit")

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(transport)
	out.WriteString("\n\n")
	out.WriteString(head.String())
	out.WriteString("\n\n")
	out.WriteString(pad.String())
	out.WriteString("\n\n")
	out.WriteString(loops.String())
	out.WriteString("\n\n")
	out.WriteString(help)
	return out.String()
}
