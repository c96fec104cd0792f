package control

import (
	"bufio"
	"io"
	"strconv"
	"sync"

	"palette/config"
	"palette/debug"
	"palette/engine"
)

// Global HID codes outside the configurable namespaces.
const (
	keyEsc       = 41
	keySpace     = 44
	keyArrowDown = 81
	keyArrowUp   = 82
)

// Plane dispatches parsed key events to the selected instrument or to
// global transport actions. It runs on its own thread, consuming the
// input channel line by line.
type Plane struct {
	registry *engine.Registry
	clock    *engine.Clock

	pad       map[uint8]bool
	loopPad   map[uint8]int
	headboard map[uint8]int
	modeKeys  map[uint8]engine.LoopMode

	mu      sync.Mutex
	current int
	pressed map[uint8]bool
	quit    bool

	onQuit  func()
	Updates chan struct{}
}

func NewPlane(registry *engine.Registry, clock *engine.Clock, keys config.Keys, onQuit func()) *Plane {
	p := &Plane{
		registry:  registry,
		clock:     clock,
		pad:       make(map[uint8]bool, len(keys.Pad)),
		loopPad:   make(map[uint8]int, len(keys.LoopPad)),
		headboard: make(map[uint8]int, len(keys.Headboard)),
		modeKeys: map[uint8]engine.LoopMode{
			keys.Record: engine.ModeRecord,
			keys.Delete: engine.ModeDelete,
			keys.Half:   engine.ModeHalf,
			keys.Double: engine.ModeDouble,
		},
		pressed: make(map[uint8]bool),
		onQuit:  onQuit,
		Updates: make(chan struct{}, 1),
	}
	for _, code := range keys.Pad {
		p.pad[code] = true
	}
	for i, code := range keys.LoopPad {
		p.loopPad[code] = i
	}
	for i, code := range keys.Headboard {
		p.headboard[code] = i
	}
	return p
}

// Run consumes newline-terminated "+<code>" / "-<code>" records until
// the channel closes or Esc initiates shutdown. Malformed lines are
// logged and skipped.
func (p *Plane) Run(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		code, press, ok := parseLine(line)
		if !ok {
			debug.Log("control", "malformed input line %q", line)
			continue
		}
		if press {
			p.Press(code)
		} else {
			p.Release(code)
		}
		if p.done() {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		debug.Log("control", "input channel: %v", err)
	}
}

func parseLine(line string) (code uint8, press bool, ok bool) {
	if len(line) < 2 {
		return 0, false, false
	}
	switch line[0] {
	case '+':
		press = true
	case '-':
		press = false
	default:
		return 0, false, false
	}
	n, err := strconv.Atoi(line[1:])
	if err != nil || n < 0 || n > 255 {
		return 0, false, false
	}
	return uint8(n), press, true
}

// Press dispatches a key-down through the namespace partition.
// Unknown codes are ignored.
func (p *Plane) Press(code uint8) {
	inst := p.currentInstrument()
	switch {
	case p.pad[code]:
		inst.KeyPressed(code)
		p.mu.Lock()
		p.pressed[code] = true
		p.mu.Unlock()
	case hasIndex(p.loopPad, code):
		inst.Loop(p.loopPad[code])
	case hasMode(p.modeKeys, code):
		inst.SetMode(p.modeKeys[code])
	case hasIndex(p.headboard, code):
		if idx := p.headboard[code]; idx < p.registry.Len() {
			p.mu.Lock()
			p.current = idx
			p.mu.Unlock()
		}
	case code == keySpace:
		p.clock.Toggle()
	case code == keyArrowDown:
		p.clock.AdjustBPM(-1)
	case code == keyArrowUp:
		p.clock.AdjustBPM(+1)
	case code == keyEsc:
		p.mu.Lock()
		p.quit = true
		p.mu.Unlock()
		if p.onQuit != nil {
			p.onQuit()
		}
	}
	p.notify()
}

// Release dispatches a key-up. Only the pad and the mode keys react;
// a mode-key release always returns to Normal.
func (p *Plane) Release(code uint8) {
	switch {
	case p.pad[code]:
		p.currentInstrument().KeyReleased(code)
		p.mu.Lock()
		delete(p.pressed, code)
		p.mu.Unlock()
	case hasMode(p.modeKeys, code):
		p.currentInstrument().SetMode(engine.ModeNormal)
	}
	p.notify()
}

func hasIndex(m map[uint8]int, code uint8) bool {
	_, ok := m[code]
	return ok
}

func hasMode(m map[uint8]engine.LoopMode, code uint8) bool {
	_, ok := m[code]
	return ok
}

func (p *Plane) currentInstrument() *engine.Instrument {
	p.mu.Lock()
	idx := p.current
	p.mu.Unlock()
	return p.registry.ByIndex(idx)
}

// Current returns the selected instrument index.
func (p *Plane) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// PressedKeys snapshots the held pad keys for display.
func (p *Plane) PressedKeys() map[uint8]bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[uint8]bool, len(p.pressed))
	for k := range p.pressed {
		out[k] = true
	}
	return out
}

func (p *Plane) done() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quit
}

func (p *Plane) notify() {
	select {
	case p.Updates <- struct{}{}:
	default:
	}
}
