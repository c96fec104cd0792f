package engine

import (
	"palette/config"
	"palette/debug"
	"palette/host"
)

const (
	// MIDI status bytes
	noteOn        = 0x90
	noteOff       = 0x80
	controlChange = 0xB0

	allNotesOff = 123

	// Velocity for every emitted note event.
	velocity = 64

	// NumLoops is the size of each instrument's loop bank.
	NumLoops = 9
)

// LoopMode selects what a loop-pad press does.
type LoopMode int

const (
	ModeNormal LoopMode = iota
	ModeRecord
	ModeDelete
	ModeHalf
	ModeDouble
)

// Instrument maps HID codes to notes on one MIDI port and runs a bank
// of nine loops against the shared clock.
//
// KeyPressed, KeyReleased, Loop and SetMode are control-thread
// operations; Process runs on the audio thread. The two sides meet
// only at the SPSC rings.
type Instrument struct {
	name    string
	mapping map[uint8][2]uint8
	snap    bool
	sticky  bool
	snapDiv int
	loopDiv int // reserved: quantised record transitions

	clock *Clock
	port  host.Port

	toPlay noteRing
	toStop noteRing
	cmds   cmdRing

	// control-thread only
	sounding map[uint8]bool
	mode     LoopMode

	// audio-thread only
	loops  [NumLoops]*Loop
	events []TimedEvent
}

func NewInstrument(cfg config.Instrument, clock *Clock) *Instrument {
	inst := &Instrument{
		name:     cfg.Name,
		mapping:  cfg.ParsedMapping(),
		snap:     cfg.Snap,
		sticky:   cfg.Sticky,
		snapDiv:  cfg.SnapBeatsPerBeat,
		loopDiv:  cfg.LoopBeatsPerBeat,
		clock:    clock,
		sounding: make(map[uint8]bool),
		events:   make([]TimedEvent, 0, ringSize),
	}
	if inst.snapDiv < 1 {
		inst.snapDiv = 1
	}
	if inst.loopDiv < 1 {
		inst.loopDiv = 1
	}
	for i := range inst.loops {
		inst.loops[i] = NewLoop()
	}
	return inst
}

func (inst *Instrument) Name() string { return inst.name }

// MappedCodes exposes the playable HID codes for display. The mapping
// is immutable after construction.
func (inst *Instrument) MappedCodes() map[uint8][2]uint8 { return inst.mapping }

// BindPort hands the instrument its MIDI output.
func (inst *Instrument) BindPort(p host.Port) { inst.port = p }

// KeyPressed queues a note start for the mapped key. In sticky mode a
// press toggles: the second press of a sounding key queues its stop.
func (inst *Instrument) KeyPressed(code uint8) {
	pair, ok := inst.mapping[code]
	if !ok {
		return
	}
	n := note{channel: pair[0], key: pair[1]}
	if !inst.sticky {
		if !inst.toPlay.push(n) {
			debug.Log("inst", "%s: toPlay ring full, dropping press %d", inst.name, code)
		}
		return
	}
	if !inst.sounding[code] {
		inst.sounding[code] = true
		if !inst.toPlay.push(n) {
			debug.Log("inst", "%s: toPlay ring full, dropping press %d", inst.name, code)
		}
	} else {
		delete(inst.sounding, code)
		if !inst.toStop.push(n) {
			debug.Log("inst", "%s: toStop ring full, dropping press %d", inst.name, code)
		}
	}
}

// KeyReleased queues a note stop. Ignored in sticky mode, and for the
// all-notes-off binding (note 0), which has no matching stop.
func (inst *Instrument) KeyReleased(code uint8) {
	if inst.sticky {
		return
	}
	pair, ok := inst.mapping[code]
	if !ok || pair[1] == 0 {
		return
	}
	if !inst.toStop.push(note{channel: pair[0], key: pair[1]}) {
		debug.Log("inst", "%s: toStop ring full, dropping release %d", inst.name, code)
	}
}

// Loop dispatches a loop-pad press according to the current mode. The
// resulting command is handed to the audio thread, which applies it at
// the top of its next block so transitions stay serialised with
// playback.
func (inst *Instrument) Loop(index int) {
	if index < 0 || index >= NumLoops {
		return
	}
	var op uint8
	switch inst.mode {
	case ModeNormal:
		op = cmdToggle
	case ModeRecord:
		op = cmdRecord
	case ModeDelete:
		op = cmdDelete
	case ModeHalf:
		op = cmdHalf
	case ModeDouble:
		op = cmdDouble
	}
	if !inst.cmds.push(loopCmd{op: op, loop: uint8(index)}) {
		debug.Log("inst", "%s: command ring full, dropping loop op", inst.name)
	}
}

// SetMode switches the loop-operation mode. Releasing a mode key
// always sets ModeNormal.
func (inst *Instrument) SetMode(mode LoopMode) {
	inst.mode = mode
}

// LoopStates reports the loop bank for display.
func (inst *Instrument) LoopStates() [NumLoops]LoopState {
	var states [NumLoops]LoopState
	for i, l := range inst.loops {
		states[i] = l.State()
	}
	return states
}

// Process emits this block's MIDI. Bounded time, no allocation:
//  1. apply pending loop commands, clear the port buffer
//  2. compute the snap offset; if the snap point is beyond this block,
//     defer everything (queues stay pending)
//  3. drain toPlay, then toStop, writing live events at the offset
//  4. feed the live events to each loop and write what it plays back
func (inst *Instrument) Process(blockSize uint32) {
	inst.applyLoopCommands()
	inst.port.ClearBuffer()

	var off uint32
	if inst.snap {
		ticksPerSnap := TicksPerBeat / inst.snapDiv
		o := ticksPerSnap - inst.clock.TicksUntilBeat()
		if o > int(blockSize) {
			return
		}
		if o > 0 {
			off = uint32(o)
		}
	}

	inst.events = inst.events[:0]
	for {
		n, ok := inst.toPlay.pop()
		if !ok {
			break
		}
		var data [3]byte
		if n.key == 0 {
			data = [3]byte{controlChange | n.channel, allNotesOff, 0}
		} else {
			data = [3]byte{noteOn | n.channel, n.key, velocity}
		}
		inst.port.WriteMIDIEvent(off, data)
		inst.events = append(inst.events, TimedEvent{Offset: off, Data: data})
	}
	for {
		n, ok := inst.toStop.pop()
		if !ok {
			break
		}
		data := [3]byte{noteOff | n.channel, n.key, velocity}
		inst.port.WriteMIDIEvent(off, data)
		inst.events = append(inst.events, TimedEvent{Offset: off, Data: data})
	}

	for _, l := range inst.loops {
		for _, e := range l.Process(blockSize, inst.events) {
			inst.port.WriteMIDIEvent(e.Offset, e.Data)
		}
	}
}

func (inst *Instrument) applyLoopCommands() {
	for {
		c, ok := inst.cmds.pop()
		if !ok {
			return
		}
		l := inst.loops[c.loop]
		switch c.op {
		case cmdToggle:
			if l.Playing() {
				l.StopPlaying()
			} else {
				l.StartPlaying()
			}
		case cmdRecord:
			if l.Recording() {
				l.StopRecording()
			} else if !l.Playing() {
				l.StartRecording()
			}
		case cmdDelete:
			if !l.Playing() && !l.Recording() {
				l.Clear()
			}
		case cmdHalf:
			l.Half()
		case cmdDouble:
			l.Double()
		}
	}
}
