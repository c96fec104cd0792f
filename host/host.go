package host

// TransportState mirrors the audio host's transport.
type TransportState int

const (
	Stopped TransportState = iota
	Starting
	Rolling
)

// Position is the host's transport position struct.
// Bar and Beat are 1-indexed, Tick counts from 0 within the beat.
type Position struct {
	Bar            int
	Beat           int
	Tick           int
	BeatsPerBar    int
	BeatType       int
	BeatsPerMinute int
	TicksPerBeat   int
}

// Port is a MIDI output port owned by the host. The buffer is valid for
// one process block: the engine clears it at the top of the block and
// writes timed events into it; the host flushes it after the callback
// returns.
type Port interface {
	ClearBuffer()
	WriteMIDIEvent(offset uint32, data [3]byte)
}

// Host is the audio engine the process callback runs under.
//
// SetProcessCallback and SetShutdownCallback must be called before
// Activate. After Deactivate returns, no further callbacks fire.
type Host interface {
	RegisterMIDIOutPort(name string) (Port, error)

	TransportState() TransportState
	TransportQuery() (TransportState, Position)
	TransportStart()
	TransportStop()
	TransportReposition(pos Position)

	SetProcessCallback(fn func(blockSize uint32))
	SetShutdownCallback(fn func())
	Activate() error
	Deactivate()
	Close() error
}
