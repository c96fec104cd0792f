package engine

import "sync/atomic"

// LoopState is the lifecycle of a loop. The zero value is LoopEmpty.
type LoopState int32

const (
	LoopEmpty LoopState = iota
	LoopRecording
	LoopPlaying
	LoopPaused
)

// TimedEvent is a MIDI event at a frame offset. Inside Process the
// offset is relative to the block start; stored in a loop it is the
// absolute position on the loop timeline.
type TimedEvent struct {
	Offset uint32
	Data   [3]byte
}

// Loop records a stream of timed events against a length in frames and
// replays it modulo that length. All mutation happens on the audio
// thread; the state word is atomic so other threads can observe it.
type Loop struct {
	state    atomic.Int32
	events   []TimedEvent
	length   uint32
	position uint32
	out      []TimedEvent
}

func NewLoop() *Loop {
	return &Loop{
		events: make([]TimedEvent, 0, 4096),
		out:    make([]TimedEvent, 0, 256),
	}
}

func (l *Loop) State() LoopState { return LoopState(l.state.Load()) }
func (l *Loop) Recording() bool  { return l.State() == LoopRecording }
func (l *Loop) Playing() bool    { return l.State() == LoopPlaying }
func (l *Loop) Length() uint32   { return l.length }

// Process advances the loop by one block. While recording, the
// incoming events are stamped onto the timeline and the loop grows by
// the block. While playing, it returns the stored events falling
// inside the frame window starting at position, wrapping modulo
// length. The returned slice is valid until the next call.
func (l *Loop) Process(blockSize uint32, incoming []TimedEvent) []TimedEvent {
	if blockSize == 0 {
		return nil
	}

	switch l.State() {
	case LoopRecording:
		for _, e := range incoming {
			l.events = append(l.events, TimedEvent{Offset: l.position + e.Offset, Data: e.Data})
		}
		l.length += blockSize
		l.position += blockSize
		return nil

	case LoopPlaying:
		if l.length == 0 {
			return nil
		}
		l.out = l.out[:0]

		// Head of the window: [position, min(position+blockSize, length)).
		headEnd := l.position + blockSize
		if headEnd > l.length {
			headEnd = l.length
		}
		for _, e := range l.events {
			if e.Offset >= l.position && e.Offset < headEnd {
				l.out = append(l.out, TimedEvent{Offset: e.Offset - l.position, Data: e.Data})
			}
		}

		// Tail after the wrap: [0, blockSize - headLen).
		tailEnd := blockSize - (headEnd - l.position)
		if tailEnd > 0 {
			for _, e := range l.events {
				if e.Offset < tailEnd {
					l.out = append(l.out, TimedEvent{Offset: l.length - l.position + e.Offset, Data: e.Data})
				}
			}
		}

		l.position = (l.position + blockSize) % l.length
		return l.out

	default:
		return nil
	}
}

// StartRecording clears the loop and begins a new take.
func (l *Loop) StartRecording() {
	l.events = l.events[:0]
	l.length = 0
	l.position = 0
	l.state.Store(int32(LoopRecording))
}

// StopRecording ends the take and starts playback. The position stays
// at the end of the timeline so playback resumes at the wrap on the
// next block.
func (l *Loop) StopRecording() {
	if l.State() != LoopRecording {
		return
	}
	if l.length == 0 {
		l.state.Store(int32(LoopEmpty))
		return
	}
	l.state.Store(int32(LoopPlaying))
}

// StartPlaying restarts playback from the top of the loop.
func (l *Loop) StartPlaying() {
	l.position = 0
	l.state.Store(int32(LoopPlaying))
}

// StopPlaying pauses playback, keeping the recorded events.
func (l *Loop) StopPlaying() {
	if l.State() != LoopPlaying {
		return
	}
	if l.length == 0 {
		l.state.Store(int32(LoopEmpty))
		return
	}
	l.state.Store(int32(LoopPaused))
}

// Clear drops the recording.
func (l *Loop) Clear() {
	l.events = l.events[:0]
	l.length = 0
	l.position = 0
	l.state.Store(int32(LoopEmpty))
}

// Double appends a silent tail of the loop's own length.
func (l *Loop) Double() {
	l.length *= 2
}

// Half cuts the timeline in two. Events beyond the new length are
// retained but stay silent until a Double restores them.
func (l *Loop) Half() {
	l.length /= 2
	if l.position >= l.length {
		if l.length == 0 {
			l.position = 0
		} else {
			l.position %= l.length
		}
	}
}
