package host

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"palette/debug"
)

const (
	DefaultSampleRate = 48000
	DefaultBlockSize  = 256

	portBufferCap = 512
)

type timedEvent struct {
	offset uint32
	data   [3]byte
}

// outPort buffers one block's worth of events for a virtual MIDI output.
type outPort struct {
	name    string
	out     drivers.Out
	events  []timedEvent
	dropped int
}

func (p *outPort) ClearBuffer() {
	p.events = p.events[:0]
}

func (p *outPort) WriteMIDIEvent(offset uint32, data [3]byte) {
	if len(p.events) == cap(p.events) {
		p.dropped++
		return
	}
	p.events = append(p.events, timedEvent{offset: offset, data: data})
}

type flushItem struct {
	offset uint32
	port   *outPort
	data   [3]byte
}

// Realtime drives the process callback from a wall-clock block scheduler
// and flushes port buffers to rtmidi virtual output ports. It stands in
// for an audio server: block boundaries are paced at
// blockSize/sampleRate and frame offsets inside a block become send
// delays relative to the block start.
type Realtime struct {
	sampleRate uint32
	blockSize  uint32

	drv   *rtmididrv.Driver
	ports []*outPort

	mu       sync.Mutex
	state    TransportState
	pos      Position
	tickFrac float64

	process  func(blockSize uint32)
	shutdown func()

	scratch  []flushItem
	stopChan chan struct{}
	doneChan chan struct{}
	active   bool
}

// NewRealtime opens the rtmidi driver. Pass 0 for either parameter to
// get the defaults.
func NewRealtime(sampleRate, blockSize uint32) (*Realtime, error) {
	if sampleRate == 0 {
		sampleRate = DefaultSampleRate
	}
	if blockSize == 0 {
		blockSize = DefaultBlockSize
	}
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("open rtmidi driver: %w", err)
	}
	return &Realtime{
		sampleRate: sampleRate,
		blockSize:  blockSize,
		drv:        drv,
		state:      Stopped,
		pos: Position{
			Bar:            1,
			Beat:           1,
			BeatsPerBar:    4,
			BeatType:       4,
			BeatsPerMinute: 120,
			TicksPerBeat:   1920,
		},
		scratch: make([]flushItem, 0, portBufferCap),
	}, nil
}

func (h *Realtime) RegisterMIDIOutPort(name string) (Port, error) {
	out, err := h.drv.OpenVirtualOut(name)
	if err != nil {
		return nil, fmt.Errorf("open virtual out %q: %w", name, err)
	}
	p := &outPort{
		name:   name,
		out:    out,
		events: make([]timedEvent, 0, portBufferCap),
	}
	h.ports = append(h.ports, p)
	return p, nil
}

func (h *Realtime) TransportState() TransportState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Realtime) TransportQuery() (TransportState, Position) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state, h.pos
}

func (h *Realtime) TransportStart() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == Stopped {
		h.state = Rolling
	}
}

func (h *Realtime) TransportStop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = Stopped
}

func (h *Realtime) TransportReposition(pos Position) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pos = pos
	h.tickFrac = 0
}

func (h *Realtime) SetProcessCallback(fn func(blockSize uint32)) {
	h.process = fn
}

func (h *Realtime) SetShutdownCallback(fn func()) {
	h.shutdown = fn
}

func (h *Realtime) Activate() error {
	if h.process == nil {
		return fmt.Errorf("activate: no process callback set")
	}
	if h.active {
		return nil
	}
	h.stopChan = make(chan struct{})
	h.doneChan = make(chan struct{})
	h.active = true
	go h.run()
	return nil
}

func (h *Realtime) Deactivate() {
	if !h.active {
		return
	}
	close(h.stopChan)
	<-h.doneChan
	h.active = false
}

func (h *Realtime) Close() error {
	h.Deactivate()
	if h.shutdown != nil {
		h.shutdown()
	}
	for _, p := range h.ports {
		p.out.Close()
		if p.dropped > 0 {
			debug.Log("host", "port %s dropped %d events on full buffer", p.name, p.dropped)
		}
	}
	return h.drv.Close()
}

// run paces process callbacks at blockSize/sampleRate and flushes the
// port buffers between them. Block start times are computed from an
// absolute origin so scheduling error does not accumulate.
func (h *Realtime) run() {
	defer close(h.doneChan)

	blockDur := time.Duration(float64(h.blockSize) / float64(h.sampleRate) * float64(time.Second))
	blockStart := time.Now()

	for {
		select {
		case <-h.stopChan:
			return
		default:
		}

		h.process(h.blockSize)
		if !h.flush(blockStart) {
			return
		}
		h.advance()

		blockStart = blockStart.Add(blockDur)
		if wait := time.Until(blockStart); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-h.stopChan:
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}
}

// flush merges all port buffers in ascending frame order and sends each
// event at blockStart plus its offset. Returns false if stopped while
// waiting.
func (h *Realtime) flush(blockStart time.Time) bool {
	h.scratch = h.scratch[:0]
	for _, p := range h.ports {
		for _, e := range p.events {
			h.scratch = append(h.scratch, flushItem{offset: e.offset, port: p, data: e.data})
		}
	}
	if len(h.scratch) == 0 {
		return true
	}
	sort.SliceStable(h.scratch, func(i, j int) bool {
		return h.scratch[i].offset < h.scratch[j].offset
	})

	framePeriod := float64(time.Second) / float64(h.sampleRate)
	for _, item := range h.scratch {
		due := blockStart.Add(time.Duration(float64(item.offset) * framePeriod))
		if wait := time.Until(due); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-h.stopChan:
				timer.Stop()
				return false
			case <-timer.C:
			}
		}
		if err := item.port.out.Send(item.data[:]); err != nil {
			debug.Log("host", "send on %s: %v", item.port.name, err)
		}
	}
	return true
}

// advance moves the transport position forward by one block.
func (h *Realtime) advance() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != Rolling {
		return
	}

	bpm := h.pos.BeatsPerMinute
	tpb := h.pos.TicksPerBeat
	h.tickFrac += float64(h.blockSize) * float64(bpm) * float64(tpb) / (60 * float64(h.sampleRate))

	whole := int(h.tickFrac)
	h.tickFrac -= float64(whole)
	h.pos.Tick += whole
	for h.pos.Tick >= tpb {
		h.pos.Tick -= tpb
		h.pos.Beat++
		if h.pos.Beat > h.pos.BeatsPerBar {
			h.pos.Beat = 1
			h.pos.Bar++
		}
	}
}
