package host

// Fake is an in-memory host for tests. The transport is scripted by
// assigning State and Pos directly; ports record every write.
type Fake struct {
	State TransportState
	Pos   Position

	Ports        map[string]*FakePort
	Repositioned []Position
	Starts       int
	Stops        int

	process  func(blockSize uint32)
	shutdown func()
}

// FakeWrite is one recorded WriteMIDIEvent call.
type FakeWrite struct {
	Offset uint32
	Data   [3]byte
}

// FakePort records writes since the last ClearBuffer.
type FakePort struct {
	Name    string
	Writes  []FakeWrite
	Cleared int
}

func (p *FakePort) ClearBuffer() {
	p.Writes = p.Writes[:0]
	p.Cleared++
}

func (p *FakePort) WriteMIDIEvent(offset uint32, data [3]byte) {
	p.Writes = append(p.Writes, FakeWrite{Offset: offset, Data: data})
}

func NewFake() *Fake {
	return &Fake{
		State: Stopped,
		Pos: Position{
			Bar:            1,
			Beat:           1,
			BeatsPerBar:    4,
			BeatType:       4,
			BeatsPerMinute: 120,
			TicksPerBeat:   1920,
		},
		Ports: make(map[string]*FakePort),
	}
}

func (f *Fake) RegisterMIDIOutPort(name string) (Port, error) {
	p := &FakePort{Name: name}
	f.Ports[name] = p
	return p, nil
}

func (f *Fake) TransportState() TransportState {
	return f.State
}

func (f *Fake) TransportQuery() (TransportState, Position) {
	return f.State, f.Pos
}

func (f *Fake) TransportStart() {
	f.State = Rolling
	f.Starts++
}

func (f *Fake) TransportStop() {
	f.State = Stopped
	f.Stops++
}

func (f *Fake) TransportReposition(pos Position) {
	f.Pos = pos
	f.Repositioned = append(f.Repositioned, pos)
}

func (f *Fake) SetProcessCallback(fn func(blockSize uint32)) { f.process = fn }
func (f *Fake) SetShutdownCallback(fn func())                { f.shutdown = fn }
func (f *Fake) Activate() error                              { return nil }
func (f *Fake) Deactivate()                                  {}
func (f *Fake) Close() error                                 { return nil }

// Process invokes the registered process callback, as the audio thread
// would once per block.
func (f *Fake) Process(blockSize uint32) {
	if f.process != nil {
		f.process(blockSize)
	}
}
