package engine

import (
	"testing"

	"palette/config"
	"palette/host"
)

func testInstrument(t *testing.T, cfg config.Instrument) (*Instrument, *host.FakePort, *Clock, *host.Fake) {
	t.Helper()
	f := host.NewFake()
	clock := NewClock(f)
	inst := NewInstrument(cfg, clock)
	port := &host.FakePort{Name: cfg.Name}
	inst.BindPort(port)
	return inst, port, clock, f
}

func plainConfig() config.Instrument {
	return config.Instrument{
		Name:             "test",
		Mapping:          map[string][2]uint8{"50": {2, 1}},
		SnapBeatsPerBeat: 1,
		LoopBeatsPerBeat: 1,
	}
}

func TestPressReleaseEmitsNoteOnThenOff(t *testing.T) {
	inst, port, _, _ := testInstrument(t, plainConfig())

	inst.KeyPressed(50)
	inst.Process(10)
	if len(port.Writes) != 1 || port.Writes[0] != (host.FakeWrite{Offset: 0, Data: [3]byte{0x92, 1, 64}}) {
		t.Fatalf("block 1 writes = %v, want one note-on (0x92, 1, 64) at 0", port.Writes)
	}

	inst.KeyReleased(50)
	inst.Process(10)
	if len(port.Writes) != 1 || port.Writes[0] != (host.FakeWrite{Offset: 0, Data: [3]byte{0x82, 1, 64}}) {
		t.Fatalf("block 2 writes = %v, want one note-off (0x82, 1, 64) at 0", port.Writes)
	}
}

func TestUnmappedKeyIsSilent(t *testing.T) {
	inst, port, _, _ := testInstrument(t, plainConfig())
	inst.KeyPressed(99)
	inst.KeyReleased(99)
	inst.Process(10)
	if len(port.Writes) != 0 {
		t.Fatalf("unmapped key produced %v", port.Writes)
	}
}

func TestStickyToggle(t *testing.T) {
	cfg := plainConfig()
	cfg.Sticky = true
	inst, port, _, _ := testInstrument(t, cfg)

	inst.KeyPressed(50)
	inst.KeyReleased(50) // ignored in sticky mode
	inst.Process(10)
	if len(port.Writes) != 1 || port.Writes[0].Data != ([3]byte{0x92, 1, 64}) {
		t.Fatalf("block 1 writes = %v, want note-on only", port.Writes)
	}

	inst.KeyPressed(50)
	inst.KeyReleased(50)
	inst.Process(10)
	if len(port.Writes) != 1 || port.Writes[0].Data != ([3]byte{0x82, 1, 64}) {
		t.Fatalf("block 2 writes = %v, want note-off only", port.Writes)
	}
}

func TestSnapShiftsOffset(t *testing.T) {
	cfg := plainConfig()
	cfg.Snap = true
	cfg.SnapBeatsPerBeat = 4 // ticksPerSnap = 480
	inst, port, clock, f := testInstrument(t, cfg)

	f.State = host.Rolling
	f.Pos.Tick = 1444 // ticksUntilBeat = 476, offset = 480 - 476 = 4
	clock.Refresh()

	inst.KeyPressed(50)
	inst.Process(10)
	if len(port.Writes) != 1 || port.Writes[0].Offset != 4 {
		t.Fatalf("writes = %v, want one event at offset 4", port.Writes)
	}
}

func TestSnapDefersBeyondBlock(t *testing.T) {
	cfg := plainConfig()
	cfg.Snap = true
	cfg.SnapBeatsPerBeat = 4
	inst, port, clock, f := testInstrument(t, cfg)

	f.State = host.Rolling
	f.Pos.Tick = 1520 // ticksUntilBeat = 400, offset = 80 > blockSize
	clock.Refresh()

	inst.KeyPressed(50)
	inst.Process(10)
	if len(port.Writes) != 0 {
		t.Fatalf("deferred block wrote %v", port.Writes)
	}

	// The press stays queued and fires once the snap point falls
	// inside a block.
	f.Pos.Tick = 1444
	clock.Refresh()
	inst.Process(10)
	if len(port.Writes) != 1 || port.Writes[0].Offset != 4 {
		t.Fatalf("writes = %v, want the pending press at offset 4", port.Writes)
	}
}

func TestAllNotesOffBinding(t *testing.T) {
	cfg := plainConfig()
	cfg.Mapping["51"] = [2]uint8{3, 0}
	inst, port, _, _ := testInstrument(t, cfg)

	inst.KeyPressed(51)
	inst.Process(10)
	if len(port.Writes) != 1 || port.Writes[0].Data != ([3]byte{0xB3, 123, 0}) {
		t.Fatalf("writes = %v, want all-notes-off on channel 3", port.Writes)
	}

	inst.KeyReleased(51) // no matching stop
	inst.Process(10)
	if len(port.Writes) != 0 {
		t.Fatalf("release of all-notes-off binding wrote %v", port.Writes)
	}
}

func TestPlaysPrecedeStopsWithinBlock(t *testing.T) {
	cfg := plainConfig()
	cfg.Mapping["51"] = [2]uint8{2, 2}
	inst, port, _, _ := testInstrument(t, cfg)

	inst.KeyReleased(51)
	inst.KeyPressed(50)
	inst.Process(10)
	if len(port.Writes) != 2 {
		t.Fatalf("writes = %v, want 2", port.Writes)
	}
	if port.Writes[0].Data[0]&0xF0 != 0x90 || port.Writes[1].Data[0]&0xF0 != 0x80 {
		t.Fatalf("order = %v, want note-on before note-off", port.Writes)
	}
}

func TestLoopRecordAndReplayThroughInstrument(t *testing.T) {
	inst, port, _, _ := testInstrument(t, plainConfig())

	inst.SetMode(ModeRecord)
	inst.Loop(0)
	inst.KeyPressed(50)
	inst.Process(10)
	if inst.LoopStates()[0] != LoopRecording {
		t.Fatalf("loop 0 state = %d, want recording", inst.LoopStates()[0])
	}

	inst.Loop(0) // stop recording
	inst.SetMode(ModeNormal)
	inst.Process(10)
	if inst.LoopStates()[0] != LoopPlaying {
		t.Fatalf("loop 0 state = %d, want playing", inst.LoopStates()[0])
	}
	// One block of silence from the live queues; the loop replays the
	// recorded note-on.
	if len(port.Writes) != 1 || port.Writes[0].Data != ([3]byte{0x92, 1, 64}) {
		t.Fatalf("writes = %v, want the looped note-on", port.Writes)
	}
}

func TestLiveEventsPrecedeLoopPlayback(t *testing.T) {
	inst, port, _, _ := testInstrument(t, plainConfig())

	inst.SetMode(ModeRecord)
	inst.Loop(0)
	inst.KeyPressed(50)
	inst.Process(10)
	inst.Loop(0)
	inst.SetMode(ModeNormal)

	inst.KeyReleased(50)
	inst.Process(10)
	if len(port.Writes) != 2 {
		t.Fatalf("writes = %v, want live note-off then looped note-on", port.Writes)
	}
	if port.Writes[0].Data != ([3]byte{0x82, 1, 64}) || port.Writes[1].Data != ([3]byte{0x92, 1, 64}) {
		t.Fatalf("order = %v, want live before loop", port.Writes)
	}
}

func TestRecordRefusedWhilePlaying(t *testing.T) {
	inst, _, _, _ := testInstrument(t, plainConfig())

	inst.SetMode(ModeRecord)
	inst.Loop(0)
	inst.Process(10)
	inst.Loop(0)
	inst.Process(10) // loop 0 now playing

	inst.Loop(0) // record toggle on a playing loop: ignored
	inst.Process(10)
	if inst.LoopStates()[0] != LoopPlaying {
		t.Fatalf("loop 0 state = %d, want still playing", inst.LoopStates()[0])
	}
}

func TestDeleteRefusedWhilePlayingOrRecording(t *testing.T) {
	inst, _, _, _ := testInstrument(t, plainConfig())

	inst.SetMode(ModeRecord)
	inst.Loop(0)
	inst.Process(10)
	inst.SetMode(ModeDelete)
	inst.Loop(0)
	inst.Process(10)
	if inst.LoopStates()[0] != LoopRecording {
		t.Fatalf("delete cleared a recording loop")
	}

	inst.SetMode(ModeRecord)
	inst.Loop(0)
	inst.Process(10) // now playing
	inst.SetMode(ModeDelete)
	inst.Loop(0)
	inst.Process(10)
	if inst.LoopStates()[0] != LoopPlaying {
		t.Fatalf("delete cleared a playing loop")
	}

	// Pause it, then delete sticks.
	inst.SetMode(ModeNormal)
	inst.Loop(0)
	inst.Process(10)
	inst.SetMode(ModeDelete)
	inst.Loop(0)
	inst.Process(10)
	if inst.LoopStates()[0] != LoopEmpty {
		t.Fatalf("loop 0 state = %d, want empty after delete", inst.LoopStates()[0])
	}
}

func TestHalfAndDoubleModes(t *testing.T) {
	inst, _, _, _ := testInstrument(t, plainConfig())

	inst.SetMode(ModeRecord)
	inst.Loop(0)
	inst.Process(10)
	inst.Loop(0)
	inst.Process(10)

	inst.SetMode(ModeHalf)
	inst.Loop(0)
	inst.Process(10)
	inst.SetMode(ModeDouble)
	inst.Loop(0)
	inst.Process(10)
	inst.SetMode(ModeNormal)
	if inst.LoopStates()[0] != LoopPlaying {
		t.Fatalf("loop 0 state = %d, want playing after half+double", inst.LoopStates()[0])
	}
}
