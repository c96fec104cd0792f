package engine

import (
	"testing"

	"palette/host"
)

func TestRefreshMirrorsRollingTransport(t *testing.T) {
	f := host.NewFake()
	f.State = host.Rolling
	f.Pos = host.Position{
		Bar: 3, Beat: 2, Tick: 120,
		BeatsPerBar: 3, BeatType: 4, BeatsPerMinute: 96, TicksPerBeat: 1920,
	}

	c := NewClock(f)
	c.Refresh()

	if !c.Rolling() {
		t.Fatal("clock not rolling")
	}
	if c.BPM() != 96 || c.BeatsPerBar() != 3 {
		t.Fatalf("bpm=%d beatsPerBar=%d", c.BPM(), c.BeatsPerBar())
	}
	if c.Beat() != 1 {
		t.Fatalf("beat = %d, want host beat 2 shifted to 1", c.Beat())
	}
	if c.TicksUntilBeat() != 1920-120 {
		t.Fatalf("ticksUntilBeat = %d, want %d", c.TicksUntilBeat(), 1920-120)
	}
}

func TestRefreshStoppedLeavesFields(t *testing.T) {
	f := host.NewFake()
	f.State = host.Rolling
	f.Pos.BeatsPerMinute = 140
	f.Pos.Tick = 100

	c := NewClock(f)
	c.Refresh()

	f.State = host.Stopped
	f.Pos.BeatsPerMinute = 999
	c.Refresh()

	if c.Rolling() {
		t.Fatal("clock rolling after stop")
	}
	if c.BPM() != 140 {
		t.Fatalf("bpm = %d, want the last rolling value 140", c.BPM())
	}
}

func TestToggleStartsAndStops(t *testing.T) {
	f := host.NewFake()
	c := NewClock(f)

	c.Toggle()
	if f.Starts != 1 || f.State != host.Rolling {
		t.Fatalf("toggle from stopped: starts=%d state=%d", f.Starts, f.State)
	}
	c.Toggle()
	if f.Stops != 1 || f.State != host.Stopped {
		t.Fatalf("toggle from rolling: stops=%d state=%d", f.Stops, f.State)
	}
}

func TestAdjustBPMWritesBack(t *testing.T) {
	f := host.NewFake()
	c := NewClock(f)

	c.AdjustBPM(+1)
	if f.Pos.BeatsPerMinute != 121 {
		t.Fatalf("bpm = %d, want 121", f.Pos.BeatsPerMinute)
	}
	c.AdjustBPM(-1)
	c.AdjustBPM(-1)
	if f.Pos.BeatsPerMinute != 119 {
		t.Fatalf("bpm = %d, want 119", f.Pos.BeatsPerMinute)
	}
}

func TestSyncToHostPushesDefaults(t *testing.T) {
	f := host.NewFake()
	f.Pos = host.Position{}
	c := NewClock(f)

	c.SyncToHost()
	want := host.Position{
		Bar: 1, Beat: 1, Tick: 0,
		BeatsPerBar: 4, BeatType: 4, BeatsPerMinute: 120, TicksPerBeat: 1920,
	}
	if f.Pos != want {
		t.Fatalf("pos = %+v, want %+v", f.Pos, want)
	}
}
