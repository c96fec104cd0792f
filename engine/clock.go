package engine

import "palette/host"

// TicksPerBeat is the transport's sub-beat resolution.
const TicksPerBeat = 1920

// Clock mirrors the host transport for the audio thread. Refresh is
// the only method called inside the process callback; everything else
// goes through the host's transport API and is control-plane only.
type Clock struct {
	host host.Host

	rolling        bool
	bpm            int
	beatsPerBar    int
	beatType       int
	beat           int // 0-indexed beat within the bar
	ticksUntilBeat int
}

func NewClock(h host.Host) *Clock {
	return &Clock{host: h}
}

// Refresh pulls the transport position into the mirror. When the
// transport is stopped the musical fields keep their last values.
func (c *Clock) Refresh() {
	state, pos := c.host.TransportQuery()
	if state != host.Rolling {
		c.rolling = false
		return
	}
	c.rolling = true
	c.bpm = pos.BeatsPerMinute
	c.beatsPerBar = pos.BeatsPerBar
	c.beatType = pos.BeatType
	c.beat = pos.Beat - 1 // host beats are 1-indexed
	c.ticksUntilBeat = TicksPerBeat - pos.Tick
}

// SyncToHost repositions the transport to the clock defaults: bar 1,
// beat 1, 4/4 at 120 bpm.
func (c *Clock) SyncToHost() {
	c.host.TransportReposition(host.Position{
		Bar:            1,
		Beat:           1,
		Tick:           0,
		BeatsPerBar:    4,
		BeatType:       4,
		BeatsPerMinute: 120,
		TicksPerBeat:   TicksPerBeat,
	})
}

// Toggle starts the transport if stopped, stops it if rolling.
func (c *Clock) Toggle() {
	if c.host.TransportState() == host.Rolling {
		c.host.TransportStop()
	} else {
		c.host.TransportStart()
	}
}

// AdjustBPM reads the transport position, shifts the tempo by delta
// and writes it back.
func (c *Clock) AdjustBPM(delta int) {
	_, pos := c.host.TransportQuery()
	pos.BeatsPerMinute += delta
	c.host.TransportReposition(pos)
}

func (c *Clock) Rolling() bool       { return c.rolling }
func (c *Clock) BPM() int            { return c.bpm }
func (c *Clock) BeatsPerBar() int    { return c.beatsPerBar }
func (c *Clock) Beat() int           { return c.beat }
func (c *Clock) TicksUntilBeat() int { return c.ticksUntilBeat }
