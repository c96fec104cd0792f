package engine

import (
	"fmt"

	"palette/config"
	"palette/host"
)

// Registry owns the instrument collection, built once at startup from
// the config table.
type Registry struct {
	instruments []*Instrument
}

func NewRegistry(configs []config.Instrument, clock *Clock) *Registry {
	r := &Registry{instruments: make([]*Instrument, 0, len(configs))}
	for _, cfg := range configs {
		r.instruments = append(r.instruments, NewInstrument(cfg, clock))
	}
	return r
}

// BindPorts registers one MIDI output port per instrument name.
func (r *Registry) BindPorts(h host.Host) error {
	for _, inst := range r.instruments {
		port, err := h.RegisterMIDIOutPort(inst.Name())
		if err != nil {
			return fmt.Errorf("bind port for %s: %w", inst.Name(), err)
		}
		inst.BindPort(port)
	}
	return nil
}

// Process fans the block out to every instrument in table order.
func (r *Registry) Process(blockSize uint32) {
	for _, inst := range r.instruments {
		inst.Process(blockSize)
	}
}

// ByIndex borrows the i-th instrument. Nil when out of range.
func (r *Registry) ByIndex(i int) *Instrument {
	if i < 0 || i >= len(r.instruments) {
		return nil
	}
	return r.instruments[i]
}

func (r *Registry) Len() int { return len(r.instruments) }

// Names lists the instruments in table order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.instruments))
	for i, inst := range r.instruments {
		names[i] = inst.Name()
	}
	return names
}
