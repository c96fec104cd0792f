package engine

import "palette/host"

// Engine is the per-block entry point: refresh the clock mirror, then
// drive every instrument. Nothing on this path blocks, locks or
// allocates.
type Engine struct {
	clock    *Clock
	registry *Registry
}

func New(clock *Clock, registry *Registry) *Engine {
	return &Engine{clock: clock, registry: registry}
}

// Process is the audio callback.
func (e *Engine) Process(blockSize uint32) {
	e.clock.Refresh()
	e.registry.Process(blockSize)
}

// Attach registers the engine with the host. The shutdown callback is
// the host's promise that no further blocks will arrive.
func (e *Engine) Attach(h host.Host) {
	h.SetProcessCallback(e.Process)
}

func (e *Engine) Clock() *Clock       { return e.clock }
func (e *Engine) Registry() *Registry { return e.registry }
