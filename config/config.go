package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Instrument is one entry of the instrument table. Mapping keys are
// decimal HID usage codes; values are [channel, note] pairs.
type Instrument struct {
	Name             string              `json:"name"`
	Mapping          map[string][2]uint8 `json:"mapping"`
	Snap             bool                `json:"snap,omitempty"`
	Sticky           bool                `json:"sticky,omitempty"`
	SnapBeatsPerBeat int                 `json:"snapBeatsPerBeat,omitempty"`
	LoopBeatsPerBeat int                 `json:"loopBeatsPerBeat,omitempty"`
}

// Keys partitions the HID code namespace for the control plane.
type Keys struct {
	Pad       []uint8 `json:"pad,omitempty"`
	LoopPad   []uint8 `json:"loopPad,omitempty"`   // nine codes, loop 0..8
	Headboard []uint8 `json:"headboard,omitempty"` // twelve codes, instrument select
	Record    uint8   `json:"record,omitempty"`
	Delete    uint8   `json:"delete,omitempty"`
	Half      uint8   `json:"half,omitempty"`
	Double    uint8   `json:"double,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Instruments []Instrument `json:"instruments"`
	Keys        Keys         `json:"keys,omitempty"`
	DevicePath  string       `json:"devicePath,omitempty"`
	PipePath    string       `json:"pipePath,omitempty"`
}

// DefaultKeys lays the namespace out on a standard board: letters and
// punctuation play, the digit row drives the loop bank, F1-F12 pick
// the instrument, tab/backspace/minus/equals pick the loop mode.
func DefaultKeys() Keys {
	pad := make([]uint8, 0, 32)
	for code := uint8(4); code <= 29; code++ { // a-z
		pad = append(pad, code)
	}
	pad = append(pad, 51, 52, 53, 54, 55, 56) // ;'`,./

	loopPad := make([]uint8, 0, 9)
	for code := uint8(30); code <= 38; code++ { // 1-9
		loopPad = append(loopPad, code)
	}

	headboard := make([]uint8, 0, 12)
	for code := uint8(58); code <= 69; code++ { // F1-F12
		headboard = append(headboard, code)
	}

	return Keys{
		Pad:       pad,
		LoopPad:   loopPad,
		Headboard: headboard,
		Record:    43, // tab
		Delete:    42, // backspace
		Half:      45, // -
		Double:    46, // =
	}
}

// DefaultConfig returns a config with a single plain keyboard
// instrument: a chromatic run from C2 across the bottom rows.
func DefaultConfig() *Config {
	mapping := map[string][2]uint8{}
	bottom := []uint8{29, 22, 27, 7, 6, 25, 10, 5, 11, 17, 13, 16, 54, 15, 55, 51, 56}
	for i, code := range bottom {
		mapping[strconv.Itoa(int(code))] = [2]uint8{0, uint8(36 + i)}
	}
	return &Config{
		Instruments: []Instrument{
			{Name: "keyboard", Mapping: mapping, SnapBeatsPerBeat: 1, LoopBeatsPerBeat: 1},
		},
		Keys:       DefaultKeys(),
		DevicePath: "/dev/hidraw0",
		PipePath:   "palette.pipe",
	}
}

// ConfigPath returns the full path to palette.json
func ConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "palette", "palette.json"), nil
}

// Load reads the config from path, or from the default location when
// path is empty. A missing default file yields DefaultConfig.
func Load(path string) (*Config, error) {
	fallback := false
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return DefaultConfig(), nil
		}
		path = p
		fallback = true
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && fallback {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	def := DefaultKeys()
	if c.Keys.Pad == nil {
		c.Keys.Pad = def.Pad
	}
	if c.Keys.LoopPad == nil {
		c.Keys.LoopPad = def.LoopPad
	}
	if c.Keys.Headboard == nil {
		c.Keys.Headboard = def.Headboard
	}
	if c.Keys.Record == 0 {
		c.Keys.Record = def.Record
	}
	if c.Keys.Delete == 0 {
		c.Keys.Delete = def.Delete
	}
	if c.Keys.Half == 0 {
		c.Keys.Half = def.Half
	}
	if c.Keys.Double == 0 {
		c.Keys.Double = def.Double
	}
	if c.DevicePath == "" {
		c.DevicePath = "/dev/hidraw0"
	}
	if c.PipePath == "" {
		c.PipePath = "palette.pipe"
	}
	for i := range c.Instruments {
		inst := &c.Instruments[i]
		if inst.SnapBeatsPerBeat == 0 {
			inst.SnapBeatsPerBeat = 1
		}
		if inst.LoopBeatsPerBeat == 0 {
			inst.LoopBeatsPerBeat = 1
		}
	}
}

// Validate rejects tables the engine cannot run with.
func (c *Config) Validate() error {
	if len(c.Instruments) == 0 {
		return fmt.Errorf("no instruments configured")
	}
	for i, inst := range c.Instruments {
		if inst.Name == "" {
			return fmt.Errorf("instrument %d: missing name", i)
		}
		if len(inst.Mapping) == 0 {
			return fmt.Errorf("instrument %q: missing mapping", inst.Name)
		}
		for key, pair := range inst.Mapping {
			code, err := strconv.Atoi(key)
			if err != nil || code < 0 || code > 255 {
				return fmt.Errorf("instrument %q: bad HID code %q", inst.Name, key)
			}
			if pair[0] > 15 {
				return fmt.Errorf("instrument %q key %s: channel %d out of range", inst.Name, key, pair[0])
			}
			if pair[1] > 127 {
				return fmt.Errorf("instrument %q key %s: note %d out of range", inst.Name, key, pair[1])
			}
		}
	}
	if len(c.Keys.LoopPad) != 9 {
		return fmt.Errorf("loopPad needs exactly 9 codes, got %d", len(c.Keys.LoopPad))
	}
	if len(c.Keys.Headboard) != 12 {
		return fmt.Errorf("headboard needs exactly 12 codes, got %d", len(c.Keys.Headboard))
	}
	return nil
}

// Save writes the config to its default location.
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ParsedMapping converts the JSON string keys of an instrument mapping
// into HID codes. Call Validate first; bad keys are skipped here.
func (inst *Instrument) ParsedMapping() map[uint8][2]uint8 {
	out := make(map[uint8][2]uint8, len(inst.Mapping))
	for key, pair := range inst.Mapping {
		code, err := strconv.Atoi(key)
		if err != nil || code < 0 || code > 255 {
			continue
		}
		out[uint8(code)] = pair
	}
	return out
}
