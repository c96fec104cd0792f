package input

import (
	"errors"
	"fmt"
	"io"
	"os"

	"palette/debug"
)

const (
	// HID boot-protocol keyboard reports: modifier byte, reserved
	// byte, then up to six pressed key codes.
	reportSize = 8

	// Consecutive read timeouts tolerated before giving up.
	maxTimeouts = 10
)

// Bridge reads HID reports from a keyboard device, tracks the held-key
// set and writes press/release transitions as "+<code>" / "-<code>"
// lines to the channel the control plane reads.
type Bridge struct {
	src io.Reader
	dst io.Writer

	held     []uint8
	scratch  []uint8
	timeouts int
}

func NewBridge(src io.Reader, dst io.Writer) *Bridge {
	return &Bridge{
		src:     src,
		dst:     dst,
		held:    make([]uint8, 0, reportSize),
		scratch: make([]uint8, 0, reportSize),
	}
}

// Run consumes reports until the source ends. Read timeouts are
// retried up to maxTimeouts consecutive occurrences; any other read
// error is fatal to this thread only.
func (b *Bridge) Run() error {
	buf := make([]byte, reportSize)
	for {
		n, err := b.src.Read(buf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if os.IsTimeout(err) {
				b.timeouts++
				debug.Log("input", "read timeout %d/%d", b.timeouts, maxTimeouts)
				if b.timeouts >= maxTimeouts {
					return fmt.Errorf("device read: %d consecutive timeouts", b.timeouts)
				}
				continue
			}
			return fmt.Errorf("device read: %w", err)
		}
		b.timeouts = 0
		if n < 2 {
			continue
		}
		b.handleReport(buf[:n])
	}
}

// handleReport diffs one report against the held set. Releases are
// emitted before presses; the set is rebuilt rather than mutated while
// being consulted.
func (b *Bridge) handleReport(report []byte) {
	codes := report[2:]

	for _, key := range b.held {
		if !contains(codes, key) {
			b.emit('-', key)
		}
	}

	next := b.scratch[:0]
	for _, code := range codes {
		if code == 0 {
			continue
		}
		if !containsHeld(b.held, code) {
			b.emit('+', code)
		}
		next = append(next, code)
	}
	b.held, b.scratch = next, b.held
}

// emit writes one record. A failed write (e.g. the pipe reader went
// away) drops the event and the reader continues.
func (b *Bridge) emit(sign byte, code uint8) {
	if _, err := fmt.Fprintf(b.dst, "%c%d\n", sign, code); err != nil {
		debug.Log("input", "drop %c%d: %v", sign, code, err)
	}
}

func contains(codes []byte, key uint8) bool {
	for _, c := range codes {
		if c == key {
			return true
		}
	}
	return false
}

func containsHeld(held []uint8, code uint8) bool {
	for _, h := range held {
		if h == code {
			return true
		}
	}
	return false
}
