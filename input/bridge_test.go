package input

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func report(codes ...byte) []byte {
	r := make([]byte, reportSize)
	copy(r[2:], codes)
	return r
}

func TestBridgeEmitsTransitions(t *testing.T) {
	var src bytes.Buffer
	src.Write(report(50))     // 50 down
	src.Write(report(50, 54)) // 54 joins
	src.Write(report(54))     // 50 up
	src.Write(report())       // all up

	var dst bytes.Buffer
	if err := NewBridge(&src, &dst).Run(); err != nil {
		t.Fatal(err)
	}

	want := "+50\n+54\n-50\n-54\n"
	if dst.String() != want {
		t.Fatalf("records = %q, want %q", dst.String(), want)
	}
}

func TestBridgeIgnoresRepeatedReports(t *testing.T) {
	var src bytes.Buffer
	src.Write(report(50))
	src.Write(report(50))
	src.Write(report(50))

	var dst bytes.Buffer
	if err := NewBridge(&src, &dst).Run(); err != nil {
		t.Fatal(err)
	}
	if dst.String() != "+50\n" {
		t.Fatalf("records = %q, want a single press", dst.String())
	}
}

func TestBridgeSkipsModifierBytes(t *testing.T) {
	r := make([]byte, reportSize)
	r[0] = 0x02 // shift held: not a key code
	r[2] = 20

	var dst bytes.Buffer
	if err := NewBridge(bytes.NewReader(r), &dst).Run(); err != nil {
		t.Fatal(err)
	}
	if dst.String() != "+20\n" {
		t.Fatalf("records = %q, want only the key byte", dst.String())
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string { return "operation timed out" }
func (timeoutErr) Timeout() bool { return true }

// scriptedReader replays a fixed sequence of reads.
type scriptedReader struct {
	steps []any // []byte report or error
}

func (r *scriptedReader) Read(p []byte) (int, error) {
	if len(r.steps) == 0 {
		return 0, io.EOF
	}
	step := r.steps[0]
	r.steps = r.steps[1:]
	switch v := step.(type) {
	case []byte:
		return copy(p, v), nil
	case error:
		return 0, v
	}
	return 0, io.EOF
}

func TestBridgeGivesUpAfterConsecutiveTimeouts(t *testing.T) {
	steps := make([]any, maxTimeouts)
	for i := range steps {
		steps[i] = timeoutErr{}
	}
	err := NewBridge(&scriptedReader{steps: steps}, &bytes.Buffer{}).Run()
	if err == nil || !strings.Contains(err.Error(), "timeouts") {
		t.Fatalf("err = %v, want timeout give-up", err)
	}
}

func TestBridgeRecoversFromSparseTimeouts(t *testing.T) {
	var steps []any
	for i := 0; i < maxTimeouts-1; i++ {
		steps = append(steps, timeoutErr{})
	}
	steps = append(steps, report(50))
	for i := 0; i < maxTimeouts-1; i++ {
		steps = append(steps, timeoutErr{})
	}

	var dst bytes.Buffer
	if err := NewBridge(&scriptedReader{steps: steps}, &dst).Run(); err != nil {
		t.Fatalf("err = %v, want successful read to reset the counter", err)
	}
	if dst.String() != "+50\n" {
		t.Fatalf("records = %q", dst.String())
	}
}

type errWriter struct{}

func (errWriter) Write(p []byte) (int, error) { return 0, io.ErrClosedPipe }

func TestBridgeDropsRecordsOnWriteError(t *testing.T) {
	var src bytes.Buffer
	src.Write(report(50))
	src.Write(report())

	if err := NewBridge(&src, errWriter{}).Run(); err != nil {
		t.Fatalf("err = %v, channel errors should be tolerated", err)
	}
}
