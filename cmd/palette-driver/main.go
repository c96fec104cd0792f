package main

import (
	"flag"
	"fmt"
	"os"

	"palette/input"
)

// Standalone reader process: HID reports from the keyboard device in,
// press/release records out on the named pipe. Run it next to the main
// engine when the reader should live in its own process.
func main() {
	device := flag.String("device", "/dev/hidraw0", "HID keyboard device")
	pipe := flag.String("pipe", "palette.pipe", "named pipe to write key events to")
	flag.Parse()

	dev, err := input.OpenDevice(*device)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer dev.Close()

	if err := input.EnsurePipe(*pipe); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	w, err := input.OpenPipeWriter(*pipe)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer w.Close()

	if err := input.NewBridge(dev, w).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
