package main

import (
	"flag"
	"fmt"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"palette/config"
	"palette/control"
	"palette/debug"
	"palette/engine"
	"palette/host"
	"palette/input"
	"palette/theme"
	"palette/tui"
)

func main() {
	testMode := flag.Bool("t", false, "test mode: read key events from stdin instead of the USB reader")
	configPath := flag.String("c", "", "config file path")
	debugFlag := flag.Bool("d", false, "enable debug logging")
	flag.Parse()

	if *debugFlag {
		if err := debug.Enable(); err != nil {
			fmt.Fprintf(os.Stderr, "debug log: %v\n", err)
		}
		defer debug.Disable()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	h, err := host.NewRealtime(0, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "host: %v\n", err)
		os.Exit(1)
	}

	clock := engine.NewClock(h)
	registry := engine.NewRegistry(cfg.Instruments, clock)
	eng := engine.New(clock, registry)
	eng.Attach(h)
	h.SetShutdownCallback(func() {
		debug.Log("main", "host shut down")
	})

	if err := registry.BindPorts(h); err != nil {
		fmt.Fprintf(os.Stderr, "host: %v\n", err)
		os.Exit(1)
	}
	clock.SyncToHost()

	quit := make(chan struct{})
	var quitOnce sync.Once
	shutdown := func() {
		quitOnce.Do(func() { close(quit) })
	}

	plane := control.NewPlane(registry, clock, cfg.Keys, shutdown)

	if err := h.Activate(); err != nil {
		fmt.Fprintf(os.Stderr, "host: %v\n", err)
		os.Exit(1)
	}

	if *testMode {
		// The input channel is stdin; no reader thread, no TUI.
		plane.Run(os.Stdin)
		shutdown()
	} else {
		dev, err := input.OpenDevice(cfg.DevicePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		defer dev.Close()

		if err := input.EnsurePipe(cfg.PipePath); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

		// Reader thread: HID reports in, press/release records out.
		go func() {
			w, err := input.OpenPipeWriter(cfg.PipePath)
			if err != nil {
				debug.Log("main", "%v", err)
				return
			}
			defer w.Close()
			if err := input.NewBridge(dev, w).Run(); err != nil {
				debug.Log("main", "input reader: %v", err)
			}
		}()

		r, err := input.OpenPipeReader(cfg.PipePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		go func() {
			plane.Run(r)
			r.Close()
			shutdown()
		}()

		m := tui.NewModel(registry, plane, h, theme.Default(), shutdown)
		prog := tea.NewProgram(m, tea.WithAltScreen())
		go func() {
			<-quit
			prog.Quit()
		}()
		if _, err := prog.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "tui: %v\n", err)
		}
		shutdown()
	}

	h.Deactivate()
	h.Close()
}
