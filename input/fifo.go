package input

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// EnsurePipe creates the named pipe if it does not exist yet.
func EnsurePipe(path string) error {
	if err := unix.Mkfifo(path, 0644); err != nil && !errors.Is(err, unix.EEXIST) {
		return fmt.Errorf("mkfifo %s: %w", path, err)
	}
	return nil
}

// OpenPipeReader opens the read side. Blocks until a writer appears.
func OpenPipeReader(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open pipe for reading: %w", err)
	}
	return f, nil
}

// OpenPipeWriter opens the write side. Blocks until a reader appears.
func OpenPipeWriter(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open pipe for writing: %w", err)
	}
	return f, nil
}

// OpenDevice opens the raw HID keyboard device.
func OpenDevice(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open HID device %s: %w", path, err)
	}
	return f, nil
}
