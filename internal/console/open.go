package console

import (
	"fmt"
	"io"
	"os"

	"go.bug.st/serial"
)

// Console is the operator's terminal.
type Console struct {
	io.Reader
	io.Writer
	io.Closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open returns the process's stdio when port is empty, otherwise the named
// serial port at baud, 8N1.
func Open(port string, baud int) (*Console, error) {
	if port == "" {
		return &Console{Reader: os.Stdin, Writer: os.Stdout, Closer: nopCloser{}}, nil
	}
	p, err := serial.Open(port, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", port, err)
	}
	return &Console{Reader: p, Writer: p, Closer: p}, nil
}
